package models

import (
	"testing"

	"github.com/google/uuid"
)

func ptr[T any](v T) *T { return &v }

func TestFields_OnlyPresentKeys(t *testing.T) {
	f := TodoChanges{Completed: ptr(false)}.Fields()
	if len(f) != 1 {
		t.Fatalf("len(fields) = %d, want 1", len(f))
	}
	if v, ok := f[FieldCompleted]; !ok || v != false {
		t.Errorf("completed = %v, %v", v, ok)
	}
}

func TestFields_EmptyPatch(t *testing.T) {
	if f := (TodoChanges{}).Fields(); len(f) != 0 {
		t.Errorf("empty patch produced %v", f)
	}
}

func TestApplyTo_FalsyValuesOverwrite(t *testing.T) {
	rec := CreatedTodo{ID: uuid.New(), Title: "a title", Completed: true, Order: ptr(3)}
	TodoChanges{Title: ptr(""), Completed: ptr(false), Order: ptr(0)}.Fields().ApplyTo(&rec)

	if rec.Title != "" {
		t.Errorf("title = %q, want empty", rec.Title)
	}
	if rec.Completed {
		t.Error("completed should be false")
	}
	if rec.Order == nil || *rec.Order != 0 {
		t.Errorf("order = %v, want 0", rec.Order)
	}
}

func TestApplyTo_UntouchedFieldsKept(t *testing.T) {
	rec := CreatedTodo{ID: uuid.New(), Title: "a title", Order: ptr(1)}
	TodoChanges{Title: ptr("X")}.Fields().ApplyTo(&rec)

	if rec.Title != "X" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Completed {
		t.Error("completed changed")
	}
	if rec.Order == nil || *rec.Order != 1 {
		t.Errorf("order = %v, want 1", rec.Order)
	}
}

func TestClone_DoesNotAliasOrder(t *testing.T) {
	rec := CreatedTodo{ID: uuid.New(), Order: ptr(1)}
	c := rec.Clone()
	*c.Order = 5
	if *rec.Order != 1 {
		t.Errorf("original order mutated to %d", *rec.Order)
	}
}

func TestFieldsValidate(t *testing.T) {
	if err := (TodoChanges{Title: ptr("a"), Completed: ptr(true), Order: ptr(3)}).Fields().Validate(); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}
	bad := []Fields{
		{"id": "x"},
		{FieldTitle: 5},
		{FieldCompleted: "yes"},
		{FieldOrder: int64(7)},
		{FieldOrder: 1.5},
	}
	for _, f := range bad {
		if err := f.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want error", f)
		}
	}
}
