package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/starford/todod/internal/apperr"
	"github.com/starford/todod/internal/models"
)

func ptr[T any](v T) *T { return &v }

func tempSQLite(t *testing.T) *SQL {
	t.Helper()
	f, err := os.CreateTemp("", "todod-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(context.Background(), Options{URL: f.Name()})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachStore runs fn against every backing so they stay behaviorally equivalent.
func forEachStore(t *testing.T, fn func(t *testing.T, s Provider)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, tempSQLite(t)) })
}

func newTodo(title string, order *int) models.CreatedTodo {
	return models.CreatedTodo{ID: uuid.New(), Title: title, Order: order}
}

func TestEmptyStore(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		all, err := s.All(context.Background())
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if all == nil || len(all) != 0 {
			t.Errorf("All = %v, want empty non-nil", all)
		}
	})
}

func TestInsertAndFind(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a title", ptr(1))
		td.URL = "http://example/ignored"
		if err := s.Insert(ctx, td); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		got, err := s.Find(ctx, td.ID)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if got == nil {
			t.Fatal("Find returned nil")
		}
		if got.ID != td.ID || got.Title != "a title" || got.Completed {
			t.Errorf("got %+v", got)
		}
		if got.Order == nil || *got.Order != 1 {
			t.Errorf("order = %v, want 1", got.Order)
		}
		if got.URL != "" {
			t.Errorf("url persisted: %q", got.URL)
		}
	})
}

func TestInsertNilOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("no order", nil)
		_ = s.Insert(ctx, td)
		got, _ := s.Find(ctx, td.ID)
		if got == nil || got.Order != nil {
			t.Errorf("got %+v, want nil order", got)
		}
	})
}

func TestInsertDuplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("dup", nil)
		if err := s.Insert(ctx, td); err != nil {
			t.Fatalf("first insert: %v", err)
		}
		err := s.Insert(ctx, td)
		if !errors.Is(err, apperr.ErrDuplicateKey) {
			t.Errorf("second insert err = %v, want ErrDuplicateKey", err)
		}
	})
}

func TestFindMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		got, err := s.Find(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		var ids []uuid.UUID
		for _, title := range []string{"c", "a", "b"} {
			td := newTodo(title, nil)
			ids = append(ids, td.ID)
			_ = s.Insert(ctx, td)
		}
		all, err := s.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("len = %d, want 3", len(all))
		}
		for i, td := range all {
			if td.ID != ids[i] {
				t.Errorf("all[%d] = %s, want %s", i, td.ID, ids[i])
			}
		}
	})
}

func TestUpdateFieldsSparse(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a title", ptr(1))
		_ = s.Insert(ctx, td)

		if err := s.UpdateFields(ctx, td.ID, models.Fields{models.FieldCompleted: true}); err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
		got, _ := s.Find(ctx, td.ID)
		if !got.Completed {
			t.Error("completed not set")
		}
		if got.Title != "a title" {
			t.Errorf("title = %q, want unchanged", got.Title)
		}
		if got.Order == nil || *got.Order != 1 {
			t.Errorf("order = %v, want unchanged 1", got.Order)
		}
	})
}

func TestUpdateFieldsFalsyValues(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a title", ptr(4))
		td.Completed = true
		_ = s.Insert(ctx, td)

		err := s.UpdateFields(ctx, td.ID, models.Fields{
			models.FieldCompleted: false,
			models.FieldOrder:     0,
		})
		if err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
		got, _ := s.Find(ctx, td.ID)
		if got.Completed {
			t.Error("completed should be false")
		}
		if got.Order == nil || *got.Order != 0 {
			t.Errorf("order = %v, want 0", got.Order)
		}
	})
}

func TestUpdateFieldsMissingIsNoop(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		_ = s.Insert(ctx, newTodo("keep", nil))
		if err := s.UpdateFields(ctx, uuid.New(), models.Fields{models.FieldTitle: "x"}); err != nil {
			t.Fatalf("UpdateFields on missing id: %v", err)
		}
		all, _ := s.All(ctx)
		if len(all) != 1 || all[0].Title != "keep" {
			t.Errorf("store changed: %+v", all)
		}
	})
}

func TestUpdateFieldsUnknownColumn(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a", nil)
		_ = s.Insert(ctx, td)
		if err := s.UpdateFields(ctx, td.ID, models.Fields{"id": "x"}); err == nil {
			t.Error("expected error for unknown field")
		}
	})
}

func TestUpdateFieldsWrongType(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a", ptr(1))
		if err := s.Insert(ctx, td); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateFields(ctx, td.ID, models.Fields{models.FieldOrder: int64(7), models.FieldTitle: 5}); err == nil {
			t.Fatal("expected error for mistyped values")
		}
		got, err := s.Find(ctx, td.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Title != "a" || got.Order == nil || *got.Order != 1 {
			t.Errorf("record changed by rejected update: %+v", got)
		}
	})
}

func TestRemove(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		a, b := newTodo("a", nil), newTodo("b", nil)
		_ = s.Insert(ctx, a)
		_ = s.Insert(ctx, b)

		if err := s.Remove(ctx, a.ID); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if got, _ := s.Find(ctx, a.ID); got != nil {
			t.Error("removed todo still found")
		}
		// Missing id is a no-op.
		if err := s.Remove(ctx, uuid.New()); err != nil {
			t.Fatalf("Remove missing: %v", err)
		}
		all, _ := s.All(ctx)
		if len(all) != 1 || all[0].ID != b.ID {
			t.Errorf("all = %+v, want only b", all)
		}
	})
}

func TestClear(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_ = s.Insert(ctx, newTodo("x", nil))
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		all, _ := s.All(ctx)
		if len(all) != 0 {
			t.Errorf("len = %d after clear", len(all))
		}
	})
}

func TestFindReturnsCopy(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Provider) {
		ctx := context.Background()
		td := newTodo("a", ptr(1))
		_ = s.Insert(ctx, td)

		got, _ := s.Find(ctx, td.ID)
		got.Title = "mutated"
		*got.Order = 9

		again, _ := s.Find(ctx, td.ID)
		if again.Title != "a" || *again.Order != 1 {
			t.Errorf("stored record aliased: %+v", again)
		}
	})
}

func TestMemoryConcurrentAccess(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			td := newTodo("x", nil)
			_ = s.Insert(ctx, td)
			_ = s.UpdateFields(ctx, td.ID, models.Fields{models.FieldCompleted: true})
			_, _ = s.All(ctx)
		}()
	}
	wg.Wait()
	all, _ := s.All(ctx)
	if len(all) != 50 {
		t.Errorf("len = %d, want 50", len(all))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestWithQuery(t *testing.T) {
	got := withQuery("todos.db", map[string]string{"_busy_timeout": "5000", "_journal_mode": "WAL"})
	want := "todos.db?_busy_timeout=5000&_journal_mode=WAL"
	if got != want {
		t.Errorf("withQuery = %q, want %q", got, want)
	}
	if got := withQuery("postgres://h/db?sslmode=disable", map[string]string{"application_name": "todod"}); got != "postgres://h/db?sslmode=disable&application_name=todod" {
		t.Errorf("withQuery append = %q", got)
	}
}

func TestSQLiteInMemoryOutlivesConnMaxLifetime(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, Options{URL: ":memory:", ConnMaxLifetime: time.Millisecond})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	td := newTodo("kept", nil)
	if err := s.Insert(ctx, td); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0].ID != td.ID {
		t.Errorf("all = %+v, want the inserted todo", all)
	}
}

func TestDriverFromURL(t *testing.T) {
	cases := map[string]string{
		"sqlite:///todos.db":       DriverSQLite,
		"postgres://h/db":          DriverPostgres,
		"postgresql://u@h:5432/db": DriverPostgres,
		"./todos.db":               "",
		"":                         "",
	}
	for in, want := range cases {
		if got := DriverFromURL(in); got != want {
			t.Errorf("DriverFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}
