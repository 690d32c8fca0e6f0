package mcpserver

// PatchContract describes how todo fields behave, for LLM consumers
// that create and update todos through the tools.
const PatchContract = `# Todo Semantics

A todo has:

- ` + "`id`" + `: UUID, generated on creation, never changes.
- ` + "`title`" + `: string, required on creation.
- ` + "`completed`" + `: boolean, always false on creation.
- ` + "`order`" + `: optional integer. Duplicates and gaps are allowed.
- ` + "`url`" + `: derived from the id; it cannot be set.

## Updating

` + "`patch_todo`" + ` is a sparse merge. Only the arguments you pass change;
everything you omit keeps its stored value. Passing ` + "`completed: false`" + `
or ` + "`order: 0`" + ` does change the todo.

## Missing todos

- ` + "`get_todo`" + ` and ` + "`patch_todo`" + ` on an unknown id return "Todo not found".
- ` + "`delete_todo`" + ` on an unknown id succeeds and does nothing.
`
