package botsy

import (
	"context"
	"time"
)

// Tool is the contract for a named capability the runtime can dispatch.
// It is network-agnostic (no knowledge of any chat platform or LLM provider).
type Tool interface {
	Name() string
	Description() string
	// Parameters declares the argument schema the registry validates against
	// before Execute runs. Callers must treat the returned schema as read-only.
	Parameters() *Schema
	// Execute runs the capability with an argument mapping that already passed
	// schema validation and returns the textual result shown to the caller.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolMetadata is implemented by tools created with New and provides optional
// per-tool settings. Registry uses Timeout() to override the default execution
// timeout when set. The other methods expose tags, version, and the dangerous
// flag for orchestration or discovery.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
	IsDangerous() bool
}

// Call is a single execution request.
type Call struct {
	ID   string
	Tool string
	Args map[string]any
}

// CallResult is the outcome of one call, as delivered to batch callers and the
// after-execution hook (WithOnAfterExecute). Result carries the consumable
// text, including encoded failures ("unknown tool ...", "Invalid parameters: ...",
// "Error: ..."). Err records the underlying cause for observability; when
// Result is empty the call never ran (registry shut down or the caller's
// context ended) and Err is the only signal.
type CallResult struct {
	ID     string
	Tool   string
	Result string
	Err    error
}
