package botsy

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// tool is the descriptor-backed implementation built by New and NewTool.
// The descriptor (name, description, parameters) is immutable after creation.
type tool struct {
	name        string
	description string
	params      *Schema
	execute     func(context.Context, map[string]any) (string, error)
	opts        toolOptions
}

// New builds a Tool from a descriptor and a handler taking the raw argument
// mapping. The registry validates arguments against params before the handler
// runs. A nil params declares an object with no constraints. Construction
// fails only on programmer error (empty name, nil handler).
func New(
	name, description string,
	params *Schema,
	fn func(ctx context.Context, args map[string]any) (string, error),
	opts ...ToolOption,
) (Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool handler must not be nil")
	}
	if params == nil {
		params = Object()
	}
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &tool{
		name:        name,
		description: description,
		params:      params,
		execute:     fn,
		opts:        o,
	}, nil
}

// NewTool builds a Tool whose handler receives arguments decoded into T.
// Decoding happens after schema validation (a JSON round-trip of the mapping),
// then the Validatable hook runs when T implements it (value or pointer
// receiver). Decode and Validatable failures surface as ClientError so the
// caller gets a correctable message.
func NewTool[T any](
	name, description string,
	params *Schema,
	fn func(ctx context.Context, args T) (string, error),
	opts ...ToolOption,
) (Tool, error) {
	if fn == nil {
		return nil, fmt.Errorf("tool handler must not be nil")
	}
	execute := func(ctx context.Context, args map[string]any) (string, error) {
		typed, err := decodeArgs[T](args)
		if err != nil {
			return "", err
		}
		return fn(ctx, typed)
	}
	return New(name, description, params, execute, opts...)
}

// decodeArgs converts the validated mapping into T via a JSON round-trip and
// runs the Validatable hook.
func decodeArgs[T any](args map[string]any) (T, error) {
	var zero T
	data, err := json.Marshal(args)
	if err != nil {
		return zero, &SystemError{Err: err}
	}
	var typed T
	if err := json.Unmarshal(data, &typed); err != nil {
		return zero, wrapDecodeError(err)
	}
	if err := runCustomValidation(typed); err != nil {
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return typed, nil
}

// runCustomValidation runs Validatable.Validate() on args; if args does not
// implement Validatable, it tries &args for value types (pointer receiver).
// Never calls Validate twice for the same receiver.
func runCustomValidation[T any](args T) error {
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	if v, ok := any(&args).(Validatable); ok {
		return v.Validate()
	}
	return nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns the declared schema. Callers must treat it as read-only.
func (t *tool) Parameters() *Schema { return t.params }

func (t *tool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.execute(ctx, args)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) Version() string        { return t.opts.version }
func (t *tool) IsDangerous() bool      { return t.opts.dangerous }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
