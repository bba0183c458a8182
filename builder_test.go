package botsy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Simple(t *testing.T) {
	tool, err := New("add_one", "Add one", nil, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	require.NotNil(t, tool)
	assert.Equal(t, "add_one", tool.Name())
	assert.Equal(t, "Add one", tool.Description())
	params := tool.Parameters()
	require.NotNil(t, params)
	assert.Equal(t, TypeObject, params.Type)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("", "desc", nil, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	})
	require.Error(t, err)

	_, err = New("name", "desc", nil, nil)
	require.Error(t, err)

	_, err = NewTool[struct{}]("name", "desc", nil, nil)
	require.Error(t, err)
}

func TestNewTool_Execute_Success(t *testing.T) {
	type args struct {
		X int `json:"x"`
	}
	tool, err := NewTool("add_one", "Add one", nil, func(_ context.Context, a args) (string, error) {
		if a.X != 5 {
			return "", errors.New("unexpected x")
		}
		return "6", nil
	})
	require.NoError(t, err)
	res, err := tool.Execute(context.Background(), map[string]any{"x": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, "6", res)
}

func TestNewTool_Execute_DecodeError(t *testing.T) {
	type args struct {
		X int `json:"x"`
	}
	tool, err := NewTool("id", "desc", nil, func(_ context.Context, _ args) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	// Schema-less tool; the decode step still rejects a string where T wants int.
	_, err = tool.Execute(context.Background(), map[string]any{"x": "not a number"})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidatable_NotImplemented(t *testing.T) {
	type args struct {
		Low  int `json:"low"`
		High int `json:"high"`
	}
	// args does not implement Validatable; runCustomValidation should no-op
	err := runCustomValidation(args{Low: 10, High: 5})
	assert.NoError(t, err)
}

// validatableArgs implements Validatable for tests.
type validatableArgs struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (a validatableArgs) Validate() error {
	if a.Low > a.High {
		return errors.New("low must be <= high")
	}
	return nil
}

func TestValidatable_Implemented(t *testing.T) {
	tool, err := NewTool("validatable_tool", "desc", nil, func(_ context.Context, _ validatableArgs) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	// Valid: low <= high
	res, err := tool.Execute(context.Background(), map[string]any{"low": 1, "high": 10})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	// Invalid: low > high, Validatable.Validate returns error
	_, err = tool.Execute(context.Background(), map[string]any{"low": 10, "high": 5})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

// pointerValidatableArgs implements Validatable with pointer receiver only.
type pointerValidatableArgs struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (a *pointerValidatableArgs) Validate() error {
	if a.Min > a.Max {
		return errors.New("min must be <= max")
	}
	return nil
}

func TestValidatable_PointerReceiver(t *testing.T) {
	tool, err := NewTool("ptr_validatable", "desc", nil, func(_ context.Context, _ pointerValidatableArgs) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	// Valid: min <= max
	res, err := tool.Execute(context.Background(), map[string]any{"min": 1, "max": 10})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	// Invalid: min > max, Validatable.Validate (pointer receiver) returns error
	_, err = tool.Execute(context.Background(), map[string]any{"min": 10, "max": 5})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTool_ImplementsTool(t *testing.T) {
	type a struct {
		X int `json:"x"`
	}
	tool, err := NewTool[a]("t", "d", nil, func(_ context.Context, _ a) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	var _ Tool = tool
}

func TestTool_Tags_ReturnsCopy(t *testing.T) {
	tool, err := New("t", "d", nil, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	}, WithTags("a", "b"))
	require.NoError(t, err)
	meta, ok := tool.(ToolMetadata)
	require.True(t, ok)
	tags := meta.Tags()
	require.Equal(t, []string{"a", "b"}, tags)
	tags[0] = "mutated"
	tags2 := meta.Tags()
	require.Equal(t, []string{"a", "b"}, tags2)
}

func BenchmarkExecute(b *testing.B) {
	type args struct {
		X int `json:"x"`
	}
	tool, err := NewTool("bench", "desc", nil, func(_ context.Context, a args) (string, error) {
		_ = a.X
		return "ok", nil
	})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	in := map[string]any{"x": float64(42)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = tool.Execute(ctx, in)
	}
}
