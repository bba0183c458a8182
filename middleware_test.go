package botsy

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	inner := &minTool{name: "log_me", desc: "desc"}
	inner.execute = func(_ context.Context, _ map[string]any) (string, error) {
		return "ok", nil
	}
	wrapped := WithLogging(logger)(inner)
	out, err := wrapped.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	logStr := buf.String()
	assert.Contains(t, logStr, "tool start")
	assert.Contains(t, logStr, "tool end")
	assert.Contains(t, logStr, "log_me")
}

func TestWithLogging_ErrorPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	inner := &minTool{name: "fail_me", desc: "desc"}
	inner.execute = func(_ context.Context, _ map[string]any) (string, error) {
		return "", errors.New("boom")
	}
	wrapped := WithLogging(logger)(inner)
	_, err := wrapped.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
	logStr := buf.String()
	assert.Contains(t, logStr, "tool error")
	assert.Contains(t, logStr, "boom")
}

func TestWithRecovery(t *testing.T) {
	inner := &minTool{name: "panic_me", desc: "desc"}
	inner.execute = func(_ context.Context, _ map[string]any) (string, error) {
		panic("test panic")
	}
	wrapped := WithRecovery()(inner)
	res, err := wrapped.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Empty(t, res)
	var sysErr *SystemError
	require.ErrorAs(t, err, &sysErr)
	// SystemError hides message; unwrapped error contains "panic"
	assert.Contains(t, sysErr.Err.Error(), "panic")
}

func TestWithTimeoutMiddleware(t *testing.T) {
	inner := &minTool{name: "slow", desc: "desc"}
	inner.execute = func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	wrapped := WithTimeoutMiddleware(5 * time.Millisecond)(inner)
	res, err := wrapped.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Empty(t, res)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_Use(t *testing.T) {
	reg := NewRegistry()
	reg.Register(doubleTool(t))
	reg.Use(WithRecovery(), WithLogging(slog.Default()))
	res, err := reg.Execute(context.Background(), "double", map[string]any{"x": 2})
	require.NoError(t, err)
	assert.Equal(t, "4", res)
}

// TestRegistry_Use_NoDoubleWrap verifies that calling Use() twice rewraps from raw tools,
// so middlewares are not applied twice.
func TestRegistry_Use_NoDoubleWrap(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	reg := NewRegistry()
	reg.Register(doubleTool(t))
	reg.Use(WithRecovery())
	reg.Use(WithLogging(logger))
	res, err := reg.Execute(context.Background(), "double", map[string]any{"x": 3})
	require.NoError(t, err)
	assert.Equal(t, "6", res)
	logStr := buf.String()
	// With double-wrap we would see "tool start" twice (Logging(Logging(tool))). With rewrap-from-raw we see once.
	require.Equal(t, 1, strings.Count(logStr, "tool start"))
}

func TestRegistry_Use_AppliesToLaterRegistrations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	reg := NewRegistry()
	reg.Use(WithLogging(logger))
	reg.Register(doubleTool(t))
	res, err := reg.Execute(context.Background(), "double", map[string]any{"x": 5})
	require.NoError(t, err)
	assert.Equal(t, "10", res)
	assert.Contains(t, buf.String(), "tool start")
}

func TestToolBase_DelegatesMetadata(t *testing.T) {
	tool, err := New("meta", "d", nil, func(_ context.Context, _ map[string]any) (string, error) {
		return "", nil
	}, WithTimeout(2*time.Second), WithTags("a"), WithVersion("1.2"), WithDangerous())
	require.NoError(t, err)
	wrapped := WithRecovery()(tool)
	meta, ok := wrapped.(ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, meta.Timeout())
	assert.Equal(t, []string{"a"}, meta.Tags())
	assert.Equal(t, "1.2", meta.Version())
	assert.True(t, meta.IsDangerous())
	assert.Equal(t, "meta", wrapped.Name())
	assert.Equal(t, "d", wrapped.Description())
}
