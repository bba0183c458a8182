// Package testutil provides test helpers for botsy consumers: a configurable
// MockTool with an invocation counter, a scriptable MockConnection, and a
// registry factory with test-friendly settings.
//
// The library's own tests keep local fakes; these helpers exist for
// downstream packages that register tools or drive a Supervisor in tests.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/skosovsky/botsy"
)

// MockTool is a configurable Tool for tests. Execute returns Result/Err
// unless ExecuteFn is set. Calls counts invocations, so a test can assert
// that a rejected call never reached the tool.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal *botsy.Schema
	Result    string
	Err       error
	ExecuteFn func(ctx context.Context, args map[string]any) (string, error)

	calls atomic.Int64
}

// Name returns NameVal, or "mock" when unset.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns DescVal.
func (m *MockTool) Description() string { return m.DescVal }

// Parameters returns ParamsVal, or an unconstrained object when unset.
func (m *MockTool) Parameters() *botsy.Schema {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return botsy.Object()
}

// Execute counts the call and runs ExecuteFn if set, otherwise returns
// Result/Err.
func (m *MockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	m.calls.Add(1)
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return m.Result, m.Err
}

// Calls reports how many times Execute has run.
func (m *MockTool) Calls() int { return int(m.calls.Load()) }

// Ensure MockTool implements Tool.
var _ botsy.Tool = (*MockTool)(nil)
