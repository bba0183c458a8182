package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/botsy"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func execTool(t *testing.T, tool botsy.Tool, args map[string]any) string {
	t.Helper()
	out, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	return out
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	require.EqualError(t, err, "memory: database path is required")
}

func TestTools_RememberRecallForget(t *testing.T) {
	store := openStore(t)

	remember, err := NewRememberTool(store)
	require.NoError(t, err)
	recall, err := NewRecallTool(store)
	require.NoError(t, err)
	forget, err := NewForgetTool(store)
	require.NoError(t, err)

	out := execTool(t, remember, map[string]any{"chat_id": "c1", "key": "color", "value": "blue"})
	assert.Equal(t, "Remembered color.", out)

	out = execTool(t, recall, map[string]any{"chat_id": "c1", "key": "color"})
	assert.Equal(t, "blue", out)

	out = execTool(t, forget, map[string]any{"chat_id": "c1", "key": "color"})
	assert.Equal(t, "Forgot color.", out)

	out = execTool(t, recall, map[string]any{"chat_id": "c1", "key": "color"})
	assert.Equal(t, "Nothing stored for color.", out)
}

func TestRememberTool_Overwrites(t *testing.T) {
	store := openStore(t)

	remember, err := NewRememberTool(store)
	require.NoError(t, err)
	recall, err := NewRecallTool(store)
	require.NoError(t, err)

	execTool(t, remember, map[string]any{"chat_id": "c1", "key": "city", "value": "Lisbon"})
	execTool(t, remember, map[string]any{"chat_id": "c1", "key": "city", "value": "Porto"})

	out := execTool(t, recall, map[string]any{"chat_id": "c1", "key": "city"})
	assert.Equal(t, "Porto", out)
}

func TestRecallTool_ListsChatNotes(t *testing.T) {
	store := openStore(t)

	remember, err := NewRememberTool(store)
	require.NoError(t, err)
	recall, err := NewRecallTool(store)
	require.NoError(t, err)

	execTool(t, remember, map[string]any{"chat_id": "c1", "key": "zebra", "value": "stripes"})
	execTool(t, remember, map[string]any{"chat_id": "c1", "key": "apple", "value": "green"})
	execTool(t, remember, map[string]any{"chat_id": "c2", "key": "other", "value": "chat"})

	out := execTool(t, recall, map[string]any{"chat_id": "c1"})
	assert.Equal(t, "apple: green\nzebra: stripes", out, "sorted by key, own chat only")

	out = execTool(t, recall, map[string]any{"chat_id": "c3"})
	assert.Equal(t, "Nothing stored yet.", out)
}

func TestForgetTool_MissingKey(t *testing.T) {
	store := openStore(t)

	forget, err := NewForgetTool(store)
	require.NoError(t, err)

	out := execTool(t, forget, map[string]any{"chat_id": "c1", "key": "ghost"})
	assert.Equal(t, "Nothing stored for ghost.", out)
}

// Notes written through one store remain readable after the file is reopened.
func TestStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")

	store, err := Open(path)
	require.NoError(t, err)
	remember, err := NewRememberTool(store)
	require.NoError(t, err)
	execTool(t, remember, map[string]any{"chat_id": "c1", "key": "pin", "value": "4711"})
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	recall, err := NewRecallTool(store)
	require.NoError(t, err)

	out := execTool(t, recall, map[string]any{"chat_id": "c1", "key": "pin"})
	assert.Equal(t, "4711", out)
}

// End-to-end through a registry: schemas gate the handlers, and results flow
// back as plain text.
func TestTools_RegisterWithValidation(t *testing.T) {
	store := openStore(t)

	reg := botsy.NewRegistry()
	t.Cleanup(func() { _ = reg.Shutdown(context.Background()) })

	for _, build := range []func(*Store) (botsy.Tool, error){NewRememberTool, NewRecallTool, NewForgetTool} {
		tool, err := build(store)
		require.NoError(t, err)
		reg.Register(tool)
	}

	ctx := context.Background()

	out, err := reg.Execute(ctx, "memory_remember", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Invalid parameters: missing required chat_id; missing required key; missing required value", out)

	out, err = reg.Execute(ctx, "memory_forget", map[string]any{"chat_id": "c1", "key": ""})
	require.NoError(t, err)
	assert.Equal(t, "Invalid parameters: key must be at least 1 chars", out)

	out, err = reg.Execute(ctx, "memory_remember", map[string]any{"chat_id": "c1", "key": "drink", "value": "tea"})
	require.NoError(t, err)
	assert.Equal(t, "Remembered drink.", out)

	out, err = reg.Execute(ctx, "memory_recall", map[string]any{"chat_id": "c1", "key": "drink"})
	require.NoError(t, err)
	assert.Equal(t, "tea", out)
}
