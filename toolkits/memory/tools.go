package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/skosovsky/botsy"
)

type rememberArgs struct {
	ChatID string `json:"chat_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// NewRememberTool returns the memory_remember tool: store a note for a chat
// under a key, replacing any previous value.
func NewRememberTool(store *Store) (botsy.Tool, error) {
	params := botsy.Object(
		botsy.Prop("chat_id", botsy.String()),
		botsy.Prop("key", botsy.String(botsy.MinLength(1))),
		botsy.Prop("value", botsy.String()),
		botsy.Required("chat_id", "key", "value"),
	)
	return botsy.NewTool("memory_remember", "Store a note for this chat under a key (overwrites).", params,
		func(ctx context.Context, a rememberArgs) (string, error) {
			if err := store.upsert(ctx, a.ChatID, a.Key, a.Value); err != nil {
				return "", fmt.Errorf("remember %s: %w", a.Key, err)
			}
			return fmt.Sprintf("Remembered %s.", a.Key), nil
		})
}

type recallArgs struct {
	ChatID string `json:"chat_id"`
	Key    string `json:"key"`
}

// NewRecallTool returns the memory_recall tool: read one note by key, or list
// every note for the chat when key is omitted.
func NewRecallTool(store *Store) (botsy.Tool, error) {
	params := botsy.Object(
		botsy.Prop("chat_id", botsy.String()),
		botsy.Prop("key", botsy.String()),
		botsy.Required("chat_id"),
	)
	return botsy.NewTool("memory_recall", "Recall a note by key, or all notes for this chat.", params,
		func(ctx context.Context, a recallArgs) (string, error) {
			if a.Key != "" {
				value, ok, err := store.get(ctx, a.ChatID, a.Key)
				if err != nil {
					return "", fmt.Errorf("recall %s: %w", a.Key, err)
				}
				if !ok {
					return fmt.Sprintf("Nothing stored for %s.", a.Key), nil
				}
				return value, nil
			}
			notes, err := store.list(ctx, a.ChatID)
			if err != nil {
				return "", fmt.Errorf("recall: %w", err)
			}
			if len(notes) == 0 {
				return "Nothing stored yet.", nil
			}
			lines := make([]string, len(notes))
			for i, n := range notes {
				lines[i] = n.key + ": " + n.value
			}
			return strings.Join(lines, "\n"), nil
		})
}

type forgetArgs struct {
	ChatID string `json:"chat_id"`
	Key    string `json:"key"`
}

// NewForgetTool returns the memory_forget tool: delete one note.
func NewForgetTool(store *Store) (botsy.Tool, error) {
	params := botsy.Object(
		botsy.Prop("chat_id", botsy.String()),
		botsy.Prop("key", botsy.String(botsy.MinLength(1))),
		botsy.Required("chat_id", "key"),
	)
	return botsy.NewTool("memory_forget", "Delete a note for this chat by key.", params,
		func(ctx context.Context, a forgetArgs) (string, error) {
			removed, err := store.remove(ctx, a.ChatID, a.Key)
			if err != nil {
				return "", fmt.Errorf("forget %s: %w", a.Key, err)
			}
			if !removed {
				return fmt.Sprintf("Nothing stored for %s.", a.Key), nil
			}
			return fmt.Sprintf("Forgot %s.", a.Key), nil
		})
}
