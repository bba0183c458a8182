// Package botsy provides the message-handling core of a chat-bot runtime:
// schema-validated tool execution, inbound deduplication, reply sequencing,
// and supervised channel connections.
//
// # Overview
//
// Chat platforms deliver messages; LLM agents answer them by calling tools.
// This package turns both directions into plain Go: inbound events are
// deduplicated and forwarded to a message bus, tool calls are validated
// against a declared Schema and executed with timeouts and panic recovery,
// and outbound replies are stamped with a per-conversation sequence before
// delivery.
//
// Pipeline: a Schema plus a handler func becomes a Tool via New or NewTool;
// a Registry validates calls against the Schema, runs the handler, and encodes
// failures as result text.
//
// # Key concepts
//
//   - Failures are text: Registry.Execute never surfaces tool errors to the
//     caller; unknown tools, invalid parameters, and execution errors all come
//     back as consumable result strings the model can read and correct.
//   - Partial Success: ExecuteBatch collects all results; one failure does not
//     cancel others.
//   - Self-Correction: ClientError carries human-readable messages back to the LLM.
//
// See Tool, Call, CallResult for the core types, and New / NewTool /
// NewRegistry for setup. Channel supervision lives in the channel
// subpackage, message queues in bus, and YAML configuration in config.
//
// # Example
//
//	type Args struct { City string `json:"city"` }
//	params := botsy.Object(botsy.Prop("city", botsy.String()), botsy.Required("city"))
//	tool, err := botsy.NewTool("weather", "Get weather", params, func(_ context.Context, a Args) (string, error) {
//	    return "22.5C in " + a.City, nil
//	})
//	if err != nil { ... }
//	reg := botsy.NewRegistry()
//	reg.Register(tool)
//	result, err := reg.Execute(ctx, "weather", map[string]any{"city": "Moscow"})
package botsy
