// Package llm defines the chat model abstraction and message types used by the
// reasoning loop.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is a single entry in a conversation. Assistant messages may carry
// tool calls; tool messages carry the result for the tool call they answer.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec describes a tool offered to the model. Parameters is a JSON Schema
// object describing the tool's arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatModel produces the next assistant message for a conversation.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*Message, error)
}
