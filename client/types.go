// Package client implements the completion transport for the Gemini Code
// Assist API: request construction, project resolution, streaming and
// non-streaming calls, and SSE decoding.
package client

import (
	"context"

	"google.golang.org/genai"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentPart is one element of multi-part message content.
type ContentPart struct {
	Text          string `json:"text,omitempty"`
	ImageData     []byte `json:"image_data,omitempty"`
	ImageMIMEType string `json:"image_mime_type,omitempty"`
}

// Message is one entry in a conversation history. Content carries plain
// text; Parts carries mixed text/image content and takes precedence when
// non-empty. A message with ToolCallID set is a tool response addressed to
// the call it answers. Messages are append-only: once in a history they
// are never mutated.
type Message struct {
	Role       Role          `json:"role"`
	Content    string        `json:"content,omitempty"`
	Parts      []ContentPart `json:"parts,omitempty"`
	Name       string        `json:"name,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// FunctionCall names a function the model wants invoked, with its
// arguments. Arguments pass through as-is; the SDK does not validate them
// against the tool's schema.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCall is a model-issued request to invoke a tool. The Code Assist
// wire format carries no call id, so the decoder synthesizes one; dispatch
// answers each ToolCall with exactly one tool-response message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// ToolInvocation is what a tool handler receives.
type ToolInvocation struct {
	Name      string
	Arguments map[string]any
	CallID    string
}

// ToolResult is what a tool handler returns. TextForModel is the text fed
// back into conversation history; when empty the dispatcher stringifies
// the invocation result it got instead.
type ToolResult struct {
	TextForModel string
	SessionLog   string
}

// ToolHandler executes a tool invocation. Handlers are invoked with the
// session's context and may block; a handler that fans work out to other
// goroutines simply waits for them before returning. Returning an error
// records an error-shaped tool response without aborting the round.
type ToolHandler func(ctx context.Context, inv ToolInvocation) (ToolResult, error)

// Tool declares a function the model may call. Parameters uses the genai
// schema type, which the transport forwards verbatim as the function
// declaration's parameter schema. Tools are immutable value objects; the
// same Tool may be shared by a registry and any number of sessions.
type Tool struct {
	Name        string
	Description string
	Parameters  *genai.Schema
	Handler     ToolHandler
}

// GenerationConfig holds sampling parameters for a completion request.
// Zero values are omitted from the request payload.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
	TopK            int
	StopSequences   []string
}

// ThinkingConfig requests model reasoning output.
type ThinkingConfig struct {
	IncludeThoughts bool
	ThinkingBudget  int
}

// LLMUsage is token accounting reported by the provider.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMChunk is one decoded unit of model output: an incremental content or
// reasoning delta plus any tool calls, usage, and finish reason seen in
// the same frame. For non-streaming calls a single chunk carries the whole
// response.
type LLMChunk struct {
	Content          string             `json:"content,omitempty"`
	ReasoningContent string             `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall         `json:"tool_calls,omitempty"`
	Usage            *LLMUsage          `json:"usage,omitempty"`
	FinishReason     genai.FinishReason `json:"finish_reason,omitempty"`
}
