// Package aisdk defines the provider-neutral chat types exchanged with the
// model capability. The model client is treated as an opaque request/response
// boundary: a message list plus tool schema goes out, a single turn with
// optional content, reasoning, refusal, tool calls, and usage comes back.
package aisdk

import (
	"context"
	"encoding/json"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// Message represents a single outbound message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	// Parts replaces Content when the message carries multimodal content
	// (one text part plus one part per image reference).
	Parts []ContentPart `json:"parts,omitempty"`
	// Name identifies the function for tool responses.
	Name string `json:"name,omitempty"`
	// ToolCallID references the original call for tool responses.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls contains function calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type string `json:"type"` // "text" or "image_url"
	Text string `json:"text,omitempty"`
	// ImageURL holds a URL or data URI when Type is "image_url".
	ImageURL string `json:"image_url,omitempty"`
}

// ToolCall represents a function call request emitted by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResponse is the outcome of executing a single tool call. Exactly one of
// Output or Error is meaningful depending on IsError; Metadata carries
// tool-specific detail such as exit codes or truncation flags.
type ToolResponse struct {
	Output   string
	Error    string
	Metadata map[string]any
	IsError  bool
}

// ToolFunction describes a callable function exposed to the model.
type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// ChatTool wraps a ToolFunction in the protocol shape.
type ChatTool struct {
	Type     string       `json:"type"` // always "function"
	Function ToolFunction `json:"function"`
}

// ChatCompletionRequest is a request to the chat completion capability.
type ChatCompletionRequest struct {
	Model      string      `json:"model"`
	Messages   []*Message  `json:"messages"`
	Tools      []*ChatTool `json:"tools,omitempty"`
	ToolChoice string      `json:"tool_choice,omitempty"`
}

// ChatCompletionResponse is the single assistant turn produced by the model.
type ChatCompletionResponse struct {
	Content          string     `json:"content,omitempty"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	Refusal          string     `json:"refusal,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	Usage            *Usage     `json:"usage,omitempty"`
}

// Usage reports token consumption for one model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage sample.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ModelClient is the opaque model capability consumed by the session loop.
// Cancellation flows through the context; no retries are attempted.
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
	ModelID() string
}

// RawArguments returns the call's argument string as a JSON object, treating
// an empty string as an empty object. A non-object document is an error.
func (fc FunctionCall) RawArguments() (map[string]json.RawMessage, error) {
	if fc.Arguments == "" {
		return map[string]json.RawMessage{}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(fc.Arguments), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
