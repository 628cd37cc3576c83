package store

import (
	"github.com/drover-cli/drover/src/aisdk"
)

// Session statuses. Transitions: pending -> processing -> one of the three
// terminal states, with processing re-entering itself across tool iterations.
const (
	StatusPending     = "pending"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Session is one conversation thread's index entry. Timestamps are RFC3339Nano
// strings; the retention sort parses them and falls back to raw string
// comparison when parsing fails.
type Session struct {
	ID            string           `json:"id"`
	Summary       string           `json:"summary,omitempty"`
	Status        string           `json:"status"`
	Reason        string           `json:"reason,omitempty"`
	LastContent   string           `json:"last_content,omitempty"`
	LastThinking  string           `json:"last_thinking,omitempty"`
	LastRefusal   string           `json:"last_refusal,omitempty"`
	LastToolCalls []aisdk.ToolCall `json:"last_tool_calls,omitempty"`
	Usage         aisdk.Usage      `json:"usage"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// ContentParams carries structured content attached to a message, currently
// image references expanded into multimodal parts when rebuilding the
// outbound message list.
type ContentParams struct {
	Images []string `json:"images,omitempty"`
}

// MessageParams carries protocol linkage: the tool-call batch on an assistant
// message, or the call being answered on a tool message.
type MessageParams struct {
	ToolCalls  []aisdk.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolName   string           `json:"tool_name,omitempty"`
}

// Meta is optional presentation metadata consumed by the UI layer.
type Meta struct {
	RenderedArgs   string `json:"rendered_args,omitempty"`
	RenderedResult string `json:"rendered_result,omitempty"`
	// AsThinking marks a message as auxiliary/collapsible in the transcript.
	AsThinking bool `json:"as_thinking,omitempty"`
}

// Message is one persisted turn in a session's append-only log.
type Message struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Role      string  `json:"role"`
	Content   *string `json:"content"`
	// ContentParams and MessageParams are nullable structured payloads.
	ContentParams *ContentParams `json:"content_params,omitempty"`
	MessageParams *MessageParams `json:"message_params,omitempty"`
	// Compacted excludes the message from future model context.
	Compacted bool `json:"compacted,omitempty"`
	// Visible excludes the message from UI replay when false.
	Visible   bool   `json:"visible"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Meta      *Meta  `json:"meta,omitempty"`
}

// Text returns the message content, or "" when null.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
