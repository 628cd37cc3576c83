// Package executor turns model-issued tool-call requests into serialized
// tool results. Each call is isolated: malformed entries are dropped, unknown
// tools and handler failures become structured error results, and nothing a
// handler does can abort the batch. Calls run strictly sequentially in
// request order because later calls may depend on side effects of earlier
// ones (a cd in one bash call, a read gating a later edit) and the
// per-session tables are not synchronized for concurrent writers.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/state"
)

// Result is the envelope serialized into a tool-role message. Field order is
// fixed by declaration: ok, name, output?, error?, metadata?; absent optional
// fields are omitted.
type Result struct {
	OK       bool           `json:"ok"`
	Name     string         `json:"name"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Outcome pairs one executed call with its serialized result.
type Outcome struct {
	CallID   string
	ToolName string
	Result   Result
	// Payload is the deterministic JSON encoding of Result.
	Payload string
}

// Executor dispatches tool calls against a toolbox.
type Executor struct {
	toolbox *agent.Toolbox
	logger  *slog.Logger
}

// New creates an executor over the given toolbox.
func New(toolbox *agent.Toolbox, logger *slog.Logger) *Executor {
	return &Executor{toolbox: toolbox, logger: logger}
}

// ExecuteBatch runs the calls sequentially in request order and returns one
// outcome per well-formed call. Entries missing an ID or name are dropped
// silently.
func (e *Executor) ExecuteBatch(ctx context.Context, sessionID string, calls []aisdk.ToolCall) []Outcome {
	ctx = state.WithSessionID(ctx, sessionID)

	outcomes := make([]Outcome, 0, len(calls))
	for i := range calls {
		call := calls[i]
		if call.ID == "" || call.Function.Name == "" {
			e.logger.Warn("dropping malformed tool call", "session_id", sessionID, "index", i)
			continue
		}
		result := e.executeOne(ctx, &call)
		payload, err := json.Marshal(result)
		if err != nil {
			// Metadata values are plain JSON types; this should not happen.
			payload = []byte(fmt.Sprintf(`{"ok":false,"name":%q,"error":"failed to encode tool result"}`, call.Function.Name))
		}
		outcomes = append(outcomes, Outcome{
			CallID:   call.ID,
			ToolName: call.Function.Name,
			Result:   result,
			Payload:  string(payload),
		})
	}
	return outcomes
}

func (e *Executor) executeOne(ctx context.Context, call *aisdk.ToolCall) (result Result) {
	name := call.Function.Name
	result = Result{Name: name}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", name, "panic", r)
			result = Result{Name: name, Error: fmt.Sprintf("tool %s panicked: %v", name, r)}
		}
	}()

	if !e.toolbox.HasTool(name) {
		result.Error = fmt.Sprintf("unknown tool: %s", name)
		return result
	}

	if _, err := call.Function.RawArguments(); err != nil {
		result.Error = fmt.Sprintf("arguments must be a JSON object: %v", err)
		return result
	}

	resp, err := e.toolbox.ExecuteTool(ctx, call)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.OK = !resp.IsError
	result.Output = resp.Output
	result.Error = resp.Error
	result.Metadata = resp.Metadata
	return result
}
