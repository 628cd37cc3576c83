package tool_write

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/droveragent/toolsutil"
	"github.com/drover-cli/drover/src/state"
)

// Tool name constant
const Name = "write"

const writePrompt = `Writes a file to the local filesystem, creating it if it does not exist.

Usage:
- The path must be absolute.
- Overwriting an existing file requires having read that exact file earlier in the conversation; the write is rejected otherwise. This prevents clobbering file state you have not seen.
- Prefer editing existing files over writing new ones.`

// WriteInput represents the parameters for write
type WriteInput struct {
	Path    string `json:"path" required:"true" description:"The absolute file path to write"`
	Content string `json:"content" required:"true" description:"The full content to write"`
}

// Tool returns the write tool definition.
func Tool(fs afero.Fs, tracker *state.ReadTracker) agent.Tool {
	return agent.MustNewTypedTool(Name, writePrompt, makeWriteHandler(fs, tracker))
}

func makeWriteHandler(fs afero.Fs, tracker *state.ReadTracker) agent.TypedHandler[WriteInput] {
	return func(ctx context.Context, input WriteInput) (*aisdk.ToolResponse, error) {
		sessionID := state.SessionIDFrom(ctx)

		if !filepath.IsAbs(input.Path) {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("invalid field 'path': must be an absolute path, got %q", input.Path),
				IsError: true,
			}, nil
		}

		info, err := fs.Stat(input.Path)
		switch {
		case err == nil && info.IsDir():
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("path is a directory: %s", input.Path),
				IsError: true,
			}, nil
		case err == nil:
			// Existing file: the session must have read this exact path.
			if !tracker.WasRead(sessionID, input.Path) {
				return &aisdk.ToolResponse{
					Error:   fmt.Sprintf("%v: %s exists and was not read in this session; read it before overwriting", toolsutil.ErrReadRequired, input.Path),
					IsError: true,
				}, nil
			}
		default:
			if mkErr := fs.MkdirAll(filepath.Dir(input.Path), 0o755); mkErr != nil {
				return &aisdk.ToolResponse{
					Error:   fmt.Sprintf("failed to create parent directory: %v", mkErr),
					IsError: true,
				}, nil
			}
		}

		if err := afero.WriteFile(fs, input.Path, []byte(input.Content), 0o644); err != nil {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("failed to write file: %v", err),
				IsError: true,
			}, nil
		}

		toolsutil.GetLogger().Info("file written", "session_id", sessionID, "path", input.Path, "bytes", len(input.Content))

		return &aisdk.ToolResponse{
			Output:   fmt.Sprintf("Wrote %d bytes to %s", len(input.Content), input.Path),
			Metadata: map[string]any{"bytes": len(input.Content)},
		}, nil
	}
}
