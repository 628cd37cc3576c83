package tool_edit

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/droveragent/toolsutil"
	"github.com/drover-cli/drover/src/state"
)

// Tool name constant
const Name = "edit"

const editPrompt = `Performs exact string replacements in a file.

Usage:
- The path must be absolute, and the file must have been read earlier in the conversation.
- old_string must match the file content exactly, including whitespace. Never include the line-number prefix from read output.
- The edit fails if old_string occurs more than once, unless replace_all is set. Provide more surrounding context to make the match unique, or set replace_all to change every occurrence.
- new_string must differ from old_string; it may be empty to delete the matched text.`

// EditInput represents the parameters for edit
type EditInput struct {
	Path       string `json:"path" required:"true" description:"The absolute file path to edit"`
	OldString  string `json:"old_string" required:"true" description:"The exact text to replace"`
	NewString  string `json:"new_string" description:"The replacement text (may be empty to delete)"`
	ReplaceAll bool   `json:"replace_all,omitempty" description:"Replace every occurrence instead of requiring a unique match"`
}

// Tool returns the edit tool definition.
func Tool(fs afero.Fs, tracker *state.ReadTracker) agent.Tool {
	return agent.MustNewTypedTool(Name, editPrompt, makeEditHandler(fs, tracker))
}

func makeEditHandler(fs afero.Fs, tracker *state.ReadTracker) agent.TypedHandler[EditInput] {
	return func(ctx context.Context, input EditInput) (*aisdk.ToolResponse, error) {
		sessionID := state.SessionIDFrom(ctx)

		if !filepath.IsAbs(input.Path) {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("invalid field 'path': must be an absolute path, got %q", input.Path),
				IsError: true,
			}, nil
		}
		if input.NewString == input.OldString {
			return &aisdk.ToolResponse{
				Error:   "new_string must differ from old_string",
				IsError: true,
			}, nil
		}

		// The read precondition holds unconditionally, even when the file
		// turns out to be missing.
		if !tracker.WasRead(sessionID, input.Path) {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("%v: %s was not read in this session; read it before editing", toolsutil.ErrReadRequired, input.Path),
				IsError: true,
			}, nil
		}

		info, err := fs.Stat(input.Path)
		if err != nil {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("file not found: %s", input.Path), IsError: true}, nil
		}
		if info.IsDir() {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("path is a directory: %s", input.Path), IsError: true}, nil
		}

		content, err := afero.ReadFile(fs, input.Path)
		if err != nil {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("failed to read file: %v", err), IsError: true}, nil
		}
		text := string(content)

		count := strings.Count(text, input.OldString)
		switch {
		case count == 0:
			return &aisdk.ToolResponse{
				Error:   "old_string not found in file",
				IsError: true,
			}, nil
		case count > 1 && !input.ReplaceAll:
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("old_string occurs %d times; provide more surrounding context to make it unique, or set replace_all", count),
				IsError: true,
			}, nil
		}

		replaced := 1
		var updated string
		if input.ReplaceAll {
			updated = strings.ReplaceAll(text, input.OldString, input.NewString)
			replaced = count
		} else {
			updated = strings.Replace(text, input.OldString, input.NewString, 1)
		}

		if err := afero.WriteFile(fs, input.Path, []byte(updated), 0o644); err != nil {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("failed to write file: %v", err), IsError: true}, nil
		}

		toolsutil.GetLogger().Info("file edited", "session_id", sessionID, "path", input.Path, "replacements", replaced)

		diff := udiff.Unified("a/"+filepath.Base(input.Path), "b/"+filepath.Base(input.Path), text, updated)
		return &aisdk.ToolResponse{
			Output: fmt.Sprintf("Replaced %d occurrence(s)", replaced),
			Metadata: map[string]any{
				"replacements": replaced,
				"diff":         diff,
			},
		}, nil
	}
}
