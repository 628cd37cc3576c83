package tool_write

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/state"
)

func execute(t *testing.T, fs afero.Fs, tracker *state.ReadTracker, args map[string]any) *aisdk.ToolResponse {
	t.Helper()
	tool := Tool(fs, tracker)
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	ctx := state.WithSessionID(context.Background(), "s1")
	resp, err := tool.Execute(ctx, &aisdk.ToolCall{
		ID:       "call-1",
		Type:     "function",
		Function: aisdk.FunctionCall{Name: Name, Arguments: string(raw)},
	})
	require.NoError(t, err)
	return resp
}

func TestWriteNewFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()

	resp := execute(t, fs, tracker, map[string]any{
		"path":    "/proj/new/file.txt",
		"content": "hello",
	})
	require.False(t, resp.IsError, resp.Error)
	assert.Contains(t, resp.Output, "Wrote 5 bytes")

	data, err := afero.ReadFile(fs, "/proj/new/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteRejectsRelativePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	resp := execute(t, fs, state.NewReadTracker(), map[string]any{
		"path":    "file.txt",
		"content": "hello",
	})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "absolute")
}

func TestWriteExistingFileRequiresRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.txt", []byte("old"), 0o644))

	resp := execute(t, fs, tracker, map[string]any{
		"path":    "/proj/a.txt",
		"content": "new",
	})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "read")

	// Original content untouched.
	data, _ := afero.ReadFile(fs, "/proj/a.txt")
	assert.Equal(t, "old", string(data))
}

func TestWriteExistingFileAfterRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.txt", []byte("old"), 0o644))
	tracker.MarkRead("s1", "/proj/a.txt")

	resp := execute(t, fs, tracker, map[string]any{
		"path":    "/proj/a.txt",
		"content": "new",
	})
	require.False(t, resp.IsError, resp.Error)

	data, _ := afero.ReadFile(fs, "/proj/a.txt")
	assert.Equal(t, "new", string(data))
}

func TestWriteReadInOtherSessionDoesNotCount(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.txt", []byte("old"), 0o644))
	tracker.MarkRead("other-session", "/proj/a.txt")

	resp := execute(t, fs, tracker, map[string]any{
		"path":    "/proj/a.txt",
		"content": "new",
	})
	assert.True(t, resp.IsError)
}

func TestWriteDirectoryTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj/dir", 0o755))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{
		"path":    "/proj/dir",
		"content": "x",
	})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "directory")
}

func TestWriteMissingContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	resp := execute(t, fs, state.NewReadTracker(), map[string]any{
		"path": "/proj/a.txt",
	})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "missing required field 'content'")
}
