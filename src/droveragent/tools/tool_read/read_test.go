package tool_read

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/state"
)

func execute(t *testing.T, fs afero.Fs, tracker *state.ReadTracker, args map[string]any) *aisdk.ToolResponse {
	t.Helper()
	tool := Tool(fs, "/proj", tracker)
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

func TestReadTextFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.txt", []byte("alpha\nbeta\ngamma"), 0o644))

	resp := execute(t, fs, tracker, map[string]any{"path": "/proj/a.txt"})
	require.False(t, resp.IsError, resp.Error)
	assert.Equal(t, "1: alpha\n2: beta\n3: gamma", resp.Output)
	assert.Equal(t, 3, resp.Metadata["total_lines"])
	assert.True(t, tracker.WasRead("s1", "/proj/a.txt"))
}

func TestReadWithOffsetAndLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line")
	}
	require.NoError(t, afero.WriteFile(fs, "/proj/a.txt", []byte(strings.Join(lines, "\n")), 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{
		"path": "/proj/a.txt", "offset": 10, "limit": 5,
	})
	require.False(t, resp.IsError, resp.Error)
	assert.True(t, strings.HasPrefix(resp.Output, "10: "))
	assert.Contains(t, resp.Output, "14: ")
	assert.NotContains(t, resp.Output, "15: ")
}

func TestReadRelativePathResolution(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/main.go", []byte("package main"), 0o644))

	resp := execute(t, fs, tracker, map[string]any{"path": "main.go"})
	require.False(t, resp.IsError, resp.Error)
	assert.Contains(t, resp.Output, "package main")
	// The resolved absolute path is what gets marked as read.
	assert.True(t, tracker.WasRead("s1", "/proj/src/main.go"))
}

func TestReadAmbiguousRelativePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a/x.go", []byte("1"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/b/x.go", []byte("2"), 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "x.go"})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "ambiguous")
}

func TestReadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	tracker := state.NewReadTracker()

	resp := execute(t, fs, tracker, map[string]any{"path": "/proj/missing.txt"})
	assert.True(t, resp.IsError)
	assert.False(t, tracker.WasRead("s1", "/proj/missing.txt"))
}

func TestReadDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proj/dir", 0o755))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/dir"})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "directory")
}

func TestReadImageAsDataURI(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/pic.png", []byte{0x89, 0x50, 0x4e, 0x47}, 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/pic.png"})
	require.False(t, resp.IsError, resp.Error)
	assert.True(t, strings.HasPrefix(resp.Output, "data:image/png;base64,"))
	assert.Equal(t, "image/png", resp.Metadata["mime_type"])
}

func TestReadSmallPDF(t *testing.T) {
	fs := afero.NewMemMapFs()
	pdf := "%PDF-1.4 << /Type /Page >> << /Type /Page >>"
	require.NoError(t, afero.WriteFile(fs, "/proj/doc.pdf", []byte(pdf), 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/doc.pdf"})
	require.False(t, resp.IsError, resp.Error)
	assert.True(t, strings.HasPrefix(resp.Output, "data:application/pdf;base64,"))
	assert.Equal(t, 2, resp.Metadata["estimated_pages"])
}

func TestReadLargePDFRequiresRange(t *testing.T) {
	fs := afero.NewMemMapFs()
	pdf := "%PDF-1.4 " + strings.Repeat("<< /Type /Page >> ", 15)
	require.NoError(t, afero.WriteFile(fs, "/proj/big.pdf", []byte(pdf), 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/big.pdf"})
	assert.True(t, resp.IsError)
	assert.Contains(t, resp.Error, "pages range")

	resp = execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/big.pdf", "pages": "1-10"})
	assert.False(t, resp.IsError, resp.Error)
}

func TestReadPDFRangeValidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	pdf := "%PDF-1.4 " + strings.Repeat("<< /Type /Page >> ", 30)
	require.NoError(t, afero.WriteFile(fs, "/proj/big.pdf", []byte(pdf), 0o644))

	tests := []struct {
		name     string
		pages    string
		errorHas string
	}{
		{"span too wide", "1-25", "maximum is 20"},
		{"past end of document", "25-35", "estimated 30 pages"},
		{"garbage", "abc", "invalid pages range"},
		{"reversed", "9-3", "invalid pages range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := execute(t, fs, state.NewReadTracker(), map[string]any{
				"path": "/proj/big.pdf", "pages": tt.pages,
			})
			require.True(t, resp.IsError)
			assert.Contains(t, resp.Error, tt.errorHas)
		})
	}
}

func TestReadNotebook(t *testing.T) {
	fs := afero.NewMemMapFs()
	nb := `{
		"cells": [
			{"cell_type": "markdown", "source": ["# Title\n"]},
			{"cell_type": "code", "source": "print(1)", "outputs": [
				{"output_type": "stream", "text": ["1\n"]}
			]}
		]
	}`
	require.NoError(t, afero.WriteFile(fs, "/proj/nb.ipynb", []byte(nb), 0o644))

	resp := execute(t, fs, state.NewReadTracker(), map[string]any{"path": "/proj/nb.ipynb"})
	require.False(t, resp.IsError, resp.Error)
	assert.Contains(t, resp.Output, "Cell 1 (markdown)")
	assert.Contains(t, resp.Output, "# Title")
	assert.Contains(t, resp.Output, "Cell 2 (code)")
	assert.Contains(t, resp.Output, "print(1)")
	assert.Contains(t, resp.Output, "Output (stream)")
}
