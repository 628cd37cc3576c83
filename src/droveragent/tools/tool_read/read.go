package tool_read

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/droveragent/toolsutil"
	"github.com/drover-cli/drover/src/state"
)

// Tool name constant
const Name = "read"

// Large PDFs must be requested by page range.
const (
	pdfRangeThreshold = 10
	pdfMaxRangeSpan   = 20
)

const readPrompt = `Reads a file from the local filesystem.

Usage:
- Prefer absolute paths. An unambiguous relative path is resolved against the project tree (honoring .gitignore); multiple matches are an error.
- Text files are returned with 1-based line numbers. By default up to 2000 lines are returned starting at line 1; use offset and limit for large files. Lines longer than 2000 characters are truncated.
- Images are returned as base64 data URIs.
- PDFs are returned as base64 data URIs. Documents estimated over 10 pages require a pages range such as "1-10"; a range may span at most 20 pages.
- Jupyter notebooks (.ipynb) are flattened into text, cell by cell, with their outputs.
- Reading a file is the precondition for overwriting or editing it.`

// ReadInput represents the parameters for read
type ReadInput struct {
	Path   string `json:"path" required:"true" description:"The file path to read (absolute, or relative to the project root)"`
	Offset int    `json:"offset,omitempty" description:"1-based line number to start reading from (text files only)" validate:"omitempty,gte=1"`
	Limit  int    `json:"limit,omitempty" description:"Maximum number of lines to return (text files only)" validate:"omitempty,gte=1"`
	Pages  string `json:"pages,omitempty" description:"Page range for PDF files, e.g. \"1-5\" or \"3\""`
}

// Tool returns the read tool definition.
func Tool(fs afero.Fs, projectRoot string, tracker *state.ReadTracker) agent.Tool {
	return agent.MustNewTypedTool(Name, readPrompt, makeReadHandler(fs, projectRoot, tracker))
}

func makeReadHandler(fs afero.Fs, projectRoot string, tracker *state.ReadTracker) agent.TypedHandler[ReadInput] {
	return func(ctx context.Context, input ReadInput) (*aisdk.ToolResponse, error) {
		sessionID := state.SessionIDFrom(ctx)
		logger := toolsutil.GetLogger()

		path := input.Path
		if !filepath.IsAbs(path) {
			resolved, err := toolsutil.ResolveRelative(fs, projectRoot, path)
			if err != nil {
				return &aisdk.ToolResponse{Error: err.Error(), IsError: true}, nil
			}
			path = resolved
		}

		info, err := fs.Stat(path)
		if err != nil {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("file not found: %s", path), IsError: true}, nil
		}
		if info.IsDir() {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("path is a directory: %s", path), IsError: true}, nil
		}

		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return &aisdk.ToolResponse{Error: fmt.Sprintf("failed to read file: %v", err), IsError: true}, nil
		}

		var resp *aisdk.ToolResponse
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case ext == ".ipynb":
			resp = readNotebook(content)
		case ext == ".pdf":
			resp = readPDF(content, input.Pages)
		case toolsutil.ImageMimeType(ext) != "":
			encoded := base64.StdEncoding.EncodeToString(content)
			resp = &aisdk.ToolResponse{
				Output:   toolsutil.DataURI(toolsutil.ImageMimeType(ext), encoded),
				Metadata: map[string]any{"mime_type": toolsutil.ImageMimeType(ext)},
			}
		default:
			resp = readText(content, input.Offset, input.Limit)
		}

		if !resp.IsError {
			tracker.MarkRead(sessionID, path)
			logger.Info("file read", "session_id", sessionID, "path", path, "size", len(content))
		}
		return resp, nil
	}
}

func readText(content []byte, offset, limit int) *aisdk.ToolResponse {
	text := string(content)
	totalLines := strings.Count(text, "\n") + 1
	return &aisdk.ToolResponse{
		Output:   toolsutil.FormatLines(text, offset, limit),
		Metadata: map[string]any{"total_lines": totalLines},
	}
}

func readPDF(content []byte, pages string) *aisdk.ToolResponse {
	estimated := toolsutil.EstimatePDFPages(content)
	if pages == "" {
		if estimated > pdfRangeThreshold {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("PDF has an estimated %d pages; specify a pages range such as \"1-%d\"", estimated, pdfRangeThreshold),
				IsError: true,
			}
		}
	} else {
		first, last, err := parsePageRange(pages)
		if err != nil {
			return &aisdk.ToolResponse{Error: err.Error(), IsError: true}
		}
		if span := last - first + 1; span > pdfMaxRangeSpan {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("page range spans %d pages, maximum is %d", span, pdfMaxRangeSpan),
				IsError: true,
			}
		}
		if last > estimated {
			return &aisdk.ToolResponse{
				Error:   fmt.Sprintf("page range ends at %d but the document has an estimated %d pages", last, estimated),
				IsError: true,
			}
		}
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	metadata := map[string]any{"estimated_pages": estimated}
	if pages != "" {
		metadata["pages"] = pages
	}
	return &aisdk.ToolResponse{
		Output:   toolsutil.DataURI("application/pdf", encoded),
		Metadata: metadata,
	}
}

// parsePageRange parses "N" or "N-M" into an inclusive 1-based range.
func parsePageRange(pages string) (int, int, error) {
	first, last := pages, pages
	if dash := strings.IndexByte(pages, '-'); dash >= 0 {
		first, last = pages[:dash], pages[dash+1:]
	}
	lo, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || lo < 1 {
		return 0, 0, fmt.Errorf("invalid pages range %q", pages)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil || hi < lo {
		return 0, 0, fmt.Errorf("invalid pages range %q", pages)
	}
	return lo, hi, nil
}
