package tool_read

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/drover-cli/drover/src/aisdk"
)

// notebook mirrors the subset of the .ipynb document format needed for
// flattening into text.
type notebook struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string           `json:"cell_type"`
	Source   multiline        `json:"source"`
	Outputs  []notebookOutput `json:"outputs"`
}

type notebookOutput struct {
	OutputType string               `json:"output_type"`
	Text       multiline            `json:"text"`
	Data       map[string]multiline `json:"data"`
	EValue     multiline            `json:"evalue"`
}

// multiline accepts both the string and string-array source encodings.
type multiline string

func (m *multiline) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = multiline(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*m = multiline(strings.Join(parts, ""))
	return nil
}

// readNotebook flattens a notebook document into text: each cell and its
// outputs serialized under a cell/output header.
func readNotebook(content []byte) *aisdk.ToolResponse {
	var nb notebook
	if err := json.Unmarshal(content, &nb); err != nil {
		return &aisdk.ToolResponse{Error: fmt.Sprintf("failed to parse notebook: %v", err), IsError: true}
	}

	var b strings.Builder
	for i, cell := range nb.Cells {
		fmt.Fprintf(&b, "=== Cell %d (%s) ===\n%s\n", i+1, cell.CellType, strings.TrimRight(string(cell.Source), "\n"))
		for _, out := range cell.Outputs {
			fmt.Fprintf(&b, "--- Output (%s) ---\n%s\n", out.OutputType, strings.TrimRight(outputText(out), "\n"))
		}
	}
	return &aisdk.ToolResponse{
		Output:   strings.TrimRight(b.String(), "\n"),
		Metadata: map[string]any{"cells": len(nb.Cells)},
	}
}

func outputText(out notebookOutput) string {
	if out.Text != "" {
		return string(out.Text)
	}
	if text, ok := out.Data["text/plain"]; ok {
		return string(text)
	}
	if out.EValue != "" {
		return string(out.EValue)
	}
	return "(no text representation)"
}
