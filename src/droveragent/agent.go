// Package droveragent assembles the drover agent: the fixed four-tool
// toolbox, the operating-instructions system prompt, and skill document
// discovery.
package droveragent

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/droveragent/tools/tool_bash"
	"github.com/drover-cli/drover/src/droveragent/tools/tool_edit"
	"github.com/drover-cli/drover/src/droveragent/tools/tool_read"
	"github.com/drover-cli/drover/src/droveragent/tools/tool_write"
	"github.com/drover-cli/drover/src/droveragent/toolsutil"
	"github.com/drover-cli/drover/src/shell"
	"github.com/drover-cli/drover/src/state"
)

// Tables groups the process-lifetime per-session stores the tools share.
type Tables struct {
	Reads    *state.ReadTracker
	WorkDirs *state.WorkDirTable
}

// NewTables creates empty shared tables.
func NewTables() *Tables {
	return &Tables{
		Reads:    state.NewReadTracker(),
		WorkDirs: state.NewWorkDirTable(),
	}
}

// NewToolbox builds the toolbox with the bash, read, write, and edit tools
// wired against the given filesystem and shared tables.
func NewToolbox(fs afero.Fs, projectRoot string, tables *Tables, logger *slog.Logger) (*agent.Toolbox, error) {
	toolsutil.SetLogger(logger)

	runner := shell.NewRunner(tables.WorkDirs, logger)

	toolbox := agent.NewToolbox()
	for _, tool := range []agent.Tool{
		tool_bash.Tool(runner),
		tool_read.Tool(fs, projectRoot, tables.Reads),
		tool_write.Tool(fs, tables.Reads),
		tool_edit.Tool(fs, tables.Reads),
	} {
		if err := toolbox.RegisterTool(tool); err != nil {
			return nil, err
		}
	}
	toolbox.RegisterMiddleware(agent.LoggingMiddleware(logger))
	return toolbox, nil
}
