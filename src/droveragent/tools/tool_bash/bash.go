package tool_bash

import (
	"context"
	"fmt"

	"github.com/drover-cli/drover/src/agent"
	"github.com/drover-cli/drover/src/aisdk"
	"github.com/drover-cli/drover/src/droveragent/toolsutil"
	"github.com/drover-cli/drover/src/shell"
	"github.com/drover-cli/drover/src/state"
)

// Tool name constant
const Name = "bash"

const bashPrompt = `Executes a single shell command line in a login shell.

Usage:
- The command argument is required.
- The working directory persists across calls in the same conversation: a cd in one command affects where the next command starts.
- stdout and stderr are captured together (stdout first). Output beyond 30000 characters is truncated; the truncation is flagged in the result metadata.
- A nonzero exit status is not an error from your side: the exit code and any terminating signal are reported in the result metadata so you can react to them.
- When issuing multiple commands, join them with ';' or '&&' rather than newlines.`

// BashInput represents the parameters for bash
type BashInput struct {
	Command string `json:"command" required:"true" description:"The shell command line to execute"`
}

// Tool returns the bash tool definition backed by the given runner.
func Tool(runner *shell.Runner) agent.Tool {
	return agent.MustNewTypedTool(Name, bashPrompt, makeBashHandler(runner))
}

// makeBashHandler creates the handler for the bash tool. Launch failures are
// returned as errors for the executor to convert; everything else, including
// nonzero exits, is a structured result.
func makeBashHandler(runner *shell.Runner) agent.TypedHandler[BashInput] {
	return func(ctx context.Context, input BashInput) (*aisdk.ToolResponse, error) {
		sessionID := state.SessionIDFrom(ctx)
		if sessionID == "" {
			sessionID = "default"
		}

		toolsutil.GetLogger().Info("running command", "session_id", sessionID, "command", input.Command)

		result, err := runner.Run(sessionID, input.Command)
		if err != nil {
			return nil, err
		}

		metadata := map[string]any{"exit_code": result.ExitCode}
		if result.Signal != "" {
			metadata["signal"] = result.Signal
		}
		if result.Truncated {
			metadata["truncated"] = true
		}
		if result.WorkDir != "" {
			metadata["work_dir"] = result.WorkDir
		}

		resp := &aisdk.ToolResponse{Output: result.Output, Metadata: metadata}
		if result.ExitCode != 0 || result.Signal != "" {
			resp.IsError = true
			if result.Signal != "" {
				resp.Error = fmt.Sprintf("command terminated by signal %s", result.Signal)
			} else {
				resp.Error = fmt.Sprintf("command exited with status %d", result.ExitCode)
			}
		}
		return resp, nil
	}
}
