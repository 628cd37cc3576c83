// Package shell runs single command lines in a login shell, preserving
// working-directory continuity per session. Each invocation wraps the user
// command so the shell prints a sentinel marker followed by $PWD after
// execution; the marker is parsed back out of captured stdout and the
// directory is reused as the next command's starting point. A random token in
// the marker prevents collisions with command output.
package shell

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/drover-cli/drover/src/state"
)

// MaxOutputChars is the combined stdout+stderr budget surfaced to the model.
const MaxOutputChars = 30000

// Result is the captured outcome of one command.
type Result struct {
	Output    string
	ExitCode  int
	Signal    string
	Truncated bool
	WorkDir   string
}

// Runner executes commands with per-session working-directory continuity.
type Runner struct {
	workDirs  *state.WorkDirTable
	shellPath string
	logger    *slog.Logger
}

// NewRunner creates a runner using $SHELL, falling back to /bin/bash.
func NewRunner(workDirs *state.WorkDirTable, logger *slog.Logger) *Runner {
	shellPath := os.Getenv("SHELL")
	if shellPath == "" {
		shellPath = "/bin/bash"
	}
	return &Runner{workDirs: workDirs, shellPath: shellPath, logger: logger}
}

// Run executes the command line for the session. A nonzero exit or signal is
// reported in the Result, not as an error; only a launch-level failure (shell
// missing, fork failure) returns an error. The command is not killed on
// session interruption: once dispatched it runs to natural termination, and
// the caller decides whether the result is still wanted.
func (r *Runner) Run(sessionID, command string) (*Result, error) {
	marker := "__DROVER_PWD_" + uuid.NewString() + "__"
	wrapped := fmt.Sprintf("%s\n__drover_status=$?\nprintf '\\n%%s%%s\\n' %s \"$PWD\"\nexit $__drover_status",
		command, marker)

	cmd := exec.Command(r.shellPath, "-l", "-c", wrapped)
	if dir := r.workDirs.Get(sessionID); dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && cmd.ProcessState == nil {
		return nil, fmt.Errorf("failed to launch shell: %w", err)
	}

	out, workDir := extractWorkDir(stdout.String(), marker)
	if workDir != "" {
		r.workDirs.Set(sessionID, workDir)
	}

	combined := out
	if errOut := stderr.String(); errOut != "" {
		if combined != "" && !strings.HasSuffix(combined, "\n") {
			combined += "\n"
		}
		combined += errOut
	}
	combined = ansi.Strip(combined)

	truncated := false
	if len(combined) > MaxOutputChars {
		combined = combined[:MaxOutputChars]
		truncated = true
	}

	result := &Result{
		Output:    combined,
		ExitCode:  cmd.ProcessState.ExitCode(),
		Truncated: truncated,
		WorkDir:   workDir,
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		result.Signal = ws.Signal().String()
	}
	r.logger.Debug("command finished",
		"session_id", sessionID, "exit_code", result.ExitCode, "signal", result.Signal,
		"truncated", truncated, "work_dir", workDir)
	return result, nil
}

// extractWorkDir removes the sentinel line from captured stdout and returns
// the remaining output plus the directory the shell ended in.
func extractWorkDir(out, marker string) (string, string) {
	idx := strings.LastIndex(out, marker)
	if idx < 0 {
		return out, ""
	}
	rest := out[idx+len(marker):]
	workDir := rest
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		workDir = rest[:nl]
	}
	cleaned := out[:idx]
	// Drop the newline the wrapper printed before the marker.
	cleaned = strings.TrimSuffix(cleaned, "\n")
	return cleaned, strings.TrimSpace(workDir)
}
