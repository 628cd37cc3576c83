package droveragent

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/drover-cli/drover/src/agent"
)

const basePrompt = `You are drover, a coding agent that works on the user's machine through local tools.

Guidelines:
- Use the read tool before overwriting or editing any existing file; writes and edits to unread files are rejected.
- Keep edits minimal and exact. When an edit fails because the target text is not unique, add surrounding context instead of guessing.
- The bash tool keeps its working directory between calls. Prefer absolute paths anyway.
- Report what you did plainly. Do not fabricate command output or file contents.`

// BuildSystemPrompt assembles the operating instructions injected as the
// first, non-visible system message of every session.
func BuildSystemPrompt(toolbox *agent.Toolbox, workDir string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nEnvironment:\n")
	fmt.Fprintf(&b, "- Platform: %s\n", platformString())
	fmt.Fprintf(&b, "- Working directory: %s\n", workDir)

	b.WriteString("\nAvailable tools:\n")
	for _, tool := range toolbox.Tools() {
		fmt.Fprintf(&b, "- %s: %s\n", tool.GetName(), firstLine(tool.GetDescription()))
	}
	return strings.TrimRight(b.String(), "\n")
}

// platformString returns a human-readable platform description, falling back
// to the bare GOOS when host info is unavailable.
func platformString() string {
	if info, err := host.Info(); err == nil && info.Platform != "" {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		return info.Platform
	}
	return runtime.GOOS
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
