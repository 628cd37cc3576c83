package shell

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drover-cli/drover/src/state"
)

func newTestRunner() *Runner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(state.NewWorkDirTable(), logger)
}

func TestRunCapturesOutput(t *testing.T) {
	runner := newTestRunner()

	result, err := runner.Run("s1", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	// Login shells may emit profile noise; check containment, not equality.
	assert.Contains(t, result.Output, "hello")
	assert.False(t, result.Truncated)
	assert.NotEmpty(t, result.WorkDir)
}

func TestRunReportsNonzeroExit(t *testing.T) {
	runner := newTestRunner()

	result, err := runner.Run("s1", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunCapturesStderr(t *testing.T) {
	runner := newTestRunner()

	result, err := runner.Run("s1", "echo oops >&2")
	require.NoError(t, err)
	assert.Contains(t, result.Output, "oops")
}

func TestWorkDirContinuity(t *testing.T) {
	runner := newTestRunner()
	dir := t.TempDir()

	result, err := runner.Run("s1", "cd "+dir)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)

	result, err = runner.Run("s1", "true")
	require.NoError(t, err)
	// MacOS tempdirs resolve through /private; suffix match is enough.
	assert.True(t, strings.HasSuffix(result.WorkDir, dir),
		"expected work dir %q to end with %q", result.WorkDir, dir)
}

func TestWorkDirIsolatedPerSession(t *testing.T) {
	runner := newTestRunner()
	dir := t.TempDir()

	_, err := runner.Run("s1", "cd "+dir)
	require.NoError(t, err)

	result, err := runner.Run("s2", "true")
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(result.WorkDir, dir))
}

func TestRunTruncatesLongOutput(t *testing.T) {
	runner := newTestRunner()

	result, err := runner.Run("s1", "head -c 40000 /dev/zero | tr '\\0' 'x'")
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Output, MaxOutputChars)
}

func TestRunFailedCommandStillUpdatesWorkDir(t *testing.T) {
	runner := newTestRunner()
	dir := t.TempDir()

	result, err := runner.Run("s1", "cd "+dir+" && false")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.True(t, strings.HasSuffix(result.WorkDir, dir))
}

func TestExtractWorkDir(t *testing.T) {
	out, workDir := extractWorkDir("hello\n__MARK__/tmp\n", "__MARK__")
	assert.Equal(t, "hello", out)
	assert.Equal(t, "/tmp", workDir)

	out, workDir = extractWorkDir("no marker here", "__MARK__")
	assert.Equal(t, "no marker here", out)
	assert.Equal(t, "", workDir)
}
