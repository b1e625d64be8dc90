package runsc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judge-core/internal/sandbox"
)

// forcing an unresolvable runsc path keeps these tests deterministic across
// dev boxes and CI alike — demo mode is exactly what a box without gVisor
// installed falls back to.
func demoExecutor() *Executor {
	return New("/nonexistent-runsc-binary-for-tests", "", nil)
}

func TestNew_DemoModeWhenRunscMissing(t *testing.T) {
	e := demoExecutor()
	assert.False(t, e.IsAvailable())
}

func TestRun_DemoModeExecutesDirectly(t *testing.T) {
	e := demoExecutor()
	workDir := t.TempDir()
	stdout := filepath.Join(workDir, "stdout")

	outcome, err := e.Run(context.Background(), sandbox.RunSpec{
		ArtifactPath: "/bin/echo",
		Args:         []string{"hello-judge"},
		Stdout:       stdout,
		MaxTime:      2 * time.Second,
		WorkDir:      workDir,
	})
	require.NoError(t, err)
	assert.Equal(t, sandbox.Normal, outcome.TerminationReason)
	assert.Equal(t, 0, outcome.ExitCode)

	data, err := os.ReadFile(stdout)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello-judge")
}

func TestRun_DemoModeTimeout(t *testing.T) {
	e := demoExecutor()
	workDir := t.TempDir()

	outcome, err := e.Run(context.Background(), sandbox.RunSpec{
		ArtifactPath: "/bin/sleep",
		Args:         []string{"5"},
		MaxTime:      100 * time.Millisecond,
		WorkDir:      workDir,
	})
	require.NoError(t, err)
	assert.Equal(t, sandbox.Timeout, outcome.TerminationReason)
}

func TestRun_DemoModeNonzeroExit(t *testing.T) {
	e := demoExecutor()
	workDir := t.TempDir()

	outcome, err := e.Run(context.Background(), sandbox.RunSpec{
		ArtifactPath: "/bin/sh",
		Args:         []string{"-c", "exit 3"},
		MaxTime:      2 * time.Second,
		WorkDir:      workDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.ExitCode)
}

func TestRun_DemoModeStdinPiped(t *testing.T) {
	e := demoExecutor()
	workDir := t.TempDir()
	stdin := filepath.Join(workDir, "stdin")
	stdout := filepath.Join(workDir, "stdout")
	require.NoError(t, os.WriteFile(stdin, []byte("piped content\n"), 0644))

	outcome, err := e.Run(context.Background(), sandbox.RunSpec{
		ArtifactPath: "/bin/cat",
		Stdin:        stdin,
		Stdout:       stdout,
		MaxTime:      2 * time.Second,
		WorkDir:      workDir,
	})
	require.NoError(t, err)
	assert.Equal(t, sandbox.Normal, outcome.TerminationReason)

	data, err := os.ReadFile(stdout)
	require.NoError(t, err)
	assert.Equal(t, "piped content\n", string(data))
}
