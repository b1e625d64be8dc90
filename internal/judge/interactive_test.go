package judge

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/store"
	"github.com/ocx/judge-core/internal/toolchain"
)

// interactiveExecutor dispatches on spec shape: the interactor run is
// identified by its two positional Args (input, transcript path); anything
// else is treated as the contestant.
type interactiveExecutor struct {
	contestantOutcome sandbox.Outcome
	interactorOutcome sandbox.Outcome
	transcript        string
}

func (e *interactiveExecutor) Run(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
	if spec.Trusted && len(spec.Args) == 2 {
		if err := os.WriteFile(spec.Args[1], []byte(e.transcript), 0644); err != nil {
			return sandbox.Outcome{}, err
		}
		return e.interactorOutcome, nil
	}
	return e.contestantOutcome, nil
}

func buildInteractiveFixture(t *testing.T, exec sandbox.Executor, expected string) (*InteractiveRunner, store.Case) {
	t.Helper()
	workDir := t.TempDir()
	registry := toolchain.NewDefaultRegistry()
	sub, err := NewSubmission("fp1", "python", "print('hi')", workDir, registry, exec)
	require.NoError(t, err)
	require.NoError(t, sub.Compile(context.Background(), 5*time.Second))

	checker := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, exec, workDir)
	interactor := NewInteractor(store.CheckerRef{Fingerprint: "interactor1"}, exec, workDir)

	var report strings.Builder
	runner := NewInteractiveRunner(sub, interactor, checker, 2*time.Second, 256<<20, workDir, &report)
	c := store.Case{
		Fingerprint: "case1",
		InputPath:   writeTemp(t, "input", "7\n"),
		OutputPath:  writeTemp(t, "output", expected),
	}
	return runner, c
}

func TestInteractiveRunner_Accepted(t *testing.T) {
	exec := &interactiveExecutor{
		contestantOutcome: sandbox.Outcome{ExitCode: 0, ElapsedMs: 10},
		interactorOutcome: sandbox.Outcome{ExitCode: 0},
		transcript:        "14\n",
	}
	runner, c := buildInteractiveFixture(t, exec, "14\n")
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, Accepted, result.Verdict)
}

func TestInteractiveRunner_InteractorRejects(t *testing.T) {
	exec := &interactiveExecutor{
		contestantOutcome: sandbox.Outcome{ExitCode: 0},
		interactorOutcome: sandbox.Outcome{ExitCode: 1},
		transcript:        "garbage\n",
	}
	runner, c := buildInteractiveFixture(t, exec, "14\n")
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, WrongAnswer, result.Verdict)
	assert.Contains(t, result.Message, "interactor rejected dialogue")
}

func TestInteractiveRunner_ContestantTimeoutTakesPrecedence(t *testing.T) {
	exec := &interactiveExecutor{
		contestantOutcome: sandbox.Outcome{TerminationReason: sandbox.Timeout, ElapsedMs: 2000},
		interactorOutcome: sandbox.Outcome{ExitCode: 1}, // interactor also unhappy, but irrelevant
		transcript:        "",
	}
	runner, c := buildInteractiveFixture(t, exec, "14\n")
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, TimeLimitExceeded, result.Verdict)
}

func TestInteractiveRunner_ContestantNonzeroExitIsRuntimeError(t *testing.T) {
	exec := &interactiveExecutor{
		contestantOutcome: sandbox.Outcome{ExitCode: 1},
		interactorOutcome: sandbox.Outcome{ExitCode: 0},
		transcript:        "14\n",
	}
	runner, c := buildInteractiveFixture(t, exec, "14\n")
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, RuntimeError, result.Verdict)
}

func TestInteractiveRunner_CleanToleratesMissingFiles(t *testing.T) {
	runner, _ := buildInteractiveFixture(t, &interactiveExecutor{}, "")
	require.NoError(t, runner.Clean())
	require.NoError(t, runner.Clean())
}
