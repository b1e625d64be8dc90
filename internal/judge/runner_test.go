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

func buildCaseRunnerFixture(t *testing.T, exec sandbox.Executor) (*CaseRunner, store.Case) {
	t.Helper()
	workDir := t.TempDir()
	registry := toolchain.NewDefaultRegistry()
	sub, err := NewSubmission("fp1", "python", "print(input())", workDir, registry, exec)
	require.NoError(t, err)
	require.NoError(t, sub.Compile(context.Background(), 5*time.Second))

	checker := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, exec, workDir)
	input := writeTemp(t, "input", "7\n")
	output := writeTemp(t, "output", "7\n")

	var report strings.Builder
	runner := NewCaseRunner(sub, checker, 2*time.Second, 256<<20, workDir, &report)
	c := store.Case{Fingerprint: "case1", InputPath: input, OutputPath: output}
	return runner, c
}

func TestCaseRunner_Accepted(t *testing.T) {
	runner, c := buildCaseRunnerFixture(t, catExecutor())
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, Accepted, result.Verdict)
	require.NotNil(t, result.Time)
	require.NotNil(t, result.Memory)
}

func TestCaseRunner_WrongAnswer(t *testing.T) {
	exec := &fakeExecutor{runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
		if err := os.WriteFile(spec.Stdout, []byte("99\n"), 0644); err != nil {
			return sandbox.Outcome{}, err
		}
		return sandbox.Outcome{ExitCode: 0}, nil
	}}
	runner, c := buildCaseRunnerFixture(t, exec)
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, WrongAnswer, result.Verdict)
}

func TestCaseRunner_TimeLimitExceeded(t *testing.T) {
	exec := &fakeExecutor{runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
		return sandbox.Outcome{TerminationReason: sandbox.Timeout, ElapsedMs: 2000}, nil
	}}
	runner, c := buildCaseRunnerFixture(t, exec)
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, TimeLimitExceeded, result.Verdict)
	assert.Equal(t, int64(2000), *result.Time)
}

func TestCaseRunner_MemoryLimitExceeded(t *testing.T) {
	exec := &fakeExecutor{runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
		return sandbox.Outcome{TerminationReason: sandbox.MemoryExceeded}, nil
	}}
	runner, c := buildCaseRunnerFixture(t, exec)
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, MemoryLimitExceeded, result.Verdict)
}

func TestCaseRunner_RuntimeErrorOnNonzeroExit(t *testing.T) {
	exec := &fakeExecutor{runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
		return sandbox.Outcome{ExitCode: 1}, nil
	}}
	runner, c := buildCaseRunnerFixture(t, exec)
	result, err := runner.Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, RuntimeError, result.Verdict)
}

func TestCaseRunner_InfraFailureWrapsAsJudgementFailedError(t *testing.T) {
	exec := &fakeExecutor{runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
		return sandbox.Outcome{}, assert.AnError
	}}
	runner, c := buildCaseRunnerFixture(t, exec)
	_, err := runner.Run(context.Background(), c)
	require.Error(t, err)
	var jfe *JudgementFailedError
	require.ErrorAs(t, err, &jfe)
}

func TestCaseRunner_CleanToleratesMissingWorkDir(t *testing.T) {
	runner, _ := buildCaseRunnerFixture(t, catExecutor())
	os.RemoveAll(runner.workDir)
	require.NoError(t, runner.Clean())
	require.NoError(t, runner.Clean())
}
