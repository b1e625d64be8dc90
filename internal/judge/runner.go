package judge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/store"
)

// CaseRunner drives a single case through a Submission in batch mode: run
// the artifact with the case's input bound to stdin, capture stdout, then
// hand (input, expected, actual) to the Checker.
type CaseRunner struct {
	submission *Submission
	checker    *Checker
	maxTime    time.Duration
	maxMemory  int64
	workDir    string
	report     io.Writer
}

// NewCaseRunner builds a batch runner bound to one submission/checker pair.
func NewCaseRunner(sub *Submission, checker *Checker, maxTime time.Duration, maxMemory int64, workDir string, report io.Writer) *CaseRunner {
	return &CaseRunner{
		submission: sub,
		checker:    checker,
		maxTime:    maxTime,
		maxMemory:  maxMemory,
		workDir:    workDir,
		report:     report,
	}
}

// Run executes one case and returns its result. Never returns an error for
// a contestant-side failure (timeout, nonzero exit, wrong answer) — those
// are encoded in the returned CaseResult.Verdict. An error return means
// judging infrastructure itself failed for this case.
func (r *CaseRunner) Run(ctx context.Context, c store.Case) (CaseResult, error) {
	stdoutPath := filepath.Join(r.workDir, "stdout")
	stderrPath := filepath.Join(r.workDir, "stderr")

	spec := r.submission.RunSpec(c.InputPath, stdoutPath, stderrPath, r.maxTime, r.maxMemory, false)
	outcome, err := r.submission.Run(ctx, spec)
	if err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: err}
	}

	fmt.Fprintf(r.report, "case %s: elapsed=%dms reason=%v exit=%d\n",
		c.Fingerprint, outcome.ElapsedMs, outcome.TerminationReason, outcome.ExitCode)

	elapsed := outcome.ElapsedMs
	memPeak := outcome.MemoryPeakKB

	switch outcome.TerminationReason {
	case sandbox.Timeout:
		return CaseResult{Verdict: TimeLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.MemoryExceeded:
		return CaseResult{Verdict: MemoryLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.IdleTimeout:
		return CaseResult{Verdict: IdlenessLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.Signalled:
		return CaseResult{Verdict: RuntimeError, Time: &elapsed, Memory: &memPeak}, nil
	}
	if outcome.ExitCode != 0 {
		return CaseResult{Verdict: RuntimeError, Time: &elapsed, Memory: &memPeak}, nil
	}

	result, err := r.checker.Check(ctx, c.InputPath, c.OutputPath, stdoutPath)
	if err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: err}
	}
	if result.Accepted {
		return CaseResult{Verdict: Accepted, Time: &elapsed, Memory: &memPeak}, nil
	}
	return CaseResult{Verdict: WrongAnswer, Time: &elapsed, Memory: &memPeak, Message: result.Message}, nil
}

// Clean removes per-case scratch files. Tolerant of a missing workspace,
// matching the original's "clean after judging, even on the early-break
// path" behavior.
func (r *CaseRunner) Clean() error {
	if r.workDir == "" {
		return nil
	}
	entries, err := os.ReadDir(r.workDir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		name := e.Name()
		if name == "stdout" || name == "stderr" {
			os.Remove(filepath.Join(r.workDir, name))
		}
	}
	return nil
}
