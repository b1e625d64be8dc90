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

// InteractiveRunner drives a case through two sandboxed processes connected
// by a bidirectional pipe pair: the contestant's stdout feeds the
// interactor's stdin and vice versa. The interactor runs trusted (relaxed
// sandbox, higher budget); the contestant runs under the case's normal
// time/memory caps.
type InteractiveRunner struct {
	submission *Submission
	interactor *Interactor
	checker    *Checker
	maxTime    time.Duration
	maxMemory  int64
	workDir    string
	report     io.Writer
}

// NewInteractiveRunner builds an interactive runner bound to one
// submission/interactor/checker triple.
func NewInteractiveRunner(sub *Submission, interactor *Interactor, checker *Checker, maxTime time.Duration, maxMemory int64, workDir string, report io.Writer) *InteractiveRunner {
	return &InteractiveRunner{
		submission: sub,
		interactor: interactor,
		checker:    checker,
		maxTime:    maxTime,
		maxMemory:  maxMemory,
		workDir:    workDir,
		report:     report,
	}
}

// Run spawns the contestant and interactor connected by a pipe pair, waits
// for both to finish, then checks the interactor's transcript against the
// case's expected output.
func (r *InteractiveRunner) Run(ctx context.Context, c store.Case) (CaseResult, error) {
	// contestant stdout -> interactor stdin
	c2iRead, c2iWrite, err := os.Pipe()
	if err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: fmt.Errorf("interactive: create pipe: %w", err)}
	}
	defer c2iRead.Close()
	defer c2iWrite.Close()

	// interactor stdout -> contestant stdin
	i2cRead, i2cWrite, err := os.Pipe()
	if err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: fmt.Errorf("interactive: create pipe: %w", err)}
	}
	defer i2cRead.Close()
	defer i2cWrite.Close()

	transcriptPath := filepath.Join(r.workDir, "transcript")
	contestantErrPath := filepath.Join(r.workDir, "contestant.stderr")

	contestantFD := int(i2cRead.Fd())
	contestantOutFD := int(c2iWrite.Fd())
	contestantSpec := r.submission.RunSpec("", "", contestantErrPath, r.maxTime, r.maxMemory, false)
	contestantSpec.StdinPipe = &contestantFD
	contestantSpec.StdoutPipe = &contestantOutFD

	interactorSpec := sandbox.RunSpec{
		ArtifactPath: r.interactor.ref.ArtifactPath,
		Args:      []string{c.InputPath, transcriptPath},
		MaxTime:   r.maxTime * 2,
		Trusted:   true,
		WorkDir:   r.workDir,
	}
	interactorContestantInFD := int(c2iRead.Fd())
	interactorContestantOutFD := int(i2cWrite.Fd())
	interactorSpec.StdinPipe = &interactorContestantInFD
	interactorSpec.StdoutPipe = &interactorContestantOutFD

	type runOutcome struct {
		outcome sandbox.Outcome
		err     error
	}
	contestantCh := make(chan runOutcome, 1)
	interactorCh := make(chan runOutcome, 1)

	go func() {
		o, err := r.submission.Run(ctx, contestantSpec)
		contestantCh <- runOutcome{o, err}
	}()
	go func() {
		o, err := r.interactor.executor.Run(ctx, interactorSpec)
		interactorCh <- runOutcome{o, err}
	}()

	contestantRes := <-contestantCh
	interactorRes := <-interactorCh

	fmt.Fprintf(r.report, "case %s (interactive): contestant_elapsed=%dms interactor_elapsed=%dms\n",
		c.Fingerprint, contestantRes.outcome.ElapsedMs, interactorRes.outcome.ElapsedMs)

	if contestantRes.err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: contestantRes.err}
	}

	elapsed := contestantRes.outcome.ElapsedMs
	memPeak := contestantRes.outcome.MemoryPeakKB

	// contestant resource violation takes precedence over anything the
	// interactor reports
	switch contestantRes.outcome.TerminationReason {
	case sandbox.Timeout:
		return CaseResult{Verdict: TimeLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.MemoryExceeded:
		return CaseResult{Verdict: MemoryLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.IdleTimeout:
		return CaseResult{Verdict: IdlenessLimitExceeded, Time: &elapsed, Memory: &memPeak}, nil
	case sandbox.Signalled:
		return CaseResult{Verdict: RuntimeError, Time: &elapsed, Memory: &memPeak}, nil
	}
	if contestantRes.outcome.ExitCode != 0 {
		return CaseResult{Verdict: RuntimeError, Time: &elapsed, Memory: &memPeak}, nil
	}

	// interactor-signalled WA: a nonzero interactor exit means it rejected
	// the dialogue before the checker even runs
	if interactorRes.err == nil && interactorRes.outcome.ExitCode != 0 {
		return CaseResult{Verdict: WrongAnswer, Time: &elapsed, Memory: &memPeak, Message: "interactor rejected dialogue"}, nil
	}

	result, err := r.checker.Check(ctx, c.InputPath, c.OutputPath, transcriptPath)
	if err != nil {
		return CaseResult{}, &JudgementFailedError{Cause: err}
	}
	if result.Accepted {
		return CaseResult{Verdict: Accepted, Time: &elapsed, Memory: &memPeak}, nil
	}
	return CaseResult{Verdict: WrongAnswer, Time: &elapsed, Memory: &memPeak, Message: result.Message}, nil
}

// Clean removes per-runner scratch files (transcript, contestant stderr).
func (r *InteractiveRunner) Clean() error {
	if r.workDir == "" {
		return nil
	}
	os.Remove(filepath.Join(r.workDir, "transcript"))
	os.Remove(filepath.Join(r.workDir, "contestant.stderr"))
	return nil
}
