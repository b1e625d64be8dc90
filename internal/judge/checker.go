package judge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/store"
)

// CheckResult is a checker's verdict on one case.
type CheckResult struct {
	Accepted bool
	Message  string
}

// Checker wraps a pre-built checker artifact: three-file protocol (input,
// expected output, contestant output) in, ACCEPTED/WRONG_ANSWER plus an
// optional diagnostic message out. The reserved fingerprint "defaultspj"
// never shells out — it compares bytes directly.
type Checker struct {
	ref      store.CheckerRef
	executor sandbox.Executor
	workDir  string
}

// NewChecker builds a Checker from a resolved artifact reference.
func NewChecker(ref store.CheckerRef, executor sandbox.Executor, workDir string) *Checker {
	return &Checker{ref: ref, executor: executor, workDir: workDir}
}

// IsDefault reports whether this Checker is the reserved byte comparator.
func (c *Checker) IsDefault() bool {
	return c.ref.Fingerprint == store.DefaultChecker
}

// Check runs the checker against one case's (input, expected, contestant)
// files. Checkers run trusted — they are pre-built judge infrastructure,
// not contestant code.
func (c *Checker) Check(ctx context.Context, inputPath, expectedPath, contestantPath string) (CheckResult, error) {
	if c.IsDefault() {
		return checkByteIdentical(expectedPath, contestantPath)
	}

	msgPath := contestantPath + ".checker-msg"
	defer os.Remove(msgPath)

	spec := sandbox.RunSpec{
		ArtifactPath: c.ref.ArtifactPath,
		Args:         []string{inputPath, contestantPath, expectedPath, msgPath},
		MaxTime:      10 * time.Second,
		Trusted:      true,
		WorkDir:      c.workDir,
	}
	outcome, err := c.executor.Run(ctx, spec)
	if err != nil {
		return CheckResult{}, fmt.Errorf("checker: run %s: %w", c.ref.Fingerprint, err)
	}

	msg := ""
	if data, rerr := os.ReadFile(msgPath); rerr == nil {
		msg = string(data)
	}

	if outcome.TerminationReason != sandbox.Normal || outcome.ExitCode != 0 {
		return CheckResult{Accepted: false, Message: msg}, nil
	}
	return CheckResult{Accepted: true, Message: msg}, nil
}

func checkByteIdentical(expectedPath, contestantPath string) (CheckResult, error) {
	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		return CheckResult{}, fmt.Errorf("checker: read expected: %w", err)
	}
	actual, err := os.ReadFile(contestantPath)
	if err != nil {
		return CheckResult{}, fmt.Errorf("checker: read contestant output: %w", err)
	}
	if bytes.Equal(normalizeTrailingWhitespace(expected), normalizeTrailingWhitespace(actual)) {
		return CheckResult{Accepted: true}, nil
	}
	return CheckResult{Accepted: false}, nil
}

// normalizeTrailingWhitespace trims trailing newlines/spaces/tabs from the
// end of the whole output so a missing final newline doesn't fail an
// otherwise-correct answer. Whitespace at the end of inner lines is kept.
func normalizeTrailingWhitespace(b []byte) []byte {
	return bytes.TrimRight(b, " \t\r\n")
}

// Interactor wraps a pre-built interactor artifact: drives a bidirectional
// dialogue with the contestant and writes a transcript the checker then
// consumes alongside the case's expected output.
type Interactor struct {
	ref      store.CheckerRef
	executor sandbox.Executor
	workDir  string
}

// NewInteractor builds an Interactor from a resolved artifact reference.
func NewInteractor(ref store.CheckerRef, executor sandbox.Executor, workDir string) *Interactor {
	return &Interactor{ref: ref, executor: executor, workDir: workDir}
}
