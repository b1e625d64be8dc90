// Package sandbox defines the contract the judge orchestrator uses to run a
// built artifact under bounded wall time, CPU time, memory, and I/O
// plumbing. Concrete implementations (runsc, dockerpool) wrap the actual
// sandboxing technology; the orchestrator only depends on this interface.
package sandbox

import (
	"context"
	"time"
)

// TerminationReason classifies how a sandboxed run ended.
type TerminationReason int

const (
	Normal TerminationReason = iota
	Timeout
	MemoryExceeded
	Signalled
	IdleTimeout
)

// RunSpec describes one sandboxed execution.
type RunSpec struct {
	ArtifactPath string
	Args         []string
	Stdin        string // path to a file bound to the process's stdin
	Stdout       string // path to capture stdout
	Stderr       string // path to capture stderr
	MaxTime      time.Duration
	MaxMemory    int64 // bytes
	Trusted      bool  // relaxed sandboxing — interactors and checkers run trusted
	WorkDir      string

	// StdinPipe/StdoutPipe, when set, connect this run's stdio to another
	// process instead of files — used by the interactive runner to splice
	// the contestant and the interactor together.
	StdinPipe  *int // fd, platform-specific; nil means use Stdin file
	StdoutPipe *int
}

// Outcome is what the Sandboxed Executor reports after a run completes.
type Outcome struct {
	ElapsedMs         int64
	MemoryPeakKB      int64
	ExitCode          int
	Signal            int
	TerminationReason TerminationReason
	OOMKilled         bool
}

// Executor runs a built artifact under sandbox enforcement. It is the sole
// authority on time/memory enforcement (SPEC_FULL.md §5) — callers never
// second-guess an Outcome's TerminationReason.
type Executor interface {
	Run(ctx context.Context, spec RunSpec) (Outcome, error)
}
