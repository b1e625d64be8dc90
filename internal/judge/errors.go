package judge

import "fmt"

// CompileError is returned by Submission.Compile on a failed build. The
// orchestrator treats it as an ordinary terminal verdict (COMPILE_ERROR)
// rather than an infrastructure fault — it never unwinds past Orchestrate.
type CompileError struct {
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Diagnostic)
}

// JudgementFailedError marks a runner-level infrastructure failure (sandbox
// couldn't start, checker binary missing, I/O error mid-case) that is NOT a
// case verdict. The orchestrator records it as the JudgementFailed verdict
// for that one case and continues judging the remaining cases.
type JudgementFailedError struct {
	Cause error
}

func (e *JudgementFailedError) Error() string {
	return fmt.Sprintf("judgement failed: %v", e.Cause)
}

func (e *JudgementFailedError) Unwrap() error {
	return e.Cause
}
