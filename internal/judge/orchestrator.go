package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ocx/judge-core/internal/archive"
	"github.com/ocx/judge-core/internal/cache"
	"github.com/ocx/judge-core/internal/judge/groups"
	"github.com/ocx/judge-core/internal/metrics"
	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/store"
	"github.com/ocx/judge-core/internal/toolchain"
)

// TracebackLimit bounds the panic stack fragment attached to a catastrophic
// rejection snapshot, matching original_source's TRACEBACK_LIMIT constant.
const TracebackLimit = 4096

// Request is the validated input to Orchestrate — spec.md §4.1's inputs.
type Request struct {
	SubFingerprint        string
	SubCode               string
	SubLang               string
	CaseList              []store.Fingerprint
	MaxTime               time.Duration
	MaxMemory             int64 // bytes
	CheckerFingerprint    store.Fingerprint
	InteractorFingerprint store.Fingerprint
	RunUntilComplete      bool
	GroupList             []int
	GroupDependencies     []groups.Edge
}

// Orchestrator owns the collaborators one judging run needs to build
// Submission, Checker, Interactor, and the runners from resolved
// fingerprints.
type Orchestrator struct {
	Store      store.FingerprintStore
	Sandbox    sandbox.Executor
	Toolchains *toolchain.Registry
	Cache      cache.ProgressCache
	Metrics    metrics.Recorder
	Archiver   archive.Archiver
	BaseDir    string
	Debug      bool
}

// Orchestrate runs one submission to completion, publishing incremental
// progress as it goes, and returns the final snapshot. It never returns a
// Go error: infrastructure failures are folded into a reject snapshot per
// spec.md §4.1 step 7, and the cache write and the optional archival are
// the only operations whose failure is logged rather than surfaced.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) ProgressSnapshot {
	start := time.Now()
	snapshot := o.run(ctx, req)
	if o.Metrics != nil {
		o.Metrics.SubmissionDuration(time.Since(start))
	}
	o.publish(ctx, req.SubFingerprint, snapshot, cache.SnapshotTTL)
	return snapshot
}

func (o *Orchestrator) run(ctx context.Context, req Request) (snapshot ProgressSnapshot) {
	var submission *Submission
	var runner interface {
		Clean() error
	}
	var workDir string
	report := &strings.Builder{}

	defer func() {
		if r := recover(); r != nil {
			trace := string(debug.Stack())
			if len(trace) > TracebackLimit {
				trace = trace[:TracebackLimit]
			}
			snapshot = ProgressSnapshot{
				Status:  "reject",
				Message: fmt.Sprintf("panic: %v\n%s", r, trace),
			}
		}
		if o.Archiver != nil {
			o.archive(ctx, req, snapshot, report.String())
		}
		if !o.Debug {
			if submission != nil {
				_ = submission.Clean()
			}
			if runner != nil {
				_ = runner.Clean()
			}
			if workDir != "" {
				_ = os.RemoveAll(workDir)
			}
		}
	}()

	depTable := groups.Resolve(req.GroupDependencies)

	detail := []CaseResult{}
	skippedGroups := map[int]struct{}{}
	sumVerdict := Accepted
	timeMax := int64(-1)
	memoryMax := int64(-1)

	publishPartial := func() {
		v := sumVerdict
		snap := ProgressSnapshot{Status: "received", Verdict: &v, Detail: detail}
		o.publish(ctx, req.SubFingerprint, snap, cache.SnapshotTTL)
	}

	checkerFP := req.CheckerFingerprint
	if checkerFP == "" {
		checkerFP = store.DefaultChecker
	}

	workDir = filepath.Join(o.BaseDir, "run-"+req.SubFingerprint)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return ProgressSnapshot{Status: "reject", Message: err.Error()}
	}

	sub, err := NewSubmission(req.SubFingerprint, req.SubLang, req.SubCode, o.BaseDir, o.Toolchains, o.Sandbox)
	if err != nil {
		return ProgressSnapshot{Status: "reject", Message: err.Error()}
	}
	submission = sub

	compileBudget := req.MaxTime * 5
	if compileBudget < 15*time.Second {
		compileBudget = 15 * time.Second
	}
	compileStart := time.Now()
	compileErr := submission.Compile(ctx, compileBudget)
	if o.Metrics != nil {
		o.Metrics.CompileDuration(time.Since(compileStart))
	}
	if compileErr != nil {
		o.publish(ctx, cache.ReportKey(req.SubFingerprint), []byte(report.String()), cache.ReportTTL)
		var ce *CompileError
		if asCompileError(compileErr, &ce) {
			return ProgressSnapshot{
				Status:  "received",
				Verdict: verdictPtr(CompileErrorVerdict),
				Message: ce.Diagnostic,
			}
		}
		return ProgressSnapshot{Status: "reject", Message: compileErr.Error()}
	}

	checkerRef, err := o.Store.ResolveChecker(ctx, checkerFP)
	if err != nil {
		return ProgressSnapshot{Status: "reject", Message: tracebackMessage(err)}
	}
	checker := NewChecker(checkerRef, o.Sandbox, workDir)

	var caseRunner interface {
		Run(ctx context.Context, c store.Case) (CaseResult, error)
		Clean() error
	}
	if req.InteractorFingerprint != "" {
		interactorRef, err := o.Store.ResolveInteractor(ctx, req.InteractorFingerprint)
		if err != nil {
			return ProgressSnapshot{Status: "reject", Message: err.Error()}
		}
		interactor := NewInteractor(interactorRef, o.Sandbox, workDir)
		ir := NewInteractiveRunner(submission, interactor, checker, req.MaxTime, req.MaxMemory, workDir, report)
		caseRunner = ir
		runner = ir
	} else {
		br := NewCaseRunner(submission, checker, req.MaxTime, req.MaxMemory, workDir, report)
		caseRunner = br
		runner = br
	}

	for idx, caseFP := range req.CaseList {
		result := CaseResult{}
		usingGroups := req.GroupList != nil
		group := 0
		if usingGroups {
			group = req.GroupList[idx]
			result.Group = &group
			result.Verdict = Skipped
			if _, skipped := skippedGroups[group]; skipped && !req.RunUntilComplete {
				detail = append(detail, result)
				publishPartial()
				continue
			}
		}

		c, err := o.Store.ResolveCase(ctx, caseFP)
		if err != nil {
			result.Verdict = JudgementFailed
			result.Message = err.Error()
		} else {
			runResult, runErr := caseRunner.Run(ctx, c)
			if runErr != nil {
				result.Verdict = JudgementFailed
				result.Message = runErr.Error()
			} else {
				runResult.Group = result.Group
				result = runResult
			}
		}

		detail = append(detail, result)
		if o.Metrics != nil {
			o.Metrics.CaseJudged(result.Verdict.String())
		}
		publishPartial()

		if result.Time != nil && *result.Time > timeMax {
			timeMax = *result.Time
		}
		if result.Memory != nil && *result.Memory > memoryMax {
			memoryMax = *result.Memory
		}

		if result.Verdict != Accepted {
			if sumVerdict == Accepted {
				sumVerdict = result.Verdict
			}
			if usingGroups {
				for g := range depTable.ClosureOrSelf(group) {
					skippedGroups[g] = struct{}{}
				}
			}
			if !usingGroups && !req.RunUntilComplete {
				break
			}
		}
	}

	final := ProgressSnapshot{Status: "received", Verdict: &sumVerdict, Detail: detail}
	if timeMax >= 0 {
		final.Time = &timeMax
	}
	if memoryMax >= 0 {
		final.Memory = &memoryMax
	}
	o.publish(ctx, cache.ReportKey(req.SubFingerprint), []byte(report.String()), cache.ReportTTL)

	return final
}

func (o *Orchestrator) publish(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	var payload []byte
	switch v := value.(type) {
	case []byte:
		payload = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			slog.Error("orchestrator: marshal snapshot failed", "key", key, "error", err)
			return
		}
		payload = encoded
	}
	if o.Cache == nil {
		return
	}
	if err := o.Cache.Set(ctx, key, payload, ttl); err != nil {
		slog.Error("orchestrator: publish to cache failed", "key", key, "error", err)
	}
}

// archive persists the terminal snapshot for a run. Failures are logged,
// never surfaced: archival is fire-and-forget from the orchestrator's
// perspective and must never change a judging result.
func (o *Orchestrator) archive(ctx context.Context, req Request, snapshot ProgressSnapshot, reportText string) {
	detailJSON, err := json.Marshal(snapshot.Detail)
	if err != nil {
		slog.Error("orchestrator: marshal archive detail failed", "sub_fingerprint", req.SubFingerprint, "error", err)
		return
	}
	var verdict int32 = -1
	if snapshot.Verdict != nil {
		verdict = int32(*snapshot.Verdict)
	}
	rec := archive.Record{
		SubFingerprint: req.SubFingerprint,
		Verdict:        verdict,
		TimeMs:         snapshot.Time,
		MemoryKB:       snapshot.Memory,
		Message:        snapshot.Message,
		DetailJSON:     string(detailJSON),
		ReportText:     reportText,
	}
	if err := o.Archiver.Archive(ctx, rec); err != nil {
		slog.Error("orchestrator: archive failed", "sub_fingerprint", req.SubFingerprint, "error", err)
	}
}

func asCompileError(err error, target **CompileError) bool {
	if ce, ok := err.(*CompileError); ok {
		*target = ce
		return true
	}
	return false
}

func verdictPtr(v Verdict) *Verdict {
	return &v
}

// tracebackMessage builds a reject message carrying a stack fragment, the
// same shape the panic-recovery path in run() produces, so a reject caused
// by an unresolvable fingerprint is distinguishable from a bare infra error.
func tracebackMessage(err error) string {
	trace := string(debug.Stack())
	if len(trace) > TracebackLimit {
		trace = trace[:TracebackLimit]
	}
	return fmt.Sprintf("%v\n%s", err, trace)
}
