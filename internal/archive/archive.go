// Package archive defines the terminal-snapshot archival contract:
// once a submission finishes judging, its final ProgressSnapshot and
// report text are archived for later retrieval, distinct from the live
// TTL'd progress cache (SPEC_FULL.md §6). This is a supplemented feature —
// spec.md itself only requires the cache.
package archive

import "context"

// Record is what gets archived for one completed judging run.
type Record struct {
	SubFingerprint string
	Verdict        int32
	TimeMs         *int64
	MemoryKB       *int64
	Message        string
	DetailJSON     string
	ReportText     string
}

// Archiver persists a terminal Record. Implementations are fire-and-forget
// from the orchestrator's perspective — archival failures never affect the
// judging result.
type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}
