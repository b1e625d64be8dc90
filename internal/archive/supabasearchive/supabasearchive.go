// Package supabasearchive archives terminal judging snapshots to Supabase,
// following the teacher's database.SupabaseClient CRUD pattern
// (client.From(table).Insert(...).ExecuteTo(&result)) scoped to a single
// judge_archives table instead of the teacher's multi-table domain model.
package supabasearchive

import (
	"context"
	"fmt"
	"os"

	supabase "github.com/supabase-community/supabase-go"

	"github.com/ocx/judge-core/internal/archive"
)

// Archiver wraps a Supabase client for judge run archival.
type Archiver struct {
	client *supabase.Client
	table  string
}

// archiveRow is the serializable form of archive.Record for storage.
type archiveRow struct {
	SubFingerprint string `json:"sub_fingerprint"`
	Verdict        int32  `json:"verdict"`
	TimeMs         *int64 `json:"time_ms,omitempty"`
	MemoryKB       *int64 `json:"memory_kb,omitempty"`
	Message        string `json:"message,omitempty"`
	DetailJSON     string `json:"detail_json,omitempty"`
	ReportText     string `json:"report_text,omitempty"`
}

// New creates an Archiver from explicit credentials, or env-provided ones
// if either argument is empty (matching the teacher's SUPABASE_URL /
// SUPABASE_SERVICE_KEY fallback).
func New(url, serviceKey string) (*Archiver, error) {
	if url == "" {
		url = os.Getenv("SUPABASE_URL")
	}
	if serviceKey == "" {
		serviceKey = os.Getenv("SUPABASE_SERVICE_KEY")
	}
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabasearchive: SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}

	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabasearchive: create client: %w", err)
	}
	return &Archiver{client: client, table: "judge_archives"}, nil
}

// Archive inserts one terminal judging record.
func (a *Archiver) Archive(ctx context.Context, rec archive.Record) error {
	row := archiveRow{
		SubFingerprint: rec.SubFingerprint,
		Verdict:        rec.Verdict,
		TimeMs:         rec.TimeMs,
		MemoryKB:       rec.MemoryKB,
		Message:        rec.Message,
		DetailJSON:     rec.DetailJSON,
		ReportText:     rec.ReportText,
	}
	var result []archiveRow
	_, err := a.client.From(a.table).
		Insert(row, false, "", "", "").
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("supabasearchive: insert %s: %w", rec.SubFingerprint, err)
	}
	return nil
}
