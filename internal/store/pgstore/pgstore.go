// Package pgstore is a thin Postgres-backed metadata index for the
// FingerprintStore: it resolves a fingerprint to the on-disk path a
// synced case/checker/interactor blob lives at. It never reads or writes
// case bytes itself — that stays on the filesystem mount shared with
// fsstore.Store — it only answers "where is this fingerprint".
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"github.com/ocx/judge-core/internal/store"
)

// Store resolves fingerprints via a Postgres metadata table instead of
// walking a local directory, for deployments where cases are synced from a
// central database rather than mounted locally.
type Store struct {
	db *sql.DB
}

// New opens a Postgres connection and verifies it with a ping.
func New(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ResolveCase(ctx context.Context, fp store.Fingerprint) (store.Case, error) {
	var inputPath, outputPath string
	query := `SELECT input_path, output_path FROM judge_cases WHERE fingerprint = $1`
	err := s.db.QueryRowContext(ctx, query, string(fp)).Scan(&inputPath, &outputPath)
	if err == sql.ErrNoRows {
		return store.Case{}, store.NotFoundf(fp)
	}
	if err != nil {
		return store.Case{}, fmt.Errorf("pgstore: resolve case %s: %w", fp, err)
	}
	return store.Case{Fingerprint: fp, InputPath: inputPath, OutputPath: outputPath}, nil
}

func (s *Store) ResolveChecker(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	if fp == store.DefaultChecker {
		return store.CheckerRef{Fingerprint: fp, Language: "builtin"}, nil
	}
	return s.resolveArtifact(ctx, fp, "judge_checkers")
}

func (s *Store) ResolveInteractor(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	return s.resolveArtifact(ctx, fp, "judge_interactors")
}

func (s *Store) resolveArtifact(ctx context.Context, fp store.Fingerprint, table string) (store.CheckerRef, error) {
	var artifactPath, lang string
	query := fmt.Sprintf(`SELECT artifact_path, language FROM %s WHERE fingerprint = $1`, table)
	err := s.db.QueryRowContext(ctx, query, string(fp)).Scan(&artifactPath, &lang)
	if err == sql.ErrNoRows {
		return store.CheckerRef{}, store.NotFoundf(fp)
	}
	if err != nil {
		return store.CheckerRef{}, fmt.Errorf("pgstore: resolve %s %s: %w", table, fp, err)
	}
	return store.CheckerRef{Fingerprint: fp, ArtifactPath: artifactPath, Language: lang}, nil
}
