// Package fsstore is the filesystem-backed FingerprintStore: a flat
// directory keyed by fingerprint, matching the layout SPEC_FULL.md §6
// describes — per-case subdirectory with "input"/"output" files, per
// checker/interactor subdirectory with a compiled artifact and a language
// descriptor.
package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocx/judge-core/internal/store"
)

// Store resolves fingerprints against a base directory on local disk.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) ResolveCase(ctx context.Context, fp store.Fingerprint) (store.Case, error) {
	dir := filepath.Join(s.baseDir, string(fp))
	input := filepath.Join(dir, "input")
	output := filepath.Join(dir, "output")
	if err := checkExists(input); err != nil {
		return store.Case{}, store.NotFoundf(fp)
	}
	if err := checkExists(output); err != nil {
		return store.Case{}, store.NotFoundf(fp)
	}
	return store.Case{Fingerprint: fp, InputPath: input, OutputPath: output}, nil
}

func (s *Store) ResolveChecker(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	if fp == store.DefaultChecker {
		return store.CheckerRef{Fingerprint: fp, Language: "builtin"}, nil
	}
	return s.resolveArtifact(fp)
}

func (s *Store) ResolveInteractor(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	return s.resolveArtifact(fp)
}

func (s *Store) resolveArtifact(fp store.Fingerprint) (store.CheckerRef, error) {
	dir := filepath.Join(s.baseDir, string(fp))
	langFile := filepath.Join(dir, "lang")
	artifact := filepath.Join(dir, "artifact")
	if err := checkExists(artifact); err != nil {
		return store.CheckerRef{}, store.NotFoundf(fp)
	}
	lang := "cpp"
	if b, err := os.ReadFile(langFile); err == nil {
		lang = strings.TrimSpace(string(b))
	}
	return store.CheckerRef{Fingerprint: fp, ArtifactPath: artifact, Language: lang}, nil
}

func checkExists(path string) error {
	_, err := os.Stat(path)
	return err
}
