package judge

import (
	"context"
	"os"
	"time"

	"github.com/ocx/judge-core/internal/archive"
	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/store"
)

// fakeExecutor is a sandbox.Executor test double whose behavior is supplied
// per test via runFunc, avoiding any dependency on a real gVisor/Docker
// installation.
type fakeExecutor struct {
	runFunc func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error)
}

func (f *fakeExecutor) Run(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
	return f.runFunc(ctx, spec)
}

// catExecutor copies the stdin file verbatim to the stdout file, standing in
// for a trivial "echo the input" contestant solution in batch-mode tests.
func catExecutor() *fakeExecutor {
	return &fakeExecutor{
		runFunc: func(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
			data, err := os.ReadFile(spec.Stdin)
			if err != nil {
				return sandbox.Outcome{}, err
			}
			if err := os.WriteFile(spec.Stdout, data, 0644); err != nil {
				return sandbox.Outcome{}, err
			}
			return sandbox.Outcome{ElapsedMs: 5, MemoryPeakKB: 1024, ExitCode: 0}, nil
		},
	}
}

// fakeStore is an in-memory store.FingerprintStore keyed by fixtures set up
// per test.
type fakeStore struct {
	cases          map[store.Fingerprint]store.Case
	checker        map[store.Fingerprint]store.CheckerRef
	unknownChecker map[store.Fingerprint]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:          map[store.Fingerprint]store.Case{},
		checker:        map[store.Fingerprint]store.CheckerRef{},
		unknownChecker: map[store.Fingerprint]bool{},
	}
}

func (s *fakeStore) ResolveCase(ctx context.Context, fp store.Fingerprint) (store.Case, error) {
	c, ok := s.cases[fp]
	if !ok {
		return store.Case{}, store.NotFoundf(fp)
	}
	return c, nil
}

func (s *fakeStore) ResolveChecker(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	if s.unknownChecker[fp] {
		return store.CheckerRef{}, store.NotFoundf(fp)
	}
	if ref, ok := s.checker[fp]; ok {
		return ref, nil
	}
	return store.CheckerRef{Fingerprint: fp}, nil
}

func (s *fakeStore) ResolveInteractor(ctx context.Context, fp store.Fingerprint) (store.CheckerRef, error) {
	return s.ResolveChecker(ctx, fp)
}

// cacheEntry records one Set call observed by fakeCache.
type cacheEntry struct {
	key   string
	value []byte
	ttl   time.Duration
}

// fakeCache is an in-memory cache.ProgressCache that records every publish
// for assertions about publish ordering and keys.
type fakeCache struct {
	entries []cacheEntry
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	c.entries = append(c.entries, cacheEntry{key: key, value: buf, ttl: ttl})
	return nil
}

func (c *fakeCache) last(key string) (cacheEntry, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		if c.entries[i].key == key {
			return c.entries[i], true
		}
	}
	return cacheEntry{}, false
}

// fakeArchiver records every Record passed to Archive for assertions.
type fakeArchiver struct {
	records []archive.Record
}

func (a *fakeArchiver) Archive(ctx context.Context, rec archive.Record) error {
	a.records = append(a.records, rec)
	return nil
}
