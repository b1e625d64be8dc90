// Command judge-worker is the judging daemon's entrypoint: it wires the
// fingerprint store, sandbox executor, toolchain registry, progress cache,
// and metrics recorder into a judge.Orchestrator, wraps it in the in-process
// gRPC facade (internal/judgepb), starts a gRPC listener with no service
// registered on it, and serves a gorilla/mux admin surface for liveness and
// sandbox pool introspection, in the same shape as the
// teacher's cmd/probe entrypoint (signal-driven shutdown, structured
// startup logging) and internal/api/server.go (mux router, HandleFunc
// per endpoint, plain http.ListenAndServe).
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"

	"github.com/ocx/judge-core/internal/archive/supabasearchive"
	"github.com/ocx/judge-core/internal/cache/rediscache"
	"github.com/ocx/judge-core/internal/config"
	"github.com/ocx/judge-core/internal/judge"
	"github.com/ocx/judge-core/internal/judgepb"
	"github.com/ocx/judge-core/internal/metrics"
	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/sandbox/dockerpool"
	"github.com/ocx/judge-core/internal/sandbox/runsc"
	"github.com/ocx/judge-core/internal/store"
	"github.com/ocx/judge-core/internal/store/fsstore"
	"github.com/ocx/judge-core/internal/store/pgstore"
	"github.com/ocx/judge-core/internal/syscallguard"
	"github.com/ocx/judge-core/internal/toolchain"
)

func main() {
	cfg := config.Get()
	log.Printf("judge-worker starting (env=%s)", cfg.Server.Env)

	progressCache, err := rediscache.New(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	if err != nil {
		log.Fatalf("failed to connect to progress cache: %v", err)
	}
	defer progressCache.Close()
	log.Printf("progress cache connected: %s", cfg.Cache.Addr)

	fingerprintStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("failed to build fingerprint store: %v", err)
	}

	sandboxExecutor, pool := buildExecutor(cfg)

	recorder := metrics.NewPrometheusRecorder()

	orchestrator := &judge.Orchestrator{
		Store:      fingerprintStore,
		Sandbox:    sandboxExecutor,
		Toolchains: toolchain.NewDefaultRegistry(),
		Cache:      progressCache,
		Metrics:    recorder,
		BaseDir:    cfg.Toolchain.ScratchDir,
		Debug:      cfg.Judge.Debug,
	}

	if cfg.Archive.SupabaseURL != "" {
		archiver, err := supabasearchive.New(cfg.Archive.SupabaseURL, cfg.Archive.SupabaseServiceKey)
		if err != nil {
			slog.Warn("supabase archival disabled", "error", err)
		} else {
			orchestrator.Archiver = archiver
			log.Printf("terminal-snapshot archival enabled")
		}
	}

	// The facade server is callable in-process (internal/judgepb.Server);
	// a future wire transport would register it against this grpc.Server,
	// same as the teacher's own Plan Service listener.
	facade := &judgepb.Server{Orchestrator: orchestrator}
	_ = facade
	grpcServer := grpc.NewServer()

	grpcLis, err := net.Listen("tcp", ":9090")
	if err != nil {
		log.Fatalf("failed to listen on grpc port: %v", err)
	}
	go func() {
		log.Printf("gRPC server listening on :9090 (no service registered)")
		if err := grpcServer.Serve(grpcLis); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()

	adminServer := newAdminServer(orchestrator, pool)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Printf("admin surface listening on %s", addr)
		if err := http.ListenAndServe(addr, adminServer); err != nil {
			log.Printf("admin server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Printf("shutting down")
	grpcServer.GracefulStop()
}

func buildStore(cfg *config.Config) (store.FingerprintStore, error) {
	switch cfg.Store.Backend {
	case "pg":
		return pgstore.New(cfg.Store.PostgresURL)
	default:
		return fsstore.New(cfg.Store.BaseDir), nil
	}
}

// buildExecutor picks the sandbox backend per config: the pre-warmed Docker
// pool for heavier toolchains (the JVM in particular, per the dockerpool
// package doc), or the per-run runsc bundle otherwise. pool is non-nil only
// in the docker case, for the /stats admin endpoint.
func buildExecutor(cfg *config.Config) (sandbox.Executor, *dockerpool.Pool) {
	if cfg.Sandbox.UseDocker {
		pool := dockerpool.New(cfg.Sandbox.PoolMinIdle, cfg.Sandbox.PoolMaxCap, cfg.Sandbox.DockerImage)
		log.Printf("sandbox backend: docker pool (min_idle=%d max_capacity=%d image=%s)",
			cfg.Sandbox.PoolMinIdle, cfg.Sandbox.PoolMaxCap, cfg.Sandbox.DockerImage)
		return pool, pool
	}

	var guard *syscallguard.Guard
	if cfg.Sandbox.SyscallGuard {
		g, err := syscallguard.New(syscallguard.DefaultDenylist)
		if err != nil {
			slog.Warn("syscall guard unavailable, running without per-PID syscall denylist", "error", err)
		} else {
			guard = g
		}
	}

	executor := runsc.New(cfg.Sandbox.RunscPath, cfg.Sandbox.BundleDir, guard)
	if !executor.IsAvailable() {
		log.Printf("gVisor runsc not installed at %s — sandbox running in demo mode", cfg.Sandbox.RunscPath)
	}
	return executor, nil
}

func newAdminServer(o *judge.Orchestrator, pool *dockerpool.Pool) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	r.HandleFunc("/stats", func(w http.ResponseWriter, req *http.Request) {
		stats := map[string]interface{}{
			"debug":    o.Debug,
			"base_dir": o.BaseDir,
			"time":     time.Now().UTC().Format(time.RFC3339),
		}
		if pool != nil {
			stats["pool"] = pool.Stats()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}).Methods("GET")

	r.HandleFunc("/debug/workspaces", func(w http.ResponseWriter, req *http.Request) {
		entries, err := os.ReadDir(o.BaseDir)
		if err != nil {
			http.Error(w, fmt.Sprintf("read base dir: %v", err), http.StatusInternalServerError)
			return
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(names)
	}).Methods("GET")

	return r
}
