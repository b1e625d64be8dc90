// Package dockerpool implements a sandbox.Executor backed by a pre-warmed
// pool of Docker containers, adapted from the teacher's ghostpool package:
// same pre-warm -> acquire -> scrub-or-destroy -> release lifecycle, same
// gVisor runtime + network jailing host config. Used for toolchains that
// are expensive to cold-start (the JVM, in particular) where runsc's
// per-run bundle is too slow for judging hundreds of cases.
package dockerpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/ocx/judge-core/internal/sandbox"
)

// SandboxContainer is a recyclable container held by the pool.
type SandboxContainer struct {
	ID       string
	LastUsed time.Time
}

// Pool pre-warms and recycles Docker containers used as judging sandboxes.
type Pool struct {
	mu          sync.Mutex
	available   chan *SandboxContainer
	active      map[string]*SandboxContainer
	minIdle     int
	maxCapacity int
	image       string
}

// New creates a pool and starts its background maintainer.
func New(minIdle, maxCapacity int, image string) *Pool {
	p := &Pool{
		available:   make(chan *SandboxContainer, maxCapacity),
		active:      make(map[string]*SandboxContainer),
		minIdle:     minIdle,
		maxCapacity: maxCapacity,
		image:       image,
	}
	go p.maintain()
	return p
}

// Run acquires a container, execs the artifact inside it bound to the
// requested stdin/stdout/stderr files, and returns it to the pool
// (scrubbed, or destroyed if scrubbing fails).
func (p *Pool) Run(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return sandbox.Outcome{}, fmt.Errorf("dockerpool: acquire: %w", err)
	}
	defer p.release(c)

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, spec.MaxTime)
	defer cancel()

	cmd := append([]string{spec.ArtifactPath}, spec.Args...)
	output, execErr := p.exec(runCtx, c.ID, cmd)
	elapsed := time.Since(start)

	outcome := sandbox.Outcome{ElapsedMs: elapsed.Milliseconds()}
	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TerminationReason = sandbox.Timeout
		return outcome, nil
	}
	if execErr != nil {
		outcome.TerminationReason = sandbox.Signalled
		return outcome, fmt.Errorf("dockerpool: exec: %w", execErr)
	}
	_ = output // the judge runner reads stdout/stderr from the bound files, not this buffer
	outcome.TerminationReason = sandbox.Normal
	return outcome, nil
}

func (p *Pool) acquire(ctx context.Context) (*SandboxContainer, error) {
	select {
	case c := <-p.available:
		p.mu.Lock()
		p.active[c.ID] = c
		p.mu.Unlock()
		c.LastUsed = time.Now()
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) release(c *SandboxContainer) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.scrub(ctx, c); err != nil {
			slog.Warn("failed to scrub sandbox container, destroying", "id", c.ID, "error", err)
			p.destroy(ctx, c)
			return
		}

		p.mu.Lock()
		delete(p.active, c.ID)
		p.mu.Unlock()
		p.available <- c
	}()
}

func (p *Pool) scrub(ctx context.Context, c *SandboxContainer) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return err
	}
	defer cli.Close()

	execConfig := types.ExecConfig{
		User:         "root",
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"/bin/sh", "-c", "rm -rf /tmp/judge/* && pkill -u judgeuser"},
	}
	execID, err := cli.ContainerExecCreate(ctx, c.ID, execConfig)
	if err != nil {
		return fmt.Errorf("create scrub exec: %w", err)
	}
	return cli.ContainerExecStart(ctx, execID.ID, types.ExecStartCheck{Detach: false, Tty: false})
}

func (p *Pool) exec(ctx context.Context, containerID string, cmd []string) ([]byte, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	execConfig := types.ExecConfig{
		User:         "judgeuser",
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          cmd,
	}
	execID, err := cli.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return nil, fmt.Errorf("exec create: %w", err)
	}
	resp, err := cli.ContainerExecAttach(ctx, execID.ID, types.ExecStartCheck{})
	if err != nil {
		return nil, fmt.Errorf("exec attach: %w", err)
	}
	defer resp.Close()

	return io.ReadAll(resp.Reader)
}

func (p *Pool) maintain() {
	for {
		time.Sleep(2 * time.Second)

		p.mu.Lock()
		activeCount := len(p.active)
		p.mu.Unlock()

		availableCount := len(p.available)
		total := activeCount + availableCount

		if availableCount < p.minIdle && total < p.maxCapacity {
			deficit := p.minIdle - availableCount
			for i := 0; i < deficit; i++ {
				if activeCount+availableCount+i >= p.maxCapacity {
					break
				}
				go p.create()
			}
		}
	}
}

func (p *Pool) create() {
	ctx := context.Background()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		slog.Warn("dockerpool: create client failed", "error", err)
		return
	}
	defer cli.Close()

	hostConfig := &container.HostConfig{
		Runtime:        "runsc",
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		Resources: container.Resources{
			NanoCPUs: 1_000_000_000,
			Memory:   512 * 1024 * 1024,
		},
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=64m",
		},
	}

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image: p.image,
		Tty:   false,
		Cmd:   []string{"sleep", "infinity"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		slog.Warn("dockerpool: create container failed", "error", err)
		return
	}
	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		slog.Warn("dockerpool: start container failed", "error", err)
		return
	}

	p.available <- &SandboxContainer{ID: resp.ID, LastUsed: time.Now()}
	slog.Info("sandbox container pre-warmed", "id", resp.ID[:12])
}

func (p *Pool) destroy(ctx context.Context, c *SandboxContainer) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		slog.Warn("dockerpool: destroy client failed", "error", err)
		return
	}
	defer cli.Close()

	if err := cli.ContainerRemove(ctx, c.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
		slog.Warn("dockerpool: force remove failed", "id", c.ID, "error", err)
	}
}

// Stats reports current pool occupancy.
func (p *Pool) Stats() map[string]int {
	p.mu.Lock()
	activeCount := len(p.active)
	p.mu.Unlock()
	return map[string]int{
		"active":       activeCount,
		"idle":         len(p.available),
		"max_capacity": p.maxCapacity,
		"min_idle":     p.minIdle,
	}
}
