package judge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/ocx/judge-core/internal/sandbox"
	"github.com/ocx/judge-core/internal/toolchain"
)

// Submission is a single contestant's source code for one language,
// materialized into a scratch workspace, compiled, and run against cases.
// Adapted from original_source's core/submission.py: Compile(code, timeout)
// then Run(...) per case, Clean() tears the workspace down.
type Submission struct {
	Fingerprint string
	Lang        string
	workDir     string
	artifact    string
	toolchain   toolchain.Toolchain
	executor    sandbox.Executor
	compiled    bool
}

// NewSubmission materializes source into a fresh scratch workspace under
// baseDir, keyed by a random workspace ID rather than the fingerprint
// itself so repeated judging of the same submission never collides.
func NewSubmission(fingerprint, lang, source, baseDir string, registry *toolchain.Registry, executor sandbox.Executor) (*Submission, error) {
	tc, err := registry.Lookup(lang)
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(baseDir, "sub-"+workspaceID(fingerprint))
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("submission: create workspace: %w", err)
	}

	srcPath := filepath.Join(workDir, tc.SourceName)
	if err := os.WriteFile(srcPath, []byte(source), 0644); err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("submission: write source: %w", err)
	}

	return &Submission{
		Fingerprint: fingerprint,
		Lang:        lang,
		workDir:     workDir,
		toolchain:   tc,
		executor:    executor,
	}, nil
}

// Compile builds the submission, bounding the build itself to budget.
// Callers follow spec.md §4.1's rule: budget = max(maxTime*5, 15s).
func (s *Submission) Compile(ctx context.Context, budget time.Duration) error {
	if !s.toolchain.Compiled {
		s.artifact = filepath.Join(s.workDir, s.toolchain.Artifact)
		s.compiled = true
		return nil
	}

	srcPath := filepath.Join(s.workDir, s.toolchain.SourceName)
	outPath := filepath.Join(s.workDir, s.toolchain.Artifact)

	argv := substituteArgv(s.toolchain.Compile, srcPath, outPath)
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.workDir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := stderr.String()
		if ctx.Err() == context.DeadlineExceeded {
			diag = "compilation exceeded time budget\n" + diag
		}
		return &CompileError{Diagnostic: diag}
	}

	s.artifact = outPath
	s.compiled = true
	return nil
}

// RunSpec builds a sandbox.RunSpec for this submission's run step,
// substituting its argv template with the compiled artifact path.
func (s *Submission) RunSpec(stdin, stdout, stderr string, maxTime time.Duration, maxMemory int64, trusted bool) sandbox.RunSpec {
	argv := substituteArgv(s.toolchain.Run, "", s.artifact)
	return sandbox.RunSpec{
		ArtifactPath: argv[0],
		Args:         argv[1:],
		Stdin:        stdin,
		Stdout:       stdout,
		Stderr:       stderr,
		MaxTime:      maxTime,
		MaxMemory:    maxMemory,
		Trusted:      trusted,
		WorkDir:      s.workDir,
	}
}

// Run executes the compiled artifact under the given sandbox.Executor.
func (s *Submission) Run(ctx context.Context, spec sandbox.RunSpec) (sandbox.Outcome, error) {
	if !s.compiled {
		return sandbox.Outcome{}, fmt.Errorf("submission: run before compile")
	}
	return s.executor.Run(ctx, spec)
}

// Clean removes the scratch workspace. Tolerant of double-clean, matching
// original_source's try/except NameError guard around submission.clean().
func (s *Submission) Clean() error {
	if s.workDir == "" {
		return nil
	}
	err := os.RemoveAll(s.workDir)
	s.workDir = ""
	return err
}

// workspaceID derives a scratch directory name from the submission
// fingerprint and a random nonce, hashed with blake2b so the directory name
// is fixed-width and filesystem-safe regardless of what the fingerprint
// contains, while still tying the directory back to its submission for
// debugging a stuck run.
func workspaceID(fingerprint string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(fingerprint))
	h.Write([]byte(uuid.New().String()))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func substituteArgv(template []string, src, out string) []string {
	argv := make([]string, 0, len(template))
	for _, tok := range template {
		tok = strings.ReplaceAll(tok, "$SRC", src)
		tok = strings.ReplaceAll(tok, "$OUT", out)
		argv = append(argv, tok)
	}
	return argv
}
