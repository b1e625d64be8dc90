package judge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/judge-core/internal/store"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestChecker_IsDefault(t *testing.T) {
	c := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, catExecutor(), t.TempDir())
	assert.True(t, c.IsDefault())

	c2 := NewChecker(store.CheckerRef{Fingerprint: "custom-spj"}, catExecutor(), t.TempDir())
	assert.False(t, c2.IsDefault())
}

func TestChecker_DefaultByteIdentical(t *testing.T) {
	c := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, catExecutor(), t.TempDir())

	expected := writeTemp(t, "expected", "42\n")
	actual := writeTemp(t, "actual", "42\n")

	result, err := c.Check(context.Background(), "", expected, actual)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestChecker_DefaultTrailingWhitespaceTolerant(t *testing.T) {
	c := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, catExecutor(), t.TempDir())

	expected := writeTemp(t, "expected", "42")
	actual := writeTemp(t, "actual", "42\n\n  ")

	result, err := c.Check(context.Background(), "", expected, actual)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
}

func TestChecker_DefaultMismatch(t *testing.T) {
	c := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, catExecutor(), t.TempDir())

	expected := writeTemp(t, "expected", "42\n")
	actual := writeTemp(t, "actual", "43\n")

	result, err := c.Check(context.Background(), "", expected, actual)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
}

func TestChecker_DefaultMissingFileErrors(t *testing.T) {
	c := NewChecker(store.CheckerRef{Fingerprint: store.DefaultChecker}, catExecutor(), t.TempDir())

	_, err := c.Check(context.Background(), "", filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "also-missing"))
	assert.Error(t, err)
}
