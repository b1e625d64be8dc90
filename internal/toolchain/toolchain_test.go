package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultRegistry_HasFullLanguageSet(t *testing.T) {
	r := NewDefaultRegistry()
	want := []string{"c", "cpp", "cc14", "cs", "hs", "java", "js", "pas", "php", "py2", "python", "rs"}
	got := r.Languages()
	assert.ElementsMatch(t, want, got)
}

func TestLookup_KnownLanguage(t *testing.T) {
	r := NewDefaultRegistry()
	tc, err := r.Lookup("python")
	require.NoError(t, err)
	assert.Equal(t, "main.py", tc.SourceName)
	assert.False(t, tc.Compiled)
	assert.Equal(t, []string{"python3", "$OUT"}, tc.Run)
}

func TestLookup_CompiledLanguage(t *testing.T) {
	r := NewDefaultRegistry()
	tc, err := r.Lookup("cpp")
	require.NoError(t, err)
	assert.True(t, tc.Compiled)
	assert.Equal(t, "main", tc.Artifact)
	assert.Contains(t, tc.Compile, "g++")
}

func TestLookup_UnknownLanguage(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Lookup("brainfuck")
	assert.Error(t, err)
}
