// Package toolchain supplies the per-language compile/run command
// templates the Submission Builder needs. Sized to the exact language set
// exercised by the teacher's example pack's Python predecessor's own
// per-language submission tests: c, cpp, cc14, cs, hs, java, js, pas, php,
// py2, python, rs.
package toolchain

import "fmt"

// Toolchain describes how to turn a source file into a runnable artifact,
// and how to invoke that artifact, for one language.
type Toolchain struct {
	Lang       string
	SourceName string   // filename to write the submitted source as, e.g. "main.c"
	Compile    []string // argv template; $SRC/$OUT are substituted
	Artifact   string    // $OUT value: compiled artifact filename (or source itself for interpreted langs)
	Run        []string // argv template to execute the artifact; $OUT substituted
	Compiled   bool     // false for interpreted languages — Compile is a no-op
}

// Registry maps a language tag to its Toolchain.
type Registry struct {
	chains map[string]Toolchain
}

// NewDefaultRegistry builds the registry sized to the full supported
// language set. Command templates assume gcc/g++, a JDK, mono, GHC, node,
// free pascal, php-cli, python2, python3, and rustc are present in the
// sandbox image. The templates are fixed in this function; Registry has no
// method to add or replace a toolchain after it is built.
func NewDefaultRegistry() *Registry {
	r := &Registry{chains: make(map[string]Toolchain)}
	for _, t := range []Toolchain{
		{
			Lang: "c", SourceName: "main.c", Artifact: "main",
			Compile: []string{"gcc", "-O2", "-static", "-lm", "-o", "$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
		{
			Lang: "cpp", SourceName: "main.cpp", Artifact: "main",
			Compile: []string{"g++", "-O2", "-static", "-std=c++11", "-o", "$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
		{
			Lang: "cc14", SourceName: "main.cpp", Artifact: "main",
			Compile: []string{"g++", "-O2", "-static", "-std=c++14", "-o", "$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
		{
			Lang: "cs", SourceName: "main.cs", Artifact: "main.exe",
			Compile: []string{"mcs", "-optimize", "-out:$OUT", "$SRC"},
			Run:     []string{"mono", "$OUT"},
			Compiled: true,
		},
		{
			Lang: "hs", SourceName: "main.hs", Artifact: "main",
			Compile: []string{"ghc", "-O2", "-o", "$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
		{
			Lang: "java", SourceName: "Main.java", Artifact: "Main.class",
			Compile: []string{"javac", "-d", ".", "$SRC"},
			Run:     []string{"java", "-Xmx256m", "Main"},
			Compiled: true,
		},
		{
			Lang: "js", SourceName: "main.js", Artifact: "main.js",
			Run: []string{"node", "$OUT"},
		},
		{
			Lang: "pas", SourceName: "main.pas", Artifact: "main",
			Compile: []string{"fpc", "-O2", "-o$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
		{
			Lang: "php", SourceName: "main.php", Artifact: "main.php",
			Run: []string{"php", "$OUT"},
		},
		{
			Lang: "py2", SourceName: "main.py", Artifact: "main.py",
			Run: []string{"python2", "$OUT"},
		},
		{
			Lang: "python", SourceName: "main.py", Artifact: "main.py",
			Run: []string{"python3", "$OUT"},
		},
		{
			Lang: "rs", SourceName: "main.rs", Artifact: "main",
			Compile: []string{"rustc", "-O", "-o", "$OUT", "$SRC"},
			Run:     []string{"$OUT"},
			Compiled: true,
		},
	} {
		r.chains[t.Lang] = t
	}
	return r
}

// Lookup returns the Toolchain for lang, or an error if unsupported.
func (r *Registry) Lookup(lang string) (Toolchain, error) {
	t, ok := r.chains[lang]
	if !ok {
		return Toolchain{}, fmt.Errorf("toolchain: unsupported language %q", lang)
	}
	return t, nil
}

// Languages lists every registered language tag.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.chains))
	for lang := range r.chains {
		out = append(out, lang)
	}
	return out
}
