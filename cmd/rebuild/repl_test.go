package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/rebuild/compiler"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rebuild.toml")
	content := "stack_size = 8192\nmax_diagnostics = 3\ntrace = \"Debug\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StackSize != 8192 || cfg.MaxDiagnostics != 3 || cfg.Trace != "Debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Prompt != "rebuild> " {
		t.Errorf("expected default prompt to survive, got %q", cfg.Prompt)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestSession(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.repl")
	defer teardown()
	//
	out := &strings.Builder{}
	intp, err := NewIntp(Config{StackSize: 4096, Prompt: "> "}, out)
	if err != nil {
		t.Fatal(err)
	}
	input := strings.Join([]string{
		"fn twice (x :i64):",
		"  print x",
		"  print x",
		"",
		"twice int 3",
		"print nope",
		":quit",
		"print 99",
	}, "\n")
	if err := intp.scanLines(strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\n3\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if intp.unit.Diagnostics.Len() != 1 {
		t.Errorf("expected diagnostics of last input to be kept, got %d", intp.unit.Diagnostics.Len())
	}
	if intp.continuation() != "... " {
		t.Errorf("unexpected continuation prompt %q", intp.continuation())
	}
}

func TestLeveledTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.repl")
	defer teardown()
	//
	intp, err := NewIntp(defaultConfig(), &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	block, err := intp.unit.Compile("print 42")
	if err != nil {
		t.Fatal(err)
	}
	ll := leveledTree(intp.unit.Program, block)
	if len(ll) != 3 { // block, call, literal
		t.Fatalf("expected 3 tree items, got %d", len(ll))
	}
	if ll[2].Level != 2 || !strings.Contains(ll[2].Text, "42") {
		t.Errorf("unexpected leaf %+v", ll[2])
	}
}

func TestMaxDiagnostics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.repl")
	defer teardown()
	//
	intp, err := NewIntp(Config{MaxDiagnostics: 2, Prompt: "> "}, &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	intp.Eval("nope 1\nnope 2\nnope 3\nnope 4")
	if n := intp.unit.Diagnostics.Len(); n != 2 {
		t.Errorf("expected diagnostics to be capped at 2, got %d", n)
	}
}

func TestGlobalNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.repl")
	defer teardown()
	//
	intp, err := NewIntp(defaultConfig(), &strings.Builder{})
	if err != nil {
		t.Fatal(err)
	}
	if err := intp.Eval("fn shout (x :i64)\n  print x\n"); err != nil {
		t.Fatal(err)
	}
	lines := globalNames(intp.unit.Globals)
	var found bool
	for _, line := range lines {
		if line == "shout :function" {
			found = true
		}
		if strings.HasPrefix(line, "print ") && !strings.Contains(line, "overloads") {
			t.Errorf("expected print to list its overloads, got %q", line)
		}
	}
	if !found {
		t.Errorf("expected shout among the globals, got %v", lines)
	}
	if quit, _ := intp.command(":globals"); quit {
		t.Errorf("expected :globals not to end the session")
	}
}

func TestSetTraceLevel(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.repl")
	defer teardown()
	//
	setTraceLevel(tracing.LevelError)
	for _, key := range append(compiler.TraceKeys, "rebuild.repl") {
		if l := tracing.Select(key).GetTraceLevel(); l != tracing.LevelError {
			t.Errorf("expected %s to trace at level Error, got %v", key, l)
		}
	}
}
