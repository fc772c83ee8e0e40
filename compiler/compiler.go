/*
Package compiler wires the components of a compilation unit.

A Unit owns the program, the global scope with the prelude, the stack
allocator, the parser and the execution machine. Parser and machine are
connected through their callback interfaces: the parser runs compile-time
calls on the machine, the machine parses deferred blocks with the parser.

Configuration is taken from gconf:

    rebuild.stack-size     size of the stack allocator in bytes (default 1 MiB)
    panic-on-ambiguous     panic instead of reporting ambiguous calls

Options given to New take precedence.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package compiler

import (
	"errors"
	"io"
	"os"

	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/exec"
	"github.com/npillmayer/rebuild/lexer"
	"github.com/npillmayer/rebuild/parser"
	"github.com/npillmayer/rebuild/prelude"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.compiler'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.compiler")
}

// TraceKeys are the tracer keys of the components of a unit.
var TraceKeys = []string{
	"rebuild.lexer",
	"rebuild.scope",
	"rebuild.resolver",
	"rebuild.parser",
	"rebuild.exec",
	"rebuild.arena",
	"rebuild.prelude",
	"rebuild.compiler",
}

// DefaultStackSize is the stack size used if neither configuration nor
// options set one.
const DefaultStackSize = 1 << 20

// ErrDiagnostics is returned if compiling produced errors. Code with errors is
// never executed.
var ErrDiagnostics = errors.New("compilation failed")

type config struct {
	stackSize int
	out       io.Writer
	maxDiag   int
}

// Option configures a unit.
type Option func(*config)

// WithStackSize sets the size of the stack allocator.
func WithStackSize(n int) Option {
	return func(c *config) { c.stackSize = n }
}

// WithOutput sets the destination of print.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.out = w }
}

// WithMaxDiagnostics limits the number of diagnostics collected per
// compilation.
func WithMaxDiagnostics(n int) Option {
	return func(c *config) { c.maxDiag = n }
}

// Unit is a compilation unit.
type Unit struct {
	Program     *ast.Program
	Globals     *scope.Scope
	Types       *prelude.Types
	Stack       *arena.Stack
	Machine     *exec.Machine
	Parser      *parser.Parser
	Diagnostics *diag.Bag
	lexer       *lexer.Lexer
	dedup       *diag.DedupReporter
}

// New creates a unit with the prelude declared.
func New(opts ...Option) (*Unit, error) {
	cfg := config{stackSize: gconf.GetInt("rebuild.stack-size"), out: os.Stdout, maxDiag: 64}
	if cfg.stackSize <= 0 {
		cfg.stackSize = DefaultStackSize
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	lx, err := lexer.New()
	if err != nil {
		return nil, err
	}
	u := &Unit{
		Program:     ast.NewProgram(),
		Globals:     scope.NewScope("globals", nil),
		Stack:       arena.New(cfg.stackSize),
		Diagnostics: diag.NewBag(cfg.maxDiag),
		lexer:       lx,
	}
	u.dedup = diag.NewDedupReporter(diag.BagReporter{Bag: u.Diagnostics})
	u.Types = prelude.Declare(u.Program, u.Globals, cfg.out)
	u.Parser = parser.New(u.Program, u)
	u.Machine = exec.NewMachine(u.Program, u.Stack)
	u.Parser.SetExecutor(u.Machine)
	u.Machine.SetParser(u.Parser)
	tracer().Debugf("compilation unit with %d bytes of stack", cfg.stackSize)
	return u, nil
}

// Report is part of interface diag.Reporter. Diagnostics of the current
// compilation are deduplicated and collected.
func (u *Unit) Report(d diag.Diagnostic) {
	u.dedup.Report(d)
}

// Compile parses source text within a new child scope of the globals.
// Functions declared by the source are global and survive; variables do
// not. If errors are reported, the block is returned together with
// ErrDiagnostics.
func (u *Unit) Compile(src string) (*ast.Block, error) {
	u.Diagnostics.Reset()
	u.dedup = diag.NewDedupReporter(diag.BagReporter{Bag: u.Diagnostics})
	lit, err := u.lexer.Parse(src)
	if err != nil {
		if lit == nil {
			diag.ReportError(u, diag.LexerBadInput, rebuild.Span{}, err.Error()).Emit()
			return nil, ErrDiagnostics
		}
		diag.ReportError(u, diag.LexerBadInput, lit.Span, err.Error()).Emit()
	}
	block, _ := u.Parser.ParseBlock(lit, scope.NewScope("unit", u.Globals))
	u.Diagnostics.Sort()
	if u.Diagnostics.HasErrors() {
		return block, ErrDiagnostics
	}
	return block, nil
}

// Run executes a compiled block. It refuses to run if the last compilation
// reported errors.
func (u *Unit) Run(b *ast.Block) error {
	if u.Diagnostics.HasErrors() {
		return ErrDiagnostics
	}
	err := u.Machine.Run(b, u.Parser.ScopeOf(b))
	tracer().Debugf("program holds %d literals after run", u.Program.LiteralCount())
	return err
}

// Execute compiles and runs source text.
func (u *Unit) Execute(src string) error {
	block, err := u.Compile(src)
	if err != nil {
		return err
	}
	return u.Run(block)
}
