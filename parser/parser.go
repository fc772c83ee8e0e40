/*
Package parser turns block literals into syntax trees.

Lines of a block literal are parsed one statement at a time. A statement is
either a variable declaration

    let name [:Type] [= expression]

or an expression. Expressions are sequences of values and calls. When an
identifier denotes a function, the tokens following it (and the value
preceding it, as left operand) are handed to the overload resolver.

Calls eligible for compile-time execution are run immediately through an
Executor; their result replaces the call within the tree. Calls of
declarations produce no result and vanish from the tree. All other calls are
kept for execution at run time.

Errors are reported as diagnostics. After an error, the rest of the line is
skipped.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package parser

import (
	"errors"
	"fmt"

	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.parser'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.parser")
}

// ErrSyntax is returned from parsing a block which produced error
// diagnostics.
var ErrSyntax = errors.New("block contains errors")

// Executor runs calls at compile time. It returns the node the call should be
// replaced with, or nil if the call leaves no value.
type Executor interface {
	RunCall(call *ast.Call, sc *scope.Scope) (ast.Node, error)
}

// Parser parses block literals for a program.
type Parser struct {
	prog     *ast.Program
	reporter *diag.Counter
	exec     Executor
	tree     *scope.Tree                 // scopes of the blocks being parsed
	scopes   map[*ast.Block]*scope.Scope // scope of every parsed block
	parsed   map[blockKey]parsedBlock    // parse results, per literal and parent
}

// blockKey identifies a block literal parsed within a parent scope.
type blockKey struct {
	lit    *token.BlockLiteral
	parent *scope.Scope
}

type parsedBlock struct {
	block *ast.Block
	err   error
}

// New creates a parser. Diagnostics are delivered to reporter.
func New(prog *ast.Program, reporter diag.Reporter) *Parser {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Parser{
		prog:     prog,
		reporter: &diag.Counter{Next: reporter},
		tree:     scope.NewTree(nil),
		scopes:   make(map[*ast.Block]*scope.Scope),
		parsed:   make(map[blockKey]parsedBlock),
	}
}

// SetExecutor sets the executor for compile-time calls. Without an executor,
// all calls are kept for run time.
func (p *Parser) SetExecutor(e Executor) {
	p.exec = e
}

// Errors returns the number of errors reported so far.
func (p *Parser) Errors() int {
	return p.reporter.Errors
}

// ParseBlock parses a block literal within a new scope, child of parent.
// A block literal is parsed only once per parent scope; later calls return
// the first result, without reporting its diagnostics again.
func (p *Parser) ParseBlock(b *token.BlockLiteral, parent *scope.Scope) (*ast.Block, error) {
	key := blockKey{lit: b, parent: parent}
	if done, ok := p.parsed[key]; ok {
		tracer().Debugf("block at %s already parsed", b.Span)
		return done.block, done.err
	}
	p.tree.Enter(parent)
	defer p.tree.PopScope()
	sc := p.tree.PushNewScope("block")
	defer p.tree.PopScope()
	block, err := p.ParseBlockIn(b, sc)
	p.parsed[key] = parsedBlock{block: block, err: err}
	return block, err
}

// Scopes returns the stack of scopes of the blocks currently being parsed.
func (p *Parser) Scopes() *scope.Tree {
	return p.tree
}

// ParseBlockIn parses a block literal, declaring its locals in sc.
func (p *Parser) ParseBlockIn(b *token.BlockLiteral, sc *scope.Scope) (*ast.Block, error) {
	errorsBefore := p.reporter.Errors
	block := &ast.Block{Span: b.Span}
	p.scopes[block] = sc
	tracer().P("scope", sc.Name).Debugf("parse block of %d lines", len(b.Lines))
	for _, line := range b.Lines {
		c := token.NewCursor(line)
		if !p.statement(&c, block, sc) {
			continue // rest of line skipped
		}
		if !c.AtEnd() {
			p.unexpected(c.Current())
		}
	}
	if n := p.reporter.Errors - errorsBefore; n > 0 {
		return block, fmt.Errorf("%w: %d error(s)", ErrSyntax, n)
	}
	return block, nil
}

// ScopeOf returns the scope a block has been parsed in.
func (p *Parser) ScopeOf(b *ast.Block) *scope.Scope {
	return p.scopes[b]
}

// statement parses one statement and appends it to block. It returns false
// after an error.
func (p *Parser) statement(c *token.Cursor, block *ast.Block, sc *scope.Scope) bool {
	if c.Current().IsA(token.Identifier, "let") {
		return p.let(c, block, sc)
	}
	v := p.values(sc)
	node, ok := v.expression(c)
	if !ok {
		return false
	}
	if node != nil {
		block.Nodes = append(block.Nodes, node)
	}
	return true
}

// let parses a variable declaration.
func (p *Parser) let(c *token.Cursor, block *ast.Block, sc *scope.Scope) bool {
	kw := c.Current()
	c.Next()
	name := c.Current()
	if name.Kind != token.Identifier {
		p.unexpected(name)
		return false
	}
	c.Next()
	v := p.values(sc)
	var typ ast.TypeExpr
	if c.Is(token.Colon) {
		c.Next()
		t, ok := v.ParseType(c)
		if !ok {
			diag.ReportError(p.reporter, diag.ParserExpectedType, c.Current().Span,
				"expected a type, found "+c.Current().String()).Emit()
			return false
		}
		typ = t
	}
	var value ast.Node
	if c.Is(token.Assign) {
		c.Next()
		node, ok := v.expression(c)
		if !ok {
			return false
		}
		if node == nil || p.prog.TypeOf(node) == nil {
			diag.ReportError(p.reporter, diag.ParserTypeMismatch, name.Span,
				fmt.Sprintf("initializer of %s produces no value", name.Text)).Emit()
			return false
		}
		value = node
	}
	switch {
	case typ == nil && value == nil:
		diag.ReportError(p.reporter, diag.ParserExpectedType, name.Span,
			fmt.Sprintf("variable %s needs a type or an initial value", name.Text)).Emit()
		return false
	case typ == nil:
		typ = p.prog.TypeOf(value)
	case value != nil && !ast.Compatible(typ, p.prog.TypeOf(value)):
		diag.ReportError(p.reporter, diag.ParserTypeMismatch, value.Pos(),
			fmt.Sprintf("cannot initialize %s :%s with a value of type %s", name.Text,
				p.prog.TypeName(typ), p.prog.TypeName(p.prog.TypeOf(value)))).Emit()
		return false
	}
	span := kw.Span.Extend(name.Span)
	vid := p.prog.DeclareVariable(ast.Variable{Name: name.Text, Type: typ, Span: span})
	if _, err := sc.Declare(scope.Variable{Name: name.Text, ID: vid}); err != nil {
		diag.ReportError(p.reporter, diag.ParserDuplicateName, name.Span, err.Error()).Emit()
		return false
	}
	block.Locals = append(block.Locals, vid)
	if value != nil {
		block.Nodes = append(block.Nodes, &ast.VariableInit{
			Variable: vid,
			Value:    value,
			Span:     span.Extend(value.Pos()),
		})
	}
	return true
}

func (p *Parser) unexpected(tok token.Token) {
	diag.ReportError(p.reporter, diag.ParserUnexpectedToken, tok.Span,
		"unexpected "+tok.Kind.String()+" "+tok.String()).Emit()
}
