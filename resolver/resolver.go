/*
Package resolver implements overload resolution for function calls.

Given the overload set of a function name and a token cursor positioned
behind the name, the resolver speculatively binds arguments for every
overload in parallel. Each overload is tracked by a Candidate, carrying its
own cursor position. Candidates retire as soon as they cannot accept a value.
The parser treats zero complete candidates as no match, exactly one as the
resolved call and more than one as ambiguous.

Argument values are parsed by a ValueParser, which is provided by clients
(usually the expression parser). Candidates expecting the same kind of value
at the same position share a single parse.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package resolver

import (
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.resolver'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.resolver")
}

// ValueParser parses argument values. Implementations advance the cursor past
// the tokens they consume, and leave it untouched on failure.
type ValueParser interface {
	ParseType(c *token.Cursor) (ast.TypeExpr, bool)
	ParseValue(c *token.Cursor, kind ast.ParserKind) (ast.Node, bool)
}

// Input is a call site to resolve.
type Input struct {
	Cursor    token.Cursor     // positioned behind the function name
	Functions []ast.FunctionID // overload set
	Left      ast.Node         // left operand, or nil
	Span      rebuild.Span     // span of the function name
}

// Candidate is an overload under consideration.
type Candidate struct {
	Function    ast.FunctionID
	Cursor      token.Cursor // input consumed so far
	Call        *ast.Call
	SideEffects int // bound values with side effects

	rights    []ast.ParameterID
	next      int // index of the next positional right parameter
	active    bool
	complete  bool
	hasBlocks bool
	brackets  bool
}

// IsComplete is a predicate: are all required parameters bound?
func (c *Candidate) IsComplete() bool {
	return c.complete
}

// HasBlocks is a predicate: has a block literal been bound?
func (c *Candidate) HasBlocks() bool {
	return c.hasBlocks
}

// Result is the outcome of resolving a call site.
type Result struct {
	Candidates   []*Candidate // all overloads, in input order
	Complete     []*Candidate // complete overloads, in input order
	SideEffects  int          // side effects charged across all candidates
	Tainted      bool         // an error has already been reported
	LeftRejected bool         // no overload accepts the left operand
}

// Resolved returns the single complete candidate, if there is exactly one.
func (r *Result) Resolved() (*Candidate, bool) {
	if len(r.Complete) == 1 {
		return r.Complete[0], true
	}
	return nil, false
}

// Resolver resolves call sites against overload sets.
type Resolver struct {
	prog     *ast.Program
	values   ValueParser
	reporter diag.Reporter
}

// New creates a resolver. Diagnostics are delivered to reporter, which may be
// nil.
func New(prog *ast.Program, values ValueParser, reporter diag.Reporter) *Resolver {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Resolver{prog: prog, values: values, reporter: reporter}
}

// resolution is the state of one run of Resolve.
type resolution struct {
	*Resolver
	Result
	charged *hashset.Set // values whose side effects have been counted
}

// Resolve matches a call site against its overload set.
func (r *Resolver) Resolve(in Input) *Result {
	res := &resolution{Resolver: r, charged: hashset.New()}
	for _, fid := range in.Functions {
		c := &Candidate{
			Function: fid,
			Cursor:   in.Cursor,
			Call:     &ast.Call{Function: fid, Span: in.Span},
			rights:   r.prog.ParametersOf(fid, ast.SideRight),
			active:   true,
		}
		res.Candidates = append(res.Candidates, c)
	}
	res.bindLeft(in.Left)
	brackets := res.openBracket(in.Cursor)
	for _, c := range res.Candidates {
		c.complete = c.active && res.satisfied(c)
	}
	for {
		pilot := res.pilot()
		if pilot == nil {
			break
		}
		res.step(pilot)
	}
	if brackets {
		res.closeBracket()
	}
	for _, c := range res.Candidates {
		if c.complete {
			res.Complete = append(res.Complete, c)
		}
	}
	tracer().Debugf("resolved %d overloads to %d complete candidates", len(res.Candidates), len(res.Complete))
	return &res.Result
}

// bindLeft retires candidates whose left parameters cannot accept the left
// operand. Without a left operand, left parameters must be optional.
func (res *resolution) bindLeft(left ast.Node) {
	accepted := false
	for _, c := range res.Candidates {
		lefts := res.prog.ParametersOf(c.Function, ast.SideLeft)
		if left == nil {
			for _, pid := range lefts {
				if res.prog.Parameter(pid).IsRequired() {
					res.retire(c, "requires a left operand")
					break
				}
			}
			continue
		}
		if len(lefts) == 0 {
			res.retire(c, "takes no left operand")
			continue
		}
		for _, pid := range lefts[1:] {
			if res.prog.Parameter(pid).IsRequired() {
				res.retire(c, "requires more than one left operand")
				break
			}
		}
		if !c.active {
			continue
		}
		if !res.accepts(lefts[0], res.prog.TypeOf(left), left) {
			res.retire(c, "left operand type mismatch")
			continue
		}
		c.Call.Bind(lefts[0], left)
		res.charge(c, left)
		accepted = true
	}
	res.LeftRejected = left != nil && !accepted
}

// openBracket consumes an optional opening bracket for all candidates. A
// bracket is taken as the start of a value tuple instead if every candidate
// expects one.
func (res *resolution) openBracket(cur token.Cursor) bool {
	if !cur.Is(token.OpenBracket) {
		return false
	}
	tuples := 0
	for _, c := range res.Candidates {
		if len(c.rights) > 0 && res.prog.ParserFor(res.prog.Parameter(c.rights[0]).Type) == ast.ParseValueTuple {
			tuples++
		}
	}
	if tuples == len(res.Candidates) {
		return false
	}
	for _, c := range res.Candidates {
		c.Cursor.Next()
		c.brackets = true
	}
	return true
}

// pilot returns the active candidate with the earliest cursor position. Ties
// are broken by candidate order.
func (res *resolution) pilot() *Candidate {
	var pilot *Candidate
	for _, c := range res.Candidates {
		if c.active && (pilot == nil || c.Cursor.Pos() < pilot.Cursor.Pos()) {
			pilot = c
		}
	}
	return pilot
}

// group collects the active candidates positioned with the pilot and
// expecting the same kind of value.
func (res *resolution) group(pilot *Candidate) []*Candidate {
	kind := res.expected(pilot)
	var group []*Candidate
	for _, c := range res.Candidates {
		if c.active && c.Cursor.Pos() == pilot.Cursor.Pos() && res.expected(c) == kind {
			group = append(group, c)
		}
	}
	return group
}

// expected returns the parser kind for the next positional value of c.
func (res *resolution) expected(c *Candidate) ast.ParserKind {
	if pid, ok := res.nextPositional(c); ok {
		return res.prog.ParserFor(res.prog.Parameter(pid).Type)
	}
	return ast.ParseExpression
}

// step parses one value with the pilot's cursor and offers it to the
// pilot's group.
func (res *resolution) step(pilot *Candidate) {
	group := res.group(pilot)
	kind := res.expected(pilot)
	cur := pilot.Cursor
	tv, ok := res.parseTyped(&cur, kind, pilot.brackets)
	if !ok {
		for _, c := range group {
			res.retire(c, "no further argument")
		}
		return
	}
	bound := 0
	var rejecting []*Candidate
	for _, c := range group {
		if !res.bind(c, tv) {
			rejecting = append(rejecting, c)
			continue
		}
		bound++
		c.Cursor = cur
		res.skipComma(c)
		c.complete = res.satisfied(c)
		if tv.isBlock {
			c.hasBlocks = true
		}
	}
	if bound > 0 {
		// input consumed by a sibling has to be consumed by a match
		for _, c := range rejecting {
			c.complete = false
		}
	}
	if tv.isBlock && bound > 0 {
		for _, c := range res.Candidates {
			if !c.hasBlocks {
				res.retire(c, "block literal bound by other overload")
				c.complete = false
			}
		}
	}
}

// skipComma consumes a separating comma, unless the argument list ends
// right after it.
func (res *resolution) skipComma(c *Candidate) {
	if !c.Cursor.Is(token.Comma) {
		return
	}
	next := c.Cursor.Peek(1)
	if next.Kind == token.CloseBracket || next.Kind == token.Invalid {
		return
	}
	c.Cursor.Next()
}

func (res *resolution) retire(c *Candidate, why string) {
	if !c.active {
		return
	}
	c.active = false
	tracer().Debugf("retire %s: %s", res.prog.Signature(c.Function), why)
}

// charge counts the side effects of a bound value, once per candidate and once
// across all candidates.
func (res *resolution) charge(c *Candidate, value ast.Node) {
	if value == nil || !res.prog.HasSideEffects(value) {
		return
	}
	c.SideEffects++
	c.Call.SideEffects++
	if !res.charged.Contains(value) {
		res.charged.Add(value)
		res.SideEffects++
	}
}

// closeBracket requires a closing bracket behind the arguments of complete
// candidates. A missing bracket is reported once.
func (res *resolution) closeBracket() {
	closed, anyComplete := false, false
	var furthest *Candidate
	for _, c := range res.Candidates {
		if furthest == nil || c.Cursor.Pos() > furthest.Cursor.Pos() {
			furthest = c
		}
		if !c.complete {
			continue
		}
		anyComplete = true
		if c.Cursor.Is(token.CloseBracket) {
			c.Cursor.Next()
			closed = true
		} else {
			c.complete = false
		}
	}
	if closed || furthest == nil {
		return
	}
	if !anyComplete && furthest.Cursor.Is(token.CloseBracket) {
		return // no match at all, left to the caller
	}
	at := furthest.Cursor.Current()
	if furthest.Cursor.AtEnd() {
		diag.ReportError(res.reporter, diag.ResolverBracketNeverCloses, at.Span,
			"bracket never closes on this line").Emit()
	} else {
		diag.ReportError(res.reporter, diag.ResolverExpectedBracket, at.Span,
			"expected closing bracket here, found "+at.String()).Emit()
	}
	res.Tainted = true
}
