package parser

import (
	"errors"
	"fmt"

	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/resolver"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/rebuild/token"
	"github.com/npillmayer/schuko/gconf"
)

// values parses expressions within a scope. It serves as the resolver's
// value parser.
type values struct {
	*Parser
	sc *scope.Scope
}

var _ resolver.ValueParser = values{}

func (p *Parser) values(sc *scope.Scope) values {
	return values{Parser: p, sc: sc}
}

// expression parses values and calls up to a separator, or up to a second
// operand following a complete value. It returns false after an error has
// been reported. A call leaving no value yields a nil node.
func (v values) expression(c *token.Cursor) (ast.Node, bool) {
	var left ast.Node
	for !c.AtEnd() {
		tok := c.Current()
		switch tok.Kind {
		case token.Comma, token.CloseBracket, token.Assign, token.Colon:
			return left, true
		case token.Number, token.String, token.Block:
			if left != nil {
				return left, true
			}
			left = v.literal(tok)
			c.Next()
		case token.OpenBracket:
			if left != nil {
				return left, true
			}
			inner, ok := v.bracketed(c)
			if !ok {
				return nil, false
			}
			left = inner
		case token.Identifier:
			node, stop, ok := v.identifier(c, left)
			if !ok {
				return nil, false
			}
			if stop {
				return left, true
			}
			left = node
		default:
			v.unexpected(tok)
			return nil, false
		}
	}
	return left, true
}

// bracketed parses `( expression )`.
func (v values) bracketed(c *token.Cursor) (ast.Node, bool) {
	open := c.Current()
	c.Next()
	inner, ok := v.expression(c)
	if !ok {
		return nil, false
	}
	if !c.Is(token.CloseBracket) {
		code, msg := diag.ResolverExpectedBracket, "expected closing bracket here"
		if c.AtEnd() {
			code, msg = diag.ResolverBracketNeverCloses, "bracket never closes on this line"
		}
		diag.ReportError(v.reporter, code, c.Current().Span, msg).
			WithNote(open.Span, "bracket opened here").Emit()
		return nil, false
	}
	c.Next()
	if inner == nil {
		v.unexpected(c.Current())
		return nil, false
	}
	return inner, true
}

// identifier parses a name. stop is set if the name starts a second operand.
func (v values) identifier(c *token.Cursor, left ast.Node) (node ast.Node, stop bool, ok bool) {
	tok := c.Current()
	entries, err := v.sc.LookupRange(tok.Text)
	if err != nil {
		v.lookupFailed(tok, err)
		return nil, false, false
	}
	switch e := entries[0].(type) {
	case scope.Function:
		fns := make([]ast.FunctionID, 0, len(entries))
		for _, entry := range entries {
			fns = append(fns, entry.(scope.Function).ID)
		}
		if left != nil && !v.takesLeft(fns) {
			return nil, true, true
		}
		c.Next()
		node, ok = v.call(c, tok, fns, left)
		return node, false, ok
	case scope.Variable:
		if left != nil {
			return nil, true, true
		}
		c.Next()
		return &ast.VariableRef{Variable: e.ID, Span: tok.Span}, false, true
	case scope.Parameter:
		if left != nil {
			return nil, true, true
		}
		c.Next()
		return &ast.ParameterRef{Parameter: e.ID, Span: tok.Span}, false, true
	case scope.Type, *scope.Module:
		if left != nil {
			return nil, true, true
		}
		typ, found := v.ParseType(c)
		if !found {
			diag.ReportError(v.reporter, diag.ParserExpectedType, tok.Span,
				tok.Text+" is a module without a type").Emit()
			return nil, false, false
		}
		lid := v.prog.AddLiteral(ast.Literal{Kind: ast.TypeLit, Type: typ, Span: tok.Span})
		return &ast.LiteralRef{Literal: lid, Span: tok.Span}, false, true
	}
	v.unexpected(tok)
	return nil, false, false
}

func (v values) lookupFailed(tok token.Token, err error) {
	code := diag.ParserUnknownIdentifier
	if errors.Is(err, scope.ErrNotAModule) {
		code = diag.ParserNotAModule
	}
	diag.ReportError(v.reporter, code, tok.Span, err.Error()).Emit()
}

// takesLeft is a predicate: does any of the overloads have a left parameter?
func (v values) takesLeft(fns []ast.FunctionID) bool {
	for _, fid := range fns {
		if len(v.prog.ParametersOf(fid, ast.SideLeft)) > 0 {
			return true
		}
	}
	return false
}

// call resolves a call site and runs the call at compile time if possible.
func (v values) call(c *token.Cursor, name token.Token, fns []ast.FunctionID, left ast.Node) (ast.Node, bool) {
	errorsBefore := v.reporter.Errors
	r := resolver.New(v.prog, v, v.reporter)
	res := r.Resolve(resolver.Input{Cursor: *c, Functions: fns, Left: left, Span: name.Span})
	if res.Tainted || v.reporter.Errors > errorsBefore {
		return nil, false // already reported
	}
	cand, ok := res.Resolved()
	if !ok {
		v.unresolved(name, res)
		return nil, false
	}
	*c = cand.Cursor
	call := cand.Call
	if left != nil {
		call.Span = left.Pos().Extend(call.Span)
	}
	call.Span = call.Span.Extend(v.lastSpan(call))
	tracer().Debugf("resolved call %s", v.prog.Signature(call.Function))
	if !v.compileTime(call) {
		return call, true
	}
	errorsBefore = v.reporter.Errors
	node, err := v.exec.RunCall(call, v.sc)
	if err != nil {
		if v.reporter.Errors > errorsBefore {
			return nil, false // nested parse has reported
		}
		diag.ReportError(v.reporter, diag.ParserCompileTimeFailed, call.Span,
			fmt.Sprintf("compile-time call of %s failed: %v", name.Text, err)).Emit()
		return nil, false
	}
	return node, true
}

func (v values) lastSpan(call *ast.Call) rebuild.Span {
	var sp rebuild.Span
	for _, a := range call.Arguments {
		for _, val := range a.Values {
			sp = sp.Extend(val.Pos())
		}
	}
	return sp
}

// unresolved reports a call site with zero or several complete overloads.
func (v values) unresolved(name token.Token, res *resolver.Result) {
	if len(res.Complete) == 0 {
		b := diag.ReportError(v.reporter, diag.ParserNoOverload, name.Span,
			fmt.Sprintf("no overload of %s matches the arguments", name.Text))
		for _, cand := range res.Candidates {
			b.WithNote(v.prog.Function(cand.Function).Span, "candidate "+v.prog.Signature(cand.Function))
		}
		b.Emit()
		return
	}
	msg := fmt.Sprintf("call of %s is ambiguous, %d overloads match", name.Text, len(res.Complete))
	if gconf.GetBool("panic-on-ambiguous") {
		panic(msg)
	}
	b := diag.ReportError(v.reporter, diag.ParserAmbiguousOverload, name.Span, msg)
	for _, cand := range res.Complete {
		b.WithNote(v.prog.Function(cand.Function).Span, "matches "+v.prog.Signature(cand.Function))
	}
	b.Emit()
}

// compileTime is a predicate: may call be executed while parsing? The function
// must be eligible, its parameters must have known sizes and all arguments
// must be literals. A result is only possible as a literal.
func (v values) compileTime(call *ast.Call) bool {
	if v.exec == nil || call.SideEffects > 0 {
		return false
	}
	fn := v.prog.Function(call.Function)
	if !fn.IsCompileTime() || !v.prog.LayoutKnown(call.Function) {
		return false
	}
	for _, a := range call.Arguments {
		for _, val := range a.Values {
			if _, ok := val.(*ast.LiteralRef); !ok {
				return false
			}
		}
	}
	if _, ok := v.prog.ResultParameter(call.Function); ok {
		return v.prog.IsLiteralType(v.prog.TypeOf(call))
	}
	return true
}

// literal creates a literal for a number, string or block token.
func (v values) literal(tok token.Token) ast.Node {
	lit := ast.Literal{Text: tok.Text, Span: tok.Span}
	switch tok.Kind {
	case token.Number:
		lit.Kind = ast.NumberLit
	case token.String:
		lit.Kind = ast.StringLit
	case token.Block:
		lit.Kind = ast.BlockLit
		lit.Block = tok.Block
		lit.Text = ""
	case token.Identifier:
		lit.Kind = ast.IdentifierLit
	}
	return &ast.LiteralRef{Literal: v.prog.AddLiteral(lit), Span: tok.Span}
}
