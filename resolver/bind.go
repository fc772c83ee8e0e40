package resolver

import (
	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/token"
)

// typedValue is an argument as found in the input: `name = value`,
// `name :Type = value`, `:Type = value`, `:Type` or just `value`.
type typedValue struct {
	name     string
	typ      ast.TypeExpr // explicit type, or nil
	value    ast.Node
	isBlock  bool
	typeOnly bool // value is a type literal made from typ
	span     rebuild.Span
}

// isNamed is a predicate: is the value to be bound by name? Values carrying
// an explicit type are always bound positionally.
func (tv typedValue) isNamed() bool {
	return tv.name != "" && tv.typ == nil
}

// parseTyped parses one typed value. Within brackets, parsing stops at a
// closing bracket.
func (res *resolution) parseTyped(c *token.Cursor, kind ast.ParserKind, brackets bool) (typedValue, bool) {
	var tv typedValue
	if c.AtEnd() || c.Is(token.Comma) || (brackets && c.Is(token.CloseBracket)) {
		return tv, false
	}
	start := *c
	tv.span = c.Current().Span
	if c.Is(token.Identifier) {
		if k := c.Peek(1).Kind; k == token.Assign || k == token.Colon {
			tv.name = c.Current().Text
			c.Next()
		}
	}
	if c.Is(token.Colon) {
		c.Next()
		typ, ok := res.values.ParseType(c)
		if !ok {
			*c = start
			return tv, false
		}
		tv.typ = typ
	}
	explicit := tv.name != "" || tv.typ != nil
	if c.Is(token.Assign) {
		if !explicit {
			*c = start
			return tv, false
		}
		c.Next()
	} else if explicit {
		if tv.typ == nil {
			*c = start
			return tv, false
		}
		lid := res.prog.AddLiteral(ast.Literal{Kind: ast.TypeLit, Type: tv.typ, Span: tv.span})
		tv.value = &ast.LiteralRef{Literal: lid, Span: tv.span}
		tv.typeOnly = true
		return tv, true
	}
	value, ok := res.values.ParseValue(c, kind)
	if !ok || value == nil {
		*c = start
		return tv, false
	}
	tv.value = value
	tv.span = tv.span.Extend(value.Pos())
	if ref, ok := value.(*ast.LiteralRef); ok {
		if lit := res.prog.Literal(ref.Literal); lit != nil && lit.Kind == ast.BlockLit {
			tv.isBlock = true
		}
	}
	return tv, true
}

// nextPositional returns the next right parameter of c to bind positionally.
// Splatted parameters stay in place and absorb all further positional values.
func (res *resolution) nextPositional(c *Candidate) (ast.ParameterID, bool) {
	for c.next < len(c.rights) {
		pid := c.rights[c.next]
		if res.prog.Parameter(pid).Has(ast.Splatted) {
			return pid, true
		}
		if _, bound := c.Call.Argument(pid); !bound {
			return pid, true
		}
		c.next++
	}
	return 0, false
}

// bind binds a value to a parameter of c, either by name or positionally. A
// candidate unable to accept the value retires.
func (res *resolution) bind(c *Candidate, tv typedValue) bool {
	var pid ast.ParameterID
	if tv.isNamed() {
		named, ok := res.prog.NamedParameter(c.Function, tv.name)
		if !ok || res.prog.Parameter(named).Side != ast.SideRight {
			res.retire(c, "no parameter named "+tv.name)
			return false
		}
		if _, bound := c.Call.Argument(named); bound && !res.prog.Parameter(named).Has(ast.Splatted) {
			res.retire(c, "parameter "+tv.name+" bound twice")
			return false
		}
		pid = named
	} else {
		next, ok := res.nextPositional(c)
		if !ok {
			res.retire(c, "too many arguments")
			return false
		}
		pid = next
	}
	vt := res.prog.TypeOf(tv.value)
	if tv.typ != nil && !tv.typeOnly && !ast.Compatible(tv.typ, vt) {
		res.retire(c, "value does not match its explicit type")
		return false
	}
	if !res.accepts(pid, vt, tv.value) {
		res.retire(c, "type mismatch for "+res.prog.Parameter(pid).Name)
		return false
	}
	c.Call.Bind(pid, tv.value)
	res.charge(c, tv.value)
	if !tv.isNamed() && !res.prog.Parameter(pid).Has(ast.Splatted) {
		c.next++
	}
	tracer().Debugf("bind %s := %s", res.prog.Parameter(pid).Name, res.prog.Describe(tv.value))
	return true
}

// accepts is a predicate: may value of type vt be bound to parameter pid?
func (res *resolution) accepts(pid ast.ParameterID, vt ast.TypeExpr, value ast.Node) bool {
	par := res.prog.Parameter(pid)
	if par.Has(ast.Assignable) {
		switch value.(type) {
		case *ast.VariableRef, *ast.ParameterRef:
		default:
			return false
		}
	}
	if par.Has(ast.CompileTimeOnly) {
		if _, ok := value.(*ast.LiteralRef); !ok {
			return false
		}
	}
	return ast.Compatible(par.Type, vt)
}

// satisfied is a predicate: are all required right parameters of c bound?
func (res *resolution) satisfied(c *Candidate) bool {
	for _, pid := range c.rights {
		if !res.prog.Parameter(pid).IsRequired() {
			continue
		}
		if _, bound := c.Call.Argument(pid); !bound {
			return false
		}
	}
	return true
}
