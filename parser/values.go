package parser

import (
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/rebuild/diag"
	"github.com/npillmayer/rebuild/scope"
	"github.com/npillmayer/rebuild/token"
)

// ParseType parses a type expression: a (qualified) type name, optionally
// preceded by '*' for pointer types. Modules stand for their type.
func (v values) ParseType(c *token.Cursor) (ast.TypeExpr, bool) {
	start := *c
	if c.Current().IsA(token.Operator, "*") {
		c.Next()
		elem, ok := v.ParseType(c)
		if !ok {
			*c = start
			return nil, false
		}
		return ast.Pointer{Elem: elem}, true
	}
	if !c.Is(token.Identifier) {
		return nil, false
	}
	typ, err := scope.Lookup[scope.Type](v.sc, c.Current().Text)
	if err != nil {
		return nil, false
	}
	c.Next()
	return ast.Instance{Type: typ.ID}, true
}

// ParseValue parses an argument value with the sub-parser of kind.
func (v values) ParseValue(c *token.Cursor, kind ast.ParserKind) (ast.Node, bool) {
	tok := c.Current()
	switch kind {
	case ast.ParseSingleToken:
		switch tok.Kind {
		case token.Number, token.String, token.Block, token.Identifier:
			c.Next()
			return v.literal(tok), true
		}
		return nil, false
	case ast.ParseIdentifier:
		if tok.Kind != token.Identifier {
			return nil, false
		}
		c.Next()
		return v.literal(tok), true
	case ast.ParseTypeExpression:
		typ, ok := v.ParseType(c)
		if !ok {
			return nil, false
		}
		lid := v.prog.AddLiteral(ast.Literal{Kind: ast.TypeLit, Type: typ, Span: tok.Span})
		return &ast.LiteralRef{Literal: lid, Span: tok.Span}, true
	case ast.ParseValueTuple:
		return v.tuple(c)
	}
	start := *c
	node, ok := v.expression(c)
	if !ok || node == nil {
		*c = start
		return nil, false
	}
	return node, true
}

// tuple parses a bracketed list of entries `name :Type = value`, each part
// being optional, separated by commas.
func (v values) tuple(c *token.Cursor) (ast.Node, bool) {
	open := c.Current()
	if open.Kind != token.OpenBracket {
		return nil, false
	}
	start := *c
	c.Next()
	var entries []ast.TupleEntry
	for !c.Is(token.CloseBracket) {
		entry, ok := v.tupleEntry(c)
		if !ok {
			*c = start
			return nil, false
		}
		entries = append(entries, entry)
		if c.Is(token.Comma) {
			c.Next()
		} else if !c.Is(token.CloseBracket) {
			if c.AtEnd() {
				diag.ReportError(v.reporter, diag.ResolverBracketNeverCloses, c.Current().Span,
					"bracket never closes on this line").WithNote(open.Span, "tuple starts here").Emit()
			} else {
				v.unexpected(c.Current())
			}
			*c = start
			return nil, false
		}
	}
	span := open.Span.Extend(c.Current().Span)
	c.Next()
	lid := v.prog.AddLiteral(ast.Literal{Kind: ast.TupleLit, Tuple: entries, Span: span})
	return &ast.LiteralRef{Literal: lid, Span: span}, true
}

func (v values) tupleEntry(c *token.Cursor) (ast.TupleEntry, bool) {
	var entry ast.TupleEntry
	entry.Span = c.Current().Span
	if c.Is(token.Identifier) {
		entry.Name = c.Current().Text
		c.Next()
	}
	if c.Is(token.Colon) {
		c.Next()
		typ, ok := v.ParseType(c)
		if !ok {
			diag.ReportError(v.reporter, diag.ParserExpectedType, c.Current().Span,
				"expected a type, found "+c.Current().String()).Emit()
			return entry, false
		}
		entry.Type = typ
	}
	if c.Is(token.Assign) {
		c.Next()
		value, ok := v.expression(c)
		if !ok || value == nil {
			return entry, false
		}
		entry.Value = value
		entry.Span = entry.Span.Extend(value.Pos())
	}
	if entry.Name == "" && entry.Type == nil && entry.Value == nil {
		v.unexpected(c.Current())
		return entry, false
	}
	return entry, true
}
