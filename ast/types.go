package ast

import (
	"fmt"
	"strings"
)

// ParserKind selects the sub-parser used for arguments of a type.
type ParserKind uint8

// Sub-parsers for arguments.
const (
	ParseExpression     ParserKind = iota // generic expression parser
	ParseSingleToken                      // one token, taken literally
	ParseIdentifier                       // one identifier, not looked up
	ParseTypeExpression                   // a type expression
	ParseValueTuple                       // a bracketed list of typed entries
)

func (k ParserKind) String() string {
	switch k {
	case ParseSingleToken:
		return "single-token"
	case ParseIdentifier:
		return "identifier"
	case ParseTypeExpression:
		return "type-expression"
	case ParseValueTuple:
		return "value-tuple"
	}
	return "expression"
}

// Type is a named type with a statically known size.
type Type struct {
	Name   string
	Size   uint32
	Parser ParserKind
}

// --- Type expressions ------------------------------------------------------

// TypeExpr is a type expression. It is one of Auto, Instance, Pointer or Array.
type TypeExpr interface {
	isTypeExpr()
}

// Auto is an unresolved type. It accepts values of any type.
type Auto struct{}

// Instance denotes a declared type.
type Instance struct {
	Type TypeID
}

// Pointer denotes a pointer to values of type Elem.
type Pointer struct {
	Elem TypeExpr
}

// Array denotes Count consecutive values of type Elem.
type Array struct {
	Elem  TypeExpr
	Count uint32
}

func (Auto) isTypeExpr()     {}
func (Instance) isTypeExpr() {}
func (Pointer) isTypeExpr()  {}
func (Array) isTypeExpr()    {}

// Compatible is a predicate: may a value of type value be bound to a slot of
// type param? Auto accepts anything, everything else is compared
// structurally. A nil value type (no value) is never compatible.
func Compatible(param, value TypeExpr) bool {
	if value == nil {
		return false
	}
	switch pt := param.(type) {
	case nil, Auto:
		return true
	case Instance:
		vt, ok := value.(Instance)
		return ok && vt.Type == pt.Type
	case Pointer:
		vt, ok := value.(Pointer)
		return ok && Compatible(pt.Elem, vt.Elem)
	case Array:
		vt, ok := value.(Array)
		return ok && vt.Count == pt.Count && Compatible(pt.Elem, vt.Elem)
	}
	return false
}

// ParserFor returns the sub-parser for arguments of type t.
func (p *Program) ParserFor(t TypeExpr) ParserKind {
	if inst, ok := t.(Instance); ok {
		if typ := p.Type(inst.Type); typ != nil {
			return typ.Parser
		}
	}
	return ParseExpression
}

// TypeName returns a readable representation of a type expression.
func (p *Program) TypeName(t TypeExpr) string {
	var b strings.Builder
	p.writeType(&b, t)
	return b.String()
}

func (p *Program) writeType(b *strings.Builder, t TypeExpr) {
	switch tt := t.(type) {
	case nil:
		b.WriteString("<none>")
	case Auto:
		b.WriteString("auto")
	case Instance:
		if typ := p.Type(tt.Type); typ != nil {
			b.WriteString(typ.Name)
		} else {
			b.WriteString("<invalid>")
		}
	case Pointer:
		b.WriteByte('*')
		p.writeType(b, tt.Elem)
	case Array:
		fmt.Fprintf(b, "[%d]", tt.Count)
		p.writeType(b, tt.Elem)
	}
}
