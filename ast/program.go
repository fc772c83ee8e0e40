/*
Package ast holds the program model shared by the resolver, the parser and the
execution machine.

A Program owns arenas for functions, parameters, variables, types and literals.
Everything else refers to these by handle (FunctionID, ParameterID, …). Index 0
of every arena is reserved, so the zero handle is invalid. Entities live as
long as the program; nothing is ever removed.

Syntax nodes form a closed sum type (interface Node) and reference program
entities by handle, never by pointer.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ast

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/npillmayer/rebuild"
	"github.com/npillmayer/rebuild/token"
)

// FunctionID is a handle for a function of a program.
type FunctionID uint32

// ParameterID is a handle for a parameter of a function.
type ParameterID uint32

// VariableID is a handle for a local variable.
type VariableID uint32

// TypeID is a handle for a type.
type TypeID uint32

// LiteralID is a handle for an immutable literal value.
type LiteralID uint32

// IsValid is a predicate: does id denote a function?
func (id FunctionID) IsValid() bool { return id != 0 }

// IsValid is a predicate: does id denote a parameter?
func (id ParameterID) IsValid() bool { return id != 0 }

// IsValid is a predicate: does id denote a variable?
func (id VariableID) IsValid() bool { return id != 0 }

// IsValid is a predicate: does id denote a type?
func (id TypeID) IsValid() bool { return id != 0 }

// IsValid is a predicate: does id denote a literal?
func (id LiteralID) IsValid() bool { return id != 0 }

// Program owns all functions, parameters, variables, types and literals of a
// compilation unit.
type Program struct {
	functions    []*Function
	parameters   []*Parameter
	variables    []*Variable
	types        []*Type
	literals     []*Literal
	literalTypes [literalKindCount]TypeID
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{ // index 0 reserved for invalid handles
		functions:  make([]*Function, 1, 64),
		parameters: make([]*Parameter, 1, 128),
		variables:  make([]*Variable, 1, 64),
		types:      make([]*Type, 1, 16),
		literals:   make([]*Literal, 1, 128),
	}
}

func nextID[T ~uint32](n int, arena string) T {
	value, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", arena, err))
	}
	return T(value)
}

// DeclareFunction adds a function together with its parameters. Parameters
// are put into canonical order afterwards (see ReorderParameters). The
// function's Params field is overwritten.
func (p *Program) DeclareFunction(fn Function, params ...Parameter) FunctionID {
	id := nextID[FunctionID](len(p.functions), "functions")
	f := fn
	f.Params = make([]ParameterID, 0, len(params))
	p.functions = append(p.functions, &f)
	for i := range params {
		par := params[i]
		par.Function = id
		pid := nextID[ParameterID](len(p.parameters), "parameters")
		p.parameters = append(p.parameters, &par)
		f.Params = append(f.Params, pid)
	}
	p.ReorderParameters(id)
	return id
}

// Function returns the function for id, or nil for an invalid handle.
func (p *Program) Function(id FunctionID) *Function {
	if !id.IsValid() || int(id) >= len(p.functions) {
		return nil
	}
	return p.functions[id]
}

// Parameter returns the parameter for id, or nil for an invalid handle.
func (p *Program) Parameter(id ParameterID) *Parameter {
	if !id.IsValid() || int(id) >= len(p.parameters) {
		return nil
	}
	return p.parameters[id]
}

// DeclareVariable adds a variable.
func (p *Program) DeclareVariable(v Variable) VariableID {
	id := nextID[VariableID](len(p.variables), "variables")
	p.variables = append(p.variables, &v)
	return id
}

// Variable returns the variable for id, or nil for an invalid handle.
func (p *Program) Variable(id VariableID) *Variable {
	if !id.IsValid() || int(id) >= len(p.variables) {
		return nil
	}
	return p.variables[id]
}

// DeclareType adds a type.
func (p *Program) DeclareType(t Type) TypeID {
	id := nextID[TypeID](len(p.types), "types")
	p.types = append(p.types, &t)
	return id
}

// Type returns the type for id, or nil for an invalid handle.
func (p *Program) Type(id TypeID) *Type {
	if !id.IsValid() || int(id) >= len(p.types) {
		return nil
	}
	return p.types[id]
}

// --- Literals --------------------------------------------------------------

// LiteralKind tags the variant of a literal.
type LiteralKind uint8

// Kinds of literals.
const (
	IdentifierLit LiteralKind = iota
	NumberLit
	StringLit
	BlockLit
	TypeLit
	TupleLit
	literalKindCount
)

func (k LiteralKind) String() string {
	switch k {
	case IdentifierLit:
		return "identifier"
	case NumberLit:
		return "number"
	case StringLit:
		return "string"
	case BlockLit:
		return "block"
	case TypeLit:
		return "type"
	case TupleLit:
		return "tuple"
	}
	return "literal?"
}

// Literal is immutable compile-time data. Only the field matching Kind is set:
// Text for identifiers, numbers and strings, Block for block literals, Type for
// type literals and Tuple for value tuples.
type Literal struct {
	Kind  LiteralKind
	Text  string
	Block *token.BlockLiteral
	Type  TypeExpr
	Tuple []TupleEntry
	Span  rebuild.Span
}

// TupleEntry is one element of a value tuple: `name :Type = value`, each part
// being optional.
type TupleEntry struct {
	Name  string
	Type  TypeExpr
	Value Node
	Span  rebuild.Span
}

// AddLiteral adds a literal.
func (p *Program) AddLiteral(l Literal) LiteralID {
	id := nextID[LiteralID](len(p.literals), "literals")
	p.literals = append(p.literals, &l)
	return id
}

// Literal returns the literal for id, or nil for an invalid handle.
func (p *Program) Literal(id LiteralID) *Literal {
	if !id.IsValid() || int(id) >= len(p.literals) {
		return nil
	}
	return p.literals[id]
}

// LiteralCount returns the number of literals added so far.
func (p *Program) LiteralCount() int {
	return len(p.literals) - 1
}

// SetLiteralType sets the type of all literals of a kind. Literal types are
// provided by the prelude.
func (p *Program) SetLiteralType(kind LiteralKind, t TypeID) {
	p.literalTypes[kind] = t
}

// LiteralType returns the type of literals of a kind. The type is invalid if
// it has not been set.
func (p *Program) LiteralType(kind LiteralKind) TypeID {
	return p.literalTypes[kind]
}

// IsLiteralType is a predicate: is t the type of a kind of literal?
func (p *Program) IsLiteralType(t TypeExpr) bool {
	inst, ok := t.(Instance)
	if !ok {
		return false
	}
	for _, lt := range p.literalTypes {
		if lt.IsValid() && lt == inst.Type {
			return true
		}
	}
	return false
}
