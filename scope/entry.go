package scope

import (
	"fmt"

	"github.com/npillmayer/rebuild/ast"
)

// Entry is a declaration stored in a scope. It is one of Function, Variable,
// Parameter, Type or *Module.
type Entry interface {
	EntryName() string
	isEntry()
}

// Function declares a function. Several functions may share a name.
type Function struct {
	Name string
	ID   ast.FunctionID
}

// Variable declares a local variable.
type Variable struct {
	Name string
	ID   ast.VariableID
}

// Parameter makes a parameter visible within a function body.
type Parameter struct {
	Name string
	ID   ast.ParameterID
}

// Type declares a type.
type Type struct {
	Name string
	ID   ast.TypeID
}

// Module is a named nested scope. Qualified names resolve through modules.
type Module struct {
	Name  string
	Scope *Scope
}

// NewModule creates a module with an empty scope. The module's scope is not
// linked to a parent: qualified lookups never leave the module.
func NewModule(name string) *Module {
	return &Module{Name: name, Scope: NewScope(name, nil)}
}

func (e Function) EntryName() string  { return e.Name }
func (e Variable) EntryName() string  { return e.Name }
func (e Parameter) EntryName() string { return e.Name }
func (e Type) EntryName() string      { return e.Name }
func (e *Module) EntryName() string   { return e.Name }

func (Function) isEntry()  {}
func (Variable) isEntry()  {}
func (Parameter) isEntry() {}
func (Type) isEntry()      {}
func (*Module) isEntry()   {}

func (e Function) String() string  { return fmt.Sprintf("<func %s #%d>", e.Name, e.ID) }
func (e Variable) String() string  { return fmt.Sprintf("<var %s #%d>", e.Name, e.ID) }
func (e Parameter) String() string { return fmt.Sprintf("<param %s #%d>", e.Name, e.ID) }
func (e Type) String() string      { return fmt.Sprintf("<type %s #%d>", e.Name, e.ID) }
func (e *Module) String() string   { return fmt.Sprintf("<module %s>", e.Name) }

// KindOf returns a short name for the kind of an entry, for messages.
func KindOf(e Entry) string {
	switch e.(type) {
	case Function:
		return "function"
	case Variable:
		return "variable"
	case Parameter:
		return "parameter"
	case Type:
		return "type"
	case *Module:
		return "module"
	}
	return "entry"
}
