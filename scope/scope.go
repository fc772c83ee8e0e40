/*
Package scope implements scopes holding symbol declarations.

A scope maps names to entries and links to a parent scope, forming a tree.
Functions may be declared any number of times under the same name
(overloading); every other kind of entry is unique per name within one scope
level. Entries are never removed or rebound.

Lookup walks from a scope outward through its parents. Qualified names
("a.b.c") resolve their first segment this way, then descend into module
entries.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/rebuild/ast"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.scope'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.scope")
}

// Lookup errors.
var (
	ErrNotFound      = errors.New("name not found")
	ErrNotAModule    = errors.New("not a module")
	ErrWrongKind     = errors.New("wrong kind of entry")
	ErrDuplicateName = errors.New("duplicate declaration")
)

// DuplicateNameError is returned when declaring a name which is already
// declared at the same scope level.
type DuplicateNameError struct {
	Name     string
	Existing Entry
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s: %q already declared as %s", ErrDuplicateName, e.Name, KindOf(e.Existing))
}

// Unwrap makes errors.Is(err, ErrDuplicateName) hold.
func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

// Scope is a named scope, which may contain symbol declarations. Scopes link
// back to a parent scope, forming a tree. Child scopes never outlive their
// parent.
type Scope struct {
	Name    string
	Parent  *Scope
	entries *linkedhashmap.Map // name -> []Entry, in declaration order
}

// NewScope creates a new scope.
func NewScope(nm string, parent *Scope) *Scope {
	return &Scope{
		Name:    nm,
		Parent:  parent,
		entries: linkedhashmap.New(),
	}
}

func (s *Scope) String() string {
	return fmt.Sprintf("<scope %s>", s.Name)
}

// Declare inserts an entry. Functions always succeed. Other kinds of entries
// fail with a *DuplicateNameError if the name is already declared at this
// level.
func (s *Scope) Declare(e Entry) (Entry, error) {
	name := e.EntryName()
	if name == "" {
		panic("attempt to declare entry without name")
	}
	existing := s.local(name)
	if len(existing) > 0 {
		_, isFn := e.(Function)
		_, wasFn := existing[0].(Function)
		if !isFn || !wasFn {
			return nil, &DuplicateNameError{Name: name, Existing: existing[0]}
		}
	}
	s.entries.Put(name, append(existing, e))
	tracer().P("scope", s.Name).Debugf("declared %s", e)
	return e, nil
}

func (s *Scope) local(name string) []Entry {
	if v, found := s.entries.Get(name); found {
		return v.([]Entry)
	}
	return nil
}

// Size counts the names declared in a scope, ignoring parent scopes.
func (s *Scope) Size() int {
	return s.entries.Size()
}

// Each calls mapper for all names of a scope, in declaration order.
func (s *Scope) Each(mapper func(string, []Entry)) {
	s.entries.Each(func(k, v interface{}) {
		mapper(k.(string), v.([]Entry))
	})
}

// LookupRange finds all entries for a name. The search stops at the innermost
// scope level declaring the name. Qualified names descend into modules.
func (s *Scope) LookupRange(name string) ([]Entry, error) {
	segments := strings.Split(name, ".")
	entries, _ := s.resolve(segments[0])
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, segments[0])
	}
	for i := 1; i < len(segments); i++ {
		mod, ok := entries[0].(*Module)
		if !ok {
			return nil, fmt.Errorf("%w: %q is a %s", ErrNotAModule,
				strings.Join(segments[:i], "."), KindOf(entries[0]))
		}
		entries = mod.Scope.local(segments[i])
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, strings.Join(segments[:i+1], "."))
		}
	}
	return entries, nil
}

// Lookup finds an entry for a name. For overloaded functions it returns the
// first declaration.
func (s *Scope) Lookup(name string) (Entry, error) {
	entries, err := s.LookupRange(name)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// resolve searches a simple name in s and its parents. It returns the entries
// and the scope they were found in.
func (s *Scope) resolve(name string) ([]Entry, *Scope) {
	for sc := s; sc != nil; sc = sc.Parent {
		if entries := sc.local(name); len(entries) > 0 {
			return entries, sc
		}
	}
	return nil, nil
}

// Functions returns the overload set for a name, or nil if the name does not
// denote functions.
func (s *Scope) Functions(name string) []ast.FunctionID {
	entries, err := s.LookupRange(name)
	if err != nil {
		return nil
	}
	var fns []ast.FunctionID
	for _, e := range entries {
		if fn, ok := e.(Function); ok {
			fns = append(fns, fn.ID)
		}
	}
	return fns
}

// Lookup finds an entry of kind T. If a Type is requested and the name denotes
// a module, the module's nested entry "type" is taken instead: a module may
// wrap its type.
func Lookup[T Entry](s *Scope, name string) (T, error) {
	var zero T
	e, err := s.Lookup(name)
	if err != nil {
		return zero, err
	}
	if t, ok := e.(T); ok {
		return t, nil
	}
	if mod, ok := e.(*Module); ok {
		if _, wantType := any(zero).(Type); wantType {
			if inner := mod.Scope.local("type"); len(inner) > 0 {
				if t, ok := inner[0].(T); ok {
					return t, nil
				}
			}
		}
	}
	return zero, fmt.Errorf("%w: %q is a %s", ErrWrongKind, name, KindOf(e))
}

// ---------------------------------------------------------------------------

// Tree can be treated as a stack during parsing, thus building a tree from
// scopes which are pushed and popped to/from the stack. Scopes created
// elsewhere may be entered as well, which makes them the parent of the
// following pushes.
type Tree struct {
	stack *arraystack.Stack
}

// NewTree creates a scope stack with root as its bottommost scope. root may
// be nil, leaving the stack empty.
func NewTree(root *Scope) *Tree {
	t := &Tree{stack: arraystack.New()}
	if root != nil {
		t.stack.Push(root)
	}
	return t
}

// Depth returns the number of scopes on the stack.
func (t *Tree) Depth() int {
	return t.stack.Size()
}

// Current gets the current scope of a stack (TOS).
func (t *Tree) Current() *Scope {
	tos, ok := t.stack.Peek()
	if !ok {
		panic("attempt to access scope from empty stack")
	}
	return tos.(*Scope)
}

// Globals gets the outermost scope the current scope descends from.
func (t *Tree) Globals() *Scope {
	sc := t.Current()
	for sc.Parent != nil {
		sc = sc.Parent
	}
	return sc
}

// Enter pushes an existing scope.
func (t *Tree) Enter(sc *Scope) *Scope {
	t.stack.Push(sc)
	tracer().P("scope", sc.Name).Debugf("entering scope")
	return sc
}

// PushNewScope pushes a new child scope of the current scope.
func (t *Tree) PushNewScope(nm string) *Scope {
	var parent *Scope
	if t.stack.Size() > 0 {
		parent = t.Current()
	}
	sc := NewScope(nm, parent)
	t.stack.Push(sc)
	tracer().P("scope", nm).Debugf("pushing new scope")
	return sc
}

// PopScope pops the top-most (recent) scope.
func (t *Tree) PopScope() *Scope {
	tos, ok := t.stack.Pop()
	if !ok {
		panic("attempt to pop scope from empty stack")
	}
	sc := tos.(*Scope)
	tracer().Debugf("popping scope [%s]", sc.Name)
	return sc
}
