package exec

import (
	"fmt"

	"github.com/npillmayer/rebuild/arena"
	"github.com/npillmayer/rebuild/ast"
)

// Frame is a memory frame, mapping the parameters and variables of a call or
// block to their storage. Frames link to a parent frame, which is searched
// for entries not found locally.
type Frame struct {
	Name   string
	Parent *Frame
	params map[ast.ParameterID]arena.Addr
	vars   map[ast.VariableID]arena.Addr
}

// NewFrame creates a new memory frame.
func NewFrame(nm string, parent *Frame) *Frame {
	return &Frame{
		Name:   nm,
		Parent: parent,
		params: make(map[ast.ParameterID]arena.Addr),
		vars:   make(map[ast.VariableID]arena.Addr),
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("<mem %s: %d params, %d vars>", f.Name, len(f.params), len(f.vars))
}

// BindParameter records the address of a parameter.
func (f *Frame) BindParameter(pid ast.ParameterID, addr arena.Addr) {
	f.params[pid] = addr
}

// BindVariable records the address of a variable.
func (f *Frame) BindVariable(vid ast.VariableID, addr arena.Addr) {
	f.vars[vid] = addr
}

// Parameter finds the address of a parameter, searching parent frames.
func (f *Frame) Parameter(pid ast.ParameterID) (arena.Addr, bool) {
	for fr := f; fr != nil; fr = fr.Parent {
		if addr, ok := fr.params[pid]; ok {
			return addr, true
		}
	}
	return arena.NoAddr, false
}

// Variable finds the address of a variable, searching parent frames.
func (f *Frame) Variable(vid ast.VariableID) (arena.Addr, bool) {
	for fr := f; fr != nil; fr = fr.Parent {
		if addr, ok := fr.vars[vid]; ok {
			return addr, true
		}
	}
	return arena.NoAddr, false
}
