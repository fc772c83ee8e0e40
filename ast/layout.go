package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// Fixed sizes of the memory model, in bytes.
const (
	PointerSize         = 8  // addresses and literal handles
	SplatDescriptorSize = 16 // {base, count} of a splatted parameter's values
)

// Layout maps slots to offsets within a frame. Offsets are parallel to the
// parameter list of a function or to the locals of a block, respectively.
// Slots are packed without padding.
type Layout struct {
	Offsets []uint32
	Size    uint32
}

// TypeSize returns the static size of values of type t. Unresolved types have
// size 0.
func (p *Program) TypeSize(t TypeExpr) uint32 {
	switch tt := t.(type) {
	case Instance:
		if typ := p.Type(tt.Type); typ != nil {
			return typ.Size
		}
	case Pointer:
		return PointerSize
	case Array:
		return mulSize(p.TypeSize(tt.Elem), tt.Count)
	}
	return 0
}

// ParameterSize returns the size of a parameter's slot within an argument
// frame. Splatted parameters occupy a descriptor, assignable parameters an
// address.
func (p *Program) ParameterSize(pid ParameterID) uint32 {
	par := p.Parameter(pid)
	switch {
	case par == nil:
		return 0
	case par.Has(Splatted):
		return SplatDescriptorSize
	case par.Has(Assignable):
		return PointerSize
	}
	return p.TypeSize(par.Type)
}

// ArgumentsLayout computes the argument frame of a function. Splatted values
// are not part of it; they are stored in a tail allocated per call.
func (p *Program) ArgumentsLayout(id FunctionID) Layout {
	fn := p.Function(id)
	if fn == nil {
		return Layout{}
	}
	var l Layout
	l.Offsets = make([]uint32, len(fn.Params))
	for i, pid := range fn.Params {
		l.Offsets[i] = l.Size
		l.Size = addSize(l.Size, p.ParameterSize(pid))
	}
	return l
}

// Offset returns the offset of parameter pid within the argument frame of
// its function.
func (p *Program) Offset(pid ParameterID) (uint32, bool) {
	par := p.Parameter(pid)
	if par == nil {
		return 0, false
	}
	fn := p.Function(par.Function)
	l := p.ArgumentsLayout(par.Function)
	for i, id := range fn.Params {
		if id == pid {
			return l.Offsets[i], true
		}
	}
	return 0, false
}

// LocalsLayout computes the frame of the variables declared directly within
// a block. Variables created for a parameter share the parameter's storage
// and occupy no space.
func (p *Program) LocalsLayout(b *Block) Layout {
	var l Layout
	l.Offsets = make([]uint32, len(b.Locals))
	for i, vid := range b.Locals {
		l.Offsets[i] = l.Size
		v := p.Variable(vid)
		if v == nil || v.Parameter.IsValid() {
			continue
		}
		l.Size = addSize(l.Size, p.TypeSize(v.Type))
	}
	return l
}

// LayoutKnown is a predicate: are the slot sizes of all parameters of a
// function statically known?
func (p *Program) LayoutKnown(id FunctionID) bool {
	fn := p.Function(id)
	if fn == nil {
		return false
	}
	for _, pid := range fn.Params {
		par := p.Parameter(pid)
		if par.Has(Assignable) {
			continue
		}
		if !resolved(par.Type) {
			return false
		}
	}
	return true
}

func resolved(t TypeExpr) bool {
	switch tt := t.(type) {
	case Instance:
		return tt.Type.IsValid()
	case Pointer:
		return resolved(tt.Elem)
	case Array:
		return resolved(tt.Elem)
	}
	return false
}

func addSize(a, b uint32) uint32 {
	s, err := safecast.Conv[uint32](uint64(a) + uint64(b))
	if err != nil {
		panic(fmt.Errorf("frame size overflow: %w", err))
	}
	return s
}

func mulSize(a, b uint32) uint32 {
	s, err := safecast.Conv[uint32](uint64(a) * uint64(b))
	if err != nil {
		panic(fmt.Errorf("array size overflow: %w", err))
	}
	return s
}
