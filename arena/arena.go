/*
Package arena implements the stack allocator of the execution machine.

A Stack is a single pre-sized byte buffer. Regions are handed out by bumping a
watermark and must be released in strict LIFO order. The buffer is never
grown or moved, so addresses stay valid until their region is released.
Exhausting the stack or releasing out of order are programming errors and
panic.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package arena

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'rebuild.arena'.
func tracer() tracing.Trace {
	return tracing.Select("rebuild.arena")
}

// Addr is an address within a stack.
type Addr uint32

// NoAddr is the address of nothing.
const NoAddr = ^Addr(0)

// AddrSize is the number of bytes an address occupies when stored.
const AddrSize = 8

// Stack is a fixed-size LIFO arena.
type Stack struct {
	mem  []byte
	used uint32
	live *arraystack.Stack // of Region, innermost on top
}

// New creates a stack of a given capacity in bytes.
func New(capacity int) *Stack {
	if _, err := safecast.Conv[uint32](capacity); err != nil || capacity <= 0 {
		panic(fmt.Errorf("invalid stack capacity %d", capacity))
	}
	return &Stack{
		mem:  make([]byte, capacity),
		live: arraystack.New(),
	}
}

// Cap returns the capacity of the stack.
func (s *Stack) Cap() int {
	return len(s.mem)
}

// Used returns the number of bytes currently allocated.
func (s *Stack) Used() uint32 {
	return s.used
}

// Region is an allocated part of a stack.
type Region struct {
	stack *Stack
	Base  Addr
	Size  uint32
}

// Allocate bumps the watermark by size bytes and returns the region. The
// region is zeroed. Allocation fails (and panics) unless used+size stays
// below the capacity.
func (s *Stack) Allocate(size uint32) Region {
	total := uint64(len(s.mem))
	if uint64(s.used)+uint64(size) >= total {
		panic(fmt.Errorf("stack exhausted: %d bytes used, %d requested, capacity %d",
			s.used, size, total))
	}
	r := Region{stack: s, Base: Addr(s.used), Size: size}
	s.used += size
	clear(s.mem[r.Base:s.used])
	s.live.Push(r)
	tracer().Debugf("allocate %d bytes at %d", size, r.Base)
	return r
}

// Release frees a region. Regions must be released in reverse order of
// allocation.
func (r Region) Release() {
	s := r.stack
	top, ok := s.live.Pop()
	if !ok {
		panic("attempt to release region of empty stack")
	}
	if top.(Region).Base != r.Base || top.(Region).Size != r.Size {
		panic(fmt.Errorf("release out of order: region at %d, top of stack at %d",
			r.Base, top.(Region).Base))
	}
	if s.used < r.Size {
		panic(fmt.Errorf("release of %d bytes exceeds %d bytes used", r.Size, s.used))
	}
	s.used -= r.Size
	tracer().Debugf("release %d bytes at %d", r.Size, r.Base)
}

// End returns the address following the region.
func (r Region) End() Addr {
	return r.Base + Addr(r.Size)
}

// Contains is a predicate: does the region hold size bytes starting at addr?
func (r Region) Contains(addr Addr, size uint32) bool {
	return addr >= r.Base && uint64(addr)+uint64(size) <= uint64(r.End())
}

// Bytes returns size bytes starting at addr. The slice aliases the stack.
func (s *Stack) Bytes(addr Addr, size uint32) []byte {
	end := uint64(addr) + uint64(size)
	if addr == NoAddr || end > uint64(len(s.mem)) {
		panic(fmt.Errorf("access of %d bytes at %d out of range", size, addr))
	}
	return s.mem[addr:end:end]
}

// LoadAddr reads an address stored at addr.
func (s *Stack) LoadAddr(addr Addr) Addr {
	v := binary.LittleEndian.Uint64(s.Bytes(addr, AddrSize))
	if v == uint64(NoAddr) {
		return NoAddr
	}
	a, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("corrupt address at %d: %w", addr, err))
	}
	return Addr(a)
}

// StoreAddr writes address a at addr.
func (s *Stack) StoreAddr(addr Addr, a Addr) {
	binary.LittleEndian.PutUint64(s.Bytes(addr, AddrSize), uint64(a))
}

// LoadUint64 reads a 64-bit word at addr.
func (s *Stack) LoadUint64(addr Addr) uint64 {
	return binary.LittleEndian.Uint64(s.Bytes(addr, 8))
}

// StoreUint64 writes a 64-bit word at addr.
func (s *Stack) StoreUint64(addr Addr, v uint64) {
	binary.LittleEndian.PutUint64(s.Bytes(addr, 8), v)
}

// Copy copies size bytes from src to dst.
func (s *Stack) Copy(dst, src Addr, size uint32) {
	copy(s.Bytes(dst, size), s.Bytes(src, size))
}
