package arena

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestLIFO(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "rebuild.arena")
	defer teardown()
	//
	s := New(256)
	sizes := []uint32{8, 16, 4, 0, 32}
	var regions []Region
	for _, size := range sizes {
		regions = append(regions, s.Allocate(size))
	}
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			a, b := regions[i], regions[j]
			if a.Size > 0 && b.Size > 0 && a.Base < b.End() && b.Base < a.End() {
				t.Errorf("regions %d and %d overlap", i, j)
			}
		}
	}
	if s.Used() != 60 {
		t.Errorf("expected 60 bytes in use, have %d", s.Used())
	}
	for i := len(regions) - 1; i >= 0; i-- {
		regions[i].Release()
	}
	if s.Used() != 0 {
		t.Errorf("expected stack to be empty after releases, have %d bytes used", s.Used())
	}
}

func TestExhaustion(t *testing.T) {
	s := New(16)
	s.Allocate(8)
	defer func() {
		if recover() == nil {
			t.Error("expected allocation of all remaining bytes to panic")
		}
	}()
	s.Allocate(8) // used+size must stay below capacity
}

func TestReleaseOutOfOrder(t *testing.T) {
	s := New(64)
	a := s.Allocate(8)
	s.Allocate(8)
	defer func() {
		if recover() == nil {
			t.Error("expected out of order release to panic")
		}
	}()
	a.Release()
}

func TestAllocateZeroes(t *testing.T) {
	s := New(64)
	r := s.Allocate(8)
	s.StoreUint64(r.Base, 0xdeadbeef)
	r.Release()
	r = s.Allocate(8)
	if s.LoadUint64(r.Base) != 0 {
		t.Error("expected re-allocated region to be zeroed")
	}
}

func TestAddresses(t *testing.T) {
	s := New(64)
	r := s.Allocate(16)
	s.StoreAddr(r.Base, 12)
	s.StoreAddr(r.Base+8, NoAddr)
	if s.LoadAddr(r.Base) != 12 || s.LoadAddr(r.Base+8) != NoAddr {
		t.Error("addresses do not survive a store/load cycle")
	}
	if !r.Contains(r.Base+8, 8) || r.Contains(r.Base+12, 8) {
		t.Error("region bounds check is wrong")
	}
}
