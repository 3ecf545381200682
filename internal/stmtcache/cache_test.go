package stmtcache

import (
	"testing"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

// fakeEngine records the lifecycle calls the cache makes. Only the methods
// the cache touches are implemented; the embedded nil interface satisfies
// the rest.
type fakeEngine struct {
	native.Engine

	resets    []native.Stmt
	clears    []native.Stmt
	finalized []native.Stmt
}

func (f *fakeEngine) Reset(s native.Stmt)         { f.resets = append(f.resets, s) }
func (f *fakeEngine) ClearBindings(s native.Stmt) { f.clears = append(f.clears, s) }
func (f *fakeEngine) Finalize(s native.Stmt)      { f.finalized = append(f.finalized, s) }

type handle struct{ id int }

func TestGetTransfersOwnership(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)
	h := &handle{1}

	c.Put("SELECT 1", h)
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}

	got, ok := c.Get("SELECT 1")
	if !ok || got != h {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Get = %d, want 0; handle must leave the cache", c.Len())
	}
	// The handle was not finalized; the caller owns it now.
	if len(eng.finalized) != 0 {
		t.Errorf("finalized = %v, want none", eng.finalized)
	}
}

func TestPutResetsAndClears(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)
	h := &handle{1}

	c.Put("SELECT 1", h)
	if len(eng.resets) != 1 || eng.resets[0] != h {
		t.Errorf("resets = %v", eng.resets)
	}
	if len(eng.clears) != 1 || eng.clears[0] != h {
		t.Errorf("clears = %v", eng.clears)
	}
}

func TestLRUEviction(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 2)
	a, b, d := &handle{1}, &handle{2}, &handle{3}

	c.Put("A", a)
	c.Put("B", b)
	c.Put("D", d) // evicts A, the least recently inserted
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if len(eng.finalized) != 1 || eng.finalized[0] != a {
		t.Fatalf("finalized = %v, want [A]", eng.finalized)
	}
	if _, ok := c.Get("A"); ok {
		t.Error("evicted entry still retrievable")
	}
	if _, ok := c.Get("B"); !ok {
		t.Error("B missing")
	}
	if _, ok := c.Get("D"); !ok {
		t.Error("D missing")
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 2)
	a, b, d := &handle{1}, &handle{2}, &handle{3}

	c.Put("A", a)
	c.Put("B", b)

	// Cycle A through a cursor; it becomes most recently used.
	got, _ := c.Get("A")
	c.Put("A", got)

	c.Put("D", d) // now B is LRU
	if len(eng.finalized) != 1 || eng.finalized[0] != b {
		t.Fatalf("finalized = %v, want [B]", eng.finalized)
	}
}

func TestZeroCapacityFinalizesOnPut(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 0)
	h := &handle{1}

	c.Put("SELECT 1", h)
	if len(eng.finalized) != 1 || eng.finalized[0] != h {
		t.Fatalf("finalized = %v, want [h]", eng.finalized)
	}
	if _, ok := c.Get("SELECT 1"); ok {
		t.Error("zero-capacity cache returned a hit")
	}
}

func TestNegativeCapacityTreatedAsZero(t *testing.T) {
	c := New(&fakeEngine{}, -5)
	if c.Capacity() != 0 {
		t.Errorf("Capacity = %d, want 0", c.Capacity())
	}
}

func TestPutSameSQLFinalizesDisplaced(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)
	old, repl := &handle{1}, &handle{2}

	c.Put("SELECT 1", old)
	c.Put("SELECT 1", repl)
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if len(eng.finalized) != 1 || eng.finalized[0] != old {
		t.Fatalf("finalized = %v, want [old]", eng.finalized)
	}
	got, _ := c.Get("SELECT 1")
	if got != repl {
		t.Errorf("Get = %v, want replacement", got)
	}
}

func TestPutNilIsIgnored(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)
	c.Put("SELECT 1", nil)
	if c.Len() != 0 || len(eng.resets) != 0 {
		t.Error("nil handle was stored or touched")
	}
}

func TestFlush(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)
	a, b := &handle{1}, &handle{2}

	c.Put("A", a)
	c.Put("B", b)
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if len(eng.finalized) != 2 {
		t.Errorf("finalized %d handles, want 2", len(eng.finalized))
	}
	if _, ok := c.Get("A"); ok {
		t.Error("flushed entry still retrievable")
	}
}

func TestHitMissCounters(t *testing.T) {
	eng := &fakeEngine{}
	c := New(eng, 4)

	c.Get("A")
	c.Put("A", &handle{1})
	c.Get("A")
	if c.Hits() != 1 || c.Misses() != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", c.Hits(), c.Misses())
	}
}
