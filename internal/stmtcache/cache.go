// Package stmtcache keeps a bounded, LRU-ordered set of prepared-statement
// handles keyed by final (rewritten) SQL text. Each cache belongs to exactly
// one connection and is protected only by that connection's single-threaded
// use contract.
//
// Ownership is strict: a handle lives either in the cache or with the
// cursor using it, never both. Get transfers the handle out; Put transfers
// it back in (or finalizes it when caching is disabled). Every handle the
// cache lets go of has been reset and had its bindings cleared, so the next
// holder starts clean.
package stmtcache

import (
	"container/list"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

type entry struct {
	sql  string
	stmt native.Stmt
}

// Cache is the per-connection statement cache. Capacity 0 disables caching:
// Put finalizes instead of storing, Get always misses.
type Cache struct {
	eng      native.Engine
	capacity int

	ll    *list.List // front = MRU, back = LRU
	index map[string]*list.Element

	hits   int
	misses int
}

// New creates a cache bound to eng with the given capacity.
func New(eng native.Engine, capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		eng:      eng,
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Get removes and returns the handle cached for sql. Ownership transfers to
// the caller, who re-inserts it at MRU position through Put when done.
func (c *Cache) Get(sql string) (native.Stmt, bool) {
	el, ok := c.index[sql]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.Remove(el)
	delete(c.index, sql)
	return el.Value.(*entry).stmt, true
}

// Put returns a handle to the cache under sql. The handle is reset and its
// bindings cleared before it is stored. An existing entry for the same sql
// is replaced, finalizing the displaced handle; if the insert pushes the
// cache over capacity, the LRU entry is finalized and evicted.
func (c *Cache) Put(sql string, stmt native.Stmt) {
	if stmt == nil {
		return
	}

	c.eng.Reset(stmt)
	c.eng.ClearBindings(stmt)

	if c.capacity == 0 {
		c.eng.Finalize(stmt)
		return
	}

	if el, ok := c.index[sql]; ok {
		c.ll.Remove(el)
		delete(c.index, sql)
		c.eng.Finalize(el.Value.(*entry).stmt)
	}

	c.index[sql] = c.ll.PushFront(&entry{sql: sql, stmt: stmt})

	for c.ll.Len() > c.capacity {
		lru := c.ll.Back()
		c.ll.Remove(lru)
		e := lru.Value.(*entry)
		delete(c.index, e.sql)
		c.eng.Finalize(e.stmt)
	}
}

// Flush finalizes every cached handle and empties the cache.
func (c *Cache) Flush() {
	for el := c.ll.Front(); el != nil; el = el.Next() {
		c.eng.Finalize(el.Value.(*entry).stmt)
	}
	c.ll.Init()
	c.index = make(map[string]*list.Element)
}

// Len returns the number of cached handles.
func (c *Cache) Len() int { return c.ll.Len() }

// Capacity returns the configured bound.
func (c *Cache) Capacity() int { return c.capacity }

// Hits returns the lifetime hit count.
func (c *Cache) Hits() int { return c.hits }

// Misses returns the lifetime miss count.
func (c *Cache) Misses() int { return c.misses }
