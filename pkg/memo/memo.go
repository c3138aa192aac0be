// Package memo provides identity-keyed memoization.
//
// A memoized function computes its result at most once for any given ordered
// tuple of argument identities and returns the stored result on every later
// call with the same tuple. Pointer arguments are keyed by reference
// identity, never by value: two structurally equal but separately allocated
// objects are distinct keys. Value arguments are keyed by equality of the
// value itself, so equal primitives always reach the same cache branch.
//
// # Reclamation
//
// Pointer keys are held through weak references. A cache built against
// short-lived objects never pins those objects in memory: once an argument
// object becomes unreachable everywhere else, the runtime reclaims it and a
// cleanup prunes the cache branch stored beneath it. Entries are never
// deleted explicitly and the cache needs no manual invalidation, so it is
// safe to share for the whole process lifetime.
//
// # Concurrency
//
// Callers are expected to invoke a memoized function from a single
// goroutine, typically an event loop. The cache still guards its internal
// maps with a mutex because reclamation cleanups run on the runtime's
// cleanup goroutine. Concurrent calls with the same tuple may duplicate the
// computation but never corrupt the cache.
//
// # Usage
//
// Fixed-arity helpers cover the common shapes:
//
//	sprite := memo.Ref2(func(s *Snapshot, n *Node) Sprite { ... })
//	a := sprite(snap, node) // computes
//	b := sprite(snap, node) // cached, a == b
//
// Mixed pointer/value tuples go through Do with explicit keys:
//
//	v, err := memo.Do(cache, []memo.Key{memo.ByRef(snap), memo.ByVal(scale)},
//	    func() (Plan, error) { return build(snap, scale) })
package memo

import (
	"runtime"
	"sync"
	"weak"
)

// Key identifies one argument position of a memoized call.
// Build keys with [ByRef] for pointer arguments and [ByVal] for comparable
// value arguments. The zero Key is not usable.
type Key struct {
	ref      any
	register func(c *Cache, lv *level, ref any)
}

// ByRef returns a Key that identifies p by reference.
// The cache holds p weakly: the key alone never keeps the object alive, and
// the branch beneath it is pruned once the object is reclaimed. A nil
// pointer is a valid, stable key, distinct per pointer type.
func ByRef[T any](p *T) Key {
	return Key{
		ref: weak.Make(p),
		register: func(c *Cache, lv *level, ref any) {
			if p == nil {
				return
			}
			runtime.AddCleanup(p, func(t pruneTarget) { t.c.prune(t.lv, t.ref) },
				pruneTarget{c: c, lv: lv, ref: ref})
		},
	}
}

// ByVal returns a Key that identifies v by value equality.
// Values cannot be held weakly, so the entry is retained for the lifetime of
// the branch it lives on. Equal values always resolve to the same branch.
func ByVal[T comparable](v T) Key {
	return Key{ref: valueKey{v: v}}
}

// valueKey wraps a value so it can never collide with a weak reference key
// for the same map level.
type valueKey struct{ v any }

// pruneTarget carries the data a reclamation cleanup needs. It must not
// reference the key object itself, or the object would never be collected.
type pruneTarget struct {
	c   *Cache
	lv  *level
	ref any
}

// level is one link in a cache entry chain: one map level per argument
// position, terminating in a stored result. A level can hold a terminal
// result and children at the same time, so call tuples that extend a shorter
// tuple occupy distinct entries.
type level struct {
	children map[any]*level
	result   any
	done     bool
}

func (lv *level) child(ref any) (*level, bool) {
	c, ok := lv.children[ref]
	return c, ok
}

func (lv *level) ensureChild(ref any) (*level, bool) {
	if c, ok := lv.children[ref]; ok {
		return c, false
	}
	if lv.children == nil {
		lv.children = make(map[any]*level)
	}
	c := &level{}
	lv.children[ref] = c
	return c, true
}

// Cache stores memoized results keyed by argument identity chains.
// The zero value is ready to use. A single Cache may serve call tuples of
// any length; tuples of different lengths occupy distinct branches.
type Cache struct {
	mu   sync.Mutex
	root level
}

// NewCache returns an empty cache.
// Useful when a cache is shared across several call sites; the fixed-arity
// helpers allocate their own.
func NewCache() *Cache { return &Cache{} }

// prune removes one entry after its weak key was reclaimed. The subtree
// beneath the entry becomes unreachable with it.
func (c *Cache) prune(lv *level, ref any) {
	c.mu.Lock()
	delete(lv.children, ref)
	c.mu.Unlock()
}

// lookup walks the chain for keys and reports the stored result, if any.
func (c *Cache) lookup(keys []Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lv := &c.root
	for _, k := range keys {
		next, ok := lv.child(k.ref)
		if !ok {
			return nil, false
		}
		lv = next
	}
	if !lv.done {
		return nil, false
	}
	return lv.result, true
}

// store walks the chain for keys, creating levels as needed, and records
// result at the terminal level. Cleanups are registered only for newly
// created weak-keyed entries.
func (c *Cache) store(keys []Key, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lv := &c.root
	for _, k := range keys {
		next, created := lv.ensureChild(k.ref)
		if created && k.register != nil {
			k.register(c, lv, k.ref)
		}
		lv = next
	}
	lv.result = result
	lv.done = true
}

// Do returns the memoized result for the tuple identified by keys, invoking
// compute at most once per tuple. An error from compute propagates to the
// caller unmodified and nothing is stored, so an identical retry invokes
// compute again. The lock is not held while compute runs, which keeps
// nested memoized calls safe.
func Do[R any](c *Cache, keys []Key, compute func() (R, error)) (R, error) {
	if v, ok := c.lookup(keys); ok {
		return v.(R), nil
	}
	v, err := compute()
	if err != nil {
		var zero R
		return zero, err
	}
	c.store(keys, v)
	return v, nil
}

// Get is Do for computations that cannot fail.
func Get[R any](c *Cache, keys []Key, compute func() R) R {
	v, _ := Do(c, keys, func() (R, error) { return compute(), nil })
	return v
}
