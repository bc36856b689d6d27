// Package container implements a generic ordered collection used throughout
// v4pipe wherever code needs to add, remove, browse, or walk a set of
// elements under a single caller-held lock: the pipeline registry's set of
// pipelines, and a pipeline's set of registered listeners.
//
// The shape mirrors a doubly-indirected callback list rather than a plain
// Go slice on purpose: callers plug in a Compare function to identify an
// element by some opaque key, a Release function to dispose of an element
// being removed, and a Browse function to visit every element while the
// container's lock is held. That last part is the reason this type exists
// at all instead of `[]T` behind a `sync.Mutex`: pipeline frame delivery
// walks the listener container with the lock held for the whole walk, so a
// listener can never observe a frame out of order or see the set mutate
// mid-delivery.
//
// Container does not lock itself around Add/Remove/RemoveAll/NbElements/
// GetElement/BrowseElements — only Lock/Unlock touch the mutex. Callers
// bracket every access with Lock()/Unlock(), the same way the C list this
// type is modeled on leaves locking entirely to its caller. This is what
// lets a consumer take the lock once and run several operations (a walk
// plus a removal, say) as one atomic step.
package container

import "sync"

// CompareFunc reports whether element matches key. It is used by Remove to
// locate the element to drop.
type CompareFunc[T any] func(element T, key any) bool

// ReleaseFunc disposes of an element that Remove or RemoveAll is dropping.
// It may be nil if elements need no cleanup.
type ReleaseFunc[T any] func(element T)

// BrowseFunc is invoked once per element, in insertion order, by
// BrowseElements. It may be nil if the container is never browsed.
type BrowseFunc[T any] func(element T, userData any)

// Params configures a Container at construction time.
type Params[T any] struct {
	Compare CompareFunc[T]
	Release ReleaseFunc[T]
	Browse  BrowseFunc[T]
}

type node[T any] struct {
	element T
	next    *node[T]
}

// Container is an unlocked-by-default, caller-synchronized singly linked
// ordered collection of T. The zero value is not usable; construct with New.
type Container[T any] struct {
	params Params[T]

	mu      sync.Mutex
	head    *node[T]
	tail    *node[T]
	current *node[T]
	started bool
	count   uint32
}

// New builds an empty Container using the given callbacks.
func New[T any](params Params[T]) *Container[T] {
	return &Container[T]{params: params}
}

// Lock acquires the container's mutex and resets the GetElement cursor to
// the head. It returns the unlock function to defer. Every other method on
// Container assumes the caller holds this lock; Lock/Unlock is the only
// pair that manages it.
func (c *Container[T]) Lock() func() {
	c.mu.Lock()
	c.current = nil
	c.started = false
	return c.mu.Unlock
}

// Add appends element to the end of the container. Caller must hold Lock.
func (c *Container[T]) Add(element T) {
	n := &node[T]{element: element}
	if c.tail == nil {
		c.head = n
		c.tail = n
	} else {
		c.tail.next = n
		c.tail = n
	}
	c.count++
}

// Remove drops the first element for which Compare(element, key) is true,
// invoking Release on it if configured. It reports whether an element was
// found and removed. Caller must hold Lock.
func (c *Container[T]) Remove(key any) bool {
	if c.head == nil || c.params.Compare == nil {
		return false
	}

	var prev *node[T]
	for cur := c.head; cur != nil; cur = cur.next {
		if c.params.Compare(cur.element, key) {
			if prev == nil {
				c.head = cur.next
			} else {
				prev.next = cur.next
			}
			if cur == c.tail {
				c.tail = prev
			}
			if c.params.Release != nil {
				c.params.Release(cur.element)
			}
			c.count--
			return true
		}
		prev = cur
	}
	return false
}

// RemoveAll drops every element, invoking Release on each if configured.
// Caller must hold Lock.
func (c *Container[T]) RemoveAll() {
	for cur := c.head; cur != nil; {
		next := cur.next
		if c.params.Release != nil {
			c.params.Release(cur.element)
		}
		cur = next
	}
	c.head = nil
	c.tail = nil
	c.current = nil
	c.count = 0
}

// NbElements returns the current element count. Caller must hold Lock.
func (c *Container[T]) NbElements() uint32 {
	return c.count
}

// GetElement returns the element at the internal cursor and advances the
// cursor to the next one, starting at the head the first time it's called
// after a Lock. ok is false once the cursor runs off the end, and stays
// false (the cursor does not advance or wrap) until the next Lock. Caller
// must hold Lock.
func (c *Container[T]) GetElement() (element T, ok bool) {
	if !c.started {
		c.current = c.head
		c.started = true
	}
	if c.current == nil {
		return element, false
	}
	element = c.current.element
	c.current = c.current.next
	return element, true
}

// BrowseElements invokes Browse for every element, in insertion order.
// userData is passed through unchanged to each Browse call. Caller must
// hold Lock.
func (c *Container[T]) BrowseElements(userData any) {
	if c.params.Browse == nil {
		return
	}
	for cur := c.head; cur != nil; cur = cur.next {
		c.params.Browse(cur.element, userData)
	}
}
