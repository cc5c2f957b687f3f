// Package resource provides reference-counted caches that own shared
// resources such as meshes and textures. Nodes hold plain pointers; the
// cache destroys a resource when its last holder releases it.
package resource

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/logger"
)

var (
	// ErrUnknown is returned when releasing or retaining a key the cache does not hold.
	ErrUnknown = errors.New("unknown resource")
	// ErrInUse is returned when replacing a value that still has holders.
	ErrInUse = errors.New("resource still in use")
)

// DestroyFunc frees a resource once nothing references it.
type DestroyFunc[T any] func(key string, value T)

type entry[T any] struct {
	value T
	refs  int
}

// Cache owns values of type T keyed by name.
type Cache[T any] struct {
	kind    string
	entries map[string]*entry[T]
	destroy DestroyFunc[T]
}

// NewCache creates an empty cache. kind names the resource type in logs.
func NewCache[T any](kind string, destroy DestroyFunc[T]) *Cache[T] {
	return &Cache[T]{
		kind:    kind,
		entries: make(map[string]*entry[T]),
		destroy: destroy,
	}
}

// Acquire returns the cached value for key, creating it on first use, and
// takes one reference.
func (c *Cache[T]) Acquire(key string, create func() (T, error)) (T, error) {
	if e, ok := c.entries[key]; ok {
		e.refs++
		return e.value, nil
	}
	v, err := create()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("creating %s %q: %w", c.kind, key, err)
	}
	c.entries[key] = &entry[T]{value: v, refs: 1}
	logger.Debug("resource created", zap.String("kind", c.kind), zap.String("key", key))
	return v, nil
}

// Put stores an already built value with one reference. A key that is
// still held cannot be replaced; release it first.
func (c *Cache[T]) Put(key string, v T) error {
	if old, ok := c.entries[key]; ok {
		return fmt.Errorf("%w: %s %q has %d holders", ErrInUse, c.kind, key, old.refs)
	}
	c.entries[key] = &entry[T]{value: v, refs: 1}
	logger.Debug("resource stored", zap.String("kind", c.kind), zap.String("key", key))
	return nil
}

// Get returns the value without taking a reference.
func (c *Cache[T]) Get(key string) (T, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Retain takes an additional reference on key.
func (c *Cache[T]) Retain(key string) error {
	e, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknown, c.kind, key)
	}
	e.refs++
	return nil
}

// Release drops one reference and destroys the value when none remain.
func (c *Cache[T]) Release(key string) error {
	e, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknown, c.kind, key)
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(c.entries, key)
	if c.destroy != nil {
		c.destroy(key, e.value)
	}
	logger.Debug("resource destroyed", zap.String("kind", c.kind), zap.String("key", key))
	return nil
}

// RefCount returns the number of holders of key, zero if absent.
func (c *Cache[T]) RefCount(key string) int {
	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of cached values.
func (c *Cache[T]) Len() int { return len(c.entries) }

// Keys returns the cached keys in sorted order.
func (c *Cache[T]) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear destroys every value regardless of reference counts.
func (c *Cache[T]) Clear() {
	for _, k := range c.Keys() {
		e := c.entries[k]
		delete(c.entries, k)
		if c.destroy != nil {
			c.destroy(k, e.value)
		}
	}
}
