// Package storage implements the persistence layer: a key-value Area
// abstraction standing in for the browser's storage backend, and a typed
// Gateway that reads and writes the single serialized blob under one
// well-known key.
package storage

import (
	"context"
	"sync"
)

// Area is a key-value storage area with change notification. Get returns
// ok=false for absent keys. Subscribe delivers a callback after every Set
// of the given key, including the subscriber's own writes; the returned
// function removes the subscription.
type Area interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Subscribe(key string, fn func()) (unsubscribe func())
}

// MemoryArea is an in-process Area used by tests and fakes.
type MemoryArea struct {
	mu     sync.Mutex
	values map[string][]byte
	subs   map[string]map[int]func()
	nextID int

	// FailSets, when positive, makes that many subsequent Set calls fail.
	// Used to exercise retry and error paths.
	FailSets int
	SetErr   error
}

// NewMemoryArea creates an empty in-memory area.
func NewMemoryArea() *MemoryArea {
	return &MemoryArea{
		values: make(map[string][]byte),
		subs:   make(map[string]map[int]func()),
	}
}

func (a *MemoryArea) Get(_ context.Context, key string) ([]byte, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (a *MemoryArea) Set(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	if a.FailSets > 0 {
		a.FailSets--
		err := a.SetErr
		a.mu.Unlock()
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	a.values[key] = stored
	var fns []func()
	for _, fn := range a.subs[key] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (a *MemoryArea) Subscribe(key string, fn func()) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.subs[key] == nil {
		a.subs[key] = make(map[int]func())
	}
	id := a.nextID
	a.nextID++
	a.subs[key][id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs[key], id)
	}
}
