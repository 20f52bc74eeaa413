package tabs

import (
	"context"
	"fmt"
	"sync"

	"github.com/lotas/tabkorb/internal/types"
)

// Fake is an in-process Gateway for tests. Commands mutate its tab list
// directly; Emit pushes events the way the host browser would.
type Fake struct {
	mu     sync.Mutex
	tabs   []types.Tab
	nextID int
	events chan Event

	// ListErr, when set, makes List fail. Used to exercise startup
	// failure handling.
	ListErr error
}

// NewFake creates a Fake seeded with the given tabs.
func NewFake(seed ...types.Tab) *Fake {
	f := &Fake{
		events: make(chan Event, 64),
		nextID: 1000,
	}
	f.tabs = append(f.tabs, seed...)
	for _, t := range seed {
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
	}
	return f
}

func (f *Fake) List(context.Context) ([]types.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]types.Tab, len(f.tabs))
	copy(out, f.tabs)
	return out, nil
}

func (f *Fake) SwitchTo(_ context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.tabs {
		f.tabs[i].Active = f.tabs[i].ID == tabID
		if f.tabs[i].ID == tabID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("tab %d not found", tabID)
	}
	return nil
}

func (f *Fake) Close(_ context.Context, tabID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tabs {
		if t.ID == tabID {
			f.tabs = append(f.tabs[:i], f.tabs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("tab %d not found", tabID)
}

func (f *Fake) Pin(_ context.Context, tabID int, pinned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tabs {
		if t.ID == tabID {
			f.tabs[i].Pinned = pinned
			return nil
		}
	}
	return fmt.Errorf("tab %d not found", tabID)
}

func (f *Fake) Create(_ context.Context, url string) (types.Tab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tab := types.Tab{
		ID:    f.nextID,
		URL:   url,
		Title: url,
		Index: len(f.tabs),
	}
	f.nextID++
	f.tabs = append(f.tabs, tab)
	return tab, nil
}

func (f *Fake) Events() <-chan Event {
	return f.events
}

// Emit delivers an event to the gateway's consumer.
func (f *Fake) Emit(e Event) {
	f.events <- e
}

// SetListErr sets or clears the injected List failure.
func (f *Fake) SetListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListErr = err
}
