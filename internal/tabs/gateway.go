// Package tabs is the façade over the host browser's tab manipulation and
// event capability. The Bridge implementation talks to a browser extension
// over a local WebSocket; Fake is the in-process test double.
package tabs

import (
	"context"

	"github.com/lotas/tabkorb/internal/types"
)

// Gateway exposes tab control and the tab event feed. The core never
// invents tab state on its own; everything flows through here.
type Gateway interface {
	// List returns the canonical tab records for the current window.
	List(ctx context.Context) ([]types.Tab, error)
	// SwitchTo makes the given tab active.
	SwitchTo(ctx context.Context, tabID int) error
	// Close removes the tab from the host.
	Close(ctx context.Context, tabID int) error
	// Pin sets the tab's pinned state.
	Pin(ctx context.Context, tabID int, pinned bool) error
	// Create opens a new tab and returns its record.
	Create(ctx context.Context, url string) (types.Tab, error)
	// Events returns the tab lifecycle notification feed.
	Events() <-chan Event
}

// Event is a tab lifecycle notification from the host browser.
type Event interface {
	isEvent()
}

// Created reports a newly opened tab.
type Created struct{ Tab types.Tab }

// Removed reports a closed tab. Only the id and window survive.
type Removed struct {
	TabID    int
	WindowID int
}

// Updated reports a changed tab. The host only emits this when title, url,
// favicon or pinned state actually changed.
type Updated struct {
	TabID int
	Tab   types.Tab
}

// Activated reports the tab that became active.
type Activated struct {
	TabID    int
	WindowID int
}

// Connected reports that a host attached. Consumers should re-list tabs,
// since any event sent before the attach is lost.
type Connected struct{}

func (Created) isEvent()   {}
func (Removed) isEvent()   {}
func (Updated) isEvent()   {}
func (Activated) isEvent() {}
func (Connected) isEvent() {}
