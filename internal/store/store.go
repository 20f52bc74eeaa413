// Package store holds the single source of truth for UI-relevant state.
// State is only ever changed through declared actions applied by a pure
// reducer; every transition returns a fresh snapshot and never mutates the
// previous one.
package store

import (
	"sync"

	"github.com/lotas/tabkorb/internal/types"
)

// View selects what the dashboard shows: either all categories or one.
type View struct {
	CategoryID string // empty means the aggregate "all" view
}

// AllView is the aggregate view over every category.
var AllView = View{}

// State is an immutable snapshot of application state.
type State struct {
	Loading       bool
	Tabs          []types.Tab
	Categories    []types.Category
	Assignments   map[string]string // url -> categoryID
	TabOrder      map[string][]int  // categoryID -> ordered tab ids
	CategoryOrder []string
	View          View
	SearchQuery   string
}

// Initial returns the state before any storage has been loaded.
func Initial() State {
	return State{
		Loading:       true,
		Categories:    types.DefaultCategories(),
		Assignments:   map[string]string{},
		TabOrder:      map[string][]int{},
		CategoryOrder: types.DefaultCategoryOrder(),
		View:          AllView,
	}
}

// Store serializes dispatches and fans out resulting snapshots to
// subscribers. Dispatches are applied strictly in call order.
type Store struct {
	mu    sync.Mutex
	state State
	subs  []func(State)
}

// New creates a Store holding the initial state.
func New() *Store {
	return &Store{state: Initial()}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an action and notifies subscribers with the new state.
// Subscribers run on the dispatching goroutine, still under the dispatch
// order guarantee.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to be called after every dispatch. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	i := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i < len(s.subs) {
			s.subs[i] = func(State) {}
		}
	}
}

// Reduce applies an action to a state snapshot and returns the next one.
// It is pure and total: unknown payloads degrade to a consistent no-op or
// to a dangling reference the renderers filter out, never to a panic.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetLoading:
		state.Loading = a.Loading

	case SetTabs:
		state.Tabs = a.Tabs

	case AddTab:
		state.Tabs = append(cloneTabs(state.Tabs), a.Tab)

	case RemoveTab:
		tabs := make([]types.Tab, 0, len(state.Tabs))
		for _, t := range state.Tabs {
			if t.ID != a.TabID {
				tabs = append(tabs, t)
			}
		}
		state.Tabs = tabs

	case UpdateTab:
		tabs := cloneTabs(state.Tabs)
		for i, t := range tabs {
			if t.ID == a.TabID {
				tabs[i] = a.Tab
			}
		}
		state.Tabs = tabs

	case SetActiveTab:
		tabs := cloneTabs(state.Tabs)
		for i := range tabs {
			tabs[i].Active = tabs[i].ID == a.TabID
		}
		state.Tabs = tabs

	case SetCategories:
		state.Categories = a.Categories

	case AddCategory:
		state.Categories = append(cloneCategories(state.Categories), a.Category)
		state.CategoryOrder = append(cloneStrings(state.CategoryOrder), a.Category.ID)

	case UpdateCategory:
		cats := cloneCategories(state.Categories)
		for i, c := range cats {
			if c.ID == a.Category.ID {
				cats[i] = a.Category
			}
		}
		state.Categories = cats

	case DeleteCategory:
		cats := make([]types.Category, 0, len(state.Categories))
		for _, c := range state.Categories {
			if c.ID != a.CategoryID {
				cats = append(cats, c)
			}
		}
		order := make([]string, 0, len(state.CategoryOrder))
		for _, id := range state.CategoryOrder {
			if id != a.CategoryID {
				order = append(order, id)
			}
		}
		// Assignments are URL-keyed; everything pointing at the deleted
		// category moves to uncategorized in the same transition.
		assignments := make(map[string]string, len(state.Assignments))
		for url, catID := range state.Assignments {
			if catID == a.CategoryID {
				catID = types.Uncategorized
			}
			assignments[url] = catID
		}
		state.Categories = cats
		state.CategoryOrder = order
		state.Assignments = assignments

	case ReorderCategories:
		state.CategoryOrder = a.CategoryIDs

	case SetAssignments:
		state.Assignments = a.Assignments

	case SetAssignment:
		assignments := cloneAssignments(state.Assignments)
		assignments[a.URL] = a.CategoryID
		state.Assignments = assignments

	case RemoveAssignment:
		assignments := cloneAssignments(state.Assignments)
		delete(assignments, a.URL)
		state.Assignments = assignments

	case SetTabOrder:
		order := make(map[string][]int, len(state.TabOrder)+1)
		for k, v := range state.TabOrder {
			order[k] = v
		}
		order[a.CategoryID] = a.TabIDs
		state.TabOrder = order

	case SetView:
		state.View = a.View

	case SetSearchQuery:
		state.SearchQuery = a.Query

	case LoadStorage:
		cats := a.Data.Categories
		order := a.Data.CategoryOrder
		if len(cats) == 0 {
			cats = types.DefaultCategories()
		}
		if len(order) == 0 {
			order = types.DefaultCategoryOrder()
		}
		assignments := make(map[string]string, len(a.Data.Assignments))
		for _, as := range a.Data.Assignments {
			assignments[as.URL] = as.CategoryID
		}
		tabOrder := make(map[string][]int, len(a.Data.TabOrder))
		for k, v := range a.Data.TabOrder {
			tabOrder[k] = v
		}
		state.Categories = cats
		state.CategoryOrder = order
		state.Assignments = assignments
		state.TabOrder = tabOrder
	}

	return state
}

func cloneTabs(tabs []types.Tab) []types.Tab {
	out := make([]types.Tab, len(tabs))
	copy(out, tabs)
	return out
}

func cloneCategories(cats []types.Category) []types.Category {
	out := make([]types.Category, len(cats))
	copy(out, cats)
	return out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneAssignments(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
