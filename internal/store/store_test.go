package store

import (
	"testing"

	"github.com/lotas/tabkorb/internal/types"
)

func TestSetActiveTabSingleActive(t *testing.T) {
	state := Initial()
	state = Reduce(state, SetTabs{Tabs: []types.Tab{
		{ID: 1, Active: true},
		{ID: 2, Active: true},
		{ID: 3},
	}})

	state = Reduce(state, SetActiveTab{TabID: 3})

	active := 0
	for _, tab := range state.Tabs {
		if tab.Active {
			active++
			if tab.ID != 3 {
				t.Errorf("expected tab 3 active, got tab %d", tab.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("expected exactly 1 active tab, got %d", active)
	}
}

func TestRemoveTabKeepsAssignment(t *testing.T) {
	state := Initial()
	state = Reduce(state, SetTabs{Tabs: []types.Tab{{ID: 5, URL: "https://a.com"}}})
	state = Reduce(state, SetAssignment{URL: "https://a.com", CategoryID: "work"})

	state = Reduce(state, RemoveTab{TabID: 5})

	if len(state.Tabs) != 0 {
		t.Fatalf("expected 0 tabs, got %d", len(state.Tabs))
	}
	if got := state.Assignments["https://a.com"]; got != "work" {
		t.Errorf("assignment should survive tab removal, got %q", got)
	}
}

func TestAddCategoryAppendsToOrder(t *testing.T) {
	state := Initial()
	before := len(state.CategoryOrder)

	state = Reduce(state, AddCategory{Category: types.Category{ID: "c1", Name: "Projects"}})

	if len(state.CategoryOrder) != before+1 {
		t.Fatalf("expected order length %d, got %d", before+1, len(state.CategoryOrder))
	}
	if state.CategoryOrder[len(state.CategoryOrder)-1] != "c1" {
		t.Errorf("expected c1 at end of order, got %v", state.CategoryOrder)
	}
}

func TestDeleteCategoryReassignsAndStripsOrder(t *testing.T) {
	state := Initial()
	state = Reduce(state, AddCategory{Category: types.Category{ID: "c1", Name: "Projects"}})
	state = Reduce(state, SetAssignment{URL: "https://a.com", CategoryID: "c1"})
	state = Reduce(state, SetAssignment{URL: "https://b.com", CategoryID: "work"})

	state = Reduce(state, DeleteCategory{CategoryID: "c1"})

	for _, c := range state.Categories {
		if c.ID == "c1" {
			t.Error("deleted category still in category set")
		}
	}
	for _, id := range state.CategoryOrder {
		if id == "c1" {
			t.Error("deleted category still in category order")
		}
	}
	if got := state.Assignments["https://a.com"]; got != types.Uncategorized {
		t.Errorf("expected reassignment to uncategorized, got %q", got)
	}
	if got := state.Assignments["https://b.com"]; got != "work" {
		t.Errorf("unrelated assignment changed to %q", got)
	}
}

func TestCategoryOrderStaysPermutation(t *testing.T) {
	state := Initial()
	state = Reduce(state, AddCategory{Category: types.Category{ID: "c1", Name: "One"}})
	state = Reduce(state, AddCategory{Category: types.Category{ID: "c2", Name: "Two"}})
	state = Reduce(state, DeleteCategory{CategoryID: "c1"})

	ids := make(map[string]bool, len(state.Categories))
	for _, c := range state.Categories {
		ids[c.ID] = true
	}
	if len(state.CategoryOrder) != len(state.Categories) {
		t.Fatalf("order has %d entries for %d categories", len(state.CategoryOrder), len(state.Categories))
	}
	seen := make(map[string]bool)
	for _, id := range state.CategoryOrder {
		if !ids[id] {
			t.Errorf("order references unknown category %q", id)
		}
		if seen[id] {
			t.Errorf("order contains %q twice", id)
		}
		seen[id] = true
	}
	if !seen[types.Uncategorized] {
		t.Error("uncategorized missing from category order")
	}
}

func TestLoadStorageSubstitutesDefaults(t *testing.T) {
	state := Initial()
	state.Categories = nil
	state.CategoryOrder = nil

	state = Reduce(state, LoadStorage{Data: types.StorageData{}})

	if len(state.Categories) != len(types.DefaultCategories()) {
		t.Errorf("expected default categories, got %d", len(state.Categories))
	}
	if len(state.CategoryOrder) != len(types.DefaultCategoryOrder()) {
		t.Errorf("expected default order, got %v", state.CategoryOrder)
	}
}

func TestLoadStorageKeepsTabs(t *testing.T) {
	state := Initial()
	state = Reduce(state, SetTabs{Tabs: []types.Tab{{ID: 1, URL: "https://a.com"}}})

	data := types.StorageData{
		Categories:    types.DefaultCategories(),
		CategoryOrder: types.DefaultCategoryOrder(),
		Assignments:   []types.Assignment{{URL: "https://a.com", CategoryID: "work"}},
		TabOrder:      map[string][]int{"work": {1}},
	}
	state = Reduce(state, LoadStorage{Data: data})

	if len(state.Tabs) != 1 {
		t.Errorf("bulk load must not touch tabs, got %d", len(state.Tabs))
	}
	if state.Assignments["https://a.com"] != "work" {
		t.Errorf("assignments not loaded: %v", state.Assignments)
	}
	if len(state.TabOrder["work"]) != 1 {
		t.Errorf("tab order not loaded: %v", state.TabOrder)
	}
}

func TestReduceDoesNotMutatePrevious(t *testing.T) {
	state := Initial()
	state = Reduce(state, SetTabs{Tabs: []types.Tab{{ID: 1, Active: true}, {ID: 2}}})
	state = Reduce(state, SetAssignment{URL: "https://a.com", CategoryID: "work"})

	next := Reduce(state, SetActiveTab{TabID: 2})
	next = Reduce(next, SetAssignment{URL: "https://a.com", CategoryID: "ai"})
	next = Reduce(next, SetTabOrder{CategoryID: "work", TabIDs: []int{2, 1}})

	if !state.Tabs[0].Active {
		t.Error("previous snapshot's tab list was mutated")
	}
	if state.Assignments["https://a.com"] != "work" {
		t.Error("previous snapshot's assignments were mutated")
	}
	if len(state.TabOrder) != 0 {
		t.Error("previous snapshot's tab order was mutated")
	}
}

func TestDispatchOrderAndSubscribe(t *testing.T) {
	s := New()
	var seen []int
	unsub := s.Subscribe(func(st State) {
		seen = append(seen, len(st.Tabs))
	})

	s.Dispatch(AddTab{Tab: types.Tab{ID: 1}})
	s.Dispatch(AddTab{Tab: types.Tab{ID: 2}})
	unsub()
	s.Dispatch(AddTab{Tab: types.Tab{ID: 3}})

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("unexpected subscription sequence: %v", seen)
	}
	if len(s.State().Tabs) != 3 {
		t.Errorf("expected 3 tabs, got %d", len(s.State().Tabs))
	}
}
