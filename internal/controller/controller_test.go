package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lotas/tabkorb/internal/storage"
	"github.com/lotas/tabkorb/internal/store"
	"github.com/lotas/tabkorb/internal/tabs"
	"github.com/lotas/tabkorb/internal/types"
)

func testController(t *testing.T, seed ...types.Tab) (*Controller, *tabs.Fake, *storage.Gateway) {
	t.Helper()
	fake := tabs.NewFake(seed...)
	gateway := storage.NewGateway(storage.NewMemoryArea())
	c := New(store.New(), fake, gateway, nil)
	return c, fake, gateway
}

// runEvents starts the controller loop and returns a stop function that
// waits for it to exit.
func runEvents(t *testing.T, c *Controller) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// waitFor polls until check passes or the deadline expires.
func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStartupAssignsUncategorized(t *testing.T) {
	ctx := context.Background()
	c, _, gateway := testController(t,
		types.Tab{ID: 1, URL: "https://a.com"},
		types.Tab{ID: 2, URL: "https://b.com"},
	)

	c.Start(ctx)

	s := c.Store().State()
	if s.Loading {
		t.Error("loading flag not cleared")
	}
	if len(s.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(s.Tabs))
	}
	for _, url := range []string{"https://a.com", "https://b.com"} {
		if s.Assignments[url] != types.Uncategorized {
			t.Errorf("expected %s uncategorized, got %q", url, s.Assignments[url])
		}
		catID, ok, err := gateway.Assignment(ctx, url)
		if err != nil || !ok || catID != types.Uncategorized {
			t.Errorf("expected persisted assignment for %s, got %q ok=%v err=%v", url, catID, ok, err)
		}
	}
}

func TestStartupKeepsExistingAssignments(t *testing.T) {
	ctx := context.Background()
	c, _, gateway := testController(t, types.Tab{ID: 1, URL: "https://a.com"})
	if err := gateway.SetAssignment(ctx, "https://a.com", "work"); err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}

	c.Start(ctx)

	if got := c.Store().State().Assignments["https://a.com"]; got != "work" {
		t.Errorf("startup overwrote stored assignment: %q", got)
	}
}

func TestStartupFailureClearsLoading(t *testing.T) {
	c, fake, _ := testController(t)
	fake.ListErr = errors.New("extension unreachable")

	c.Start(context.Background())

	if c.Store().State().Loading {
		t.Error("loading flag must clear even when startup fails")
	}
}

func TestCategorySurvivesCloseAndReopen(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := testController(t, types.Tab{ID: 5, URL: "https://a.com"})
	c.Start(ctx)
	stop := runEvents(t, c)
	defer stop()

	if err := c.MoveTabToCategory(ctx, 5, "work"); err != nil {
		t.Fatalf("MoveTabToCategory: %v", err)
	}

	// Close tab 5, then open the same URL under a fresh id.
	fake.Emit(tabs.Removed{TabID: 5, WindowID: 1})
	waitFor(t, func() bool { return len(c.Store().State().Tabs) == 0 })

	fake.Emit(tabs.Created{Tab: types.Tab{ID: 99, URL: "https://a.com"}})
	waitFor(t, func() bool { return len(c.Store().State().Tabs) == 1 })

	grouped := c.GroupedTabs()
	if len(grouped["work"]) != 1 || grouped["work"][0].ID != 99 {
		t.Errorf("expected tab 99 under work, got %v", grouped["work"])
	}
}

func TestCreatedTabWithoutAssignmentPersistsUncategorized(t *testing.T) {
	ctx := context.Background()
	c, fake, gateway := testController(t)
	c.Start(ctx)
	stop := runEvents(t, c)
	defer stop()

	fake.Emit(tabs.Created{Tab: types.Tab{ID: 7, URL: "https://new.com"}})
	waitFor(t, func() bool {
		catID, ok, _ := gateway.Assignment(ctx, "https://new.com")
		return ok && catID == types.Uncategorized
	})
}

func TestActivatedEventSingleActive(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := testController(t,
		types.Tab{ID: 1, URL: "https://a.com", Active: true},
		types.Tab{ID: 2, URL: "https://b.com"},
	)
	c.Start(ctx)
	stop := runEvents(t, c)
	defer stop()

	fake.Emit(tabs.Activated{TabID: 2, WindowID: 1})
	waitFor(t, func() bool {
		for _, tab := range c.Store().State().Tabs {
			if tab.ID == 2 && tab.Active {
				return true
			}
		}
		return false
	})
	for _, tab := range c.Store().State().Tabs {
		if tab.ID != 2 && tab.Active {
			t.Errorf("tab %d still active", tab.ID)
		}
	}
}

func TestUpdatedEventReplacesTab(t *testing.T) {
	ctx := context.Background()
	c, fake, _ := testController(t, types.Tab{ID: 1, URL: "https://a.com", Title: "Old"})
	c.Start(ctx)
	stop := runEvents(t, c)
	defer stop()

	fake.Emit(tabs.Updated{TabID: 1, Tab: types.Tab{ID: 1, URL: "https://a.com", Title: "New"}})
	waitFor(t, func() bool {
		s := c.Store().State()
		return len(s.Tabs) == 1 && s.Tabs[0].Title == "New"
	})
}

func TestDeleteCategoryAtomicReassignment(t *testing.T) {
	ctx := context.Background()
	c, _, gateway := testController(t, types.Tab{ID: 1, URL: "https://a.com"})
	c.Start(ctx)

	created, err := c.CreateCategory(ctx, "Projects")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if err := c.MoveTabToCategory(ctx, 1, created.ID); err != nil {
		t.Fatalf("MoveTabToCategory: %v", err)
	}

	if err := c.DeleteCategory(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	// In-memory: no dangling references.
	s := c.Store().State()
	for _, cat := range s.Categories {
		if cat.ID == created.ID {
			t.Error("category still in state")
		}
	}
	if s.Assignments["https://a.com"] != types.Uncategorized {
		t.Errorf("expected in-memory reassignment, got %q", s.Assignments["https://a.com"])
	}

	// Persisted: one blob, fully consistent.
	data, err := gateway.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, cat := range data.Categories {
		if cat.ID == created.ID {
			t.Error("category still persisted")
		}
	}
	for _, id := range data.CategoryOrder {
		if id == created.ID {
			t.Error("category still in persisted order")
		}
	}
	for _, a := range data.Assignments {
		if a.CategoryID == created.ID {
			t.Errorf("dangling persisted assignment: %+v", a)
		}
	}
}

func TestDeleteDefaultCategoryRefused(t *testing.T) {
	ctx := context.Background()
	c, _, _ := testController(t)
	c.Start(ctx)

	if err := c.DeleteCategory(ctx, types.Uncategorized); err == nil {
		t.Error("expected refusal to delete uncategorized")
	}
	s := c.Store().State()
	found := false
	for _, id := range s.CategoryOrder {
		if id == types.Uncategorized {
			found = true
		}
	}
	if !found {
		t.Error("uncategorized missing from order")
	}
}

func TestCreateCategoryAppearsInOrder(t *testing.T) {
	ctx := context.Background()
	c, _, gateway := testController(t)
	c.Start(ctx)

	created, err := c.CreateCategory(ctx, "  Projects  ")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if created.Name != "Projects" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}

	data, err := gateway.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.CategoryOrder[len(data.CategoryOrder)-1] != created.ID {
		t.Errorf("expected %s at end of persisted order", created.ID)
	}
}

func TestRenameCategory(t *testing.T) {
	ctx := context.Background()
	c, _, gateway := testController(t)
	c.Start(ctx)

	if err := c.RenameCategory(ctx, "work", "Deep Work"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	data, err := gateway.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, cat := range data.Categories {
		if cat.ID == "work" && cat.Name != "Deep Work" {
			t.Errorf("rename not persisted: %q", cat.Name)
		}
	}
	if err := c.RenameCategory(ctx, "ghost", "X"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestStorageChangeTriggersReload(t *testing.T) {
	ctx := context.Background()
	area := storage.NewMemoryArea()
	gateway := storage.NewGateway(area)
	c := New(store.New(), tabs.NewFake(), gateway, nil)
	c.Start(ctx)
	stop := runEvents(t, c)
	defer stop()
	// Give the loop a moment to register its change subscription.
	time.Sleep(20 * time.Millisecond)

	// Simulate another surface writing through its own gateway over the
	// same area.
	other := storage.NewGateway(area)
	if err := other.SetAssignment(ctx, "https://elsewhere.com", "work"); err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}

	waitFor(t, func() bool {
		return c.Store().State().Assignments["https://elsewhere.com"] == "work"
	})
}

func TestMoveTabPersistFailureNotRolledBack(t *testing.T) {
	ctx := context.Background()
	area := storage.NewMemoryArea()
	gateway := storage.NewGateway(area)
	fake := tabs.NewFake(types.Tab{ID: 1, URL: "https://a.com"})
	c := New(store.New(), fake, gateway, nil)
	c.retryOpts.MaxAttempts = 2
	c.retryOpts.Delay = time.Millisecond
	c.Start(ctx)

	area.SetErr = errors.New("disk full")
	area.FailSets = 10

	err := c.MoveTabToCategory(ctx, 1, "work")
	if err == nil {
		t.Fatal("expected persistence error")
	}
	// Optimistic update stays applied.
	if got := c.Store().State().Assignments["https://a.com"]; got != "work" {
		t.Errorf("optimistic state rolled back to %q", got)
	}
}

func TestConnectedEventResyncsTabs(t *testing.T) {
	c, fake, _ := testController(t, types.Tab{ID: 1, URL: "https://a.com"})
	fake.SetListErr(errors.New("extension unreachable"))

	// Startup runs before the host attaches: blob loads, tab list fails.
	c.Start(context.Background())
	if got := len(c.Store().State().Tabs); got != 0 {
		t.Fatalf("expected no tabs before attach, got %d", got)
	}

	stop := runEvents(t, c)
	defer stop()

	fake.SetListErr(nil)
	fake.Emit(tabs.Connected{})

	waitFor(t, func() bool {
		s := c.Store().State()
		return len(s.Tabs) == 1 && s.Assignments["https://a.com"] == types.Uncategorized
	})
}
