// Package controller glues the state store, the tab gateway and the
// persistence gateway together. It is the only component that talks to
// both gateways while dispatching into the store: startup loading, live
// event handling and user actions all funnel through here.
package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lotas/tabkorb/internal/applog"
	"github.com/lotas/tabkorb/internal/categorize"
	"github.com/lotas/tabkorb/internal/retry"
	"github.com/lotas/tabkorb/internal/storage"
	"github.com/lotas/tabkorb/internal/store"
	"github.com/lotas/tabkorb/internal/tabs"
	"github.com/lotas/tabkorb/internal/types"
)

// Controller sequences startup and live synchronization. All collaborators
// are injected; nothing here is a package-level singleton.
type Controller struct {
	store   *store.Store
	tabs    tabs.Gateway
	gateway *storage.Gateway
	engine  *categorize.Engine

	retryOpts retry.Options
}

// New wires a controller. The engine may be nil, in which case a
// manual-only engine is used.
func New(st *store.Store, tg tabs.Gateway, sg *storage.Gateway, engine *categorize.Engine) *Controller {
	if engine == nil {
		engine = categorize.NewEngine()
	}
	return &Controller{
		store:     st,
		tabs:      tg,
		gateway:   sg,
		engine:    engine,
		retryOpts: retry.DefaultOptions,
	}
}

// Store returns the state store for read access and subscriptions.
func (c *Controller) Store() *store.Store {
	return c.store
}

// Start runs the startup protocol: load the persisted blob, fetch the live
// tab list, assign uncategorized to every tab URL without a stored
// assignment, then clear the loading flag. Failures are logged and the
// loading flag is cleared regardless, so the UI never hangs on an
// initialization error.
func (c *Controller) Start(ctx context.Context) {
	defer c.store.Dispatch(store.SetLoading{Loading: false})

	data, err := c.gateway.Load(ctx)
	if err != nil {
		applog.Error("startup.load", err)
		return
	}
	c.store.Dispatch(store.LoadStorage{Data: data})

	c.syncTabs(ctx, data.Assignments)
}

// syncTabs replaces the in-memory tab set with the host's current list and
// assigns uncategorized (or a strategy decision) to every URL that has no
// stored assignment.
func (c *Controller) syncTabs(ctx context.Context, known []types.Assignment) {
	liveTabs, err := c.tabs.List(ctx)
	if err != nil {
		applog.Error("sync.tabs", err)
		return
	}
	c.store.Dispatch(store.SetTabs{Tabs: liveTabs})

	assigned := make(map[string]bool, len(known))
	for _, a := range known {
		assigned[a.URL] = true
	}
	for _, tab := range liveTabs {
		if assigned[tab.URL] {
			continue
		}
		assigned[tab.URL] = true
		catID := c.engine.Categorize(tab, c.store.State().Categories)
		c.store.Dispatch(store.SetAssignment{URL: tab.URL, CategoryID: catID})
		if err := c.gateway.SetAssignment(ctx, tab.URL, catID); err != nil {
			applog.Error("sync.assign", err, "url", tab.URL)
		}
	}
}

// Run consumes tab events and external storage change notifications until
// ctx is cancelled. Background failures are swallowed and logged.
func (c *Controller) Run(ctx context.Context) {
	reload := make(chan struct{}, 1)
	unsub := c.gateway.OnChanged(func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	})
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.tabs.Events():
			if !ok {
				return
			}
			c.handleTabEvent(ctx, event)
		case <-reload:
			// Another surface wrote the blob: full refresh, not a merge.
			data, err := c.gateway.Load(ctx)
			if err != nil {
				applog.Error("reload.load", err)
				continue
			}
			c.store.Dispatch(store.LoadStorage{Data: data})
		}
	}
}

func (c *Controller) handleTabEvent(ctx context.Context, event tabs.Event) {
	switch e := event.(type) {
	case tabs.Created:
		c.store.Dispatch(store.AddTab{Tab: e.Tab})
		// Read through the gateway, not just in-memory state: the URL may
		// have been assigned in a previous session or by another surface.
		catID, ok, err := c.gateway.Assignment(ctx, e.Tab.URL)
		if err != nil {
			applog.Error("event.created", err, "url", e.Tab.URL)
			return
		}
		if !ok {
			catID = c.engine.Categorize(e.Tab, c.store.State().Categories)
		}
		c.store.Dispatch(store.SetAssignment{URL: e.Tab.URL, CategoryID: catID})
		if !ok {
			if err := c.gateway.SetAssignment(ctx, e.Tab.URL, catID); err != nil {
				applog.Error("event.assign", err, "url", e.Tab.URL)
			}
		}

	case tabs.Removed:
		// Assignments survive so the category is restored when the same
		// URL is opened again.
		c.store.Dispatch(store.RemoveTab{TabID: e.TabID})

	case tabs.Updated:
		c.store.Dispatch(store.UpdateTab{TabID: e.TabID, Tab: e.Tab})

	case tabs.Activated:
		c.store.Dispatch(store.SetActiveTab{TabID: e.TabID})

	case tabs.Connected:
		// The host (re)attached; events sent while detached are gone, so
		// resync the whole tab list.
		data, err := c.gateway.Load(ctx)
		if err != nil {
			applog.Error("event.connected", err)
			return
		}
		c.syncTabs(ctx, data.Assignments)
	}
}

// persist runs a storage write with bounded retries.
func (c *Controller) persist(ctx context.Context, fn func() error) error {
	return retry.Do(ctx, c.retryOpts, fn)
}

// MoveTabToCategory reassigns the tab's URL. The in-memory state changes
// first; persistence failure is returned to the caller but never rolled
// back.
func (c *Controller) MoveTabToCategory(ctx context.Context, tabID int, categoryID string) error {
	var tab types.Tab
	found := false
	for _, t := range c.store.State().Tabs {
		if t.ID == tabID {
			tab = t
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("tab %d not found", tabID)
	}

	c.store.Dispatch(store.SetAssignment{URL: tab.URL, CategoryID: categoryID})
	if err := c.persist(ctx, func() error {
		return c.gateway.SetAssignment(ctx, tab.URL, categoryID)
	}); err != nil {
		return fmt.Errorf("persist assignment: %w", err)
	}
	// Remember the choice for future tabs on the same URL.
	if err := c.gateway.SetURLMemory(ctx, tab.URL, categoryID); err != nil {
		applog.Error("move.memory", err, "url", tab.URL)
	}
	return nil
}

// CreateCategory adds a category with a generated id and persists it.
func (c *Controller) CreateCategory(ctx context.Context, name string) (types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, fmt.Errorf("category name is empty")
	}

	category := types.Category{
		ID:    "category-" + uuid.NewString(),
		Name:  name,
		Order: len(c.store.State().Categories),
	}
	c.store.Dispatch(store.AddCategory{Category: category})

	if err := c.persist(ctx, func() error {
		return c.gateway.Update(ctx, func(data *types.StorageData) {
			data.Categories = append(data.Categories, category)
			data.CategoryOrder = append(data.CategoryOrder, category.ID)
		})
	}); err != nil {
		return category, fmt.Errorf("persist category: %w", err)
	}
	return category, nil
}

// RenameCategory updates a category's display name.
func (c *Controller) RenameCategory(ctx context.Context, categoryID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name is empty")
	}

	var category types.Category
	found := false
	for _, cat := range c.store.State().Categories {
		if cat.ID == categoryID {
			category = cat
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("category %q not found", categoryID)
	}

	category.Name = name
	c.store.Dispatch(store.UpdateCategory{Category: category})

	if err := c.persist(ctx, func() error {
		return c.gateway.Update(ctx, func(data *types.StorageData) {
			for i, cat := range data.Categories {
				if cat.ID == categoryID {
					data.Categories[i].Name = name
				}
			}
		})
	}); err != nil {
		return fmt.Errorf("persist rename: %w", err)
	}
	return nil
}

// DeleteCategory removes a non-default category, reassigning its
// assignments to uncategorized. The persisted blob is rewritten in a
// single save so no intermediate state exposes a dangling reference.
func (c *Controller) DeleteCategory(ctx context.Context, categoryID string) error {
	for _, cat := range c.store.State().Categories {
		if cat.ID == categoryID && cat.IsDefault {
			return fmt.Errorf("category %q is a default category and cannot be deleted", categoryID)
		}
	}

	c.store.Dispatch(store.DeleteCategory{CategoryID: categoryID})

	if err := c.persist(ctx, func() error {
		return c.gateway.Update(ctx, func(data *types.StorageData) {
			kept := data.Categories[:0]
			for _, cat := range data.Categories {
				if cat.ID != categoryID {
					kept = append(kept, cat)
				}
			}
			data.Categories = kept

			order := data.CategoryOrder[:0]
			for _, id := range data.CategoryOrder {
				if id != categoryID {
					order = append(order, id)
				}
			}
			data.CategoryOrder = order

			for i, a := range data.Assignments {
				if a.CategoryID == categoryID {
					data.Assignments[i].CategoryID = types.Uncategorized
				}
			}
			delete(data.TabOrder, categoryID)
		})
	}); err != nil {
		return fmt.Errorf("persist deletion: %w", err)
	}
	return nil
}

// ReorderCategories replaces the category order. The caller supplies the
// permutation.
func (c *Controller) ReorderCategories(ctx context.Context, categoryIDs []string) error {
	c.store.Dispatch(store.ReorderCategories{CategoryIDs: categoryIDs})
	if err := c.persist(ctx, func() error {
		return c.gateway.UpdateCategoryOrder(ctx, categoryIDs)
	}); err != nil {
		return fmt.Errorf("persist category order: %w", err)
	}
	return nil
}

// SetTabOrder replaces a category's custom tab order.
func (c *Controller) SetTabOrder(ctx context.Context, categoryID string, tabIDs []int) error {
	c.store.Dispatch(store.SetTabOrder{CategoryID: categoryID, TabIDs: tabIDs})
	if err := c.persist(ctx, func() error {
		return c.gateway.UpdateTabOrder(ctx, categoryID, tabIDs)
	}); err != nil {
		return fmt.Errorf("persist tab order: %w", err)
	}
	return nil
}

// SetView switches between the aggregate view and a single category.
func (c *Controller) SetView(view store.View) {
	c.store.Dispatch(store.SetView{View: view})
}

// SetSearch updates the search query.
func (c *Controller) SetSearch(query string) {
	c.store.Dispatch(store.SetSearchQuery{Query: query})
}

// SwitchToTab activates a tab in the host browser.
func (c *Controller) SwitchToTab(ctx context.Context, tabID int) error {
	return c.tabs.SwitchTo(ctx, tabID)
}

// CloseTab closes a tab in the host browser. The tab leaves the state when
// the host's removal event arrives.
func (c *Controller) CloseTab(ctx context.Context, tabID int) error {
	return c.tabs.Close(ctx, tabID)
}

// PinTab sets a tab's pinned state in the host browser.
func (c *Controller) PinTab(ctx context.Context, tabID int, pinned bool) error {
	return c.tabs.Pin(ctx, tabID, pinned)
}

// CreateTab opens a new tab in the host browser.
func (c *Controller) CreateTab(ctx context.Context, url string) (types.Tab, error) {
	return c.tabs.Create(ctx, url)
}

// GroupedTabs derives the per-category tab lists from the current state.
func (c *Controller) GroupedTabs() map[string][]types.Tab {
	s := c.store.State()
	visible := categorize.Filter(s.Tabs, s.SearchQuery)
	return categorize.Group(visible, s.Categories, s.Assignments, s.TabOrder)
}

// SortedCategories derives the display-ordered category list.
func (c *Controller) SortedCategories() []types.Category {
	s := c.store.State()
	return categorize.SortedCategories(s.Categories, s.CategoryOrder)
}
