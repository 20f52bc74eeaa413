package types

import "time"

// Uncategorized is the reserved id of the permanent default category.
// It always exists, is always part of the category order, and can never
// be deleted.
const Uncategorized = "uncategorized"

// Tab is a snapshot of a live browser tab. Tabs are created, mutated and
// destroyed exclusively by browser events relayed through the tab gateway;
// the core only mirrors them. Tab ids are host-assigned and not stable
// across browser restarts, which is why assignments key on URL instead.
type Tab struct {
	ID           int
	WindowID     int
	Title        string
	URL          string
	Favicon      string
	Pinned       bool
	Active       bool
	LastAccessed time.Time // zero if the host did not report it
	Index        int       // position within its window
}

// Category is a user-visible grouping bucket for tabs.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"` // hint only; CategoryOrder wins
	IsDefault bool   `json:"isDefault,omitempty"`
}

// Assignment maps a URL to a category. URL is the durable key: a tab's
// category survives the tab closing and reopening under a new id.
type Assignment struct {
	URL        string    `json:"url"`
	CategoryID string    `json:"categoryId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// URLMemory seeds categorization for URLs not yet explicitly assigned.
type URLMemory struct {
	URLPattern string `json:"urlPattern"`
	CategoryID string `json:"categoryId"`
}

// StorageData is the single persisted blob. Its JSON form is the only
// externally observable artifact of the system and must round-trip exactly.
type StorageData struct {
	Categories    []Category       `json:"categories"`
	Assignments   []Assignment     `json:"assignments"`
	URLMemory     []URLMemory      `json:"urlMemory"`
	TabOrder      map[string][]int `json:"tabOrder"`
	CategoryOrder []string         `json:"categoryOrder"`
}

// DefaultCategories returns the built-in category set. The slice is freshly
// allocated on every call so callers may modify it.
func DefaultCategories() []Category {
	return []Category{
		{ID: "work", Name: "Work", Order: 0, IsDefault: true},
		{ID: "ai", Name: "AI", Order: 1, IsDefault: true},
		{ID: "trading", Name: "Trading", Order: 2, IsDefault: true},
		{ID: "social", Name: "Social", Order: 3, IsDefault: true},
		{ID: "entertainment", Name: "Entertainment", Order: 4, IsDefault: true},
		{ID: "learning", Name: "Learning", Order: 5, IsDefault: true},
		{ID: Uncategorized, Name: "Uncategorized", Order: 6, IsDefault: true},
	}
}

// DefaultCategoryOrder returns the ids of DefaultCategories in order.
func DefaultCategoryOrder() []string {
	cats := DefaultCategories()
	order := make([]string, len(cats))
	for i, c := range cats {
		order[i] = c.ID
	}
	return order
}

// DefaultStorageData synthesizes the blob written on first run.
func DefaultStorageData() StorageData {
	return StorageData{
		Categories:    DefaultCategories(),
		Assignments:   []Assignment{},
		URLMemory:     []URLMemory{},
		TabOrder:      map[string][]int{},
		CategoryOrder: DefaultCategoryOrder(),
	}
}
