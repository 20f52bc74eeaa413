// Package export renders the categorized tab set as JSON or markdown
// documents for the export subcommand.
package export

import (
	"github.com/lotas/tabkorb/internal/categorize"
	"github.com/lotas/tabkorb/internal/types"
)

// Group pairs a category with its ordered tabs.
type Group struct {
	Category types.Category
	Tabs     []types.Tab
}

// Build groups tabs by their assigned category, in display order. Categories
// with no tabs are included so an export shows the full structure.
func Build(tabs []types.Tab, data types.StorageData) []Group {
	assignments := make(map[string]string, len(data.Assignments))
	for _, a := range data.Assignments {
		assignments[a.URL] = a.CategoryID
	}

	grouped := categorize.Group(tabs, data.Categories, assignments, data.TabOrder)

	cats := categorize.SortedCategories(data.Categories, data.CategoryOrder)
	out := make([]Group, 0, len(cats))
	for _, c := range cats {
		out = append(out, Group{Category: c, Tabs: grouped[c.ID]})
	}
	return out
}
