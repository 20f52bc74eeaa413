package export

import (
	"testing"

	"github.com/lotas/tabkorb/internal/types"
)

func testData() types.StorageData {
	data := types.DefaultStorageData()
	data.Assignments = []types.Assignment{
		{URL: "https://github.com/pulls", CategoryID: "work"},
		{URL: "https://news.ycombinator.com", CategoryID: "social"},
	}
	return data
}

func TestBuild_GroupsByAssignment(t *testing.T) {
	tabs := []types.Tab{
		{ID: 1, URL: "https://github.com/pulls", Title: "Pull Requests"},
		{ID: 2, URL: "https://news.ycombinator.com", Title: "HN"},
		{ID: 3, URL: "https://example.com", Title: "Example"},
	}

	groups := Build(tabs, testData())

	byID := make(map[string]Group, len(groups))
	for _, g := range groups {
		byID[g.Category.ID] = g
	}

	if got := byID["work"].Tabs; len(got) != 1 || got[0].ID != 1 {
		t.Errorf("work group = %v, want tab 1", got)
	}
	if got := byID["social"].Tabs; len(got) != 1 || got[0].ID != 2 {
		t.Errorf("social group = %v, want tab 2", got)
	}
	if got := byID[types.Uncategorized].Tabs; len(got) != 1 || got[0].ID != 3 {
		t.Errorf("uncategorized group = %v, want tab 3", got)
	}
}

func TestBuild_FollowsCategoryOrder(t *testing.T) {
	data := testData()
	data.CategoryOrder = []string{"social", "work", "ai", "trading", "entertainment", "learning", types.Uncategorized}

	groups := Build(nil, data)

	if len(groups) != 7 {
		t.Fatalf("got %d groups, want 7", len(groups))
	}
	if groups[0].Category.ID != "social" || groups[1].Category.ID != "work" {
		t.Errorf("group order = [%s %s ...], want [social work ...]",
			groups[0].Category.ID, groups[1].Category.ID)
	}
}

func TestBuild_IncludesEmptyCategories(t *testing.T) {
	groups := Build(nil, testData())

	if len(groups) != 7 {
		t.Fatalf("got %d groups, want all 7 default categories", len(groups))
	}
	for _, g := range groups {
		if g.Tabs == nil {
			t.Errorf("category %s has nil tabs, want empty slice", g.Category.ID)
		}
	}
}
