package categorize

import (
	"testing"

	"github.com/gobwas/glob"
	"github.com/lotas/tabkorb/internal/types"
)

func TestEngineDefaultsToUncategorized(t *testing.T) {
	e := NewEngine()
	got := e.Categorize(types.Tab{URL: "https://example.com"}, types.DefaultCategories())
	if got != types.Uncategorized {
		t.Errorf("expected %q, got %q", types.Uncategorized, got)
	}
}

func TestEngineStrategyOrder(t *testing.T) {
	first := NewRuleBased(nil)
	first.AddRule(glob.MustCompile("*github.com*"), "work")
	second := NewRuleBased(nil)
	second.AddRule(glob.MustCompile("*github.com*"), "learning")

	e := NewEngine()
	e.AddStrategy(first)
	e.AddStrategy(second)

	got := e.Categorize(types.Tab{URL: "https://github.com/lotas"}, types.DefaultCategories())
	if got != "work" {
		t.Errorf("expected first registered strategy to win, got %q", got)
	}
}

func TestRuleBasedMatchesTitle(t *testing.T) {
	r := NewRuleBased(nil)
	r.AddRule(glob.MustCompile("*Invoice*"), "work")

	id, ok := r.Categorize(types.Tab{URL: "https://mail.example.com", Title: "Invoice #42"}, nil)
	if !ok || id != "work" {
		t.Errorf("expected work via title match, got %q ok=%v", id, ok)
	}
	_, ok = r.Categorize(types.Tab{URL: "https://mail.example.com", Title: "Hello"}, nil)
	if ok {
		t.Error("expected decline for non-matching tab")
	}
}

func TestGroupCompleteness(t *testing.T) {
	cats := types.DefaultCategories()
	tabs := []types.Tab{
		{ID: 1, URL: "https://a.com"},
		{ID: 2, URL: "https://b.com"},
		{ID: 3, URL: "https://c.com"},
	}
	assignments := map[string]string{
		"https://a.com": "work",
		"https://b.com": "ghost", // category does not exist
	}

	grouped := Group(tabs, cats, assignments, nil)

	if len(grouped) != len(cats) {
		t.Fatalf("expected %d groups, got %d", len(cats), len(grouped))
	}
	total := 0
	for _, g := range grouped {
		total += len(g)
	}
	if total != len(tabs) {
		t.Errorf("expected every tab in exactly one group, got %d placements", total)
	}
	if len(grouped["work"]) != 1 || grouped["work"][0].ID != 1 {
		t.Errorf("tab 1 not in work: %v", grouped["work"])
	}
	// Dangling assignment and missing assignment both land in uncategorized.
	if len(grouped[types.Uncategorized]) != 2 {
		t.Errorf("expected tabs 2 and 3 uncategorized, got %v", grouped[types.Uncategorized])
	}
}

func TestGroupEmptyCategoriesPresent(t *testing.T) {
	cats := types.DefaultCategories()
	grouped := Group(nil, cats, nil, nil)
	for _, c := range cats {
		if _, ok := grouped[c.ID]; !ok {
			t.Errorf("category %q missing from grouping", c.ID)
		}
	}
}

func TestSortCustomOrderWithStragglers(t *testing.T) {
	tabs := []types.Tab{
		{ID: 1, URL: "https://a.com", Index: 0},
		{ID: 2, URL: "https://b.com", Index: 1},
		{ID: 3, URL: "https://c.com", Index: 2},
		{ID: 4, URL: "https://d.com", Index: 3},
	}
	assignments := map[string]string{
		"https://a.com": "work",
		"https://b.com": "work",
		"https://c.com": "work",
		"https://d.com": "work",
	}
	order := map[string][]int{"work": {3, 1, 2}}

	grouped := Group(tabs, types.DefaultCategories(), assignments, order)

	got := ids(grouped["work"])
	want := []int{3, 1, 2, 4}
	if !equalInts(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestSortPinnedFirst(t *testing.T) {
	tabs := []types.Tab{
		{ID: 1, URL: "https://a.com", Index: 0},
		{ID: 2, URL: "https://b.com", Index: 1, Pinned: true},
		{ID: 3, URL: "https://c.com", Index: 2, Pinned: true},
	}
	assignments := map[string]string{
		"https://a.com": "work",
		"https://b.com": "work",
		"https://c.com": "work",
	}

	grouped := Group(tabs, types.DefaultCategories(), assignments, nil)

	got := ids(grouped["work"])
	want := []int{2, 3, 1}
	if !equalInts(got, want) {
		t.Errorf("expected pinned first %v, got %v", want, got)
	}
}

func TestSortPinnedBeforeCustomOrder(t *testing.T) {
	tabs := []types.Tab{
		{ID: 1, URL: "https://a.com", Index: 0},
		{ID: 2, URL: "https://b.com", Index: 1, Pinned: true},
	}
	assignments := map[string]string{
		"https://a.com": "work",
		"https://b.com": "work",
	}
	// Custom order puts the unpinned tab first, but pinned still wins.
	order := map[string][]int{"work": {1, 2}}

	grouped := Group(tabs, types.DefaultCategories(), assignments, order)

	got := ids(grouped["work"])
	want := []int{2, 1}
	if !equalInts(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortedCategoriesFiltersDangling(t *testing.T) {
	cats := []types.Category{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	order := []string{"b", "ghost", "a"}

	sorted := SortedCategories(cats, order)
	if len(sorted) != 2 || sorted[0].ID != "b" || sorted[1].ID != "a" {
		t.Errorf("unexpected sorted categories: %v", sorted)
	}
}

func TestFilter(t *testing.T) {
	tabs := []types.Tab{
		{ID: 1, Title: "Go documentation", URL: "https://go.dev"},
		{ID: 2, Title: "News", URL: "https://example.com/golang-weekly"},
		{ID: 3, Title: "Recipes", URL: "https://cooking.example.com"},
	}

	got := Filter(tabs, "  GOLang ")
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected tab 2 only, got %v", ids(got))
	}
	if n := len(Filter(tabs, "")); n != 3 {
		t.Errorf("blank query should return all tabs, got %d", n)
	}
}

func ids(tabs []types.Tab) []int {
	out := make([]int, len(tabs))
	for i, t := range tabs {
		out[i] = t.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
