// Package categorize decides tab categories and derives the grouped,
// sorted view the dashboard renders. Everything here is pure: no IO, no
// panics for any well-formed input.
package categorize

import (
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/lotas/tabkorb/internal/types"
)

// Strategy decides a category for a tab when no stored assignment exists.
// Returning ok=false declines, deferring to the next strategy in the chain.
type Strategy interface {
	Categorize(tab types.Tab, categories []types.Category) (categoryID string, ok bool)
}

// Manual always declines, letting stored assignments win.
type Manual struct{}

func (Manual) Categorize(types.Tab, []types.Category) (string, bool) {
	return "", false
}

// Rule maps a glob pattern to a category. Patterns match against the tab's
// URL or title.
type Rule struct {
	Pattern    glob.Glob
	CategoryID string
}

// RuleBased matches tabs against an ordered rule list, first match wins.
type RuleBased struct {
	rules []Rule
}

// NewRuleBased builds a rule strategy. Rule order is significant and
// preserved.
func NewRuleBased(rules []Rule) *RuleBased {
	return &RuleBased{rules: rules}
}

// AddRule appends a rule to the end of the chain.
func (r *RuleBased) AddRule(pattern glob.Glob, categoryID string) {
	r.rules = append(r.rules, Rule{Pattern: pattern, CategoryID: categoryID})
}

func (r *RuleBased) Categorize(tab types.Tab, _ []types.Category) (string, bool) {
	for _, rule := range r.rules {
		if rule.Pattern.Match(tab.URL) || rule.Pattern.Match(tab.Title) {
			return rule.CategoryID, true
		}
	}
	return "", false
}

// Engine consults an ordered chain of strategies. The registration order is
// a contract: the first non-declining strategy wins.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an engine with the manual strategy registered first.
func NewEngine() *Engine {
	return &Engine{strategies: []Strategy{Manual{}}}
}

// AddStrategy appends a strategy to the end of the chain.
func (e *Engine) AddStrategy(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Categorize returns the first strategy decision, or uncategorized if every
// strategy declines.
func (e *Engine) Categorize(tab types.Tab, categories []types.Category) string {
	for _, s := range e.strategies {
		if id, ok := s.Categorize(tab, categories); ok {
			return id
		}
	}
	return types.Uncategorized
}

// Group splits tabs into per-category ordered lists. Every known category
// gets an entry, even when empty. A tab whose assigned category is not in
// the current set lands under uncategorized instead of being dropped.
func Group(tabs []types.Tab, categories []types.Category, assignments map[string]string, tabOrder map[string][]int) map[string][]types.Tab {
	grouped := make(map[string][]types.Tab, len(categories))
	for _, c := range categories {
		grouped[c.ID] = []types.Tab{}
	}

	for _, tab := range tabs {
		catID, ok := assignments[tab.URL]
		if !ok {
			catID = types.Uncategorized
		}
		if _, known := grouped[catID]; !known {
			catID = types.Uncategorized
			if _, known := grouped[catID]; !known {
				grouped[catID] = []types.Tab{}
			}
		}
		grouped[catID] = append(grouped[catID], tab)
	}

	for catID, catTabs := range grouped {
		sortTabs(catTabs, tabOrder[catID])
	}
	return grouped
}

// sortTabs orders a category's tabs in place: pinned before unpinned, then
// by custom-order index when one exists (tabs absent from the custom order
// sort after all ordered tabs), falling back to host window index. The sort
// is stable so ties keep their relative input order.
func sortTabs(tabs []types.Tab, customOrder []int) {
	orderIndex := make(map[int]int, len(customOrder))
	for i, id := range customOrder {
		orderIndex[id] = i
	}

	rank := func(t types.Tab) (int, bool) {
		i, ok := orderIndex[t.ID]
		return i, ok
	}

	sort.SliceStable(tabs, func(i, j int) bool {
		a, b := tabs[i], tabs[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if len(customOrder) > 0 {
			ai, aok := rank(a)
			bi, bok := rank(b)
			switch {
			case aok && bok:
				if ai != bi {
					return ai < bi
				}
			case aok:
				return true
			case bok:
				return false
			}
		}
		return a.Index < b.Index
	})
}

// SortedCategories projects the category set through the display order,
// filtering ids that no longer resolve to a category.
func SortedCategories(categories []types.Category, order []string) []types.Category {
	byID := make(map[string]types.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	out := make([]types.Category, 0, len(order))
	for _, id := range order {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Filter returns tabs whose title or URL contains the query,
// case-insensitively. An empty or blank query returns the input unchanged.
func Filter(tabs []types.Tab, query string) []types.Tab {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tabs
	}
	out := make([]types.Tab, 0, len(tabs))
	for _, t := range tabs {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.URL), q) {
			out = append(out, t)
		}
	}
	return out
}
