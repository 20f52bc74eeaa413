package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabkorb/internal/types"
)

// CategoryPicker is the overlay for choosing a target category.
type CategoryPicker struct {
	Categories []types.Category
	Counts     map[string]int // category id -> tab count
	Cursor     int
	Width      int
	Height     int
}

func NewCategoryPicker(categories []types.Category, grouped map[string][]types.Tab) CategoryPicker {
	counts := make(map[string]int, len(categories))
	for id, tabs := range grouped {
		counts[id] = len(tabs)
	}
	return CategoryPicker{Categories: categories, Counts: counts}
}

func (m *CategoryPicker) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
}

func (m *CategoryPicker) MoveDown() {
	if m.Cursor < len(m.Categories)-1 {
		m.Cursor++
	}
}

func (m CategoryPicker) Selected() *types.Category {
	if m.Cursor >= 0 && m.Cursor < len(m.Categories) {
		return &m.Categories[m.Cursor]
	}
	return nil
}

// SelectByNumber moves the cursor to the nth entry (1-based). Returns false
// when out of range.
func (m *CategoryPicker) SelectByNumber(n int) bool {
	if n < 1 || n > len(m.Categories) {
		return false
	}
	m.Cursor = n - 1
	return true
}

func (m CategoryPicker) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Move to category:") + "\n\n")

	for i, c := range m.Categories {
		label := fmt.Sprintf("%d. %s (%d tabs)", i+1, c.Name, m.Counts[c.ID])
		if i == m.Cursor {
			label = selectedStyle.Render(label)
		} else {
			label = normalStyle.Render("  " + label)
		}
		b.WriteString(label + "\n")
	}

	b.WriteString("\n" + normalStyle.Render("↑↓ navigate · 1-9 jump · enter confirm · esc cancel"))

	return boxStyle.Render(b.String())
}
