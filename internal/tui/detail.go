package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabkorb/internal/types"
)

// DetailModel shows information about the selected item.
type DetailModel struct {
	Width  int
	Height int
}

func (m DetailModel) ViewTab(tab *types.Tab, categoryName string) string {
	if tab == nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	valueStyle := lipgloss.NewStyle()

	var b strings.Builder

	b.WriteString(labelStyle.Render("Title") + "\n")
	title := tab.Title
	if title == "" {
		title = "(untitled)"
	}
	runes := []rune(title)
	if len(runes) > m.Width-2 && m.Width > 3 {
		title = string(runes[:m.Width-3]) + "…"
	}
	b.WriteString(valueStyle.Render(title) + "\n\n")

	b.WriteString(labelStyle.Render("URL") + "\n")
	url := tab.URL
	// Wrap long URLs
	for m.Width > 2 && len(url) > m.Width-2 {
		b.WriteString(valueStyle.Render(url[:m.Width-2]) + "\n")
		url = url[m.Width-2:]
	}
	b.WriteString(valueStyle.Render(url) + "\n\n")

	b.WriteString(labelStyle.Render("Category") + "\n")
	b.WriteString(valueStyle.Render(categoryName) + "\n\n")

	var flags []string
	if tab.Pinned {
		flags = append(flags, "pinned")
	}
	if tab.Active {
		flags = append(flags, "active")
	}
	if len(flags) > 0 {
		b.WriteString(labelStyle.Render("State") + "\n")
		b.WriteString(valueStyle.Render(strings.Join(flags, ", ")) + "\n\n")
	}

	if !tab.LastAccessed.IsZero() {
		b.WriteString(labelStyle.Render("Last Visited") + "\n")
		b.WriteString(valueStyle.Render(relativeAge(tab.LastAccessed)) + "\n")
	}

	return b.String()
}

func (m DetailModel) ViewCategory(category *types.Category, tabCount int, position int) string {
	if category == nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	valueStyle := lipgloss.NewStyle()

	var b strings.Builder

	b.WriteString(labelStyle.Render("Category") + "\n")
	b.WriteString(valueStyle.Render(category.Name) + "\n\n")

	b.WriteString(labelStyle.Render("Tabs") + "\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", tabCount)) + "\n\n")

	b.WriteString(labelStyle.Render("Position") + "\n")
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", position+1)) + "\n\n")

	if category.IsDefault {
		b.WriteString(labelStyle.Render("Built-in") + "\n")
		b.WriteString(valueStyle.Render("yes, cannot be deleted") + "\n")
	}

	return b.String()
}

func relativeAge(t time.Time) string {
	age := time.Since(t)
	days := int(age.Hours() / 24)
	if days == 0 {
		hours := int(age.Hours())
		if hours == 0 {
			return "just now"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	return fmt.Sprintf("%d days ago", days)
}
