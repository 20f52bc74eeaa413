package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabkorb/internal/types"
)

// TreeNode represents a visible row in the tree.
type TreeNode struct {
	Category *types.Category // non-nil for category headers
	Tab      *types.Tab      // non-nil for tab rows
	ParentID string          // owning category id, set for tab rows
}

// TreeModel manages the collapsible category tree.
type TreeModel struct {
	Categories []types.Category
	Grouped    map[string][]types.Tab
	Expanded   map[string]bool // category id -> expanded
	Cursor     int
	Offset     int // scroll offset
	Width      int
	Height     int
}

func NewTreeModel(categories []types.Category, grouped map[string][]types.Tab) TreeModel {
	expanded := make(map[string]bool, len(categories))
	for _, c := range categories {
		expanded[c.ID] = true
	}
	return TreeModel{
		Categories: categories,
		Grouped:    grouped,
		Expanded:   expanded,
	}
}

// VisibleNodes returns the flat list of currently visible nodes.
func (m TreeModel) VisibleNodes() []TreeNode {
	var nodes []TreeNode
	for i := range m.Categories {
		c := &m.Categories[i]
		nodes = append(nodes, TreeNode{Category: c})
		if m.Expanded[c.ID] {
			tabs := m.Grouped[c.ID]
			for j := range tabs {
				nodes = append(nodes, TreeNode{Tab: &tabs[j], ParentID: c.ID})
			}
		}
	}
	return nodes
}

// SelectedNode returns the currently selected node, or nil.
func (m TreeModel) SelectedNode() *TreeNode {
	nodes := m.VisibleNodes()
	if m.Cursor >= 0 && m.Cursor < len(nodes) {
		return &nodes[m.Cursor]
	}
	return nil
}

// MoveUp moves the cursor up.
func (m *TreeModel) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
}

// MoveDown moves the cursor down.
func (m *TreeModel) MoveDown() {
	nodes := m.VisibleNodes()
	if m.Cursor < len(nodes)-1 {
		m.Cursor++
	}
	visibleRows := m.Height - 2
	if visibleRows < 1 {
		visibleRows = 1
	}
	if m.Cursor >= m.Offset+visibleRows {
		m.Offset = m.Cursor - visibleRows + 1
	}
}

// Toggle expands or collapses the selected category.
func (m *TreeModel) Toggle() {
	node := m.SelectedNode()
	if node == nil || node.Category == nil {
		return
	}
	m.Expanded[node.Category.ID] = !m.Expanded[node.Category.ID]
}

// CollapseOrParent collapses the selected category if expanded, or jumps to
// the parent category header if the cursor is on a tab.
func (m *TreeModel) CollapseOrParent() {
	node := m.SelectedNode()
	if node == nil {
		return
	}
	if node.Category != nil {
		if m.Expanded[node.Category.ID] {
			m.Expanded[node.Category.ID] = false
		}
		return
	}
	nodes := m.VisibleNodes()
	for i := m.Cursor - 1; i >= 0; i-- {
		if nodes[i].Category != nil {
			m.Cursor = i
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
			return
		}
	}
}

// ExpandOrEnter expands the selected category if collapsed, or moves into
// the first child tab if already expanded.
func (m *TreeModel) ExpandOrEnter() {
	node := m.SelectedNode()
	if node == nil || node.Category == nil {
		return
	}
	if !m.Expanded[node.Category.ID] {
		m.Expanded[node.Category.ID] = true
		return
	}
	nodes := m.VisibleNodes()
	if m.Cursor+1 < len(nodes) && nodes[m.Cursor+1].Tab != nil {
		m.Cursor++
		visibleRows := m.Height - 2
		if visibleRows < 1 {
			visibleRows = 1
		}
		if m.Cursor >= m.Offset+visibleRows {
			m.Offset = m.Cursor - visibleRows + 1
		}
	}
}

// SelectCategory moves the cursor to the header of the given category.
func (m *TreeModel) SelectCategory(categoryID string) {
	for i, node := range m.VisibleNodes() {
		if node.Category != nil && node.Category.ID == categoryID {
			m.Cursor = i
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
			return
		}
	}
}

// View renders the tree.
func (m TreeModel) View() string {
	nodes := m.VisibleNodes()
	if len(nodes) == 0 {
		return "No tabs."
	}

	visibleRows := m.Height
	if visibleRows < 1 {
		visibleRows = 20
	}

	var b strings.Builder
	end := m.Offset + visibleRows
	if end > len(nodes) {
		end = len(nodes)
	}

	cursorStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	categoryStyle := lipgloss.NewStyle().Bold(true)
	pinStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))   // orange
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	for i := m.Offset; i < end; i++ {
		node := nodes[i]
		var line string

		if node.Category != nil {
			icon := "▶"
			if m.Expanded[node.Category.ID] {
				icon = "▼"
			}
			n := len(m.Grouped[node.Category.ID])
			noun := "tabs"
			if n == 1 {
				noun = "tab"
			}
			line = categoryStyle.Render(fmt.Sprintf("%s %s (%d %s)", icon, node.Category.Name, n, noun))
		} else if node.Tab != nil {
			var markers []string
			if node.Tab.Pinned {
				markers = append(markers, pinStyle.Render("◆"))
			}
			if node.Tab.Active {
				markers = append(markers, activeStyle.Render("●"))
			}
			marker := ""
			if len(markers) > 0 {
				marker = strings.Join(markers, "") + " "
			}

			label := node.Tab.Title
			if label == "" {
				label = node.Tab.URL
			}
			maxLen := m.Width - len(marker) - 4
			if maxLen < 10 {
				maxLen = 10
			}
			runes := []rune(label)
			if len(runes) > maxLen {
				label = string(runes[:maxLen-1]) + "…"
			}
			line = "  " + marker + label
		}

		if i == m.Cursor {
			for lipgloss.Width(line) < m.Width {
				line += " "
			}
			line = cursorStyle.Render(line)
		}

		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
