// Package tui is the terminal dashboard. It renders the store's state and
// translates key presses into controller calls; all state changes flow back
// in through store subscriptions, never through local mutation.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabkorb/internal/controller"
	"github.com/lotas/tabkorb/internal/store"
)

const noticeDuration = 4 * time.Second

// --- Messages ---

type stateMsg store.State

type errMsg struct {
	err error
}

type noticeClearMsg struct {
	seq int
}

// inputKind selects what the text input line is editing.
type inputKind int

const (
	inputNone inputKind = iota
	inputSearch
	inputCreate
	inputRename
	inputOpenURL
)

// --- Model ---

type Model struct {
	ctrl   *controller.Controller
	states chan store.State

	state  store.State
	tree   TreeModel
	detail DetailModel

	picker      CategoryPicker
	showPicker  bool
	pickerTabID int

	input    inputKind
	inputBuf string
	renameID string

	notice    string
	noticeSeq int

	width  int
	height int
}

// NewModel builds the dashboard model and subscribes it to the store. The
// subscription stays alive for the process lifetime.
func NewModel(ctrl *controller.Controller) *Model {
	m := &Model{
		ctrl:   ctrl,
		states: make(chan store.State, 1),
		state:  ctrl.Store().State(),
	}
	// Keep only the newest pending snapshot so a slow render never blocks
	// a dispatch.
	ctrl.Store().Subscribe(func(s store.State) {
		for {
			select {
			case m.states <- s:
				return
			default:
				select {
				case <-m.states:
				default:
				}
			}
		}
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	m.rebuildTree()
	return m.listenStates()
}

func (m *Model) listenStates() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-m.states)
	}
}

// do runs a controller call off the UI goroutine and surfaces its error.
func do(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *Model) showNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeClearMsg{seq: seq}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		treeWidth := m.width * 60 / 100
		detailWidth := m.width - treeWidth - 3 // borders
		paneHeight := m.height - 5             // top bar + bottom bar
		m.tree.Width = treeWidth
		m.tree.Height = paneHeight
		m.detail.Width = detailWidth
		m.detail.Height = paneHeight
		m.picker.Width = m.width
		m.picker.Height = m.height
		return m, nil

	case stateMsg:
		m.state = store.State(msg)
		m.rebuildTree()
		return m, m.listenStates()

	case errMsg:
		return m, m.showNotice(msg.err.Error())

	case noticeClearMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.input != inputNone {
			return m.updateInput(msg)
		}
		if m.showPicker {
			return m.updatePicker(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.input == inputSearch {
			m.ctrl.SetSearch("")
		}
		m.input = inputNone
		m.inputBuf = ""
		return m, nil
	case tea.KeyEnter:
		kind, buf := m.input, m.inputBuf
		m.input = inputNone
		m.inputBuf = ""
		switch kind {
		case inputCreate:
			return m, do(func(ctx context.Context) error {
				_, err := m.ctrl.CreateCategory(ctx, buf)
				return err
			})
		case inputRename:
			id := m.renameID
			return m, do(func(ctx context.Context) error {
				return m.ctrl.RenameCategory(ctx, id, buf)
			})
		case inputOpenURL:
			if strings.TrimSpace(buf) == "" {
				return m, nil
			}
			return m, do(func(ctx context.Context) error {
				_, err := m.ctrl.CreateTab(ctx, strings.TrimSpace(buf))
				return err
			})
		}
		return m, nil
	case tea.KeyBackspace:
		if len(m.inputBuf) > 0 {
			runes := []rune(m.inputBuf)
			m.inputBuf = string(runes[:len(runes)-1])
			if m.input == inputSearch {
				m.ctrl.SetSearch(m.inputBuf)
			}
		}
		return m, nil
	case tea.KeyRunes:
		m.inputBuf += string(msg.Runes)
		if m.input == inputSearch {
			m.ctrl.SetSearch(m.inputBuf)
		}
		return m, nil
	case tea.KeySpace:
		m.inputBuf += " "
		if m.input == inputSearch {
			m.ctrl.SetSearch(m.inputBuf)
		}
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.picker.MoveUp()
	case "down", "j":
		m.picker.MoveDown()
	case "enter":
		category := m.picker.Selected()
		if category != nil {
			tabID := m.pickerTabID
			catID := category.ID
			m.showPicker = false
			return m, do(func(ctx context.Context) error {
				return m.ctrl.MoveTabToCategory(ctx, tabID, catID)
			})
		}
	case "esc":
		m.showPicker = false
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.String()[0] - '0')
		if m.picker.SelectByNumber(n) {
			category := m.picker.Selected()
			tabID := m.pickerTabID
			catID := category.ID
			m.showPicker = false
			return m, do(func(ctx context.Context) error {
				return m.ctrl.MoveTabToCategory(ctx, tabID, catID)
			})
		}
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.tree.MoveUp()
	case "down", "j":
		m.tree.MoveDown()
	case "h":
		m.tree.CollapseOrParent()
	case "l":
		m.tree.ExpandOrEnter()
	case "enter":
		node := m.tree.SelectedNode()
		if node == nil {
			return m, nil
		}
		if node.Tab != nil {
			id := node.Tab.ID
			return m, do(func(ctx context.Context) error {
				return m.ctrl.SwitchToTab(ctx, id)
			})
		}
		m.tree.Toggle()
	case "x":
		if node := m.tree.SelectedNode(); node != nil && node.Tab != nil {
			id := node.Tab.ID
			return m, do(func(ctx context.Context) error {
				return m.ctrl.CloseTab(ctx, id)
			})
		}
	case "p":
		if node := m.tree.SelectedNode(); node != nil && node.Tab != nil {
			id := node.Tab.ID
			pinned := !node.Tab.Pinned
			return m, do(func(ctx context.Context) error {
				return m.ctrl.PinTab(ctx, id, pinned)
			})
		}
	case "m":
		if node := m.tree.SelectedNode(); node != nil && node.Tab != nil {
			m.pickerTabID = node.Tab.ID
			m.picker = NewCategoryPicker(m.ctrl.SortedCategories(), m.ctrl.GroupedTabs())
			m.picker.Width = m.width
			m.picker.Height = m.height
			m.showPicker = true
		}
	case "n":
		m.input = inputCreate
		m.inputBuf = ""
	case "o":
		m.input = inputOpenURL
		m.inputBuf = ""
	case "r":
		if node := m.tree.SelectedNode(); node != nil && node.Category != nil {
			m.input = inputRename
			m.renameID = node.Category.ID
			m.inputBuf = node.Category.Name
		}
	case "d":
		if node := m.tree.SelectedNode(); node != nil && node.Category != nil {
			id := node.Category.ID
			return m, do(func(ctx context.Context) error {
				return m.ctrl.DeleteCategory(ctx, id)
			})
		}
	case "[":
		if node := m.tree.SelectedNode(); node != nil && node.Category != nil {
			return m, m.shiftCategory(node.Category.ID, -1)
		}
	case "]":
		if node := m.tree.SelectedNode(); node != nil && node.Category != nil {
			return m, m.shiftCategory(node.Category.ID, 1)
		}
	case "/":
		m.input = inputSearch
		m.inputBuf = m.state.SearchQuery
	case "v":
		if node := m.tree.SelectedNode(); node != nil && node.Category != nil {
			m.ctrl.SetView(store.View{CategoryID: node.Category.ID})
		}
	case "esc":
		if m.state.SearchQuery != "" {
			m.ctrl.SetSearch("")
		} else if m.state.View != store.AllView {
			m.ctrl.SetView(store.AllView)
		}
	}
	return m, nil
}

// shiftCategory swaps a category with its neighbor in the display order.
func (m *Model) shiftCategory(categoryID string, delta int) tea.Cmd {
	order := append([]string(nil), m.state.CategoryOrder...)
	for i, id := range order {
		if id != categoryID {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(order) {
			return nil
		}
		order[i], order[j] = order[j], order[i]
		return do(func(ctx context.Context) error {
			return m.ctrl.ReorderCategories(ctx, order)
		})
	}
	return nil
}

// rebuildTree recomputes the tree from the current state, keeping cursor
// position and expanded flags across rebuilds.
func (m *Model) rebuildTree() {
	oldCursor := m.tree.Cursor
	oldOffset := m.tree.Offset
	oldExpanded := m.tree.Expanded

	categories := m.ctrl.SortedCategories()
	if m.state.View != store.AllView {
		focused := categories[:0]
		for _, c := range categories {
			if c.ID == m.state.View.CategoryID {
				focused = append(focused, c)
			}
		}
		categories = focused
	}

	width, height := m.tree.Width, m.tree.Height
	m.tree = NewTreeModel(categories, m.ctrl.GroupedTabs())
	m.tree.Width = width
	m.tree.Height = height

	if oldExpanded != nil {
		for id, exp := range oldExpanded {
			if _, known := m.tree.Expanded[id]; known {
				m.tree.Expanded[id] = exp
			}
		}
	}

	nodes := m.tree.VisibleNodes()
	if oldCursor >= len(nodes) {
		oldCursor = len(nodes) - 1
	}
	if oldCursor < 0 {
		oldCursor = 0
	}
	m.tree.Cursor = oldCursor
	m.tree.Offset = oldOffset
}

func (m *Model) categoryName(id string) string {
	for _, c := range m.state.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return "Uncategorized"
}

func (m *Model) View() string {
	if m.state.Loading {
		return "\n  Loading stored data...\n"
	}

	if m.showPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	// Top bar
	topBarStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	noticeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)

	statsStr := fmt.Sprintf("%d tabs · %d categories", len(m.state.Tabs), len(m.state.Categories))
	if m.state.SearchQuery != "" {
		statsStr += fmt.Sprintf(" · search: %q", m.state.SearchQuery)
	}
	if m.state.View != store.AllView {
		statsStr += " · view: " + m.categoryName(m.state.View.CategoryID)
	}
	topBar := topBarStyle.Render("tabkorb  " + statsStr)
	if m.notice != "" {
		topBar += noticeStyle.Render("! " + m.notice)
	}

	// Panes
	treeBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Width(m.tree.Width).
		Height(m.tree.Height)

	detailBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.detail.Width).
		Height(m.detail.Height)

	var detailContent string
	if node := m.tree.SelectedNode(); node != nil {
		if node.Tab != nil {
			detailContent = m.detail.ViewTab(node.Tab, m.categoryName(node.ParentID))
		} else if node.Category != nil {
			position := 0
			for i, id := range m.state.CategoryOrder {
				if id == node.Category.ID {
					position = i
				}
			}
			detailContent = m.detail.ViewCategory(node.Category, len(m.tree.Grouped[node.Category.ID]), position)
		}
	}

	left := treeBorder.Render(m.tree.View())
	right := detailBorder.Render(detailContent)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	// Bottom bar
	bottomBarStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	var bottomText string
	switch m.input {
	case inputSearch:
		bottomText = "search: " + m.inputBuf + "█  (enter confirm, esc clear)"
	case inputCreate:
		bottomText = "new category: " + m.inputBuf + "█  (enter create, esc cancel)"
	case inputRename:
		bottomText = "rename: " + m.inputBuf + "█  (enter save, esc cancel)"
	case inputOpenURL:
		bottomText = "open url: " + m.inputBuf + "█  (enter open, esc cancel)"
	default:
		bottomText = "↑↓/jk move · enter switch · m move · x close · p pin · " +
			"n new · r rename · d delete · [/] reorder · / search · v focus · o open · q quit"
	}
	bottomBar := bottomBarStyle.Render(bottomText)

	return lipgloss.JoinVertical(lipgloss.Left, topBar, panes, bottomBar)
}
