package tabs

import (
	"encoding/json"
	"time"

	"github.com/lotas/tabkorb/internal/types"
)

// incomingMsg is a message from the extension: either a notification or a
// response to a previously sent command (correlated by ID).
type incomingMsg struct {
	Type     string          `json:"type"`
	Tab      json.RawMessage `json:"tab,omitempty"`
	Tabs     json.RawMessage `json:"tabs,omitempty"`
	TabID    int             `json:"tabId,omitempty"`
	WindowID int             `json:"windowId,omitempty"`
	ID       string          `json:"id,omitempty"`
	OK       *bool           `json:"ok,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// outgoingMsg is a command from the core to the extension.
type outgoingMsg struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	TabID  int    `json:"tabId,omitempty"`
	Pinned *bool  `json:"pinned,omitempty"`
	URL    string `json:"url,omitempty"`
}

const (
	actionGetTabs   = "getTabs"
	actionSwitchTab = "switchToTab"
	actionCloseTab  = "closeTab"
	actionPinTab    = "pinTab"
	actionCreateTab = "createTab"

	notifyCreated   = "tabCreated"
	notifyRemoved   = "tabRemoved"
	notifyUpdated   = "tabUpdated"
	notifyActivated = "tabActivated"

	responseType = "response"
)

type wireTab struct {
	ID           int    `json:"id"`
	WindowID     int    `json:"windowId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	FavIconURL   string `json:"favIconUrl"`
	Pinned       bool   `json:"pinned"`
	Active       bool   `json:"active"`
	LastAccessed int64  `json:"lastAccessed"` // unix millis, 0 if unknown
	Index        int    `json:"index"`
}

func (w wireTab) toTab() types.Tab {
	tab := types.Tab{
		ID:       w.ID,
		WindowID: w.WindowID,
		Title:    w.Title,
		URL:      w.URL,
		Favicon:  w.FavIconURL,
		Pinned:   w.Pinned,
		Active:   w.Active,
		Index:    w.Index,
	}
	if w.Title == "" {
		tab.Title = "Untitled"
	}
	if w.LastAccessed != 0 {
		tab.LastAccessed = time.UnixMilli(w.LastAccessed)
	}
	return tab
}

// parseTab converts a raw JSON tab into the canonical representation.
func parseTab(raw json.RawMessage) (types.Tab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return types.Tab{}, err
	}
	return wt.toTab(), nil
}

// parseTabs converts a raw JSON tab array.
func parseTabs(raw json.RawMessage) ([]types.Tab, error) {
	var wts []wireTab
	if err := json.Unmarshal(raw, &wts); err != nil {
		return nil, err
	}
	tabs := make([]types.Tab, len(wts))
	for i, wt := range wts {
		tabs[i] = wt.toTab()
	}
	return tabs, nil
}
