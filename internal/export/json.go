package export

import (
	"encoding/json"
	"net/url"
	"time"
)

type jsonExport struct {
	ExportedAt time.Time   `json:"exported_at"`
	Categories []jsonGroup `json:"categories"`
}

type jsonGroup struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Tabs []jsonTab `json:"tabs"`
}

type jsonTab struct {
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Domain             string    `json:"domain"`
	Pinned             bool      `json:"pinned,omitempty"`
	LastAccessed       time.Time `json:"last_accessed,omitempty"`
	LastAccessedPretty string    `json:"last_accessed_pretty,omitempty"`
}

// JSON formats the grouped tabs as an indented JSON document.
func JSON(groups []Group) (string, error) {
	out := jsonExport{
		ExportedAt: time.Now(),
		Categories: make([]jsonGroup, 0, len(groups)),
	}

	for _, g := range groups {
		group := jsonGroup{
			ID:   g.Category.ID,
			Name: g.Category.Name,
			Tabs: make([]jsonTab, 0, len(g.Tabs)),
		}
		for _, tab := range g.Tabs {
			jt := jsonTab{
				Title:  tab.Title,
				URL:    tab.URL,
				Domain: extractDomain(tab.URL),
				Pinned: tab.Pinned,
			}
			if !tab.LastAccessed.IsZero() {
				jt.LastAccessed = tab.LastAccessed
				jt.LastAccessedPretty = relativeTime(tab.LastAccessed)
			}
			group.Tabs = append(group.Tabs, jt)
		}
		out.Categories = append(out.Categories, group)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
