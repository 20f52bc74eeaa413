package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lotas/tabkorb/internal/types"
)

// DefaultKey is the well-known key the blob lives under.
const DefaultKey = "tabkorbData"

const (
	// MaxAssignments bounds the persisted assignment list. When exceeded,
	// the oldest entries by assignment timestamp are evicted.
	MaxAssignments = 1000
	// MaxURLMemory bounds the URL memory list, truncated oldest-first by
	// insertion order.
	MaxURLMemory = 500
)

// Gateway is the typed load/save/subscribe wrapper over an Area. Every
// write is a full load-modify-save cycle against the backing store;
// in-process cycles are serialized by a single-writer mutex, so only
// writers in other processes can still race (last write wins).
type Gateway struct {
	area Area
	key  string

	writeMu chanLock

	// now is a hook for tests that exercise timestamp-based eviction.
	now func() time.Time
}

// chanLock is a context-aware mutex.
type chanLock chan struct{}

func (l chanLock) lock(ctx context.Context) error {
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l chanLock) unlock() { <-l }

// NewGateway creates a Gateway over area using the well-known key.
func NewGateway(area Area) *Gateway {
	return &Gateway{
		area:    area,
		key:     DefaultKey,
		writeMu: make(chanLock, 1),
		now:     time.Now,
	}
}

// Load fetches the blob. An absent blob is replaced by the built-in
// defaults, which are written back before returning, so Load always
// returns a fully populated structure. Calling Load repeatedly on an
// untouched store returns the same defaults each time.
func (g *Gateway) Load(ctx context.Context) (types.StorageData, error) {
	raw, ok, err := g.area.Get(ctx, g.key)
	if err != nil {
		return types.StorageData{}, fmt.Errorf("load blob: %w", err)
	}
	if !ok {
		data := types.DefaultStorageData()
		if err := g.Save(ctx, data); err != nil {
			return types.StorageData{}, fmt.Errorf("write defaults: %w", err)
		}
		return data, nil
	}

	var data types.StorageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return types.StorageData{}, fmt.Errorf("decode blob: %w", err)
	}
	if data.TabOrder == nil {
		data.TabOrder = map[string][]int{}
	}
	return data, nil
}

// Save overwrites the blob with a single Set.
func (g *Gateway) Save(ctx context.Context, data types.StorageData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}
	if err := g.area.Set(ctx, g.key, raw); err != nil {
		return fmt.Errorf("save blob: %w", err)
	}
	return nil
}

// Assignment returns the stored category for a URL, with ok=false when the
// URL has never been assigned.
func (g *Gateway) Assignment(ctx context.Context, url string) (string, bool, error) {
	data, err := g.Load(ctx)
	if err != nil {
		return "", false, err
	}
	for _, a := range data.Assignments {
		if a.URL == url {
			return a.CategoryID, true, nil
		}
	}
	return "", false, nil
}

// SetAssignment records url -> categoryID with the current timestamp. When
// the assignment count exceeds MaxAssignments, the oldest entries by
// AssignedAt are evicted down to the ceiling; the most recent writes are
// never evicted.
func (g *Gateway) SetAssignment(ctx context.Context, url, categoryID string) error {
	return g.modify(ctx, func(data *types.StorageData) {
		assignment := types.Assignment{URL: url, CategoryID: categoryID, AssignedAt: g.now()}
		replaced := false
		for i, a := range data.Assignments {
			if a.URL == url {
				data.Assignments[i] = assignment
				replaced = true
				break
			}
		}
		if !replaced {
			data.Assignments = append(data.Assignments, assignment)
		}

		if len(data.Assignments) > MaxAssignments {
			sort.SliceStable(data.Assignments, func(i, j int) bool {
				return data.Assignments[i].AssignedAt.After(data.Assignments[j].AssignedAt)
			})
			data.Assignments = data.Assignments[:MaxAssignments]
		}
	})
}

// RemoveAssignment deletes the assignment for url, if any.
func (g *Gateway) RemoveAssignment(ctx context.Context, url string) error {
	return g.modify(ctx, func(data *types.StorageData) {
		kept := data.Assignments[:0]
		for _, a := range data.Assignments {
			if a.URL != url {
				kept = append(kept, a)
			}
		}
		data.Assignments = kept
	})
}

// URLMemory returns the remembered category for a URL pattern. Matching is
// by exact pattern for now.
func (g *Gateway) URLMemory(ctx context.Context, url string) (string, bool, error) {
	data, err := g.Load(ctx)
	if err != nil {
		return "", false, err
	}
	for _, m := range data.URLMemory {
		if m.URLPattern == url {
			return m.CategoryID, true, nil
		}
	}
	return "", false, nil
}

// SetURLMemory records url -> categoryID in the URL memory, truncating
// oldest-first when the list exceeds MaxURLMemory.
func (g *Gateway) SetURLMemory(ctx context.Context, url, categoryID string) error {
	return g.modify(ctx, func(data *types.StorageData) {
		for i, m := range data.URLMemory {
			if m.URLPattern == url {
				data.URLMemory[i].CategoryID = categoryID
				return
			}
		}
		data.URLMemory = append(data.URLMemory, types.URLMemory{URLPattern: url, CategoryID: categoryID})
		if len(data.URLMemory) > MaxURLMemory {
			data.URLMemory = data.URLMemory[len(data.URLMemory)-MaxURLMemory:]
		}
	})
}

// UpdateTabOrder replaces the per-category tab order.
func (g *Gateway) UpdateTabOrder(ctx context.Context, categoryID string, tabIDs []int) error {
	return g.modify(ctx, func(data *types.StorageData) {
		if data.TabOrder == nil {
			data.TabOrder = map[string][]int{}
		}
		data.TabOrder[categoryID] = tabIDs
	})
}

// UpdateCategoryOrder replaces the global category order.
func (g *Gateway) UpdateCategoryOrder(ctx context.Context, categoryIDs []string) error {
	return g.modify(ctx, func(data *types.StorageData) {
		data.CategoryOrder = categoryIDs
	})
}

// Update applies an arbitrary mutation to the blob in one
// load-modify-save cycle. Used for compound writes that must be atomic
// from the caller's perspective, like category deletion.
func (g *Gateway) Update(ctx context.Context, fn func(*types.StorageData)) error {
	return g.modify(ctx, fn)
}

// OnChanged subscribes to change notifications for the well-known key.
func (g *Gateway) OnChanged(fn func()) func() {
	return g.area.Subscribe(g.key, fn)
}

func (g *Gateway) modify(ctx context.Context, fn func(*types.StorageData)) error {
	if err := g.writeMu.lock(ctx); err != nil {
		return err
	}
	defer g.writeMu.unlock()

	data, err := g.Load(ctx)
	if err != nil {
		return err
	}
	fn(&data)
	return g.Save(ctx, data)
}
