package store

import "github.com/lotas/tabkorb/internal/types"

// Action is a declared state transition. Each variant carries its full
// payload; Reduce applies it to a snapshot and returns a new one.
type Action interface {
	isAction()
}

type SetLoading struct{ Loading bool }

// SetTabs replaces the full tab list.
type SetTabs struct{ Tabs []types.Tab }

type AddTab struct{ Tab types.Tab }

// RemoveTab drops a tab by id. It never touches the URL's assignment,
// which is what lets the category survive a close/reopen cycle.
type RemoveTab struct{ TabID int }

type UpdateTab struct {
	TabID int
	Tab   types.Tab
}

// SetActiveTab marks exactly one tab active; all others become inactive.
type SetActiveTab struct{ TabID int }

type SetCategories struct{ Categories []types.Category }

// AddCategory appends the category and its id to the category order.
type AddCategory struct{ Category types.Category }

type UpdateCategory struct{ Category types.Category }

// DeleteCategory removes the category from the set and the order, and
// reassigns every assignment pointing at it to uncategorized, in one
// transition.
type DeleteCategory struct{ CategoryID string }

// ReorderCategories replaces the category order wholesale. The caller is
// responsible for supplying a valid permutation; the store does not
// validate.
type ReorderCategories struct{ CategoryIDs []string }

type SetAssignments struct{ Assignments map[string]string }

type SetAssignment struct {
	URL        string
	CategoryID string
}

type RemoveAssignment struct{ URL string }

type SetTabOrder struct {
	CategoryID string
	TabIDs     []int
}

type SetView struct{ View View }

type SetSearchQuery struct{ Query string }

// LoadStorage bulk-loads categories, order, assignments and tab order from
// a persisted blob. Tabs are untouched.
type LoadStorage struct{ Data types.StorageData }

func (SetLoading) isAction()        {}
func (SetTabs) isAction()           {}
func (AddTab) isAction()            {}
func (RemoveTab) isAction()         {}
func (UpdateTab) isAction()         {}
func (SetActiveTab) isAction()      {}
func (SetCategories) isAction()     {}
func (AddCategory) isAction()       {}
func (UpdateCategory) isAction()    {}
func (DeleteCategory) isAction()    {}
func (ReorderCategories) isAction() {}
func (SetAssignments) isAction()    {}
func (SetAssignment) isAction()     {}
func (RemoveAssignment) isAction()  {}
func (SetTabOrder) isAction()       {}
func (SetView) isAction()           {}
func (SetSearchQuery) isAction()    {}
func (LoadStorage) isAction()       {}
