package panel

import (
	"sync"

	"github.com/rowanvale/daybook/internal/model"
)

// ViewState governs the split-pane layout of the schedule panel. All three
// states are reachable from each other; transitions are plain assignments.
type ViewState string

const (
	ViewDefault          ViewState = "default"
	ViewFullPreview      ViewState = "full-preview"
	ViewCollapsedPreview ViewState = "collapsed-preview"
)

// Valid reports whether v is one of the three known layout states.
func (v ViewState) Valid() bool {
	switch v {
	case ViewDefault, ViewFullPreview, ViewCollapsedPreview:
		return true
	}
	return false
}

// UIStore holds transient presentation state shared across view fragments
// (manager list, preview pane, form modal). It never fails: every method
// is a pure in-memory assignment.
type UIStore struct {
	mu        sync.Mutex
	viewState ViewState
	modalOpen bool
	selected  *model.Schedule
	editMode  bool
}

// UISnapshot is the view-facing read model of the UI store.
type UISnapshot struct {
	ViewState ViewState       `json:"view_state"`
	ModalOpen bool            `json:"modal_open"`
	Selected  *model.Schedule `json:"selected_schedule"`
	EditMode  bool            `json:"edit_mode"`
}

func NewUIStore() *UIStore {
	return &UIStore{viewState: ViewDefault}
}

func (u *UIStore) Snapshot() UISnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UISnapshot{
		ViewState: u.viewState,
		ModalOpen: u.modalOpen,
		Selected:  u.selected,
		EditMode:  u.editMode,
	}
}

// OpenAddModal opens the form modal for a new entry, clearing any prior
// selection.
func (u *UIStore) OpenAddModal() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modalOpen = true
	u.selected = nil
	u.editMode = false
}

// OpenEditModal opens the form modal pre-filled with the given schedule.
func (u *UIStore) OpenEditModal(s model.Schedule) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modalOpen = true
	u.selected = &s
	u.editMode = true
}

// CloseModal closes the modal. Selection and edit mode are left as-is:
// nothing reads them while the modal is closed, and the next open call
// always overwrites them.
func (u *UIStore) CloseModal() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modalOpen = false
}

// SetViewState assigns the layout state unconditionally.
func (u *UIStore) SetViewState(v ViewState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.viewState = v
}

// Reset restores all fields to their initial defaults. Called on page
// mount so a reused view fragment starts from a clean slate.
func (u *UIStore) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.viewState = ViewDefault
	u.modalOpen = false
	u.selected = nil
	u.editMode = false
}
