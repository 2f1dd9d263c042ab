// Package panel holds the per-session state behind the schedule panel UI:
// a data store caching the user's visible schedules and a UI store for
// transient presentation state. Both are shared by independently-rendered
// view fragments, so all state lives here rather than in any one view.
package panel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rowanvale/daybook/internal/model"
)

// Backend is the storage collaborator the data store proxies to.
type Backend interface {
	List(userID string, params model.ScheduleQueryParams) ([]model.Schedule, error)
	GetByID(userID, id string) (*model.Schedule, error)
	Create(n model.NewSchedule) (*model.Schedule, error)
	Update(userID, id string, upd model.UpdateSchedule) (*model.Schedule, error)
	Delete(userID, id string) error
}

// DataStore is the single source of truth for one user's visible schedule
// set. Every read/write goes through it so the cache stays consistent with
// the backend. Failures are normalized into the Error field of the
// snapshot; callers also get them as return values for status mapping, but
// nothing panics through to the view layer.
type DataStore struct {
	mu      sync.Mutex
	backend Backend
	userID  string
	logger  *slog.Logger

	schedules  []model.Schedule
	loading    bool
	errMsg     string
	filterDate string

	// Fetch generations: a fetch result is applied only if no newer fetch
	// has already been applied, so an older in-flight request can never
	// overwrite a newer one.
	fetchSeq     uint64
	fetchApplied uint64
}

// DataSnapshot is the view-facing read model of the data store.
type DataSnapshot struct {
	Schedules  []model.Schedule `json:"schedules"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
	FilterDate string           `json:"filter_date,omitempty"`
}

// NewDataStore creates a data store bound to one user. The filter date
// defaults to today.
func NewDataStore(backend Backend, userID string, logger *slog.Logger) *DataStore {
	return &DataStore{
		backend:    backend,
		userID:     userID,
		logger:     logger,
		filterDate: time.Now().Format("2006-01-02"),
	}
}

// Snapshot returns a copy of the current state. The schedules slice is
// copied so views never observe a mid-mutation cache.
func (d *DataStore) Snapshot() DataSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	schedules := make([]model.Schedule, len(d.schedules))
	copy(schedules, d.schedules)

	return DataSnapshot{
		Schedules:  schedules,
		Loading:    d.loading,
		Error:      d.errMsg,
		FilterDate: d.filterDate,
	}
}

// Fetch replaces the cache with a filtered list read. Explicit params win
// over the stored filter date; if neither supplies a bound, the bound is
// omitted. On failure the previous schedules stay visible and only the
// error message changes.
func (d *DataStore) Fetch(params *model.ScheduleQueryParams) {
	d.mu.Lock()
	d.fetchSeq++
	seq := d.fetchSeq
	d.loading = true
	d.errMsg = ""

	var q model.ScheduleQueryParams
	if params != nil {
		q = *params
	}
	if q.StartDate == "" {
		q.StartDate = d.filterDate
	}
	if q.EndDate == "" {
		q.EndDate = d.filterDate
	}
	userID := d.userID
	d.mu.Unlock()

	schedules, err := d.backend.List(userID, q)

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq <= d.fetchApplied {
		// A newer fetch already resolved; this result is stale.
		return
	}
	d.fetchApplied = seq
	d.loading = seq != d.fetchSeq

	if err != nil {
		d.logger.Error("fetch schedules", "error", err)
		d.errMsg = "Failed to fetch schedules"
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	d.schedules = schedules
}

// FetchByID is a one-shot read that does not touch the cached list.
func (d *DataStore) FetchByID(id string) (*model.Schedule, error) {
	d.setLoading()

	sched, err := d.backend.GetByID(d.userID, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.logger.Error("fetch schedule by id", "id", id, "error", err)
		d.errMsg = "Failed to fetch schedule"
		return nil, err
	}
	return sched, nil
}

// Create submits a new schedule and, on success, appends it to the end of
// the cached list. The owner is always the store's bound user.
func (d *DataStore) Create(n model.NewSchedule) (*model.Schedule, error) {
	d.setLoading()
	n.UserID = d.userID

	sched, err := d.backend.Create(n)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.logger.Error("create schedule", "error", err)
		d.errMsg = "Failed to create schedule"
		return nil, err
	}
	d.schedules = append(d.schedules, *sched)
	return sched, nil
}

// Update submits a partial update and, on success, replaces the matching
// cache entry in place. If the entry is not cached the list is left alone
// until the next fetch.
func (d *DataStore) Update(id string, upd model.UpdateSchedule) (*model.Schedule, error) {
	d.setLoading()

	sched, err := d.backend.Update(d.userID, id, upd)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.logger.Error("update schedule", "id", id, "error", err)
		d.errMsg = "Failed to update schedule"
		return nil, err
	}
	for i := range d.schedules {
		if d.schedules[i].ID == id {
			d.schedules[i] = *sched
			break
		}
	}
	return sched, nil
}

// Delete removes the schedule and its cache entry. The cache is untouched
// on failure.
func (d *DataStore) Delete(id string) error {
	d.setLoading()

	err := d.backend.Delete(d.userID, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.logger.Error("delete schedule", "id", id, "error", err)
		d.errMsg = "Failed to delete schedule"
		return err
	}
	for i := range d.schedules {
		if d.schedules[i].ID == id {
			d.schedules = append(d.schedules[:i], d.schedules[i+1:]...)
			break
		}
	}
	return nil
}

// SetFilterDate changes the stored filter without fetching. Callers decide
// when to refetch, so several filter changes can be batched into one read.
// An empty date means "no date restriction".
func (d *DataStore) SetFilterDate(date string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filterDate = date
}

func (d *DataStore) ClearError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errMsg = ""
}

func (d *DataStore) ClearSchedules() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schedules = nil
}

func (d *DataStore) setLoading() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = true
	d.errMsg = ""
}
