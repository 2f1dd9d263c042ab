package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rowanvale/daybook/internal/model"
	"github.com/rowanvale/daybook/internal/richtext"
)

// ErrNotFound is returned when a lookup or mutation targets a row that
// does not exist, or that belongs to another user.
var ErrNotFound = errors.New("not found")

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const scheduleCols = `id, user_id, schedule_date, time_start, time_end, place, activity, comment_link, created_at, updated_at`

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var s model.Schedule
	var place, activity, commentLink sql.NullString

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.ScheduleDate, &s.TimeRange.Start, &s.TimeRange.End,
		&place, &activity, &commentLink, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if place.Valid {
		doc, err := richtext.Parse(place.String)
		if err != nil {
			return nil, fmt.Errorf("stored place: %w", err)
		}
		s.Place = doc
	}
	if activity.Valid {
		doc, err := richtext.Parse(activity.String)
		if err != nil {
			return nil, fmt.Errorf("stored activity: %w", err)
		}
		s.Activity = doc
	}
	if commentLink.Valid {
		s.CommentLink = &commentLink.String
	}
	return &s, nil
}

func docParam(d *richtext.Doc) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	s, err := d.Serialize()
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// Create inserts a new schedule for its owner and returns the stored row
// with the assigned id and timestamps.
func (s *ScheduleStore) Create(n model.NewSchedule) (*model.Schedule, error) {
	if n.UserID == "" {
		return nil, fmt.Errorf("create schedule: user id is required")
	}
	if n.ScheduleDate == "" || n.TimeRange.Start == "" || n.TimeRange.End == "" {
		return nil, fmt.Errorf("create schedule: date and time range are required")
	}

	place, err := docParam(n.Place)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	activity, err := docParam(n.Activity)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	var commentLink sql.NullString
	if n.CommentLink != nil {
		commentLink = sql.NullString{String: *n.CommentLink, Valid: true}
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO schedules (id, user_id, schedule_date, time_start, time_end, place, activity, comment_link)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.UserID, n.ScheduleDate, n.TimeRange.Start, n.TimeRange.End, place, activity, commentLink,
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	return s.GetByID(n.UserID, id)
}

// GetByID returns the schedule with the given id, scoped to its owner.
// Rows belonging to other users are indistinguishable from missing rows.
func (s *ScheduleStore) GetByID(userID, id string) (*model.Schedule, error) {
	row := s.db.QueryRow(
		`SELECT `+scheduleCols+` FROM schedules WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	return sched, nil
}

// List returns the user's schedules ascending by date, optionally narrowed
// to an inclusive date range and paginated.
func (s *ScheduleStore) List(userID string, params model.ScheduleQueryParams) ([]model.Schedule, error) {
	query := `SELECT ` + scheduleCols + ` FROM schedules WHERE user_id = ?`
	args := []any{userID}

	if params.StartDate != "" {
		query += ` AND schedule_date >= ?`
		args = append(args, params.StartDate)
	}
	if params.EndDate != "" {
		query += ` AND schedule_date <= ?`
		args = append(args, params.EndDate)
	}

	query += ` ORDER BY schedule_date ASC, time_start ASC`

	if params.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, params.Limit)
		if params.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, params.Offset)
		}
	} else if params.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, params.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sched)
	}
	return schedules, rows.Err()
}

// Update changes only the supplied fields of the user's schedule and
// re-stamps updated_at. Returns ErrNotFound if no owned row matches.
func (s *ScheduleStore) Update(userID, id string, upd model.UpdateSchedule) (*model.Schedule, error) {
	var set []string
	var args []any

	if upd.ScheduleDate != nil {
		set = append(set, "schedule_date = ?")
		args = append(args, *upd.ScheduleDate)
	}
	if upd.TimeStart != nil {
		set = append(set, "time_start = ?")
		args = append(args, *upd.TimeStart)
	}
	if upd.TimeEnd != nil {
		set = append(set, "time_end = ?")
		args = append(args, *upd.TimeEnd)
	}
	if upd.PlaceSet {
		place, err := docParam(upd.Place)
		if err != nil {
			return nil, fmt.Errorf("update schedule: %w", err)
		}
		set = append(set, "place = ?")
		args = append(args, place)
	}
	if upd.ActivitySet {
		activity, err := docParam(upd.Activity)
		if err != nil {
			return nil, fmt.Errorf("update schedule: %w", err)
		}
		set = append(set, "activity = ?")
		args = append(args, activity)
	}
	if upd.CommentSet {
		var commentLink sql.NullString
		if upd.CommentLink != nil {
			commentLink = sql.NullString{String: *upd.CommentLink, Valid: true}
		}
		set = append(set, "comment_link = ?")
		args = append(args, commentLink)
	}

	set = append(set, "updated_at = datetime('now')")
	args = append(args, id, userID)

	result, err := s.db.Exec(
		`UPDATE schedules SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(userID, id)
}

// Delete removes the user's schedule. A second delete of the same id
// returns ErrNotFound.
func (s *ScheduleStore) Delete(userID, id string) error {
	result, err := s.db.Exec(`DELETE FROM schedules WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
