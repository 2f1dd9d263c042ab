package model

import (
	"time"

	"github.com/rowanvale/daybook/internal/richtext"
)

// TimeRange is a start/end pair of "HH:MM" 24-hour local times.
// start < end is enforced at the validation boundary, not here.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedule is one entry in a user's day plan. Place and Activity are
// rich text documents and may be null; CommentLink is an optional URL.
type Schedule struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	ScheduleDate string        `json:"schedule_date"` // YYYY-MM-DD
	TimeRange    TimeRange     `json:"time_range"`
	Place        *richtext.Doc `json:"place"`
	Activity     *richtext.Doc `json:"activity"`
	CommentLink  *string       `json:"comment_link"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewSchedule is the shape accepted by create: a Schedule minus the
// backend-assigned id and timestamps. UserID is filled in from the
// authenticated session, never from client input.
type NewSchedule struct {
	UserID       string
	ScheduleDate string
	TimeRange    TimeRange
	Place        *richtext.Doc
	Activity     *richtext.Doc
	CommentLink  *string
}

// UpdateSchedule is a partial update: only non-nil fields are changed,
// absent fields are left untouched. ID, owner and timestamps are not
// user-editable.
type UpdateSchedule struct {
	ScheduleDate *string
	TimeStart    *string
	TimeEnd      *string
	Place        *richtext.Doc
	PlaceSet     bool // distinguishes "clear place" from "leave untouched"
	Activity     *richtext.Doc
	ActivitySet  bool
	CommentLink  *string
	CommentSet   bool
}

// ScheduleQueryParams narrows a schedule list read: an inclusive date
// range plus pagination. Zero values mean "no restriction".
type ScheduleQueryParams struct {
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}
