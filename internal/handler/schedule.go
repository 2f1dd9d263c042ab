package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rowanvale/daybook/internal/auth"
	"github.com/rowanvale/daybook/internal/model"
	"github.com/rowanvale/daybook/internal/panel"
	"github.com/rowanvale/daybook/internal/richtext"
	"github.com/rowanvale/daybook/internal/store"
	ws "github.com/rowanvale/daybook/internal/websocket"
)

type ScheduleHandler struct {
	panels *panel.Registry
	hub    *ws.Hub
	logger *slog.Logger
}

func NewScheduleHandler(panels *panel.Registry, hub *ws.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{panels: panels, hub: hub, logger: logger}
}

type scheduleRequest struct {
	ScheduleDate string  `json:"schedule_date"`
	TimeStart    string  `json:"time_start"`
	TimeEnd      string  `json:"time_end"`
	Place        *string `json:"place"`
	Activity     *string `json:"activity"`
	CommentLink  *string `json:"comment_link"`
}

// scheduleUpdateRequest is the partial-update body. RawMessage fields
// distinguish "absent" (leave untouched) from an explicit null (clear).
type scheduleUpdateRequest struct {
	ScheduleDate *string         `json:"schedule_date"`
	TimeStart    *string         `json:"time_start"`
	TimeEnd      *string         `json:"time_end"`
	Place        json.RawMessage `json:"place"`
	Activity     json.RawMessage `json:"activity"`
	CommentLink  json.RawMessage `json:"comment_link"`
}

func (h *ScheduleHandler) sessionPanel(r *http.Request) *panel.Panel {
	ac, _ := auth.FromContext(r.Context())
	return h.panels.For(ac.SessionToken, ac.UserID)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.ScheduleDate == "" || req.TimeStart == "" || req.TimeEnd == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date and time range are required"})
		return
	}
	if !validDate(req.ScheduleDate) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "schedule_date must be YYYY-MM-DD"})
		return
	}
	if !validClock(req.TimeStart) || !validClock(req.TimeEnd) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "times must be HH:MM"})
		return
	}
	if req.TimeStart >= req.TimeEnd {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time range start must be before end"})
		return
	}

	place, err := parseDocString(req.Place)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "place is not valid rich text"})
		return
	}
	activity, err := parseDocString(req.Activity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "activity is not valid rich text"})
		return
	}

	p := h.sessionPanel(r)
	sched, err := p.Data.Create(model.NewSchedule{
		ScheduleDate: req.ScheduleDate,
		TimeRange:    model.TimeRange{Start: req.TimeStart, End: req.TimeEnd},
		Place:        place,
		Activity:     activity,
		CommentLink:  req.CommentLink,
	})
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create schedule"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("schedule", "created", sched.ID))
	writeJSON(w, http.StatusCreated, sched)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var params *model.ScheduleQueryParams
	if q.Has("start_date") || q.Has("end_date") || q.Has("limit") || q.Has("offset") {
		p := model.ScheduleQueryParams{
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
		}
		if p.StartDate != "" && !validDate(p.StartDate) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		if p.EndDate != "" && !validDate(p.EndDate) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
				return
			}
			p.Limit = n
		}
		if v := q.Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a non-negative integer"})
				return
			}
			p.Offset = n
		}
		params = &p
	}

	p := h.sessionPanel(r)
	p.Data.Fetch(params)
	writeJSON(w, http.StatusOK, p.Data.Snapshot())
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p := h.sessionPanel(r)
	sched, err := p.Data.FetchByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req scheduleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	p := h.sessionPanel(r)

	existing, err := p.Data.FetchByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return
	}

	upd := model.UpdateSchedule{
		ScheduleDate: req.ScheduleDate,
		TimeStart:    req.TimeStart,
		TimeEnd:      req.TimeEnd,
	}

	if req.ScheduleDate != nil && !validDate(*req.ScheduleDate) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "schedule_date must be YYYY-MM-DD"})
		return
	}

	// Check the effective time range, merging supplied bounds over stored ones.
	start, end := existing.TimeRange.Start, existing.TimeRange.End
	if req.TimeStart != nil {
		if !validClock(*req.TimeStart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "times must be HH:MM"})
			return
		}
		start = *req.TimeStart
	}
	if req.TimeEnd != nil {
		if !validClock(*req.TimeEnd) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "times must be HH:MM"})
			return
		}
		end = *req.TimeEnd
	}
	if start >= end {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time range start must be before end"})
		return
	}

	if req.Place != nil {
		doc, err := parseDocRaw(req.Place)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "place is not valid rich text"})
			return
		}
		upd.PlaceSet = true
		upd.Place = doc
	}
	if req.Activity != nil {
		doc, err := parseDocRaw(req.Activity)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "activity is not valid rich text"})
			return
		}
		upd.ActivitySet = true
		upd.Activity = doc
	}
	if req.CommentLink != nil {
		var link *string
		if err := json.Unmarshal(req.CommentLink, &link); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "comment_link must be a string or null"})
			return
		}
		upd.CommentSet = true
		upd.CommentLink = link
	}

	sched, err := p.Data.Update(id, upd)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update schedule"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("schedule", "updated", sched.ID))
	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p := h.sessionPanel(r)
	err := p.Data.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete schedule"})
		return
	}

	h.hub.Broadcast(ws.NewMessage("schedule", "deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

// parseDocString handles create bodies where place/activity arrive as a
// serialized rich text string; "" and null both mean "no content".
func parseDocString(s *string) (*richtext.Doc, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	return richtext.Parse(*s)
}

// parseDocRaw handles update bodies where the field is present: an
// explicit null clears the document, a string replaces it.
func parseDocRaw(raw json.RawMessage) (*richtext.Doc, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return parseDocString(s)
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
