package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rowanvale/daybook/internal/auth"
	"github.com/rowanvale/daybook/internal/panel"
	"github.com/rowanvale/daybook/internal/store"
)

// PanelHandler exposes the per-session panel state over HTTP. Every
// response carries the combined snapshot so view fragments can rerender
// from a single round trip.
type PanelHandler struct {
	panels *panel.Registry
	logger *slog.Logger
}

func NewPanelHandler(panels *panel.Registry, logger *slog.Logger) *PanelHandler {
	return &PanelHandler{panels: panels, logger: logger}
}

type panelSnapshot struct {
	Data panel.DataSnapshot `json:"data"`
	UI   panel.UISnapshot   `json:"ui"`
}

func (h *PanelHandler) sessionPanel(r *http.Request) *panel.Panel {
	ac, _ := auth.FromContext(r.Context())
	return h.panels.For(ac.SessionToken, ac.UserID)
}

func snapshot(p *panel.Panel) panelSnapshot {
	return panelSnapshot{Data: p.Data.Snapshot(), UI: p.UI.Snapshot()}
}

func (h *PanelHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshot(h.sessionPanel(r)))
}

func (h *PanelHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ViewState panel.ViewState `json:"view_state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !req.ViewState.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown view state"})
		return
	}

	p := h.sessionPanel(r)
	p.UI.SetViewState(req.ViewState)
	writeJSON(w, http.StatusOK, snapshot(p))
}

func (h *PanelHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilterDate string `json:"filter_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.FilterDate != "" && !validDate(req.FilterDate) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filter_date must be YYYY-MM-DD"})
		return
	}

	// Only the stored filter changes; the caller refetches when ready.
	p := h.sessionPanel(r)
	p.Data.SetFilterDate(req.FilterDate)
	writeJSON(w, http.StatusOK, snapshot(p))
}

// Refresh refetches the schedule list using the stored filter date.
func (h *PanelHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	p := h.sessionPanel(r)
	p.Data.Fetch(nil)
	writeJSON(w, http.StatusOK, snapshot(p))
}

func (h *PanelHandler) OpenAddModal(w http.ResponseWriter, r *http.Request) {
	p := h.sessionPanel(r)
	p.UI.OpenAddModal()
	writeJSON(w, http.StatusOK, snapshot(p))
}

func (h *PanelHandler) OpenEditModal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p := h.sessionPanel(r)

	// Prefer the cached entry; fall back to a direct read for deep links.
	for _, s := range p.Data.Snapshot().Schedules {
		if s.ID == id {
			p.UI.OpenEditModal(s)
			writeJSON(w, http.StatusOK, snapshot(p))
			return
		}
	}

	sched, err := p.Data.FetchByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return
	}

	p.UI.OpenEditModal(*sched)
	writeJSON(w, http.StatusOK, snapshot(p))
}

func (h *PanelHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	p := h.sessionPanel(r)
	p.UI.CloseModal()
	writeJSON(w, http.StatusOK, snapshot(p))
}

// Reset restores the presentation state for a fresh page mount.
func (h *PanelHandler) Reset(w http.ResponseWriter, r *http.Request) {
	p := h.sessionPanel(r)
	p.Reset()
	writeJSON(w, http.StatusOK, snapshot(p))
}
