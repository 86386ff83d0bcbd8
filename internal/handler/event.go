package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/clubboard/internal/service"
)

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Title            *string `json:"title" validate:"required"`
	Category         *string `json:"category" validate:"required"`
	Difficulty       *string `json:"difficulty" validate:"required"`
	ClubName         *string `json:"clubName"`
	Field            *string `json:"field"`
	EventDate        *string `json:"eventDate"`
	RecruitmentCount *int    `json:"recruitmentCount" validate:"omitempty,gte=0"`
	Description      *string `json:"description"`
}

// UpdateEventRequest is the body of PUT /events/{id}. Every field is
// optional; omitted ones keep their stored value.
type UpdateEventRequest struct {
	Title            *string `json:"title"`
	Category         *string `json:"category"`
	Difficulty       *string `json:"difficulty"`
	ClubName         *string `json:"clubName"`
	Field            *string `json:"field"`
	EventDate        *string `json:"eventDate"`
	RecruitmentCount *int    `json:"recruitmentCount" validate:"omitempty,gte=0"`
	Description      *string `json:"description"`
}

// StatusRequest is the body of PATCH /events/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EventHandler serves /events.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: svc, logger: logger}
}

// HandleList serves GET /events with optional filters
// category, difficulty, status, clubName, field, eventDate and keyword.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.events.List(r.Context(), service.ListEventsInput{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Status:     q.Get("status"),
		ClubName:   q.Get("clubName"),
		Field:      q.Get("field"),
		EventDate:  q.Get("eventDate"),
		Keyword:    q.Get("keyword"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, events)
}

// HandleGet serves GET /events/{id}.
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, event)
}

// HandleCreate serves POST /events (RequireAuth). The caller becomes the
// author.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Create(r.Context(), callerID(r), service.EventInput{
		Title:            req.Title,
		Category:         req.Category,
		Difficulty:       req.Difficulty,
		ClubName:         req.ClubName,
		Field:            req.Field,
		EventDate:        req.EventDate,
		RecruitmentCount: req.RecruitmentCount,
		Description:      req.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, event)
}

// HandleUpdate serves PUT /events/{id} (RequireAuth, author only).
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), service.EventInput(req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, event)
}

// HandleDelete serves DELETE /events/{id} (RequireAuth, author only).
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "event deleted")
}

// HandleSetStatus serves PATCH /events/{id}/status (RequireAuth, author
// only).
func (h *EventHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	event, err := h.events.SetStatus(r.Context(), callerID(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, event)
}
