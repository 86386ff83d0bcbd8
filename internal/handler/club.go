package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/clubboard/internal/service"
)

// CreateClubRequest is the body of POST /clubs.
type CreateClubRequest struct {
	ClubName    string  `json:"clubName" validate:"required"`
	SchoolName  string  `json:"schoolName" validate:"required"`
	Description *string `json:"description"`
	Activities  *string `json:"activities"`
}

// UpdateClubRequest is the body of PUT /clubs/{id}. Omitted fields are kept.
type UpdateClubRequest struct {
	Description *string `json:"description"`
	Activities  *string `json:"activities"`
}

// UpdateMemberRequest is the body of PUT /clubs/{clubId}/members/{userId}.
type UpdateMemberRequest struct {
	Name     *string   `json:"name"`
	Username *string   `json:"username"`
	Alias    *string   `json:"alias"`
	Tags     *[]string `json:"tags"`
}

// ClubHandler serves /clubs.
type ClubHandler struct {
	clubs  *service.ClubService
	logger *slog.Logger
}

// NewClubHandler creates a ClubHandler.
func NewClubHandler(svc *service.ClubService, logger *slog.Logger) *ClubHandler {
	return &ClubHandler{clubs: svc, logger: logger}
}

// HandleList serves GET /clubs?search=.
func (h *ClubHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.clubs.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, clubs)
}

// HandleGet serves GET /clubs/{id}.
func (h *ClubHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	club, err := h.clubs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, club)
}

// HandleMembers serves GET /clubs/{id}/members.
func (h *ClubHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	members, err := h.clubs.ListMembers(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, members)
}

// HandleCreate serves POST /clubs.
func (h *ClubHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Create(r.Context(), service.CreateClubInput{
		ClubName:    req.ClubName,
		SchoolName:  req.SchoolName,
		Description: req.Description,
		Activities:  req.Activities,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, club)
}

// HandleUpdate serves PUT /clubs/{id}.
func (h *ClubHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req UpdateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.Update(r.Context(), id, service.UpdateClubInput{
		Description: req.Description,
		Activities:  req.Activities,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, club)
}

// HandleDelete serves DELETE /clubs/{id} (RequireAuth + RequireAdmin).
func (h *ClubHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.clubs.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "club deleted")
}

// HandleUpdateMember serves PUT /clubs/{clubId}/members/{userId}.
func (h *ClubHandler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req UpdateMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	err = h.clubs.UpdateMember(r.Context(), clubID, chi.URLParam(r, "userId"), service.UpdateMemberInput{
		Name:     req.Name,
		Username: req.Username,
		Alias:    req.Alias,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "member updated")
}
