package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/clubboard/internal/service"
)

// CommentRequest is the body of POST /comments/{postId} and
// PUT /comments/{id}. authorId may be omitted when a bearer token is sent.
type CommentRequest struct {
	Content  string `json:"content" validate:"required"`
	AuthorID string `json:"authorId"`
}

// DeleteCommentRequest is the optional body of DELETE /comments/{id}.
type DeleteCommentRequest struct {
	AuthorID string `json:"authorId"`
}

// CommentHandler serves /comments. Routes run under OptionalAuth: a valid
// token pins the author to the caller, otherwise the authorId from the
// request is used as-is.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(svc *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: svc, logger: logger}
}

// HandleList serves GET /comments?postId=.
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), r.URL.Query().Get("postId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, comments)
}

// HandleCreate serves POST /comments/{postId}.
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	authorID, err := service.ResolveAuthor(callerID(r), req.AuthorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), chi.URLParam(r, "postId"), req.Content, authorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, comment)
}

// HandleUpdate serves PUT /comments/{id}.
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	authorID, err := service.ResolveAuthor(callerID(r), req.AuthorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), id, req.Content, authorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, comment)
}

// HandleDelete serves DELETE /comments/{id}. The author id comes from the
// JSON body when present, else from ?authorId=.
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req DeleteCommentRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	supplied := req.AuthorID
	if supplied == "" {
		supplied = r.URL.Query().Get("authorId")
	}
	authorID, err := service.ResolveAuthor(callerID(r), supplied)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.comments.Delete(r.Context(), id, authorID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "comment deleted")
}
