package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/clubboard/internal/auth"
	"github.com/sakif/clubboard/internal/service"
)

// SignupRequest is the body of POST /auth/signUp. alias and nickname are
// accepted as synonyms; older clients send one, newer ones the other.
type SignupRequest struct {
	Username   string  `json:"username" validate:"required"`
	Password   string  `json:"password" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Alias      *string `json:"alias"`
	Nickname   *string `json:"nickname"`
	SchoolName *string `json:"schoolName"`
	ClubName   *string `json:"clubName"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler serves account registration, login and the caller's profile.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

// HandleSignup registers a new account.
//
// HTTP: POST /auth/signUp → 201 {"data":{"userId":"..."}}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.auth.Signup(r.Context(), service.SignupInput{
		Username:   req.Username,
		Password:   req.Password,
		Name:       req.Name,
		Alias:      req.Alias,
		Nickname:   req.Nickname,
		SchoolName: req.SchoolName,
		ClubName:   req.ClubName,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: "signup successful",
		Data:    map[string]string{"userId": id},
	})
}

// HandleLogin exchanges credentials for a bearer token.
//
// HTTP: POST /auth/login → 200 {"data":{"token":"...","user":{...}}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.auth.Me(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, me)
}

// callerID is the authenticated user's id, or "" for an anonymous request.
func callerID(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.ID
	}
	return ""
}
