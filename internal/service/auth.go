// Package service contains the business rules of the board.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler    (HTTP layer)     → decodes requests, writes the envelope
//	Service    (business layer) → validates, checks ownership, orchestrates
//	Repository (data layer)     → reads/writes SQLite
//
// Services accept plain Go values and return domain errors from
// internal/apperror. They never see an *http.Request and never pick a status
// code; the handler layer maps errors to HTTP.
//
// Every service takes repository interfaces, not *sqlite.DB, so the tests in
// this package run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/auth"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

// Account limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
	MaxNameLength     = 100
)

// msgBadCredentials is shared by "no such user" and "wrong password" so a
// caller cannot probe which usernames exist.
const msgBadCredentials = "invalid username or password"

// SignupInput is a registration request. Alias and Nickname are two names
// for the same field; Nickname wins when both are sent.
type SignupInput struct {
	Username   string
	Password   string
	Name       string
	Alias      *string
	Nickname   *string
	SchoolName *string
	ClubName   *string
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// AuthService registers accounts and issues tokens.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// Signup validates in, hashes the password and stores a new member account.
// It returns the new user's id.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)

	switch {
	case username == "":
		return "", apperror.ValidationFailed("username", "username is required")
	case in.Password == "":
		return "", apperror.ValidationFailed("password", "password is required")
	case name == "":
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return "", apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	// Cheap pre-check for a friendly error; the UNIQUE constraint still
	// catches a concurrent signup for the same name.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return "", apperror.Conflict("username", username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return "", fmt.Errorf("checking username: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	alias := firstNonBlank(in.Nickname, in.Alias)
	if alias == nil {
		alias = &name
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Alias:        alias,
		SchoolName:   trimmedOrNil(in.SchoolName),
		ClubName:     trimmedOrNil(in.ClubName),
		Role:         model.RoleMember,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create user",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		}
		return "", err
	}

	s.logger.Info("user signed up",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)
	return user.ID, nil
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("username", "username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	token, err := s.tokens.Generate(auth.Identity{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Alias:    user.DisplayAlias(),
	})
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return &LoginResult{Token: token, User: user.Public()}, nil
}

// Me returns the public profile of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.PublicUser, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}
