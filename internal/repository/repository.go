// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
//
// Every method that can miss returns an error wrapping apperror.ErrNotFound;
// uniqueness violations come back wrapping apperror.ErrConflict. Anything
// else is an opaque store failure.
package repository

import (
	"context"
	"time"

	"github.com/sakif/clubboard/internal/model"
)

// UserRepository persists accounts and their club membership.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// ListByClub returns the members of a club ordered president, staff,
	// member, then by id.
	ListByClub(ctx context.Context, clubName string) ([]model.User, error)
	// UpdateMember writes name, username, alias, tags, role and the staff
	// flag. It does not touch credentials or club membership.
	UpdateMember(ctx context.Context, user *model.User) error
}

// ClubRepository persists clubs.
type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	GetByID(ctx context.Context, id int64) (*model.Club, error)
	GetByName(ctx context.Context, clubName string) (*model.Club, error)
	// List returns clubs whose name, description or school contains search
	// (case-insensitive). An empty search returns every club.
	List(ctx context.Context, search string) ([]model.Club, error)
	Update(ctx context.Context, club *model.Club) error
	// Delete removes the club and detaches its members in one transaction.
	Delete(ctx context.Context, id int64) error
}

// EventFilter narrows an event listing. Zero values mean "no constraint".
type EventFilter struct {
	Category   model.Category
	Difficulty model.Difficulty
	Status     model.EventStatus
	ClubName   string
	Field      string
	EventDate  string
	Keyword    string
}

// EventRepository persists recruiting posts.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// List returns events newest first, joined with their author.
	List(ctx context.Context, filter EventFilter) ([]model.Event, error)
	ListByClub(ctx context.Context, clubName string) ([]model.EventSummary, error)
	Update(ctx context.Context, event *model.Event) error
	UpdateStatus(ctx context.Context, id string, status model.EventStatus, at time.Time) error
	// Delete removes the event; its comments go with it.
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists comments on events.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	// ListByPost returns an event's comments oldest first.
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	Update(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id int64) error
}
