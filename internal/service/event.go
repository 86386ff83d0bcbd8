package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

const (
	MaxTitleLength      = 200
	MaxEventTextLength  = 5000
	MaxEventFieldLength = 100
	MaxRecruitmentCount = 10000
)

const msgNotEventAuthor = "only the author can modify this event"

// EventInput carries the writable fields of an event. On create, Title,
// Category and Difficulty are required. On update every nil field keeps its
// stored value.
type EventInput struct {
	Title            *string
	Category         *string
	Difficulty       *string
	ClubName         *string
	Field            *string
	EventDate        *string
	RecruitmentCount *int
	Description      *string
}

// ListEventsInput holds the optional listing filters as received from the
// query string.
type ListEventsInput struct {
	Category   string
	Difficulty string
	Status     string
	ClubName   string
	Field      string
	EventDate  string
	Keyword    string
}

// EventService manages recruiting posts.
type EventService struct {
	events repository.EventRepository
	clubs  repository.ClubRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewEventService creates an EventService.
func NewEventService(events repository.EventRepository, clubs repository.ClubRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, clubs: clubs, logger: logger, now: time.Now}
}

// List returns events newest first, narrowed by in.
func (s *EventService) List(ctx context.Context, in ListEventsInput) ([]model.Event, error) {
	var (
		filter repository.EventFilter
		err    error
	)
	if filter.Category, err = parseCategory(foldEnum(in.Category)); err != nil {
		return nil, err
	}
	if filter.Difficulty, err = parseDifficulty(foldEnum(in.Difficulty)); err != nil {
		return nil, err
	}
	if filter.Status, err = parseStatus(foldEnum(in.Status)); err != nil {
		return nil, err
	}
	if filter.Keyword, err = validateSearch("keyword", in.Keyword); err != nil {
		return nil, err
	}
	if filter.Field, err = validateSearch("field", in.Field); err != nil {
		return nil, err
	}
	if filter.EventDate, err = validateSearch("eventDate", in.EventDate); err != nil {
		return nil, err
	}
	if filter.ClubName, err = validateSearch("clubName", in.ClubName); err != nil {
		return nil, err
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "event id is required")
	}
	return s.events.GetByID(ctx, id)
}

// Create stores a new event authored by authorID.
func (s *EventService) Create(ctx context.Context, authorID string, in EventInput) (*model.Event, error) {
	if authorID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	title := trimmedOrNil(in.Title)
	if title == nil {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}
	if in.Difficulty == nil || strings.TrimSpace(*in.Difficulty) == "" {
		return nil, apperror.ValidationFailed("difficulty", "difficulty is required")
	}

	event := &model.Event{
		AuthorID: authorID,
		Status:   model.StatusRecruiting,
	}
	if err := s.apply(ctx, event, in); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("author_id", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("author_id", authorID),
		slog.String("category", string(event.Category)),
	)
	return s.events.GetByID(ctx, event.ID)
}

// Update merges in into the event. Only the author may update.
func (s *EventService) Update(ctx context.Context, callerID, id string, in EventInput) (*model.Event, error) {
	event, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperror.ValidationFailed("title", "title must not be blank")
	}
	if err := s.apply(ctx, event, in); err != nil {
		return nil, err
	}

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	s.logger.Info("event updated", slog.String("id", id))
	return s.events.GetByID(ctx, id)
}

// Delete removes an event and its comments. Only the author may delete.
func (s *EventService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("event deleted", slog.String("id", id), slog.String("author_id", callerID))
	return nil
}

// SetStatus moves an event between RECRUITING and COMPLETED.
func (s *EventService) SetStatus(ctx context.Context, callerID, id, status string) (*model.Event, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	if st == "" {
		return nil, apperror.ValidationFailed("status", "status is required")
	}

	event, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.events.UpdateStatus(ctx, id, st, s.now()); err != nil {
		return nil, fmt.Errorf("updating event status: %w", err)
	}

	s.logger.Info("event status changed",
		slog.String("id", id),
		slog.String("from", string(event.Status)),
		slog.String("to", string(st)),
	)
	return s.events.GetByID(ctx, id)
}

// owned loads event id and checks that callerID wrote it.
func (s *EventService) owned(ctx context.Context, callerID, id string) (*model.Event, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.AuthorID != callerID {
		return nil, apperror.Forbidden(msgNotEventAuthor)
	}
	return event, nil
}

// apply validates the non-nil fields of in and copies them onto event.
func (s *EventService) apply(ctx context.Context, event *model.Event, in EventInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if tooLong(title, MaxTitleLength) {
			return apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		event.Title = title
	}
	if in.Category != nil {
		c, err := parseCategory(*in.Category)
		if err != nil {
			return err
		}
		if c == "" {
			return apperror.ValidationFailed("category",
				"category must be one of "+model.EnumList(model.Categories))
		}
		event.Category = c
	}
	if in.Difficulty != nil {
		d, err := parseDifficulty(*in.Difficulty)
		if err != nil {
			return err
		}
		if d == "" {
			return apperror.ValidationFailed("difficulty",
				"difficulty must be one of "+model.EnumList(model.Difficulties))
		}
		event.Difficulty = d
	}
	if in.RecruitmentCount != nil {
		n := *in.RecruitmentCount
		if n < 0 || n > MaxRecruitmentCount {
			return apperror.ValidationFailed("recruitmentCount",
				fmt.Sprintf("recruitmentCount must be between 0 and %d", MaxRecruitmentCount))
		}
		event.RecruitmentCount = &n
	}
	for _, f := range []struct {
		name string
		in   *string
		dst  **string
		max  int
	}{
		{"field", in.Field, &event.Field, MaxEventFieldLength},
		{"eventDate", in.EventDate, &event.EventDate, MaxEventFieldLength},
		{"description", in.Description, &event.Description, MaxEventTextLength},
	} {
		if f.in == nil {
			continue
		}
		if tooLong(*f.in, f.max) {
			return apperror.ValidationFailed(f.name,
				fmt.Sprintf("%s must be %d characters or less", f.name, f.max))
		}
		*f.dst = trimmedOrNil(f.in)
	}
	if in.ClubName != nil {
		club, err := s.resolveClub(ctx, *in.ClubName)
		if err != nil {
			return err
		}
		event.ClubName = club
	}
	return nil
}

// resolveClub maps a supplied club name to a stored one. Blank or unknown
// names resolve to nil rather than failing.
func (s *EventService) resolveClub(ctx context.Context, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	club, err := s.clubs.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving club %q: %w", name, err)
	}
	return &club.ClubName, nil
}
