package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

const (
	MaxClubNameLength = 100
	MaxClubTextLength = 2000
	MaxTagsPerMember  = 10
	MaxTagLength      = 30
)

// CreateClubInput is a new-club request.
type CreateClubInput struct {
	ClubName    string
	SchoolName  string
	Description *string
	Activities  *string
}

// UpdateClubInput is a partial update: nil fields keep their stored value.
type UpdateClubInput struct {
	Description *string
	Activities  *string
}

// UpdateMemberInput edits one member's profile from the club page. Nil
// fields are left alone; a non-nil Tags replaces the tag list and
// recomputes the member's role.
type UpdateMemberInput struct {
	Name     *string
	Username *string
	Alias    *string
	Tags     *[]string
}

// ClubService manages clubs and their member rosters.
type ClubService struct {
	clubs  repository.ClubRepository
	users  repository.UserRepository
	events repository.EventRepository
	logger *slog.Logger
}

// NewClubService creates a ClubService.
func NewClubService(
	clubs repository.ClubRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	logger *slog.Logger,
) *ClubService {
	return &ClubService{clubs: clubs, users: users, events: events, logger: logger}
}

// List returns every club matching search, each with its ordered members
// and president.
func (s *ClubService) List(ctx context.Context, search string) ([]model.ClubWithMembers, error) {
	search, err := validateSearch("search", search)
	if err != nil {
		return nil, err
	}

	clubs, err := s.clubs.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("listing clubs: %w", err)
	}

	result := make([]model.ClubWithMembers, 0, len(clubs))
	for _, c := range clubs {
		withMembers, err := s.withMembers(ctx, c)
		if err != nil {
			return nil, err
		}
		result = append(result, *withMembers)
	}
	return result, nil
}

// Get returns one club with members and its events.
func (s *ClubService) Get(ctx context.Context, id int64) (*model.ClubDetail, error) {
	club, err := s.getClub(ctx, id)
	if err != nil {
		return nil, err
	}

	withMembers, err := s.withMembers(ctx, *club)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByClub(ctx, club.ClubName)
	if err != nil {
		return nil, fmt.Errorf("listing club events: %w", err)
	}

	return &model.ClubDetail{ClubWithMembers: *withMembers, Events: events}, nil
}

// ListMembers returns a club's members in role order.
func (s *ClubService) ListMembers(ctx context.Context, id int64) ([]model.Member, error) {
	club, err := s.getClub(ctx, id)
	if err != nil {
		return nil, err
	}
	withMembers, err := s.withMembers(ctx, *club)
	if err != nil {
		return nil, err
	}
	return withMembers.Members, nil
}

// Create registers a new club.
func (s *ClubService) Create(ctx context.Context, in CreateClubInput) (*model.Club, error) {
	name := strings.TrimSpace(in.ClubName)
	school := strings.TrimSpace(in.SchoolName)

	if name == "" {
		return nil, apperror.ValidationFailed("clubName", "club name is required")
	}
	if school == "" {
		return nil, apperror.ValidationFailed("schoolName", "school name is required")
	}
	if tooLong(name, MaxClubNameLength) {
		return nil, apperror.ValidationFailed("clubName",
			fmt.Sprintf("club name must be %d characters or less", MaxClubNameLength))
	}
	if err := checkClubText(in.Description, in.Activities); err != nil {
		return nil, err
	}

	if _, err := s.clubs.GetByName(ctx, name); err == nil {
		return nil, apperror.Conflict("club", name)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking club name: %w", err)
	}

	club := &model.Club{
		ClubName:    name,
		SchoolName:  school,
		Description: trimmedOrNil(in.Description),
		Activities:  trimmedOrNil(in.Activities),
	}
	if err := s.clubs.Create(ctx, club); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("failed to create club",
				slog.String("club_name", name),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("club created",
		slog.Int64("id", club.ID),
		slog.String("club_name", club.ClubName),
	)
	return club, nil
}

// Update changes description and/or activities.
func (s *ClubService) Update(ctx context.Context, id int64, in UpdateClubInput) (*model.Club, error) {
	if err := checkClubText(in.Description, in.Activities); err != nil {
		return nil, err
	}

	club, err := s.getClub(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		club.Description = trimmedOrNil(in.Description)
	}
	if in.Activities != nil {
		club.Activities = trimmedOrNil(in.Activities)
	}

	if err := s.clubs.Update(ctx, club); err != nil {
		return nil, fmt.Errorf("updating club: %w", err)
	}

	s.logger.Info("club updated", slog.Int64("id", club.ID))
	return club, nil
}

// Delete removes a club. Members are detached and its events lose their
// club link; neither is deleted.
func (s *ClubService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalidClubID(id)
	}
	if err := s.clubs.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to delete club",
				slog.Int64("id", id),
				slog.String("error", err.Error()),
			)
		}
		return err
	}

	s.logger.Info("club deleted", slog.Int64("id", id))
	return nil
}

// UpdateMember edits a member of club clubID.
func (s *ClubService) UpdateMember(ctx context.Context, clubID int64, userID string, in UpdateMemberInput) error {
	club, err := s.getClub(ctx, clubID)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ClubName == nil || *user.ClubName != club.ClubName {
		return apperror.NotFound("member", userID)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperror.ValidationFailed("name", "name must not be blank")
		}
		if tooLong(name, MaxNameLength) {
			return apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		user.Name = name
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if n := len([]rune(username)); n < MinUsernameLength || n > MaxUsernameLength {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
		}
		if username != user.Username {
			other, err := s.users.GetByUsername(ctx, username)
			switch {
			case err == nil && other.ID != user.ID:
				return apperror.Conflict("username", username)
			case err != nil && !errors.Is(err, apperror.ErrNotFound):
				return fmt.Errorf("checking username: %w", err)
			}
		}
		user.Username = username
	}

	if in.Alias != nil {
		user.Alias = trimmedOrNil(in.Alias)
	}

	if in.Tags != nil {
		tags, err := cleanTags(*in.Tags)
		if err != nil {
			return err
		}
		user.Tags = tags
		user.Role = model.RoleFromTags(tags)
	}

	if err := s.users.UpdateMember(ctx, user); err != nil {
		return err
	}

	s.logger.Info("club member updated",
		slog.Int64("club_id", club.ID),
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return nil
}

func (s *ClubService) getClub(ctx context.Context, id int64) (*model.Club, error) {
	if id <= 0 {
		return nil, invalidClubID(id)
	}
	return s.clubs.GetByID(ctx, id)
}

// withMembers attaches the ordered member list and the president display
// string to c.
func (s *ClubService) withMembers(ctx context.Context, c model.Club) (*model.ClubWithMembers, error) {
	users, err := s.users.ListByClub(ctx, c.ClubName)
	if err != nil {
		return nil, fmt.Errorf("listing members of %q: %w", c.ClubName, err)
	}

	out := &model.ClubWithMembers{Club: c, Members: make([]model.Member, 0, len(users))}
	for i := range users {
		u := &users[i]
		tags := u.Tags
		if tags == nil {
			tags = u.Role.DefaultTags()
		}
		out.Members = append(out.Members, model.Member{
			ID:       u.ID,
			Name:     u.Name,
			Alias:    u.DisplayAlias(),
			Username: u.Username,
			Role:     u.Role,
			Tags:     tags,
		})
		if out.President == nil && u.Role == model.RolePresident {
			p := fmt.Sprintf("%s (%s)", u.Name, u.DisplayAlias())
			out.President = &p
		}
	}
	return out, nil
}

func checkClubText(description, activities *string) error {
	if description != nil && tooLong(*description, MaxClubTextLength) {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxClubTextLength))
	}
	if activities != nil && tooLong(*activities, MaxClubTextLength) {
		return apperror.ValidationFailed("activities",
			fmt.Sprintf("activities must be %d characters or less", MaxClubTextLength))
	}
	return nil
}

// cleanTags trims tags, drops blanks and duplicates, and enforces limits.
func cleanTags(tags []string) ([]string, error) {
	if len(tags) > MaxTagsPerMember {
		return nil, apperror.ValidationFailed("tags",
			fmt.Sprintf("at most %d tags are allowed", MaxTagsPerMember))
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if tooLong(t, MaxTagLength) {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", MaxTagLength))
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func invalidClubID(id int64) error {
	return apperror.ValidationFailed("id", "invalid club id "+strconv.FormatInt(id, 10))
}
