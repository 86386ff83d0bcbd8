// Package seed loads the demo clubs and their members into an empty (or
// partly filled) database. Running it twice is harmless: clubs and
// usernames that already exist are left alone.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/auth"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

// DefaultPassword is the password of every demo member.
const DefaultPassword = "password123"

// Member is one demo account. Tags use the labels the frontend shows.
type Member struct {
	Name     string
	Username string
	Tags     []string
}

// Club is one demo club with its roster.
type Club struct {
	Name        string
	SchoolName  string
	Description string
	Members     []Member
}

// DemoClubs is the data loaded by the seed command.
var DemoClubs = []Club{
	{
		Name:        "Pay1oad",
		SchoolName:  "가천대학교",
		Description: "보안 및 해킹 기술을 연구하는 동아리입니다.",
		Members: []Member{
			{Name: "김보안", Username: "security_kim", Tags: []string{"회장", "운영진"}},
			{Name: "이해킹", Username: "hacker_lee", Tags: []string{"운영진"}},
			{Name: "박디버깅", Username: "debug_park", Tags: []string{"부원"}},
			{Name: "최게임", Username: "gamer_choi", Tags: []string{"부원"}},
			{Name: "정리버스", Username: "reverse_jung", Tags: []string{"부원"}},
		},
	},
	{
		Name:        "I want to sleep",
		SchoolName:  "잠 부족",
		Description: "잠 자고 싶어요",
		Members: []Member{
			{Name: "홍웹", Username: "web_hong", Tags: []string{"회장"}},
			{Name: "강프론트", Username: "frontend_kang", Tags: []string{"운영진"}},
			{Name: "윤백엔드", Username: "backend_yoon", Tags: []string{"부원"}},
			{Name: "임풀스택", Username: "fullstack_lim", Tags: []string{"부원"}},
			{Name: "한디자인", Username: "design_han", Tags: []string{"부원"}},
		},
	},
	{
		Name:        "I want to go home",
		SchoolName:  "퇴근 요정",
		Description: "집에 가고 싶어요",
		Members: []Member{
			{Name: "송AI", Username: "ai_song", Tags: []string{"회장"}},
			{Name: "조머신러닝", Username: "ml_cho", Tags: []string{"부원"}},
		},
	},
}

// Admin describes the optional administrator account.
type Admin struct {
	Username string
	Password string
}

// Result counts what a run actually inserted.
type Result struct {
	ClubsCreated int
	ClubsSkipped int
	UsersCreated int
	UsersSkipped int
}

// Seeder inserts demo data through the repositories.
type Seeder struct {
	clubs     repository.ClubRepository
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// New creates a Seeder.
func New(
	clubs repository.ClubRepository,
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{clubs: clubs, users: users, passwords: passwords, logger: logger}
}

// Run inserts every club in clubs that does not exist yet, with its
// members. Members of a club that already exists are not touched.
func (s *Seeder) Run(ctx context.Context, clubs []Club) (Result, error) {
	var (
		res  Result
		hash string
	)

	for _, c := range clubs {
		if _, err := s.clubs.GetByName(ctx, c.Name); err == nil {
			res.ClubsSkipped++
			s.logger.Debug("seed: club exists, skipping", slog.String("club", c.Name))
			continue
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return res, fmt.Errorf("seed: looking up club %q: %w", c.Name, err)
		}

		description := c.Description
		club := &model.Club{ClubName: c.Name, SchoolName: c.SchoolName, Description: &description}
		if err := s.clubs.Create(ctx, club); err != nil {
			return res, fmt.Errorf("seed: creating club %q: %w", c.Name, err)
		}
		res.ClubsCreated++
		s.logger.Info("seed: club created", slog.String("club", c.Name))

		// Every demo member shares one hash.
		if hash == "" && len(c.Members) > 0 {
			h, err := s.passwords.Hash(DefaultPassword)
			if err != nil {
				return res, fmt.Errorf("seed: hashing default password: %w", err)
			}
			hash = h
		}

		for _, m := range c.Members {
			created, err := s.createMember(ctx, club, m, hash)
			if err != nil {
				return res, err
			}
			if created {
				res.UsersCreated++
			} else {
				res.UsersSkipped++
			}
		}
	}
	return res, nil
}

func (s *Seeder) createMember(ctx context.Context, club *model.Club, m Member, hash string) (bool, error) {
	alias := m.Username
	clubName := club.ClubName
	school := club.SchoolName
	user := &model.User{
		Username:     m.Username,
		PasswordHash: hash,
		Name:         m.Name,
		Alias:        &alias,
		SchoolName:   &school,
		ClubName:     &clubName,
		Role:         model.RoleFromTags(m.Tags),
		Tags:         m.Tags,
	}

	err := s.users.Create(ctx, user)
	switch {
	case errors.Is(err, apperror.ErrConflict):
		s.logger.Warn("seed: username taken, skipping member",
			slog.String("club", club.ClubName),
			slog.String("username", m.Username),
		)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("seed: creating member %q: %w", m.Username, err)
	}

	s.logger.Info("seed: member created",
		slog.String("club", club.ClubName),
		slog.String("username", m.Username),
		slog.String("role", string(user.Role)),
	)
	return true, nil
}

// EnsureAdmin creates the administrator account unless its username is
// already taken. It returns true when an account was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, admin Admin) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		return false, nil
	}

	if _, err := s.users.GetByUsername(ctx, admin.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return false, fmt.Errorf("seed: looking up admin: %w", err)
	}

	hash, err := s.passwords.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("seed: hashing admin password: %w", err)
	}
	alias := admin.Username
	user := &model.User{
		Username:     admin.Username,
		PasswordHash: hash,
		Name:         admin.Username,
		Alias:        &alias,
		IsAdmin:      true,
		Role:         model.RoleMember,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("seed: creating admin: %w", err)
	}

	s.logger.Info("seed: admin created", slog.String("username", admin.Username))
	return true, nil
}
