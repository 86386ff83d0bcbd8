package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore reads and writes the users table.
type UserStore struct {
	conn *sql.DB
}

// memberOrder sorts a club roster by MemberRole.Rank, then id.
var memberOrder = fmt.Sprintf("CASE role WHEN '%s' THEN %d WHEN '%s' THEN %d ELSE %d END, id",
	model.RolePresident, model.RolePresident.Rank(),
	model.RoleStaff, model.RoleStaff.Rank(),
	model.RoleMember.Rank())

const userColumns = `id, username, password_hash, name, alias, school_name, club_name,
	is_admin, is_club_staff, role, tags, created_at, updated_at`

// Create inserts a new user. It assigns ID and timestamps in place.
//
// XID:
// User ids are xids: 20 characters, sortable by creation time, and safe to
// put in a URL without escaping.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if !user.Role.Valid() {
		user.Role = model.RoleMember
	}
	user.IsClubStaff = user.Role.IsStaff()

	tags, err := encodeTags(user.Tags)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, name, alias, school_name, club_name,
			is_admin, is_club_staff, role, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Name,
		nullString(user.Alias),
		nullString(user.SchoolName),
		nullString(user.ClubName),
		user.IsAdmin,
		user.IsClubStaff,
		string(user.Role),
		tags,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, "user", id, "getting")
	}
	return u, nil
}

// GetByUsername retrieves a user by their login name. Usernames compare
// exactly (case-sensitive), matching the UNIQUE constraint.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, "user", username, "getting")
	}
	return u, nil
}

// ListByClub returns every member of clubName in display order.
func (s *UserStore) ListByClub(ctx context.Context, clubName string) ([]model.User, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE club_name = ?
		 ORDER BY `+memberOrder,
		clubName)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of %q: %w", clubName, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning member: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}
	return users, nil
}

// UpdateMember writes the club-editable profile fields of user.
func (s *UserStore) UpdateMember(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.IsClubStaff = user.Role.IsStaff()

	tags, err := encodeTags(user.Tags)
	if err != nil {
		return err
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, username = ?, alias = ?, tags = ?, role = ?, is_club_staff = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Username,
		nullString(user.Alias),
		tags,
		string(user.Role),
		user.IsClubStaff,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", user.Username)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return requireAffected(result, "user", user.ID)
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u                   model.User
		alias, school, club sql.NullString
		tags                sql.NullString
		role                string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Name,
		&alias,
		&school,
		&club,
		&u.IsAdmin,
		&u.IsClubStaff,
		&role,
		&tags,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Alias = stringPtr(alias)
	u.SchoolName = stringPtr(school)
	u.ClubName = stringPtr(club)
	u.Role = model.MemberRole(role)
	u.Tags = decodeTags(tags)
	return &u, nil
}

// encodeTags stores tags as a JSON array; nil stays NULL.
func encodeTags(tags []string) (sql.NullString, error) {
	if tags == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlite: encoding tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeTags is lenient: unreadable legacy values read as no tags.
func decodeTags(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(ns.String), &tags); err != nil {
		return nil
	}
	return tags
}
