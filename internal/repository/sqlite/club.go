package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

var _ repository.ClubRepository = (*ClubStore)(nil)

// ClubStore reads and writes the clubs table.
type ClubStore struct {
	conn *sql.DB
}

const clubColumns = `id, club_name, description, school_name, activities, created_at, updated_at`

// Create inserts a club and sets its autoincrement id.
func (s *ClubStore) Create(ctx context.Context, club *model.Club) error {
	now := time.Now().UTC()
	club.CreatedAt = now
	club.UpdatedAt = now

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO clubs (club_name, description, school_name, activities, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		club.ClubName,
		nullString(club.Description),
		club.SchoolName,
		nullString(club.Activities),
		club.CreatedAt,
		club.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("club", club.ClubName)
		}
		return fmt.Errorf("sqlite: inserting club %q: %w", club.ClubName, err)
	}

	club.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading club id: %w", err)
	}
	return nil
}

// GetByID retrieves a club by id.
func (s *ClubStore) GetByID(ctx context.Context, id int64) (*model.Club, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+clubColumns+` FROM clubs WHERE id = ?`, id)
	c, err := scanClub(row)
	if err != nil {
		return nil, notFoundOr(err, "club", strconv.FormatInt(id, 10), "getting")
	}
	return c, nil
}

// GetByName retrieves a club by its unique name.
func (s *ClubStore) GetByName(ctx context.Context, clubName string) (*model.Club, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+clubColumns+` FROM clubs WHERE club_name = ?`, clubName)
	c, err := scanClub(row)
	if err != nil {
		return nil, notFoundOr(err, "club", clubName, "getting")
	}
	return c, nil
}

// List returns clubs ordered by id, optionally narrowed by a search term.
//
// LIKE is case-insensitive for ASCII in SQLite; wildcards in the search term
// are escaped so "50%" matches the literal text.
func (s *ClubStore) List(ctx context.Context, search string) ([]model.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs`
	var args []any
	if search != "" {
		p := likePattern(search)
		query += ` WHERE club_name LIKE ? ESCAPE '\'
			OR description LIKE ? ESCAPE '\'
			OR school_name LIKE ? ESCAPE '\'`
		args = append(args, p, p, p)
	}
	query += ` ORDER BY id`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing clubs: %w", err)
	}
	defer rows.Close()

	clubs := []model.Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning club: %w", err)
		}
		clubs = append(clubs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating clubs: %w", err)
	}
	return clubs, nil
}

// Update writes description and activities. Name and school are fixed after
// creation.
func (s *ClubStore) Update(ctx context.Context, club *model.Club) error {
	club.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE clubs SET description = ?, activities = ?, updated_at = ? WHERE id = ?`,
		nullString(club.Description),
		nullString(club.Activities),
		club.UpdatedAt,
		club.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating club %d: %w", club.ID, err)
	}
	return requireAffected(result, "club", strconv.FormatInt(club.ID, 10))
}

// Delete detaches every member from the club and removes it, atomically.
//
// Events pointing at the club keep existing: the foreign key on
// events.club_name is ON DELETE SET NULL. Members have no foreign key (their
// club_name is a plain name match), so they are cleared explicitly first and
// lose their club role along with it.
func (s *ClubStore) Delete(ctx context.Context, id int64) (err error) {
	idStr := strconv.FormatInt(id, 10)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning club delete: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT club_name FROM clubs WHERE id = ?`, id).Scan(&name)
	if err != nil {
		return notFoundOr(err, "club", idStr, "deleting")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET club_name = NULL, role = 'member', is_club_staff = 0, tags = NULL, updated_at = ?
		 WHERE club_name = ?`,
		time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("sqlite: detaching members of %q: %w", name, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM clubs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting club %d: %w", id, err)
	}
	if err = requireAffected(result, "club", idStr); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing club delete: %w", err)
	}
	return nil
}

func scanClub(row scanner) (*model.Club, error) {
	var (
		c                       model.Club
		description, activities sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.ClubName,
		&description,
		&c.SchoolName,
		&activities,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	c.Activities = stringPtr(activities)
	return &c, nil
}
