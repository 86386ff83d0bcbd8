package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

var _ repository.EventRepository = (*EventStore)(nil)

// EventStore reads and writes the events table.
type EventStore struct {
	conn *sql.DB
}

// eventSelect joins the author so listings can show a name without a second
// round trip. LEFT JOIN keeps the event visible even if the author row is
// gone.
const eventSelect = `SELECT e.id, e.club_name, e.category, e.field, e.event_date,
	e.recruitment_count, e.difficulty, e.title, e.description, e.author_id,
	u.name, u.username, e.status, e.created_at, e.updated_at
	FROM events e LEFT JOIN users u ON u.id = e.author_id`

// Create inserts an event with a fresh UUID and RECRUITING status.
func (s *EventStore) Create(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = model.StatusRecruiting
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO events (id, club_name, category, field, event_date, recruitment_count,
			difficulty, title, description, author_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		nullString(event.ClubName),
		string(event.Category),
		nullString(event.Field),
		nullString(event.EventDate),
		nullInt(event.RecruitmentCount),
		string(event.Difficulty),
		event.Title,
		nullString(event.Description),
		event.AuthorID,
		string(event.Status),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting event %q: %w", event.Title, err)
	}
	return nil
}

// GetByID retrieves one event with its author joined in.
func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := s.conn.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, notFoundOr(err, "event", id, "getting")
	}
	return e, nil
}

// List returns events matching filter, newest first.
//
// Filters are appended as WHERE clauses with bound parameters only; no user
// input is ever spliced into the SQL text. rowid breaks ties between events
// created within the same timestamp.
func (s *EventStore) List(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Difficulty != "" {
		where = append(where, "e.difficulty = ?")
		args = append(args, string(filter.Difficulty))
	}
	if filter.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ClubName != "" {
		where = append(where, "e.club_name = ?")
		args = append(args, filter.ClubName)
	}
	if filter.Field != "" {
		where = append(where, `e.field LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.Field))
	}
	if filter.EventDate != "" {
		where = append(where, `e.event_date LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.EventDate))
	}
	if filter.Keyword != "" {
		p := likePattern(filter.Keyword)
		where = append(where, `(e.title LIKE ? ESCAPE '\'
			OR e.description LIKE ? ESCAPE '\'
			OR e.club_name LIKE ? ESCAPE '\'
			OR e.field LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p, p)
	}

	query := eventSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.created_at DESC, e.rowid DESC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return events, nil
}

// ListByClub returns the short form of every event belonging to clubName,
// newest first.
func (s *EventStore) ListByClub(ctx context.Context, clubName string) ([]model.EventSummary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, category, field, event_date, difficulty, recruitment_count, status
		 FROM events WHERE club_name = ?
		 ORDER BY created_at DESC, rowid DESC`,
		clubName)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events of %q: %w", clubName, err)
	}
	defer rows.Close()

	summaries := []model.EventSummary{}
	for rows.Next() {
		var (
			e                        model.EventSummary
			field, eventDate         sql.NullString
			count                    sql.NullInt64
			category, difficulty, st string
		)
		if err := rows.Scan(&e.ID, &e.Title, &category, &field, &eventDate, &difficulty, &count, &st); err != nil {
			return nil, fmt.Errorf("sqlite: scanning event summary: %w", err)
		}
		e.Category = model.Category(category)
		e.Difficulty = model.Difficulty(difficulty)
		e.Status = model.EventStatus(st)
		e.Field = stringPtr(field)
		e.EventDate = stringPtr(eventDate)
		e.RecruitmentCount = intPtr(count)
		summaries = append(summaries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating event summaries: %w", err)
	}
	return summaries, nil
}

// Update overwrites every editable column. Callers merge partial input into
// the stored event before calling.
func (s *EventStore) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE events
		 SET club_name = ?, category = ?, field = ?, event_date = ?, recruitment_count = ?,
		     difficulty = ?, title = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(event.ClubName),
		string(event.Category),
		nullString(event.Field),
		nullString(event.EventDate),
		nullInt(event.RecruitmentCount),
		string(event.Difficulty),
		event.Title,
		nullString(event.Description),
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}
	return requireAffected(result, "event", event.ID)
}

// UpdateStatus sets status and updated_at.
func (s *EventStore) UpdateStatus(ctx context.Context, id string, status model.EventStatus, at time.Time) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating status of event %s: %w", id, err)
	}
	return requireAffected(result, "event", id)
}

// Delete removes an event. Comments are removed by ON DELETE CASCADE.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
	}
	return requireAffected(result, "event", id)
}

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                                model.Event
		clubName, field, eventDate, desc sql.NullString
		authorName, authorUsername       sql.NullString
		count                            sql.NullInt64
		category, difficulty, status     string
	)
	err := row.Scan(
		&e.ID,
		&clubName,
		&category,
		&field,
		&eventDate,
		&count,
		&difficulty,
		&e.Title,
		&desc,
		&e.AuthorID,
		&authorName,
		&authorUsername,
		&status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ClubName = stringPtr(clubName)
	e.Category = model.Category(category)
	e.Field = stringPtr(field)
	e.EventDate = stringPtr(eventDate)
	e.RecruitmentCount = intPtr(count)
	e.Difficulty = model.Difficulty(difficulty)
	e.Description = stringPtr(desc)
	e.AuthorName = stringPtr(authorName)
	e.AuthorUsername = stringPtr(authorUsername)
	e.Status = model.EventStatus(status)
	return &e, nil
}
