package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

var _ repository.CommentRepository = (*CommentStore)(nil)

// CommentStore reads and writes the comments table.
type CommentStore struct {
	conn *sql.DB
}

const commentSelect = `SELECT c.id, c.post_id, c.author, c.content, c.author_id, u.name,
	c.created_at, c.updated_at
	FROM comments c LEFT JOIN users u ON u.id = c.author_id`

// Create inserts a comment and sets its id.
func (s *CommentStore) Create(ctx context.Context, comment *model.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO comments (post_id, author, content, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.PostID,
		comment.Author,
		comment.Content,
		comment.AuthorID,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment on %s: %w", comment.PostID, err)
	}

	comment.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by id.
func (s *CommentStore) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := s.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, notFoundOr(err, "comment", strconv.FormatInt(id, 10), "getting")
	}
	return c, nil
}

// ListByPost returns the comments of an event, oldest first.
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := s.conn.QueryContext(ctx,
		commentSelect+` WHERE c.post_id = ? ORDER BY c.created_at ASC, c.id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of %s: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

// Update writes new content.
func (s *CommentStore) Update(ctx context.Context, comment *model.Comment) error {
	comment.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %d: %w", comment.ID, err)
	}
	return requireAffected(result, "comment", strconv.FormatInt(comment.ID, 10))
}

// Delete removes a comment.
func (s *CommentStore) Delete(ctx context.Context, id int64) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %d: %w", id, err)
	}
	return requireAffected(result, "comment", strconv.FormatInt(id, 10))
}

func scanComment(row scanner) (*model.Comment, error) {
	var (
		c          model.Comment
		authorName sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.Author,
		&c.Content,
		&c.AuthorID,
		&authorName,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AuthorName = stringPtr(authorName)
	return &c, nil
}
