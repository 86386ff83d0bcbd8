package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

const (
	MaxCommentLength = 2000

	// CommentDateLayout is how comment dates are shown: 2025.03.01 14:05.
	CommentDateLayout = "2006.01.02 15:04"

	anonymousAuthor     = "anonymous"
	msgNotCommentAuthor = "only the author can modify this comment"
	msgAuthorMismatch   = "authorId does not match the authenticated user"
)

// ResolveAuthor reconciles the authorId sent in a comment request with the
// bearer token, if any. Without a token the supplied id is trusted as-is.
// With one, an omitted id defaults to the caller and a different id is
// Forbidden.
func ResolveAuthor(callerID, supplied string) (string, error) {
	supplied = strings.TrimSpace(supplied)
	if callerID == "" {
		return supplied, nil
	}
	if supplied == "" {
		return callerID, nil
	}
	if supplied != callerID {
		return "", apperror.Forbidden(msgAuthorMismatch)
	}
	return supplied, nil
}

// CommentService manages comments on events.
type CommentService struct {
	comments repository.CommentRepository
	events   repository.EventRepository
	users    repository.UserRepository
	loc      *time.Location
	logger   *slog.Logger
}

// NewCommentService creates a CommentService. Dates are rendered in loc;
// nil means UTC.
func NewCommentService(
	comments repository.CommentRepository,
	events repository.EventRepository,
	users repository.UserRepository,
	loc *time.Location,
	logger *slog.Logger,
) *CommentService {
	if loc == nil {
		loc = time.UTC
	}
	return &CommentService{comments: comments, events: events, users: users, loc: loc, logger: logger}
}

// List returns an event's comments oldest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]model.Comment, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("postId", "postId is required")
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	for i := range comments {
		s.stamp(&comments[i])
	}
	return comments, nil
}

// Create adds a comment to event postID on behalf of authorID.
func (s *CommentService) Create(ctx context.Context, postID, content, authorID string) (*model.Comment, error) {
	postID = strings.TrimSpace(postID)
	content, err := checkContent(content)
	if err != nil {
		return nil, err
	}
	if postID == "" {
		return nil, apperror.ValidationFailed("postId", "postId is required")
	}
	if authorID == "" {
		return nil, apperror.ValidationFailed("authorId", "authorId is required")
	}

	if _, err := s.events.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	author := strings.TrimSpace(user.Name)
	if author == "" {
		author = anonymousAuthor
	}

	comment := &model.Comment{
		PostID:   postID,
		Author:   author,
		Content:  content,
		AuthorID: user.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	comment.AuthorName = &user.Name
	s.stamp(comment)

	s.logger.Info("comment created",
		slog.Int64("id", comment.ID),
		slog.String("post_id", postID),
		slog.String("author_id", user.ID),
	)
	return comment, nil
}

// Update replaces a comment's content. Only its author may edit it.
func (s *CommentService) Update(ctx context.Context, id int64, content, authorID string) (*model.Comment, error) {
	content, err := checkContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.owned(ctx, id, authorID)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	s.stamp(comment)

	s.logger.Info("comment updated", slog.Int64("id", id))
	return comment, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, id int64, authorID string) error {
	if _, err := s.owned(ctx, id, authorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("comment deleted", slog.Int64("id", id))
	return nil
}

func (s *CommentService) owned(ctx context.Context, id int64, authorID string) (*model.Comment, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "invalid comment id "+strconv.FormatInt(id, 10))
	}
	if authorID == "" {
		return nil, apperror.ValidationFailed("authorId", "authorId is required")
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, apperror.Forbidden(msgNotCommentAuthor)
	}
	return comment, nil
}

// stamp fills the display date.
func (s *CommentService) stamp(c *model.Comment) {
	c.Date = c.CreatedAt.In(s.loc).Format(CommentDateLayout)
}

func checkContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	if tooLong(content, MaxCommentLength) {
		return "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxCommentLength))
	}
	return content, nil
}
