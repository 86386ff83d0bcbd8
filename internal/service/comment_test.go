package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
)

// seoul is a fixed +9h zone so date formatting doesn't depend on tzdata.
var seoul = time.FixedZone("KST", 9*60*60)

type commentFixture struct {
	svc    *CommentService
	store  *fakeStore
	event  *model.Event
	author *model.User
}

func newCommentFixture(t *testing.T) commentFixture {
	t.Helper()
	store := newFakeStore()
	author := store.users.add("commenter", "Commenter Choi", nil, model.RoleMember)
	event := &model.Event{
		Title: "CTF team", Category: model.CategoryCTF, Difficulty: model.DifficultyHigh, AuthorID: author.ID,
	}
	if err := store.events.Create(context.Background(), event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return commentFixture{
		svc:    NewCommentService(store.comments, store.events, store.users, seoul, testLogger()),
		store:  store,
		event:  event,
		author: author,
	}
}

// =========================================================================
// RESOLVE AUTHOR TESTS
// =========================================================================

func TestResolveAuthor(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		supplied string
		want     string
		wantErr  error
	}{
		{"anonymous request trusts body", "", "user-7", "user-7", nil},
		{"anonymous request without id", "", "", "", nil},
		{"token fills missing id", "user-1", " ", "user-1", nil},
		{"token matches body", "user-1", "user-1", "user-1", nil},
		{"token contradicts body", "user-1", "user-2", "", apperror.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAuthor(tt.caller, tt.supplied)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveAuthor() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =========================================================================
// CREATE / LIST TESTS
// =========================================================================

func TestCommentCreate(t *testing.T) {
	fx := newCommentFixture(t)

	c, err := fx.svc.Create(context.Background(), fx.event.ID, "  count me in  ", fx.author.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == 0 {
		t.Error("ID not assigned")
	}
	if c.Content != "count me in" {
		t.Errorf("Content = %q, want trimmed", c.Content)
	}
	if c.Author != "Commenter Choi" {
		t.Errorf("Author = %q, want user's name", c.Author)
	}
	// The fake stamps comment 1 at 05:05 UTC, which is 14:05 in Seoul.
	if c.Date != "2025.03.01 14:05" {
		t.Errorf("Date = %q, want %q", c.Date, "2025.03.01 14:05")
	}
}

func TestCommentCreate_Errors(t *testing.T) {
	fx := newCommentFixture(t)

	tests := []struct {
		name     string
		postID   string
		content  string
		authorID string
		wantErr  error
	}{
		{"blank content", fx.event.ID, "  ", fx.author.ID, apperror.ErrValidation},
		{"long content", fx.event.ID, strings.Repeat("c", MaxCommentLength+1), fx.author.ID, apperror.ErrValidation},
		{"missing post", "", "hello", fx.author.ID, apperror.ErrValidation},
		{"missing author", fx.event.ID, "hello", "", apperror.ErrValidation},
		{"unknown event", "no-such-event", "hello", fx.author.ID, apperror.ErrNotFound},
		{"unknown author", fx.event.ID, "hello", "ghost", apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Create(context.Background(), tt.postID, tt.content, tt.authorID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(fx.store.comments.byID) != 0 {
		t.Errorf("stored %d comments despite errors", len(fx.store.comments.byID))
	}
}

func TestCommentCreate_BlankNameIsAnonymous(t *testing.T) {
	fx := newCommentFixture(t)
	nameless := fx.store.users.add("nameless", " ", nil, model.RoleMember)

	c, err := fx.svc.Create(context.Background(), fx.event.ID, "hello", nameless.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Author != anonymousAuthor {
		t.Errorf("Author = %q, want %q", c.Author, anonymousAuthor)
	}
}

func TestCommentList_OldestFirst(t *testing.T) {
	fx := newCommentFixture(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := fx.svc.Create(ctx, fx.event.ID, content, fx.author.ID); err != nil {
			t.Fatalf("Create(%s) error = %v", content, err)
		}
	}

	comments, err := fx.svc.List(ctx, fx.event.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []string
	for _, c := range comments {
		got = append(got, c.Content)
		if c.Date == "" {
			t.Errorf("comment %d has no display date", c.ID)
		}
	}
	if strings.Join(got, ",") != "one,two,three" {
		t.Errorf("order = %v", got)
	}

	if _, err := fx.svc.List(ctx, " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List(blank) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestCommentUpdate(t *testing.T) {
	fx := newCommentFixture(t)
	ctx := context.Background()
	c, err := fx.svc.Create(ctx, fx.event.ID, "original", fx.author.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := fx.svc.Update(ctx, c.ID, "edited", fx.author.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Content != "edited" {
		t.Errorf("Content = %q, want %q", updated.Content, "edited")
	}
	if fx.store.comments.byID[c.ID].Content != "edited" {
		t.Error("update not persisted")
	}
}

func TestCommentOwnership(t *testing.T) {
	fx := newCommentFixture(t)
	ctx := context.Background()
	c, err := fx.svc.Create(ctx, fx.event.ID, "mine", fx.author.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	other := fx.store.users.add("other", "Other", nil, model.RoleMember)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{"update by other", func() error {
			_, err := fx.svc.Update(ctx, c.ID, "hijack", other.ID)
			return err
		}, apperror.ErrForbidden},
		{"delete by other", func() error { return fx.svc.Delete(ctx, c.ID, other.ID) }, apperror.ErrForbidden},
		{"delete without author", func() error { return fx.svc.Delete(ctx, c.ID, "") }, apperror.ErrValidation},
		{"update blank content", func() error {
			_, err := fx.svc.Update(ctx, c.ID, " ", fx.author.ID)
			return err
		}, apperror.ErrValidation},
		{"delete bad id", func() error { return fx.svc.Delete(ctx, 0, fx.author.ID) }, apperror.ErrValidation},
		{"delete missing", func() error { return fx.svc.Delete(ctx, 999, fx.author.ID) }, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := fx.svc.Delete(ctx, c.ID, fx.author.ID); err != nil {
		t.Fatalf("Delete() by author error = %v", err)
	}
	if len(fx.store.comments.byID) != 0 {
		t.Error("comment not deleted")
	}
}
