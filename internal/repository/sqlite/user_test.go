package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "alice",
		PasswordHash: "hash",
		Name:         "Alice",
		Alias:        strPtr("ali"),
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if user.Role != model.RoleMember {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleMember)
	}
	if user.IsAdmin || user.IsClubStaff {
		t.Error("new users must not be admin or staff")
	}
}

func TestUserCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, strPtr("Pay1oad"), model.RoleStaff)

	found, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if diff := cmp.Diff(created, found); diff != "" {
		t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
	}
	if !found.IsClubStaff {
		t.Error("staff role should set IsClubStaff")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	first := createTestUser(t, db, nil, model.RoleMember)

	dup := &model.User{Username: first.Username, PasswordHash: "x", Name: "Other"}
	err := db.Users().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, nil, model.RoleMember)

	found, err := db.Users().GetByUsername(context.Background(), created.Username)
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash != created.PasswordHash {
		t.Error("GetByUsername() must return the password hash for login")
	}
}

func TestUserGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	_, err = db.Users().GetByUsername(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// MEMBER TESTS
// =========================================================================

func TestUserListByClub_OrderedByRole(t *testing.T) {
	db := newTestDB(t)
	club := strPtr("Pay1oad")

	member := createTestUser(t, db, club, model.RoleMember)
	staff := createTestUser(t, db, club, model.RoleStaff)
	president := createTestUser(t, db, club, model.RolePresident)
	createTestUser(t, db, strPtr("Other"), model.RolePresident)
	createTestUser(t, db, nil, model.RoleMember)

	members, err := db.Users().ListByClub(context.Background(), "Pay1oad")
	if err != nil {
		t.Fatalf("ListByClub() error = %v", err)
	}

	var got []string
	for _, m := range members {
		got = append(got, m.ID)
	}
	want := []string{president.ID, staff.ID, member.ID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("member order mismatch (-want +got):\n%s", diff)
	}
}

func TestUserListByClub_Empty(t *testing.T) {
	db := newTestDB(t)

	members, err := db.Users().ListByClub(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByClub() error = %v", err)
	}
	if members == nil || len(members) != 0 {
		t.Errorf("ListByClub() = %v, want empty non-nil slice", members)
	}
}

func TestUserUpdateMember(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, strPtr("Pay1oad"), model.RoleMember)

	user.Name = "Renamed"
	user.Username = "renamed"
	user.Alias = strPtr("ren")
	user.Tags = []string{"회장"}
	user.Role = model.RoleFromTags(user.Tags)
	if err := db.Users().UpdateMember(context.Background(), user); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}

	found, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Username != "renamed" || found.Name != "Renamed" {
		t.Errorf("got username=%q name=%q", found.Username, found.Name)
	}
	if found.Role != model.RolePresident || !found.IsClubStaff {
		t.Errorf("Role = %q staff=%v, want president staff=true", found.Role, found.IsClubStaff)
	}
	if diff := cmp.Diff([]string{"회장"}, found.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestUserUpdateMember_UsernameTaken(t *testing.T) {
	db := newTestDB(t)
	a := createTestUser(t, db, nil, model.RoleMember)
	b := createTestUser(t, db, nil, model.RoleMember)

	b.Username = a.Username
	err := db.Users().UpdateMember(context.Background(), b)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateMember() error = %v, want ErrConflict", err)
	}
}

func TestUserUpdateMember_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().UpdateMember(context.Background(), &model.User{ID: "missing", Username: "x", Role: model.RoleMember})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateMember() error = %v, want ErrNotFound", err)
	}
}
