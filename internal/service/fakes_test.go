package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/clubboard/internal/apperror"
	"github.com/sakif/clubboard/internal/model"
	"github.com/sakif/clubboard/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// Hand-written fakes of the repository interfaces. They keep copies, never
// the caller's pointers, so a test can't accidentally mutate stored state.
// Setting failWith makes every call return that error, to exercise the
// "store is down" paths.

type fakeStore struct {
	users    *fakeUsers
	clubs    *fakeClubs
	events   *fakeEvents
	comments *fakeComments
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		users:    &fakeUsers{byID: map[string]*model.User{}},
		clubs:    &fakeClubs{byID: map[int64]*model.Club{}},
		events:   &fakeEvents{byID: map[string]*model.Event{}},
		comments: &fakeComments{byID: map[int64]*model.Comment{}},
	}
	s.clubs.store = s
	s.events.store = s
	s.comments.store = s
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ---- users ----

type fakeUsers struct {
	byID     map[string]*model.User
	nextID   int
	failWith error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return apperror.Conflict("username", u.Username)
		}
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%03d", f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	if !u.Role.Valid() {
		u.Role = model.RoleMember
	}
	u.IsClubStaff = u.Role.IsStaff()
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUsers) ListByClub(_ context.Context, clubName string) ([]model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.User{}
	for _, u := range f.byID {
		if u.ClubName != nil && *u.ClubName == clubName {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role.Rank() != out[j].Role.Rank() {
			return out[i].Role.Rank() < out[j].Role.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeUsers) UpdateMember(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	stored, ok := f.byID[u.ID]
	if !ok {
		return apperror.NotFound("user", u.ID)
	}
	for id, other := range f.byID {
		if id != u.ID && other.Username == u.Username {
			return apperror.Conflict("username", u.Username)
		}
	}
	stored.Name = u.Name
	stored.Username = u.Username
	stored.Alias = u.Alias
	stored.Tags = u.Tags
	stored.Role = u.Role
	stored.IsClubStaff = u.Role.IsStaff()
	stored.UpdatedAt = time.Now()
	return nil
}

// add inserts a user directly, for test setup.
func (f *fakeUsers) add(username, name string, clubName *string, role model.MemberRole) *model.User {
	u := &model.User{Username: username, Name: name, ClubName: clubName, Role: role}
	if err := f.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// ---- clubs ----

type fakeClubs struct {
	store    *fakeStore
	byID     map[int64]*model.Club
	nextID   int64
	failWith error
}

var _ repository.ClubRepository = (*fakeClubs)(nil)

func (f *fakeClubs) Create(_ context.Context, c *model.Club) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.byID {
		if existing.ClubName == c.ClubName {
			return apperror.Conflict("club", c.ClubName)
		}
	}
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeClubs) GetByID(_ context.Context, id int64) (*model.Club, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("club", strconv.FormatInt(id, 10))
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClubs) GetByName(_ context.Context, name string) (*model.Club, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, c := range f.byID {
		if c.ClubName == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("club", name)
}

func (f *fakeClubs) List(_ context.Context, search string) ([]model.Club, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Club{}
	needle := strings.ToLower(search)
	for _, c := range f.byID {
		if needle == "" || strings.Contains(strings.ToLower(c.ClubName), needle) ||
			strings.Contains(strings.ToLower(c.SchoolName), needle) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeClubs) Update(_ context.Context, c *model.Club) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.byID[c.ID]; !ok {
		return apperror.NotFound("club", strconv.FormatInt(c.ID, 10))
	}
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeClubs) Delete(_ context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	c, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("club", strconv.FormatInt(id, 10))
	}
	for _, u := range f.store.users.byID {
		if u.ClubName != nil && *u.ClubName == c.ClubName {
			u.ClubName = nil
			u.Role = model.RoleMember
			u.IsClubStaff = false
			u.Tags = nil
		}
	}
	for _, e := range f.store.events.byID {
		if e.ClubName != nil && *e.ClubName == c.ClubName {
			e.ClubName = nil
		}
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeClubs) add(name string) *model.Club {
	c := &model.Club{ClubName: name, SchoolName: "Test University"}
	if err := f.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// ---- events ----

type fakeEvents struct {
	store    *fakeStore
	byID     map[string]*model.Event
	order    []string
	nextID   int
	failWith error
	// lastFilter records the filter passed to List.
	lastFilter repository.EventFilter
}

var _ repository.EventRepository = (*fakeEvents)(nil)

func (f *fakeEvents) Create(_ context.Context, e *model.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	e.ID = fmt.Sprintf("event-%03d", f.nextID)
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	if e.Status == "" {
		e.Status = model.StatusRecruiting
	}
	stored := *e
	f.byID[e.ID] = &stored
	f.order = append(f.order, e.ID)
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	cp := *e
	if u, ok := f.store.users.byID[e.AuthorID]; ok {
		cp.AuthorName = &u.Name
		cp.AuthorUsername = &u.Username
	}
	return &cp, nil
}

func (f *fakeEvents) List(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.lastFilter = filter
	out := []model.Event{}
	for i := len(f.order) - 1; i >= 0; i-- {
		e, ok := f.byID[f.order[i]]
		if !ok {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Keyword)) {
			continue
		}
		got, _ := f.GetByID(ctx, e.ID)
		out = append(out, *got)
	}
	return out, nil
}

func (f *fakeEvents) ListByClub(_ context.Context, clubName string) ([]model.EventSummary, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.EventSummary{}
	for i := len(f.order) - 1; i >= 0; i-- {
		e, ok := f.byID[f.order[i]]
		if !ok || e.ClubName == nil || *e.ClubName != clubName {
			continue
		}
		out = append(out, model.EventSummary{ID: e.ID, Title: e.Title, Category: e.Category,
			Difficulty: e.Difficulty, Status: e.Status})
	}
	return out, nil
}

func (f *fakeEvents) Update(_ context.Context, e *model.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.byID[e.ID]; !ok {
		return apperror.NotFound("event", e.ID)
	}
	e.UpdatedAt = time.Now()
	stored := *e
	stored.AuthorName, stored.AuthorUsername = nil, nil
	f.byID[e.ID] = &stored
	return nil
}

func (f *fakeEvents) UpdateStatus(_ context.Context, id string, status model.EventStatus, at time.Time) error {
	if f.failWith != nil {
		return f.failWith
	}
	e, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("event", id)
	}
	e.Status = status
	e.UpdatedAt = at
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("event", id)
	}
	delete(f.byID, id)
	for cid, c := range f.store.comments.byID {
		if c.PostID == id {
			delete(f.store.comments.byID, cid)
		}
	}
	return nil
}

// ---- comments ----

type fakeComments struct {
	store    *fakeStore
	byID     map[int64]*model.Comment
	nextID   int64
	failWith error
}

var _ repository.CommentRepository = (*fakeComments)(nil)

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Date(2025, 3, 1, 5, 4+int(c.ID), 0, 0, time.UTC)
	c.UpdatedAt = c.CreatedAt
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeComments) GetByID(_ context.Context, id int64) (*model.Comment, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	cp := *c
	return &cp, nil
}

func (f *fakeComments) ListByPost(_ context.Context, postID string) ([]model.Comment, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Comment{}
	for _, c := range f.byID {
		if c.PostID == postID {
			cp := *c
			if u, ok := f.store.users.byID[c.AuthorID]; ok {
				cp.AuthorName = &u.Name
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeComments) Update(_ context.Context, c *model.Comment) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.byID[c.ID]; !ok {
		return apperror.NotFound("comment", strconv.FormatInt(c.ID, 10))
	}
	c.UpdatedAt = time.Now()
	stored := *c
	f.byID[c.ID] = &stored
	return nil
}

func (f *fakeComments) Delete(_ context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	delete(f.byID, id)
	return nil
}
