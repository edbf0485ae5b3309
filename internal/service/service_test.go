package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage/memory"
)

// testNow is the fixed clock used by every service test: Wednesday noon UTC.
var testNow = time.Date(2024, 5, 22, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	groups    *GroupService
	chores    *ChoreService
	logs      *ChoreLogService
	reminders *ReminderScheduler
	reports   *WorkloadReporter
}

// newFixture wires all services to one in-memory store.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	}, opts...)

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	return &fixture{
		ctx:       context.Background(),
		store:     store,
		groups:    NewGroupService(store, opts...),
		chores:    NewChoreService(store, opts...),
		logs:      NewChoreLogService(store, opts...),
		reminders: NewReminderScheduler(store, opts...),
		reports:   NewWorkloadReporter(store, opts...),
	}
}

// newGroup creates a group owned by ownerID and returns it with the owner's member row.
func (f *fixture) newGroup(t *testing.T, ownerID uuid.UUID) (*models.Group, *models.Member) {
	t.Helper()

	group, err := f.groups.CreateGroup(f.ctx, GroupDraft{Name: "Flat 4B", OwnerDisplayName: "Alice"}, ownerID)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group, f.linkedMember(t, group.ID, ownerID)
}

// addUser adds a signed-in user with the given role and returns their member row.
func (f *fixture) addUser(t *testing.T, groupID, adminID, userID uuid.UUID, name string, role models.Role) *models.Member {
	t.Helper()

	m, err := f.groups.AddMember(f.ctx, groupID, adminID, MemberDraft{UserID: &userID, DisplayName: name, Role: role})
	if err != nil {
		t.Fatalf("AddMember(%s) failed: %v", name, err)
	}
	return m
}

func (f *fixture) linkedMember(t *testing.T, groupID, userID uuid.UUID) *models.Member {
	t.Helper()

	members, err := f.groups.ListMembers(f.ctx, groupID, false)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	for _, m := range members {
		if m.IsLinkedTo(userID) {
			return m
		}
	}
	t.Fatalf("no member linked to user %s", userID)
	return nil
}

func (f *fixture) newChore(t *testing.T, groupID, actorID uuid.UUID, title string, weight int) *models.Chore {
	t.Helper()

	c, err := f.chores.CreateChore(f.ctx, groupID, actorID, ChoreDraft{Title: title, Weight: weight})
	if err != nil {
		t.Fatalf("CreateChore(%s) failed: %v", title, err)
	}
	return c
}

// wantKind fails the test unless err is a service error of the given kind.
func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"unauthorized", unauthorized("admin role required"), ErrUnauthorized, KindUnauthorized},
		{"not found", notFound("group %s not found", uuid.Nil), ErrNotFound, KindNotFound},
		{"validation", invalid("bad weight"), ErrValidation, KindValidation},
		{"repository", repoFailure("save", errors.New("disk full")), ErrRepository, KindRepository},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			if KindOf(tt.err) != tt.kind {
				t.Errorf("KindOf = %s, want %s", KindOf(tt.err), tt.kind)
			}
		})
	}

	cause := errors.New("disk full")
	if !errors.Is(repoFailure("save", cause), cause) {
		t.Error("repository failure does not unwrap to its cause")
	}

	domain := invalid("group must have at least one admin")
	if repoFailure("outer", domain) != domain {
		t.Error("repoFailure rewrapped a domain error")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf on a plain error should be empty")
	}
}
