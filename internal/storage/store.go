// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

// ErrNotFound is returned by Delete and SoftDelete when the row does not
// exist in the given scope. Fetch methods return nil, nil instead.
var ErrNotFound = errors.New("not found")

// GroupRepository persists group metadata and rosters.
type GroupRepository interface {
	// Fetch returns the group, or nil and no error if it does not exist.
	Fetch(ctx context.Context, id uuid.UUID) (*models.Group, error)

	// Save inserts or replaces the group, including its roster.
	Save(ctx context.Context, group *models.Group) error
}

// MemberRepository persists performers.
type MemberRepository interface {
	// List returns the group's members in creation order.
	// Soft-deleted members are included only when includeDeleted is set.
	List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Member, error)

	// Fetch returns the member, or nil and no error if it does not exist.
	// Soft-deleted members are still returned.
	Fetch(ctx context.Context, id uuid.UUID) (*models.Member, error)

	// Save inserts or replaces the member.
	Save(ctx context.Context, member *models.Member) error

	// SoftDelete stamps the member as deleted by the given user at the given time.
	SoftDelete(ctx context.Context, id, groupID, by uuid.UUID, at time.Time) error

	// ListGroupsForIdentity returns the groups in which an active member carries externalID.
	ListGroupsForIdentity(ctx context.Context, externalID string) ([]uuid.UUID, error)
}

// ChoreRepository persists chore definitions.
type ChoreRepository interface {
	// List returns the group's chores. Soft-deleted chores are included only when includeDeleted is set.
	List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Chore, error)

	// Fetch returns the chore, or nil and no error if it does not exist.
	// Soft-deleted chores are still returned so that old logs resolve.
	Fetch(ctx context.Context, id uuid.UUID) (*models.Chore, error)

	// Save inserts or replaces the chore.
	Save(ctx context.Context, chore *models.Chore) error

	// Delete removes the chore from the group permanently. Services soft-delete
	// through Save; this is for purging old chores.
	Delete(ctx context.Context, id, groupID uuid.UUID) error
}

// ChoreLogRepository persists chore logs.
type ChoreLogRepository interface {
	// List returns the group's logs with CreatedAt at or after since (when given),
	// ascending by CreatedAt.
	List(ctx context.Context, groupID uuid.UUID, since *time.Time) ([]*models.ChoreLog, error)

	// ListBatch returns the rows of one recording, ascending by CreatedAt.
	ListBatch(ctx context.Context, groupID, batchID uuid.UUID) ([]*models.ChoreLog, error)

	// Save inserts or replaces the log.
	Save(ctx context.Context, log *models.ChoreLog) error

	// Delete removes the log from the group permanently.
	Delete(ctx context.Context, id, groupID uuid.UUID) error
}

// GroupInviteRepository persists invite codes.
type GroupInviteRepository interface {
	// FetchByCode returns the invite with the given code regardless of its state,
	// or nil and no error if no invite uses it.
	FetchByCode(ctx context.Context, code string) (*models.GroupInvite, error)

	// ListByGroup returns the group's invites, newest first.
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.GroupInvite, error)

	// Save inserts or replaces the invite.
	Save(ctx context.Context, invite *models.GroupInvite) error

	// Delete removes the invite permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReminderRepository persists reminder configuration.
type ReminderRepository interface {
	// List returns the chore's reminders in creation order.
	List(ctx context.Context, choreID uuid.UUID) ([]*models.Reminder, error)

	// Save inserts or replaces the reminder.
	Save(ctx context.Context, reminder *models.Reminder) error

	// Delete removes the reminder from the chore.
	Delete(ctx context.Context, id, choreID uuid.UUID) error
}

// Repositories gives access to one repository per entity family.
type Repositories interface {
	Groups() GroupRepository
	Members() MemberRepository
	Chores() ChoreRepository
	ChoreLogs() ChoreLogRepository
	Invites() GroupInviteRepository
	Reminders() ReminderRepository
}

// Store defines the interface for chore data storage.
// This abstraction allows swapping storage backends (SQLite, in-memory, etc.)
// without changing the service layer.
type Store interface {
	Repositories

	// Atomically runs fn as one unit of work. Writes made through repos are
	// either all kept (fn returns nil) or all discarded (fn returns an error).
	// The repos passed to fn must not be used after fn returns.
	Atomically(ctx context.Context, fn func(repos Repositories) error) error

	// Close releases any resources held by the store.
	Close() error
}
