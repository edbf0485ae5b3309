package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a person who performs chores within a group.
//
// Members exist independently of user accounts: a child or a flatmate who never
// signs in is still a Member and can be credited in chore logs. A Member linked
// to a user carries the same UserID as that user's Membership in the group.
type Member struct {
	// ID is the unique identifier for the member. Chore logs reference it as PerformerID.
	ID uuid.UUID

	// GroupID is the group this member belongs to.
	GroupID uuid.UUID

	// UserID links the member to a signed-in user. Nil for unlinked members.
	UserID *uuid.UUID

	// ExternalID is the identity provider's subject for the linked user, if known.
	ExternalID *string

	// DisplayName is the name shown in lists and reports.
	DisplayName string

	// AvatarURL is an optional profile picture.
	AvatarURL *string

	// Role mirrors the Membership role for linked members. Unlinked members are editors.
	Role Role

	CreatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedAt time.Time
	UpdatedBy uuid.UUID

	Lifecycle
}

// IsLinkedTo reports whether the member is linked to userID.
func (m *Member) IsLinkedTo(userID uuid.UUID) bool {
	return m.UserID != nil && *m.UserID == userID
}
