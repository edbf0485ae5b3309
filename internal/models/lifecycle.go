package models

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle records whether an entity has been soft-deleted.
//
// Soft-deleted entities stay in storage so that historical chore logs and
// reports keep a valid reference; they are only hidden from default listings.
type Lifecycle struct {
	// DeletedAt is when the entity was deleted. Nil while the entity is active.
	DeletedAt *time.Time

	// DeletedBy is the user who deleted the entity.
	DeletedBy *uuid.UUID
}

// IsDeleted reports whether the entity has been soft-deleted.
func (l Lifecycle) IsDeleted() bool {
	return l.DeletedAt != nil
}

// MarkDeleted stamps the deletion time and actor. Deleting twice keeps the
// first stamp.
func (l *Lifecycle) MarkDeleted(at time.Time, by uuid.UUID) {
	if l.DeletedAt != nil {
		return
	}
	l.DeletedAt = &at
	l.DeletedBy = &by
}
