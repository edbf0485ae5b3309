package models

import (
	"time"

	"github.com/google/uuid"
)

// ChoreLog records that a chore was performed by one performer.
//
// One recording may credit several people at once. Each performer gets their
// own row; the rows share BatchID, PerformerCount, Memo and CreatedAt, and each
// row's Weight is the chore weight divided by PerformerCount.
type ChoreLog struct {
	// ID is the unique identifier for the row.
	ID uuid.UUID

	// ChoreID is the chore that was performed.
	ChoreID uuid.UUID

	// GroupID is the group the chore belongs to.
	GroupID uuid.UUID

	// PerformerID is the Member credited with this row.
	PerformerID uuid.UUID

	// Weight is this performer's share of the chore weight. Not necessarily integral
	// (weight 3 shared by two performers is 1.5 each).
	Weight float64

	// Memo is optional free text, identical across a batch when recorded.
	Memo *string

	// BatchID groups the rows created by one recording.
	BatchID uuid.UUID

	// PerformerCount is the number of rows in the batch.
	PerformerCount int

	// DurationMinutes is how long the chore took, when known.
	DurationMinutes *int

	// CreatedAt is when the chore was performed. Defaults to the time of recording
	// but may be backdated; reports bucket on this field.
	CreatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedAt time.Time
	UpdatedBy uuid.UUID
}
