package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Channel is how a reminder reaches people.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in-app"
	ChannelEmail Channel = "email"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelInApp, ChannelEmail:
		return true
	}
	return false
}

// ReminderSchedule is a weekday set plus a time of day.
type ReminderSchedule struct {
	// Weekdays lists the days to fire on (1 = Sunday ... 7 = Saturday).
	// Empty means every day.
	Weekdays []int

	Hour   int
	Minute int
	Second int
}

// Validate checks weekday and clock ranges.
func (s ReminderSchedule) Validate() error {
	if err := ValidateWeekdays(s.Weekdays); err != nil {
		return err
	}
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0..23", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0..59", s.Minute)
	}
	if s.Second < 0 || s.Second > 59 {
		return fmt.Errorf("second %d out of range 0..59", s.Second)
	}
	return nil
}

// Includes reports whether the schedule fires on weekday (1 = Sunday).
func (s ReminderSchedule) Includes(weekday int) bool {
	if len(s.Weekdays) == 0 {
		return true
	}
	for _, d := range s.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Weekday converts a Go weekday to the 1 = Sunday numbering used by schedules.
func Weekday(t time.Time) int {
	return int(t.Weekday()) + 1
}

// Reminder attaches a schedule to a chore.
// Fire times are computed forward by the scheduler, not stored.
type Reminder struct {
	ID        uuid.UUID
	ChoreID   uuid.UUID
	GroupID   uuid.UUID
	Schedule  ReminderSchedule
	Channel   Channel
	IsEnabled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
