package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AllowedWeights is the Fibonacci-like effort scale. No other weight is valid.
var AllowedWeights = []int{1, 2, 3, 5, 8}

// DefaultWeight is the weight suggested for new chores.
const DefaultWeight = 1

// IsValidWeight reports whether w is on the effort scale.
func IsValidWeight(w int) bool {
	for _, allowed := range AllowedWeights {
		if w == allowed {
			return true
		}
	}
	return false
}

// Category groups chores for per-category breakdowns in reports.
type Category string

const (
	CategoryCleaning Category = "cleaning"
	CategoryCooking  Category = "cooking"
	CategoryLaundry  Category = "laundry"
	CategoryShopping Category = "shopping"
	CategoryGarbage  Category = "garbage"
	CategoryOther    Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCleaning, CategoryCooking, CategoryLaundry, CategoryShopping, CategoryGarbage, CategoryOther:
		return true
	}
	return false
}

// Period is the unit of a recurrence rule.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// RecurrenceRule describes a repeating chore: every Interval periods, optionally
// restricted to some weekdays (1 = Sunday ... 7 = Saturday).
type RecurrenceRule struct {
	Period   Period `json:"period"`
	Interval int    `json:"interval"`
	Weekdays []int  `json:"weekdays,omitempty"`
}

// Validate checks the rule's period, interval and weekday range.
func (r RecurrenceRule) Validate() error {
	switch r.Period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return fmt.Errorf("unknown recurrence period %q", r.Period)
	}
	if r.Interval < 1 {
		return fmt.Errorf("recurrence interval must be at least 1")
	}
	return ValidateWeekdays(r.Weekdays)
}

// ValidateWeekdays checks that every weekday is within 1..7.
func ValidateWeekdays(weekdays []int) error {
	for _, d := range weekdays {
		if d < 1 || d > 7 {
			return fmt.Errorf("weekday %d out of range 1..7", d)
		}
	}
	return nil
}

// FrequencyKind tags the Frequency union.
type FrequencyKind string

const (
	FrequencyOnDemand  FrequencyKind = "on-demand"
	FrequencyRecurring FrequencyKind = "recurring"
	FrequencyCustom    FrequencyKind = "custom"
)

// Frequency says how often a chore is expected to happen.
// Exactly one of Rule (recurring) or Custom (custom) is meaningful, chosen by Kind.
type Frequency struct {
	Kind   FrequencyKind   `json:"kind"`
	Rule   *RecurrenceRule `json:"rule,omitempty"`
	Custom string          `json:"custom,omitempty"`
}

// OnDemand returns the frequency of a chore done whenever needed.
func OnDemand() Frequency {
	return Frequency{Kind: FrequencyOnDemand}
}

// Recurring returns a frequency following rule.
func Recurring(rule RecurrenceRule) Frequency {
	return Frequency{Kind: FrequencyRecurring, Rule: &rule}
}

// Validate checks that the union is well formed.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyOnDemand, "":
		return nil
	case FrequencyRecurring:
		if f.Rule == nil {
			return fmt.Errorf("recurring frequency requires a rule")
		}
		return f.Rule.Validate()
	case FrequencyCustom:
		if f.Custom == "" {
			return fmt.Errorf("custom frequency requires a description")
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency kind %q", f.Kind)
	}
}

// Chore is the definition of a repeatable task shared within a group.
type Chore struct {
	// ID is the unique identifier for the chore.
	ID uuid.UUID

	// GroupID is the group that owns the chore.
	GroupID uuid.UUID

	// Title is the chore name (e.g., "Dishes"). Never empty after trimming.
	Title string

	// Weight is the effort on the AllowedWeights scale.
	// Logs split it evenly among co-performers.
	Weight int

	// Notes is optional free text.
	Notes *string

	// IsFavorite pins the chore to the top of quick-record lists.
	IsFavorite bool

	// Category is used for per-category report breakdowns.
	Category Category

	// DefaultAssigneeID is the member usually doing the chore, if any.
	DefaultAssigneeID *uuid.UUID

	// EstimatedMinutes is used by reports when a log has no explicit duration.
	EstimatedMinutes *int

	// Frequency says how often the chore is expected to happen.
	Frequency Frequency

	CreatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedAt time.Time
	UpdatedBy uuid.UUID

	Lifecycle
}
