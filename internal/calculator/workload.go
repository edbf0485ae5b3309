package calculator

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// ContributorSummary is one performer's activity within an interval.
type ContributorSummary struct {
	MemberID uuid.UUID

	// CompletedCount is the number of log rows credited to the member.
	CompletedCount int

	// TotalWeight sums the member's per-row weight shares.
	TotalWeight float64

	// TotalDurationMinutes uses the log duration, falling back to the chore
	// estimate. Unknown or negative durations count as zero.
	TotalDurationMinutes int

	CategoryCounts    map[models.Category]int
	CategoryDurations map[models.Category]int
}

// ShareOfTotalCount returns CompletedCount / totalCount, or 0 when totalCount is 0.
func (c ContributorSummary) ShareOfTotalCount(totalCount int) float64 {
	if totalCount <= 0 {
		return 0
	}
	return float64(c.CompletedCount) / float64(totalCount)
}

// ShareOfTotalWeight returns TotalWeight / totalWeight, or 0 when totalWeight is 0.
func (c ContributorSummary) ShareOfTotalWeight(totalWeight float64) float64 {
	if totalWeight <= 0 {
		return 0
	}
	return c.TotalWeight / totalWeight
}

// ShareOfTotalDuration returns TotalDurationMinutes / totalDuration, or 0 when totalDuration is 0.
func (c ContributorSummary) ShareOfTotalDuration(totalDuration int) float64 {
	if totalDuration <= 0 {
		return 0
	}
	return float64(c.TotalDurationMinutes) / float64(totalDuration)
}

// WorkloadSnapshot aggregates contributions for one interval.
type WorkloadSnapshot struct {
	Interval Interval

	// Contributions are ordered by TotalWeight descending. Ties fall back to
	// duration, then count, then member ID so output is deterministic.
	Contributions []ContributorSummary

	TotalCount           int
	TotalWeight          float64
	TotalDurationMinutes int
}

// NewWorkloadSnapshot orders contributions and computes the interval totals.
func NewWorkloadSnapshot(interval Interval, contributions []ContributorSummary) WorkloadSnapshot {
	sorted := append([]ContributorSummary(nil), contributions...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalWeight != b.TotalWeight {
			return a.TotalWeight > b.TotalWeight
		}
		if a.TotalDurationMinutes != b.TotalDurationMinutes {
			return a.TotalDurationMinutes > b.TotalDurationMinutes
		}
		if a.CompletedCount != b.CompletedCount {
			return a.CompletedCount > b.CompletedCount
		}
		return a.MemberID.String() < b.MemberID.String()
	})

	snap := WorkloadSnapshot{Interval: interval, Contributions: sorted}
	for _, c := range sorted {
		snap.TotalCount += c.CompletedCount
		snap.TotalWeight += c.TotalWeight
		snap.TotalDurationMinutes += c.TotalDurationMinutes
	}
	return snap
}

// WorkloadAnalyzer turns chore logs into time-bucketed workload reports.
// It is pure: callers load the logs and chores and hand them in.
type WorkloadAnalyzer struct {
	loc *time.Location
}

// NewWorkloadAnalyzer creates an analyzer whose day and month boundaries
// follow loc. A nil loc means UTC.
func NewWorkloadAnalyzer(loc *time.Location) *WorkloadAnalyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &WorkloadAnalyzer{loc: loc}
}

func (a *WorkloadAnalyzer) startOfDay(t time.Time) time.Time {
	t = t.In(a.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.loc)
}

// WeeklyIntervals returns weekCount contiguous 7-day intervals, ascending.
// The last interval ends at the start of the day after endingOn.
func (a *WorkloadAnalyzer) WeeklyIntervals(endingOn time.Time, weekCount int) []Interval {
	if weekCount <= 0 {
		return nil
	}
	anchor := a.startOfDay(endingOn)
	intervals := make([]Interval, weekCount)
	for offset := 0; offset < weekCount; offset++ {
		end := anchor.AddDate(0, 0, 1-7*offset)
		start := end.AddDate(0, 0, -7)
		intervals[weekCount-1-offset] = Interval{Start: start, End: end}
	}
	return intervals
}

// MonthlyIntervals returns monthCount contiguous month-long intervals,
// ascending. The last interval ends at the start of the day after endingOn
// and each earlier boundary is one calendar month before the next, clamped to
// the month's last day (Mar 31 steps back to Feb 29, then Jan 31).
func (a *WorkloadAnalyzer) MonthlyIntervals(endingOn time.Time, monthCount int) []Interval {
	if monthCount <= 0 {
		return nil
	}
	anchor := a.startOfDay(endingOn)
	boundary := func(offset int) time.Time {
		return addMonthsClamped(anchor, -offset).AddDate(0, 0, 1)
	}
	intervals := make([]Interval, monthCount)
	for offset := 0; offset < monthCount; offset++ {
		intervals[monthCount-1-offset] = Interval{Start: boundary(offset + 1), End: boundary(offset)}
	}
	return intervals
}

// addMonthsClamped moves a day-start time by months, keeping the day of month
// unless the target month is shorter.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// WeeklySnapshots buckets logs into weekCount weeks ending on endingOn.
// See Contributions for how chores is used.
func (a *WorkloadAnalyzer) WeeklySnapshots(logs []*models.ChoreLog, chores map[uuid.UUID]*models.Chore, endingOn time.Time, weekCount int) []WorkloadSnapshot {
	return snapshots(a.WeeklyIntervals(endingOn, weekCount), logs, chores)
}

// MonthlySnapshots buckets logs into monthCount month-long intervals, the
// last one ending with the day of endingOn.
func (a *WorkloadAnalyzer) MonthlySnapshots(logs []*models.ChoreLog, chores map[uuid.UUID]*models.Chore, endingOn time.Time, monthCount int) []WorkloadSnapshot {
	return snapshots(a.MonthlyIntervals(endingOn, monthCount), logs, chores)
}

func snapshots(intervals []Interval, logs []*models.ChoreLog, chores map[uuid.UUID]*models.Chore) []WorkloadSnapshot {
	out := make([]WorkloadSnapshot, 0, len(intervals))
	for _, interval := range intervals {
		var inside []*models.ChoreLog
		for _, l := range logs {
			if interval.Contains(l.CreatedAt) {
				inside = append(inside, l)
			}
		}
		out = append(out, NewWorkloadSnapshot(interval, Contributions(inside, chores)))
	}
	return out
}

// Contributions groups logs by performer.
//
// When chores is non-nil, logs referencing a chore missing from it are skipped
// and the chore supplies the category and the fallback duration. When chores
// is nil every log counts, with durations taken from the logs alone and no
// category breakdown.
func Contributions(logs []*models.ChoreLog, chores map[uuid.UUID]*models.Chore) []ContributorSummary {
	byMember := make(map[uuid.UUID]*ContributorSummary)
	var order []uuid.UUID

	for _, l := range logs {
		var chore *models.Chore
		if chores != nil {
			var ok bool
			if chore, ok = chores[l.ChoreID]; !ok {
				continue
			}
		}

		duration := 0
		switch {
		case l.DurationMinutes != nil:
			duration = *l.DurationMinutes
		case chore != nil && chore.EstimatedMinutes != nil:
			duration = *chore.EstimatedMinutes
		}
		if duration < 0 {
			duration = 0
		}

		s, ok := byMember[l.PerformerID]
		if !ok {
			s = &ContributorSummary{
				MemberID:          l.PerformerID,
				CategoryCounts:    make(map[models.Category]int),
				CategoryDurations: make(map[models.Category]int),
			}
			byMember[l.PerformerID] = s
			order = append(order, l.PerformerID)
		}

		s.CompletedCount++
		s.TotalWeight += l.Weight
		s.TotalDurationMinutes += duration
		if chore != nil {
			s.CategoryCounts[chore.Category]++
			s.CategoryDurations[chore.Category] += duration
		}
	}

	out := make([]ContributorSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byMember[id])
	}
	return out
}
