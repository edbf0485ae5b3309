package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/choreshare/internal/calculator"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// BalanceReport compares each member's credit with an even split over one interval.
type BalanceReport struct {
	Snapshot calculator.WorkloadSnapshot
	Balances []calculator.MemberBalance
	Catchups []calculator.Catchup
}

// WorkloadReporter loads a group's logs and chores and summarises who did what.
type WorkloadReporter struct {
	store    storage.Store
	opts     options
	analyzer *calculator.WorkloadAnalyzer
}

// NewWorkloadReporter creates a new WorkloadReporter with the given storage backend.
func NewWorkloadReporter(store storage.Store, opts ...Option) *WorkloadReporter {
	o := buildOptions(opts)
	return &WorkloadReporter{
		store:    store,
		opts:     o,
		analyzer: calculator.NewWorkloadAnalyzer(o.location),
	}
}

// Weekly returns weekCount consecutive weekly snapshots ending on endingOn.
func (r *WorkloadReporter) Weekly(ctx context.Context, groupID uuid.UUID, endingOn time.Time, weekCount int) ([]calculator.WorkloadSnapshot, error) {
	slog.Debug("Weekly report request received", "group_id", groupID, "weeks", weekCount)

	intervals := r.analyzer.WeeklyIntervals(endingOn, weekCount)
	if len(intervals) == 0 {
		return []calculator.WorkloadSnapshot{}, nil
	}
	logs, chores, err := r.load(ctx, groupID, intervals[0].Start)
	if err != nil {
		return nil, err
	}
	return r.analyzer.WeeklySnapshots(logs, chores, endingOn, weekCount), nil
}

// Monthly returns monthCount consecutive month-long snapshots, the last one
// ending with the day of endingOn.
func (r *WorkloadReporter) Monthly(ctx context.Context, groupID uuid.UUID, endingOn time.Time, monthCount int) ([]calculator.WorkloadSnapshot, error) {
	slog.Debug("Monthly report request received", "group_id", groupID, "months", monthCount)

	intervals := r.analyzer.MonthlyIntervals(endingOn, monthCount)
	if len(intervals) == 0 {
		return []calculator.WorkloadSnapshot{}, nil
	}
	logs, chores, err := r.load(ctx, groupID, intervals[0].Start)
	if err != nil {
		return nil, err
	}
	return r.analyzer.MonthlySnapshots(logs, chores, endingOn, monthCount), nil
}

// Balances reports how far each active member is above or below an even share
// of the weight logged in the interval.
func (r *WorkloadReporter) Balances(ctx context.Context, groupID uuid.UUID, interval calculator.Interval) (*BalanceReport, error) {
	slog.Debug("Balances request received", "group_id", groupID, "start", interval.Start, "end", interval.End)

	var members []*models.Member
	var logs []*models.ChoreLog
	var chores map[uuid.UUID]*models.Chore

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, chores, err = r.load(gctx, groupID, interval.Start)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = r.store.Members().List(gctx, groupID, false)
		if err != nil {
			return repoFailure("list members", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var inInterval []*models.ChoreLog
	for _, l := range logs {
		if interval.Contains(l.CreatedAt) {
			inInterval = append(inInterval, l)
		}
	}
	snapshot := calculator.NewWorkloadSnapshot(interval, calculator.Contributions(inInterval, chores))

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	balances, catchups, err := calculator.CalculateBalances(snapshot, ids)
	if err != nil {
		return nil, invalid("%v", err)
	}

	return &BalanceReport{Snapshot: snapshot, Balances: balances, Catchups: catchups}, nil
}

// load fetches the group's logs since the given time and all its chores,
// deleted ones included so that old logs still resolve.
func (r *WorkloadReporter) load(ctx context.Context, groupID uuid.UUID, since time.Time) ([]*models.ChoreLog, map[uuid.UUID]*models.Chore, error) {
	if _, err := loadGroup(ctx, r.store, groupID); err != nil {
		return nil, nil, err
	}

	var logs []*models.ChoreLog
	var chores []*models.Chore

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, err = r.store.ChoreLogs().List(gctx, groupID, &since)
		if err != nil {
			return repoFailure("list chore logs", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		chores, err = r.store.Chores().List(gctx, groupID, true)
		if err != nil {
			return repoFailure("list chores", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("Failed to load workload data", "group_id", groupID, "error", err)
		return nil, nil, err
	}

	lookup := make(map[uuid.UUID]*models.Chore, len(chores))
	for _, c := range chores {
		lookup[c.ID] = c
	}
	return logs, lookup, nil
}
