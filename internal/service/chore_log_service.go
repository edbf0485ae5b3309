package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/calculator"
	"github.com/mmynk/choreshare/internal/metrics"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// LogDraft holds the input for RecordChore.
type LogDraft struct {
	GroupID uuid.UUID
	ChoreID uuid.UUID

	// Exactly one of PerformerID and PerformerIDs is set.
	PerformerID  *uuid.UUID
	PerformerIDs []uuid.UUID

	Memo *string

	// CreatedAt is when the chore happened. Nil means now.
	CreatedAt *time.Time

	DurationMinutes *int

	// BatchID lets a client retry a recording safely. Zero means a new batch.
	BatchID uuid.UUID
}

// LogPatch lists the log fields to change. It applies to a single row only.
type LogPatch struct {
	PerformerID     *uuid.UUID
	Memo            models.Patch[string]
	CreatedAt       *time.Time
	DurationMinutes models.Patch[int]
}

// ChoreLogService records chore completions and splits their credit.
type ChoreLogService struct {
	store storage.Store
	opts  options
}

// NewChoreLogService creates a new ChoreLogService with the given storage backend.
func NewChoreLogService(store storage.Store, opts ...Option) *ChoreLogService {
	return &ChoreLogService{store: store, opts: buildOptions(opts)}
}

func (d LogDraft) performers() ([]uuid.UUID, error) {
	switch {
	case d.PerformerID != nil && len(d.PerformerIDs) > 0:
		return nil, invalid("set either a performer or a list of performers, not both")
	case d.PerformerID != nil:
		return []uuid.UUID{*d.PerformerID}, nil
	case len(d.PerformerIDs) == 0:
		return nil, invalid("at least one performer is required")
	}

	seen := make(map[uuid.UUID]bool, len(d.PerformerIDs))
	for _, id := range d.PerformerIDs {
		if seen[id] {
			return nil, invalid("performer %s is listed more than once", id)
		}
		seen[id] = true
	}
	return d.PerformerIDs, nil
}

// checkOccurredAt rejects times more than FutureTolerance past now and
// times before EarliestOccurrence.
func checkOccurredAt(at, now time.Time) error {
	if at.Before(EarliestOccurrence) {
		return invalid("chore cannot be logged before %s", EarliestOccurrence.Format(time.DateOnly))
	}
	if at.After(now.Add(FutureTolerance)) {
		return invalid("chore cannot be logged more than 24 hours in the future")
	}
	return nil
}

// RecordChore logs one completion of a chore. Every performer gets a row that
// shares the batch ID, the memo and the time, and carries an equal share of the
// chore's weight.
func (s *ChoreLogService) RecordChore(ctx context.Context, draft LogDraft, actorID uuid.UUID) (logs []*models.ChoreLog, err error) {
	ctx, span := startSpan(ctx, "ChoreLogService.RecordChore", idAttr("group_id", draft.GroupID), idAttr("chore_id", draft.ChoreID))
	defer func() { finish(span, "RecordChore", err) }()

	slog.Info("RecordChore request received",
		"group_id", draft.GroupID,
		"chore_id", draft.ChoreID,
		"actor_id", actorID,
	)

	replayed := false
	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, draft.GroupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}

		if draft.BatchID != uuid.Nil {
			existing, err := repos.ChoreLogs().ListBatch(ctx, draft.GroupID, draft.BatchID)
			if err != nil {
				return repoFailure("list batch", err)
			}
			if len(existing) > 0 {
				logs = existing
				replayed = true
				return nil
			}
		}

		chore, err := loadChore(ctx, repos, draft.GroupID, draft.ChoreID)
		if err != nil {
			return err
		}

		now := s.opts.clock()
		occurredAt := now
		if draft.CreatedAt != nil {
			if err := checkOccurredAt(*draft.CreatedAt, now); err != nil {
				return err
			}
			occurredAt = draft.CreatedAt.UTC()
		}
		if draft.DurationMinutes != nil && *draft.DurationMinutes <= 0 {
			return invalid("duration must be positive")
		}

		performers, err := draft.performers()
		if err != nil {
			return err
		}
		for _, id := range performers {
			_, found, err := activeMember(ctx, repos, draft.GroupID, id)
			if err != nil {
				return err
			}
			if !found {
				return invalid("performer %s is not an active member of the group", id)
			}
		}

		share, err := calculator.SplitWeight(chore.Weight, len(performers))
		if err != nil {
			return invalid("%v", err)
		}

		batchID := draft.BatchID
		if batchID == uuid.Nil {
			batchID = uuid.New()
		}
		memo := trimOptional(draft.Memo)

		logs = make([]*models.ChoreLog, 0, len(performers))
		for _, id := range performers {
			l := &models.ChoreLog{
				ID:              uuid.New(),
				ChoreID:         chore.ID,
				GroupID:         draft.GroupID,
				PerformerID:     id,
				Weight:          share,
				Memo:            memo,
				BatchID:         batchID,
				PerformerCount:  len(performers),
				DurationMinutes: draft.DurationMinutes,
				CreatedAt:       occurredAt,
				CreatedBy:       actorID,
				UpdatedAt:       now,
				UpdatedBy:       actorID,
			}
			if err := repos.ChoreLogs().Save(ctx, l); err != nil {
				return repoFailure("save chore log", err)
			}
			logs = append(logs, l)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("record chore", err)
		logFailure("RecordChore", err, "group_id", draft.GroupID, "chore_id", draft.ChoreID)
		return nil, err
	}

	if replayed {
		slog.Info("Chore already recorded", "group_id", draft.GroupID, "batch_id", draft.BatchID)
		return logs, nil
	}

	metrics.ChoreLogsRecorded.Add(float64(len(logs)))
	slog.Info("Chore recorded",
		"group_id", draft.GroupID,
		"chore_id", draft.ChoreID,
		"batch_id", logs[0].BatchID,
		"logs_count", len(logs),
	)
	return logs, nil
}

// UpdateLog edits one log row. Other rows of the same batch are not touched.
func (s *ChoreLogService) UpdateLog(ctx context.Context, logID, groupID, actorID uuid.UUID, patch LogPatch) (log *models.ChoreLog, err error) {
	ctx, span := startSpan(ctx, "ChoreLogService.UpdateLog", idAttr("group_id", groupID), idAttr("log_id", logID))
	defer func() { finish(span, "UpdateLog", err) }()

	slog.Info("UpdateLog request received", "group_id", groupID, "log_id", logID, "actor_id", actorID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}

		all, err := repos.ChoreLogs().List(ctx, groupID, nil)
		if err != nil {
			return repoFailure("list chore logs", err)
		}
		var l *models.ChoreLog
		for _, candidate := range all {
			if candidate.ID == logID {
				l = candidate
				break
			}
		}
		if l == nil {
			return notFound("chore log %s not found in group %s", logID, groupID)
		}

		now := s.opts.clock()
		if patch.PerformerID != nil {
			_, found, err := activeMember(ctx, repos, groupID, *patch.PerformerID)
			if err != nil {
				return err
			}
			if !found {
				return invalid("performer %s is not an active member of the group", *patch.PerformerID)
			}
			l.PerformerID = *patch.PerformerID
		}
		if patch.Memo.IsSet() {
			l.Memo = trimOptional(patch.Memo.Apply(l.Memo))
		}
		if patch.CreatedAt != nil {
			if err := checkOccurredAt(*patch.CreatedAt, now); err != nil {
				return err
			}
			l.CreatedAt = patch.CreatedAt.UTC()
		}
		if d, ok := patch.DurationMinutes.Value(); ok && d <= 0 {
			return invalid("duration must be positive")
		}
		l.DurationMinutes = patch.DurationMinutes.Apply(l.DurationMinutes)

		l.UpdatedAt = now
		l.UpdatedBy = actorID
		if err := repos.ChoreLogs().Save(ctx, l); err != nil {
			return repoFailure("save chore log", err)
		}
		log = l
		return nil
	})
	if err != nil {
		err = repoFailure("update chore log", err)
		logFailure("UpdateLog", err, "group_id", groupID, "log_id", logID)
		return nil, err
	}

	slog.Info("Chore log updated", "group_id", groupID, "log_id", logID)
	return log, nil
}

// DeleteLog removes one log row permanently.
func (s *ChoreLogService) DeleteLog(ctx context.Context, logID, groupID, actorID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "ChoreLogService.DeleteLog", idAttr("group_id", groupID), idAttr("log_id", logID))
	defer func() { finish(span, "DeleteLog", err) }()

	slog.Info("DeleteLog request received", "group_id", groupID, "log_id", logID, "actor_id", actorID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		if err := repos.ChoreLogs().Delete(ctx, logID, groupID); err != nil {
			if isNotFound(err) {
				return notFound("chore log %s not found in group %s", logID, groupID)
			}
			return repoFailure("delete chore log", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("delete chore log", err)
		logFailure("DeleteLog", err, "group_id", groupID, "log_id", logID)
		return err
	}

	slog.Info("Chore log deleted", "group_id", groupID, "log_id", logID)
	return nil
}

// FetchLogs returns the group's logs at or after since, oldest first.
func (s *ChoreLogService) FetchLogs(ctx context.Context, groupID uuid.UUID, since *time.Time) ([]*models.ChoreLog, error) {
	slog.Debug("FetchLogs request received", "group_id", groupID, "since", since)

	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	logs, err := s.store.ChoreLogs().List(ctx, groupID, since)
	if err != nil {
		return nil, repoFailure("list chore logs", err)
	}
	return logs, nil
}
