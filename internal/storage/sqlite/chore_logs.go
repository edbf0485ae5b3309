package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

const choreLogColumns = `id, chore_id, group_id, performer_id, weight, memo, batch_id, performer_count,
	duration_minutes, created_at, created_by, updated_at, updated_by`

type choreLogRepo struct {
	q querier
}

func scanChoreLog(row scanner) (*models.ChoreLog, error) {
	l := &models.ChoreLog{}
	var memo sql.NullString
	var duration sql.NullInt64
	var createdAt, updatedAt int64

	if err := row.Scan(
		&l.ID,
		&l.ChoreID,
		&l.GroupID,
		&l.PerformerID,
		&l.Weight,
		&memo,
		&l.BatchID,
		&l.PerformerCount,
		&duration,
		&createdAt,
		&l.CreatedBy,
		&updatedAt,
		&l.UpdatedBy,
	); err != nil {
		return nil, err
	}

	l.Memo = stringPtr(memo)
	l.DurationMinutes = intPtr(duration)
	l.CreatedAt = fromNanos(createdAt)
	l.UpdatedAt = fromNanos(updatedAt)
	return l, nil
}

func (r choreLogRepo) query(ctx context.Context, query string, args ...any) ([]*models.ChoreLog, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chore logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ChoreLog
	for rows.Next() {
		l, err := scanChoreLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chore log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chore logs: %w", err)
	}

	return logs, nil
}

// List retrieves the group's logs, oldest first. A non-nil since keeps logs
// performed at or after it.
func (r choreLogRepo) List(ctx context.Context, groupID uuid.UUID, since *time.Time) ([]*models.ChoreLog, error) {
	if since != nil && since.After(maxStorableTime) {
		return nil, nil
	}
	if since == nil || since.Before(minStorableTime) {
		return r.query(ctx,
			`SELECT `+choreLogColumns+` FROM chore_logs WHERE group_id = ? ORDER BY created_at, rowid`,
			groupID)
	}
	return r.query(ctx,
		`SELECT `+choreLogColumns+` FROM chore_logs WHERE group_id = ? AND created_at >= ? ORDER BY created_at, rowid`,
		groupID, since.UnixNano())
}

// ListBatch retrieves the rows written by one recording.
func (r choreLogRepo) ListBatch(ctx context.Context, groupID, batchID uuid.UUID) ([]*models.ChoreLog, error) {
	return r.query(ctx,
		`SELECT `+choreLogColumns+` FROM chore_logs WHERE group_id = ? AND batch_id = ? ORDER BY created_at, rowid`,
		groupID, batchID)
}

// Save inserts or updates a chore log.
func (r choreLogRepo) Save(ctx context.Context, l *models.ChoreLog) error {
	if err := checkStorable("created_at", l.CreatedAt); err != nil {
		return fmt.Errorf("failed to save chore log: %w", err)
	}
	if err := checkStorable("updated_at", l.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save chore log: %w", err)
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO chore_logs (`+choreLogColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     performer_id = excluded.performer_id,
		     weight = excluded.weight,
		     memo = excluded.memo,
		     performer_count = excluded.performer_count,
		     duration_minutes = excluded.duration_minutes,
		     created_at = excluded.created_at,
		     updated_at = excluded.updated_at,
		     updated_by = excluded.updated_by`,
		l.ID,
		l.ChoreID,
		l.GroupID,
		l.PerformerID,
		l.Weight,
		nullString(l.Memo),
		l.BatchID,
		l.PerformerCount,
		nullInt(l.DurationMinutes),
		toNanos(l.CreatedAt),
		l.CreatedBy,
		toNanos(l.UpdatedAt),
		l.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save chore log: %w", err)
	}
	return nil
}

// Delete removes a chore log permanently.
func (r choreLogRepo) Delete(ctx context.Context, id, groupID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM chore_logs WHERE id = ? AND group_id = ?", id, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete chore log: %w", err)
	}
	return checkAffected(res, "chore log "+id.String())
}
