package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

type reminderRepo struct {
	q querier
}

// List retrieves the chore's reminders in creation order.
func (r reminderRepo) List(ctx context.Context, choreID uuid.UUID) ([]*models.Reminder, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, chore_id, group_id, weekdays, hour, minute, second, channel, is_enabled, created_at, updated_at
		 FROM reminders WHERE chore_id = ? ORDER BY created_at, rowid`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		rem := &models.Reminder{}
		var weekdays string
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&rem.ID,
			&rem.ChoreID,
			&rem.GroupID,
			&weekdays,
			&rem.Schedule.Hour,
			&rem.Schedule.Minute,
			&rem.Schedule.Second,
			&rem.Channel,
			&rem.IsEnabled,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if err := json.Unmarshal([]byte(weekdays), &rem.Schedule.Weekdays); err != nil {
			return nil, fmt.Errorf("failed to decode reminder weekdays: %w", err)
		}
		rem.CreatedAt = fromNanos(createdAt)
		rem.UpdatedAt = fromNanos(updatedAt)
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// Save inserts or updates a reminder.
func (r reminderRepo) Save(ctx context.Context, rem *models.Reminder) error {
	weekdays := rem.Schedule.Weekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	encoded, err := json.Marshal(weekdays)
	if err != nil {
		return fmt.Errorf("failed to encode reminder weekdays: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO reminders (id, chore_id, group_id, weekdays, hour, minute, second, channel, is_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     weekdays = excluded.weekdays,
		     hour = excluded.hour,
		     minute = excluded.minute,
		     second = excluded.second,
		     channel = excluded.channel,
		     is_enabled = excluded.is_enabled,
		     updated_at = excluded.updated_at`,
		rem.ID,
		rem.ChoreID,
		rem.GroupID,
		string(encoded),
		rem.Schedule.Hour,
		rem.Schedule.Minute,
		rem.Schedule.Second,
		string(rem.Channel),
		rem.IsEnabled,
		toNanos(rem.CreatedAt),
		toNanos(rem.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

// Delete removes a reminder from its chore.
func (r reminderRepo) Delete(ctx context.Context, id, choreID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM reminders WHERE id = ? AND chore_id = ?", id, choreID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return checkAffected(res, "reminder "+id.String())
}
