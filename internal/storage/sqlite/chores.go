package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

const choreColumns = `id, group_id, title, weight, notes, is_favorite, category, default_assignee_id,
	estimated_minutes, frequency, created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

type choreRepo struct {
	q querier
}

func scanChore(row scanner) (*models.Chore, error) {
	c := &models.Chore{}
	var notes sql.NullString
	var assignee, deletedBy uuid.NullUUID
	var estimated, deletedAt sql.NullInt64
	var frequency string
	var createdAt, updatedAt int64

	if err := row.Scan(
		&c.ID,
		&c.GroupID,
		&c.Title,
		&c.Weight,
		&notes,
		&c.IsFavorite,
		&c.Category,
		&assignee,
		&estimated,
		&frequency,
		&createdAt,
		&c.CreatedBy,
		&updatedAt,
		&c.UpdatedBy,
		&deletedAt,
		&deletedBy,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(frequency), &c.Frequency); err != nil {
		return nil, fmt.Errorf("failed to decode frequency: %w", err)
	}
	c.Notes = stringPtr(notes)
	c.DefaultAssigneeID = uuidPtr(assignee)
	c.EstimatedMinutes = intPtr(estimated)
	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	c.DeletedAt = timePtr(deletedAt)
	c.DeletedBy = uuidPtr(deletedBy)
	return c, nil
}

// List retrieves the group's chores in creation order.
func (r choreRepo) List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Chore, error) {
	query := `SELECT ` + choreColumns + ` FROM chores WHERE group_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chores: %w", err)
	}
	defer rows.Close()

	var chores []*models.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chore: %w", err)
		}
		chores = append(chores, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chores: %w", err)
	}

	return chores, nil
}

// Fetch retrieves a chore by ID, including soft-deleted ones.
func (r choreRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Chore, error) {
	c, err := scanChore(r.q.QueryRowContext(ctx,
		`SELECT `+choreColumns+` FROM chores WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil // Chore not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chore: %w", err)
	}
	return c, nil
}

// Save inserts or updates a chore.
func (r choreRepo) Save(ctx context.Context, c *models.Chore) error {
	frequency, err := json.Marshal(c.Frequency)
	if err != nil {
		return fmt.Errorf("failed to encode frequency: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO chores (`+choreColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     weight = excluded.weight,
		     notes = excluded.notes,
		     is_favorite = excluded.is_favorite,
		     category = excluded.category,
		     default_assignee_id = excluded.default_assignee_id,
		     estimated_minutes = excluded.estimated_minutes,
		     frequency = excluded.frequency,
		     updated_at = excluded.updated_at,
		     updated_by = excluded.updated_by,
		     deleted_at = excluded.deleted_at,
		     deleted_by = excluded.deleted_by`,
		c.ID,
		c.GroupID,
		c.Title,
		c.Weight,
		nullString(c.Notes),
		c.IsFavorite,
		string(c.Category),
		nullUUID(c.DefaultAssigneeID),
		nullInt(c.EstimatedMinutes),
		string(frequency),
		toNanos(c.CreatedAt),
		c.CreatedBy,
		toNanos(c.UpdatedAt),
		c.UpdatedBy,
		nullTime(c.DeletedAt),
		nullUUID(c.DeletedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to save chore: %w", err)
	}
	return nil
}

// Delete removes a chore permanently. Its reminders go with it.
func (r choreRepo) Delete(ctx context.Context, id, groupID uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM chores WHERE id = ? AND group_id = ?", id, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}
	return checkAffected(res, "chore "+id.String())
}
