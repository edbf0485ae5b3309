package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

type groupRepo struct {
	q querier
}

// Fetch retrieves a group and its roster in roster order.
func (r groupRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group := &models.Group{}
	var icon sql.NullString
	var createdAt, updatedAt int64

	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, icon, created_at, created_by, updated_at, updated_by
		 FROM groups WHERE id = ?`,
		id,
	).Scan(&group.ID, &group.Name, &icon, &createdAt, &group.CreatedBy, &updatedAt, &group.UpdatedBy)
	if err == sql.ErrNoRows {
		return nil, nil // Group not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Icon = stringPtr(icon)
	group.CreatedAt = fromNanos(createdAt)
	group.UpdatedAt = fromNanos(updatedAt)

	rows, err := r.q.QueryContext(ctx,
		`SELECT user_id, role, joined_at FROM group_memberships
		 WHERE group_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Membership
		var joinedAt int64
		if err := rows.Scan(&m.UserID, &m.Role, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.JoinedAt = fromNanos(joinedAt)
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return group, nil
}

// Save upserts the group row and replaces its roster.
// Callers wanting the two writes to be atomic run Save inside Atomically.
func (r groupRepo) Save(ctx context.Context, group *models.Group) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO groups (id, name, icon, created_at, created_by, updated_at, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     icon = excluded.icon,
		     updated_at = excluded.updated_at,
		     updated_by = excluded.updated_by`,
		group.ID, group.Name, nullString(group.Icon),
		toNanos(group.CreatedAt), group.CreatedBy, toNanos(group.UpdatedAt), group.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	if _, err := r.q.ExecContext(ctx, "DELETE FROM group_memberships WHERE group_id = ?", group.ID); err != nil {
		return fmt.Errorf("failed to clear memberships: %w", err)
	}

	for i, m := range group.Members {
		_, err = r.q.ExecContext(ctx,
			"INSERT INTO group_memberships (group_id, user_id, role, joined_at, position) VALUES (?, ?, ?, ?, ?)",
			group.ID, m.UserID, string(m.Role), toNanos(m.JoinedAt), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", err)
		}
	}

	return nil
}
