package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

const inviteColumns = `id, group_id, code, expires_at, max_uses, current_uses, is_active, created_at, created_by`

type inviteRepo struct {
	q querier
}

func scanInvite(row scanner) (*models.GroupInvite, error) {
	inv := &models.GroupInvite{}
	var expiresAt, maxUses sql.NullInt64
	var createdAt int64

	if err := row.Scan(
		&inv.ID,
		&inv.GroupID,
		&inv.Code,
		&expiresAt,
		&maxUses,
		&inv.CurrentUses,
		&inv.IsActive,
		&createdAt,
		&inv.CreatedBy,
	); err != nil {
		return nil, err
	}

	inv.ExpiresAt = timePtr(expiresAt)
	inv.MaxUses = intPtr(maxUses)
	inv.CreatedAt = fromNanos(createdAt)
	return inv, nil
}

// FetchByCode retrieves an invite by its code, whatever its state.
func (r inviteRepo) FetchByCode(ctx context.Context, code string) (*models.GroupInvite, error) {
	inv, err := scanInvite(r.q.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM group_invites WHERE code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, nil // Invite not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// ListByGroup retrieves the group's invites, newest first.
func (r inviteRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.GroupInvite, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM group_invites WHERE group_id = ? ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.GroupInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invites: %w", err)
	}

	return invites, nil
}

// Save inserts or updates an invite.
func (r inviteRepo) Save(ctx context.Context, inv *models.GroupInvite) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO group_invites (`+inviteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     expires_at = excluded.expires_at,
		     max_uses = excluded.max_uses,
		     current_uses = excluded.current_uses,
		     is_active = excluded.is_active`,
		inv.ID,
		inv.GroupID,
		inv.Code,
		nullTime(inv.ExpiresAt),
		nullInt(inv.MaxUses),
		inv.CurrentUses,
		inv.IsActive,
		toNanos(inv.CreatedAt),
		inv.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save invite: %w", err)
	}
	return nil
}

// Delete removes an invite permanently.
func (r inviteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM group_invites WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	return checkAffected(res, "invite "+id.String())
}
