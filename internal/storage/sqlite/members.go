package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
)

const memberColumns = `id, group_id, user_id, external_id, display_name, avatar_url, role,
	created_at, created_by, updated_at, updated_by, deleted_at, deleted_by`

type memberRepo struct {
	q querier
}

// scanner is the common part of *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*models.Member, error) {
	m := &models.Member{}
	var userID, deletedBy uuid.NullUUID
	var externalID, avatarURL sql.NullString
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64

	if err := row.Scan(
		&m.ID,
		&m.GroupID,
		&userID,
		&externalID,
		&m.DisplayName,
		&avatarURL,
		&m.Role,
		&createdAt,
		&m.CreatedBy,
		&updatedAt,
		&m.UpdatedBy,
		&deletedAt,
		&deletedBy,
	); err != nil {
		return nil, err
	}

	m.UserID = uuidPtr(userID)
	m.ExternalID = stringPtr(externalID)
	m.AvatarURL = stringPtr(avatarURL)
	m.CreatedAt = fromNanos(createdAt)
	m.UpdatedAt = fromNanos(updatedAt)
	m.DeletedAt = timePtr(deletedAt)
	m.DeletedBy = uuidPtr(deletedBy)
	return m, nil
}

// List retrieves the group's members in creation order.
func (r memberRepo) List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE group_id = ?`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// Fetch retrieves a member by ID, including soft-deleted ones.
func (r memberRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	m, err := scanMember(r.q.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil // Member not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Save inserts or updates a member.
func (r memberRepo) Save(ctx context.Context, m *models.Member) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     user_id = excluded.user_id,
		     external_id = excluded.external_id,
		     display_name = excluded.display_name,
		     avatar_url = excluded.avatar_url,
		     role = excluded.role,
		     updated_at = excluded.updated_at,
		     updated_by = excluded.updated_by,
		     deleted_at = excluded.deleted_at,
		     deleted_by = excluded.deleted_by`,
		m.ID,
		m.GroupID,
		nullUUID(m.UserID),
		nullString(m.ExternalID),
		m.DisplayName,
		nullString(m.AvatarURL),
		string(m.Role),
		toNanos(m.CreatedAt),
		m.CreatedBy,
		toNanos(m.UpdatedAt),
		m.UpdatedBy,
		nullTime(m.DeletedAt),
		nullUUID(m.DeletedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// SoftDelete stamps the member as deleted. An already deleted member keeps
// its original stamp.
func (r memberRepo) SoftDelete(ctx context.Context, id, groupID, by uuid.UUID, at time.Time) error {
	if err := checkStorable("deleted_at", at); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE members SET
		     deleted_at = COALESCE(deleted_at, ?),
		     deleted_by = COALESCE(deleted_by, ?)
		 WHERE id = ? AND group_id = ?`,
		toNanos(at), by, id, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return checkAffected(res, "member "+id.String())
}

// ListGroupsForIdentity returns the groups where an active member carries externalID.
func (r memberRepo) ListGroupsForIdentity(ctx context.Context, externalID string) ([]uuid.UUID, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT group_id FROM members
		 WHERE external_id = ? AND deleted_at IS NULL
		 GROUP BY group_id ORDER BY MIN(created_at)`,
		externalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for identity: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group ids: %w", err)
	}

	return ids, nil
}
