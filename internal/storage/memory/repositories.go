package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

type groupRepo struct{ repos }

func (r groupRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var out *models.Group
	err := r.with(func(d *data) error {
		if g, ok := d.groups.get(id); ok {
			out = copyGroup(g)
		}
		return nil
	})
	return out, err
}

func (r groupRepo) Save(ctx context.Context, group *models.Group) error {
	return r.with(func(d *data) error {
		d.groups.put(group.ID, copyGroup(group))
		return nil
	})
}

type memberRepo struct{ repos }

func (r memberRepo) List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Member, error) {
	var out []*models.Member
	err := r.with(func(d *data) error {
		d.members.each(func(m *models.Member) {
			if m.GroupID != groupID || (!includeDeleted && m.IsDeleted()) {
				return
			}
			out = append(out, copyMember(m))
		})
		return nil
	})
	return out, err
}

func (r memberRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var out *models.Member
	err := r.with(func(d *data) error {
		if m, ok := d.members.get(id); ok {
			out = copyMember(m)
		}
		return nil
	})
	return out, err
}

func (r memberRepo) Save(ctx context.Context, member *models.Member) error {
	return r.with(func(d *data) error {
		d.members.put(member.ID, copyMember(member))
		return nil
	})
}

func (r memberRepo) SoftDelete(ctx context.Context, id, groupID, by uuid.UUID, at time.Time) error {
	return r.with(func(d *data) error {
		m, ok := d.members.get(id)
		if !ok || m.GroupID != groupID {
			return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
		}
		m.MarkDeleted(at, by)
		return nil
	})
}

func (r memberRepo) ListGroupsForIdentity(ctx context.Context, externalID string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.with(func(d *data) error {
		seen := make(map[uuid.UUID]bool)
		d.members.each(func(m *models.Member) {
			if m.IsDeleted() || m.ExternalID == nil || *m.ExternalID != externalID || seen[m.GroupID] {
				return
			}
			seen[m.GroupID] = true
			out = append(out, m.GroupID)
		})
		return nil
	})
	return out, err
}

type choreRepo struct{ repos }

func (r choreRepo) List(ctx context.Context, groupID uuid.UUID, includeDeleted bool) ([]*models.Chore, error) {
	var out []*models.Chore
	err := r.with(func(d *data) error {
		d.chores.each(func(c *models.Chore) {
			if c.GroupID != groupID || (!includeDeleted && c.IsDeleted()) {
				return
			}
			out = append(out, copyChore(c))
		})
		return nil
	})
	return out, err
}

func (r choreRepo) Fetch(ctx context.Context, id uuid.UUID) (*models.Chore, error) {
	var out *models.Chore
	err := r.with(func(d *data) error {
		if c, ok := d.chores.get(id); ok {
			out = copyChore(c)
		}
		return nil
	})
	return out, err
}

func (r choreRepo) Save(ctx context.Context, chore *models.Chore) error {
	return r.with(func(d *data) error {
		d.chores.put(chore.ID, copyChore(chore))
		return nil
	})
}

func (r choreRepo) Delete(ctx context.Context, id, groupID uuid.UUID) error {
	return r.with(func(d *data) error {
		c, ok := d.chores.get(id)
		if !ok || c.GroupID != groupID {
			return fmt.Errorf("chore %s: %w", id, storage.ErrNotFound)
		}
		d.chores.remove(id)
		return nil
	})
}

type logRepo struct{ repos }

func (r logRepo) List(ctx context.Context, groupID uuid.UUID, since *time.Time) ([]*models.ChoreLog, error) {
	var out []*models.ChoreLog
	err := r.with(func(d *data) error {
		d.logs.each(func(l *models.ChoreLog) {
			if l.GroupID != groupID || (since != nil && l.CreatedAt.Before(*since)) {
				return
			}
			out = append(out, copyLog(l))
		})
		return nil
	})
	sortLogs(out)
	return out, err
}

func (r logRepo) ListBatch(ctx context.Context, groupID, batchID uuid.UUID) ([]*models.ChoreLog, error) {
	var out []*models.ChoreLog
	err := r.with(func(d *data) error {
		d.logs.each(func(l *models.ChoreLog) {
			if l.GroupID == groupID && l.BatchID == batchID {
				out = append(out, copyLog(l))
			}
		})
		return nil
	})
	sortLogs(out)
	return out, err
}

func (r logRepo) Save(ctx context.Context, log *models.ChoreLog) error {
	return r.with(func(d *data) error {
		d.logs.put(log.ID, copyLog(log))
		return nil
	})
}

func (r logRepo) Delete(ctx context.Context, id, groupID uuid.UUID) error {
	return r.with(func(d *data) error {
		l, ok := d.logs.get(id)
		if !ok || l.GroupID != groupID {
			return fmt.Errorf("chore log %s: %w", id, storage.ErrNotFound)
		}
		d.logs.remove(id)
		return nil
	})
}

func sortLogs(logs []*models.ChoreLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
}

type inviteRepo struct{ repos }

func (r inviteRepo) FetchByCode(ctx context.Context, code string) (*models.GroupInvite, error) {
	var out *models.GroupInvite
	err := r.with(func(d *data) error {
		d.invites.each(func(i *models.GroupInvite) {
			if out == nil && i.Code == code {
				out = copyInvite(i)
			}
		})
		return nil
	})
	return out, err
}

func (r inviteRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.GroupInvite, error) {
	var out []*models.GroupInvite
	err := r.with(func(d *data) error {
		d.invites.each(func(i *models.GroupInvite) {
			if i.GroupID == groupID {
				out = append(out, copyInvite(i))
			}
		})
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r inviteRepo) Save(ctx context.Context, invite *models.GroupInvite) error {
	return r.with(func(d *data) error {
		d.invites.put(invite.ID, copyInvite(invite))
		return nil
	})
}

func (r inviteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.with(func(d *data) error {
		if !d.invites.remove(id) {
			return fmt.Errorf("invite %s: %w", id, storage.ErrNotFound)
		}
		return nil
	})
}

type reminderRepo struct{ repos }

func (r reminderRepo) List(ctx context.Context, choreID uuid.UUID) ([]*models.Reminder, error) {
	var out []*models.Reminder
	err := r.with(func(d *data) error {
		d.reminders.each(func(rem *models.Reminder) {
			if rem.ChoreID == choreID {
				out = append(out, copyReminder(rem))
			}
		})
		return nil
	})
	return out, err
}

func (r reminderRepo) Save(ctx context.Context, reminder *models.Reminder) error {
	return r.with(func(d *data) error {
		d.reminders.put(reminder.ID, copyReminder(reminder))
		return nil
	})
}

func (r reminderRepo) Delete(ctx context.Context, id, choreID uuid.UUID) error {
	return r.with(func(d *data) error {
		rem, ok := d.reminders.get(id)
		if !ok || rem.ChoreID != choreID {
			return fmt.Errorf("reminder %s: %w", id, storage.ErrNotFound)
		}
		d.reminders.remove(id)
		return nil
	})
}
