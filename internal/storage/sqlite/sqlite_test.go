package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGroup(t *testing.T, store *SQLiteStore, admin uuid.UUID) *models.Group {
	t.Helper()

	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	group := &models.Group{
		ID:        uuid.New(),
		Name:      "Home",
		Members:   []models.Membership{{UserID: admin, Role: models.RoleAdmin, JoinedAt: now}},
		CreatedAt: now,
		CreatedBy: admin,
		UpdatedAt: now,
		UpdatedBy: admin,
	}
	if err := store.Groups().Save(context.Background(), group); err != nil {
		t.Fatalf("Failed to save group: %v", err)
	}
	return group
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := uuid.New()
	group := seedGroup(t, store, admin)
	now := time.Date(2024, 5, 20, 9, 30, 0, 123, time.UTC)

	t.Run("Group roundtrip keeps roster order", func(t *testing.T) {
		icon := "🏠"
		editor := uuid.New()
		group.Icon = &icon
		group.Members = append(group.Members, models.Membership{UserID: editor, Role: models.RoleEditor, JoinedAt: now})
		if err := store.Groups().Save(ctx, group); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Groups().Fetch(ctx, group.ID)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got.Icon == nil || *got.Icon != icon {
			t.Errorf("Icon mismatch: got %v", got.Icon)
		}
		if len(got.Members) != 2 || got.Members[0].UserID != admin || got.Members[1].UserID != editor {
			t.Fatalf("Roster mismatch: %+v", got.Members)
		}
		if !got.Members[1].JoinedAt.Equal(now) {
			t.Errorf("JoinedAt mismatch: got %v, want %v", got.Members[1].JoinedAt, now)
		}
	})

	t.Run("Fetch returns nil for missing group", func(t *testing.T) {
		got, err := store.Groups().Fetch(ctx, uuid.New())
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %v, %v", got, err)
		}
	})

	t.Run("Chore roundtrip", func(t *testing.T) {
		minutes := 20
		notes := "Use the blue sponge"
		assignee := uuid.New()
		chore := &models.Chore{
			ID:                uuid.New(),
			GroupID:           group.ID,
			Title:             "Dishes",
			Weight:            3,
			Notes:             &notes,
			IsFavorite:        true,
			Category:          models.CategoryCleaning,
			DefaultAssigneeID: &assignee,
			EstimatedMinutes:  &minutes,
			Frequency:         models.Recurring(models.RecurrenceRule{Period: models.PeriodWeekly, Interval: 1, Weekdays: []int{2, 5}}),
			CreatedAt:         now,
			CreatedBy:         admin,
			UpdatedAt:         now,
			UpdatedBy:         admin,
		}
		if err := store.Chores().Save(ctx, chore); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Chores().Fetch(ctx, chore.ID)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got.Title != "Dishes" || got.Weight != 3 || !got.IsFavorite || got.Category != models.CategoryCleaning {
			t.Errorf("Chore fields mismatch: %+v", got)
		}
		if got.EstimatedMinutes == nil || *got.EstimatedMinutes != 20 {
			t.Errorf("EstimatedMinutes mismatch: %v", got.EstimatedMinutes)
		}
		if got.DefaultAssigneeID == nil || *got.DefaultAssigneeID != assignee {
			t.Errorf("DefaultAssigneeID mismatch: %v", got.DefaultAssigneeID)
		}
		if got.Frequency.Rule == nil || len(got.Frequency.Rule.Weekdays) != 2 {
			t.Errorf("Frequency mismatch: %+v", got.Frequency)
		}
		if !got.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, now)
		}

		got.MarkDeleted(now, admin)
		if err := store.Chores().Save(ctx, got); err != nil {
			t.Fatalf("Save deleted failed: %v", err)
		}
		active, _ := store.Chores().List(ctx, group.ID, false)
		all, _ := store.Chores().List(ctx, group.ID, true)
		if len(active) != 0 || len(all) != 1 {
			t.Errorf("expected 0 active and 1 total chores, got %d and %d", len(active), len(all))
		}
	})

	t.Run("Chore logs are ascending and filtered by since", func(t *testing.T) {
		choreID := uuid.New()
		batch := uuid.New()
		for _, h := range []int{5, 1, 3} {
			l := &models.ChoreLog{
				ID:             uuid.New(),
				ChoreID:        choreID,
				GroupID:        group.ID,
				PerformerID:    uuid.New(),
				Weight:         1.5,
				BatchID:        batch,
				PerformerCount: 3,
				CreatedAt:      now.Add(time.Duration(h) * time.Hour),
				CreatedBy:      admin,
				UpdatedAt:      now,
				UpdatedBy:      admin,
			}
			if err := store.ChoreLogs().Save(ctx, l); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		logs, err := store.ChoreLogs().List(ctx, group.ID, nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(logs) != 3 {
			t.Fatalf("expected 3 logs, got %d", len(logs))
		}
		for i := 1; i < len(logs); i++ {
			if logs[i].CreatedAt.Before(logs[i-1].CreatedAt) {
				t.Errorf("logs not ascending at %d", i)
			}
		}
		if logs[0].Weight != 1.5 {
			t.Errorf("Weight mismatch: got %v", logs[0].Weight)
		}

		since := now.Add(3 * time.Hour)
		logs, _ = store.ChoreLogs().List(ctx, group.ID, &since)
		if len(logs) != 2 {
			t.Errorf("expected 2 logs at or after since, got %d", len(logs))
		}

		batchLogs, _ := store.ChoreLogs().ListBatch(ctx, group.ID, batch)
		if len(batchLogs) != 3 {
			t.Errorf("expected 3 batch rows, got %d", len(batchLogs))
		}

		if err := store.ChoreLogs().Delete(ctx, logs[0].ID, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound when deleting from another group, got %v", err)
		}
	})

	t.Run("Members and identity lookup", func(t *testing.T) {
		ext := "auth0|sam"
		userID := uuid.New()
		m := &models.Member{
			ID:          uuid.New(),
			GroupID:     group.ID,
			UserID:      &userID,
			ExternalID:  &ext,
			DisplayName: "Sam",
			Role:        models.RoleEditor,
			CreatedAt:   now,
			CreatedBy:   admin,
			UpdatedAt:   now,
			UpdatedBy:   admin,
		}
		if err := store.Members().Save(ctx, m); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		ids, err := store.Members().ListGroupsForIdentity(ctx, ext)
		if err != nil {
			t.Fatalf("ListGroupsForIdentity failed: %v", err)
		}
		if len(ids) != 1 || ids[0] != group.ID {
			t.Errorf("expected [%s], got %v", group.ID, ids)
		}

		deletedAt := time.Date(2024, 5, 21, 8, 0, 0, 0, time.UTC)
		if err := store.Members().SoftDelete(ctx, m.ID, group.ID, admin, deletedAt); err != nil {
			t.Fatalf("SoftDelete failed: %v", err)
		}
		got, _ := store.Members().Fetch(ctx, m.ID)
		if got == nil || !got.IsDeleted() || got.DeletedBy == nil || *got.DeletedBy != admin {
			t.Fatalf("expected member to be soft-deleted by admin, got %+v", got)
		}
		if !got.DeletedAt.Equal(deletedAt) {
			t.Errorf("DeletedAt = %v, want %v", got.DeletedAt, deletedAt)
		}
		if err := store.Members().SoftDelete(ctx, m.ID, group.ID, uuid.New(), deletedAt.Add(time.Hour)); err != nil {
			t.Fatalf("second SoftDelete failed: %v", err)
		}
		got, _ = store.Members().Fetch(ctx, m.ID)
		if !got.DeletedAt.Equal(deletedAt) || *got.DeletedBy != admin {
			t.Errorf("second delete overwrote the stamp: %v by %v", got.DeletedAt, got.DeletedBy)
		}
		if !got.IsLinkedTo(userID) {
			t.Error("expected member to stay linked after deletion")
		}

		ids, _ = store.Members().ListGroupsForIdentity(ctx, ext)
		if len(ids) != 0 {
			t.Errorf("deleted member still resolves to %v", ids)
		}
	})

	t.Run("Invites by code", func(t *testing.T) {
		maxUses := 2
		inv := &models.GroupInvite{
			ID:        uuid.New(),
			GroupID:   group.ID,
			Code:      "ABCD-EF23",
			MaxUses:   &maxUses,
			IsActive:  true,
			CreatedAt: now,
			CreatedBy: admin,
		}
		if err := store.Invites().Save(ctx, inv); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		inv.IsActive = false
		inv.CurrentUses = 1
		if err := store.Invites().Save(ctx, inv); err != nil {
			t.Fatalf("Save update failed: %v", err)
		}

		got, err := store.Invites().FetchByCode(ctx, "ABCD-EF23")
		if err != nil {
			t.Fatalf("FetchByCode failed: %v", err)
		}
		if got == nil || got.IsActive || got.CurrentUses != 1 || got.MaxUses == nil || *got.MaxUses != 2 {
			t.Errorf("Invite mismatch: %+v", got)
		}

		missing, err := store.Invites().FetchByCode(ctx, "ZZZZ-ZZZZ")
		if err != nil || missing != nil {
			t.Errorf("expected nil, nil for unknown code; got %v, %v", missing, err)
		}
	})

	t.Run("Reminders follow their chore", func(t *testing.T) {
		chore := &models.Chore{
			ID: uuid.New(), GroupID: group.ID, Title: "Bins", Weight: 1,
			Category: models.CategoryGarbage, Frequency: models.OnDemand(),
			CreatedAt: now, CreatedBy: admin, UpdatedAt: now, UpdatedBy: admin,
		}
		if err := store.Chores().Save(ctx, chore); err != nil {
			t.Fatalf("Save chore failed: %v", err)
		}

		rem := &models.Reminder{
			ID:        uuid.New(),
			ChoreID:   chore.ID,
			GroupID:   group.ID,
			Schedule:  models.ReminderSchedule{Weekdays: []int{2}, Hour: 19, Minute: 30},
			Channel:   models.ChannelPush,
			IsEnabled: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.Reminders().Save(ctx, rem); err != nil {
			t.Fatalf("Save reminder failed: %v", err)
		}

		got, _ := store.Reminders().List(ctx, chore.ID)
		if len(got) != 1 || got[0].Schedule.Hour != 19 || len(got[0].Schedule.Weekdays) != 1 {
			t.Fatalf("Reminder mismatch: %+v", got)
		}

		if err := store.Chores().Delete(ctx, chore.ID, group.ID); err != nil {
			t.Fatalf("Delete chore failed: %v", err)
		}
		got, _ = store.Reminders().List(ctx, chore.ID)
		if len(got) != 0 {
			t.Errorf("expected reminders to be removed with the chore, got %d", len(got))
		}
	})
}

func TestAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := uuid.New()
	group := seedGroup(t, store, admin)
	now := time.Now().UTC()

	newLog := func() *models.ChoreLog {
		return &models.ChoreLog{
			ID: uuid.New(), ChoreID: uuid.New(), GroupID: group.ID, PerformerID: uuid.New(),
			Weight: 1, BatchID: uuid.New(), PerformerCount: 1,
			CreatedAt: now, CreatedBy: admin, UpdatedAt: now, UpdatedBy: admin,
		}
	}

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(r storage.Repositories) error {
		if err := r.ChoreLogs().Save(ctx, newLog()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	logs, _ := store.ChoreLogs().List(ctx, group.ID, nil)
	if len(logs) != 0 {
		t.Fatalf("expected rollback to leave no logs, got %d", len(logs))
	}

	err = store.Atomically(ctx, func(r storage.Repositories) error {
		for i := 0; i < 2; i++ {
			if err := r.ChoreLogs().Save(ctx, newLog()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomically failed: %v", err)
	}

	logs, _ = store.ChoreLogs().List(ctx, group.ID, nil)
	if len(logs) != 2 {
		t.Errorf("expected 2 committed logs, got %d", len(logs))
	}
}

func TestChoreLogTimeRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	admin := uuid.New()
	group := seedGroup(t, store, admin)
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	newLog := func(at time.Time) *models.ChoreLog {
		return &models.ChoreLog{
			ID: uuid.New(), ChoreID: uuid.New(), GroupID: group.ID, PerformerID: admin,
			Weight: 1, BatchID: uuid.New(), PerformerCount: 1,
			CreatedAt: at, CreatedBy: admin, UpdatedAt: now, UpdatedBy: admin,
		}
	}

	old := time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.ChoreLogs().Save(ctx, newLog(old)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, at := range []time.Time{
		time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		if err := store.ChoreLogs().Save(ctx, newLog(at)); err == nil {
			t.Errorf("expected Save to reject created_at %v", at)
		}
	}

	since := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
	logs, err := store.ChoreLogs().List(ctx, group.ID, &since)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(logs) != 1 || !logs[0].CreatedAt.Equal(old) {
		t.Fatalf("expected the 1700 log to read back unchanged, got %+v", logs)
	}

	future := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	logs, err = store.ChoreLogs().List(ctx, group.ID, &future)
	if err != nil || len(logs) != 0 {
		t.Errorf("List since 2300 = %d logs, %v", len(logs), err)
	}
}
