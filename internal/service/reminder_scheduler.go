package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/storage"
)

// reminderHorizonDays is how far ahead NextFireDate searches. Two weeks cover
// any weekly pattern.
const reminderHorizonDays = 14

// Occurrence is one upcoming firing of a reminder.
type Occurrence struct {
	ReminderID uuid.UUID
	ChoreID    uuid.UUID
	FireAt     time.Time
	Channel    models.Channel
}

// ReminderDraft holds the input for ScheduleReminder.
type ReminderDraft struct {
	Schedule models.ReminderSchedule

	// Channel defaults to push.
	Channel models.Channel

	// Enabled defaults to true.
	Enabled *bool
}

// ReminderScheduler configures chore reminders and computes when they fire.
type ReminderScheduler struct {
	store storage.Store
	opts  options
}

// NewReminderScheduler creates a new ReminderScheduler with the given storage backend.
func NewReminderScheduler(store storage.Store, opts ...Option) *ReminderScheduler {
	return &ReminderScheduler{store: store, opts: buildOptions(opts)}
}

// NextFireDate returns the first time at or after from when the reminder fires.
// It returns false for a disabled reminder or when nothing qualifies within
// the search horizon.
func (s *ReminderScheduler) NextFireDate(r *models.Reminder, from time.Time) (time.Time, bool) {
	if r == nil || !r.IsEnabled {
		return time.Time{}, false
	}

	from = from.In(s.opts.location)
	y, m, d := from.Date()
	for offset := 0; offset < reminderHorizonDays; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, s.opts.location)
		if !r.Schedule.Includes(models.Weekday(day)) {
			continue
		}
		target := time.Date(day.Year(), day.Month(), day.Day(),
			r.Schedule.Hour, r.Schedule.Minute, r.Schedule.Second, 0, s.opts.location)
		if !target.Before(from) {
			return target, true
		}
	}
	return time.Time{}, false
}

// UpcomingReminders lists the next firings of all the chore's reminders,
// earliest first, at most limit in total.
func (s *ReminderScheduler) UpcomingReminders(ctx context.Context, choreID uuid.UUID, limit int, reference time.Time) ([]Occurrence, error) {
	slog.Debug("UpcomingReminders request received", "chore_id", choreID, "limit", limit)

	if limit <= 0 {
		return []Occurrence{}, nil
	}

	reminders, err := s.store.Reminders().List(ctx, choreID)
	if err != nil {
		return nil, repoFailure("list reminders", err)
	}

	var upcoming []Occurrence
	for _, r := range reminders {
		cursor := reference
		for i := 0; i < limit; i++ {
			next, ok := s.NextFireDate(r, cursor)
			if !ok {
				break
			}
			upcoming = append(upcoming, Occurrence{
				ReminderID: r.ID,
				ChoreID:    r.ChoreID,
				FireAt:     next,
				Channel:    r.Channel,
			})
			cursor = next.Add(time.Second)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].FireAt.Before(upcoming[j].FireAt)
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

// ScheduleReminder attaches a reminder to a chore. Viewers cannot schedule reminders.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, groupID, choreID, actorID uuid.UUID, draft ReminderDraft) (reminder *models.Reminder, err error) {
	ctx, span := startSpan(ctx, "ReminderScheduler.ScheduleReminder", idAttr("group_id", groupID), idAttr("chore_id", choreID))
	defer func() { finish(span, "ScheduleReminder", err) }()

	slog.Info("ScheduleReminder request received", "group_id", groupID, "chore_id", choreID, "actor_id", actorID)

	if err = draft.Schedule.Validate(); err != nil {
		err = invalid("invalid schedule: %v", err)
		logFailure("ScheduleReminder", err, "chore_id", choreID)
		return nil, err
	}
	channel := draft.Channel
	if channel == "" {
		channel = models.ChannelPush
	}
	if !channel.Valid() {
		err = invalid("unknown channel %q", draft.Channel)
		logFailure("ScheduleReminder", err, "chore_id", choreID)
		return nil, err
	}

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		if _, err := loadChore(ctx, repos, groupID, choreID); err != nil {
			return err
		}

		now := s.opts.clock()
		r := &models.Reminder{
			ID:      uuid.New(),
			ChoreID: choreID,
			GroupID: groupID,
			Schedule: models.ReminderSchedule{
				Weekdays: append([]int(nil), draft.Schedule.Weekdays...),
				Hour:     draft.Schedule.Hour,
				Minute:   draft.Schedule.Minute,
				Second:   draft.Schedule.Second,
			},
			Channel:   channel,
			IsEnabled: draft.Enabled == nil || *draft.Enabled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Reminders().Save(ctx, r); err != nil {
			return repoFailure("save reminder", err)
		}
		reminder = r
		return nil
	})
	if err != nil {
		err = repoFailure("schedule reminder", err)
		logFailure("ScheduleReminder", err, "chore_id", choreID)
		return nil, err
	}

	slog.Info("Reminder scheduled", "chore_id", choreID, "reminder_id", reminder.ID)
	return reminder, nil
}

// RemoveReminder detaches a reminder from its chore.
func (s *ReminderScheduler) RemoveReminder(ctx context.Context, groupID, choreID, reminderID, actorID uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "ReminderScheduler.RemoveReminder", idAttr("chore_id", choreID), idAttr("reminder_id", reminderID))
	defer func() { finish(span, "RemoveReminder", err) }()

	slog.Info("RemoveReminder request received", "group_id", groupID, "chore_id", choreID, "reminder_id", reminderID)

	err = s.store.Atomically(ctx, func(repos storage.Repositories) error {
		group, err := loadGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}
		if err := requireWriter(group, actorID); err != nil {
			return err
		}
		c, err := repos.Chores().Fetch(ctx, choreID)
		if err != nil {
			return repoFailure("fetch chore", err)
		}
		if c == nil || c.GroupID != groupID {
			return notFound("chore %s not found in group %s", choreID, groupID)
		}
		if err := repos.Reminders().Delete(ctx, reminderID, choreID); err != nil {
			if isNotFound(err) {
				return notFound("reminder %s not found on chore %s", reminderID, choreID)
			}
			return repoFailure("delete reminder", err)
		}
		return nil
	})
	if err != nil {
		err = repoFailure("remove reminder", err)
		logFailure("RemoveReminder", err, "chore_id", choreID, "reminder_id", reminderID)
		return err
	}

	slog.Info("Reminder removed", "chore_id", choreID, "reminder_id", reminderID)
	return nil
}

// ListReminders returns the chore's reminders in creation order.
func (s *ReminderScheduler) ListReminders(ctx context.Context, groupID, choreID uuid.UUID) ([]*models.Reminder, error) {
	c, err := s.store.Chores().Fetch(ctx, choreID)
	if err != nil {
		return nil, repoFailure("fetch chore", err)
	}
	if c == nil || c.GroupID != groupID {
		return nil, notFound("chore %s not found in group %s", choreID, groupID)
	}
	reminders, err := s.store.Reminders().List(ctx, choreID)
	if err != nil {
		return nil, repoFailure("list reminders", err)
	}
	return reminders, nil
}
