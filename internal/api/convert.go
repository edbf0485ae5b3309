package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/calculator"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/service"
)

// Wire representations. Models carry no JSON tags; these types fix the
// field names clients see.

type membershipJSON struct {
	UserID   uuid.UUID   `json:"user_id"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

type groupJSON struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Icon      *string          `json:"icon,omitempty"`
	Members   []membershipJSON `json:"members"`
	CreatedAt time.Time        `json:"created_at"`
	CreatedBy uuid.UUID        `json:"created_by"`
	UpdatedAt time.Time        `json:"updated_at"`
	UpdatedBy uuid.UUID        `json:"updated_by"`
}

type memberJSON struct {
	ID          uuid.UUID   `json:"id"`
	GroupID     uuid.UUID   `json:"group_id"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	ExternalID  *string     `json:"external_id,omitempty"`
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url,omitempty"`
	Role        models.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
}

type choreJSON struct {
	ID                uuid.UUID        `json:"id"`
	GroupID           uuid.UUID        `json:"group_id"`
	Title             string           `json:"title"`
	Weight            int              `json:"weight"`
	Notes             *string          `json:"notes,omitempty"`
	IsFavorite        bool             `json:"is_favorite"`
	Category          models.Category  `json:"category"`
	DefaultAssigneeID *uuid.UUID       `json:"default_assignee_id,omitempty"`
	EstimatedMinutes  *int             `json:"estimated_minutes,omitempty"`
	Frequency         models.Frequency `json:"frequency"`
	CreatedAt         time.Time        `json:"created_at"`
	CreatedBy         uuid.UUID        `json:"created_by"`
	UpdatedAt         time.Time        `json:"updated_at"`
	UpdatedBy         uuid.UUID        `json:"updated_by"`
	DeletedAt         *time.Time       `json:"deleted_at,omitempty"`
}

type choreLogJSON struct {
	ID              uuid.UUID `json:"id"`
	ChoreID         uuid.UUID `json:"chore_id"`
	GroupID         uuid.UUID `json:"group_id"`
	PerformerID     uuid.UUID `json:"performer_id"`
	Weight          float64   `json:"weight"`
	Memo            *string   `json:"memo,omitempty"`
	BatchID         uuid.UUID `json:"batch_id"`
	PerformerCount  int       `json:"performer_count"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       uuid.UUID `json:"created_by"`
}

type inviteJSON struct {
	ID          uuid.UUID  `json:"id"`
	GroupID     uuid.UUID  `json:"group_id"`
	Code        string     `json:"code"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	MaxUses     *int       `json:"max_uses,omitempty"`
	CurrentUses int        `json:"current_uses"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   uuid.UUID  `json:"created_by"`
}

type scheduleJSON struct {
	Weekdays []int `json:"weekdays,omitempty"`
	Hour     int   `json:"hour"`
	Minute   int   `json:"minute"`
	Second   int   `json:"second"`
}

type reminderJSON struct {
	ID        uuid.UUID      `json:"id"`
	ChoreID   uuid.UUID      `json:"chore_id"`
	Schedule  scheduleJSON   `json:"schedule"`
	Channel   models.Channel `json:"channel"`
	IsEnabled bool           `json:"is_enabled"`
}

type occurrenceJSON struct {
	ReminderID uuid.UUID      `json:"reminder_id"`
	ChoreID    uuid.UUID      `json:"chore_id"`
	FireAt     time.Time      `json:"fire_at"`
	Channel    models.Channel `json:"channel"`
}

type contributorJSON struct {
	MemberID             uuid.UUID               `json:"member_id"`
	CompletedCount       int                     `json:"completed_count"`
	TotalWeight          float64                 `json:"total_weight"`
	TotalDurationMinutes int                     `json:"total_duration_minutes"`
	ShareOfWeight        float64                 `json:"share_of_weight"`
	CategoryCounts       map[models.Category]int `json:"category_counts,omitempty"`
	CategoryDurations    map[models.Category]int `json:"category_durations,omitempty"`
}

type snapshotJSON struct {
	Start                time.Time         `json:"start"`
	End                  time.Time         `json:"end"`
	Contributions        []contributorJSON `json:"contributions"`
	TotalCount           int               `json:"total_count"`
	TotalWeight          float64           `json:"total_weight"`
	TotalDurationMinutes int               `json:"total_duration_minutes"`
}

type balanceJSON struct {
	MemberID  uuid.UUID `json:"member_id"`
	Actual    float64   `json:"actual"`
	FairShare float64   `json:"fair_share"`
	Net       float64   `json:"net"`
}

type catchupJSON struct {
	From   uuid.UUID `json:"from"`
	To     uuid.UUID `json:"to"`
	Amount float64   `json:"amount"`
}

type balanceReportJSON struct {
	Snapshot snapshotJSON  `json:"snapshot"`
	Balances []balanceJSON `json:"balances"`
	Catchups []catchupJSON `json:"catchups"`
}

func toGroupJSON(g *models.Group) groupJSON {
	members := make([]membershipJSON, len(g.Members))
	for i, m := range g.Members {
		members[i] = membershipJSON{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
	}
	return groupJSON{
		ID:        g.ID,
		Name:      g.Name,
		Icon:      g.Icon,
		Members:   members,
		CreatedAt: g.CreatedAt,
		CreatedBy: g.CreatedBy,
		UpdatedAt: g.UpdatedAt,
		UpdatedBy: g.UpdatedBy,
	}
}

func toMemberJSON(m *models.Member) memberJSON {
	return memberJSON{
		ID:          m.ID,
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		ExternalID:  m.ExternalID,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		Role:        m.Role,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		DeletedAt:   m.DeletedAt,
	}
}

func toMembersJSON(members []*models.Member) []memberJSON {
	out := make([]memberJSON, len(members))
	for i, m := range members {
		out[i] = toMemberJSON(m)
	}
	return out
}

func toChoreJSON(c *models.Chore) choreJSON {
	return choreJSON{
		ID:                c.ID,
		GroupID:           c.GroupID,
		Title:             c.Title,
		Weight:            c.Weight,
		Notes:             c.Notes,
		IsFavorite:        c.IsFavorite,
		Category:          c.Category,
		DefaultAssigneeID: c.DefaultAssigneeID,
		EstimatedMinutes:  c.EstimatedMinutes,
		Frequency:         c.Frequency,
		CreatedAt:         c.CreatedAt,
		CreatedBy:         c.CreatedBy,
		UpdatedAt:         c.UpdatedAt,
		UpdatedBy:         c.UpdatedBy,
		DeletedAt:         c.DeletedAt,
	}
}

func toChoresJSON(chores []*models.Chore) []choreJSON {
	out := make([]choreJSON, len(chores))
	for i, c := range chores {
		out[i] = toChoreJSON(c)
	}
	return out
}

func toLogsJSON(logs []*models.ChoreLog) []choreLogJSON {
	out := make([]choreLogJSON, len(logs))
	for i, l := range logs {
		out[i] = toLogJSON(l)
	}
	return out
}

func toLogJSON(l *models.ChoreLog) choreLogJSON {
	return choreLogJSON{
		ID:              l.ID,
		ChoreID:         l.ChoreID,
		GroupID:         l.GroupID,
		PerformerID:     l.PerformerID,
		Weight:          l.Weight,
		Memo:            l.Memo,
		BatchID:         l.BatchID,
		PerformerCount:  l.PerformerCount,
		DurationMinutes: l.DurationMinutes,
		CreatedAt:       l.CreatedAt,
		CreatedBy:       l.CreatedBy,
	}
}

func toInviteJSON(i *models.GroupInvite) inviteJSON {
	return inviteJSON{
		ID:          i.ID,
		GroupID:     i.GroupID,
		Code:        i.Code,
		ExpiresAt:   i.ExpiresAt,
		MaxUses:     i.MaxUses,
		CurrentUses: i.CurrentUses,
		IsActive:    i.IsActive,
		CreatedAt:   i.CreatedAt,
		CreatedBy:   i.CreatedBy,
	}
}

func toInvitesJSON(invites []*models.GroupInvite) []inviteJSON {
	out := make([]inviteJSON, len(invites))
	for i, inv := range invites {
		out[i] = toInviteJSON(inv)
	}
	return out
}

func toScheduleJSON(s models.ReminderSchedule) scheduleJSON {
	return scheduleJSON{Weekdays: s.Weekdays, Hour: s.Hour, Minute: s.Minute, Second: s.Second}
}

func (s scheduleJSON) model() models.ReminderSchedule {
	return models.ReminderSchedule{Weekdays: s.Weekdays, Hour: s.Hour, Minute: s.Minute, Second: s.Second}
}

func toReminderJSON(r *models.Reminder) reminderJSON {
	return reminderJSON{
		ID:        r.ID,
		ChoreID:   r.ChoreID,
		Schedule:  toScheduleJSON(r.Schedule),
		Channel:   r.Channel,
		IsEnabled: r.IsEnabled,
	}
}

func toRemindersJSON(reminders []*models.Reminder) []reminderJSON {
	out := make([]reminderJSON, len(reminders))
	for i, r := range reminders {
		out[i] = toReminderJSON(r)
	}
	return out
}

func toOccurrencesJSON(occ []service.Occurrence) []occurrenceJSON {
	out := make([]occurrenceJSON, len(occ))
	for i, o := range occ {
		out[i] = occurrenceJSON{ReminderID: o.ReminderID, ChoreID: o.ChoreID, FireAt: o.FireAt, Channel: o.Channel}
	}
	return out
}

func toSnapshotJSON(s calculator.WorkloadSnapshot) snapshotJSON {
	contributions := make([]contributorJSON, len(s.Contributions))
	for i, c := range s.Contributions {
		contributions[i] = contributorJSON{
			MemberID:             c.MemberID,
			CompletedCount:       c.CompletedCount,
			TotalWeight:          c.TotalWeight,
			TotalDurationMinutes: c.TotalDurationMinutes,
			ShareOfWeight:        c.ShareOfTotalWeight(s.TotalWeight),
			CategoryCounts:       c.CategoryCounts,
			CategoryDurations:    c.CategoryDurations,
		}
	}
	return snapshotJSON{
		Start:                s.Interval.Start,
		End:                  s.Interval.End,
		Contributions:        contributions,
		TotalCount:           s.TotalCount,
		TotalWeight:          s.TotalWeight,
		TotalDurationMinutes: s.TotalDurationMinutes,
	}
}

func toSnapshotsJSON(snaps []calculator.WorkloadSnapshot) []snapshotJSON {
	out := make([]snapshotJSON, len(snaps))
	for i, s := range snaps {
		out[i] = toSnapshotJSON(s)
	}
	return out
}

func toBalanceReportJSON(r *service.BalanceReport) balanceReportJSON {
	balances := make([]balanceJSON, len(r.Balances))
	for i, b := range r.Balances {
		balances[i] = balanceJSON{MemberID: b.MemberID, Actual: b.Actual, FairShare: b.FairShare, Net: b.Net}
	}
	catchups := make([]catchupJSON, len(r.Catchups))
	for i, c := range r.Catchups {
		catchups[i] = catchupJSON{From: c.From, To: c.To, Amount: c.Amount}
	}
	return balanceReportJSON{
		Snapshot: toSnapshotJSON(r.Snapshot),
		Balances: balances,
		Catchups: catchups,
	}
}
