package api

import (
	"net/http"
	"time"

	"github.com/mmynk/choreshare/internal/calculator"
	"github.com/mmynk/choreshare/internal/models"
	"github.com/mmynk/choreshare/internal/service"
)

const (
	defaultWeeks    = 4
	defaultMonths   = 3
	defaultUpcoming = 10
	maxPeriods      = 52
)

type reminderRequest struct {
	Schedule scheduleJSON   `json:"schedule"`
	Channel  models.Channel `json:"channel"`
	Enabled  *bool          `json:"enabled"`
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	ids, ok := params(w, r, "choreID")
	if !ok {
		return
	}
	reminders, err := s.reminders.ListReminders(r.Context(), groupID, ids[0])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRemindersJSON(reminders))
}

func (s *Server) scheduleReminder(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "choreID")
	if !ok {
		return
	}
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	draft := service.ReminderDraft{
		Schedule: req.Schedule.model(),
		Channel:  req.Channel,
		Enabled:  req.Enabled,
	}
	reminder, err := s.reminders.ScheduleReminder(r.Context(), ids[0], ids[1], caller(r).UserID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderJSON(reminder))
}

func (s *Server) removeReminder(w http.ResponseWriter, r *http.Request) {
	ids, ok := params(w, r, "groupID", "choreID", "reminderID")
	if !ok {
		return
	}
	if err := s.reminders.RemoveReminder(r.Context(), ids[0], ids[1], ids[2], caller(r).UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) upcomingReminders(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	ids, ok := params(w, r, "choreID")
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultUpcoming)
	if err != nil {
		writeError(w, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	ref := s.now()
	if from != nil {
		ref = *from
	}

	// The chore must belong to the caller's group.
	if _, err := s.chores.GetChore(r.Context(), groupID, ids[0]); err != nil {
		writeError(w, err)
		return
	}
	occurrences, err := s.reminders.UpcomingReminders(r.Context(), ids[0], limit, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOccurrencesJSON(occurrences))
}

// reportWindow reads the ending and count query parameters shared by the
// periodic reports.
func (s *Server) reportWindow(w http.ResponseWriter, r *http.Request, fallback int) (ending time.Time, count int, ok bool) {
	count, err := queryInt(r, "count", fallback)
	if err != nil {
		writeError(w, err)
		return ending, 0, false
	}
	if count < 0 || count > maxPeriods {
		writeError(w, badRequest("count must be between 0 and %d", maxPeriods))
		return ending, 0, false
	}
	end, err := queryTime(r, "ending")
	if err != nil {
		writeError(w, err)
		return ending, 0, false
	}
	ending = s.now()
	if end != nil {
		ending = *end
	}
	return ending, count, true
}

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	ending, count, ok := s.reportWindow(w, r, defaultWeeks)
	if !ok {
		return
	}
	snaps, err := s.reports.Weekly(r.Context(), groupID, ending, count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotsJSON(snaps))
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	ending, count, ok := s.reportWindow(w, r, defaultMonths)
	if !ok {
		return
	}
	snaps, err := s.reports.Monthly(r.Context(), groupID, ending, count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotsJSON(snaps))
}

// balances compares members over [start, end). Without bounds it covers the
// current week.
func (s *Server) balances(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.memberOf(w, r)
	if !ok {
		return
	}
	start, err := queryTime(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}

	var interval calculator.Interval
	switch {
	case start != nil && end != nil:
		if !start.Before(*end) {
			writeError(w, badRequest("start must be before end"))
			return
		}
		interval = calculator.Interval{Start: *start, End: *end}
	case start == nil && end == nil:
		weeks, err := s.reports.Weekly(r.Context(), groupID, s.now(), 1)
		if err != nil {
			writeError(w, err)
			return
		}
		interval = weeks[0].Interval
	default:
		writeError(w, badRequest("start and end must be given together"))
		return
	}

	report, err := s.reports.Balances(r.Context(), groupID, interval)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceReportJSON(report))
}
