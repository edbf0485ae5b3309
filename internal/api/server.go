// Package api exposes the chore-sharing services as a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/choreshare/internal/auth"
	"github.com/mmynk/choreshare/internal/middleware"
	"github.com/mmynk/choreshare/internal/service"
)

// Server routes HTTP requests to the services.
type Server struct {
	groups    *service.GroupService
	chores    *service.ChoreService
	logs      *service.ChoreLogService
	reminders *service.ReminderScheduler
	reports   *service.WorkloadReporter
	jwt       *auth.JWTManager
	now       func() time.Time
}

// Services bundles the collaborators of a Server.
type Services struct {
	Groups    *service.GroupService
	Chores    *service.ChoreService
	Logs      *service.ChoreLogService
	Reminders *service.ReminderScheduler
	Reports   *service.WorkloadReporter
}

// NewServer creates a Server. now defaults to time.Now and is used as the
// reference time for reports and upcoming reminders.
func NewServer(svc Services, jwtManager *auth.JWTManager, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{
		groups:    svc.Groups,
		chores:    svc.Chores,
		logs:      svc.Logs,
		reminders: svc.Reminders,
		reports:   svc.Reports,
		jwt:       jwtManager,
		now:       now,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.CORS)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.jwt))

		r.Get("/groups", s.listGroups)
		r.Post("/groups", s.createGroup)
		r.Post("/invites/join", s.joinGroup)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", s.getGroup)
			r.Patch("/", s.updateGroup)

			r.Put("/roster/{userID}", s.updateMemberRole)
			r.Delete("/roster/{userID}", s.removeMember)

			r.Get("/members", s.listMembers)
			r.Post("/members", s.addMember)
			r.Patch("/members/{memberID}", s.updateMember)
			r.Delete("/members/{memberID}", s.deleteMember)

			r.Get("/invites", s.listInvites)
			r.Post("/invites", s.generateInvite)
			r.Post("/invites/{inviteID}/deactivate", s.deactivateInvite)
			r.Delete("/invites/{inviteID}", s.deleteInvite)

			r.Get("/chores", s.listChores)
			r.Post("/chores", s.createChore)
			r.Get("/chores/{choreID}", s.getChore)
			r.Patch("/chores/{choreID}", s.updateChore)
			r.Delete("/chores/{choreID}", s.deleteChore)

			r.Get("/chores/{choreID}/reminders", s.listReminders)
			r.Post("/chores/{choreID}/reminders", s.scheduleReminder)
			r.Get("/chores/{choreID}/reminders/upcoming", s.upcomingReminders)
			r.Delete("/chores/{choreID}/reminders/{reminderID}", s.removeReminder)

			r.Get("/logs", s.fetchLogs)
			r.Post("/logs", s.recordChore)
			r.Patch("/logs/{logID}", s.updateLog)
			r.Delete("/logs/{logID}", s.deleteLog)

			r.Get("/reports/weekly", s.weeklyReport)
			r.Get("/reports/monthly", s.monthlyReport)
			r.Get("/reports/balances", s.balances)
		})
	})

	return router
}

// caller returns the authenticated identity. RequireAuth guarantees it is set.
func caller(r *http.Request) auth.Identity {
	id, _ := middleware.IdentityFrom(r.Context())
	return id
}

// memberOf parses the group route parameter and checks that the caller is on
// the group's roster. It writes the error response itself.
func (s *Server) memberOf(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, err)
		return uuid.Nil, false
	}
	if _, err := s.groups.MemberRole(r.Context(), groupID, caller(r).UserID); err != nil {
		writeError(w, err)
		return uuid.Nil, false
	}
	return groupID, true
}

// groupParam parses the group route parameter for handlers whose service
// call enforces the role itself.
func groupParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeError(w, err)
		return uuid.Nil, false
	}
	return groupID, true
}

// params parses further route parameters, writing the error response on failure.
func params(w http.ResponseWriter, r *http.Request, names ...string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := pathID(r, name)
		if err != nil {
			writeError(w, err)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}
