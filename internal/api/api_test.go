package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/auth"
	"github.com/mmynk/choreshare/internal/service"
	"github.com/mmynk/choreshare/internal/storage/memory"
)

var testNow = time.Date(2024, 5, 22, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return testNow }
	opts := []service.Option{service.WithClock(clock), service.WithLocation(time.UTC)}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	srv := NewServer(Services{
		Groups:    service.NewGroupService(store, opts...),
		Chores:    service.NewChoreService(store, opts...),
		Logs:      service.NewChoreLogService(store, opts...),
		Reminders: service.NewReminderScheduler(store, opts...),
		Reports:   service.NewWorkloadReporter(store, opts...),
	}, jwtManager, clock)

	return &testServer{handler: srv.Routes(), jwt: jwtManager}
}

func (ts *testServer) token(t *testing.T, name string) (string, uuid.UUID) {
	t.Helper()

	id := auth.Identity{UserID: uuid.New(), ExternalID: "ext-" + strings.ToLower(name), Name: name}
	token, err := ts.jwt.Generate(id)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return token, id.UserID
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func TestHealthAndAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/api/v1/groups", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do(t, http.MethodGet, "/api/v1/groups", "not-a-token", nil)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", badRequest("nope"), http.StatusBadRequest},
		{"unauthorized", &service.Error{Kind: service.KindUnauthorized}, http.StatusForbidden},
		{"not found", &service.Error{Kind: service.KindNotFound}, http.StatusNotFound},
		{"validation", &service.Error{Kind: service.KindValidation, Reason: "bad weight"}, http.StatusBadRequest},
		{"repository", &service.Error{Kind: service.KindRepository}, http.StatusInternalServerError},
		{"empty body", errEmptyBody, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHouseholdFlow(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.token(t, "Alice")
	bob, _ := ts.token(t, "Bob")

	rec := ts.do(t, http.MethodPost, "/api/v1/groups", alice, map[string]any{"name": "Flat 4B"})
	expectStatus(t, rec, http.StatusCreated)
	group := decode[groupJSON](t, rec)
	base := "/api/v1/groups/" + group.ID.String()

	// Bob is not a member yet.
	rec = ts.do(t, http.MethodGet, base, bob, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = ts.do(t, http.MethodPost, base+"/invites", alice, nil)
	expectStatus(t, rec, http.StatusCreated)
	invite := decode[inviteJSON](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/v1/invites/join", bob, map[string]any{"code": strings.ToLower(invite.Code)})
	expectStatus(t, rec, http.StatusOK)
	joined := decode[groupJSON](t, rec)
	if len(joined.Members) != 2 {
		t.Fatalf("expected 2 roster entries, got %d", len(joined.Members))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/groups", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	if groups := decode[[]groupJSON](t, rec); len(groups) != 1 || groups[0].ID != group.ID {
		t.Errorf("bob's groups = %+v", groups)
	}

	rec = ts.do(t, http.MethodGet, base+"/members", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	members := decode[[]memberJSON](t, rec)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	names := map[string]uuid.UUID{}
	for _, m := range members {
		names[m.DisplayName] = m.ID
	}
	if _, ok := names["Alice"]; !ok {
		t.Fatalf("owner should take the token name, got %+v", members)
	}

	rec = ts.do(t, http.MethodPost, base+"/chores", bob, map[string]any{"title": "Dishes", "weight": 4})
	expectStatus(t, rec, http.StatusBadRequest)
	if e := decode[errorResponse](t, rec); e.Kind != string(service.KindValidation) {
		t.Errorf("kind = %q", e.Kind)
	}

	rec = ts.do(t, http.MethodPost, base+"/chores", bob, map[string]any{"title": "Dishes", "weight": 3, "category": "cooking"})
	expectStatus(t, rec, http.StatusCreated)
	chore := decode[choreJSON](t, rec)

	rec = ts.do(t, http.MethodPost, base+"/logs", bob, map[string]any{
		"chore_id":      chore.ID,
		"performer_ids": []uuid.UUID{names["Alice"], names["Bob"]},
	})
	expectStatus(t, rec, http.StatusCreated)
	logs := decode[[]choreLogJSON](t, rec)
	if len(logs) != 2 || math.Abs(logs[0].Weight-1.5) > 0.001 {
		t.Fatalf("unexpected log rows %+v", logs)
	}

	rec = ts.do(t, http.MethodGet, base+"/reports/weekly?count=1", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	weeks := decode[[]snapshotJSON](t, rec)
	if len(weeks) != 1 || weeks[0].TotalCount != 2 || math.Abs(weeks[0].TotalWeight-3) > 0.001 {
		t.Errorf("weekly report = %+v", weeks)
	}

	rec = ts.do(t, http.MethodGet, base+"/reports/balances", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	report := decode[balanceReportJSON](t, rec)
	if len(report.Balances) != 2 || len(report.Catchups) != 0 {
		t.Errorf("balances = %+v", report)
	}

	rec = ts.do(t, http.MethodPatch, base+"/logs/"+logs[0].ID.String(), bob, map[string]any{"memo": "rinsed too"})
	expectStatus(t, rec, http.StatusOK)
	if updated := decode[choreLogJSON](t, rec); updated.Memo == nil || *updated.Memo != "rinsed too" {
		t.Errorf("memo = %v", updated.Memo)
	}

	rec = ts.do(t, http.MethodDelete, base+"/logs/"+logs[1].ID.String(), bob, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = ts.do(t, http.MethodGet, base+"/logs", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if remaining := decode[[]choreLogJSON](t, rec); len(remaining) != 1 {
		t.Errorf("expected 1 remaining log, got %d", len(remaining))
	}
}

func TestChoreRoutes(t *testing.T) {
	ts := newTestServer(t)
	alice, _ := ts.token(t, "Alice")

	rec := ts.do(t, http.MethodPost, "/api/v1/groups", alice, map[string]any{"name": "Home"})
	expectStatus(t, rec, http.StatusCreated)
	base := "/api/v1/groups/" + decode[groupJSON](t, rec).ID.String()

	rec = ts.do(t, http.MethodPost, base+"/chores", alice, map[string]any{
		"title":     "Plants",
		"weight":    1,
		"notes":     "the big fern",
		"frequency": map[string]any{"kind": "recurring", "rule": map[string]any{"period": "weekly", "interval": 1, "weekdays": []int{1}}},
	})
	expectStatus(t, rec, http.StatusCreated)
	chore := decode[choreJSON](t, rec)
	choreURL := base + "/chores/" + chore.ID.String()

	// An explicit null clears notes; fields left out stay as they are.
	rec = ts.do(t, http.MethodPatch, choreURL, alice, map[string]any{"notes": nil, "weight": 2})
	expectStatus(t, rec, http.StatusOK)
	updated := decode[choreJSON](t, rec)
	if updated.Notes != nil || updated.Weight != 2 || updated.Title != "Plants" {
		t.Errorf("updated chore = %+v", updated)
	}

	rec = ts.do(t, http.MethodPatch, choreURL, alice, map[string]any{"colour": "green"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodPost, choreURL+"/reminders", alice, map[string]any{"schedule": map[string]any{"hour": 18}})
	expectStatus(t, rec, http.StatusCreated)
	reminder := decode[reminderJSON](t, rec)

	rec = ts.do(t, http.MethodGet, choreURL+"/reminders/upcoming?limit=2", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	upcoming := decode[[]occurrenceJSON](t, rec)
	if len(upcoming) != 2 || !upcoming[0].FireAt.Equal(time.Date(2024, 5, 22, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("upcoming = %+v", upcoming)
	}

	rec = ts.do(t, http.MethodDelete, choreURL+"/reminders/"+reminder.ID.String(), alice, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = ts.do(t, http.MethodDelete, choreURL, alice, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = ts.do(t, http.MethodGet, base+"/chores", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if active := decode[[]choreJSON](t, rec); len(active) != 0 {
		t.Errorf("expected no active chores, got %d", len(active))
	}

	rec = ts.do(t, http.MethodGet, base+"/chores?include_deleted=true", alice, nil)
	expectStatus(t, rec, http.StatusOK)
	if all := decode[[]choreJSON](t, rec); len(all) != 1 || all[0].DeletedAt == nil {
		t.Errorf("expected the deleted chore, got %+v", all)
	}

	rec = ts.do(t, http.MethodGet, base+"/chores/not-a-uuid", alice, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodGet, base+"/chores/"+uuid.NewString(), alice, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = ts.do(t, http.MethodGet, "/api/v1/groups/"+uuid.NewString()+"/chores", alice, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = ts.do(t, http.MethodGet, base+"/reports/balances?start=2024-05-20T00:00:00Z", alice, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodGet, base+"/reports/monthly?count=99", alice, nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestMemberRoutes(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceID := ts.token(t, "Alice")
	bob, bobID := ts.token(t, "Bob")

	rec := ts.do(t, http.MethodPost, "/api/v1/groups", alice, map[string]any{"name": "Home"})
	expectStatus(t, rec, http.StatusCreated)
	base := "/api/v1/groups/" + decode[groupJSON](t, rec).ID.String()

	rec = ts.do(t, http.MethodPost, base+"/members", alice, map[string]any{"display_name": "Bob", "user_id": bobID, "role": "member"})
	expectStatus(t, rec, http.StatusCreated)
	if m := decode[memberJSON](t, rec); m.Role != "editor" {
		t.Errorf("role = %q, want editor", m.Role)
	}

	rec = ts.do(t, http.MethodPost, base+"/members", alice, map[string]any{"display_name": "Kid", "role": "boss"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodPut, base+"/roster/"+bobID.String(), alice, map[string]any{"role": "viewer"})
	expectStatus(t, rec, http.StatusOK)
	for _, m := range decode[groupJSON](t, rec).Members {
		if m.UserID == bobID && m.Role != "viewer" {
			t.Errorf("bob's role = %q, want viewer", m.Role)
		}
	}

	// Viewers read but cannot write.
	rec = ts.do(t, http.MethodGet, base+"/chores", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodPost, base+"/chores", bob, map[string]any{"title": "Dishes"})
	expectStatus(t, rec, http.StatusForbidden)

	rec = ts.do(t, http.MethodPost, base+"/chores", alice, map[string]any{"title": "Dishes"})
	expectStatus(t, rec, http.StatusCreated)
	if c := decode[choreJSON](t, rec); c.Weight != 1 {
		t.Errorf("omitted weight = %d, want 1", c.Weight)
	}

	// The only admin cannot leave.
	rec = ts.do(t, http.MethodDelete, base+"/roster/"+aliceID.String(), alice, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodDelete, base+"/roster/"+bobID.String(), bob, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodGet, base, bob, nil)
	expectStatus(t, rec, http.StatusForbidden)
}
