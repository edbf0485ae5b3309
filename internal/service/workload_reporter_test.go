package service

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/choreshare/internal/calculator"
	"github.com/mmynk/choreshare/internal/models"
)

func TestWorkloadReports(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	g, a := f.newGroup(t, alice)
	b := f.addUser(t, g.ID, alice, bob, "Bob", models.RoleEditor)

	dishes := f.newChore(t, g.ID, alice, "Dishes", 3)
	trash := f.newChore(t, g.ID, alice, "Trash", 2)

	record := func(c *models.Chore, at time.Time, performers ...uuid.UUID) {
		t.Helper()
		if _, err := f.logs.RecordChore(f.ctx, LogDraft{GroupID: g.ID, ChoreID: c.ID, PerformerIDs: performers, CreatedAt: &at}, alice); err != nil {
			t.Fatalf("RecordChore failed: %v", err)
		}
	}

	yesterday := testNow.Add(-24 * time.Hour)
	record(dishes, yesterday, a.ID, b.ID)
	record(trash, yesterday, a.ID)
	record(trash, testNow.Add(-10*24*time.Hour), b.ID)

	// Deleted chores still count towards history.
	if err := f.chores.DeleteChore(f.ctx, trash.ID, g.ID, alice); err != nil {
		t.Fatalf("DeleteChore failed: %v", err)
	}

	weeks, err := f.reports.Weekly(f.ctx, g.ID, testNow, 2)
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
	current := weeks[1]
	if current.TotalCount != 3 || math.Abs(current.TotalWeight-5) > 0.01 {
		t.Errorf("current week = %d logs, %v weight", current.TotalCount, current.TotalWeight)
	}
	if current.Contributions[0].MemberID != a.ID || math.Abs(current.Contributions[0].TotalWeight-3.5) > 0.01 {
		t.Errorf("expected Alice first with 3.5, got %+v", current.Contributions[0])
	}
	if weeks[0].TotalCount != 1 || weeks[0].Contributions[0].MemberID != b.ID {
		t.Errorf("previous week = %+v", weeks[0])
	}

	months, err := f.reports.Monthly(f.ctx, g.ID, testNow, 1)
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if len(months) != 1 || months[0].TotalCount != 4 {
		t.Errorf("expected all 4 logs in the month ending today, got %+v", months)
	}

	empty, err := f.reports.Weekly(f.ctx, g.ID, testNow, 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("Weekly(0) = %v, %v", empty, err)
	}

	_, err = f.reports.Weekly(f.ctx, uuid.New(), testNow, 1)
	wantKind(t, err, KindNotFound)

	report, err := f.reports.Balances(f.ctx, g.ID, current.Interval)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if len(report.Balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(report.Balances))
	}
	// 5 points split between two members is 2.5 each; Bob owes Alice 1.
	if len(report.Catchups) != 1 {
		t.Fatalf("expected 1 catch-up, got %+v", report.Catchups)
	}
	want := calculator.Catchup{From: b.ID, To: a.ID, Amount: 1}
	got := report.Catchups[0]
	if got.From != want.From || got.To != want.To || math.Abs(got.Amount-want.Amount) > 0.01 {
		t.Errorf("catch-up = %+v, want %+v", got, want)
	}
}
