package service

import (
	"context"
	"errors"
	"testing"

	"famledger/internal/model"
)

func TestCreateAllowanceValidation(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		actor      model.Actor
		memberID   string
		amount     int64
		freq       model.AllowanceFrequency
		dayOfWeek  int
		dayOfMonth int
		wantErr    error
	}{
		{"child actor", child, child.ID, 10, model.FrequencyWeekly, 1, 0, model.ErrForbidden},
		{"zero amount", parent, child.ID, 0, model.FrequencyWeekly, 1, 0, model.ErrValidation},
		{"empty member", parent, "", 10, model.FrequencyWeekly, 1, 0, model.ErrValidation},
		{"bad frequency", parent, child.ID, 10, "DAILY", 1, 0, model.ErrValidation},
		{"weekday out of range", parent, child.ID, 10, model.FrequencyWeekly, 7, 0, model.ErrValidation},
		{"day of month zero", parent, child.ID, 10, model.FrequencyMonthly, 0, 0, model.ErrValidation},
		{"day of month high", parent, child.ID, 10, model.FrequencyMonthly, 0, 32, model.ErrValidation},
		{"weekly ok", parent, child.ID, 10, model.FrequencyWeekly, 3, 0, nil},
		{"monthly ok", parent, child.ID, 10, model.FrequencyMonthly, 0, 15, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := c.CreateAllowance(ctx, tt.actor, tt.memberID, tt.amount, tt.freq, tt.dayOfWeek, tt.dayOfMonth)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if err == nil && !s.IsActive {
				t.Fatal("new schedule not active")
			}
		})
	}
}

func TestDistributeAllowances(t *testing.T) {
	c, db, rec := newTestCore(t)
	ctx := context.Background()

	// testTime is a Wednesday (weekday 3) on the 4th of the month.
	due, err := c.CreateAllowance(ctx, parent, child.ID, 25, model.FrequencyWeekly, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateAllowance(ctx, parent, otherChild.ID, 25, model.FrequencyWeekly, 5, 0); err != nil {
		t.Fatal(err)
	}
	monthly, err := c.CreateAllowance(ctx, parent, otherChild.ID, 40, model.FrequencyMonthly, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	pausedSched, err := c.CreateAllowance(ctx, parent, child.ID, 99, model.FrequencyWeekly, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetAllowancePaused(ctx, parent, pausedSched.ID, true); err != nil {
		t.Fatal(err)
	}

	sum, err := c.DistributeAllowances(ctx)
	if err != nil {
		t.Fatalf("DistributeAllowances: %v", err)
	}
	if sum.Processed != 2 || sum.Skipped != 2 || sum.Errors != 0 {
		t.Fatalf("summary = %+v, want 2 processed, 2 skipped", sum)
	}

	if mustBalance(t, db, child.ID, model.ResourceCredit).CurrentAmount != 25 {
		t.Fatal("weekly allowance not paid")
	}
	if mustBalance(t, db, otherChild.ID, model.ResourceCredit).CurrentAmount != 40 {
		t.Fatal("monthly allowance not paid")
	}

	got, _ := db.Allowances().Get(ctx, due.ID)
	if got.LastProcessedAt == nil || !got.LastProcessedAt.Equal(testTime) {
		t.Fatalf("watermark not stamped: %+v", got.LastProcessedAt)
	}
	got, _ = db.Allowances().Get(ctx, monthly.ID)
	if got.LastProcessedAt == nil {
		t.Fatal("monthly watermark not stamped")
	}

	paid := 0
	for _, n := range rec.notifications {
		if n.Kind == "allowance_received" {
			paid++
		}
	}
	if paid != 2 {
		t.Fatalf("got %d allowance notifications, want 2", paid)
	}
}

// A second run on the same day finds every schedule already stamped and pays
// nothing.
func TestDistributeAllowancesIdempotent(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()

	if _, err := c.CreateAllowance(ctx, parent, child.ID, 25, model.FrequencyWeekly, 3, 0); err != nil {
		t.Fatal(err)
	}

	if _, err := c.DistributeAllowances(ctx); err != nil {
		t.Fatal(err)
	}
	sum, err := c.DistributeAllowances(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 0 || sum.Skipped != 1 {
		t.Fatalf("second run summary = %+v, want 0 processed, 1 skipped", sum)
	}
	if mustBalance(t, db, child.ID, model.ResourceCredit).CurrentAmount != 25 {
		t.Fatal("allowance paid twice")
	}
	txns, _ := c.ListTransactions(ctx, child.ID, model.ResourceCredit, 10)
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
}

func TestSetAllowancePausedGuards(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()

	s, err := c.CreateAllowance(ctx, parent, child.ID, 25, model.FrequencyWeekly, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SetAllowancePaused(ctx, child, s.ID, true); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("child paused a schedule: %v", err)
	}
	if _, err := c.SetAllowancePaused(ctx, parent, "missing", true); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	got, err := c.SetAllowancePaused(ctx, parent, s.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsPaused {
		t.Fatal("schedule not paused")
	}
	got, err = c.SetAllowancePaused(ctx, parent, s.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsPaused {
		t.Fatal("schedule not resumed")
	}
}
