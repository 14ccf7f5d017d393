package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"famledger/internal/model"
)

func TestStartOfWeekIsMonday(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		in   time.Time
	}{
		{"monday itself", time.Date(2026, time.March, 2, 9, 30, 0, 0, loc)},
		{"midweek", time.Date(2026, time.March, 4, 12, 0, 0, 0, loc)},
		{"sunday", time.Date(2026, time.March, 8, 23, 59, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startOfWeek(tt.in); !got.Equal(monday) {
				t.Fatalf("startOfWeek(%v) = %v, want %v", tt.in, got, monday)
			}
		})
	}
}

func TestRequestGraceGrants(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 5)

	res, err := c.RequestGrace(ctx, child, "homework video")
	if err != nil {
		t.Fatalf("RequestGrace: %v", err)
	}
	if res.PendingApproval {
		t.Fatal("default settings should auto-grant")
	}
	if res.NewBalance != 20 {
		t.Fatalf("new balance = %d, want 5+15=20", res.NewBalance)
	}
	if res.Log.Status != model.GraceGranted || res.Log.TransactionID == nil {
		t.Fatalf("unexpected log %+v", res.Log)
	}
	if res.Log.ApprovedByID != nil {
		t.Fatal("auto-grant should not record an approver")
	}

	txns, _ := c.ListTransactions(ctx, child.ID, model.ResourceScreenTime, 10)
	if len(txns) != 1 || txns[0].Type != model.TxGraceBorrowed || txns[0].Amount != 15 {
		t.Fatalf("unexpected transactions %+v", txns)
	}
}

func TestRequestGraceWithoutBalanceRow(t *testing.T) {
	c, _, _ := newTestCore(t)

	// A member who never had screen-time minutes reads as zero, which is low
	// enough.
	res, err := c.RequestGrace(context.Background(), child, "first request")
	if err != nil {
		t.Fatalf("RequestGrace: %v", err)
	}
	if res.NewBalance != 15 {
		t.Fatalf("new balance = %d, want 15", res.NewBalance)
	}
}

func TestRequestGraceBalanceNotLowEnough(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 45)

	_, err := c.RequestGrace(ctx, child, "more please")
	if !errors.Is(err, model.ErrBalanceNotLowEnough) {
		t.Fatalf("got %v, want ErrBalanceNotLowEnough", err)
	}
	if mustBalance(t, db, child.ID, model.ResourceScreenTime).CurrentAmount != 45 {
		t.Fatal("failed request moved minutes")
	}
}

func TestRequestGraceDailyLimit(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 0)

	if _, err := c.RequestGrace(ctx, child, "first"); err != nil {
		t.Fatal(err)
	}
	// Drain the granted minutes so the daily limit, not the balance gate, is
	// what blocks the second request.
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 0)

	_, err := c.RequestGrace(ctx, child, "second")
	if !errors.Is(err, model.ErrDailyLimitExceeded) {
		t.Fatalf("got %v, want ErrDailyLimitExceeded", err)
	}
}

func TestRequestGraceWeeklyLimit(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 0)

	gs := model.DefaultGraceSettings(child.ID)
	gs.MaxGracePerDay = 10
	gs.MaxGracePerWeek = 2
	if err := db.GraceSettings().Upsert(ctx, gs); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := c.RequestGrace(ctx, child, "again"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		seedBalance(t, db, child.ID, model.ResourceScreenTime, 0)
	}

	_, err := c.RequestGrace(ctx, child, "third")
	if !errors.Is(err, model.ErrWeeklyLimitExceeded) {
		t.Fatalf("got %v, want ErrWeeklyLimitExceeded", err)
	}
}

func TestRequestGraceCreatesDefaultSettings(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()

	if _, err := db.GraceSettings().Get(ctx, child.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("settings existed before first request: %v", err)
	}
	if _, err := c.RequestGrace(ctx, child, "first"); err != nil {
		t.Fatal(err)
	}
	gs, err := db.GraceSettings().Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("settings not created: %v", err)
	}
	if gs.GracePeriodMinutes != 15 || gs.MaxGracePerDay != 1 {
		t.Fatalf("unexpected defaults %+v", gs)
	}
}

func TestRequestGraceRequiresApproval(t *testing.T) {
	c, db, rec := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 5)

	gs := model.DefaultGraceSettings(child.ID)
	gs.RequiresApproval = true
	if err := db.GraceSettings().Upsert(ctx, gs); err != nil {
		t.Fatal(err)
	}

	res, err := c.RequestGrace(ctx, child, "please")
	if err != nil {
		t.Fatalf("RequestGrace: %v", err)
	}
	if !res.PendingApproval || res.Log.Status != model.GracePendingApproval {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Log.TransactionID != nil {
		t.Fatal("pending request should not move minutes")
	}
	if mustBalance(t, db, child.ID, model.ResourceScreenTime).CurrentAmount != 5 {
		t.Fatal("pending request moved minutes")
	}
	if len(rec.parentNotes) != 1 || rec.parentNotes[0].Kind != "grace_requested" {
		t.Fatalf("parents not notified: %+v", rec.parentNotes)
	}

	// A parent grants the deferred request.
	if _, err := c.ApproveGrace(ctx, child, res.Log.ID); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("child approved grace: %v", err)
	}
	approved, err := c.ApproveGrace(ctx, parent, res.Log.ID)
	if err != nil {
		t.Fatalf("ApproveGrace: %v", err)
	}
	if approved.NewBalance != 20 {
		t.Fatalf("new balance = %d, want 20", approved.NewBalance)
	}
	if approved.Log.ApprovedByID == nil || *approved.Log.ApprovedByID != parent.ID {
		t.Fatalf("approver not recorded: %+v", approved.Log)
	}

	// Replayed approvals observe GRANTED and must not grant again.
	if _, err := c.ApproveGrace(ctx, parent, res.Log.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("double approval: %v", err)
	}
	if mustBalance(t, db, child.ID, model.ResourceScreenTime).CurrentAmount != 20 {
		t.Fatal("double approval granted twice")
	}
}

func TestDenyGrace(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceScreenTime, 5)

	gs := model.DefaultGraceSettings(child.ID)
	gs.RequiresApproval = true
	if err := db.GraceSettings().Upsert(ctx, gs); err != nil {
		t.Fatal(err)
	}

	res, err := c.RequestGrace(ctx, child, "please")
	if err != nil {
		t.Fatal(err)
	}

	lg, err := c.DenyGrace(ctx, parent, res.Log.ID)
	if err != nil {
		t.Fatalf("DenyGrace: %v", err)
	}
	if lg.Status != model.GraceDenied {
		t.Fatalf("status = %s, want DENIED", lg.Status)
	}
	if mustBalance(t, db, child.ID, model.ResourceScreenTime).CurrentAmount != 5 {
		t.Fatal("denial moved minutes")
	}
	if _, err := c.ApproveGrace(ctx, parent, res.Log.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("approved a denied request: %v", err)
	}

	// Denied requests don't count against the limits, so a fresh request on
	// the same day still fits under MaxGracePerDay=1.
	res2, err := c.RequestGrace(ctx, child, "retry")
	if err != nil {
		t.Fatalf("request after denial: %v", err)
	}
	if res2.Log.Status != model.GracePendingApproval {
		t.Fatalf("unexpected status %s", res2.Log.Status)
	}
}
