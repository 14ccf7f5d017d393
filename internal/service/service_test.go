package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"famledger/internal/model"
	"famledger/internal/repository/memory"
)

// testTime is a Wednesday so weekly schedules with DayOfWeek 3 are due.
var testTime = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

var (
	parent     = model.Actor{ID: "parent-1", Role: model.RoleParent, FamilyID: "fam-1"}
	child      = model.Actor{ID: "child-1", Role: model.RoleChild, FamilyID: "fam-1"}
	otherChild = model.Actor{ID: "child-2", Role: model.RoleChild, FamilyID: "fam-1"}
)

// recorder captures side effects so tests can assert what fired post-commit.
type recorder struct {
	mu            sync.Mutex
	notifications []model.Notification
	parentNotes   []model.Notification
	audits        []model.AuditEvent
}

func (r *recorder) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recorder) NotifyParents(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parentNotes = append(r.parentNotes, n)
	return nil
}

func (r *recorder) Record(_ context.Context, e model.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, e)
	return nil
}

func newTestCore(t *testing.T) (*Core, *memory.DB, *recorder) {
	t.Helper()
	db := memory.New()
	rec := &recorder{}
	c := New(db, Options{
		Notifier: rec,
		Audit:    rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return testTime },
	})
	return c, db, rec
}

func seedBalance(t *testing.T, db *memory.DB, memberID string, resource model.ResourceType, amount int64) {
	t.Helper()
	err := db.Balances().Upsert(context.Background(), &model.Balance{
		MemberID:      memberID,
		ResourceType:  resource,
		CurrentAmount: amount,
		UpdatedAt:     testTime,
	})
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func mustBalance(t *testing.T, db *memory.DB, memberID string, resource model.ResourceType) *model.Balance {
	t.Helper()
	bal, err := db.Balances().Get(context.Background(), memberID, resource)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return bal
}
