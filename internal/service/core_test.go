package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"famledger/internal/model"
)

func TestApplyDeltaCreatesBalanceLazily(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()

	txn, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, 25, model.TxBonus, "welcome bonus")
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if txn.Amount != 25 || txn.BalanceAfter != 25 {
		t.Fatalf("got amount=%d balance_after=%d, want 25/25", txn.Amount, txn.BalanceAfter)
	}

	bal := mustBalance(t, db, "child-1", model.ResourceCredit)
	if bal.CurrentAmount != 25 || bal.LifetimeEarned != 25 || bal.LifetimeSpent != 0 {
		t.Fatalf("unexpected balance %+v", bal)
	}
}

func TestApplyDeltaRejectsOverdraw(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, "child-1", model.ResourceCredit, 10)

	_, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, -11, model.TxDeduction, "too much")
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}

	bal := mustBalance(t, db, "child-1", model.ResourceCredit)
	if bal.CurrentAmount != 10 {
		t.Fatalf("balance changed on failed delta: %d", bal.CurrentAmount)
	}
	txns, _ := c.ListTransactions(ctx, "child-1", model.ResourceCredit, 10)
	if len(txns) != 0 {
		t.Fatalf("failed delta appended %d transactions", len(txns))
	}
}

func TestApplyDeltaInvalidResource(t *testing.T) {
	c, _, _ := newTestCore(t)
	_, err := c.ApplyDelta(context.Background(), "child-1", "GOLD", 5, model.TxBonus, "")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestApplyDeltaLifetimeCounters(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()

	if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, 100, model.TxChoreReward, "earn"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, -30, model.TxRedemption, "spend"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, 30, model.TxRefund, "refund"); err != nil {
		t.Fatal(err)
	}

	bal := mustBalance(t, db, "child-1", model.ResourceCredit)
	if bal.CurrentAmount != 100 {
		t.Fatalf("current = %d, want 100", bal.CurrentAmount)
	}
	// The refund reverses the spend instead of counting as a new earn.
	if bal.LifetimeEarned != 100 || bal.LifetimeSpent != 0 {
		t.Fatalf("lifetime earned/spent = %d/%d, want 100/0", bal.LifetimeEarned, bal.LifetimeSpent)
	}
}

func TestApplyDeltaScreenTimeSkipsLifetime(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()

	if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceScreenTime, 60, model.TxAllowance, "weekly minutes"); err != nil {
		t.Fatal(err)
	}
	bal := mustBalance(t, db, "child-1", model.ResourceScreenTime)
	if bal.CurrentAmount != 60 || bal.LifetimeEarned != 0 || bal.LifetimeSpent != 0 {
		t.Fatalf("unexpected screen-time balance %+v", bal)
	}
}

// Many concurrent deltas must conserve the total and leave a log that replays
// to every BalanceAfter.
func TestApplyDeltaConcurrentConservation(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, "child-1", model.ResourceCredit, 1000)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		delta := int64(7)
		if i%2 == 1 {
			delta = -3
		}
		go func(d int64) {
			defer wg.Done()
			if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, d, model.TxAdjustment, "stress"); err != nil {
				t.Errorf("ApplyDelta: %v", err)
			}
		}(delta)
	}
	wg.Wait()

	want := int64(1000 + 10*7 - 10*3)
	bal := mustBalance(t, db, "child-1", model.ResourceCredit)
	if bal.CurrentAmount != want {
		t.Fatalf("final balance = %d, want %d", bal.CurrentAmount, want)
	}

	txns, err := c.ListTransactions(ctx, "child-1", model.ResourceCredit, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != workers {
		t.Fatalf("got %d transactions, want %d", len(txns), workers)
	}
	// Newest first: replay oldest-to-newest and check the running total.
	running := int64(1000)
	for i := len(txns) - 1; i >= 0; i-- {
		running += txns[i].Amount
		if txns[i].BalanceAfter != running {
			t.Fatalf("transaction %s: balance_after = %d, want %d", txns[i].ID, txns[i].BalanceAfter, running)
		}
	}
	if running != want {
		t.Fatalf("replayed total = %d, want %d", running, want)
	}
}

func TestGetBalanceUnknownMemberReadsZero(t *testing.T) {
	c, _, _ := newTestCore(t)

	bal, err := c.GetBalance(context.Background(), "nobody", model.ResourceCredit)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal.CurrentAmount != 0 || bal.MemberID != "nobody" {
		t.Fatalf("unexpected zero balance %+v", bal)
	}
}

func TestListTransactionsLimit(t *testing.T) {
	c, _, _ := newTestCore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.ApplyDelta(ctx, "child-1", model.ResourceCredit, 1, model.TxBonus, "tick"); err != nil {
			t.Fatal(err)
		}
	}

	txns, err := c.ListTransactions(ctx, "child-1", model.ResourceCredit, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}
	if txns[0].BalanceAfter != 5 {
		t.Fatalf("newest first: balance_after = %d, want 5", txns[0].BalanceAfter)
	}

	// Nonsense limits fall back to the default.
	txns, err = c.ListTransactions(ctx, "child-1", model.ResourceCredit, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 5 {
		t.Fatalf("got %d transactions, want all 5", len(txns))
	}
}

func TestAdjust(t *testing.T) {
	c, db, rec := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceCredit, 50)

	txn, err := c.Adjust(ctx, parent, child.ID, model.ResourceCredit, -20, "screen broke")
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if txn.Type != model.TxAdjustment || txn.BalanceAfter != 30 {
		t.Fatalf("unexpected transaction %+v", txn)
	}
	if len(rec.audits) != 1 || rec.audits[0].Action != "balance.adjust" {
		t.Fatalf("audit not recorded: %+v", rec.audits)
	}
	if len(rec.notifications) != 1 {
		t.Fatalf("member not notified: %+v", rec.notifications)
	}
}

func TestAdjustGuards(t *testing.T) {
	c, db, _ := newTestCore(t)
	ctx := context.Background()
	seedBalance(t, db, child.ID, model.ResourceCredit, 5)

	tests := []struct {
		name     string
		actor    model.Actor
		memberID string
		resource model.ResourceType
		amount   int64
		wantErr  error
	}{
		{"child actor", child, child.ID, model.ResourceCredit, 5, model.ErrForbidden},
		{"zero amount", parent, child.ID, model.ResourceCredit, 0, model.ErrValidation},
		{"bad resource", parent, child.ID, "GOLD", 5, model.ErrValidation},
		{"empty member", parent, "", model.ResourceCredit, 5, model.ErrValidation},
		{"overdraw", parent, child.ID, model.ResourceCredit, -6, model.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Adjust(ctx, tt.actor, tt.memberID, tt.resource, tt.amount, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
