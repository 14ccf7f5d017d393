package service

import (
	"context"

	"famledger/internal/model"
	"famledger/internal/repository"
)

// Adjust applies a signed manual correction to a member's balance. Parent
// only; a negative amount that would take the balance below zero fails
// InsufficientBalance inside the atomic unit.
func (c *Core) Adjust(ctx context.Context, actor model.Actor, memberID string, resource model.ResourceType, amount int64, reason string) (*model.Transaction, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}
	if memberID == "" || !resource.Valid() || amount == 0 {
		return nil, model.ErrValidation
	}

	var txn *model.Transaction
	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		txn, err = c.applyDelta(ctx, st, deltaParams{
			memberID: memberID,
			resource: resource,
			delta:    amount,
			txType:   model.TxAdjustment,
			reason:   reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var hooks postCommit
	c.invalidateHook(&hooks, memberID, resource)
	c.auditHook(&hooks, model.AuditEvent{
		FamilyID:   actor.FamilyID,
		MemberID:   memberID,
		Action:     "balance.adjust",
		EntityType: "transaction",
		EntityID:   txn.ID,
		Result:     "SUCCESS",
		Metadata:   map[string]any{"amount": amount, "reason": reason, "adjusted_by": actor.ID},
	})
	hooks.add("notify-member", func(ctx context.Context) error {
		return c.notify.Notify(ctx, model.Notification{
			UserID:  memberID,
			Kind:    "balance_adjusted",
			Title:   "Balance adjusted",
			Message: reason,
			Metadata: map[string]any{
				"amount":        amount,
				"resource_type": resource,
				"new_balance":   txn.BalanceAfter,
			},
		})
	})
	hooks.run(ctx, c.log)

	return txn, nil
}
