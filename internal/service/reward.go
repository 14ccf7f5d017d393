package service

import (
	"context"

	"github.com/google/uuid"

	"famledger/internal/model"
	"famledger/internal/repository"
)

// CreateReward registers a redeemable reward. Parent only. Quantity nil means
// unlimited stock.
func (c *Core) CreateReward(ctx context.Context, actor model.Actor, name string, costCredits int64, quantity *int64) (*model.Reward, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}
	if name == "" || costCredits <= 0 || (quantity != nil && *quantity < 0) {
		return nil, model.ErrValidation
	}

	rw := &model.Reward{
		ID:          uuid.NewString(),
		FamilyID:    actor.FamilyID,
		Name:        name,
		CostCredits: costCredits,
		Quantity:    quantity,
		Status:      model.RewardActive,
		CreatedAt:   c.now(),
	}
	if quantity != nil && *quantity == 0 {
		rw.Status = model.RewardOutOfStock
	}
	if err := c.db.Rewards().Insert(ctx, rw); err != nil {
		return nil, err
	}
	return rw, nil
}

// Redeem deducts the reward's cost and creates a PENDING redemption. The
// reward and the balance are re-read inside the atomic unit, so the stock
// decrement, the deduction and the redemption row commit together or not at
// all. The budget tracker is consulted first as an advisory only.
func (c *Core) Redeem(ctx context.Context, actor model.Actor, rewardID string) (*model.RewardRedemption, error) {
	memberID := actor.ID

	preview, err := c.db.Rewards().Get(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if err := c.budget.CheckBudgetStatus(ctx, actor.FamilyID, memberID, preview.CostCredits); err != nil {
		c.log.Warn("budget tracker advisory", "member_id", memberID, "reward_id", rewardID, "error", err)
	}

	var red *model.RewardRedemption
	var hooks postCommit

	err = c.db.WithinTx(ctx, func(st repository.Store) error {
		rw, err := st.Rewards().GetForUpdate(ctx, rewardID)
		if err != nil {
			return err
		}
		switch rw.Status {
		case model.RewardActive:
		case model.RewardOutOfStock:
			return model.ErrOutOfStock
		default:
			return model.ErrNotFound
		}
		if rw.Quantity != nil && *rw.Quantity <= 0 {
			return model.ErrOutOfStock
		}

		now := c.now()
		red = &model.RewardRedemption{
			ID:           uuid.NewString(),
			MemberID:     memberID,
			RewardID:     rw.ID,
			Status:       model.RedemptionPending,
			CostSnapshot: rw.CostCredits,
			CreatedAt:    now,
		}

		if rw.Quantity != nil {
			q := *rw.Quantity - 1
			rw.Quantity = &q
			if q == 0 {
				rw.Status = model.RewardOutOfStock
			}
			if err := st.Rewards().Update(ctx, rw); err != nil {
				return err
			}
		}

		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    memberID,
			resource:    model.ResourceCredit,
			delta:       -rw.CostCredits,
			txType:      model.TxRedemption,
			reason:      "Reward redeemed: " + rw.Name,
			relatedType: "reward_redemption",
			relatedID:   red.ID,
		})
		if err != nil {
			return err
		}
		red.TransactionID = &txn.ID
		if err := st.Redemptions().Insert(ctx, red); err != nil {
			return err
		}

		c.invalidateHook(&hooks, memberID, model.ResourceCredit)
		hooks.add("notify-parents", func(ctx context.Context) error {
			return c.notify.NotifyParents(ctx, model.Notification{
				FamilyID: actor.FamilyID,
				Kind:     "redemption_requested",
				Title:    "Reward redemption awaiting approval",
				Message:  rw.Name,
				Metadata: map[string]any{"redemption_id": red.ID, "member_id": memberID, "cost": rw.CostCredits},
			})
		})
		c.auditHook(&hooks, model.AuditEvent{
			FamilyID:   actor.FamilyID,
			MemberID:   memberID,
			Action:     "reward.redeem",
			EntityType: "reward_redemption",
			EntityID:   red.ID,
			Result:     "SUCCESS",
			Metadata:   map[string]any{"reward_id": rw.ID, "cost": rw.CostCredits},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return red, nil
}

// ApproveRedemption is PENDING → APPROVED. The credits were already deducted
// at redeem time, so no balance moves here.
func (c *Core) ApproveRedemption(ctx context.Context, actor model.Actor, redemptionID string) (*model.RewardRedemption, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var red *model.RewardRedemption
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		red, err = st.Redemptions().GetForUpdate(ctx, redemptionID)
		if err != nil {
			return err
		}
		if red.Status != model.RedemptionPending {
			return model.ErrInvalidState
		}

		now := c.now()
		red.Status = model.RedemptionApproved
		red.DecidedAt = &now
		red.DecidedByID = &actor.ID
		if err := st.Redemptions().Update(ctx, red); err != nil {
			return err
		}

		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:   red.MemberID,
				Kind:     "redemption_approved",
				Title:    "Reward redemption approved",
				Metadata: map[string]any{"redemption_id": red.ID},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return red, nil
}

// RejectRedemption reverses a PENDING redemption exactly: the cost snapshot is
// refunded, finite stock is restored by one, and an OUT_OF_STOCK reward goes
// back to ACTIVE — all in one atomic unit.
func (c *Core) RejectRedemption(ctx context.Context, actor model.Actor, redemptionID, reason string) (*model.RewardRedemption, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var red *model.RewardRedemption
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		red, err = st.Redemptions().GetForUpdate(ctx, redemptionID)
		if err != nil {
			return err
		}
		if red.Status != model.RedemptionPending {
			return model.ErrInvalidState
		}

		now := c.now()
		red.Status = model.RedemptionRejected
		red.RejectReason = reason
		red.DecidedAt = &now
		red.DecidedByID = &actor.ID

		// Same lock order as Redeem: reward row first, then the balance.
		rw, err := st.Rewards().GetForUpdate(ctx, red.RewardID)
		if err != nil {
			return err
		}
		if rw.Quantity != nil {
			q := *rw.Quantity + 1
			rw.Quantity = &q
			if rw.Status == model.RewardOutOfStock {
				rw.Status = model.RewardActive
			}
			if err := st.Rewards().Update(ctx, rw); err != nil {
				return err
			}
		}

		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    red.MemberID,
			resource:    model.ResourceCredit,
			delta:       red.CostSnapshot,
			txType:      model.TxRefund,
			reason:      "Redemption rejected: " + reason,
			relatedType: "reward_redemption",
			relatedID:   red.ID,
		})
		if err != nil {
			return err
		}

		if err := st.Redemptions().Update(ctx, red); err != nil {
			return err
		}

		c.invalidateHook(&hooks, red.MemberID, model.ResourceCredit)
		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:  red.MemberID,
				Kind:    "redemption_rejected",
				Title:   "Reward redemption rejected",
				Message: reason,
				Metadata: map[string]any{
					"redemption_id": red.ID,
					"refunded":      red.CostSnapshot,
					"new_balance":   txn.BalanceAfter,
				},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return red, nil
}
