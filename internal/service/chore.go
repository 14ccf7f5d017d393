package service

import (
	"context"

	"github.com/google/uuid"

	"famledger/internal/model"
	"famledger/internal/repository"
)

// CreateChore assigns a new chore instance. Parent only.
func (c *Core) CreateChore(ctx context.Context, actor model.Actor, title, assignedToID string, creditValue int64, requiresApproval bool) (*model.ChoreInstance, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}
	if title == "" || assignedToID == "" || creditValue < 0 {
		return nil, model.ErrValidation
	}

	ch := &model.ChoreInstance{
		ID:               uuid.NewString(),
		FamilyID:         actor.FamilyID,
		Title:            title,
		AssignedToID:     assignedToID,
		CreditValue:      creditValue,
		RequiresApproval: requiresApproval,
		Status:           model.ChorePending,
		CreatedAt:        c.now(),
	}
	if err := c.db.Chores().Insert(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// CompleteChore marks a PENDING chore done. Only the assignee or a parent may
// complete it. When no approval is required the chore goes straight to
// APPROVED and the credit lands in the same atomic unit; otherwise it parks at
// COMPLETED with no credit and the parents get notified.
func (c *Core) CompleteChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error) {
	var ch *model.ChoreInstance
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		ch, err = st.Chores().GetForUpdate(ctx, choreID)
		if err != nil {
			return err
		}
		if ch.Status != model.ChorePending {
			return model.ErrInvalidState
		}
		if actor.ID != ch.AssignedToID && !actor.IsParent() {
			return model.ErrForbidden
		}

		now := c.now()
		ch.CompletedAt = &now
		ch.CompletedByID = &actor.ID

		if ch.RequiresApproval {
			ch.Status = model.ChoreCompleted
			if err := st.Chores().Update(ctx, ch); err != nil {
				return err
			}
			hooks.add("notify-parents", func(ctx context.Context) error {
				return c.notify.NotifyParents(ctx, model.Notification{
					FamilyID: ch.FamilyID,
					Kind:     "chore_completed",
					Title:    "Chore awaiting approval",
					Message:  ch.Title,
					Metadata: map[string]any{"chore_id": ch.ID, "completed_by": actor.ID},
				})
			})
			return nil
		}

		ch.Status = model.ChoreApproved
		ch.DecidedAt = &now
		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    ch.AssignedToID,
			resource:    model.ResourceCredit,
			delta:       ch.CreditValue,
			txType:      model.TxChoreReward,
			reason:      "Chore completed: " + ch.Title,
			relatedType: "chore_instance",
			relatedID:   ch.ID,
		})
		if err != nil {
			return err
		}
		ch.CreditsAwarded = ch.CreditValue
		if err := st.Chores().Update(ctx, ch); err != nil {
			return err
		}

		c.addChoreRewardHooks(&hooks, ch, txn, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return ch, nil
}

// ApproveChore is the COMPLETED → APPROVED transition, crediting the assignee
// exactly once. The status re-check happens inside the unit, so a racing
// duplicate approval observes APPROVED and fails InvalidState instead of
// double-crediting.
func (c *Core) ApproveChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var ch *model.ChoreInstance
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		ch, err = st.Chores().GetForUpdate(ctx, choreID)
		if err != nil {
			return err
		}
		if ch.Status != model.ChoreCompleted {
			return model.ErrInvalidState
		}

		now := c.now()
		ch.Status = model.ChoreApproved
		ch.DecidedAt = &now
		ch.DecidedByID = &actor.ID

		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    ch.AssignedToID,
			resource:    model.ResourceCredit,
			delta:       ch.CreditValue,
			txType:      model.TxChoreReward,
			reason:      "Chore approved: " + ch.Title,
			relatedType: "chore_instance",
			relatedID:   ch.ID,
		})
		if err != nil {
			return err
		}
		ch.CreditsAwarded = ch.CreditValue
		if err := st.Chores().Update(ctx, ch); err != nil {
			return err
		}

		c.addChoreRewardHooks(&hooks, ch, txn, actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return ch, nil
}

// RejectChore is the COMPLETED → REJECTED transition. No credit moves.
func (c *Core) RejectChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var ch *model.ChoreInstance
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		ch, err = st.Chores().GetForUpdate(ctx, choreID)
		if err != nil {
			return err
		}
		if ch.Status != model.ChoreCompleted {
			return model.ErrInvalidState
		}

		now := c.now()
		ch.Status = model.ChoreRejected
		ch.DecidedAt = &now
		ch.DecidedByID = &actor.ID
		if err := st.Chores().Update(ctx, ch); err != nil {
			return err
		}

		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:   ch.AssignedToID,
				Kind:     "chore_rejected",
				Title:    "Chore rejected",
				Message:  ch.Title,
				Metadata: map[string]any{"chore_id": ch.ID},
			})
		})
		c.auditHook(&hooks, model.AuditEvent{
			FamilyID:   ch.FamilyID,
			MemberID:   ch.AssignedToID,
			Action:     "chore.reject",
			EntityType: "chore_instance",
			EntityID:   ch.ID,
			Result:     "SUCCESS",
			Metadata:   map[string]any{"rejected_by": actor.ID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return ch, nil
}

// addChoreRewardHooks queues the side effects shared by both crediting
// transitions: notification, cache invalidation, audit, achievement and
// streak checks.
func (c *Core) addChoreRewardHooks(hooks *postCommit, ch *model.ChoreInstance, txn *model.Transaction, actor model.Actor) {
	memberID := ch.AssignedToID
	c.invalidateHook(hooks, memberID, model.ResourceCredit)
	hooks.add("notify-member", func(ctx context.Context) error {
		return c.notify.Notify(ctx, model.Notification{
			UserID:  memberID,
			Kind:    "chore_approved",
			Title:   "Chore approved",
			Message: ch.Title,
			Metadata: map[string]any{
				"chore_id":    ch.ID,
				"credits":     ch.CreditsAwarded,
				"new_balance": txn.BalanceAfter,
			},
		})
	})
	c.auditHook(hooks, model.AuditEvent{
		FamilyID:   ch.FamilyID,
		MemberID:   memberID,
		Action:     "chore.approve",
		EntityType: "chore_instance",
		EntityID:   ch.ID,
		Result:     "SUCCESS",
		Metadata:   map[string]any{"credits": ch.CreditsAwarded, "actor": actor.ID},
	})
	hooks.add("achievements", func(ctx context.Context) error {
		return c.achieve.CheckAndAward(ctx, memberID, ch.FamilyID)
	})
	hooks.add("streak", func(ctx context.Context) error {
		return c.achieve.UpdateStreak(ctx, memberID, "chore", ch.FamilyID)
	})
}
