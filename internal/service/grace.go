package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"famledger/internal/model"
	"famledger/internal/repository"
)

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the most recent Monday midnight.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// RequestGrace lets a member borrow screen-time minutes when their balance
// has run low. Settings are default-created on first use. The locked settings
// row serializes requests per member, so the balance gate and the daily/weekly
// limit counts below it always see every granted rival: two racing requests
// cannot both slip under the limit.
func (c *Core) RequestGrace(ctx context.Context, actor model.Actor, reason string) (*model.GraceResult, error) {
	memberID := actor.ID

	var res model.GraceResult
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		gs, err := st.GraceSettings().GetForUpdate(ctx, memberID)
		if errors.Is(err, model.ErrNotFound) {
			if err := st.GraceSettings().Upsert(ctx, model.DefaultGraceSettings(memberID)); err != nil {
				return err
			}
			gs, err = st.GraceSettings().GetForUpdate(ctx, memberID)
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var current int64
		bal, err := st.Balances().Get(ctx, memberID, model.ResourceScreenTime)
		if err == nil {
			current = bal.CurrentAmount
		} else if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if current > gs.LowBalanceWarningMinutes {
			return model.ErrBalanceNotLowEnough
		}

		now := c.now()
		n, err := st.GraceLogs().CountSince(ctx, memberID, startOfDay(now))
		if err != nil {
			return err
		}
		if n >= gs.MaxGracePerDay {
			return model.ErrDailyLimitExceeded
		}
		n, err = st.GraceLogs().CountSince(ctx, memberID, startOfWeek(now))
		if err != nil {
			return err
		}
		if n >= gs.MaxGracePerWeek {
			return model.ErrWeeklyLimitExceeded
		}

		lg := &model.GracePeriodLog{
			ID:              uuid.NewString(),
			MemberID:        memberID,
			MinutesGranted:  gs.GracePeriodMinutes,
			RepaymentStatus: model.RepaymentPending,
			RequestedAt:     now,
		}

		if gs.RequiresApproval {
			lg.Status = model.GracePendingApproval
			if err := st.GraceLogs().Insert(ctx, lg); err != nil {
				return err
			}
			res = model.GraceResult{Log: lg, PendingApproval: true, NewBalance: current}
			hooks.add("notify-parents", func(ctx context.Context) error {
				return c.notify.NotifyParents(ctx, model.Notification{
					FamilyID: actor.FamilyID,
					Kind:     "grace_requested",
					Title:    "Screen-time grace awaiting approval",
					Message:  reason,
					Metadata: map[string]any{"grace_log_id": lg.ID, "member_id": memberID},
				})
			})
			return nil
		}

		lg.Status = model.GraceGranted
		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    memberID,
			resource:    model.ResourceScreenTime,
			delta:       gs.GracePeriodMinutes,
			txType:      model.TxGraceBorrowed,
			reason:      reason,
			relatedType: "grace_period_log",
			relatedID:   lg.ID,
		})
		if err != nil {
			return err
		}
		lg.TransactionID = &txn.ID
		if err := st.GraceLogs().Insert(ctx, lg); err != nil {
			return err
		}
		res = model.GraceResult{Log: lg, NewBalance: txn.BalanceAfter}

		c.invalidateHook(&hooks, memberID, model.ResourceScreenTime)
		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:  memberID,
				Kind:    "grace_granted",
				Title:   "Screen-time grace granted",
				Message: reason,
				Metadata: map[string]any{
					"minutes":     lg.MinutesGranted,
					"new_balance": txn.BalanceAfter,
				},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return &res, nil
}

// ApproveGrace performs the deferred grant for a request that needed parent
// approval. The log is re-read inside the unit, so a duplicate approval fails
// InvalidState instead of granting twice.
func (c *Core) ApproveGrace(ctx context.Context, actor model.Actor, logID string) (*model.GraceResult, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var res model.GraceResult
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		lg, err := st.GraceLogs().GetForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		if lg.Status != model.GracePendingApproval {
			return model.ErrInvalidState
		}

		txn, err := c.applyDelta(ctx, st, deltaParams{
			memberID:    lg.MemberID,
			resource:    model.ResourceScreenTime,
			delta:       lg.MinutesGranted,
			txType:      model.TxGraceBorrowed,
			reason:      "Grace approved",
			relatedType: "grace_period_log",
			relatedID:   lg.ID,
		})
		if err != nil {
			return err
		}

		lg.Status = model.GraceGranted
		lg.ApprovedByID = &actor.ID
		lg.TransactionID = &txn.ID
		if err := st.GraceLogs().Update(ctx, lg); err != nil {
			return err
		}
		res = model.GraceResult{Log: lg, NewBalance: txn.BalanceAfter}

		c.invalidateHook(&hooks, lg.MemberID, model.ResourceScreenTime)
		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:   lg.MemberID,
				Kind:     "grace_approved",
				Title:    "Screen-time grace approved",
				Metadata: map[string]any{"minutes": lg.MinutesGranted, "new_balance": txn.BalanceAfter},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return &res, nil
}

// DenyGrace closes a pending request without granting minutes.
func (c *Core) DenyGrace(ctx context.Context, actor model.Actor, logID string) (*model.GracePeriodLog, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var lg *model.GracePeriodLog
	var hooks postCommit

	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		lg, err = st.GraceLogs().GetForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		if lg.Status != model.GracePendingApproval {
			return model.ErrInvalidState
		}

		lg.Status = model.GraceDenied
		if err := st.GraceLogs().Update(ctx, lg); err != nil {
			return err
		}

		hooks.add("notify-member", func(ctx context.Context) error {
			return c.notify.Notify(ctx, model.Notification{
				UserID:   lg.MemberID,
				Kind:     "grace_denied",
				Title:    "Screen-time grace denied",
				Metadata: map[string]any{"grace_log_id": lg.ID},
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks.run(ctx, c.log)
	return lg, nil
}
