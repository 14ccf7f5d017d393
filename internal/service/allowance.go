package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"famledger/internal/model"
	"famledger/internal/repository"
)

// errScheduleSkipped marks a schedule whose watermark re-check inside the
// atomic unit found it already handled. Counted as skipped, never an error.
var errScheduleSkipped = errors.New("schedule skipped")

// CreateAllowance sets up a recurring allowance for a member. Parent only.
func (c *Core) CreateAllowance(ctx context.Context, actor model.Actor, memberID string, amount int64, freq model.AllowanceFrequency, dayOfWeek, dayOfMonth int) (*model.AllowanceSchedule, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}
	if memberID == "" || amount <= 0 {
		return nil, model.ErrValidation
	}
	switch freq {
	case model.FrequencyWeekly:
		if dayOfWeek < 0 || dayOfWeek > 6 {
			return nil, model.ErrValidation
		}
	case model.FrequencyMonthly:
		if dayOfMonth < 1 || dayOfMonth > 31 {
			return nil, model.ErrValidation
		}
	default:
		return nil, model.ErrValidation
	}

	s := &model.AllowanceSchedule{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		Amount:     amount,
		Frequency:  freq,
		DayOfWeek:  dayOfWeek,
		DayOfMonth: dayOfMonth,
		IsActive:   true,
		CreatedAt:  c.now(),
	}
	if err := c.db.Allowances().Insert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SetAllowancePaused pauses or resumes a schedule. Parent only.
func (c *Core) SetAllowancePaused(ctx context.Context, actor model.Actor, scheduleID string, paused bool) (*model.AllowanceSchedule, error) {
	if !actor.IsParent() {
		return nil, model.ErrForbidden
	}

	var s *model.AllowanceSchedule
	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		s, err = st.Allowances().GetForUpdate(ctx, scheduleID)
		if err != nil {
			return err
		}
		s.IsPaused = paused
		return st.Allowances().Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DistributeAllowances runs the daily batch. Each due schedule gets its own
// atomic unit: pay the amount and stamp the watermark together. A failing
// schedule is tallied into Errors and the batch moves on; paused,
// non-matching, or already-stamped schedules count as skipped.
func (c *Core) DistributeAllowances(ctx context.Context) (model.DistributionSummary, error) {
	now := c.now()
	var sum model.DistributionSummary

	schedules, err := c.db.Allowances().ListActive(ctx)
	if err != nil {
		return sum, err
	}

	for i := range schedules {
		sched := &schedules[i]
		if sched.IsPaused || !sched.DueOn(now) || sched.ProcessedOn(now) {
			sum.Skipped++
			continue
		}

		var hooks postCommit
		err := c.db.WithinTx(ctx, func(st repository.Store) error {
			s, err := st.Allowances().GetForUpdate(ctx, sched.ID)
			if err != nil {
				return err
			}
			// Watermark re-check inside the unit: a concurrent run may have
			// stamped it after our list read.
			if !s.IsActive || s.IsPaused || !s.DueOn(now) || s.ProcessedOn(now) {
				return errScheduleSkipped
			}

			txn, err := c.applyDelta(ctx, st, deltaParams{
				memberID:    s.MemberID,
				resource:    model.ResourceCredit,
				delta:       s.Amount,
				txType:      model.TxAllowance,
				reason:      "Allowance",
				relatedType: "allowance_schedule",
				relatedID:   s.ID,
			})
			if err != nil {
				return err
			}
			s.LastProcessedAt = &now
			if err := st.Allowances().Update(ctx, s); err != nil {
				return err
			}

			c.invalidateHook(&hooks, s.MemberID, model.ResourceCredit)
			memberID := s.MemberID
			amount := s.Amount
			hooks.add("notify-member", func(ctx context.Context) error {
				return c.notify.Notify(ctx, model.Notification{
					UserID: memberID,
					Kind:   "allowance_received",
					Title:  "Allowance received",
					Metadata: map[string]any{
						"amount":      amount,
						"new_balance": txn.BalanceAfter,
					},
				})
			})
			return nil
		})

		switch {
		case errors.Is(err, errScheduleSkipped):
			sum.Skipped++
		case err != nil:
			sum.Errors++
			c.log.Error("allowance distribution failed", "schedule_id", sched.ID, "error", err)
		default:
			sum.Processed++
			hooks.run(ctx, c.log)
		}
	}

	c.log.Info("allowance distribution finished",
		"processed", sum.Processed, "skipped", sum.Skipped, "errors", sum.Errors)
	return sum, nil
}
