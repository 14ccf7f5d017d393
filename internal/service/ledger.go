package service

import (
	"context"

	"famledger/internal/model"
)

// LedgerService defines the business operations of the ledger core.
// Transport layers (HTTP, NATS) depend on this interface, not on the concrete
// implementation.
type LedgerService interface {
	// Ledger
	GetBalance(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error)
	ListTransactions(ctx context.Context, memberID string, resource model.ResourceType, limit int) ([]model.Transaction, error)
	ApplyDelta(ctx context.Context, memberID string, resource model.ResourceType, delta int64, txType model.TransactionType, reason string) (*model.Transaction, error)
	Adjust(ctx context.Context, actor model.Actor, memberID string, resource model.ResourceType, amount int64, reason string) (*model.Transaction, error)

	// Chores
	CreateChore(ctx context.Context, actor model.Actor, title, assignedToID string, creditValue int64, requiresApproval bool) (*model.ChoreInstance, error)
	CompleteChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error)
	ApproveChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error)
	RejectChore(ctx context.Context, actor model.Actor, choreID string) (*model.ChoreInstance, error)

	// Rewards
	CreateReward(ctx context.Context, actor model.Actor, name string, costCredits int64, quantity *int64) (*model.Reward, error)
	Redeem(ctx context.Context, actor model.Actor, rewardID string) (*model.RewardRedemption, error)
	ApproveRedemption(ctx context.Context, actor model.Actor, redemptionID string) (*model.RewardRedemption, error)
	RejectRedemption(ctx context.Context, actor model.Actor, redemptionID, reason string) (*model.RewardRedemption, error)

	// Allowances
	CreateAllowance(ctx context.Context, actor model.Actor, memberID string, amount int64, freq model.AllowanceFrequency, dayOfWeek, dayOfMonth int) (*model.AllowanceSchedule, error)
	SetAllowancePaused(ctx context.Context, actor model.Actor, scheduleID string, paused bool) (*model.AllowanceSchedule, error)
	DistributeAllowances(ctx context.Context) (model.DistributionSummary, error)

	// Screen-time grace
	RequestGrace(ctx context.Context, actor model.Actor, reason string) (*model.GraceResult, error)
	ApproveGrace(ctx context.Context, actor model.Actor, logID string) (*model.GraceResult, error)
	DenyGrace(ctx context.Context, actor model.Actor, logID string) (*model.GracePeriodLog, error)
}
