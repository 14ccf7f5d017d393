package service

import (
	"context"

	"famledger/internal/model"
)

// Notifier is the fire-and-forget notification collaborator. Errors are
// swallowed by the post-commit hook runner.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
	NotifyParents(ctx context.Context, n model.Notification) error
}

// AuditRecorder records audit events post-commit, best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, e model.AuditEvent) error
}

// AchievementChecker runs achievement and streak checks after a chore
// approval. Failures are logged, never surfaced.
type AchievementChecker interface {
	CheckAndAward(ctx context.Context, memberID, familyID string) error
	UpdateStreak(ctx context.Context, memberID, kind, familyID string) error
}

// BudgetTracker is consulted before a redemption as an advisory precondition:
// a non-nil error is logged as a warning but does not block the redemption.
type BudgetTracker interface {
	CheckBudgetStatus(ctx context.Context, familyID, memberID string, cost int64) error
}

// BalanceCache is the best-effort read cache. Implementations degrade every
// failure to a miss or a no-op; the cache is never part of the atomic unit.
type BalanceCache interface {
	Get(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, bool)
	Put(ctx context.Context, b *model.Balance)
	Invalidate(ctx context.Context, memberID string, resource model.ResourceType)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.Notification) error { return nil }

func (noopNotifier) NotifyParents(context.Context, model.Notification) error { return nil }

type noopAudit struct{}

func (noopAudit) Record(context.Context, model.AuditEvent) error { return nil }

type noopAchievements struct{}

func (noopAchievements) CheckAndAward(context.Context, string, string) error { return nil }

func (noopAchievements) UpdateStreak(context.Context, string, string, string) error { return nil }

type noopBudget struct{}

func (noopBudget) CheckBudgetStatus(context.Context, string, string, int64) error { return nil }

type noopCache struct{}

func (noopCache) Get(context.Context, string, model.ResourceType) (*model.Balance, bool) {
	return nil, false
}

func (noopCache) Put(context.Context, *model.Balance) {}

func (noopCache) Invalidate(context.Context, string, model.ResourceType) {}
