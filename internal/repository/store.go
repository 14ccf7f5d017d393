package repository

import (
	"context"
	"time"

	"famledger/internal/model"
)

// Store bundles the typed repositories. A Store handed to a WithinTx callback
// runs every call inside that transaction; the DB itself is also a Store for
// plain autocommit reads.
type Store interface {
	Balances() BalanceRepo
	Transactions() TransactionRepo
	Chores() ChoreRepo
	Rewards() RewardRepo
	Redemptions() RedemptionRepo
	Allowances() AllowanceRepo
	GraceLogs() GraceLogRepo
	GraceSettings() GraceSettingsRepo
	AuditLogs() AuditLogRepo
}

// DB is a Store that can open an atomic unit. WithinTx commits when fn returns
// nil and rolls back every write otherwise; concurrent units on the same rows
// serialize, so a status re-read inside fn observes the winner's write.
type DB interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type BalanceRepo interface {
	// Get returns model.ErrNotFound for a balance that was never mutated.
	Get(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error)
	// GetForUpdate locks the row for the rest of the transaction. A missing
	// row locks nothing; callers that need the lock must CreateIfAbsent first
	// and read again.
	GetForUpdate(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error)
	// CreateIfAbsent inserts the row if it does not exist and leaves an
	// existing row untouched.
	CreateIfAbsent(ctx context.Context, b *model.Balance) error
	Upsert(ctx context.Context, b *model.Balance) error
}

type TransactionRepo interface {
	Insert(ctx context.Context, t *model.Transaction) error
	ListByMember(ctx context.Context, memberID string, resource model.ResourceType, limit int) ([]model.Transaction, error)
}

type ChoreRepo interface {
	Get(ctx context.Context, id string) (*model.ChoreInstance, error)
	GetForUpdate(ctx context.Context, id string) (*model.ChoreInstance, error)
	Insert(ctx context.Context, c *model.ChoreInstance) error
	Update(ctx context.Context, c *model.ChoreInstance) error
}

type RewardRepo interface {
	Get(ctx context.Context, id string) (*model.Reward, error)
	GetForUpdate(ctx context.Context, id string) (*model.Reward, error)
	Insert(ctx context.Context, r *model.Reward) error
	Update(ctx context.Context, r *model.Reward) error
}

type RedemptionRepo interface {
	Get(ctx context.Context, id string) (*model.RewardRedemption, error)
	GetForUpdate(ctx context.Context, id string) (*model.RewardRedemption, error)
	Insert(ctx context.Context, r *model.RewardRedemption) error
	Update(ctx context.Context, r *model.RewardRedemption) error
}

type AllowanceRepo interface {
	Get(ctx context.Context, id string) (*model.AllowanceSchedule, error)
	GetForUpdate(ctx context.Context, id string) (*model.AllowanceSchedule, error)
	ListActive(ctx context.Context) ([]model.AllowanceSchedule, error)
	Insert(ctx context.Context, s *model.AllowanceSchedule) error
	Update(ctx context.Context, s *model.AllowanceSchedule) error
}

type GraceLogRepo interface {
	Get(ctx context.Context, id string) (*model.GracePeriodLog, error)
	GetForUpdate(ctx context.Context, id string) (*model.GracePeriodLog, error)
	Insert(ctx context.Context, l *model.GracePeriodLog) error
	Update(ctx context.Context, l *model.GracePeriodLog) error
	// CountSince counts non-denied logs for the member requested at or after
	// the cutoff. Used for the daily and weekly grace limits.
	CountSince(ctx context.Context, memberID string, since time.Time) (int, error)
}

type GraceSettingsRepo interface {
	Get(ctx context.Context, memberID string) (*model.GraceSettings, error)
	// GetForUpdate locks the member's settings row, which serializes grace
	// requests for that member within a transaction.
	GetForUpdate(ctx context.Context, memberID string) (*model.GraceSettings, error)
	Upsert(ctx context.Context, s *model.GraceSettings) error
}

type AuditLogRepo interface {
	// Insert is idempotent on EventID: replaying the same event is a no-op.
	Insert(ctx context.Context, e *model.AuditEvent) error
}
