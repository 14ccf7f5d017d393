// Package postgres implements the repository interfaces on pgx. All repos run
// against a queryer, which is either the pool (autocommit) or a pgx.Tx handed
// out by WithinTx, so the same query code serves both paths.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"famledger/internal/model"
	"famledger/internal/repository"
)

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	q queryer
}

func (s *store) Balances() repository.BalanceRepo            { return &balanceRepo{q: s.q} }
func (s *store) Transactions() repository.TransactionRepo    { return &transactionRepo{q: s.q} }
func (s *store) Chores() repository.ChoreRepo                { return &choreRepo{q: s.q} }
func (s *store) Rewards() repository.RewardRepo              { return &rewardRepo{q: s.q} }
func (s *store) Redemptions() repository.RedemptionRepo      { return &redemptionRepo{q: s.q} }
func (s *store) Allowances() repository.AllowanceRepo        { return &allowanceRepo{q: s.q} }
func (s *store) GraceLogs() repository.GraceLogRepo          { return &graceLogRepo{q: s.q} }
func (s *store) GraceSettings() repository.GraceSettingsRepo { return &graceSettingsRepo{q: s.q} }
func (s *store) AuditLogs() repository.AuditLogRepo          { return &auditLogRepo{q: s.q} }

// DB is the pgx-backed repository.DB. Row locks (SELECT ... FOR UPDATE) inside
// WithinTx serialize concurrent units touching the same balance or workflow
// row; every operation locks workflow rows before the balance row, so the lock
// order is fixed and deadlock-free.
type DB struct {
	store
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *DB {
	return &DB{store: store{q: pool}, pool: pool}
}

func (d *DB) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return transientErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&store{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return transientErr("commit tx", err)
	}
	return nil
}

// transientErr tags store failures so callers can tell a retryable
// infrastructure fault from a domain refusal.
func transientErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrTransientStore, err)
}

func readErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return transientErr("read", err)
}
