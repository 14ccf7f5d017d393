// Package service implements the transactional ledger core: per-member
// balances, the append-only transaction log, and the workflow state machines
// that mutate them. Every mutation runs inside one atomic unit (repository.DB
// WithinTx); side effects fire after commit and can never unwind it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"famledger/internal/model"
	"famledger/internal/repository"
)

// Core is the concrete LedgerService.
type Core struct {
	db      repository.DB
	cache   BalanceCache
	notify  Notifier
	audit   AuditRecorder
	achieve AchievementChecker
	budget  BudgetTracker
	log     *slog.Logger
	now     func() time.Time
}

// Options carries the optional collaborators. Nil fields get no-op defaults,
// so the core works without Redis, NATS, or any downstream system.
type Options struct {
	Cache        BalanceCache
	Notifier     Notifier
	Audit        AuditRecorder
	Achievements AchievementChecker
	Budget       BudgetTracker
	Logger       *slog.Logger
	Now          func() time.Time
}

func New(db repository.DB, opts Options) *Core {
	c := &Core{
		db:      db,
		cache:   opts.Cache,
		notify:  opts.Notifier,
		audit:   opts.Audit,
		achieve: opts.Achievements,
		budget:  opts.Budget,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if c.cache == nil {
		c.cache = noopCache{}
	}
	if c.notify == nil {
		c.notify = noopNotifier{}
	}
	if c.audit == nil {
		c.audit = noopAudit{}
	}
	if c.achieve == nil {
		c.achieve = noopAchievements{}
	}
	if c.budget == nil {
		c.budget = noopBudget{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

var _ LedgerService = (*Core)(nil)

type deltaParams struct {
	memberID    string
	resource    model.ResourceType
	delta       int64
	txType      model.TransactionType
	reason      string
	relatedType string
	relatedID   string
}

// applyDelta is the single write path to a balance. It must be called inside
// an atomic unit: it locks the balance row, enforces the non-negative
// invariant, upserts the balance and appends the transaction whose
// BalanceAfter equals priorBalance + delta.
func (c *Core) applyDelta(ctx context.Context, st repository.Store, p deltaParams) (*model.Transaction, error) {
	bal, err := st.Balances().GetForUpdate(ctx, p.memberID, p.resource)
	if errors.Is(err, model.ErrNotFound) {
		// Lazy creation on first mutation. A missing row gives FOR UPDATE
		// nothing to lock, so insert the zero row and read it again under the
		// lock; a rival first mutation that commits in between is then
		// observed instead of overwritten.
		zero := &model.Balance{MemberID: p.memberID, ResourceType: p.resource, UpdatedAt: c.now()}
		if err := st.Balances().CreateIfAbsent(ctx, zero); err != nil {
			return nil, err
		}
		bal, err = st.Balances().GetForUpdate(ctx, p.memberID, p.resource)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if p.delta < 0 && bal.CurrentAmount+p.delta < 0 {
		return nil, model.ErrInsufficientBalance
	}

	bal.CurrentAmount += p.delta
	if p.resource == model.ResourceCredit {
		switch {
		case p.txType == model.TxRefund:
			// A refund reverses an earlier spend rather than earning anew.
			bal.LifetimeSpent -= p.delta
			if bal.LifetimeSpent < 0 {
				bal.LifetimeSpent = 0
			}
		case p.delta > 0:
			bal.LifetimeEarned += p.delta
		default:
			bal.LifetimeSpent += -p.delta
		}
	}

	now := c.now()
	bal.UpdatedAt = now
	if err := st.Balances().Upsert(ctx, bal); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		ID:           uuid.NewString(),
		MemberID:     p.memberID,
		ResourceType: p.resource,
		Type:         p.txType,
		Amount:       p.delta,
		BalanceAfter: bal.CurrentAmount,
		Reason:       p.reason,
		RelatedType:  p.relatedType,
		RelatedID:    p.relatedID,
		CreatedAt:    now,
	}
	if err := st.Transactions().Insert(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyDelta opens its own atomic unit around a single balance mutation.
// Used by external collaborators (e.g. the weekly screen-time reset).
func (c *Core) ApplyDelta(ctx context.Context, memberID string, resource model.ResourceType, delta int64, txType model.TransactionType, reason string) (*model.Transaction, error) {
	if !resource.Valid() {
		return nil, model.ErrValidation
	}

	var txn *model.Transaction
	err := c.db.WithinTx(ctx, func(st repository.Store) error {
		var err error
		txn, err = c.applyDelta(ctx, st, deltaParams{
			memberID: memberID,
			resource: resource,
			delta:    delta,
			txType:   txType,
			reason:   reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(ctx, memberID, resource)
	return txn, nil
}

// GetBalance is a plain read: cache first, then the store. A member with no
// transactions yet reads as a zero balance.
func (c *Core) GetBalance(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error) {
	if !resource.Valid() {
		return nil, model.ErrValidation
	}

	if bal, ok := c.cache.Get(ctx, memberID, resource); ok {
		return bal, nil
	}

	bal, err := c.db.Balances().Get(ctx, memberID, resource)
	if errors.Is(err, model.ErrNotFound) {
		bal = &model.Balance{MemberID: memberID, ResourceType: resource}
	} else if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, bal)
	return bal, nil
}

func (c *Core) ListTransactions(ctx context.Context, memberID string, resource model.ResourceType, limit int) ([]model.Transaction, error) {
	if !resource.Valid() {
		return nil, model.ErrValidation
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return c.db.Transactions().ListByMember(ctx, memberID, resource, limit)
}

func (c *Core) auditHook(hooks *postCommit, e model.AuditEvent) {
	e.EventID = uuid.NewString()
	e.CreatedAt = c.now()
	hooks.add("audit", func(ctx context.Context) error {
		return c.audit.Record(ctx, e)
	})
}

func (c *Core) invalidateHook(hooks *postCommit, memberID string, resource model.ResourceType) {
	hooks.add("cache-invalidate", func(ctx context.Context) error {
		c.cache.Invalidate(ctx, memberID, resource)
		return nil
	})
}
