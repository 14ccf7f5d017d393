package postgres

import (
	"context"

	"famledger/internal/model"
)

type balanceRepo struct {
	q queryer
}

const balanceColumns = `member_id, resource_type, current_amount, lifetime_earned, lifetime_spent, updated_at`

func (r *balanceRepo) get(ctx context.Context, memberID string, resource model.ResourceType, lock string) (*model.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE member_id = $1 AND resource_type = $2` + lock

	var b model.Balance
	err := r.q.QueryRow(ctx, query, memberID, resource).Scan(
		&b.MemberID, &b.ResourceType, &b.CurrentAmount, &b.LifetimeEarned, &b.LifetimeSpent, &b.UpdatedAt,
	)
	if err != nil {
		return nil, readErr(err)
	}
	return &b, nil
}

func (r *balanceRepo) Get(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error) {
	return r.get(ctx, memberID, resource, "")
}

func (r *balanceRepo) GetForUpdate(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error) {
	return r.get(ctx, memberID, resource, " FOR UPDATE")
}

func (r *balanceRepo) CreateIfAbsent(ctx context.Context, b *model.Balance) error {
	query := `
		INSERT INTO balances (member_id, resource_type, current_amount, lifetime_earned, lifetime_spent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id, resource_type) DO NOTHING`

	_, err := r.q.Exec(ctx, query,
		b.MemberID, b.ResourceType, b.CurrentAmount, b.LifetimeEarned, b.LifetimeSpent, b.UpdatedAt,
	)
	if err != nil {
		return transientErr("create balance", err)
	}
	return nil
}

func (r *balanceRepo) Upsert(ctx context.Context, b *model.Balance) error {
	query := `
		INSERT INTO balances (member_id, resource_type, current_amount, lifetime_earned, lifetime_spent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id, resource_type) DO UPDATE SET
			current_amount = EXCLUDED.current_amount,
			lifetime_earned = EXCLUDED.lifetime_earned,
			lifetime_spent = EXCLUDED.lifetime_spent,
			updated_at = EXCLUDED.updated_at`

	_, err := r.q.Exec(ctx, query,
		b.MemberID, b.ResourceType, b.CurrentAmount, b.LifetimeEarned, b.LifetimeSpent, b.UpdatedAt,
	)
	if err != nil {
		return transientErr("upsert balance", err)
	}
	return nil
}

type transactionRepo struct {
	q queryer
}

func (r *transactionRepo) Insert(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, member_id, resource_type, type, amount, balance_after, reason, related_type, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.q.Exec(ctx, query,
		t.ID, t.MemberID, t.ResourceType, t.Type, t.Amount, t.BalanceAfter, t.Reason, t.RelatedType, t.RelatedID, t.CreatedAt,
	)
	if err != nil {
		return transientErr("insert transaction", err)
	}
	return nil
}

func (r *transactionRepo) ListByMember(ctx context.Context, memberID string, resource model.ResourceType, limit int) ([]model.Transaction, error) {
	query := `
		SELECT id, member_id, resource_type, type, amount, balance_after, reason, related_type, related_id, created_at
		FROM transactions
		WHERE member_id = $1 AND resource_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := r.q.Query(ctx, query, memberID, resource, limit)
	if err != nil {
		return nil, transientErr("list transactions", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.MemberID, &t.ResourceType, &t.Type, &t.Amount, &t.BalanceAfter, &t.Reason, &t.RelatedType, &t.RelatedID, &t.CreatedAt); err != nil {
			return nil, transientErr("scan transaction", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
