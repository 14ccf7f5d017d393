package memory

import (
	"context"
	"time"

	"famledger/internal/model"
)

type balances struct{ v view }

func (r balances) Get(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error) {
	defer r.v.begin()()
	b, ok := r.v.state().balances[balanceKey{memberID, resource}]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := b
	return &cp, nil
}

func (r balances) GetForUpdate(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, error) {
	return r.Get(ctx, memberID, resource)
}

func (r balances) CreateIfAbsent(ctx context.Context, b *model.Balance) error {
	defer r.v.begin()()
	k := balanceKey{b.MemberID, b.ResourceType}
	if _, ok := r.v.state().balances[k]; ok {
		return nil
	}
	r.v.state().balances[k] = *b
	return nil
}

func (r balances) Upsert(ctx context.Context, b *model.Balance) error {
	defer r.v.begin()()
	r.v.state().balances[balanceKey{b.MemberID, b.ResourceType}] = *b
	return nil
}

type transactions struct{ v view }

func (r transactions) Insert(ctx context.Context, t *model.Transaction) error {
	defer r.v.begin()()
	st := r.v.state()
	st.transactions = append(st.transactions, *t)
	return nil
}

func (r transactions) ListByMember(ctx context.Context, memberID string, resource model.ResourceType, limit int) ([]model.Transaction, error) {
	defer r.v.begin()()
	all := r.v.state().transactions

	var out []model.Transaction
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].MemberID == memberID && all[i].ResourceType == resource {
			out = append(out, all[i])
		}
	}
	return out, nil
}

type chores struct{ v view }

func (r chores) Get(ctx context.Context, id string) (*model.ChoreInstance, error) {
	defer r.v.begin()()
	c, ok := r.v.state().chores[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r chores) GetForUpdate(ctx context.Context, id string) (*model.ChoreInstance, error) {
	return r.Get(ctx, id)
}

func (r chores) Insert(ctx context.Context, c *model.ChoreInstance) error {
	defer r.v.begin()()
	r.v.state().chores[c.ID] = *c
	return nil
}

func (r chores) Update(ctx context.Context, c *model.ChoreInstance) error {
	return r.Insert(ctx, c)
}

type rewards struct{ v view }

func (r rewards) Get(ctx context.Context, id string) (*model.Reward, error) {
	defer r.v.begin()()
	rw, ok := r.v.state().rewards[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := rw
	if rw.Quantity != nil {
		q := *rw.Quantity
		cp.Quantity = &q
	}
	return &cp, nil
}

func (r rewards) GetForUpdate(ctx context.Context, id string) (*model.Reward, error) {
	return r.Get(ctx, id)
}

func (r rewards) Insert(ctx context.Context, rw *model.Reward) error {
	defer r.v.begin()()
	r.v.state().rewards[rw.ID] = *rw
	return nil
}

func (r rewards) Update(ctx context.Context, rw *model.Reward) error {
	return r.Insert(ctx, rw)
}

type redemptions struct{ v view }

func (r redemptions) Get(ctx context.Context, id string) (*model.RewardRedemption, error) {
	defer r.v.begin()()
	rd, ok := r.v.state().redemptions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := rd
	return &cp, nil
}

func (r redemptions) GetForUpdate(ctx context.Context, id string) (*model.RewardRedemption, error) {
	return r.Get(ctx, id)
}

func (r redemptions) Insert(ctx context.Context, rd *model.RewardRedemption) error {
	defer r.v.begin()()
	r.v.state().redemptions[rd.ID] = *rd
	return nil
}

func (r redemptions) Update(ctx context.Context, rd *model.RewardRedemption) error {
	return r.Insert(ctx, rd)
}

type allowances struct{ v view }

func (r allowances) Get(ctx context.Context, id string) (*model.AllowanceSchedule, error) {
	defer r.v.begin()()
	s, ok := r.v.state().schedules[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := s
	return &cp, nil
}

func (r allowances) GetForUpdate(ctx context.Context, id string) (*model.AllowanceSchedule, error) {
	return r.Get(ctx, id)
}

func (r allowances) ListActive(ctx context.Context) ([]model.AllowanceSchedule, error) {
	defer r.v.begin()()

	var out []model.AllowanceSchedule
	for _, s := range r.v.state().schedules {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r allowances) Insert(ctx context.Context, s *model.AllowanceSchedule) error {
	defer r.v.begin()()
	r.v.state().schedules[s.ID] = *s
	return nil
}

func (r allowances) Update(ctx context.Context, s *model.AllowanceSchedule) error {
	return r.Insert(ctx, s)
}

type graceLogs struct{ v view }

func (r graceLogs) Get(ctx context.Context, id string) (*model.GracePeriodLog, error) {
	defer r.v.begin()()
	l, ok := r.v.state().graceLogs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := l
	return &cp, nil
}

func (r graceLogs) GetForUpdate(ctx context.Context, id string) (*model.GracePeriodLog, error) {
	return r.Get(ctx, id)
}

func (r graceLogs) Insert(ctx context.Context, l *model.GracePeriodLog) error {
	defer r.v.begin()()
	r.v.state().graceLogs[l.ID] = *l
	return nil
}

func (r graceLogs) Update(ctx context.Context, l *model.GracePeriodLog) error {
	return r.Insert(ctx, l)
}

func (r graceLogs) CountSince(ctx context.Context, memberID string, since time.Time) (int, error) {
	defer r.v.begin()()

	n := 0
	for _, l := range r.v.state().graceLogs {
		if l.MemberID == memberID && l.Status != model.GraceDenied && !l.RequestedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type graceSettings struct{ v view }

func (r graceSettings) Get(ctx context.Context, memberID string) (*model.GraceSettings, error) {
	defer r.v.begin()()
	s, ok := r.v.state().graceSettings[memberID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := s
	return &cp, nil
}

func (r graceSettings) GetForUpdate(ctx context.Context, memberID string) (*model.GraceSettings, error) {
	return r.Get(ctx, memberID)
}

func (r graceSettings) Upsert(ctx context.Context, s *model.GraceSettings) error {
	defer r.v.begin()()
	r.v.state().graceSettings[s.MemberID] = *s
	return nil
}

type auditLogs struct{ v view }

func (r auditLogs) Insert(ctx context.Context, e *model.AuditEvent) error {
	defer r.v.begin()()
	st := r.v.state()
	if _, ok := st.audit[e.EventID]; ok {
		return nil
	}
	st.audit[e.EventID] = *e
	return nil
}
