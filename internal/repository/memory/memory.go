// Package memory is an in-memory repository.DB used in tests. A single mutex
// serializes atomic units, and a snapshot taken at Begin gives rollback, so
// the concurrency contract (losers of a race observe the winner's committed
// state inside their own unit) holds without a database.
package memory

import (
	"context"
	"sync"

	"famledger/internal/model"
	"famledger/internal/repository"
)

type balanceKey struct {
	member   string
	resource model.ResourceType
}

type state struct {
	balances      map[balanceKey]model.Balance
	transactions  []model.Transaction
	chores        map[string]model.ChoreInstance
	rewards       map[string]model.Reward
	redemptions   map[string]model.RewardRedemption
	schedules     map[string]model.AllowanceSchedule
	graceLogs     map[string]model.GracePeriodLog
	graceSettings map[string]model.GraceSettings
	audit         map[string]model.AuditEvent
}

func newState() *state {
	return &state{
		balances:      make(map[balanceKey]model.Balance),
		chores:        make(map[string]model.ChoreInstance),
		rewards:       make(map[string]model.Reward),
		redemptions:   make(map[string]model.RewardRedemption),
		schedules:     make(map[string]model.AllowanceSchedule),
		graceLogs:     make(map[string]model.GracePeriodLog),
		graceSettings: make(map[string]model.GraceSettings),
		audit:         make(map[string]model.AuditEvent),
	}
}

func (s *state) clone() *state {
	cp := newState()
	for k, v := range s.balances {
		cp.balances[k] = v
	}
	cp.transactions = append(cp.transactions, s.transactions...)
	for k, v := range s.chores {
		cp.chores[k] = v
	}
	for k, v := range s.rewards {
		cp.rewards[k] = v
	}
	for k, v := range s.redemptions {
		cp.redemptions[k] = v
	}
	for k, v := range s.schedules {
		cp.schedules[k] = v
	}
	for k, v := range s.graceLogs {
		cp.graceLogs[k] = v
	}
	for k, v := range s.graceSettings {
		cp.graceSettings[k] = v
	}
	for k, v := range s.audit {
		cp.audit[k] = v
	}
	return cp
}

type DB struct {
	mu sync.Mutex
	st *state
}

func New() *DB {
	return &DB{st: newState()}
}

// view is a handle into the DB. Autocommit views take the mutex per call;
// views inside WithinTx don't, because the transaction already holds it.
type view struct {
	m          *DB
	autocommit bool
}

func (v view) begin() func() {
	if v.autocommit {
		v.m.mu.Lock()
		return v.m.mu.Unlock
	}
	return func() {}
}

func (v view) state() *state { return v.m.st }

type storeView struct{ v view }

func (s storeView) Balances() repository.BalanceRepo            { return balances{s.v} }
func (s storeView) Transactions() repository.TransactionRepo    { return transactions{s.v} }
func (s storeView) Chores() repository.ChoreRepo                { return chores{s.v} }
func (s storeView) Rewards() repository.RewardRepo              { return rewards{s.v} }
func (s storeView) Redemptions() repository.RedemptionRepo      { return redemptions{s.v} }
func (s storeView) Allowances() repository.AllowanceRepo        { return allowances{s.v} }
func (s storeView) GraceLogs() repository.GraceLogRepo          { return graceLogs{s.v} }
func (s storeView) GraceSettings() repository.GraceSettingsRepo { return graceSettings{s.v} }
func (s storeView) AuditLogs() repository.AuditLogRepo          { return auditLogs{s.v} }

func (m *DB) Balances() repository.BalanceRepo            { return balances{view{m, true}} }
func (m *DB) Transactions() repository.TransactionRepo    { return transactions{view{m, true}} }
func (m *DB) Chores() repository.ChoreRepo                { return chores{view{m, true}} }
func (m *DB) Rewards() repository.RewardRepo              { return rewards{view{m, true}} }
func (m *DB) Redemptions() repository.RedemptionRepo      { return redemptions{view{m, true}} }
func (m *DB) Allowances() repository.AllowanceRepo        { return allowances{view{m, true}} }
func (m *DB) GraceLogs() repository.GraceLogRepo          { return graceLogs{view{m, true}} }
func (m *DB) GraceSettings() repository.GraceSettingsRepo { return graceSettings{view{m, true}} }
func (m *DB) AuditLogs() repository.AuditLogRepo          { return auditLogs{view{m, true}} }

func (m *DB) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.clone()
	if err := fn(storeView{view{m, false}}); err != nil {
		m.st = snap
		return err
	}
	return nil
}
