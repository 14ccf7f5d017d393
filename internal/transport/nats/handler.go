package nats

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"famledger/internal/service"
)

const SubjectAllowanceRun = "commands.allowance.run"

// Handler lets an external scheduler trigger ledger batch operations over
// NATS. The core holds no scheduler of its own: a daily job publishes to
// commands.allowance.run and the queue group makes sure only one instance
// runs the batch.
type Handler struct {
	svc  service.LedgerService
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewHandler(svc service.LedgerService, nc *nats.Conn) *Handler {
	return &Handler{svc: svc, nc: nc}
}

// Start subscribes to command subjects and blocks until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.nc.QueueSubscribe(SubjectAllowanceRun, "ledger_group", func(m *nats.Msg) {
		sum, err := h.svc.DistributeAllowances(ctx)
		if err != nil {
			slog.Error("nats: allowance distribution failed", "error", err)
			return
		}
		slog.Info("nats: allowance distribution triggered",
			"processed", sum.Processed, "skipped", sum.Skipped, "errors", sum.Errors)
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)

	slog.Info("NATS command handler is running")

	<-ctx.Done()
	slog.Info("NATS command handler shutting down, draining subscriptions...")

	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}
