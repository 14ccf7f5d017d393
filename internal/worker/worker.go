package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"famledger/internal/model"
	"famledger/internal/repository"
	transportNATS "famledger/internal/transport/nats"
)

// AuditWorker listens on the audit subject and persists audit events to the
// audit_log table. The insert is idempotent on event id, so redelivery is
// harmless, and a failed insert only costs the audit record — never the
// mutation that produced it.
type AuditWorker struct {
	db       repository.DB
	natsConn *nats.Conn
}

func NewAuditWorker(db repository.DB, nc *nats.Conn) *AuditWorker {
	return &AuditWorker{db: db, natsConn: nc}
}

// Start subscribes and blocks until ctx is cancelled. QueueSubscribe ensures
// each event is handled by only one instance in the group.
func (w *AuditWorker) Start(ctx context.Context) error {
	sub, err := w.natsConn.QueueSubscribe(transportNATS.SubjectAuditRecorded, "audit_group", func(m *nats.Msg) {
		var event model.AuditEvent
		if err := json.Unmarshal(m.Data, &event); err != nil {
			slog.Error("worker: failed to unmarshal audit event", "error", err)
			return
		}

		if err := w.db.AuditLogs().Insert(ctx, &event); err != nil {
			slog.Error("worker: failed to persist audit event",
				"event_id", event.EventID,
				"action", event.Action,
				"error", err,
			)
			return
		}

		slog.Info("worker: audit event persisted", "event_id", event.EventID, "action", event.Action)
	})
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe to NATS: %w", err)
	}

	slog.Info("Audit worker is running")

	<-ctx.Done()

	slog.Info("Audit worker received shutdown signal, draining subscription...")
	return sub.Drain()
}

func (w *AuditWorker) Stop(ctx context.Context) error {
	return nil
}
