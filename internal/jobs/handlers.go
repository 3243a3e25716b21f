package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"slotbook/internal/reconciliation"
	"slotbook/pkg/logger"
)

type ReminderSweeper interface {
	SweepReminders(ctx context.Context) (int, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, venueID string) (*reconciliation.Report, error)
}

type Handlers struct {
	reminders  ReminderSweeper
	reconciler Reconciler
	log        *logger.Logger
}

func NewHandlers(reminders ReminderSweeper, reconciler Reconciler, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Handlers{reminders: reminders, reconciler: reconciler, log: log}
}

// Mux routes every task type to its handler.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSweep, h.HandleReminderSweep)
	mux.HandleFunc(TypeReconcileSweep, h.HandleReconcileSweep)
	return mux
}

func (h *Handlers) HandleReminderSweep(ctx context.Context, t *asynq.Task) error {
	var payload ReminderSweepPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	started := time.Now()
	sent, err := h.reminders.SweepReminders(ctx)
	if err != nil {
		h.log.ErrorWithContext(ctx, "Reminder sweep failed", err, map[string]interface{}{"sent": sent})
		return err
	}
	h.log.InfoWithContext(ctx, "Reminder sweep finished", map[string]interface{}{
		"sent":        sent,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return nil
}

func (h *Handlers) HandleReconcileSweep(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	report, err := h.reconciler.Reconcile(ctx, payload.VenueID)
	if err != nil {
		h.log.ErrorWithContext(ctx, "Scheduled reconciliation failed", err, map[string]interface{}{
			"venue_id": payload.VenueID,
		})
		return err
	}
	if report.Corrected > 0 {
		h.log.WarnWithContext(ctx, "Scheduled reconciliation corrected ledger drift", map[string]interface{}{
			"run_id":    report.ID,
			"corrected": report.Corrected,
		})
	}
	return nil
}
