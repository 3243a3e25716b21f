// Package jobs runs the periodic reminder and reconciliation sweeps on asynq.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeReminderSweep  = "reminders:sweep"
	TypeReconcileSweep = "reconcile:sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Task payloads
type ReminderSweepPayload struct{}

type ReconcilePayload struct {
	// VenueID limits the run to one venue; empty means all venues.
	VenueID string `json:"venue_id,omitempty"`
}

func NewReminderSweepTask() (*asynq.Task, error) {
	payload, err := json.Marshal(ReminderSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReminderSweep, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(1)), nil
}

func NewReconcileTask(venueID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReconcilePayload{VenueID: venueID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReconcileSweep, payload, asynq.Queue(QueueLow), asynq.MaxRetry(3)), nil
}

func decode(t *asynq.Task, dst interface{}) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dst); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
