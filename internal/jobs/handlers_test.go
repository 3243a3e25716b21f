package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/reconciliation"
	"slotbook/internal/shared/config"
	"slotbook/pkg/logger"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepReminders(context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

type fakeReconciler struct {
	venueIDs []string
}

func (f *fakeReconciler) Reconcile(_ context.Context, venueID string) (*reconciliation.Report, error) {
	f.venueIDs = append(f.venueIDs, venueID)
	return &reconciliation.Report{ID: "run-1", Corrected: 1}, nil
}

type fakeRegistrar struct {
	specs map[string]string
}

func (f *fakeRegistrar) Register(cronspec string, task *asynq.Task, _ ...asynq.Option) (string, error) {
	if cronspec == "bogus" {
		return "", errors.New("bad cron spec")
	}
	f.specs[task.Type()] = cronspec
	return task.Type(), nil
}

func TestMux_RoutesTasks(t *testing.T) {
	sweeper := &fakeSweeper{}
	reconciler := &fakeReconciler{}
	mux := NewHandlers(sweeper, reconciler, logger.Discard()).Mux()
	ctx := context.Background()

	reminderTask, err := NewReminderSweepTask()
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, reminderTask))
	assert.Equal(t, 1, sweeper.calls)

	allTask, err := NewReconcileTask("")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, allTask))

	oneTask, err := NewReconcileTask("venue-1")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, oneTask))

	assert.Equal(t, []string{"", "venue-1"}, reconciler.venueIDs)
}

func TestHandlers_Errors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("store unavailable")}
	h := NewHandlers(sweeper, &fakeReconciler{}, logger.Discard())
	ctx := context.Background()

	task, err := NewReminderSweepTask()
	require.NoError(t, err)
	assert.EqualError(t, h.HandleReminderSweep(ctx, task), "store unavailable")

	bad := asynq.NewTask(TypeReconcileSweep, []byte("{not json"))
	err = h.HandleReconcileSweep(ctx, bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRegisterSchedules(t *testing.T) {
	r := &fakeRegistrar{specs: map[string]string{}}
	require.NoError(t, RegisterSchedules(r, config.JobsConfig{
		ReminderCron:  "*/5 * * * *",
		ReconcileCron: "0 3 * * *",
	}))
	assert.Equal(t, map[string]string{
		TypeReminderSweep:  "*/5 * * * *",
		TypeReconcileSweep: "0 3 * * *",
	}, r.specs)

	r = &fakeRegistrar{specs: map[string]string{}}
	require.NoError(t, RegisterSchedules(r, config.JobsConfig{ReminderCron: "*/5 * * * *"}))
	assert.Len(t, r.specs, 1)

	err := RegisterSchedules(r, config.JobsConfig{ReconcileCron: "bogus"})
	assert.Error(t, err)
}
