package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/vendaflow-erp/vendaflow/internal/sales/reminders"
)

type stubReminderRepo struct {
	pending []reminders.PendingProposal
}

func (r *stubReminderRepo) ListPending(ctx context.Context) ([]reminders.PendingProposal, error) {
	return r.pending, nil
}

func TestRemindersScanHandlesEmptyLedger(t *testing.T) {
	svc := reminders.NewService(&stubReminderRepo{}, 7*24*time.Hour)
	job := NewRemindersScanJob(svc, nil, nil)

	task, err := NewRemindersScanTask(RemindersScanPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestRemindersScanSkipsMalformedPayload(t *testing.T) {
	svc := reminders.NewService(&stubReminderRepo{}, 7*24*time.Hour)
	job := NewRemindersScanJob(svc, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskRemindersScan, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRemindersScanUsesPayloadTime(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	repo := &stubReminderRepo{pending: []reminders.PendingProposal{
		{ProposalID: 1, Number: "VND-000001", OwnerID: 7, ClientName: "Acme", ValidUntil: asOf.AddDate(0, 0, -1)},
	}}
	svc := reminders.NewService(repo, 7*24*time.Hour)
	job := NewRemindersScanJob(svc, nil, nil)

	task, err := NewRemindersScanTask(RemindersScanPayload{AsOf: asOf})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestDigestBody(t *testing.T) {
	body := digestBody([]reminders.Reminder{
		{Number: "VND-000001", Priority: reminders.PriorityOverdue, ClientName: "Acme", ValidUntil: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
	})
	require.Contains(t, body, "VND-000001")
	require.Contains(t, body, "OVERDUE")
	require.Contains(t, body, "2026-03-14")
}
