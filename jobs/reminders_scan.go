package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vendaflow-erp/vendaflow/internal/sales/reminders"
)

// RemindersScanJob recomputes the validity-date projection and enqueues one
// digest email per proposal owner. Nothing is persisted: a re-run after a
// crash simply rebuilds the same digest from current data.
type RemindersScanJob struct {
	Reminders *reminders.Service
	Client    *Client
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewRemindersScanJob initialises the scan handler.
func NewRemindersScanJob(svc *reminders.Service, client *Client, logger *slog.Logger) *RemindersScanJob {
	return &RemindersScanJob{
		Reminders: svc,
		Client:    client,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *RemindersScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reminders == nil {
		return errors.New("reminders scan: handler not configured")
	}
	var payload RemindersScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	now := payload.AsOf
	if now.IsZero() {
		now = j.now()
	}

	logger := j.logger()
	logger.Info("starting reminders scan")

	items, err := j.Reminders.Upcoming(ctx, now)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	byOwner := make(map[int64][]reminders.Reminder)
	for _, item := range items {
		byOwner[item.OwnerID] = append(byOwner[item.OwnerID], item)
	}

	enqueued := 0
	for ownerID, batch := range byOwner {
		if j.Client == nil {
			break
		}
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      fmt.Sprintf("user:%d", ownerID),
			Subject: fmt.Sprintf("%d proposal(s) need attention", len(batch)),
			Body:    digestBody(batch),
		}); err != nil {
			logger.Error("enqueue digest failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
			continue
		}
		enqueued++
	}

	logger.Info("completed reminders scan",
		slog.Int("reminders", len(items)),
		slog.Int("digests", enqueued),
	)
	return nil
}

func digestBody(batch []reminders.Reminder) string {
	var b strings.Builder
	for _, r := range batch {
		fmt.Fprintf(&b, "%s [%s] %s valid until %s\n",
			r.Number, r.Priority, r.ClientName, r.ValidUntil.Format("2006-01-02"))
	}
	return b.String()
}

func (j *RemindersScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRemindersScan))
	}
	return slog.Default().With(slog.String("job", TaskRemindersScan))
}

func (j *RemindersScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
