package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"payble/internal/amqp"
	"payble/internal/core"
)

// Notifier lists reminders the user has not seen yet.
type Notifier interface {
	Unseen(ctx context.Context, now time.Time) ([]core.Notification, error)
}

// Publisher sends refresh requests.
type Publisher interface {
	PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error
}

// ReminderJob logs pending reminders and asks for a fresh export.
type ReminderJob struct {
	notifier  Notifier
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
}

// NewReminderJob creates a job that classifies due dates in loc (time.Local
// when nil). A nil publisher skips the export request.
func NewReminderJob(n Notifier, p Publisher, loc *time.Location) *ReminderJob {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderJob{notifier: n, publisher: p, loc: loc, now: time.Now}
}

// Run executes one reminder pass and returns the unseen notifications.
func (j *ReminderJob) Run(ctx context.Context) ([]core.Notification, error) {
	now := j.now().In(j.loc)
	pending, err := j.notifier.Unseen(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list unseen notifications: %w", err)
	}
	counts := map[core.NotificationKind]int{}
	for _, n := range pending {
		counts[n.Kind]++
		slog.InfoContext(ctx, "Bill reminder",
			"obligation_id", n.ObligationID,
			"type", n.Kind,
			"message", n.Message)
	}
	slog.InfoContext(ctx, "Reminder pass finished",
		"unseen", len(pending),
		"overdue", counts[core.NotifyOverdue],
		"due_today", counts[core.NotifyDueToday],
		"upcoming", counts[core.NotifyUpcoming])

	if j.publisher != nil {
		if err := j.publisher.PublishRefresh(ctx, amqp.NewRefreshMessage(amqp.ReasonScheduled)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish scheduled refresh", "error", err)
		}
	}
	return pending, nil
}

// Scheduler runs a ReminderJob on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	id   cron.EntryID
}

// NewScheduler validates schedule (standard 5-field cron syntax or descriptors
// such as @hourly) and registers job.
func NewScheduler(ctx context.Context, schedule string, job *ReminderJob, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	id, err := c.AddFunc(schedule, func() {
		if _, err := job.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Reminder job failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, id: id}, nil
}

// Next reports when the job runs next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.id).Next
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
