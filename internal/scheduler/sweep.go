package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/notification"
	"obligo/internal/domain/schedule"
)

// ExecuteJob posts a single due schedule. The sweep time is pinned when the
// job is built, so a job that sits in the queue past midnight still executes
// against the date it was selected for.
type ExecuteJob struct {
	schedules  *schedule.Service
	scheduleID string
	userID     int64
	asOf       time.Time
}

func (j *ExecuteJob) Execute(ctx context.Context) error {
	_, err := j.schedules.Execute(ctx, j.scheduleID, j.asOf)
	if err != nil {
		// Lost the claim race to a concurrent execute; the posting exists.
		if errors.Is(err, schedule.ErrScheduleConflict) {
			return nil
		}
		return fmt.Errorf("executing schedule %s: %w", j.scheduleID, err)
	}
	return nil
}

func (j *ExecuteJob) UserID() int64 { return j.userID }

func (j *ExecuteJob) Description() string { return "schedule execution" }

// NotifyJob scans all obligations once and emits due/overdue/reminder events.
type NotifyJob struct {
	notifications *notification.Service
	asOf          time.Time
}

func (j *NotifyJob) Execute(ctx context.Context) error {
	emitted, err := j.notifications.ScanAndEmit(ctx, j.asOf)
	if err != nil {
		return fmt.Errorf("notification scan: %w", err)
	}
	if emitted > 0 {
		log.Printf("Notification scan emitted %d events", emitted)
	}
	return nil
}

func (j *NotifyJob) UserID() int64 { return 0 }

func (j *NotifyJob) Description() string { return "notification scan" }

// SweepProvider builds the job batch for one sweep: an ExecuteJob per due
// auto-create schedule plus a single NotifyJob. All jobs share one asOf
// captured at sweep start.
func SweepProvider(schedules *schedule.Service, notifications *notification.Service) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		asOf := calendar.DateOnly(time.Now().UTC())

		due, err := schedules.ListDueForSweep(ctx, asOf)
		if err != nil {
			return nil, fmt.Errorf("listing due schedules: %w", err)
		}

		jobs := make([]Job, 0, len(due)+1)
		for _, sched := range due {
			jobs = append(jobs, &ExecuteJob{
				schedules:  schedules,
				scheduleID: sched.ID,
				userID:     sched.UserID,
				asOf:       asOf,
			})
		}
		jobs = append(jobs, &NotifyJob{notifications: notifications, asOf: asOf})
		return jobs, nil
	}
}
