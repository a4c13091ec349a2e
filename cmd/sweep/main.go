package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/notification"
	"obligo/internal/domain/schedule"
	"obligo/internal/infrastructure/firebase"
	"obligo/internal/infrastructure/postgres"
	"obligo/internal/shared/config"
)

const usage = `Obligo Sweep - One-shot due obligation sweep for cron setups

Usage:
  sweep [options]

Runs a single sweep: executes every due auto-create schedule as of the
reference date, then scans all obligations and emits due/overdue/reminder
notifications. Safe to re-run; already-executed due dates are no-ops.

Options:
  --as-of=YYYY-MM-DD   Reference date (default: today, UTC)
  --timeout=DURATION   Timeout for the whole sweep (default: 10m)
  --dry-run            List due schedules without executing anything
`

func main() {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	asOfStr := fs.String("as-of", "", "Reference date YYYY-MM-DD (default: today, UTC)")
	timeoutStr := fs.String("timeout", "10m", "Timeout for the whole sweep")
	dryRun := fs.Bool("dry-run", false, "List due schedules without executing")
	fs.Usage = func() { fmt.Print(usage) }

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	asOf := calendar.DateOnly(time.Now().UTC())
	if *asOfStr != "" {
		parsed, err := time.Parse("2006-01-02", *asOfStr)
		if err != nil {
			log.Fatalf("Invalid --as-of date: %v", err)
		}
		asOf = calendar.DateOnly(parsed)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid --timeout format: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	walletRepo := postgres.NewWalletRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	billRepo := postgres.NewBillRepository(db)
	debtRepo := postgres.NewDebtRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	scheduleService := schedule.NewService(scheduleRepo, walletRepo, walletRepo)

	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, notificationRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase messaging: %v", err)
		} else {
			messenger = fcm
		}
	}
	notificationService := notification.NewService(notificationRepo, messenger, scheduleRepo, billRepo, debtRepo)

	due, err := scheduleService.ListDueForSweep(ctx, asOf)
	if err != nil {
		log.Fatalf("Failed to list due schedules: %v", err)
	}
	log.Printf("Sweep as of %s: %d due schedule(s)", asOf.Format("2006-01-02"), len(due))

	if *dryRun {
		for _, sched := range due {
			fmt.Printf("  %s  user=%d  %q  due=%s\n",
				sched.ID, sched.UserID, sched.Description, formatDuePtr(sched.NextDueDate))
		}
		return
	}

	startTime := time.Now()
	executed, failed := 0, 0

	for _, sched := range due {
		if _, err := scheduleService.Execute(ctx, sched.ID, asOf); err != nil {
			// A concurrent execute already posted this due date.
			if errors.Is(err, schedule.ErrScheduleConflict) {
				continue
			}
			failed++
			log.Printf("Failed to execute schedule %s: %v", sched.ID, err)
			continue
		}
		executed++
	}

	emitted, err := notificationService.ScanAndEmit(ctx, asOf)
	if err != nil {
		log.Printf("Notification scan failed: %v", err)
	}

	log.Printf("Sweep completed in %v: executed=%d failed=%d notified=%d",
		time.Since(startTime), executed, failed, emitted)
	if failed > 0 {
		os.Exit(1)
	}
}

func formatDuePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
