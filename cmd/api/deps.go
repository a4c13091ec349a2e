package main

import (
	"context"
	"log"

	"obligo/internal/domain/bill"
	"obligo/internal/domain/debt"
	"obligo/internal/domain/notification"
	"obligo/internal/domain/obligation"
	"obligo/internal/domain/schedule"
	"obligo/internal/infrastructure/firebase"
	"obligo/internal/infrastructure/postgres"
	httphandlers "obligo/internal/interfaces/http"
	"obligo/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ObligationHandler   *httphandlers.ObligationHandler
	ScheduleHandler     *httphandlers.ScheduleHandler
	BillHandler         *httphandlers.BillHandler
	DebtHandler         *httphandlers.DebtHandler
	NotificationHandler *httphandlers.NotificationHandler
	WalletHandler       *httphandlers.WalletHandler

	// Services (for the sweep job provider)
	ScheduleService     *schedule.Service
	NotificationService *notification.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	walletRepo := postgres.NewWalletRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	billRepo := postgres.NewBillRepository(db)
	debtRepo := postgres.NewDebtRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// Initialize domain services
	scheduleService := schedule.NewService(scheduleRepo, walletRepo, walletRepo)
	billService := bill.NewService(billRepo)
	debtService := debt.NewService(debtRepo)
	obligationService := obligation.NewService(scheduleRepo, billRepo, debtRepo)

	// Initialize the push messenger. Without Firebase credentials the
	// notification service still records events; pushes are skipped.
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

	return &Dependencies{
		DB:                  db,
		ObligationHandler:   httphandlers.NewObligationHandler(obligationService),
		ScheduleHandler:     httphandlers.NewScheduleHandler(scheduleService),
		BillHandler:         httphandlers.NewBillHandler(billService),
		DebtHandler:         httphandlers.NewDebtHandler(debtService),
		NotificationHandler: httphandlers.NewNotificationHandler(notificationService),
		WalletHandler:       httphandlers.NewWalletHandler(walletRepo),
		ScheduleService:     scheduleService,
		NotificationService: notificationService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
