package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"obligo/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, allowedHosts []string) http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Wallets
	mux.HandleFunc("/api/wallets", deps.WalletHandler.HandleWallets)
	mux.HandleFunc("/api/wallets/{id}", deps.WalletHandler.HandleWalletByID)

	// Obligation feed
	mux.HandleFunc("/api/obligations/due", deps.ObligationHandler.HandleListDue)

	// Recurring schedules
	mux.HandleFunc("/api/schedules", deps.ScheduleHandler.HandleSchedules)
	mux.HandleFunc("/api/schedules/{id}/execute", deps.ScheduleHandler.HandleExecute)
	mux.HandleFunc("/api/schedules/{id}/skip", deps.ScheduleHandler.HandleSkip)
	mux.HandleFunc("/api/schedules/{id}/pause", deps.ScheduleHandler.HandlePause)
	mux.HandleFunc("/api/schedules/{id}/reactivate", deps.ScheduleHandler.HandleReactivate)

	// Bills
	mux.HandleFunc("/api/bills", deps.BillHandler.HandleBills)
	mux.HandleFunc("/api/bills/{id}/pay", deps.BillHandler.HandlePay)

	// Notifications
	mux.HandleFunc("/api/notifications", deps.NotificationHandler.HandleNotifications)
	mux.HandleFunc("/api/notifications/tokens", deps.NotificationHandler.HandleRegisterToken)

	// Debts
	mux.HandleFunc("/api/debts", deps.DebtHandler.HandleDebts)
	mux.HandleFunc("/api/debts/{id}", deps.DebtHandler.HandleDebtByID)
	mux.HandleFunc("/api/debts/{id}/payments", deps.DebtHandler.HandlePayments)

	// Apply global middleware
	handler := middleware.SecurityHeaders(middleware.CORS(mux))
	handler = middleware.Metrics(handler)
	handler = middleware.Telemetry(handler)
	handler = middleware.Logging(middleware.AllowedHosts(allowedHosts)(handler))
	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
