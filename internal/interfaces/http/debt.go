package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/debt"
)

// DebtHandler serves the debt and repayment endpoints.
type DebtHandler struct {
	debtService *debt.Service
}

func NewDebtHandler(debtService *debt.Service) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// HTTP request/response types (transport layer concerns)
type CreateDebtRequest struct {
	UserID          int64   `json:"userId" validate:"required,gt=0"`
	Counterparty    string  `json:"counterparty" validate:"required"`
	Direction       string  `json:"direction" validate:"required,oneof=owing lending"`
	TotalMinor      int64   `json:"totalMinor" validate:"required,gt=0"`
	InterestRateBps int64   `json:"interestRateBps" validate:"gte=0"`
	StartDate       string  `json:"startDate" validate:"required"`
	DueDate         string  `json:"dueDate,omitempty"`
	Frequency       *string `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Notes           string  `json:"notes"`
}

type RecordPaymentRequest struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	AmountMinor int64  `json:"amountMinor" validate:"required,gt=0"`
	PaymentDate string `json:"paymentDate,omitempty"`
	Notes       string `json:"notes"`
}

type DebtResponse struct {
	ID                 string  `json:"id"`
	UserID             int64   `json:"userId"`
	Counterparty       string  `json:"counterparty"`
	Direction          string  `json:"direction"`
	TotalMinor         int64   `json:"totalMinor"`
	RemainingMinor     int64   `json:"remainingMinor"`
	PaidMinor          int64   `json:"paidMinor"`
	ProgressPercentage int64   `json:"progressPercentage"`
	InterestRateBps    int64   `json:"interestRateBps"`
	StartDate          string  `json:"startDate"`
	DueDate            *string `json:"dueDate,omitempty"`
	Frequency          *string `json:"frequency,omitempty"`
	NextPaymentDate    *string `json:"nextPaymentDate,omitempty"`
	IsPaid             bool    `json:"isPaid"`
	Notes              string  `json:"notes"`
}

type PaymentResponse struct {
	ID          string `json:"id"`
	DebtID      string `json:"debtId"`
	AmountMinor int64  `json:"amountMinor"`
	PaymentDate string `json:"paymentDate"`
	Notes       string `json:"notes"`
}

// HandleDebts handles POST /api/debts and GET /api/debts?userId=.
func (h *DebtHandler) HandleDebts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DebtHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateDebtRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.debtService.CreateDebt(r.Context(), debt.CreateParams{
		UserID:          req.UserID,
		Counterparty:    req.Counterparty,
		Direction:       req.Direction,
		TotalMinor:      req.TotalMinor,
		InterestRateBps: req.InterestRateBps,
		StartDate:       startDate,
		DueDate:         dueDate,
		Frequency:       req.Frequency,
		Notes:           req.Notes,
	})
	if err != nil {
		if errors.Is(err, debt.ErrInvalidDirection) || errors.Is(err, calendar.ErrInvalidFrequency) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error creating debt for user %d: %v", req.UserID, err)
		http.Error(w, "Failed to create debt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toDebtResponse(created))
}

func (h *DebtHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	debts, err := h.debtService.ListDebtsByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing debts for user %d: %v", userID, err)
		http.Error(w, "Failed to list debts", http.StatusInternalServerError)
		return
	}

	response := make([]DebtResponse, 0, len(debts))
	for _, d := range debts {
		response = append(response, toDebtResponse(d))
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleDebtByID handles GET /api/debts/{id}?userId=.
func (h *DebtHandler) HandleDebtByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	debtID := r.PathValue("id")
	if debtID == "" {
		http.Error(w, "Debt ID is required", http.StatusBadRequest)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	d, err := h.debtService.GetDebt(r.Context(), debtID, userID)
	if err != nil {
		h.writeDebtError(w, debtID, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtResponse(d))
}

// HandlePayments handles POST and GET on /api/debts/{id}/payments.
func (h *DebtHandler) HandlePayments(w http.ResponseWriter, r *http.Request) {
	debtID := r.PathValue("id")
	if debtID == "" {
		http.Error(w, "Debt ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handleRecordPayment(w, r, debtID)
	case http.MethodGet:
		h.handleListPayments(w, r, debtID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DebtHandler) handleRecordPayment(w http.ResponseWriter, r *http.Request, debtID string) {
	var req RecordPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	paymentDate := calendar.DateOnly(time.Now().UTC())
	if req.PaymentDate != "" {
		var err error
		paymentDate, err = parseDate(req.PaymentDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	updated, err := h.debtService.RecordPayment(r.Context(), debt.RecordPaymentParams{
		DebtID:      debtID,
		UserID:      req.UserID,
		AmountMinor: req.AmountMinor,
		PaymentDate: paymentDate,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeDebtError(w, debtID, err)
		return
	}

	writeJSON(w, http.StatusOK, toDebtResponse(updated))
}

func (h *DebtHandler) handleListPayments(w http.ResponseWriter, r *http.Request, debtID string) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	payments, err := h.debtService.ListPayments(r.Context(), debtID, userID)
	if err != nil {
		h.writeDebtError(w, debtID, err)
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, PaymentResponse{
			ID:          p.ID,
			DebtID:      p.DebtID,
			AmountMinor: p.AmountMinor,
			PaymentDate: formatDate(p.PaymentDate),
			Notes:       p.Notes,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *DebtHandler) writeDebtError(w http.ResponseWriter, debtID string, err error) {
	switch {
	case errors.Is(err, debt.ErrDebtNotFound):
		http.Error(w, "Debt not found", http.StatusNotFound)
	case errors.Is(err, debt.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, debt.ErrDebtAlreadyPaid):
		http.Error(w, "Debt is already paid off", http.StatusUnprocessableEntity)
	case errors.Is(err, debt.ErrOverpayment):
		http.Error(w, "Payment exceeds remaining amount", http.StatusUnprocessableEntity)
	case errors.Is(err, debt.ErrInvalidAmount):
		http.Error(w, "Payment amount must be positive", http.StatusBadRequest)
	default:
		log.Printf("Error handling debt %s: %v", debtID, err)
		http.Error(w, "Failed to process debt request", http.StatusInternalServerError)
	}
}

func toDebtResponse(d *debt.Debt) DebtResponse {
	return DebtResponse{
		ID:                 d.ID,
		UserID:             d.UserID,
		Counterparty:       d.Counterparty,
		Direction:          d.Direction,
		TotalMinor:         d.TotalMinor,
		RemainingMinor:     d.RemainingMinor,
		PaidMinor:          d.PaidMinor(),
		ProgressPercentage: d.ProgressPercentage(),
		InterestRateBps:    d.InterestRateBps,
		StartDate:          formatDate(d.StartDate),
		DueDate:            formatDatePtr(d.DueDate),
		Frequency:          d.Frequency,
		NextPaymentDate:    formatDatePtr(d.NextPaymentDate),
		IsPaid:             d.IsPaid,
		Notes:              d.Notes,
	}
}
