package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"obligo/internal/domain/bill"
	"obligo/internal/domain/calendar"
)

// BillHandler serves the one-shot bill endpoints.
type BillHandler struct {
	billService *bill.Service
}

func NewBillHandler(billService *bill.Service) *BillHandler {
	return &BillHandler{billService: billService}
}

// HTTP request/response types (transport layer concerns)
type CreateBillRequest struct {
	UserID           int64   `json:"userId" validate:"required,gt=0"`
	WalletID         *string `json:"walletId,omitempty" validate:"omitempty,uuid4"`
	Name             string  `json:"name" validate:"required"`
	AmountMinor      int64   `json:"amountMinor" validate:"required,gt=0"`
	DueDate          string  `json:"dueDate" validate:"required"`
	ReminderLeadDays int     `json:"reminderLeadDays" validate:"gte=0"`
}

type PayBillRequest struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	PaidDate string `json:"paidDate,omitempty"`
}

type BillResponse struct {
	ID               string  `json:"id"`
	UserID           int64   `json:"userId"`
	WalletID         *string `json:"walletId,omitempty"`
	ScheduleID       *string `json:"scheduleId,omitempty"`
	Name             string  `json:"name"`
	AmountMinor      int64   `json:"amountMinor"`
	DueDate          string  `json:"dueDate"`
	ReminderLeadDays int     `json:"reminderLeadDays"`
	IsPaid           bool    `json:"isPaid"`
	PaidDate         *string `json:"paidDate,omitempty"`
}

// HandleBills handles POST /api/bills and GET /api/bills?userId=.
func (h *BillHandler) HandleBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BillHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.billService.CreateBill(r.Context(), bill.CreateParams{
		UserID:           req.UserID,
		WalletID:         req.WalletID,
		Name:             req.Name,
		AmountMinor:      req.AmountMinor,
		DueDate:          dueDate,
		ReminderLeadDays: req.ReminderLeadDays,
	})
	if err != nil {
		if errors.Is(err, bill.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error creating bill for user %d: %v", req.UserID, err)
		http.Error(w, "Failed to create bill", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(created))
}

func (h *BillHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	bills, err := h.billService.ListBillsByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing bills for user %d: %v", userID, err)
		http.Error(w, "Failed to list bills", http.StatusInternalServerError)
		return
	}

	response := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		response = append(response, toBillResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

// HandlePay handles POST /api/bills/{id}/pay. Paying an already-paid bill is
// a no-op returning the bill unchanged.
func (h *BillHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	billID := r.PathValue("id")
	if billID == "" {
		http.Error(w, "Bill ID is required", http.StatusBadRequest)
		return
	}

	var req PayBillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	paidDate := calendar.DateOnly(time.Now().UTC())
	if req.PaidDate != "" {
		var err error
		paidDate, err = parseDate(req.PaidDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	paid, err := h.billService.MarkPaid(r.Context(), billID, req.UserID, paidDate)
	if err != nil {
		switch {
		case errors.Is(err, bill.ErrBillNotFound):
			http.Error(w, "Bill not found", http.StatusNotFound)
		case errors.Is(err, bill.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, bill.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Printf("Error paying bill %s: %v", billID, err)
			http.Error(w, "Failed to pay bill", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(paid))
}

func toBillResponse(b *bill.Bill) BillResponse {
	return BillResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		WalletID:         b.WalletID,
		ScheduleID:       b.ScheduleID,
		Name:             b.Name,
		AmountMinor:      b.AmountMinor,
		DueDate:          formatDate(b.DueDate),
		ReminderLeadDays: b.ReminderLeadDays,
		IsPaid:           b.IsPaid,
		PaidDate:         formatDatePtr(b.PaidDate),
	}
}
