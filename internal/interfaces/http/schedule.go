package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/schedule"
	"obligo/internal/domain/wallet"
)

// ScheduleHandler serves the recurring-schedule endpoints.
type ScheduleHandler struct {
	scheduleService *schedule.Service
}

func NewScheduleHandler(scheduleService *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// HTTP request/response types (transport layer concerns)
type CreateScheduleRequest struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	WalletID    string `json:"walletId" validate:"required,uuid4"`
	AmountMinor int64  `json:"amountMinor" validate:"required,gt=0"`
	Direction   string `json:"direction" validate:"required,oneof=expense income"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	Description string `json:"description"`
	AutoCreate  bool   `json:"autoCreate"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate,omitempty"`
	NextDueDate string `json:"nextDueDate,omitempty"`
}

type ScheduleResponse struct {
	ID                  string  `json:"id"`
	UserID              int64   `json:"userId"`
	WalletID            string  `json:"walletId"`
	AmountMinor         int64   `json:"amountMinor"`
	Direction           string  `json:"direction"`
	Category            string  `json:"category"`
	Frequency           string  `json:"frequency"`
	Description         string  `json:"description"`
	AutoCreate          bool    `json:"autoCreate"`
	Status              string  `json:"status"`
	StartDate           string  `json:"startDate"`
	EndDate             *string `json:"endDate,omitempty"`
	NextDueDate         *string `json:"nextDueDate,omitempty"`
	LastExecutedDueDate *string `json:"lastExecutedDueDate,omitempty"`
	LastPostingID       *string `json:"lastPostingId,omitempty"`
}

type ExecutionResponse struct {
	Schedule        ScheduleResponse `json:"schedule"`
	PostingID       *string          `json:"postingId,omitempty"`
	AlreadyExecuted bool             `json:"alreadyExecuted"`
}

// HandleSchedules handles POST /api/schedules and GET /api/schedules?userId=.
func (h *ScheduleHandler) HandleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScheduleHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	nextDueDate, err := parseOptionalDate(req.NextDueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.scheduleService.CreateSchedule(r.Context(), schedule.CreateParams{
		UserID:      req.UserID,
		WalletID:    req.WalletID,
		AmountMinor: req.AmountMinor,
		Direction:   req.Direction,
		Category:    req.Category,
		Frequency:   req.Frequency,
		Description: req.Description,
		AutoCreate:  req.AutoCreate,
		StartDate:   startDate,
		EndDate:     endDate,
		NextDueDate: nextDueDate,
	})
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidInput) || errors.Is(err, calendar.ErrInvalidFrequency) || errors.Is(err, wallet.ErrInvalidDirection) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error creating schedule for user %d: %v", req.UserID, err)
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleResponse(created))
}

func (h *ScheduleHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	schedules, err := h.scheduleService.ListSchedulesByUserID(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing schedules for user %d: %v", userID, err)
		http.Error(w, "Failed to list schedules", http.StatusInternalServerError)
		return
	}

	response := make([]ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		response = append(response, toScheduleResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleExecute handles POST /api/schedules/{id}/execute. An optional asOf
// query parameter pins the execution date; it defaults to today.
func (h *ScheduleHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scheduleID := r.PathValue("id")
	if scheduleID == "" {
		http.Error(w, "Schedule ID is required", http.StatusBadRequest)
		return
	}

	asOf, err := asOfOrToday(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.scheduleService.Execute(r.Context(), scheduleID, asOf)
	if err != nil {
		h.writeExecuteError(w, scheduleID, err)
		return
	}

	resp := ExecutionResponse{
		Schedule:        toScheduleResponse(result.Schedule),
		AlreadyExecuted: result.AlreadyExecuted,
	}
	if result.Posting != nil {
		resp.PostingID = &result.Posting.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSkip handles POST /api/schedules/{id}/skip.
func (h *ScheduleHandler) HandleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scheduleID := r.PathValue("id")
	if scheduleID == "" {
		http.Error(w, "Schedule ID is required", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.Skip(r.Context(), scheduleID); err != nil {
		h.writeExecuteError(w, scheduleID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePause handles POST /api/schedules/{id}/pause.
func (h *ScheduleHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.scheduleService.Pause)
}

// HandleReactivate handles POST /api/schedules/{id}/reactivate.
func (h *ScheduleHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.scheduleService.Reactivate)
}

func (h *ScheduleHandler) handleStatusChange(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, scheduleID string, userID int64) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scheduleID := r.PathValue("id")
	if scheduleID == "" {
		http.Error(w, "Schedule ID is required", http.StatusBadRequest)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	if err := action(r.Context(), scheduleID, userID); err != nil {
		switch {
		case errors.Is(err, schedule.ErrScheduleNotFound):
			http.Error(w, "Schedule not found", http.StatusNotFound)
		case errors.Is(err, schedule.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, schedule.ErrScheduleInactive):
			http.Error(w, "Schedule is completed", http.StatusUnprocessableEntity)
		default:
			log.Printf("Error changing status of schedule %s: %v", scheduleID, err)
			http.Error(w, "Failed to update schedule", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) writeExecuteError(w http.ResponseWriter, scheduleID string, err error) {
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound):
		http.Error(w, "Schedule not found", http.StatusNotFound)
	case errors.Is(err, schedule.ErrScheduleInactive):
		http.Error(w, "Schedule is not active", http.StatusUnprocessableEntity)
	case errors.Is(err, schedule.ErrScheduleNotDue):
		http.Error(w, "Schedule is not due", http.StatusUnprocessableEntity)
	case errors.Is(err, schedule.ErrScheduleConflict):
		http.Error(w, "Schedule changed concurrently, retry", http.StatusConflict)
	case errors.Is(err, wallet.ErrPostingFailed):
		http.Error(w, "Balance posting failed", http.StatusBadGateway)
	default:
		log.Printf("Error executing schedule %s: %v", scheduleID, err)
		http.Error(w, "Failed to execute schedule", http.StatusInternalServerError)
	}
}

func toScheduleResponse(s *schedule.RecurringSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                  s.ID,
		UserID:              s.UserID,
		WalletID:            s.WalletID,
		AmountMinor:         s.AmountMinor,
		Direction:           s.Direction,
		Category:            s.Category,
		Frequency:           s.Frequency,
		Description:         s.Description,
		AutoCreate:          s.AutoCreate,
		Status:              string(s.Status),
		StartDate:           formatDate(s.StartDate),
		EndDate:             formatDatePtr(s.EndDate),
		NextDueDate:         formatDatePtr(s.NextDueDate),
		LastExecutedDueDate: formatDatePtr(s.LastExecutedDueDate),
		LastPostingID:       s.LastPostingID,
	}
}
