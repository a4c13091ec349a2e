package http

import (
	"log"
	"net/http"
	"strconv"

	"obligo/internal/domain/obligation"
)

// ObligationHandler serves the merged due-obligation feed.
type ObligationHandler struct {
	obligationService *obligation.Service
}

func NewObligationHandler(obligationService *obligation.Service) *ObligationHandler {
	return &ObligationHandler{obligationService: obligationService}
}

type ObligationResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	AmountMinor int64  `json:"amountMinor"`
	DueDate     string `json:"dueDate"`
	AutoCreate  bool   `json:"autoCreate"`
	Overdue     bool   `json:"overdue"`
	DaysUntil   int    `json:"daysUntil"`
}

// HandleListDue handles GET /api/obligations/due?userId=&asOf=YYYY-MM-DD.
// The same userID and asOf always produce the same ordering: due date
// ascending, then id ascending.
func (h *ObligationHandler) HandleListDue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	asOf, err := asOfOrToday(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	obligations, err := h.obligationService.DueObligations(r.Context(), userID, asOf)
	if err != nil {
		log.Printf("Error listing due obligations for user %d: %v", userID, err)
		http.Error(w, "Failed to list due obligations", http.StatusInternalServerError)
		return
	}

	response := make([]ObligationResponse, 0, len(obligations))
	for _, o := range obligations {
		response = append(response, ObligationResponse{
			ID:          o.ID,
			Kind:        o.Kind,
			UserID:      o.UserID,
			Name:        o.Name,
			AmountMinor: o.AmountMinor,
			DueDate:     formatDate(o.DueDate),
			AutoCreate:  o.AutoCreate,
			Overdue:     obligation.IsOverdue(o, asOf),
			DaysUntil:   obligation.DaysUntil(o, asOf),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
