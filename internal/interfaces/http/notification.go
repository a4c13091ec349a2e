package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"obligo/internal/domain/notification"
)

// NotificationHandler serves the notification feed and device registration.
type NotificationHandler struct {
	notificationService *notification.Service
}

func NewNotificationHandler(notificationService *notification.Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type RegisterTokenRequest struct {
	UserID     int64  `json:"userId" validate:"required,gt=0"`
	Token      string `json:"token" validate:"required"`
	DeviceType string `json:"deviceType,omitempty" validate:"omitempty,oneof=ios android web"`
}

type NotificationResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	ObligationID   string `json:"obligationId"`
	ObligationKind string `json:"obligationKind"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	DueDate        string `json:"dueDate"`
	CreatedAt      string `json:"createdAt"`
}

// HandleNotifications handles GET /api/notifications?userId=&limit=&offset=.
func (h *NotificationHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "Valid userId query parameter is required", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.notificationService.ListNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("Error listing notifications for user %d: %v", userID, err)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	response := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		response = append(response, NotificationResponse{
			ID:             n.ID,
			Type:           n.Type,
			ObligationID:   n.ObligationID,
			ObligationKind: n.ObligationKind,
			Title:          n.Title,
			Message:        n.Message,
			DueDate:        formatDate(n.DueDate),
			CreatedAt:      n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleRegisterToken handles POST /api/notifications/tokens.
func (h *NotificationHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.notificationService.RegisterDeviceToken(r.Context(), req.UserID, req.Token, req.DeviceType)
	if err != nil {
		if errors.Is(err, notification.ErrInvalidToken) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Error registering device token for user %d: %v", req.UserID, err)
		http.Error(w, "Failed to register device token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, token)
}
