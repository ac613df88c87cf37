package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"lms-realtime/internal/models"
	"lms-realtime/internal/services"
	"lms-realtime/pkg/logger"
)

// NotificationHandlers is the HTTP ingress for notification fan-out. The
// platform's REST layer persists the notification and then posts it here
// for delivery.
type NotificationHandlers struct {
	notificationService *services.NotificationService
}

func NewNotificationHandlers(notificationService *services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService}
}

func (h *NotificationHandlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var notification models.Notification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.notificationService.Dispatch(notification); err != nil {
		if errors.Is(err, services.ErrUnknownRecipientType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("Error dispatching notification %s: %v", notification.ID, err)
		http.Error(w, "dispatch failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
