package services

import (
	"errors"
	"fmt"

	"lms-realtime/internal/models"
	"lms-realtime/internal/realtime"
)

var ErrUnknownRecipientType = errors.New("unknown recipient type")

// NotificationService fans a notification out to the rooms its recipient
// type targets. Delivery is write-once; read state lives with the
// notification store owned by the REST layer.
type NotificationService struct {
	broadcaster Broadcaster
}

func NewNotificationService(broadcaster Broadcaster) *NotificationService {
	return &NotificationService{broadcaster: broadcaster}
}

func (s *NotificationService) Dispatch(notification models.Notification) error {
	switch notification.RecipientType {
	case models.RecipientAll:
		s.broadcaster.BroadcastAll(models.EventReceiveNotification, notification)
	case models.RecipientAllTrainers:
		s.broadcaster.Broadcast(realtime.RoleRoom("trainer"), models.EventReceiveNotification, notification)
	case models.RecipientAllStudents:
		s.broadcaster.Broadcast(realtime.RoleRoom("student"), models.EventReceiveNotification, notification)
	case models.RecipientBatch:
		for _, batchID := range notification.RecipientIDs {
			s.broadcaster.Broadcast(realtime.BatchRoom(batchID), models.EventReceiveNotification, notification)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRecipientType, notification.RecipientType)
	}
	return nil
}
