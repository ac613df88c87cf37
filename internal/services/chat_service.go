package services

import (
	"context"
	"fmt"
	"time"

	"lms-realtime/internal/database"
	"lms-realtime/internal/models"
	"lms-realtime/internal/realtime"

	"github.com/google/uuid"
)

type ChatService struct {
	messages     database.MessageRepository
	broadcaster  Broadcaster
	historyLimit int
}

func NewChatService(messages database.MessageRepository, broadcaster Broadcaster, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{
		messages:     messages,
		broadcaster:  broadcaster,
		historyLimit: historyLimit,
	}
}

// SendMessage persists the message and then broadcasts the persisted
// record to the batch room. The sender gets no optimistic echo: it waits
// for the broadcast like everyone else, so every client renders the same
// authoritative record under the same ID. When persistence fails nothing
// is broadcast; the message has no ID clients could deduplicate or retry
// on.
func (s *ChatService) SendMessage(ctx context.Context, payload models.SendMessagePayload) (*models.Message, error) {
	msgType := payload.Type
	if msgType == "" {
		msgType = models.MessageText
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		BatchID:     payload.BatchID,
		SenderID:    payload.SenderID,
		SenderModel: payload.SenderModel,
		SenderName:  payload.SenderName,
		Content:     payload.Content,
		Type:        msgType,
		FileURL:     payload.FileURL,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	s.broadcaster.Broadcast(realtime.BatchRoom(msg.BatchID), models.EventReceiveMessage, msg)
	return msg, nil
}

// History returns the most recent messages of a batch, oldest first.
func (s *ChatService) History(ctx context.Context, batchID string) ([]*models.Message, error) {
	return s.messages.LoadRecentMessages(ctx, batchID, s.historyLimit)
}
