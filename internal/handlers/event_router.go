package handlers

import (
	"context"
	"encoding/json"

	"lms-realtime/internal/models"
	"lms-realtime/internal/realtime"
	"lms-realtime/internal/services"
	"lms-realtime/pkg/logger"
)

// EventRouter dispatches decoded websocket frames to the services. Every
// branch swallows its own errors: a bad or failed event only costs that
// event, never the connection or the process.
type EventRouter struct {
	sessionService *services.SessionService
	roomService    *services.RoomService
	chatService    *services.ChatService
}

func NewEventRouter(sessionService *services.SessionService, roomService *services.RoomService, chatService *services.ChatService) *EventRouter {
	return &EventRouter{
		sessionService: sessionService,
		roomService:    roomService,
		chatService:    chatService,
	}
}

func (rt *EventRouter) HandleEvent(ctx context.Context, client *realtime.Client, env models.Envelope) {
	switch env.Event {
	case models.EventJoinSession:
		var payload models.JoinSessionPayload
		if !decode(client, env, &payload) {
			return
		}
		// Fire and forget: session tracking must not disturb the chat
		// and notification side of the connection.
		if err := rt.sessionService.JoinSession(ctx, client.SocketID(), payload.TrainerID, client.RemoteAddr(), client.UserAgent()); err != nil {
			logger.Error("Error joining session for trainer %s: %v", payload.TrainerID, err)
		}

	case models.EventHeartbeat:
		var payload models.HeartbeatPayload
		if !decode(client, env, &payload) {
			return
		}
		if err := rt.sessionService.Heartbeat(ctx, client.SocketID(), payload.TrainerID); err != nil {
			logger.Error("Error handling heartbeat for trainer %s: %v", payload.TrainerID, err)
		}

	case models.EventJoinNotifications:
		var payload models.JoinNotificationsPayload
		if !decode(client, env, &payload) {
			return
		}
		// Older clients omit the payload when they connected with a
		// token; fall back to the handshake identity.
		if payload.UserID == "" {
			if identity := client.Identity(); identity != nil {
				payload.UserID = identity.UserID
				if payload.Role == "" {
					payload.Role = identity.Role
				}
			}
		}
		if payload.UserID == "" {
			logger.Warn("join_notifications without userId from client %s", client.SocketID())
			return
		}
		rt.roomService.JoinNotifications(ctx, client, payload.UserID, payload.Role)

	case models.EventJoinChat:
		var payload models.JoinChatPayload
		if !decode(client, env, &payload) {
			return
		}
		rt.roomService.JoinChat(client, payload.BatchID)
		history, err := rt.chatService.History(ctx, payload.BatchID)
		if err != nil {
			logger.Error("Error loading history for batch %s: %v", payload.BatchID, err)
			return
		}
		client.Send(models.EventChatHistory, history)

	case models.EventSendMessage:
		var payload models.SendMessagePayload
		if !decode(client, env, &payload) {
			return
		}
		if _, err := rt.chatService.SendMessage(ctx, payload); err != nil {
			logger.Error("Error sending message to batch %s: %v", payload.BatchID, err)
		}

	default:
		logger.Warn("Unknown event %q from client %s", env.Event, client.SocketID())
	}
}

func (rt *EventRouter) HandleDisconnect(client *realtime.Client) {
	rt.sessionService.Disconnect(context.Background(), client.SocketID())
}

func decode(client *realtime.Client, env models.Envelope, payload interface{}) bool {
	if err := json.Unmarshal(env.Data, payload); err != nil {
		logger.Error("Error decoding %s payload from client %s: %v", env.Event, client.SocketID(), err)
		return false
	}
	return true
}
