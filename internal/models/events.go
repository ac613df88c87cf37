package models

import "encoding/json"

const (
	EventJoinSession       = "join_session"
	EventJoinNotifications = "join_notifications"
	EventJoinChat          = "join_chat"
	EventSendMessage       = "send_message"
	EventHeartbeat         = "heartbeat"

	EventReceiveMessage      = "receive_message"
	EventReceiveNotification = "receive_notification"
	EventChatHistory         = "chat_history"
)

// Envelope wraps every inbound websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutgoingEvent wraps every outbound websocket frame.
type OutgoingEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type JoinSessionPayload struct {
	TrainerID string `json:"trainerId"`
}

type JoinNotificationsPayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type JoinChatPayload struct {
	BatchID string `json:"batchId"`
	User    string `json:"user"`
}

type SendMessagePayload struct {
	BatchID     string      `json:"batchId"`
	Content     string      `json:"content"`
	SenderID    string      `json:"senderId"`
	SenderModel SenderModel `json:"senderModel"`
	SenderName  string      `json:"senderName"`
	Type        MessageType `json:"type,omitempty"`
	FileURL     string      `json:"fileUrl,omitempty"`
}

type HeartbeatPayload struct {
	TrainerID string `json:"trainerId"`
}
