package models

import "time"

type SenderModel string

const (
	SenderStudent SenderModel = "Student"
	SenderTrainer SenderModel = "Trainer"
	SenderAdmin   SenderModel = "Admin"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
)

// Message is a single batch chat message. Messages are immutable once
// persisted; clients deduplicate on ID.
type Message struct {
	ID          string      `json:"id"`
	BatchID     string      `json:"batchId"`
	SenderID    string      `json:"senderId"`
	SenderModel SenderModel `json:"senderModel"`
	SenderName  string      `json:"senderName"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
	FileURL     string      `json:"fileUrl,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// TrainerSession tracks one calendar day of trainer activity. At most one
// active session exists per (trainer, date); the stale-session sweeper that
// flips active sessions to closed lives outside this service and only reads
// Status and LastActiveAt.
type TrainerSession struct {
	ID           string        `json:"id"`
	TrainerID    string        `json:"trainerId"`
	Date         time.Time     `json:"date"`
	StartTime    time.Time     `json:"startTime"`
	LastActiveAt time.Time     `json:"lastActiveAt"`
	Status       SessionStatus `json:"status"`
	IPAddress    string        `json:"ipAddress"`
	Device       string        `json:"device"`
}

type RecipientType string

const (
	RecipientAll         RecipientType = "All"
	RecipientAllTrainers RecipientType = "AllTrainers"
	RecipientAllStudents RecipientType = "AllStudents"
	RecipientBatch       RecipientType = "Batch"
)

// Notification is owned and persisted by the platform's REST layer; this
// core only fans it out to the right rooms. RecipientIDs carries batch IDs
// when RecipientType is Batch.
type Notification struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	RecipientType RecipientType `json:"recipientType"`
	RecipientIDs  []string      `json:"recipientIds,omitempty"`
}
