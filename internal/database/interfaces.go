package database

import (
	"context"
	"errors"
	"time"

	"lms-realtime/internal/models"
)

// ErrNoActiveSession is returned when a trainer has no active session for
// the requested day.
var ErrNoActiveSession = errors.New("no active session")

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	LoadRecentMessages(ctx context.Context, batchID string, limit int) ([]*models.Message, error)
}

type SessionRepository interface {
	// FindOrCreateActiveSession atomically resumes the trainer's active
	// session for the given day or creates a fresh one. Resuming only
	// advances lastActiveAt; startTime, IP and device keep their values
	// from the original join.
	FindOrCreateActiveSession(ctx context.Context, trainerID string, day, now time.Time, ip, device string) (*models.TrainerSession, error)
	FindActiveSession(ctx context.Context, trainerID string, day time.Time) (*models.TrainerSession, error)
	TouchSession(ctx context.Context, sessionID string, now time.Time) error
}

type EnrollmentRepository interface {
	ListStudentBatchIDs(ctx context.Context, studentID string) ([]string, error)
}

type Database interface {
	MessageRepository
	SessionRepository
	EnrollmentRepository
	Close() error
}
