package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms-realtime/internal/database"
	"lms-realtime/internal/registry"
	"lms-realtime/pkg/logger"
)

// SessionService tracks daily trainer attendance sessions. The registry
// mapping is only a cache over the persisted rows; every path here works
// without it, at the cost of one extra lookup.
type SessionService struct {
	sessions database.SessionRepository
	registry registry.Registry
	now      func() time.Time
}

func NewSessionService(sessions database.SessionRepository, reg registry.Registry) *SessionService {
	return &SessionService{
		sessions: sessions,
		registry: reg,
		now:      time.Now,
	}
}

// JoinSession resumes today's active session for the trainer or creates a
// fresh one, then binds the socket to it. A page refresh or reconnect
// lands on the existing row with only lastActiveAt advanced, so one day
// never fragments into multiple sessions.
func (s *SessionService) JoinSession(ctx context.Context, socketID, trainerID, ip, device string) error {
	if trainerID == "" {
		return errors.New("trainerId is required")
	}

	now := s.now().UTC()
	session, err := s.sessions.FindOrCreateActiveSession(ctx, trainerID, dayBucket(now), now, ip, device)
	if err != nil {
		return fmt.Errorf("failed to join session for trainer %s: %w", trainerID, err)
	}

	if err := s.registry.Bind(ctx, socketID, session.ID); err != nil {
		// The session row exists; a missing binding only forces the
		// heartbeat fallback lookup.
		logger.Error("Error binding socket %s to session %s: %v", socketID, session.ID, err)
	}

	return nil
}

// Heartbeat freshens the liveness timestamp of the socket's session. On a
// registry miss (server restart, missed join_session) it falls back to
// today's active session by trainer ID and repopulates the binding. A
// heartbeat with no session to attach to is not an error, just untracked.
func (s *SessionService) Heartbeat(ctx context.Context, socketID, trainerID string) error {
	now := s.now().UTC()

	sessionID, ok, err := s.registry.Lookup(ctx, socketID)
	if err != nil {
		logger.Error("Error looking up socket %s in registry: %v", socketID, err)
	}
	if ok {
		return s.sessions.TouchSession(ctx, sessionID, now)
	}

	if trainerID == "" {
		return nil
	}

	session, err := s.sessions.FindActiveSession(ctx, trainerID, dayBucket(now))
	if errors.Is(err, database.ErrNoActiveSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("heartbeat fallback lookup failed for trainer %s: %w", trainerID, err)
	}

	if err := s.sessions.TouchSession(ctx, session.ID, now); err != nil {
		return err
	}
	return s.registry.Bind(ctx, socketID, session.ID)
}

// Disconnect drops the socket's registry binding. The session row stays
// active: a disconnect may be a transient refresh, and closing stale
// sessions belongs to the external sweeper.
func (s *SessionService) Disconnect(ctx context.Context, socketID string) {
	if err := s.registry.Unbind(ctx, socketID); err != nil {
		logger.Error("Error unbinding socket %s: %v", socketID, err)
	}
}

// dayBucket normalizes a timestamp to UTC midnight.
func dayBucket(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
