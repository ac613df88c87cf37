package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lms-realtime/internal/database"
	"lms-realtime/internal/models"
	"lms-realtime/internal/registry"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []*models.TrainerSession
	nextID   int
	failAll  bool
}

func (f *fakeSessionRepo) FindOrCreateActiveSession(ctx context.Context, trainerID string, day, now time.Time, ip, device string) (*models.TrainerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return nil, errors.New("database down")
	}

	for _, s := range f.sessions {
		if s.TrainerID == trainerID && s.Date.Equal(day) && s.Status == models.SessionActive {
			s.LastActiveAt = now
			copy := *s
			return &copy, nil
		}
	}

	f.nextID++
	s := &models.TrainerSession{
		ID:           fmt.Sprintf("sess-%d", f.nextID),
		TrainerID:    trainerID,
		Date:         day,
		StartTime:    now,
		LastActiveAt: now,
		Status:       models.SessionActive,
		IPAddress:    ip,
		Device:       device,
	}
	f.sessions = append(f.sessions, s)
	copy := *s
	return &copy, nil
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, trainerID string, day time.Time) (*models.TrainerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return nil, errors.New("database down")
	}

	for _, s := range f.sessions {
		if s.TrainerID == trainerID && s.Date.Equal(day) && s.Status == models.SessionActive {
			copy := *s
			return &copy, nil
		}
	}
	return nil, database.ErrNoActiveSession
}

func (f *fakeSessionRepo) TouchSession(ctx context.Context, sessionID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll {
		return errors.New("database down")
	}

	for _, s := range f.sessions {
		if s.ID == sessionID && s.Status == models.SessionActive {
			s.LastActiveAt = now
		}
	}
	return nil
}

func (f *fakeSessionRepo) activeCount(trainerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, s := range f.sessions {
		if s.TrainerID == trainerID && s.Status == models.SessionActive {
			n++
		}
	}
	return n
}

func (f *fakeSessionRepo) byID(id string) *models.TrainerSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.ID == id {
			copy := *s
			return &copy
		}
	}
	return nil
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 9, hour, minute, 0, 0, time.UTC)
}

func newSessionFixture(repo *fakeSessionRepo) (*SessionService, *registry.Memory) {
	reg := registry.NewMemory()
	svc := NewSessionService(repo, reg)
	return svc, reg
}

func TestJoinSessionIsIdempotentPerDay(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, reg := newSessionFixture(repo)

	svc.now = func() time.Time { return at(9, 0) }
	if err := svc.JoinSession(context.Background(), "sock-1", "trainer-1", "10.0.0.1", "Firefox"); err != nil {
		t.Fatalf("first join: %v", err)
	}

	svc.now = func() time.Time { return at(9, 13) }
	if err := svc.JoinSession(context.Background(), "sock-2", "trainer-1", "10.0.0.2", "Chrome"); err != nil {
		t.Fatalf("second join: %v", err)
	}

	if got := repo.activeCount("trainer-1"); got != 1 {
		t.Fatalf("expected 1 active session, got %d", got)
	}

	session := repo.byID("sess-1")
	if session == nil {
		t.Fatal("session not found")
	}
	if !session.StartTime.Equal(at(9, 0)) {
		t.Errorf("startTime changed on resume: %v", session.StartTime)
	}
	if !session.LastActiveAt.Equal(at(9, 13)) {
		t.Errorf("lastActiveAt not advanced: %v", session.LastActiveAt)
	}
	if session.IPAddress != "10.0.0.1" {
		t.Errorf("resume overwrote handshake metadata: %q", session.IPAddress)
	}

	// Both sockets map to the same session.
	for _, socketID := range []string{"sock-1", "sock-2"} {
		sessionID, ok, _ := reg.Lookup(context.Background(), socketID)
		if !ok || sessionID != "sess-1" {
			t.Errorf("socket %s bound to %q, want sess-1", socketID, sessionID)
		}
	}
}

func TestJoinSessionSurfacesDatabaseErrors(t *testing.T) {
	repo := &fakeSessionRepo{failAll: true}
	svc, reg := newSessionFixture(repo)

	if err := svc.JoinSession(context.Background(), "sock-1", "trainer-1", "", ""); err == nil {
		t.Fatal("expected error when database is down")
	}
	if _, ok, _ := reg.Lookup(context.Background(), "sock-1"); ok {
		t.Error("socket must not be bound after a failed join")
	}
}

func TestHeartbeatUsesRegistryBinding(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, _ := newSessionFixture(repo)

	svc.now = func() time.Time { return at(9, 0) }
	if err := svc.JoinSession(context.Background(), "sock-1", "trainer-1", "", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	svc.now = func() time.Time { return at(9, 5) }
	if err := svc.Heartbeat(context.Background(), "sock-1", "trainer-1"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	session := repo.byID("sess-1")
	if !session.LastActiveAt.Equal(at(9, 5)) {
		t.Errorf("lastActiveAt = %v, want 09:05", session.LastActiveAt)
	}
}

func TestHeartbeatFallbackRepopulatesRegistry(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, reg := newSessionFixture(repo)

	svc.now = func() time.Time { return at(9, 0) }
	if err := svc.JoinSession(context.Background(), "sock-1", "trainer-1", "", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Simulate a restart: the binding is gone but the session row remains.
	if err := reg.Unbind(context.Background(), "sock-1"); err != nil {
		t.Fatalf("unbind: %v", err)
	}

	svc.now = func() time.Time { return at(9, 10) }
	if err := svc.Heartbeat(context.Background(), "sock-1", "trainer-1"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	session := repo.byID("sess-1")
	if !session.LastActiveAt.Equal(at(9, 10)) {
		t.Errorf("fallback did not touch the session: %v", session.LastActiveAt)
	}
	sessionID, ok, _ := reg.Lookup(context.Background(), "sock-1")
	if !ok || sessionID != "sess-1" {
		t.Errorf("fallback did not repopulate the binding, got %q", sessionID)
	}
	if got := repo.activeCount("trainer-1"); got != 1 {
		t.Errorf("fallback created a duplicate session, count = %d", got)
	}
}

func TestHeartbeatWithoutSessionIsUntracked(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, reg := newSessionFixture(repo)

	if err := svc.Heartbeat(context.Background(), "sock-1", "trainer-1"); err != nil {
		t.Fatalf("heartbeat with no session must be a silent no-op, got %v", err)
	}
	if _, ok, _ := reg.Lookup(context.Background(), "sock-1"); ok {
		t.Error("no binding should exist")
	}
}

func TestDisconnectKeepsSessionActive(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, reg := newSessionFixture(repo)

	svc.now = func() time.Time { return at(9, 0) }
	if err := svc.JoinSession(context.Background(), "sock-1", "trainer-1", "", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	svc.Disconnect(context.Background(), "sock-1")

	if _, ok, _ := reg.Lookup(context.Background(), "sock-1"); ok {
		t.Error("binding must be removed on disconnect")
	}
	if got := repo.activeCount("trainer-1"); got != 1 {
		t.Errorf("disconnect must not close the session, active count = %d", got)
	}
}

// Full day scenario: join at 09:00, heartbeats, disconnect at 09:12,
// rejoin at 09:13 reuses the same row.
func TestTrainerDayScenario(t *testing.T) {
	repo := &fakeSessionRepo{}
	svc, _ := newSessionFixture(repo)

	ctx := context.Background()

	svc.now = func() time.Time { return at(9, 0) }
	if err := svc.JoinSession(ctx, "sock-1", "trainer-1", "10.0.0.1", "Firefox"); err != nil {
		t.Fatalf("join: %v", err)
	}

	for _, minute := range []int{5, 10} {
		svc.now = func() time.Time { return at(9, minute) }
		if err := svc.Heartbeat(ctx, "sock-1", "trainer-1"); err != nil {
			t.Fatalf("heartbeat at 09:%02d: %v", minute, err)
		}
	}

	svc.now = func() time.Time { return at(9, 12) }
	svc.Disconnect(ctx, "sock-1")

	svc.now = func() time.Time { return at(9, 13) }
	if err := svc.JoinSession(ctx, "sock-2", "trainer-1", "10.0.0.1", "Firefox"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	if got := repo.activeCount("trainer-1"); got != 1 {
		t.Fatalf("expected a single session for the day, got %d", got)
	}
	session := repo.byID("sess-1")
	if !session.StartTime.Equal(at(9, 0)) {
		t.Errorf("startTime = %v, want 09:00", session.StartTime)
	}
	if !session.LastActiveAt.Equal(at(9, 13)) {
		t.Errorf("lastActiveAt = %v, want 09:13", session.LastActiveAt)
	}
}

func TestDayBucketNormalizesToMidnightUTC(t *testing.T) {
	in := time.Date(2026, time.March, 9, 23, 45, 12, 999, time.UTC)
	got := dayBucket(in)
	want := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dayBucket(%v) = %v, want %v", in, got, want)
	}
}
