package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms-realtime/internal/models"
	"lms-realtime/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newID() string {
	return uuid.NewString()
}

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// Message Repository Implementation
func (db *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, batch_id, sender_id, sender_model, sender_name, content, type, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`

	_, err := db.pool.Exec(ctx, query,
		msg.ID, msg.BatchID, msg.SenderID, msg.SenderModel, msg.SenderName,
		msg.Content, msg.Type, msg.FileURL, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

func (db *PostgresDB) LoadRecentMessages(ctx context.Context, batchID string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, batch_id, sender_id, sender_model, sender_name, content, type, COALESCE(file_url, ''), created_at
		FROM messages
		WHERE batch_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, batchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.BatchID, &msg.SenderID, &msg.SenderModel,
			&msg.SenderName, &msg.Content, &msg.Type, &msg.FileURL, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to show oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// Session Repository Implementation
//
// The partial unique index on (trainer_id, session_date) WHERE status =
// 'active' makes the upsert atomic: two concurrent joins for the same
// trainer and day can never produce two active rows.
func (db *PostgresDB) FindOrCreateActiveSession(ctx context.Context, trainerID string, day, now time.Time, ip, device string) (*models.TrainerSession, error) {
	query := `
		INSERT INTO trainer_sessions (id, trainer_id, session_date, start_time, last_active_at, status, ip_address, device)
		VALUES ($1, $2, $3, $4, $4, 'active', $5, $6)
		ON CONFLICT (trainer_id, session_date) WHERE status = 'active'
		DO UPDATE SET last_active_at = EXCLUDED.last_active_at
		RETURNING id, trainer_id, session_date, start_time, last_active_at, status, ip_address, device`

	session := &models.TrainerSession{}
	err := db.pool.QueryRow(ctx, query, newID(), trainerID, day, now, ip, device).Scan(
		&session.ID, &session.TrainerID, &session.Date, &session.StartTime,
		&session.LastActiveAt, &session.Status, &session.IPAddress, &session.Device,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert trainer session: %w", err)
	}

	return session, nil
}

func (db *PostgresDB) FindActiveSession(ctx context.Context, trainerID string, day time.Time) (*models.TrainerSession, error) {
	query := `
		SELECT id, trainer_id, session_date, start_time, last_active_at, status, ip_address, device
		FROM trainer_sessions
		WHERE trainer_id = $1 AND session_date = $2 AND status = 'active'`

	session := &models.TrainerSession{}
	err := db.pool.QueryRow(ctx, query, trainerID, day).Scan(
		&session.ID, &session.TrainerID, &session.Date, &session.StartTime,
		&session.LastActiveAt, &session.Status, &session.IPAddress, &session.Device,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (db *PostgresDB) TouchSession(ctx context.Context, sessionID string, now time.Time) error {
	query := `UPDATE trainer_sessions SET last_active_at = $2 WHERE id = $1 AND status = 'active'`
	_, err := db.pool.Exec(ctx, query, sessionID, now)
	return err
}

// Enrollment Repository Implementation
func (db *PostgresDB) ListStudentBatchIDs(ctx context.Context, studentID string) ([]string, error) {
	query := `SELECT batch_id FROM batch_students WHERE student_id = $1`

	rows, err := db.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batchIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		batchIDs = append(batchIDs, id)
	}

	return batchIDs, rows.Err()
}
