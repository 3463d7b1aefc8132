// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"message-board/internal/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id   TEXT PRIMARY KEY,
		text TEXT NOT NULL
	)`

type PostgresStore struct {
	DB  *sql.DB
	log *slog.Logger
}

func NewPostgresStore(dsn string, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &PostgresStore{DB: db, log: log}, nil
}

// Migrate creates the messages table if it does not exist yet
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, text FROM messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return scanMessages(rows)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) ([]model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, text FROM messages WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return scanMessages(rows)
}

// Save inserts the message, or replaces the text of the row sharing its id
func (s *PostgresStore) Save(ctx context.Context, m model.Message) error {
	query := `
		INSERT INTO messages (id, text)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text
	`
	if _, err := s.DB.ExecContext(ctx, query, m.ID, m.Text); err != nil {
		return fmt.Errorf("failed to save message %s: %w", m.ID, err)
	}
	s.log.Debug("Message saved", "id", m.ID)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Text); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}
	return messages, nil
}

var _ Store = (*PostgresStore)(nil)
