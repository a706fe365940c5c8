package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation records in PostgreSQL, one row per
// conversation with personas and messages stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			personas JSONB NOT NULL,
			messages JSONB NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Conversation, error) {
	var (
		conv         Conversation
		personasJSON []byte
		messagesJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, personas, messages, summary FROM conversations WHERE id=$1`,
		id,
	).Scan(&conv.ID, &personasJSON, &messagesJSON, &conv.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("query conversation: %w", err)
	}

	if err := json.Unmarshal(personasJSON, &conv.Personas); err != nil {
		return Conversation{}, fmt.Errorf("decode personas: %w", err)
	}
	if err := json.Unmarshal(messagesJSON, &conv.Messages); err != nil {
		return Conversation{}, fmt.Errorf("decode messages: %w", err)
	}
	return conv, nil
}

func (s *PostgresStore) Put(ctx context.Context, conv Conversation) error {
	personasJSON, err := json.Marshal(conv.Personas)
	if err != nil {
		return fmt.Errorf("encode personas: %w", err)
	}
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversations (id, personas, messages, summary)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			personas=EXCLUDED.personas,
			messages=EXCLUDED.messages,
			summary=EXCLUDED.summary,
			updated_at=now()`,
		conv.ID,
		personasJSON,
		messagesJSON,
		conv.Summary,
	)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM conversations ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversation ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
