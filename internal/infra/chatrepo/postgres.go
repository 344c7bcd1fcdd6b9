package chatrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id BIGSERIAL PRIMARY KEY,
    message_id UUID NOT NULL UNIQUE,
    thread_id UUID NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
ALTER TABLE chat_messages ADD COLUMN IF NOT EXISTS session_id TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_chat_messages_thread_id ON chat_messages(thread_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session_id ON chat_messages(session_id, thread_id);
`

// PostgresRepository persists conversations in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the chat_messages table.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate chat_messages: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, msg chat.Message) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages (message_id, thread_id, session_id, role, content, created_at)
		SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM chat_messages WHERE thread_id = $2::uuid AND session_id <> $3::text
		)
	`, msg.ID, msg.ThreadID, msg.Owner, string(msg.Role), msg.Content, msg.Timestamp)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errForeignThread
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, owner, threadID string) ([]chat.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_id::text, thread_id::text, session_id, role, content, created_at
		FROM chat_messages
		WHERE thread_id::text = $1 AND session_id = $2
		ORDER BY id ASC
	`, threadID, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var (
			msg  chat.Message
			role string
		)
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Owner, &role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Role = chat.Role(role)
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Threads(ctx context.Context, owner string) ([]chat.Thread, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT thread_id::text, MAX(created_at), COUNT(*)
		FROM chat_messages
		WHERE session_id = $1
		GROUP BY thread_id
		ORDER BY MAX(created_at) DESC, thread_id ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Thread
	for rows.Next() {
		var thread chat.Thread
		if err := rows.Scan(&thread.ID, &thread.LastActivity, &thread.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, thread)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, threadID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE thread_id::text = $1 AND session_id = $2`, threadID, owner)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

var _ chat.Repository = (*PostgresRepository)(nil)
