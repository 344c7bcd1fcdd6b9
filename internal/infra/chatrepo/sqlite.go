package chatrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_id TEXT NOT NULL UNIQUE,
    thread_id TEXT NOT NULL,
    session_id TEXT NOT NULL DEFAULT '',
    message_type TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_thread_id ON conversations(thread_id);
`

const sqliteSessionIndex = `CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations(session_id, thread_id);`

// SQLiteRepository persists conversations in SQLite. The caller opens db
// with the modernc.org/sqlite driver.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates the conversations table and adds the owning session
// column to databases created before threads were scoped.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate conversations: %w", err)
	}
	var scoped int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('conversations') WHERE name = 'session_id'`).Scan(&scoped); err != nil {
		return fmt.Errorf("inspect conversations: %w", err)
	}
	if scoped == 0 {
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE conversations ADD COLUMN session_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add conversations.session_id: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, sqliteSessionIndex); err != nil {
		return fmt.Errorf("index conversations.session_id: %w", err)
	}
	return nil
}

// Append refuses to add to a thread that another session already owns.
func (r *SQLiteRepository) Append(ctx context.Context, msg chat.Message) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (message_id, thread_id, session_id, message_type, content, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM conversations WHERE thread_id = ? AND session_id <> ?
		)
	`, msg.ID, msg.ThreadID, msg.Owner, string(msg.Role), msg.Content, msg.Timestamp.UnixMicro(), msg.ThreadID, msg.Owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errForeignThread
	}
	return nil
}

func (r *SQLiteRepository) History(ctx context.Context, owner, threadID string) ([]chat.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, thread_id, session_id, message_type, content, created_at
		FROM conversations
		WHERE thread_id = ? AND session_id = ?
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
			ts   int64
		)
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Owner, &role, &msg.Content, &ts); err != nil {
			return nil, err
		}
		msg.Role = chat.Role(role)
		msg.Timestamp = time.UnixMicro(ts).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Threads(ctx context.Context, owner string) ([]chat.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT thread_id, MAX(created_at), COUNT(*)
		FROM conversations
		WHERE session_id = ?
		GROUP BY thread_id
		ORDER BY MAX(created_at) DESC, thread_id ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Thread
	for rows.Next() {
		var (
			thread chat.Thread
			last   int64
		)
		if err := rows.Scan(&thread.ID, &last, &thread.MessageCount); err != nil {
			return nil, err
		}
		thread.LastActivity = time.UnixMicro(last).UTC()
		out = append(out, thread)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, owner, threadID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE thread_id = ? AND session_id = ?`, threadID, owner)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ chat.Repository = (*SQLiteRepository)(nil)
