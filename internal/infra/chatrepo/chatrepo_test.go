package chatrepo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
)

const (
	alice = "session-alice"
	bob   = "session-bob"
)

func TestRepositories(t *testing.T) {
	for name, newRepo := range map[string]func(t *testing.T) chat.Repository{
		"memory": func(t *testing.T) chat.Repository { return NewMemoryRepository() },
		"sqlite": newSQLiteRepo,
	} {
		t.Run(name, func(t *testing.T) {
			exerciseRepository(t, newRepo(t))
		})
		t.Run(name+"_ownership", func(t *testing.T) {
			exerciseOwnership(t, newRepo(t))
		})
	}
}

func exerciseRepository(t *testing.T, repo chat.Repository) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, message("m1", "t1", alice, chat.RoleAssistant, "Hello!", base)))
	require.NoError(t, repo.Append(ctx, message("m2", "t1", alice, chat.RoleUser, "When to sow?", base.Add(time.Minute))))
	require.NoError(t, repo.Append(ctx, message("m3", "t1", alice, chat.RoleAssistant, "After rains.", base.Add(2*time.Minute))))
	require.NoError(t, repo.Append(ctx, message("m4", "t2", alice, chat.RoleAssistant, "Hello!", base.Add(5*time.Minute))))

	history, err := repo.History(ctx, alice, "t1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, []string{"m1", "m2", "m3"}, []string{history[0].ID, history[1].ID, history[2].ID})
	require.Equal(t, chat.RoleUser, history[1].Role)
	require.Equal(t, alice, history[1].Owner)
	require.True(t, history[1].Timestamp.Equal(base.Add(time.Minute)))

	threads, err := repo.Threads(ctx, alice)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	require.Equal(t, "t2", threads[0].ID)
	require.Equal(t, "t1", threads[1].ID)
	require.Equal(t, 3, threads[1].MessageCount)
	require.True(t, threads[1].LastActivity.Equal(base.Add(2*time.Minute)))

	n, err := repo.Delete(ctx, alice, "t1")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	history, err = repo.History(ctx, alice, "t1")
	require.NoError(t, err)
	require.Empty(t, history)

	n, err = repo.Delete(ctx, alice, "t1")
	require.NoError(t, err)
	require.Zero(t, n)
}

func exerciseOwnership(t *testing.T, repo chat.Repository) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, message("m1", "t1", alice, chat.RoleAssistant, "Hello!", base)))
	require.NoError(t, repo.Append(ctx, message("m2", "t2", bob, chat.RoleAssistant, "Hello!", base)))
	require.ErrorIs(t, repo.Append(ctx, message("m3", "t1", bob, chat.RoleUser, "hijack", base.Add(time.Minute))), errForeignThread)

	history, err := repo.History(ctx, bob, "t1")
	require.NoError(t, err)
	require.Empty(t, history)

	threads, err := repo.Threads(ctx, bob)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.Equal(t, "t2", threads[0].ID)

	n, err := repo.Delete(ctx, bob, "t1")
	require.NoError(t, err)
	require.Zero(t, n)

	history, err = repo.History(ctx, alice, "t1")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestSQLiteMigrateAddsSessionColumn(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `
		CREATE TABLE conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			thread_id TEXT NOT NULL,
			message_type TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`)
	require.NoError(t, err)

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Append(ctx, message("m1", "t1", alice, chat.RoleAssistant, "Hello!", time.Now())))

	threads, err := repo.Threads(ctx, alice)
	require.NoError(t, err)
	require.Len(t, threads, 1)
}

func newSQLiteRepo(t *testing.T) chat.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func message(id, thread, owner string, role chat.Role, content string, ts time.Time) chat.Message {
	return chat.Message{ID: id, ThreadID: thread, Owner: owner, Role: role, Content: content, Timestamp: ts}
}
