package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/session"
	"github.com/yanqian/krishi-vaani/internal/infra/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPurger struct{ calls int }

func (p *countingPurger) Purge() int {
	p.calls++
	return 2
}

func TestHousekeepingPrunesAndPurges(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewService(session.Config{Secret: "bootstrap-secret-0123", IdleTTL: time.Nanosecond}, logger)
	_, err := sessions.Start(context.Background(), locale.English)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	purger := &countingPurger{}
	app := NewApp(&config.Config{Session: config.SessionConfig{PruneSchedule: "@every 1m"}}, logger, nil, sessions, purger)
	app.housekeeping(context.Background())

	require.Zero(t, sessions.Len())
	require.Equal(t, 1, purger.calls)
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewService(session.Config{Secret: "bootstrap-secret-0123"}, logger)
	app := NewApp(&config.Config{Session: config.SessionConfig{PruneSchedule: "every now and then"}}, logger, nil, sessions, nil)

	_, err := app.scheduler(context.Background())
	require.Error(t, err)

	app.cfg.Session.PruneSchedule = "@every 10m"
	scheduler, err := app.scheduler(context.Background())
	require.NoError(t, err)
	require.Len(t, scheduler.Entries(), 1)
}
