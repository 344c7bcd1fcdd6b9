package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yanqian/krishi-vaani/internal/domain/session"
	"github.com/yanqian/krishi-vaani/internal/infra/config"
)

// Purger drops expired entries from an in-process cache.
type Purger interface {
	Purge() int
}

// App encapsulates the HTTP server lifecycle and the housekeeping jobs.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	sessions session.Service
	purger   Purger
}

// NewApp is used by Wire to build the runnable app. purger may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, sessions session.Service, purger Purger) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		sessions: sessions,
		purger:   purger,
	}
}

// Run starts the HTTP server and the scheduler and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	scheduler, err := a.scheduler(ctx)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) scheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(a.cfg.Session.PruneSchedule, func() { a.housekeeping(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule housekeeping %q: %w", a.cfg.Session.PruneSchedule, err)
	}
	return c, nil
}

// housekeeping drops idle sessions and expired weather samples.
func (a *App) housekeeping(ctx context.Context) {
	pruned := a.sessions.Prune(ctx)
	purged := 0
	if a.purger != nil {
		purged = a.purger.Purge()
	}
	a.logger.Info("housekeeping finished", "sessions_pruned", pruned, "sessions_active", a.sessions.Len(), "weather_purged", purged)
}
