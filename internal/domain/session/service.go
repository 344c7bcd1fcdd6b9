package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

// Config holds session lifetimes and the token signing secret.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	IdleTTL  time.Duration
}

// Started is returned to the client when a session begins.
type Started struct {
	Token     string      `json:"token"`
	SessionID string      `json:"sessionId"`
	Locale    locale.Code `json:"locale"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Service creates, resolves and expires sessions. Sessions live in memory only.
type Service interface {
	Start(ctx context.Context, loc locale.Code) (Started, error)
	Resolve(ctx context.Context, token string) (*Session, error)
	Prune(ctx context.Context) int
	Len() int
}

type service struct {
	cfg    Config
	codec  tokenCodec
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService wires the session registry.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	s := &service{
		cfg:      cfg,
		logger:   logger.With("component", "session.service"),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	s.codec = tokenCodec{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, now: func() time.Time { return s.now() }}
	return s
}

func (s *service) Start(ctx context.Context, loc locale.Code) (Started, error) {
	now := s.now()
	sess := newSession(uuid.NewString(), loc, now)
	token, expires, err := s.codec.issue(sess.ID, string(loc))
	if err != nil {
		return Started{}, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))

	s.logger.Info("session started", "session", sess.ID, "locale", loc)
	return Started{Token: token, SessionID: sess.ID, Locale: loc, ExpiresAt: expires}, nil
}

func (s *service) Resolve(ctx context.Context, token string) (*Session, error) {
	id, err := s.codec.parse(token)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeInvalidToken, "session expired", nil)
	}
	sess.Touch(s.now())
	return sess, nil
}

// Prune drops sessions idle for longer than IdleTTL.
func (s *service) Prune(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))

	if removed > 0 {
		s.logger.Info("idle sessions pruned", "removed", removed, "active", count)
	}
	return removed
}

func (s *service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
