package session

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/flow"
	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
)

// Session holds the state of one visit: the chosen language, the
// environmental context and one tracker per submit flow.
type Session struct {
	ID        string
	CreatedAt time.Time

	Recommendations *flow.Tracker[recommendation.Result]
	Diagnoses       *flow.Tracker[disease.Assessment]

	mu       sync.Mutex
	locale   locale.Code
	lastSeen time.Time

	envOnce  sync.Once
	envReady chan struct{}
	env      environment.Context
}

func newSession(id string, loc locale.Code, now time.Time) *Session {
	return &Session{
		ID:              id,
		CreatedAt:       now,
		Recommendations: flow.NewTracker[recommendation.Result]("recommendation"),
		Diagnoses:       flow.NewTracker[disease.Assessment]("diagnosis"),
		locale:          loc,
		lastSeen:        now,
		envReady:        make(chan struct{}),
	}
}

// Locale returns the active language.
func (s *Session) Locale() locale.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLocale switches language. Results already rendered keep their text.
func (s *Session) SetLocale(c locale.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = c
}

// ToggleLocale flips between English and Malayalam and returns the new code.
func (s *Session) ToggleLocale() locale.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale.Toggle(s.locale)
	return s.locale
}

// Touch records activity.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
}

// LastSeen returns the time of the latest activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Environment runs acquire the first time it is called and returns the
// stored context on every later call. Concurrent callers wait for the first.
func (s *Session) Environment(ctx context.Context, acquire func(context.Context) environment.Context) environment.Context {
	s.envOnce.Do(func() {
		s.env = acquire(ctx)
		close(s.envReady)
	})
	return s.env
}

// CurrentEnvironment returns the acquired context, or the all-"N/A" context
// and false when acquisition has not finished.
func (s *Session) CurrentEnvironment() (environment.Context, bool) {
	select {
	case <-s.envReady:
		return s.env, true
	default:
		return environment.Unavailable(), false
	}
}

// Wait blocks until background explanation stages of both flows finish.
func (s *Session) Wait() {
	s.Recommendations.Wait()
	s.Diagnoses.Wait()
}
