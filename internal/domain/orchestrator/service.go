package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/disease"
	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/flow"
	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/recommendation"
	"github.com/yanqian/krishi-vaani/internal/domain/session"
)

// Config tunes flow orchestration.
type Config struct {
	ExplainTimeout time.Duration
}

// EnvironmentView is the environmental context as rendered for a session.
type EnvironmentView struct {
	environment.Context
	LocalityLabel string `json:"localityLabel"`
}

// Service drives the submit flows of a session.
type Service interface {
	Environment(ctx context.Context, sess *session.Session, at *environment.Coordinates) EnvironmentView
	SubmitRecommendation(ctx context.Context, sess *session.Session, req recommendation.Request) (flow.Snapshot[recommendation.Result], error)
	SubmitDiagnosis(ctx context.Context, sess *session.Session, req disease.Request) (flow.Snapshot[disease.Assessment], error)
}

type service struct {
	cfg            Config
	env            environment.Service
	recommendation recommendation.Service
	disease        disease.Service
	logger         *slog.Logger
}

// NewService wires the orchestrator.
func NewService(cfg Config, env environment.Service, rec recommendation.Service, dis disease.Service, logger *slog.Logger) Service {
	return &service{
		cfg:            cfg,
		env:            env,
		recommendation: rec,
		disease:        dis,
		logger:         logger.With("component", "orchestrator.service"),
	}
}

// Environment acquires the session's context on first use. Later calls
// return the stored context, even when the first attempt found nothing.
func (s *service) Environment(ctx context.Context, sess *session.Session, at *environment.Coordinates) EnvironmentView {
	env := sess.Environment(ctx, func(ctx context.Context) environment.Context {
		return s.env.Acquire(ctx, environment.FixedLocator{At: at})
	})
	return s.view(env, sess.Locale())
}

// SubmitRecommendation validates the form, seeded with the session's
// environmental context, and runs it through the recommendation tracker. An
// invalid form is rejected without touching the tracker.
func (s *service) SubmitRecommendation(ctx context.Context, sess *session.Session, req recommendation.Request) (flow.Snapshot[recommendation.Result], error) {
	loc := sess.Locale()
	if env, ok := sess.CurrentEnvironment(); ok {
		req = req.Seed(env)
	}
	features, err := s.recommendation.Validate(req, loc)
	if err != nil {
		return flow.Snapshot[recommendation.Result]{}, err
	}

	snap := flow.Run(ctx, sess.Recommendations, s.options(sess), features,
		s.recommendation.Predict,
		func(error) recommendation.Result { return s.recommendation.Failure(loc) },
		func(ctx context.Context, f recommendation.Features, res recommendation.Result) (string, error) {
			return s.recommendation.Explain(ctx, f, res, loc)
		},
	)
	return snap, nil
}

// SubmitDiagnosis classifies an image through the diagnosis tracker.
func (s *service) SubmitDiagnosis(ctx context.Context, sess *session.Session, req disease.Request) (flow.Snapshot[disease.Assessment], error) {
	loc := sess.Locale()
	if err := s.disease.Validate(req, loc); err != nil {
		return flow.Snapshot[disease.Assessment]{}, err
	}

	snap := flow.Run(ctx, sess.Diagnoses, s.options(sess), req,
		func(ctx context.Context, req disease.Request) (disease.Assessment, error) {
			return s.disease.Classify(ctx, req, loc)
		},
		func(error) disease.Assessment { return s.disease.Failure(req, loc) },
		func(ctx context.Context, req disease.Request, a disease.Assessment) (string, error) {
			return s.disease.Explain(ctx, req, a, loc)
		},
	)
	return snap, nil
}

func (s *service) options(sess *session.Session) flow.Options {
	return flow.Options{
		Logger:         s.logger.With("session", sess.ID),
		ExplainTimeout: s.cfg.ExplainTimeout,
	}
}

func (s *service) view(env environment.Context, loc locale.Code) EnvironmentView {
	label := env.Locality
	if label == "" || label == environment.UnknownLocality {
		label = locale.T(loc, locale.KeyLocalityUnknown)
	}
	return EnvironmentView{Context: env, LocalityLabel: label}
}
