package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

// Predictor is the crop prediction service.
type Predictor interface {
	RecommendCrop(ctx context.Context, features Features) (string, error)
}

// Service exposes the crop recommendation stages.
type Service interface {
	Validate(req Request, loc locale.Code) (Features, error)
	Predict(ctx context.Context, features Features) (Result, error)
	Explain(ctx context.Context, features Features, res Result, loc locale.Code) (string, error)
	Failure(loc locale.Code) Result
}

type service struct {
	cfg       Config
	predictor Predictor
	generator textgen.Generator
	logger    *slog.Logger
}

// NewService wires the recommendation domain.
func NewService(cfg Config, predictor Predictor, generator textgen.Generator, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		predictor: predictor,
		generator: generator,
		logger:    logger.With("component", "recommendation.service"),
	}
}

// Validate rejects an incomplete form before any network call is made.
func (s *service) Validate(req Request, loc locale.Code) (Features, error) {
	if missing := req.MissingField(); missing != "" {
		return Features{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf(locale.T(loc, locale.KeyFillField), missing), nil)
	}
	return req.Features(), nil
}

func (s *service) Predict(ctx context.Context, features Features) (Result, error) {
	crop, err := s.predictor.RecommendCrop(ctx, features)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeUpstream, "crop prediction failed", err)
	}
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return Result{}, apperrors.Wrap(apperrors.CodeUpstream, "crop prediction returned no crop", nil)
	}
	s.logger.Info("crop recommended", "crop", crop)
	return Result{Crop: crop, Features: &features}, nil
}

func (s *service) Explain(ctx context.Context, features Features, res Result, loc locale.Code) (string, error) {
	summary, err := s.generator.Generate(ctx, textgen.Prompt{
		System: s.cfg.Prompt,
		User:   buildExplanationPrompt(res.Crop, features),
		Locale: loc,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "crop explanation failed", err)
	}
	return strings.TrimSpace(summary), nil
}

func (s *service) Failure(loc locale.Code) Result {
	return Result{Message: locale.T(loc, locale.KeyRecommendationFailed)}
}

func buildExplanationPrompt(crop string, f Features) string {
	return fmt.Sprintf(
		"Explain why %q is the best crop choice based on these soil and weather conditions: "+
			"N=%s, P=%s, K=%s, temperature=%s°C, humidity=%s%%, ph=%s, rainfall=%smm. "+
			"Explain in simple terms for a farmer why this recommendation makes sense and make the answer short 100-150 words.",
		crop, num(f.N), num(f.P), num(f.K), num(f.Temperature), num(f.Humidity), num(f.PH), num(f.Rainfall),
	)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
