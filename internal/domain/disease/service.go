package disease

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

// Classifier is the image classification service.
type Classifier interface {
	Classify(ctx context.Context, img Image) (Classification, error)
}

// ImageArchive keeps a copy of every submitted image.
type ImageArchive interface {
	Put(ctx context.Context, key string, img Image) error
}

// Service exposes the diagnosis stages.
type Service interface {
	Validate(req Request, loc locale.Code) error
	Classify(ctx context.Context, req Request, loc locale.Code) (Assessment, error)
	Explain(ctx context.Context, req Request, a Assessment, loc locale.Code) (string, error)
	Failure(req Request, loc locale.Code) Assessment
}

type service struct {
	cfg        Config
	classifier Classifier
	archive    ImageArchive
	generator  textgen.Generator
	logger     *slog.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
}

// NewService wires the diagnosis domain. archive may be nil.
func NewService(cfg Config, classifier Classifier, archive ImageArchive, generator textgen.Generator, logger *slog.Logger) Service {
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "diagnoses"
	}
	return &service{
		cfg:        cfg,
		classifier: classifier,
		archive:    archive,
		generator:  generator,
		logger:     logger.With("component", "disease.service"),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func (s *service) Validate(req Request, loc locale.Code) error {
	if len(req.Image.Data) == 0 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, locale.T(loc, locale.KeyImageRequired), nil)
	}
	return nil
}

func (s *service) Classify(ctx context.Context, req Request, loc locale.Code) (Assessment, error) {
	started := s.now()
	defer s.holdUntil(ctx, started)

	classification, err := s.classifier.Classify(ctx, req.Image)
	if err != nil {
		return Assessment{}, apperrors.Wrap(apperrors.CodeUpstream, "image classification failed", err)
	}
	assessment := Assess(classification, req.AffectedPart, loc)
	assessment.ImageKey = s.archiveImage(ctx, req.Image)
	s.logger.Info("image classified",
		"disease", assessment.Disease,
		"confidence", assessment.Confidence,
		"severity", assessment.Severity,
	)
	return assessment, nil
}

func (s *service) Explain(ctx context.Context, req Request, a Assessment, loc locale.Code) (string, error) {
	summary, err := s.generator.Generate(ctx, textgen.Prompt{
		System: s.cfg.Prompt,
		User:   buildExplanationPrompt(a.Disease, req.Crop, req.Symptoms),
		Locale: loc,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "disease explanation failed", err)
	}
	return strings.TrimSpace(summary), nil
}

func (s *service) Failure(req Request, loc locale.Code) Assessment {
	return FailedAssessment(req.AffectedPart, loc)
}

func (s *service) archiveImage(ctx context.Context, img Image) string {
	if s.archive == nil {
		return ""
	}
	key := s.imageKey(img)
	if err := s.archive.Put(ctx, key, img); err != nil {
		s.logger.Warn("image archive failed", "key", key, "error", err)
		return ""
	}
	return key
}

func (s *service) imageKey(img Image) string {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join(s.cfg.ArchivePrefix, s.now().UTC().Format("2006/01/02"), uuid.NewString()+ext)
}

func (s *service) holdUntil(ctx context.Context, started time.Time) {
	if s.cfg.MinAnalyzeDuration <= 0 {
		return
	}
	if remaining := s.cfg.MinAnalyzeDuration - s.now().Sub(started); remaining > 0 {
		s.sleep(ctx, remaining)
	}
}

func buildExplanationPrompt(disease, crop, symptoms string) string {
	if strings.TrimSpace(crop) == "" {
		crop = "the crop"
	}
	if strings.TrimSpace(symptoms) == "" {
		symptoms = "the visible symptoms"
	}
	return fmt.Sprintf(
		"Summarize in 3-4 sentences: Explain what the disease %q is, its typical impact on %s, "+
			"and give a short actionable tip for a farmer without much technical knowledge based on %s.",
		disease, crop, symptoms,
	)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
