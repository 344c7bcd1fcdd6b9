package expert

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

// Expert is an agricultural advisor listed in the directory.
type Expert struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// Directory searches experts near a location.
type Directory interface {
	Nearby(ctx context.Context, location string, limit int) ([]Expert, error)
}

// Service resolves the expert shown to a farmer.
type Service interface {
	Nearest(ctx context.Context, location string, limit int) (Expert, error)
}

// Config tunes the expert lookup.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type service struct {
	cfg       Config
	directory Directory
	logger    *slog.Logger
}

// NewService wires the expert domain.
func NewService(cfg Config, directory Directory, logger *slog.Logger) Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 1
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 10
	}
	return &service{
		cfg:       cfg,
		directory: directory,
		logger:    logger.With("component", "expert.service"),
	}
}

// Nearest returns the first record the directory lists for location.
func (s *service) Nearest(ctx context.Context, location string, limit int) (Expert, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Expert{}, apperrors.Wrap(apperrors.CodeInvalidInput, "location is required", nil)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	experts, err := s.directory.Nearby(ctx, location, limit)
	if err != nil {
		return Expert{}, apperrors.Wrap(apperrors.CodeUpstream, "expert lookup failed", err)
	}
	if len(experts) == 0 {
		return Expert{}, apperrors.Wrap(apperrors.CodeNotFound, "no expert found near "+location, nil)
	}
	s.logger.Info("expert resolved", "location", location, "candidates", len(experts))
	return experts[0], nil
}
