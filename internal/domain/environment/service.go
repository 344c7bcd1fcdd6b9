package environment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yanqian/krishi-vaani/pkg/util"
)

// Locator is the device location capability.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// WeatherClient fetches an hourly forecast for a position.
type WeatherClient interface {
	Hourly(ctx context.Context, at Coordinates) (Series, error)
}

// Geocoder resolves a position to an address.
type Geocoder interface {
	Reverse(ctx context.Context, at Coordinates) (Address, error)
}

// Cache stores recent weather samples keyed by rounded coordinates.
type Cache interface {
	Get(ctx context.Context, key string) (Sample, bool, error)
	Set(ctx context.Context, key string, sample Sample, ttl time.Duration) error
}

// Service acquires environmental context.
type Service interface {
	Acquire(ctx context.Context, locator Locator) Context
	Locality(ctx context.Context, at Coordinates) string
}

type service struct {
	cfg      Config
	weather  WeatherClient
	geocoder Geocoder
	cache    Cache
	group    singleflight.Group
	logger   *slog.Logger
}

// NewService wires the environment domain.
func NewService(cfg Config, weather WeatherClient, geocoder Geocoder, cache Cache, logger *slog.Logger) Service {
	if cfg.CoordinatePrecision <= 0 {
		cfg.CoordinatePrecision = 2
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	return &service{
		cfg:      cfg,
		weather:  weather,
		geocoder: geocoder,
		cache:    cache,
		logger:   logger.With("component", "environment.service"),
	}
}

// Acquire never fails: any missing capability or upstream error leaves the
// affected fields at "N/A".
func (s *service) Acquire(ctx context.Context, locator Locator) Context {
	out := Unavailable()
	if locator == nil {
		s.logger.Info("location capability absent")
		return out
	}
	at, err := locator.Locate(ctx)
	if err != nil {
		s.logger.Info("location unavailable", "error", err)
		return out
	}
	out.Coordinates = &at

	var sample Sample
	var weatherErr error
	locality := UnknownLocality
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sample, weatherErr = s.latestSample(gctx, at)
		return nil
	})
	g.Go(func() error {
		locality = s.Locality(gctx, at)
		return nil
	})
	_ = g.Wait()

	out.Locality = locality
	if weatherErr != nil {
		s.logger.Warn("weather fetch failed", "lat", at.Latitude, "lon", at.Longitude, "error", weatherErr)
		return out
	}
	out.Temperature = Value(sample.Temperature)
	out.Humidity = Value(sample.Humidity)
	out.WindSpeed = Value(sample.WindSpeed)
	out.Rainfall = Value(sample.Rainfall)
	if ts, err := time.Parse("2006-01-02T15:04", sample.Time); err == nil {
		out.ObservedAt = &ts
	}
	return out
}

func (s *service) Locality(ctx context.Context, at Coordinates) string {
	if s.geocoder == nil {
		return UnknownLocality
	}
	addr, err := s.geocoder.Reverse(ctx, at)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", "lat", at.Latitude, "lon", at.Longitude, "error", err)
		return UnknownLocality
	}
	return addr.Locality()
}

func (s *service) latestSample(ctx context.Context, at Coordinates) (Sample, error) {
	key := s.cacheKey(at)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("weather cache read failed", "key", key, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	// The fetch is shared by every caller for key, so it runs on a context
	// detached from whichever caller started it.
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()
		series, err := s.weather.Hourly(fetchCtx, at)
		if err != nil {
			return Sample{}, err
		}
		sample, err := series.Latest()
		if err != nil {
			return Sample{}, err
		}
		if s.cache != nil && s.cfg.CacheTTL > 0 {
			if err := s.cache.Set(fetchCtx, key, sample, s.cfg.CacheTTL); err != nil {
				s.logger.Warn("weather cache write failed", "key", key, "error", err)
			}
		}
		return sample, nil
	})
	select {
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Sample{}, res.Err
		}
		return res.Val.(Sample), nil
	}
}

func (s *service) cacheKey(at Coordinates) string {
	p := s.cfg.CoordinatePrecision
	return fmt.Sprintf("%.*f,%.*f", p, util.RoundTo(at.Latitude, p), p, util.RoundTo(at.Longitude, p))
}

// FixedLocator reports a position supplied by the client device. A nil
// position behaves like a denied location request.
type FixedLocator struct {
	At *Coordinates
}

// Locate implements Locator.
func (l FixedLocator) Locate(context.Context) (Coordinates, error) {
	if l.At == nil {
		return Coordinates{}, ErrLocationUnavailable
	}
	if l.At.Latitude < -90 || l.At.Latitude > 90 || l.At.Longitude < -180 || l.At.Longitude > 180 {
		return Coordinates{}, fmt.Errorf("%w: coordinates out of range", ErrLocationUnavailable)
	}
	return *l.At, nil
}
