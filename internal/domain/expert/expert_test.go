package expert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

func TestNearestReturnsFirstRecord(t *testing.T) {
	dir := &stubDirectory{experts: []Expert{
		{Name: "Dr. Anitha", Address: "KVK Thrissur"},
		{Name: "Ravi Kumar", Address: "Krishi Bhavan Ollur"},
	}}
	svc := NewService(Config{}, dir, newTestLogger())

	got, err := svc.Nearest(context.Background(), " Thrissur ", 5)
	require.NoError(t, err)
	require.Equal(t, "Dr. Anitha", got.Name)
	require.Equal(t, "Thrissur", dir.location)
	require.Equal(t, 5, dir.limit)
}

func TestNearestClampsLimit(t *testing.T) {
	dir := &stubDirectory{experts: []Expert{{Name: "a"}}}
	svc := NewService(Config{DefaultLimit: 3, MaxLimit: 4}, dir, newTestLogger())

	_, err := svc.Nearest(context.Background(), "Kochi", 0)
	require.NoError(t, err)
	require.Equal(t, 3, dir.limit)

	_, err = svc.Nearest(context.Background(), "Kochi", 50)
	require.NoError(t, err)
	require.Equal(t, 4, dir.limit)
}

func TestNearestErrors(t *testing.T) {
	svc := NewService(Config{}, &stubDirectory{}, newTestLogger())
	_, err := svc.Nearest(context.Background(), "Palakkad", 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.Nearest(context.Background(), "  ", 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	svc = NewService(Config{}, &stubDirectory{err: errors.New("502")}, newTestLogger())
	_, err = svc.Nearest(context.Background(), "Palakkad", 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))
}

type stubDirectory struct {
	experts  []Expert
	err      error
	location string
	limit    int
}

func (s *stubDirectory) Nearby(ctx context.Context, location string, limit int) ([]Expert, error) {
	s.location = location
	s.limit = limit
	return s.experts, s.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
