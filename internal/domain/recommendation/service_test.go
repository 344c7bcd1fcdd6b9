package recommendation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

func TestValidateReportsFirstMissingField(t *testing.T) {
	svc := NewService(Config{}, &stubPredictor{}, nil, newTestLogger())

	req := completeRequest()
	req.K = nil
	req.PH = nil
	_, err := svc.Validate(req, locale.English)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Please fill K", apperrors.MessageOf(err))

	req = completeRequest()
	req.Rainfall = nil
	_, err = svc.Validate(req, locale.Hindi)
	require.Equal(t, "कृपया rainfall भरें", apperrors.MessageOf(err))
}

func TestValidateAcceptsZero(t *testing.T) {
	svc := NewService(Config{}, &stubPredictor{}, nil, newTestLogger())

	req := completeRequest()
	req.Rainfall = ptr(0)
	req.N = ptr(0)
	features, err := svc.Validate(req, locale.English)
	require.NoError(t, err)
	require.Zero(t, features.N)
	require.Zero(t, features.Rainfall)
	require.Equal(t, 6.5, features.PH)
}

func TestPredictTrimsCrop(t *testing.T) {
	predictor := &stubPredictor{crop: " rice \n"}
	svc := NewService(Config{}, predictor, nil, newTestLogger())

	res, err := svc.Predict(context.Background(), completeRequest().Features())
	require.NoError(t, err)
	require.Equal(t, "rice", res.Crop)
	require.NotNil(t, res.Features)
	require.Equal(t, 1, predictor.calls)
}

func TestPredictFailure(t *testing.T) {
	svc := NewService(Config{}, &stubPredictor{err: errors.New("connection refused")}, nil, newTestLogger())

	_, err := svc.Predict(context.Background(), Features{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	svc = NewService(Config{}, &stubPredictor{crop: "  "}, nil, newTestLogger())
	_, err = svc.Predict(context.Background(), Features{})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	require.Equal(t, Result{Message: "Prediction failed. Please try again."}, svc.Failure(locale.English))
	require.Empty(t, svc.Failure(locale.Malayalam).Crop)
}

func TestExplainBuildsLocalizedPrompt(t *testing.T) {
	var got textgen.Prompt
	gen := textgen.GeneratorFunc(func(ctx context.Context, p textgen.Prompt) (string, error) {
		got = p
		return "  Rice thrives in warm, wet fields.  ", nil
	})
	svc := NewService(Config{Prompt: "You advise farmers."}, &stubPredictor{}, gen, newTestLogger())

	features := completeRequest().Features()
	summary, err := svc.Explain(context.Background(), features, Result{Crop: "rice"}, locale.Malayalam)
	require.NoError(t, err)
	require.Equal(t, "Rice thrives in warm, wet fields.", summary)
	require.Equal(t, locale.Malayalam, got.Locale)
	require.Equal(t, "You advise farmers.", got.System)
	require.Contains(t, got.User, `"rice"`)
	require.Contains(t, got.User, "N=90, P=42, K=43, temperature=20.8°C, humidity=82%, ph=6.5, rainfall=202.9mm")
	require.Contains(t, got.User, "100-150 words")
}

func TestExplainFailure(t *testing.T) {
	gen := textgen.GeneratorFunc(func(ctx context.Context, p textgen.Prompt) (string, error) {
		return "", errors.New("quota exceeded")
	})
	svc := NewService(Config{}, &stubPredictor{}, gen, newTestLogger())

	_, err := svc.Explain(context.Background(), Features{}, Result{Crop: "maize"}, locale.English)
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}

func TestSeedKeepsTypedValues(t *testing.T) {
	env := environment.Context{
		Temperature: environment.Value(31.2),
		Humidity:    environment.Value(64),
		Rainfall:    environment.NotAvailable(),
	}
	req := Request{Humidity: ptr(70)}

	seeded := req.Seed(env)
	require.Equal(t, 31.2, *seeded.Temperature)
	require.Equal(t, 70.0, *seeded.Humidity)
	require.Nil(t, seeded.Rainfall)
	require.Nil(t, req.Temperature)
}

func TestSeedFromUnavailableContext(t *testing.T) {
	seeded := Request{}.Seed(environment.Unavailable())
	require.Equal(t, "N", seeded.MissingField())
	require.Nil(t, seeded.Temperature)
}

type stubPredictor struct {
	crop  string
	err   error
	calls int
}

func (s *stubPredictor) RecommendCrop(ctx context.Context, features Features) (string, error) {
	s.calls++
	return s.crop, s.err
}

func completeRequest() Request {
	return Request{
		N:           ptr(90),
		P:           ptr(42),
		K:           ptr(43),
		Temperature: ptr(20.8),
		Humidity:    ptr(82),
		PH:          ptr(6.5),
		Rainfall:    ptr(202.9),
	}
}

func ptr(v float64) *float64 {
	return &v
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
