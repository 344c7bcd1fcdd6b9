package disease

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

func TestConfidenceNormalization(t *testing.T) {
	cases := map[string]string{
		`87`:         "87.0%",
		`87.0`:       "87.0%",
		`"87%"`:      "87.0%",
		`"87"`:       "87.0%",
		`" 92.46 %"`: "92.5%",
		`null`:       "0%",
		`"high"`:     "0%",
		`"abc%"`:     "0%",
	}
	for raw, want := range cases {
		var c Confidence
		require.NoError(t, json.Unmarshal([]byte(raw), &c), raw)
		require.Equal(t, want, c.Normalize(), raw)
	}

	var missing struct {
		Confidence Confidence `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &missing))
	require.Equal(t, ConfidenceMissing, missing.Confidence.Kind)
	require.Equal(t, "0%", missing.Confidence.Normalize())
}

func TestSeverityThresholds(t *testing.T) {
	require.Equal(t, SeverityHigh, SeverityOf(NumberConfidence(87)))
	require.Equal(t, SeverityHigh, SeverityOf(StringConfidence("87%")))
	require.Equal(t, SeverityLow, SeverityOf(NumberConfidence(85)))
	require.Equal(t, SeverityModerate, SeverityOf(NumberConfidence(85.01)))
	require.Equal(t, SeverityLow, SeverityOf(NumberConfidence(60)))
	require.Equal(t, SeverityModerate, SeverityOf(NumberConfidence(61)))
	require.Equal(t, SeverityModerate, SeverityOf(StringConfidence("61")))
	require.Equal(t, SeverityUnknown, SeverityOf(Confidence{}))
	require.Equal(t, SeverityUnknown, SeverityOf(StringConfidence("n/a")))
}

func TestPrecautionAndRecommendationRules(t *testing.T) {
	require.Len(t, Precautions("Tomato___Late_blight", locale.English), 5)
	require.Len(t, Precautions("Potato Early BLIGHT", locale.English), 5)
	require.Len(t, Precautions("Corn_(maize)___Common_rust_", locale.English), 3)
	require.Len(t, Recommendations("Corn_(maize)___Common_rust_", locale.English), 5)
	require.Len(t, Recommendations("Tomato___Late_blight", locale.English), 3)

	both := "Rusty blight"
	require.Len(t, Precautions(both, locale.English), 5)
	require.Len(t, Recommendations(both, locale.English), 5)

	got := Precautions("late blight", locale.English)
	require.Equal(t, "Remove affected leaves immediately", got[0])
	require.Equal(t, "Reduce irrigation frequency", got[4])
}

func TestAssessDefaults(t *testing.T) {
	a := Assess(Classification{Confidence: NumberConfidence(72.24)}, "", locale.English)
	require.Equal(t, "Unknown Disease", a.Disease)
	require.Equal(t, "72.2%", a.Confidence)
	require.Equal(t, SeverityModerate, a.Severity)
	require.Equal(t, "General", a.AffectedPart)
	require.Empty(t, a.Error)

	a = Assess(Classification{PredictedClass: "Apple___Cedar_apple_rust", Confidence: StringConfidence("96%")}, "Leaves", locale.Malayalam)
	require.Equal(t, "Apple___Cedar_apple_rust", a.Disease)
	require.Equal(t, "Leaves", a.AffectedPart)
	require.Equal(t, locale.T(locale.Malayalam, locale.KeySeverityHigh), a.SeverityLabel)
	require.Len(t, a.Recommendations, 5)
}

func TestClassifyArchivesImage(t *testing.T) {
	classifier := &stubClassifier{result: Classification{PredictedClass: "Tomato___Late_blight", Confidence: NumberConfidence(91)}}
	archive := &stubArchive{}
	svc := NewService(Config{}, classifier, archive, nil, newTestLogger())

	req := Request{Image: Image{Data: []byte{0xff, 0xd8}, Filename: "leaf.PNG"}, AffectedPart: "Leaves"}
	a, err := svc.Classify(context.Background(), req, locale.English)
	require.NoError(t, err)
	require.Equal(t, "91.0%", a.Confidence)
	require.Equal(t, SeverityHigh, a.Severity)
	require.Len(t, a.Precautions, 5)
	require.True(t, strings.HasPrefix(a.ImageKey, "diagnoses/"))
	require.True(t, strings.HasSuffix(a.ImageKey, ".png"))
	require.Equal(t, []string{a.ImageKey}, archive.keys)
}

func TestClassifyIgnoresArchiveFailure(t *testing.T) {
	classifier := &stubClassifier{result: Classification{PredictedClass: "Healthy", Confidence: NumberConfidence(99)}}
	svc := NewService(Config{}, classifier, &stubArchive{err: errors.New("bucket missing")}, nil, newTestLogger())

	a, err := svc.Classify(context.Background(), Request{Image: Image{Data: []byte("x")}}, locale.English)
	require.NoError(t, err)
	require.Empty(t, a.ImageKey)
	require.Equal(t, "Healthy", a.Disease)
}

func TestClassifyFailure(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("HTTP 500")}
	svc := NewService(Config{}, classifier, nil, nil, newTestLogger())

	_, err := svc.Classify(context.Background(), Request{Image: Image{Data: []byte("x")}}, locale.English)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	failed := svc.Failure(Request{}, locale.English)
	require.Equal(t, "Unknown Disease", failed.Disease)
	require.Equal(t, "0%", failed.Confidence)
	require.Equal(t, SeverityUnknown, failed.Severity)
	require.Equal(t, "General", failed.AffectedPart)
	require.NotEmpty(t, failed.Error)
	require.Empty(t, failed.Precautions)
	require.Empty(t, failed.Recommendations)
}

func TestClassifyHoldsForMinimumDuration(t *testing.T) {
	classifier := &stubClassifier{result: Classification{PredictedClass: "Healthy"}}
	svc := NewService(Config{MinAnalyzeDuration: 2 * time.Second}, classifier, nil, nil, newTestLogger()).(*service)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	var slept time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) { slept = d }

	_, err := svc.Classify(context.Background(), Request{Image: Image{Data: []byte("x")}}, locale.English)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, slept)
}

func TestValidateRequiresImage(t *testing.T) {
	svc := NewService(Config{}, &stubClassifier{}, nil, nil, newTestLogger())

	err := svc.Validate(Request{}, locale.English)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Please select an image first", apperrors.MessageOf(err))
	require.NoError(t, svc.Validate(Request{Image: Image{Data: []byte("x")}}, locale.English))
}

func TestExplainPrompt(t *testing.T) {
	var got textgen.Prompt
	gen := textgen.GeneratorFunc(func(ctx context.Context, p textgen.Prompt) (string, error) {
		got = p
		return "Late blight spreads fast in wet weather.", nil
	})
	svc := NewService(Config{}, &stubClassifier{}, nil, gen, newTestLogger())

	summary, err := svc.Explain(context.Background(), Request{Crop: "Potato", Symptoms: "dark lesions"}, Assessment{Disease: "Late blight"}, locale.Hindi)
	require.NoError(t, err)
	require.Equal(t, "Late blight spreads fast in wet weather.", summary)
	require.Contains(t, got.User, `"Late blight"`)
	require.Contains(t, got.User, "impact on Potato")
	require.Contains(t, got.User, "based on dark lesions")
	require.Equal(t, locale.Hindi, got.Locale)

	_, err = svc.Explain(context.Background(), Request{}, Assessment{Disease: "Rust"}, locale.English)
	require.NoError(t, err)
	require.Contains(t, got.User, "impact on the crop")
}

type stubClassifier struct {
	result Classification
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, img Image) (Classification, error) {
	return s.result, s.err
}

type stubArchive struct {
	keys []string
	err  error
}

func (s *stubArchive) Put(ctx context.Context, key string, img Image) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
