package disease

import (
	"strings"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
)

var (
	basePrecautions     = []locale.Key{locale.KeyPrecaution1, locale.KeyPrecaution2, locale.KeyPrecaution3}
	blightPrecautions   = []locale.Key{locale.KeyPrecaution4, locale.KeyPrecaution5}
	baseRecommendations = []locale.Key{locale.KeyRecommendation1, locale.KeyRecommendation2, locale.KeyRecommendation3}
	rustRecommendations = []locale.Key{locale.KeyRecommendation4, locale.KeyRecommendation5}
)

// Precautions lists immediate actions for the predicted class. Blights get
// two extra entries.
func Precautions(predicted string, loc locale.Code) []string {
	keys := append([]locale.Key(nil), basePrecautions...)
	if strings.Contains(strings.ToLower(predicted), "blight") {
		keys = append(keys, blightPrecautions...)
	}
	return locale.List(loc, keys...)
}

// Recommendations lists longer term measures for the predicted class. Rusts
// get two extra entries.
func Recommendations(predicted string, loc locale.Code) []string {
	keys := append([]locale.Key(nil), baseRecommendations...)
	if strings.Contains(strings.ToLower(predicted), "rust") {
		keys = append(keys, rustRecommendations...)
	}
	return locale.List(loc, keys...)
}

// Assess derives the rendered assessment from a classification.
func Assess(c Classification, affectedPart string, loc locale.Code) Assessment {
	predicted := strings.TrimSpace(c.PredictedClass)
	name := predicted
	if name == "" {
		name = locale.T(loc, locale.KeyDiseaseUnknown)
	}
	severity := SeverityOf(c.Confidence)
	return Assessment{
		Disease:         name,
		Confidence:      c.Confidence.Normalize(),
		Severity:        severity,
		SeverityLabel:   severity.Label(loc),
		AffectedPart:    partOrDefault(affectedPart, loc),
		Precautions:     Precautions(predicted, loc),
		Recommendations: Recommendations(predicted, loc),
	}
}

// FailedAssessment is rendered when classification did not complete.
func FailedAssessment(affectedPart string, loc locale.Code) Assessment {
	return Assessment{
		Disease:         locale.T(loc, locale.KeyDiseaseUnknown),
		Confidence:      MissingConfidenceLabel,
		Severity:        SeverityUnknown,
		SeverityLabel:   SeverityUnknown.Label(loc),
		AffectedPart:    partOrDefault(affectedPart, loc),
		Precautions:     []string{},
		Recommendations: []string{},
		Error:           locale.T(loc, locale.KeyDiseaseError),
	}
}

func partOrDefault(part string, loc locale.Code) string {
	if p := strings.TrimSpace(part); p != "" {
		return p
	}
	return locale.T(loc, locale.KeyDiseaseGeneral)
}
