package disease

import (
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
)

// Image is an uploaded leaf or plant photo.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Request is one diagnosis submission.
type Request struct {
	Image        Image
	Crop         string
	AffectedPart string
	Symptoms     string
}

// Classification is the image classifier's answer.
type Classification struct {
	PredictedClass string     `json:"predicted_class"`
	Confidence     Confidence `json:"confidence"`
}

// Assessment is rendered in the diagnosis slot. A failed classification still
// produces an assessment, with Error populated.
type Assessment struct {
	Disease         string   `json:"disease"`
	Confidence      string   `json:"confidence"`
	Severity        Severity `json:"severity"`
	SeverityLabel   string   `json:"severityLabel"`
	AffectedPart    string   `json:"affectedPart"`
	Precautions     []string `json:"precautions"`
	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
	ImageKey        string   `json:"imageKey,omitempty"`
}

// Config wires runtime settings for the diagnosis domain.
type Config struct {
	// MinAnalyzeDuration holds the result back so an analyzing indicator stays
	// visible for at least this long. Zero disables it.
	MinAnalyzeDuration time.Duration
	Prompt             string
	ArchivePrefix      string
}

var severityKeys = map[Severity]locale.Key{
	SeverityHigh:     locale.KeySeverityHigh,
	SeverityModerate: locale.KeySeverityModerate,
	SeverityLow:      locale.KeySeverityLow,
	SeverityUnknown:  locale.KeySeverityUnknown,
}

// Label returns the localized severity name.
func (s Severity) Label(loc locale.Code) string {
	key, ok := severityKeys[s]
	if !ok {
		key = locale.KeySeverityUnknown
	}
	return locale.T(loc, key)
}
