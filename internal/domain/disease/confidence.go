package disease

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConfidenceKind tags how the classifier reported its confidence.
type ConfidenceKind int

const (
	ConfidenceMissing ConfidenceKind = iota
	ConfidenceNumber
	ConfidencePercentString
	ConfidencePlainString
)

// MissingConfidenceLabel is rendered when no usable confidence was reported.
const MissingConfidenceLabel = "0%"

// Confidence is the classifier confidence as received: a bare number, a
// percentage string such as "87%", a plain numeric string, or nothing.
type Confidence struct {
	Kind   ConfidenceKind
	Number float64
	Raw    string
}

// NumberConfidence wraps a numeric confidence.
func NumberConfidence(v float64) Confidence {
	return Confidence{Kind: ConfidenceNumber, Number: v}
}

// StringConfidence classifies a textual confidence.
func StringConfidence(s string) Confidence {
	if strings.Contains(s, "%") {
		return Confidence{Kind: ConfidencePercentString, Raw: s}
	}
	return Confidence{Kind: ConfidencePlainString, Raw: s}
}

// UnmarshalJSON decodes any of the forms the classifier emits.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = Confidence{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = StringConfidence(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	*c = NumberConfidence(v)
	return nil
}

// MarshalJSON writes the canonical percentage string.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Normalize())
}

// Percent returns the confidence as a percentage and whether it was numeric.
func (c Confidence) Percent() (float64, bool) {
	var v float64
	switch c.Kind {
	case ConfidenceNumber:
		v = c.Number
	case ConfidencePercentString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(c.Raw, "%", "")), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	case ConfidencePlainString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c.Raw), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Normalize renders the confidence with one decimal place, e.g. "87.0%".
// Missing or unparseable input renders as "0%".
func (c Confidence) Normalize() string {
	v, ok := c.Percent()
	if !ok {
		return MissingConfidenceLabel
	}
	return fmt.Sprintf("%.1f%%", v)
}

// Severity grades a diagnosis by confidence.
type Severity string

const (
	SeverityHigh     Severity = "High"
	SeverityModerate Severity = "Moderate"
	SeverityLow      Severity = "Low"
	SeverityUnknown  Severity = "Unknown"
)

// SeverityOf thresholds the confidence: above 85 is high, above 60 moderate.
func SeverityOf(c Confidence) Severity {
	v, ok := c.Percent()
	if !ok {
		return SeverityUnknown
	}
	switch {
	case v > 85:
		return SeverityHigh
	case v > 60:
		return SeverityModerate
	default:
		return SeverityLow
	}
}
