package environment

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// NotAvailableLabel is rendered for readings that were never acquired.
const NotAvailableLabel = "N/A"

// UnknownLocality is returned when reverse geocoding yields no usable place name.
const UnknownLocality = "Unknown"

// ErrLocationUnavailable is returned by a Locator that has no position fix.
var ErrLocationUnavailable = errors.New("location unavailable")

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reading is either a number or "N/A".
type Reading struct {
	value float64
	ok    bool
}

// Value wraps an acquired number.
func Value(v float64) Reading {
	return Reading{value: v, ok: true}
}

// NotAvailable is the zero reading.
func NotAvailable() Reading {
	return Reading{}
}

// Float returns the number and whether it was acquired.
func (r Reading) Float() (float64, bool) {
	return r.value, r.ok
}

func (r Reading) String() string {
	if !r.ok {
		return NotAvailableLabel
	}
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

// MarshalJSON renders a number or the "N/A" string.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return json.Marshal(NotAvailableLabel)
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON accepts a number, a numeric string, "N/A" or null.
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*r = NotAvailable()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*r = NotAvailable()
			return nil
		}
		*r = Value(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Value(v)
	return nil
}

// Context is the environmental context of a session.
type Context struct {
	Temperature Reading      `json:"temperature"`
	Humidity    Reading      `json:"humidity"`
	WindSpeed   Reading      `json:"windSpeed"`
	Rainfall    Reading      `json:"rainfall"`
	Sunshine    Reading      `json:"sunshine"`
	Locality    string       `json:"locality,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ObservedAt  *time.Time   `json:"observedAt,omitempty"`
}

// Unavailable returns the all-"N/A" context.
func Unavailable() Context {
	return Context{}
}

// Series is an hourly forecast as returned by the weather service. Each slice
// is parallel to Time. Precipitation is nil when the service omitted it.
type Series struct {
	Time          []string
	Temperature   []float64
	Humidity      []float64
	WindSpeed     []float64
	Precipitation []float64
}

// Sample is one hourly observation.
type Sample struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Rainfall    float64 `json:"rainfall"`
}

// ErrEmptySeries is returned when the forecast carries no samples.
var ErrEmptySeries = errors.New("weather series is empty")

// Latest extracts the last entry of every series. A missing precipitation
// series reads as zero rainfall.
func (s Series) Latest() (Sample, error) {
	n := len(s.Time)
	if n == 0 {
		return Sample{}, ErrEmptySeries
	}
	last := n - 1
	if len(s.Temperature) < n || len(s.Humidity) < n || len(s.WindSpeed) < n {
		return Sample{}, errors.New("weather series length mismatch")
	}
	sample := Sample{
		Time:        s.Time[last],
		Temperature: s.Temperature[last],
		Humidity:    s.Humidity[last],
		WindSpeed:   s.WindSpeed[last],
	}
	if len(s.Precipitation) >= n {
		sample.Rainfall = s.Precipitation[last]
	}
	return sample, nil
}

// Address is the subset of a reverse geocoding result used here.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
}

// Locality picks the most specific settlement name, falling back through
// city, town, village and county.
func (a Address) Locality() string {
	for _, candidate := range []string{a.City, a.Town, a.Village, a.County} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return UnknownLocality
}

// Config tunes the environment service.
type Config struct {
	CacheTTL            time.Duration
	CoordinatePrecision int
	// FetchTimeout bounds one forecast fetch shared by concurrent callers.
	FetchTimeout        time.Duration
}
