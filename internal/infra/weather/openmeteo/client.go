package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	hourlyFields   = "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation"
)

// Client fetches hourly forecasts from Open-Meteo.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Hourly retrieves the hourly series for a position.
func (c *Client) Hourly(ctx context.Context, at environment.Coordinates) (series environment.Series, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("open_meteo", started, err) }()

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	query.Set("hourly", hourlyFields)
	endpoint := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return environment.Series{}, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return environment.Series{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return environment.Series{}, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return environment.Series{}, fmt.Errorf("decode weather response: %w", err)
	}
	if raw.Error {
		return environment.Series{}, fmt.Errorf("weather api error: %s", raw.Reason)
	}
	return raw.Hourly.toSeries(), nil
}

type apiResponse struct {
	Error  bool       `json:"error"`
	Reason string     `json:"reason"`
	Hourly hourlyData `json:"hourly"`
}

type hourlyData struct {
	Time          []string   `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*float64 `json:"relative_humidity_2m"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	Precipitation []*float64 `json:"precipitation"`
}

// toSeries flattens the payload. Open-Meteo reports gaps as null, which read
// as zero here.
func (h hourlyData) toSeries() environment.Series {
	series := environment.Series{
		Time:        h.Time,
		Temperature: flatten(h.Temperature),
		Humidity:    flatten(h.Humidity),
		WindSpeed:   flatten(h.WindSpeed),
	}
	if h.Precipitation != nil {
		series.Precipitation = flatten(h.Precipitation)
	}
	return series
}

func flatten(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}
