package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
	"github.com/yanqian/krishi-vaani/internal/infra/httpretry"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org/reverse"

// Client resolves coordinates with the Nominatim reverse geocoding API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	policy     httpretry.Policy
}

// NewClient builds a reverse geocoder. Nominatim requires an identifying
// user agent.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "krishi-vaani"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		policy:     httpretry.Policy{MaxElapsedTime: 2 * timeout},
	}
}

// Reverse implements environment.Geocoder.
func (c *Client) Reverse(ctx context.Context, at environment.Coordinates) (addr environment.Address, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("nominatim", started, err) }()

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	query.Set("format", "json")
	endpoint := c.baseURL + "?" + query.Encode()

	body, err := httpretry.Do(ctx, c.httpClient, c.policy, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build geocode request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return environment.Address{}, fmt.Errorf("reverse geocode: %w", err)
	}

	var payload struct {
		Error   string              `json:"error"`
		Address environment.Address `json:"address"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return environment.Address{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if payload.Error != "" {
		return environment.Address{}, fmt.Errorf("reverse geocode: %s", payload.Error)
	}
	return payload.Address, nil
}
