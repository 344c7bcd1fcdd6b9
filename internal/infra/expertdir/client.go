package expertdir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/expert"
	"github.com/yanqian/krishi-vaani/internal/infra/httpretry"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

// Client queries the expert directory service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     httpretry.Policy
}

// NewClient builds a directory client rooted at baseURL.
func NewClient(baseURL string, timeout, maxRetry time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		policy:     httpretry.Policy{MaxElapsedTime: maxRetry},
	}
}

// Nearby implements expert.Directory.
func (c *Client) Nearby(ctx context.Context, location string, limit int) (experts []expert.Expert, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("expert_directory", started, err) }()

	query := url.Values{}
	query.Set("location", location)
	query.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/experts/nearest?" + query.Encode()

	body, err := httpretry.Do(ctx, c.httpClient, c.policy, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build expert request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expert lookup: %w", err)
	}
	return decodeExperts(body)
}

// decodeExperts accepts a bare list or an object wrapping it under "experts".
func decodeExperts(body []byte) ([]expert.Expert, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var out []expert.Expert
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode experts: %w", err)
		}
		return out, nil
	}
	var wrapped struct {
		Experts []expert.Expert `json:"experts"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode experts: %w", err)
	}
	return wrapped.Experts, nil
}
