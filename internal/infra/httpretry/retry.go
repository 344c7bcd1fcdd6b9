package httpretry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status=%d body=%s", e.Status, e.Body)
}

// Policy bounds the retries of one call.
type Policy struct {
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

// Do sends the request built by newRequest and returns the response body.
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff; other failures return immediately.
func Do(ctx context.Context, client *http.Client, policy Policy, newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := newRequest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			statusErr := &StatusError{Status: resp.StatusCode, Body: string(payload)}
			if retryable(resp.StatusCode) {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}
	bo.MaxElapsedTime = policy.MaxElapsedTime
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
