package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yanqian/krishi-vaani/internal/infra/config"
)

const retryBodyLimit = 1 << 20 // 1 MiB

var errBodyTooLarge = errors.New("request body exceeds retry limit")

var errRetryableStatus = errors.New("retryable response status")

// withRetry replays requests to the configured idempotent routes whose
// handler answered with a server error. Every other request runs once. The
// request body is buffered so every attempt sees it whole.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 || len(cfg.Routes) == 0 {
		return handler
	}
	routes := parseRetryRoutes(cfg.Routes)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !routes.match(r.Method, r.URL.Path) {
			handler.ServeHTTP(w, r)
			return
		}
		bodyBytes, err := readRequestBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		var (
			last    *retryResponseRecorder
			attempt int
		)
		operation := func() error {
			attempt++
			recorder := newRetryResponseRecorder(w)
			reqCopy := r.Clone(r.Context())
			reqCopy.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			reqCopy.ContentLength = int64(len(bodyBytes))

			handler.ServeHTTP(recorder, reqCopy)
			last = recorder
			if recorder.retryable() {
				return errRetryableStatus
			}
			return nil
		}
		notify := func(_ error, wait time.Duration) {
			logger.Warn("transient failure, retrying request", "path", r.URL.Path, "status", last.statusCode, "attempt", attempt, "wait_ms", wait.Milliseconds())
		}
		_ = backoff.RetryNotify(operation, retryPolicy(r.Context(), cfg), notify)
		last.Commit()
	})
}

type retryRoute struct {
	method   string
	segments []string
}

type retryRoutes []retryRoute

// parseRetryRoutes reads "METHOD /a/:param/b" entries. Malformed entries are
// rejected by config validation and skipped here.
func parseRetryRoutes(entries []string) retryRoutes {
	out := make(retryRoutes, 0, len(entries))
	for _, entry := range entries {
		method, path, ok := strings.Cut(strings.TrimSpace(entry), " ")
		if !ok {
			continue
		}
		out = append(out, retryRoute{
			method:   strings.ToUpper(method),
			segments: strings.Split(strings.Trim(strings.TrimSpace(path), "/"), "/"),
		})
	}
	return out
}

func (routes retryRoutes) match(method, path string) bool {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, route := range routes {
		if route.method != method || len(route.segments) != len(segments) {
			continue
		}
		matched := true
		for i, want := range route.segments {
			if strings.HasPrefix(want, ":") {
				if segments[i] == "" {
					matched = false
					break
				}
				continue
			}
			if want != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func retryPolicy(ctx context.Context, cfg config.RetryConfig) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.BaseBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(cfg.MaxAttempts-1)), ctx)
}

func readRequestBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	reader := io.LimitReader(r.Body, retryBodyLimit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

type retryResponseRecorder struct {
	dst        http.ResponseWriter
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wroteHead  bool
}

func newRetryResponseRecorder(dst http.ResponseWriter) *retryResponseRecorder {
	return &retryResponseRecorder{
		dst:        dst,
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *retryResponseRecorder) Header() http.Header {
	return r.header
}

func (r *retryResponseRecorder) WriteHeader(status int) {
	if r.wroteHead {
		return
	}
	r.statusCode = status
	r.wroteHead = true
}

func (r *retryResponseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}

func (r *retryResponseRecorder) Commit() {
	dstHeader := r.dst.Header()
	for k := range dstHeader {
		dstHeader.Del(k)
	}
	for k, values := range r.header {
		copied := make([]string, len(values))
		copy(copied, values)
		dstHeader[k] = copied
	}
	if !r.wroteHead {
		r.statusCode = http.StatusOK
	}
	r.dst.WriteHeader(r.statusCode)
	if r.body.Len() > 0 {
		_, _ = r.dst.Write(r.body.Bytes())
	}
}

func (r *retryResponseRecorder) retryable() bool {
	return r.statusCode >= http.StatusInternalServerError
}

func (r *retryResponseRecorder) Flush() {}
