package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

// PrimaryFunc performs the core service call of a flow.
type PrimaryFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// ExplainFunc produces the natural-language explanation of a primary result.
type ExplainFunc[Req, Res any] func(ctx context.Context, req Req, res Res) (string, error)

// FallbackFunc maps a primary failure to the value rendered in its place.
type FallbackFunc[Res any] func(err error) Res

// Options tune Run.
type Options struct {
	Logger *slog.Logger
	// ExplainTimeout bounds the detached explanation stage. Zero means no bound.
	ExplainTimeout time.Duration
}

// Run drives one submission through tracker: it starts a new generation,
// performs primary, publishes the result (or fallback), and then launches
// explain in the background. The returned snapshot is taken right after the
// primary result is published, so the explanation never delays it. A nil
// explain skips the explanation stage.
func Run[Req, Res any](
	ctx context.Context,
	tracker *Tracker[Res],
	opts Options,
	req Req,
	primary PrimaryFunc[Req, Res],
	fallback FallbackFunc[Res],
	explain ExplainFunc[Req, Res],
) Snapshot[Res] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("flow", tracker.Name())

	ticket := tracker.Begin()
	res, err := primary(ctx, req)
	if err != nil {
		logger.Warn("primary stage failed", "generation", ticket.Generation(), "error", err)
		metrics.FlowOutcomesTotal.WithLabelValues(tracker.Name(), "primary", "failed").Inc()
		if !tracker.Fail(ticket, fallback(err), err) {
			logger.Info("stale primary failure discarded", "generation", ticket.Generation())
		}
		return tracker.Snapshot()
	}

	metrics.FlowOutcomesTotal.WithLabelValues(tracker.Name(), "primary", "succeeded").Inc()
	if !tracker.Succeed(ticket, res) {
		logger.Info("stale primary result discarded", "generation", ticket.Generation())
		return tracker.Snapshot()
	}
	if explain == nil || !tracker.BeginExplanation(ticket) {
		return tracker.Snapshot()
	}
	snap := tracker.Snapshot()

	explainCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if opts.ExplainTimeout > 0 {
		explainCtx, cancel = context.WithTimeout(explainCtx, opts.ExplainTimeout)
	}
	tracker.background.Add(1)
	go func() {
		defer tracker.background.Done()
		defer cancel()
		summary, err := explain(explainCtx, req, res)
		if err != nil {
			logger.Warn("explanation stage failed", "generation", ticket.Generation(), "error", err)
			metrics.FlowOutcomesTotal.WithLabelValues(tracker.Name(), "explanation", "failed").Inc()
			tracker.FailExplanation(ticket)
			return
		}
		metrics.FlowOutcomesTotal.WithLabelValues(tracker.Name(), "explanation", "succeeded").Inc()
		if !tracker.Explain(ticket, summary) {
			logger.Info("stale explanation discarded", "generation", ticket.Generation())
		}
	}()
	return snap
}
