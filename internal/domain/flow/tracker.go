package flow

import (
	"sync"
	"time"

	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

// State is the primary lifecycle of a flow instance.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ExplanationState is the orthogonal lifecycle of the explanation stage. It is
// only ever non-empty while the primary state is StateSucceeded.
type ExplanationState string

const (
	ExplanationNone    ExplanationState = ""
	ExplanationPending ExplanationState = "pending"
	ExplanationReady   ExplanationState = "ready"
	ExplanationFailed  ExplanationState = "failed"
)

// Ticket identifies one submission. Completions carrying a ticket from an
// older generation are discarded.
type Ticket struct {
	generation uint64
}

// Generation returns the submission sequence number.
func (t Ticket) Generation() uint64 {
	return t.generation
}

// Snapshot is an immutable view of a tracker used for rendering.
type Snapshot[Res any] struct {
	Generation  uint64           `json:"generation"`
	State       State            `json:"state"`
	Result      *Res             `json:"result,omitempty"`
	Explanation ExplanationState `json:"explanationState,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Tracker owns the state of one flow instance. All transitions are guarded by
// the generation of the ticket that requests them.
type Tracker[Res any] struct {
	name string
	now  func() time.Time

	mu          sync.Mutex
	generation  uint64
	state       State
	result      *Res
	err         error
	explanation ExplanationState
	summary     string
	updatedAt   time.Time

	background sync.WaitGroup
}

// NewTracker returns an idle tracker. name labels metrics and logs.
func NewTracker[Res any](name string) *Tracker[Res] {
	return &Tracker[Res]{
		name:  name,
		now:   time.Now,
		state: StateIdle,
	}
}

// Name returns the flow label.
func (t *Tracker[Res]) Name() string {
	return t.name
}

// Begin starts a new submission and clears any previous result and explanation.
func (t *Tracker[Res]) Begin() Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.state = StateSubmitting
	t.result = nil
	t.err = nil
	t.explanation = ExplanationNone
	t.summary = ""
	t.updatedAt = t.now()
	return Ticket{generation: t.generation}
}

// Succeed publishes the primary result.
func (t *Tracker[Res]) Succeed(ticket Ticket, res Res) bool {
	return t.transition(ticket, func() bool {
		if t.state != StateSubmitting {
			return false
		}
		t.state = StateSucceeded
		t.result = &res
		return true
	})
}

// Fail publishes a failed primary stage. fallback is the user-facing value
// rendered in place of the result.
func (t *Tracker[Res]) Fail(ticket Ticket, fallback Res, err error) bool {
	return t.transition(ticket, func() bool {
		if t.state != StateSubmitting {
			return false
		}
		t.state = StateFailed
		t.result = &fallback
		t.err = err
		return true
	})
}

// BeginExplanation marks the explanation stage as pending.
func (t *Tracker[Res]) BeginExplanation(ticket Ticket) bool {
	return t.transition(ticket, func() bool {
		if t.state != StateSucceeded || t.explanation != ExplanationNone {
			return false
		}
		t.explanation = ExplanationPending
		return true
	})
}

// Explain publishes the explanation text.
func (t *Tracker[Res]) Explain(ticket Ticket, summary string) bool {
	return t.transition(ticket, func() bool {
		if t.explanation != ExplanationPending {
			return false
		}
		t.explanation = ExplanationReady
		t.summary = summary
		return true
	})
}

// FailExplanation records a failed explanation. The primary state is kept.
func (t *Tracker[Res]) FailExplanation(ticket Ticket) bool {
	return t.transition(ticket, func() bool {
		if t.explanation != ExplanationPending {
			return false
		}
		t.explanation = ExplanationFailed
		return true
	})
}

// Current reports whether ticket still belongs to the latest submission.
func (t *Tracker[Res]) Current(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ticket.generation == t.generation
}

// Err returns the cause of the last primary failure, for logging only.
func (t *Tracker[Res]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Snapshot copies the current state.
func (t *Tracker[Res]) Snapshot() Snapshot[Res] {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot[Res]{
		Generation:  t.generation,
		State:       t.state,
		Explanation: t.explanation,
		Summary:     t.summary,
		UpdatedAt:   t.updatedAt,
	}
	if t.result != nil {
		res := *t.result
		snap.Result = &res
	}
	return snap
}

// Wait blocks until detached explanation stages have finished.
func (t *Tracker[Res]) Wait() {
	t.background.Wait()
}

func (t *Tracker[Res]) transition(ticket Ticket, apply func() bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket.generation != t.generation {
		metrics.StaleCompletionsTotal.WithLabelValues(t.name).Inc()
		return false
	}
	if !apply() {
		return false
	}
	t.updatedAt = t.now()
	return true
}
