// Package workflow implements the generate/refine state machine shared by
// every document kind.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/careerkit/internal/client/credits"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/logging"
)

var (
	ErrNoSession           = errors.New("not signed in")
	ErrMissingInputs       = errors.New("missing required inputs")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrBusy                = errors.New("a request is already in progress")
	ErrNotReady            = errors.New("no document to refine")
	ErrEmptyPayload        = errors.New("server returned no content")
	// ErrSuperseded is returned when the workflow was reset while the call
	// was in flight; the response has been discarded.
	ErrSuperseded = errors.New("workflow was reset")
)

// Costs are the client side price estimates of metered calls. The server
// decides what is actually charged.
type Costs struct {
	Generate float64
	Refine   float64
}

// DefaultCosts match the backend's published prices.
var DefaultCosts = Costs{Generate: 1, Refine: 0.5}

// Sessions is the part of the session store a workflow depends on.
type Sessions interface {
	Current(ctx context.Context) (*session.Session, bool)
}

type Option func(*Workflow)

func WithCosts(c Costs) Option {
	return func(w *Workflow) { w.costs = c }
}

func WithLogger(l logging.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

// Workflow owns the state of one document.
type Workflow struct {
	kind     Kind
	backend  Backend
	sessions Sessions
	ledger   *credits.Ledger
	costs    Costs
	log      logging.Logger

	mu    sync.Mutex
	state State
	// epoch increments on Reset so in-flight responses can tell they are stale.
	epoch uint64
}

func New(kind Kind, backend Backend, sessions Sessions, ledger *credits.Ledger, opts ...Option) *Workflow {
	w := &Workflow{
		kind:     kind,
		backend:  backend,
		sessions: sessions,
		ledger:   ledger,
		costs:    DefaultCosts,
		log:      logging.Nop(),
		state:    State{Kind: kind, Phase: PhaseIdle},
	}
	for _, o := range opts {
		o(w)
	}
	w.log = w.log.With("kind", string(kind))
	return w
}

func (w *Workflow) Kind() Kind { return w.kind }

func (w *Workflow) Costs() Costs { return w.costs }

// State returns a copy of the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Workflow) snapshot() State {
	s := w.state
	if s.Score != nil {
		v := *s.Score
		s.Score = &v
	}
	return s
}

// Reset returns the workflow to Idle and drops any outstanding response.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.state = State{Kind: w.kind, Phase: PhaseIdle}
}

// Generate produces a new document from in. It is allowed from Idle, Ready
// and Error. A precondition failure leaves the state untouched.
func (w *Workflow) Generate(ctx context.Context, in Inputs) error {
	w.mu.Lock()
	if w.state.Phase.Busy() {
		w.mu.Unlock()
		return ErrBusy
	}
	sess, ok := w.sessions.Current(ctx)
	if !ok {
		w.mu.Unlock()
		return ErrNoSession
	}
	if missing := in.missing(); len(missing) > 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMissingInputs, strings.Join(missing, ", "))
	}
	if !w.ledger.CanAfford(w.costs.Generate) {
		w.mu.Unlock()
		return ErrInsufficientCredits
	}
	w.state = State{Kind: w.kind, Phase: PhaseGenerating}
	epoch := w.epoch
	w.mu.Unlock()

	in = in.normalized(w.kind)
	if in.Applicant.Email == "" {
		in.Applicant.Email = sess.Email
	}
	if in.Applicant.FullName == "" {
		in.Applicant.FullName = sess.DisplayName
	}

	reservation := w.ledger.DeductOptimistically(w.costs.Generate)
	w.log.Debug(ctx, "generate started", "balance_before", reservation.Before())

	res, err := w.backend.Generate(ctx, w.kind, in)
	if err == nil && strings.TrimSpace(res.Content) == "" {
		err = ErrEmptyPayload
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.epoch != epoch {
		reservation.Rollback()
		w.log.Debug(ctx, "generate response discarded after reset")
		return ErrSuperseded
	}

	if err != nil {
		w.state = State{Kind: w.kind, Phase: PhaseError}
		w.settle(reservation, res.CreditsLeft)
		w.log.Warn(ctx, "generate failed", "error", err)
		return fmt.Errorf("generate %s: %w", w.kind, err)
	}

	w.state = State{Kind: w.kind, Phase: PhaseReady, Content: res.Content}
	if w.kind == KindResume && res.Score != nil {
		v := *res.Score
		w.state.Score = &v
	}
	w.reconcile(ctx, res.CreditsLeft)
	w.log.Info(ctx, "document generated")
	return nil
}

// Refine rewrites the current document according to instruction. A blank
// instruction is ignored. On failure the previous content is kept.
func (w *Workflow) Refine(ctx context.Context, instruction string) error {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil
	}

	w.mu.Lock()
	switch {
	case w.state.Phase.Busy():
		w.mu.Unlock()
		return ErrBusy
	case w.state.Phase != PhaseReady:
		w.mu.Unlock()
		return ErrNotReady
	}
	sess, ok := w.sessions.Current(ctx)
	if !ok {
		w.mu.Unlock()
		return ErrNoSession
	}
	if !w.ledger.CanAfford(w.costs.Refine) {
		w.mu.Unlock()
		return ErrInsufficientCredits
	}
	prev := w.snapshot()
	w.state.Phase = PhaseRefining
	epoch := w.epoch
	w.mu.Unlock()

	reservation := w.ledger.DeductOptimistically(w.costs.Refine)

	res, err := w.backend.Refine(ctx, RefineRequest{
		Kind:        w.kind,
		Content:     prev.Content,
		Instruction: instruction,
		Email:       sess.Email,
	})
	if err == nil && strings.TrimSpace(res.Content) == "" {
		err = ErrEmptyPayload
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.epoch != epoch {
		reservation.Rollback()
		return ErrSuperseded
	}

	if err != nil {
		w.state = prev
		w.settle(reservation, res.CreditsLeft)
		w.log.Warn(ctx, "refine failed", "error", err)
		return fmt.Errorf("refine %s: %w", w.kind, err)
	}

	w.state = State{Kind: w.kind, Phase: PhaseReady, Content: res.Content, Score: prev.Score}
	if w.kind == KindResume && res.Score != nil {
		v := *res.Score
		w.state.Score = &v
	}
	w.reconcile(ctx, res.CreditsLeft)
	w.log.Info(ctx, "document refined")
	return nil
}

// reconcile overwrites the ledger with the server's balance. Without one the
// optimistic deduction stands until the next observation.
func (w *Workflow) reconcile(ctx context.Context, creditsLeft *float64) {
	if creditsLeft == nil {
		w.log.Warn(ctx, "response carried no credit balance")
		return
	}
	w.ledger.Observe(*creditsLeft)
}

// settle undoes the optimistic deduction of a failed call unless the server
// reported a balance anyway.
func (w *Workflow) settle(r *credits.Reservation, creditsLeft *float64) {
	if creditsLeft != nil {
		w.ledger.Observe(*creditsLeft)
		return
	}
	r.Rollback()
}
