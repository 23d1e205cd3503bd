// Package converge waits for asynchronously provisioned resources to reach
// a terminal state.
//
// A Poller re-fetches every handle of a Target once per attempt, sleeping a
// fixed interval between attempts. It succeeds only when every handle has
// settled successfully, fails fast as soon as any handle reaches a failure
// state, and times out when attempts are exhausted.
package converge

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"nathanbeddoewebdev/provctl/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Refresher re-fetches a handle from its provider.
type Refresher interface {
	Refresh(ctx context.Context, h domain.Handle) (domain.Handle, error)
}

// RefreshFunc adapts a plain function to the Refresher interface.
type RefreshFunc func(ctx context.Context, h domain.Handle) (domain.Handle, error)

// Refresh calls f(ctx, h).
func (f RefreshFunc) Refresh(ctx context.Context, h domain.Handle) (domain.Handle, error) {
	return f(ctx, h)
}

// Event is emitted after every poll attempt.
type Event struct {
	Attempt     int
	MaxAttempts int
	Handles     []domain.Handle
}

// Target describes what a set of handles must converge to.
type Target struct {
	// Handles are polled in parallel; results keep this order.
	Handles []domain.Handle

	// SuccessStates and FailureStates must not overlap.
	SuccessStates []string
	FailureStates []string

	// Ready, when set, replaces the SuccessStates check with a structural
	// predicate. FailureStates still apply.
	Ready func(domain.Handle) bool

	PollInterval time.Duration
	MaxAttempts  int

	// Progress receives an Event after each attempt. It never affects
	// the outcome.
	Progress func(Event)
}

// Validate checks the target's invariants.
func (t Target) Validate() error {
	if t.MaxAttempts <= 0 {
		return fmt.Errorf("converge: max attempts must be positive, got %d", t.MaxAttempts)
	}
	if t.PollInterval < 0 {
		return fmt.Errorf("converge: poll interval must not be negative")
	}
	if t.Ready == nil && len(t.SuccessStates) == 0 {
		return fmt.Errorf("converge: either success states or a readiness predicate is required")
	}
	for _, s := range t.SuccessStates {
		if slices.Contains(t.FailureStates, s) {
			return fmt.Errorf("converge: state %q is both a success and a failure state", s)
		}
	}
	return nil
}

func (t Target) failed(h domain.Handle) bool {
	return slices.Contains(t.FailureStates, h.Status)
}

func (t Target) succeeded(h domain.Handle) bool {
	if t.Ready != nil {
		return t.Ready(h)
	}
	return slices.Contains(t.SuccessStates, h.Status)
}

// Poller runs convergence waits against a Refresher.
type Poller struct {
	refresher Refresher
	logger    *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New returns a Poller backed by r.
func New(r Refresher, opts ...Option) *Poller {
	p := &Poller{refresher: r, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await blocks until every handle in t has settled, returning the refreshed
// handles in input order.
//
// It returns *Error with Reason PartialFailure as soon as any handle reaches
// a failure state, and *Error with Reason Timeout when MaxAttempts polls pass
// without every handle succeeding. Provider errors from a refresh are
// returned unchanged. Cancelling ctx aborts the wait with ctx.Err().
func (p *Poller) Await(ctx context.Context, t Target) ([]domain.Handle, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Handles) == 0 {
		return nil, nil
	}

	current := make([]domain.Handle, len(t.Handles))
	copy(current, t.Handles)

	for attempt := 1; attempt <= t.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		refreshed, err := p.refreshAll(ctx, current)
		if err != nil {
			return nil, err
		}
		current = refreshed

		if t.Progress != nil {
			t.Progress(Event{Attempt: attempt, MaxAttempts: t.MaxAttempts, Handles: snapshot(current)})
		}

		settled := 0
		for _, h := range current {
			if t.failed(h) {
				p.logger.Debug("handle reached failure state", "handle", h.String(), "status", h.Status, "attempt", attempt)
				return nil, &Error{Reason: PartialFailure, Handle: h, LastSeen: snapshot(current), Attempts: attempt}
			}
			if t.succeeded(h) {
				settled++
			}
		}
		p.logger.Debug("poll attempt", "attempt", attempt, "max", t.MaxAttempts, "settled", settled, "total", len(current))
		if settled == len(current) {
			return current, nil
		}

		if attempt < t.MaxAttempts && !sleep(ctx, t.PollInterval) {
			return nil, ctx.Err()
		}
	}

	return nil, &Error{Reason: Timeout, LastSeen: snapshot(current), Attempts: t.MaxAttempts}
}

// refreshAll fetches every handle concurrently. Result order matches input.
func (p *Poller) refreshAll(ctx context.Context, handles []domain.Handle) ([]domain.Handle, error) {
	out := make([]domain.Handle, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range handles {
		g.Go(func() error {
			fresh, err := p.refresher.Refresh(gctx, h)
			if err != nil {
				return fmt.Errorf("refresh %s: %w", h, err)
			}
			out[i] = fresh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func snapshot(handles []domain.Handle) []domain.Handle {
	out := make([]domain.Handle, len(handles))
	for i, h := range handles {
		out[i] = h.Clone()
	}
	return out
}

func sleep(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
