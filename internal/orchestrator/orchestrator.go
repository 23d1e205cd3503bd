// Package orchestrator runs staged, compound provisioning builds.
//
// Every stage issues its creates, then waits for the created resources to
// converge before the next stage starts. A failed stage aborts the build
// without rolling back what was already created; the partial result is
// returned alongside the error.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"nathanbeddoewebdev/provctl/internal/converge"
	"nathanbeddoewebdev/provctl/internal/dns/services"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/platform"
)

// PollSettings bounds one convergence wait.
type PollSettings struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolling returns the per-kind wait bounds used when Options
// does not override them.
func DefaultPolling() map[domain.Kind]PollSettings {
	return map[domain.Kind]PollSettings{
		domain.KindServer:       {Interval: 2 * time.Second, MaxAttempts: 300},
		domain.KindLoadBalancer: {Interval: 2 * time.Second, MaxAttempts: 150},
		domain.KindImage:        {Interval: 60 * time.Second, MaxAttempts: 60},
		domain.KindDatabase:     {Interval: 5 * time.Second, MaxAttempts: 360},
		domain.KindVolume:       {Interval: 2 * time.Second, MaxAttempts: 120},
		domain.KindNetwork:      {Interval: 2 * time.Second, MaxAttempts: 30},
	}
}

// Event reports build progress. Exactly one of Message or Poll is set.
type Event struct {
	Stage string

	// Message is a human-readable progress line.
	Message string

	// Warning marks a stage that was skipped or degraded.
	Warning bool

	// Poll is set while a convergence wait is running.
	Poll *converge.Event
}

// Options configures an Orchestrator.
type Options struct {
	// Polling overrides DefaultPolling per kind.
	Polling map[domain.Kind]PollSettings

	// Defaults for resources whose spec leaves these empty.
	Location         string
	ServerType       string
	Image            string
	LoadBalancerType string

	Logger   *slog.Logger
	Progress func(Event)
}

// Orchestrator builds resources through a platform.Context.
type Orchestrator struct {
	pc       *platform.Context
	poller   *converge.Poller
	resolver *services.Resolver
	polling  map[domain.Kind]PollSettings
	opts     Options
	logger   *slog.Logger
}

// New returns an Orchestrator using the providers in pc.
func New(pc *platform.Context, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = pc.Log()
	}

	polling := DefaultPolling()
	maps.Copy(polling, opts.Polling)

	o := &Orchestrator{
		pc:      pc,
		poller:  converge.New(pc, converge.WithLogger(logger)),
		polling: polling,
		opts:    opts,
		logger:  logger,
	}
	if pc.DNS != nil {
		o.resolver = services.NewResolver(pc.DNS, services.WithLogger(logger))
	}
	return o
}

func (o *Orchestrator) emit(stage, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.logger.Info(msg, "stage", stage)
	if o.opts.Progress != nil {
		o.opts.Progress(Event{Stage: stage, Message: msg})
	}
}

func (o *Orchestrator) warn(stage, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.logger.Warn(msg, "stage", stage)
	if o.opts.Progress != nil {
		o.opts.Progress(Event{Stage: stage, Message: msg, Warning: true})
	}
}

// await runs a convergence wait for handles of kind, using the kind's
// poll settings and forwarding progress under stage.
func (o *Orchestrator) await(ctx context.Context, stage string, kind domain.Kind, build func([]domain.Handle, time.Duration, int) converge.Target, handles []domain.Handle) ([]domain.Handle, error) {
	ps := o.polling[kind]
	t := build(handles, ps.Interval, ps.MaxAttempts)
	if o.opts.Progress != nil {
		t.Progress = func(e converge.Event) {
			o.opts.Progress(Event{Stage: stage, Poll: &e})
		}
	}
	return o.poller.Await(ctx, t)
}

// volumeAvailable waits for freshly created volumes to accept an attach.
func volumeAvailable(handles []domain.Handle, interval time.Duration, maxAttempts int) converge.Target {
	return converge.Target{
		Handles:       handles,
		SuccessStates: []string{domain.StatusAvailable},
		FailureStates: []string{domain.StatusVolError},
		PollInterval:  interval,
		MaxAttempts:   maxAttempts,
	}
}

func (o *Orchestrator) orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// missing reports a provider the build needs but the context lacks.
func missing(what string) error {
	return fmt.Errorf("no %s provider configured: %w", what, domain.ErrUnsupported)
}
