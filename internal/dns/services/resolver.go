// Package services provides the DNS service layer.
//
// The Resolver finds the zone a fully-qualified name belongs to, creating
// one when no exact or parent zone exists, and appends a record to it.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
)

// ResolutionRequest asks for a record of Type with Value to exist at FQDN.
type ResolutionRequest struct {
	FQDN  string
	Type  domain.RecordType
	Value string

	// TTL in seconds. Zero means DefaultTTL.
	TTL int
}

// Resolution is the result of a successful Resolve.
type Resolution struct {
	Zone   domain.Zone
	Record domain.Record

	// Created reports whether the zone was created by this resolution.
	Created bool
}

// FailureReason classifies a ResolutionError.
type FailureReason int

const (
	// ZoneCreationFailed means neither an exact nor a parent zone existed
	// and the backend rejected creating one.
	ZoneCreationFailed FailureReason = iota + 1
)

func (r FailureReason) String() string {
	switch r {
	case ZoneCreationFailed:
		return "zone creation failed"
	}
	return "unknown"
}

// ResolutionError is returned when no zone could be found or created.
type ResolutionError struct {
	Reason FailureReason
	FQDN   string
	Cause  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %v", e.FQDN, e.Reason, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// Resolver implements the exact, parent, create zone cascade.
type Resolver struct {
	provider domain.Provider
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for cascade decisions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a Resolver backed by the given provider.
func NewResolver(provider domain.Provider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the DNS provider the resolver writes to.
func (r *Resolver) Provider() domain.Provider {
	return r.provider
}

// Resolve finds or creates the zone for req.FQDN and adds one record.
//
// Each lookup step runs only when the previous one reported ErrNotFound.
// Any other lookup error is returned unchanged. The record is always
// appended, even when an identical one exists.
func (r *Resolver) Resolve(ctx context.Context, req ResolutionRequest) (*Resolution, error) {
	fqdn := normalizeDomain(req.FQDN)
	if err := ValidateHostname(fqdn); err != nil {
		return nil, err
	}
	if err := validateRecordType(req.Type); err != nil {
		return nil, err
	}
	value := strings.TrimSpace(req.Value)
	if req.Type == domain.RecordTypeCNAME {
		value = normalizeDomain(value)
	}
	if err := validateContent(req.Type, value); err != nil {
		return nil, err
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	zone, created, err := r.findOrCreateZone(ctx, fqdn)
	if err != nil {
		return nil, err
	}

	record, err := r.provider.AddRecord(ctx, *zone, domain.AddRecordOpts{
		Name:  fqdn,
		Type:  req.Type,
		Value: value,
		TTL:   ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add %s record for %s in zone %s: %w", req.Type, fqdn, zone.Name, err)
	}

	return &Resolution{Zone: *zone, Record: *record, Created: created}, nil
}

func (r *Resolver) findOrCreateZone(ctx context.Context, fqdn string) (*domain.Zone, bool, error) {
	zone, err := r.provider.FindZoneByName(ctx, fqdn)
	if err == nil {
		r.logger.Debug("zone resolved", "fqdn", fqdn, "zone", zone.Name, "step", "exact")
		return zone, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if parent, ok := ParentDomain(fqdn); ok {
		zone, err = r.provider.FindZoneByName(ctx, parent)
		if err == nil {
			r.logger.Debug("zone resolved", "fqdn", fqdn, "zone", zone.Name, "step", "parent")
			return zone, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	zone, err = r.provider.CreateZone(ctx, domain.CreateZoneOpts{
		Name:  fqdn,
		Email: "dnsmaster@" + fqdn,
		TTL:   DefaultTTL,
	})
	if err != nil {
		return nil, false, &ResolutionError{Reason: ZoneCreationFailed, FQDN: fqdn, Cause: err}
	}
	r.logger.Info("zone created", "fqdn", fqdn, "zone", zone.Name, "provider", r.provider.GetDisplayName())
	return zone, true, nil
}

// ParentDomain returns name with its leftmost label removed. Names
// without a dot have no parent.
func ParentDomain(name string) (string, bool) {
	_, parent, ok := strings.Cut(name, ".")
	if !ok || parent == "" {
		return "", false
	}
	return parent, true
}
