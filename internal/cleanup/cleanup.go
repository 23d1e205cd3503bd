// Package cleanup tears down resources in dependency order.
//
// The Cleaner walks a fixed kind order (servers first, networks last) and
// deletes every resource whose name starts with a prefix. It never stops
// on a failure: each failed delete or listing becomes a Failed outcome and
// the sweep moves on.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/converge"
	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/platform"
)

// KindObject labels outcomes for individual container objects.
const KindObject domain.Kind = "object"

// Order is the fixed sweep order. Containers include their objects and
// DNS zones include their records.
var Order = []domain.Kind{
	domain.KindServer,
	domain.KindContainer,
	domain.KindDNSZone,
	domain.KindLoadBalancer,
	domain.KindCertificate,
	domain.KindImage,
	domain.KindDatabase,
	domain.KindVolume,
	domain.KindNetwork,
}

// Action is what happened to one resource.
type Action int

const (
	Deleted Action = iota + 1
	WouldDelete
	Failed
	Skipped
)

func (a Action) String() string {
	switch a {
	case Deleted:
		return "deleted"
	case WouldDelete:
		return "would delete"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Outcome records the result for one resource, or for a whole kind when
// ID and Name are empty.
type Outcome struct {
	Kind   domain.Kind
	ID     string
	Name   string
	Action Action
	Cause  error
}

func (o Outcome) String() string {
	target := string(o.Kind)
	if o.Name != "" {
		target = fmt.Sprintf("%s %q", o.Kind, o.Name)
	}
	if o.Cause != nil {
		return fmt.Sprintf("%s %s: %v", o.Action, target, o.Cause)
	}
	return fmt.Sprintf("%s %s", o.Action, target)
}

// Plan selects what a Clean call removes.
type Plan struct {
	// Prefix selects resources by name. "" selects everything.
	Prefix string

	// Kinds limits the sweep. nil means every kind in Order; an empty
	// non-nil slice sweeps nothing. The sweep always follows Order
	// regardless of how Kinds is sorted.
	Kinds []domain.Kind

	DryRun bool
}

func (p Plan) includes(kind domain.Kind) bool {
	return p.Kinds == nil || slices.Contains(p.Kinds, kind)
}

func (p Plan) matches(name string) bool {
	return strings.HasPrefix(name, p.Prefix)
}

// Options configures a Cleaner.
type Options struct {
	// VolumeInterval and VolumeAttempts bound the wait for a volume to
	// become deletable. Zero values use 2s and 120.
	VolumeInterval time.Duration
	VolumeAttempts int

	Logger *slog.Logger

	// OnOutcome receives every outcome as it happens.
	OnOutcome func(Outcome)
}

// Cleaner deletes resources through a platform.Context.
type Cleaner struct {
	pc     *platform.Context
	poller *converge.Poller
	opts   Options
	logger *slog.Logger
}

// New returns a Cleaner for the providers in pc.
func New(pc *platform.Context, opts Options) *Cleaner {
	if opts.VolumeInterval == 0 {
		opts.VolumeInterval = 2 * time.Second
	}
	if opts.VolumeAttempts == 0 {
		opts.VolumeAttempts = 120
	}
	logger := opts.Logger
	if logger == nil {
		logger = pc.Log()
	}
	return &Cleaner{
		pc:     pc,
		poller: converge.New(pc, converge.WithLogger(logger)),
		opts:   opts,
		logger: logger,
	}
}

// Clean runs plan and returns every outcome in sweep order.
func (c *Cleaner) Clean(ctx context.Context, plan Plan) []Outcome {
	s := &sweep{Cleaner: c, plan: plan}
	for _, kind := range Order {
		if !plan.includes(kind) {
			continue
		}
		if err := ctx.Err(); err != nil {
			s.emit(Outcome{Kind: kind, Action: Failed, Cause: err})
			continue
		}
		s.run(ctx, kind)
	}
	return s.outcomes
}

// Summarize counts outcomes per action.
func Summarize(outcomes []Outcome) map[Action]int {
	counts := map[Action]int{}
	for _, o := range outcomes {
		counts[o.Action]++
	}
	return counts
}

type sweep struct {
	*Cleaner
	plan     Plan
	outcomes []Outcome
}

func (s *sweep) emit(o Outcome) {
	switch o.Action {
	case Failed:
		s.logger.Warn("cleanup failed", "kind", o.Kind, "name", o.Name, "id", o.ID, "error", o.Cause)
	default:
		s.logger.Info("cleanup", "action", o.Action.String(), "kind", o.Kind, "name", o.Name, "id", o.ID)
	}
	s.outcomes = append(s.outcomes, o)
	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(o)
	}
}

func (s *sweep) skip(kind domain.Kind) {
	s.emit(Outcome{Kind: kind, Action: Skipped, Cause: fmt.Errorf("no %s provider configured", kind)})
}

func (s *sweep) run(ctx context.Context, kind domain.Kind) {
	pc := s.pc
	switch kind {
	case domain.KindServer:
		if pc.Servers == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Servers.ListServers, pc.Servers.DeleteServer, nil)
	case domain.KindContainer:
		if pc.Containers == nil {
			s.skip(kind)
			return
		}
		s.containers(ctx)
	case domain.KindDNSZone:
		if pc.DNS == nil {
			s.skip(kind)
			return
		}
		s.dns(ctx)
	case domain.KindLoadBalancer:
		if pc.LoadBalancers == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.LoadBalancers.ListLoadBalancers, pc.LoadBalancers.DeleteLoadBalancer, nil)
	case domain.KindCertificate:
		if pc.Certificates == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Certificates.ListCertificates, pc.Certificates.DeleteCertificate, nil)
	case domain.KindImage:
		if pc.Images == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Images.ListImages, pc.Images.DeleteImage, func(h domain.Handle) bool {
			return h.Attr(domain.AttrImageType) != domain.ImageTypeBase
		})
	case domain.KindDatabase:
		if pc.Databases == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Databases.ListDatabases, pc.Databases.DeleteDatabase, nil)
	case domain.KindVolume:
		if pc.Volumes == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Volumes.ListVolumes, func(ctx context.Context, id string) error {
			if err := s.awaitVolume(ctx, id); err != nil {
				return err
			}
			return pc.Volumes.DeleteVolume(ctx, id)
		}, nil)
	case domain.KindNetwork:
		if pc.Networks == nil {
			s.skip(kind)
			return
		}
		s.handles(ctx, kind, pc.Networks.ListNetworks, pc.Networks.DeleteNetwork, func(h domain.Handle) bool {
			return h.Bool(domain.AttrIsolated)
		})
	}
}

// handles lists one kind, filters by prefix and extra, and deletes.
func (s *sweep) handles(
	ctx context.Context,
	kind domain.Kind,
	list func(context.Context) ([]domain.Handle, error),
	del func(context.Context, string) error,
	extra func(domain.Handle) bool,
) {
	items, err := list(ctx)
	if err != nil {
		s.emit(Outcome{Kind: kind, Action: Failed, Cause: fmt.Errorf("list: %w", err)})
		return
	}
	for _, h := range items {
		if !s.plan.matches(h.Name) || (extra != nil && !extra(h)) {
			continue
		}
		s.delete(kind, h.ID, h.Name, func() error { return del(ctx, h.ID) })
	}
}

func (s *sweep) delete(kind domain.Kind, id, name string, del func() error) bool {
	if s.plan.DryRun {
		s.emit(Outcome{Kind: kind, ID: id, Name: name, Action: WouldDelete})
		return true
	}
	if err := del(); err != nil {
		s.emit(Outcome{Kind: kind, ID: id, Name: name, Action: Failed, Cause: err})
		return false
	}
	s.emit(Outcome{Kind: kind, ID: id, Name: name, Action: Deleted})
	return true
}

// awaitVolume waits until the volume is available or in error, the two
// states in which it can be deleted.
func (s *sweep) awaitVolume(ctx context.Context, id string) error {
	_, err := s.poller.Await(ctx, converge.VolumeDeletable(
		[]domain.Handle{{ID: id, Kind: domain.KindVolume}},
		s.opts.VolumeInterval,
		s.opts.VolumeAttempts,
	))
	return err
}

// containers empties and removes matching containers. A container is
// only deleted after a re-read confirms it holds no objects.
func (s *sweep) containers(ctx context.Context) {
	api := s.pc.Containers
	items, err := api.ListContainers(ctx)
	if err != nil {
		s.emit(Outcome{Kind: domain.KindContainer, Action: Failed, Cause: fmt.Errorf("list: %w", err)})
		return
	}
	for _, ctr := range items {
		if !s.plan.matches(ctr.Name) {
			continue
		}

		objects, err := api.ListObjects(ctx, ctr.Name)
		if err != nil {
			s.emit(Outcome{Kind: domain.KindContainer, ID: ctr.ID, Name: ctr.Name, Action: Failed, Cause: fmt.Errorf("list objects: %w", err)})
			continue
		}
		for _, obj := range objects {
			s.delete(KindObject, obj.Key, ctr.Name+"/"+obj.Key, func() error {
				return api.DeleteObject(ctx, ctr.Name, obj.Key)
			})
		}

		s.delete(domain.KindContainer, ctr.ID, ctr.Name, func() error {
			fresh, err := api.GetContainer(ctx, ctr.Name)
			if err != nil {
				return err
			}
			if n, ok := fresh.Int(domain.AttrObjectCount); !ok || n != 0 {
				return fmt.Errorf("container still holds objects: %w", domain.ErrConflict)
			}
			return api.DeleteContainer(ctx, ctr.Name)
		})
	}
}

// dns deletes matching zones whole, and matching records inside zones
// that do not match themselves.
func (s *sweep) dns(ctx context.Context) {
	api := s.pc.DNS
	zones, err := api.ListZones(ctx)
	if err != nil {
		s.emit(Outcome{Kind: domain.KindDNSZone, Action: Failed, Cause: fmt.Errorf("list: %w", err)})
		return
	}
	for _, zone := range zones {
		if s.plan.matches(zone.Name) {
			s.delete(domain.KindDNSZone, zone.ID, zone.Name, func() error {
				return api.DeleteZone(ctx, zone)
			})
			continue
		}

		records, err := api.ListRecords(ctx, zone)
		if err != nil {
			s.emit(Outcome{Kind: domain.KindDNSRecord, ID: zone.ID, Name: zone.Name, Action: Failed, Cause: fmt.Errorf("list records: %w", err)})
			continue
		}
		for _, rec := range records {
			if rec.Type == dnsdomain.RecordTypeNS || rec.Type == dnsdomain.RecordTypeSOA {
				continue
			}
			if !s.plan.matches(rec.Name) {
				continue
			}
			s.delete(domain.KindDNSRecord, rec.ID, rec.Name, func() error {
				return api.DeleteRecord(ctx, zone, rec)
			})
		}
	}
}
