package platformtest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	dnsdomain "nathanbeddoewebdev/provctl/internal/dns/domain"
)

// DNS is an in-memory DNS provider.
type DNS struct {
	mu      sync.Mutex
	calls   []string
	nextID  int
	zones   []dnsdomain.Zone
	records map[string][]dnsdomain.Record

	// Errors makes the named operation fail.
	Errors map[string]error
}

var _ dnsdomain.Provider = (*DNS)(nil)

// NewDNS returns a provider holding the given zones.
func NewDNS(zones ...string) *DNS {
	d := &DNS{records: map[string][]dnsdomain.Record{}, Errors: map[string]error{}}
	for _, z := range zones {
		d.nextID++
		d.zones = append(d.zones, dnsdomain.Zone{ID: "zone-" + strconv.Itoa(d.nextID), Name: z})
	}
	return d
}

// Calls returns the operations performed so far.
func (d *DNS) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// Records returns the records of zone.
func (d *DNS) Records(zone string) []dnsdomain.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.records[zone])
}

// HasZone reports whether zone exists.
func (d *DNS) HasZone(zone string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.ContainsFunc(d.zones, func(z dnsdomain.Zone) bool { return z.Name == zone })
}

// SeedRecord adds a record without recording a call.
func (d *DNS) SeedRecord(zone, name string, typ dnsdomain.RecordType, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.records[zone] = append(d.records[zone], dnsdomain.Record{
		ID: "rec-" + strconv.Itoa(d.nextID), Zone: zone, Name: name, Type: typ, Value: value, TTL: 300,
	})
}

func (d *DNS) record(op, arg string) error {
	d.calls = append(d.calls, op+" "+arg)
	return d.Errors[op]
}

func (d *DNS) GetDisplayName() string { return "Fake DNS" }

func (d *DNS) FindZoneByName(_ context.Context, name string) (*dnsdomain.Zone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("FindZoneByName", name); err != nil {
		return nil, err
	}
	for _, z := range d.zones {
		if strings.EqualFold(z.Name, name) {
			return &z, nil
		}
	}
	return nil, fmt.Errorf("zone %s: %w", name, dnsdomain.ErrNotFound)
}

func (d *DNS) CreateZone(_ context.Context, opts dnsdomain.CreateZoneOpts) (*dnsdomain.Zone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateZone", opts.Name); err != nil {
		return nil, err
	}
	d.nextID++
	z := dnsdomain.Zone{ID: "zone-" + strconv.Itoa(d.nextID), Name: opts.Name, Email: opts.Email, TTL: opts.TTL}
	d.zones = append(d.zones, z)
	return &z, nil
}

func (d *DNS) ListZones(context.Context) ([]dnsdomain.Zone, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("ListZones", ""); err != nil {
		return nil, err
	}
	return slices.Clone(d.zones), nil
}

func (d *DNS) DeleteZone(_ context.Context, zone dnsdomain.Zone) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("DeleteZone", zone.Name); err != nil {
		return err
	}
	d.zones = slices.DeleteFunc(d.zones, func(z dnsdomain.Zone) bool { return z.ID == zone.ID })
	delete(d.records, zone.Name)
	return nil
}

func (d *DNS) AddRecord(_ context.Context, zone dnsdomain.Zone, opts dnsdomain.AddRecordOpts) (*dnsdomain.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("AddRecord", fmt.Sprintf("%s %s %s", opts.Name, opts.Type, opts.Value)); err != nil {
		return nil, err
	}
	d.nextID++
	r := dnsdomain.Record{
		ID: "rec-" + strconv.Itoa(d.nextID), Zone: zone.Name, Name: opts.Name, Type: opts.Type, Value: opts.Value, TTL: opts.TTL,
	}
	d.records[zone.Name] = append(d.records[zone.Name], r)
	return &r, nil
}

func (d *DNS) ListRecords(_ context.Context, zone dnsdomain.Zone) ([]dnsdomain.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("ListRecords", zone.Name); err != nil {
		return nil, err
	}
	return slices.Clone(d.records[zone.Name]), nil
}

func (d *DNS) DeleteRecord(_ context.Context, zone dnsdomain.Zone, record dnsdomain.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("DeleteRecord", record.Name); err != nil {
		return err
	}
	d.records[zone.Name] = slices.DeleteFunc(d.records[zone.Name], func(r dnsdomain.Record) bool { return r.ID == record.ID })
	return nil
}
