package domain

import "context"

// Provider is the interface that DNS providers must implement.
// Lookups that find nothing return an error wrapping ErrNotFound.
type Provider interface {
	// GetDisplayName returns the human-readable provider name (e.g. "Cloudflare").
	GetDisplayName() string

	// FindZoneByName returns the zone whose apex equals name exactly.
	FindZoneByName(ctx context.Context, name string) (*Zone, error)

	// CreateZone creates a new zone.
	CreateZone(ctx context.Context, opts CreateZoneOpts) (*Zone, error)

	// ListZones returns all zones in the account.
	ListZones(ctx context.Context) ([]Zone, error)

	// DeleteZone deletes a zone together with all of its records.
	DeleteZone(ctx context.Context, zone Zone) error

	// AddRecord appends a record to the zone. It never deduplicates.
	AddRecord(ctx context.Context, zone Zone, opts AddRecordOpts) (*Record, error)

	// ListRecords returns all records in the zone.
	ListRecords(ctx context.Context, zone Zone) ([]Record, error)

	// DeleteRecord deletes a single record.
	DeleteRecord(ctx context.Context, zone Zone, record Record) error
}
