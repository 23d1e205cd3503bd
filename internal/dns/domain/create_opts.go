package domain

// CreateZoneOpts holds the parameters for creating a new DNS zone.
type CreateZoneOpts struct {
	// Name is the zone apex. Required.
	Name string

	// Email is the administrative contact (e.g. "dnsmaster@example.com").
	// Providers that have no such concept ignore it.
	Email string

	// TTL is the default TTL in seconds.
	TTL int
}

// AddRecordOpts holds the parameters for appending a DNS record to a zone.
type AddRecordOpts struct {
	// Name is the fully-qualified record name. Required.
	Name string

	// Type is the DNS record type. Required.
	Type RecordType

	// Value is the record data. Required.
	Value string

	// TTL is the time-to-live in seconds.
	TTL int
}
