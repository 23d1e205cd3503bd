package domain

// RecordType represents a DNS record type.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeTXT   RecordType = "TXT"
	RecordTypeNS    RecordType = "NS"
	RecordTypeMX    RecordType = "MX"
	RecordTypeSOA   RecordType = "SOA"
)

// Record represents a single DNS record.
type Record struct {
	// ID is the provider-assigned record identifier.
	ID string `json:"id"`

	// Zone is the name of the zone this record belongs to (e.g. "example.com").
	Zone string `json:"zone"`

	// Name is the fully-qualified record name (e.g. "www.example.com").
	Name string `json:"name"`

	// Type is the DNS record type (A, AAAA, CNAME, etc.).
	Type RecordType `json:"type"`

	// Value is the record data (IP address, hostname, text, etc.).
	Value string `json:"value"`

	// TTL is the time-to-live in seconds.
	TTL int `json:"ttl"`
}

// Zone represents an authoritative DNS zone in the provider account.
type Zone struct {
	// ID is the provider-assigned zone identifier.
	ID string `json:"id"`

	// Name is the zone apex (e.g. "example.com"), without a trailing dot.
	Name string `json:"name"`

	// Status is the provider zone status, when reported.
	Status string `json:"status,omitempty"`

	// Email is the administrative contact, when the provider tracks one.
	Email string `json:"email,omitempty"`

	// TTL is the zone default TTL in seconds, when the provider tracks one.
	TTL int `json:"ttl,omitempty"`
}
