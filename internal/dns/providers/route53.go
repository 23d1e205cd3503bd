package providers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"nathanbeddoewebdev/provctl/internal/awsconf"
	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

const route53TokenStore = "aws"

// route53API is the subset of the Route 53 client used by the provider.
type route53API interface {
	ListHostedZones(ctx context.Context, in *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListHostedZonesByName(ctx context.Context, in *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	CreateHostedZone(ctx context.Context, in *route53.CreateHostedZoneInput, optFns ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error)
	DeleteHostedZone(ctx context.Context, in *route53.DeleteHostedZoneInput, optFns ...func(*route53.Options)) (*route53.DeleteHostedZoneOutput, error)
	ListResourceRecordSets(ctx context.Context, in *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Compile-time check that Route53Provider satisfies domain.Provider.
var _ domain.Provider = (*Route53Provider)(nil)

// Route53Provider implements domain.Provider on Amazon Route 53.
//
// Route 53 groups values into record sets keyed by name and type. Each
// value is surfaced as its own domain.Record whose ID is "name|type|value".
type Route53Provider struct {
	client route53API
}

// NewRoute53Provider wraps an existing Route 53 client.
func NewRoute53Provider(client *route53.Client) *Route53Provider {
	return &Route53Provider{client: client}
}

// RegisterRoute53 registers the Route 53 factory with the DNS registry.
// The "aws" store entry holds ACCESS_KEY:SECRET_KEY; without it the SDK's
// default credential chain is used.
func RegisterRoute53() {
	Register("route53", func(store auth.Store, settings Settings) (domain.Provider, error) {
		var keys awsconf.KeyPair
		if raw, err := store.GetToken(route53TokenStore); err == nil {
			keys, err = awsconf.ParseKeyPair(raw)
			if err != nil {
				return nil, fmt.Errorf("route53 auth: %w", err)
			}
		} else if !errors.Is(err, auth.ErrTokenNotFound) {
			return nil, fmt.Errorf("route53 auth: %w", err)
		}

		cfg, err := awsconf.Load(context.Background(), settings.AWSRegion, keys)
		if err != nil {
			return nil, fmt.Errorf("route53: %w", err)
		}
		return NewRoute53Provider(route53.NewFromConfig(cfg)), nil
	})
}

// GetDisplayName returns the human-readable provider name.
func (r *Route53Provider) GetDisplayName() string {
	return "Amazon Route 53"
}

func (r *Route53Provider) FindZoneByName(ctx context.Context, name string) (*domain.Zone, error) {
	name = trimDot(name)
	out, err := r.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(name),
		MaxItems: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find zone %q: %w", name, mapRoute53Error(err))
	}
	// ListHostedZonesByName returns zones sorted from DNSName onwards, so
	// the first entry must still be compared.
	for _, hz := range out.HostedZones {
		if strings.EqualFold(trimDot(aws.ToString(hz.Name)), name) {
			z := toDomainZone(hz)
			return &z, nil
		}
	}
	return nil, fmt.Errorf("zone %q: %w", name, domain.ErrNotFound)
}

func (r *Route53Provider) CreateZone(ctx context.Context, opts domain.CreateZoneOpts) (*domain.Zone, error) {
	name := trimDot(opts.Name)
	out, err := r.client.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(name),
		CallerReference: aws.String(uuid.NewString()),
		HostedZoneConfig: &r53types.HostedZoneConfig{
			Comment: aws.String("managed by provctl; contact " + opts.Email),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zone %q: %w", name, mapRoute53Error(err))
	}
	if out.HostedZone == nil {
		return nil, fmt.Errorf("failed to create zone %q: empty response", name)
	}

	z := toDomainZone(*out.HostedZone)
	z.Email = opts.Email
	z.TTL = opts.TTL
	return &z, nil
}

func (r *Route53Provider) ListZones(ctx context.Context) ([]domain.Zone, error) {
	var (
		zones  []domain.Zone
		marker *string
	)
	for {
		out, err := r.client.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("failed to list zones: %w", mapRoute53Error(err))
		}
		for _, hz := range out.HostedZones {
			zones = append(zones, toDomainZone(hz))
		}
		if !out.IsTruncated || out.NextMarker == nil {
			return zones, nil
		}
		marker = out.NextMarker
	}
}

// DeleteZone removes every record set except NS and SOA, then the zone.
func (r *Route53Provider) DeleteZone(ctx context.Context, zone domain.Zone) error {
	sets, err := r.listRecordSets(ctx, zone.ID)
	if err != nil {
		return fmt.Errorf("failed to delete zone %q: %w", zone.Name, err)
	}

	var changes []r53types.Change
	for _, set := range sets {
		if set.Type == r53types.RRTypeNs || set.Type == r53types.RRTypeSoa {
			continue
		}
		changes = append(changes, r53types.Change{
			Action:            r53types.ChangeActionDelete,
			ResourceRecordSet: &set,
		})
	}
	if len(changes) > 0 {
		if err := r.change(ctx, zone.ID, changes...); err != nil {
			return fmt.Errorf("failed to delete records of zone %q: %w", zone.Name, err)
		}
	}

	if _, err := r.client.DeleteHostedZone(ctx, &route53.DeleteHostedZoneInput{Id: aws.String(zone.ID)}); err != nil {
		return fmt.Errorf("failed to delete zone %q: %w", zone.Name, mapRoute53Error(err))
	}
	return nil
}

// AddRecord appends a value to the record set for (name, type), creating
// the set when absent. An existing identical value is kept once.
func (r *Route53Provider) AddRecord(ctx context.Context, zone domain.Zone, opts domain.AddRecordOpts) (*domain.Record, error) {
	rrType, err := r53RecordType(opts.Type)
	if err != nil {
		return nil, err
	}
	name := trimDot(opts.Name)

	existing, err := r.findRecordSet(ctx, zone.ID, name, rrType)
	if err != nil {
		return nil, fmt.Errorf("failed to add record %q: %w", name, err)
	}

	set := r53types.ResourceRecordSet{
		Name: aws.String(name),
		Type: rrType,
		TTL:  aws.Int64(int64(opts.TTL)),
	}
	action := r53types.ChangeActionCreate
	if existing != nil {
		action = r53types.ChangeActionUpsert
		set.ResourceRecords = existing.ResourceRecords
	}
	if !hasValue(set.ResourceRecords, opts.Value) {
		set.ResourceRecords = append(set.ResourceRecords, r53types.ResourceRecord{Value: aws.String(opts.Value)})
	}

	if err := r.change(ctx, zone.ID, r53types.Change{Action: action, ResourceRecordSet: &set}); err != nil {
		return nil, fmt.Errorf("failed to add record %q: %w", name, err)
	}

	return &domain.Record{
		ID:    recordID(name, opts.Type, opts.Value),
		Zone:  zone.Name,
		Name:  name,
		Type:  opts.Type,
		Value: opts.Value,
		TTL:   opts.TTL,
	}, nil
}

func (r *Route53Provider) ListRecords(ctx context.Context, zone domain.Zone) ([]domain.Record, error) {
	sets, err := r.listRecordSets(ctx, zone.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %q: %w", zone.Name, err)
	}

	var records []domain.Record
	for _, set := range sets {
		name := trimDot(aws.ToString(set.Name))
		typ := domain.RecordType(set.Type)
		for _, rr := range set.ResourceRecords {
			value := aws.ToString(rr.Value)
			records = append(records, domain.Record{
				ID:    recordID(name, typ, value),
				Zone:  zone.Name,
				Name:  name,
				Type:  typ,
				Value: value,
				TTL:   int(aws.ToInt64(set.TTL)),
			})
		}
	}
	return records, nil
}

// DeleteRecord removes one value from its record set. The set itself is
// deleted when that was its last value.
func (r *Route53Provider) DeleteRecord(ctx context.Context, zone domain.Zone, record domain.Record) error {
	name, typ, value, err := parseRecordID(record.ID)
	if err != nil {
		return err
	}
	rrType, err := r53RecordType(typ)
	if err != nil {
		return err
	}

	set, err := r.findRecordSet(ctx, zone.ID, name, rrType)
	if err != nil {
		return fmt.Errorf("failed to delete record %q: %w", name, err)
	}
	if set == nil || !hasValue(set.ResourceRecords, value) {
		return fmt.Errorf("record %q: %w", record.ID, domain.ErrNotFound)
	}

	change := r53types.Change{Action: r53types.ChangeActionDelete, ResourceRecordSet: set}
	if len(set.ResourceRecords) > 1 {
		remaining := *set
		remaining.ResourceRecords = slices.DeleteFunc(slices.Clone(set.ResourceRecords), func(rr r53types.ResourceRecord) bool {
			return aws.ToString(rr.Value) == value
		})
		change = r53types.Change{Action: r53types.ChangeActionUpsert, ResourceRecordSet: &remaining}
	}

	if err := r.change(ctx, zone.ID, change); err != nil {
		return fmt.Errorf("failed to delete record %q: %w", name, err)
	}
	return nil
}

// --- helpers ---

func (r *Route53Provider) change(ctx context.Context, zoneID string, changes ...r53types.Change) error {
	_, err := r.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch:  &r53types.ChangeBatch{Changes: changes},
	})
	return mapRoute53Error(err)
}

func (r *Route53Provider) listRecordSets(ctx context.Context, zoneID string) ([]r53types.ResourceRecordSet, error) {
	in := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(zoneID)}
	var sets []r53types.ResourceRecordSet
	for {
		out, err := r.client.ListResourceRecordSets(ctx, in)
		if err != nil {
			return nil, mapRoute53Error(err)
		}
		sets = append(sets, out.ResourceRecordSets...)
		if !out.IsTruncated {
			return sets, nil
		}
		in.StartRecordName = out.NextRecordName
		in.StartRecordType = out.NextRecordType
		in.StartRecordIdentifier = out.NextRecordIdentifier
	}
}

// findRecordSet returns the record set for (name, type), or nil.
func (r *Route53Provider) findRecordSet(ctx context.Context, zoneID, name string, rrType r53types.RRType) (*r53types.ResourceRecordSet, error) {
	out, err := r.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: rrType,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, mapRoute53Error(err)
	}
	for _, set := range out.ResourceRecordSets {
		if strings.EqualFold(trimDot(aws.ToString(set.Name)), name) && set.Type == rrType {
			return &set, nil
		}
	}
	return nil, nil
}

func toDomainZone(hz r53types.HostedZone) domain.Zone {
	return domain.Zone{
		ID:     strings.TrimPrefix(aws.ToString(hz.Id), "/hostedzone/"),
		Name:   trimDot(aws.ToString(hz.Name)),
		Status: "active",
	}
}

func hasValue(rrs []r53types.ResourceRecord, value string) bool {
	return slices.ContainsFunc(rrs, func(rr r53types.ResourceRecord) bool {
		return aws.ToString(rr.Value) == value
	})
}

func recordID(name string, typ domain.RecordType, value string) string {
	return name + "|" + string(typ) + "|" + value
}

func parseRecordID(id string) (name string, typ domain.RecordType, value string, err error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid route53 record ID %q", id)
	}
	return parts[0], domain.RecordType(parts[1]), parts[2], nil
}

func trimDot(s string) string {
	return strings.ToLower(strings.TrimSuffix(s, "."))
}

// r53RecordType maps a record type to the Route 53 RRType.
func r53RecordType(t domain.RecordType) (r53types.RRType, error) {
	switch t {
	case domain.RecordTypeA:
		return r53types.RRTypeA, nil
	case domain.RecordTypeAAAA:
		return r53types.RRTypeAaaa, nil
	case domain.RecordTypeCNAME:
		return r53types.RRTypeCname, nil
	case domain.RecordTypeTXT:
		return r53types.RRTypeTxt, nil
	case domain.RecordTypeMX:
		return r53types.RRTypeMx, nil
	case domain.RecordTypeNS:
		return r53types.RRTypeNs, nil
	}
	return "", fmt.Errorf("route53: unsupported record type %q", t)
}

// mapRoute53Error converts Route 53 errors to domain sentinels.
func mapRoute53Error(err error) error {
	if err == nil {
		return nil
	}

	var noZone *r53types.NoSuchHostedZone
	if errors.As(err, &noZone) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, err.Error())
	}
	var exists *r53types.HostedZoneAlreadyExists
	if errors.As(err, &exists) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, err.Error())
	}
	var notEmpty *r53types.HostedZoneNotEmpty
	if errors.As(err, &notEmpty) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, err.Error())
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidClientTokenId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, err.Error())
		case "Throttling", "PriorRequestNotComplete":
			return fmt.Errorf("%w: %s", domain.ErrRateLimited, err.Error())
		}
	}
	return err
}
