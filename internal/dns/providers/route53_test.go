package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/dns/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoute53 is an in-memory Route 53 with one level of record sets per zone.
type fakeRoute53 struct {
	zones   []r53types.HostedZone
	sets    map[string][]r53types.ResourceRecordSet
	changes []r53types.Change
	created []string
	deleted []string

	listErr error
}

func newFakeRoute53(zones ...string) *fakeRoute53 {
	f := &fakeRoute53{sets: map[string][]r53types.ResourceRecordSet{}}
	for i, z := range zones {
		id := "Z" + string(rune('A'+i))
		f.zones = append(f.zones, r53types.HostedZone{
			Id:   aws.String("/hostedzone/" + id),
			Name: aws.String(z + "."),
		})
		f.sets[id] = []r53types.ResourceRecordSet{
			{Name: aws.String(z + "."), Type: r53types.RRTypeNs, ResourceRecords: []r53types.ResourceRecord{{Value: aws.String("ns1.aws.")}}},
			{Name: aws.String(z + "."), Type: r53types.RRTypeSoa, ResourceRecords: []r53types.ResourceRecord{{Value: aws.String("soa")}}},
		}
	}
	return f
}

func (f *fakeRoute53) ListHostedZones(_ context.Context, _ *route53.ListHostedZonesInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &route53.ListHostedZonesOutput{HostedZones: f.zones}, nil
}

func (f *fakeRoute53) ListHostedZonesByName(_ context.Context, in *route53.ListHostedZonesByNameInput, _ ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// Mimic lexical ordering by returning every zone at or after the name.
	var out []r53types.HostedZone
	for _, hz := range f.zones {
		if strings.TrimSuffix(aws.ToString(hz.Name), ".") >= aws.ToString(in.DNSName) {
			out = append(out, hz)
		}
	}
	return &route53.ListHostedZonesByNameOutput{HostedZones: out}, nil
}

func (f *fakeRoute53) CreateHostedZone(_ context.Context, in *route53.CreateHostedZoneInput, _ ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error) {
	f.created = append(f.created, aws.ToString(in.CallerReference))
	hz := r53types.HostedZone{Id: aws.String("/hostedzone/ZNEW"), Name: aws.String(aws.ToString(in.Name) + ".")}
	f.zones = append(f.zones, hz)
	return &route53.CreateHostedZoneOutput{HostedZone: &hz}, nil
}

func (f *fakeRoute53) DeleteHostedZone(_ context.Context, in *route53.DeleteHostedZoneInput, _ ...func(*route53.Options)) (*route53.DeleteHostedZoneOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Id))
	return &route53.DeleteHostedZoneOutput{}, nil
}

func (f *fakeRoute53) ListResourceRecordSets(_ context.Context, in *route53.ListResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	sets := f.sets[aws.ToString(in.HostedZoneId)]
	if in.StartRecordName != nil {
		for _, s := range sets {
			if strings.TrimSuffix(aws.ToString(s.Name), ".") == aws.ToString(in.StartRecordName) && s.Type == in.StartRecordType {
				return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: []r53types.ResourceRecordSet{s}}, nil
			}
		}
		return &route53.ListResourceRecordSetsOutput{}, nil
	}
	return &route53.ListResourceRecordSetsOutput{ResourceRecordSets: sets}, nil
}

func (f *fakeRoute53) ChangeResourceRecordSets(_ context.Context, in *route53.ChangeResourceRecordSetsInput, _ ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	zoneID := aws.ToString(in.HostedZoneId)
	for _, c := range in.ChangeBatch.Changes {
		f.changes = append(f.changes, c)
		set := *c.ResourceRecordSet
		sets := f.sets[zoneID]
		idx := -1
		for i, s := range sets {
			if aws.ToString(s.Name) == aws.ToString(set.Name) && s.Type == set.Type {
				idx = i
			}
		}
		switch c.Action {
		case r53types.ChangeActionCreate:
			if idx >= 0 {
				return nil, &r53types.InvalidChangeBatch{Message: aws.String("already exists")}
			}
			sets = append(sets, set)
		case r53types.ChangeActionUpsert:
			if idx >= 0 {
				sets[idx] = set
			} else {
				sets = append(sets, set)
			}
		case r53types.ChangeActionDelete:
			if idx >= 0 {
				sets = append(sets[:idx], sets[idx+1:]...)
			}
		}
		f.sets[zoneID] = sets
	}
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func TestRoute53_FindZoneByName_ExactMatchOnly(t *testing.T) {
	p := &Route53Provider{client: newFakeRoute53("example.com", "example.org")}

	zone, err := p.FindZoneByName(context.Background(), "example.com.")
	require.NoError(t, err)
	assert.Equal(t, "ZA", zone.ID)
	assert.Equal(t, "example.com", zone.Name)

	// The lexical listing returns example.org first; it must not match.
	_, err = p.FindZoneByName(context.Background(), "example.net")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoute53_CreateZone(t *testing.T) {
	fake := newFakeRoute53()
	p := &Route53Provider{client: fake}

	zone, err := p.CreateZone(context.Background(), domain.CreateZoneOpts{Name: "app.example.com", Email: "dnsmaster@app.example.com", TTL: 300})
	require.NoError(t, err)
	assert.Equal(t, "ZNEW", zone.ID)
	assert.Equal(t, "app.example.com", zone.Name)
	assert.Equal(t, 300, zone.TTL)
	require.Len(t, fake.created, 1)
	assert.NotEmpty(t, fake.created[0], "caller reference must be set")
}

func TestRoute53_AddRecord_AppendsToExistingSet(t *testing.T) {
	fake := newFakeRoute53("example.com")
	p := &Route53Provider{client: fake}
	zone := domain.Zone{ID: "ZA", Name: "example.com"}

	_, err := p.AddRecord(context.Background(), zone, domain.AddRecordOpts{Name: "www.example.com", Type: domain.RecordTypeA, Value: "1.1.1.1", TTL: 300})
	require.NoError(t, err)
	rec, err := p.AddRecord(context.Background(), zone, domain.AddRecordOpts{Name: "www.example.com", Type: domain.RecordTypeA, Value: "2.2.2.2", TTL: 300})
	require.NoError(t, err)
	assert.Equal(t, "www.example.com|A|2.2.2.2", rec.ID)

	require.Len(t, fake.changes, 2)
	assert.Equal(t, r53types.ChangeActionCreate, fake.changes[0].Action)
	assert.Equal(t, r53types.ChangeActionUpsert, fake.changes[1].Action)
	assert.Len(t, fake.changes[1].ResourceRecordSet.ResourceRecords, 2)

	records, err := p.ListRecords(context.Background(), zone)
	require.NoError(t, err)
	var values []string
	for _, r := range records {
		if r.Type == domain.RecordTypeA {
			values = append(values, r.Value)
		}
	}
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2"}, values)
}

func TestRoute53_DeleteRecord_RemovesSingleValue(t *testing.T) {
	fake := newFakeRoute53("example.com")
	p := &Route53Provider{client: fake}
	zone := domain.Zone{ID: "ZA", Name: "example.com"}
	ctx := context.Background()

	_, _ = p.AddRecord(ctx, zone, domain.AddRecordOpts{Name: "www.example.com", Type: domain.RecordTypeA, Value: "1.1.1.1", TTL: 300})
	_, _ = p.AddRecord(ctx, zone, domain.AddRecordOpts{Name: "www.example.com", Type: domain.RecordTypeA, Value: "2.2.2.2", TTL: 300})

	require.NoError(t, p.DeleteRecord(ctx, zone, domain.Record{ID: "www.example.com|A|1.1.1.1"}))
	last := fake.changes[len(fake.changes)-1]
	assert.Equal(t, r53types.ChangeActionUpsert, last.Action)
	require.Len(t, last.ResourceRecordSet.ResourceRecords, 1)
	assert.Equal(t, "2.2.2.2", aws.ToString(last.ResourceRecordSet.ResourceRecords[0].Value))

	require.NoError(t, p.DeleteRecord(ctx, zone, domain.Record{ID: "www.example.com|A|2.2.2.2"}))
	assert.Equal(t, r53types.ChangeActionDelete, fake.changes[len(fake.changes)-1].Action)

	err := p.DeleteRecord(ctx, zone, domain.Record{ID: "www.example.com|A|2.2.2.2"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoute53_DeleteZone_KeepsNSAndSOAOutOfBatch(t *testing.T) {
	fake := newFakeRoute53("example.com")
	p := &Route53Provider{client: fake}
	zone := domain.Zone{ID: "ZA", Name: "example.com"}
	ctx := context.Background()

	_, err := p.AddRecord(ctx, zone, domain.AddRecordOpts{Name: "www.example.com", Type: domain.RecordTypeCNAME, Value: "lb.example.net", TTL: 300})
	require.NoError(t, err)
	fake.changes = nil

	require.NoError(t, p.DeleteZone(ctx, zone))
	require.Len(t, fake.changes, 1)
	assert.Equal(t, r53types.RRTypeCname, fake.changes[0].ResourceRecordSet.Type)
	assert.Equal(t, []string{"ZA"}, fake.deleted)
}

func TestMapRoute53Error(t *testing.T) {
	err := mapRoute53Error(&r53types.NoSuchHostedZone{Message: aws.String("gone")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = mapRoute53Error(&r53types.HostedZoneAlreadyExists{Message: aws.String("dup")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	plain := errors.New("boom")
	assert.Equal(t, plain, mapRoute53Error(plain))
	assert.NoError(t, mapRoute53Error(nil))
}

func TestParseRecordID(t *testing.T) {
	name, typ, value, err := parseRecordID("txt.example.com|TXT|v=spf1 a|b")
	require.NoError(t, err)
	assert.Equal(t, "txt.example.com", name)
	assert.Equal(t, domain.RecordTypeTXT, typ)
	assert.Equal(t, "v=spf1 a|b", value)

	_, _, _, err = parseRecordID("bogus")
	assert.Error(t, err)
}
