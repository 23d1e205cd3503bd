package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/retry"
	"nathanbeddoewebdev/provctl/internal/services/auth"
)

const (
	porkbunBaseURL     = "https://api.porkbun.com/api/json/v3"
	porkbunTimeout     = 30 * time.Second
	porkbunAPIKeyStore = "porkbun-apikey"
	porkbunSecretStore = "porkbun-secretapikey"
)

// Compile-time check that PorkbunProvider satisfies domain.Provider.
var _ domain.Provider = (*PorkbunProvider)(nil)

// PorkbunProvider implements domain.Provider using the Porkbun API v3.
// Porkbun is a registrar: every registered domain is a zone, and zones
// cannot be created or deleted through the API.
type PorkbunProvider struct {
	apiKey    string
	secretKey string
	baseURL   string
	client    *http.Client
	retry     retry.Policy
}

// NewPorkbunProvider creates a PorkbunProvider with the given credentials.
func NewPorkbunProvider(apiKey, secretKey string) *PorkbunProvider {
	return &PorkbunProvider{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   porkbunBaseURL,
		client:    &http.Client{Timeout: porkbunTimeout},
		retry:     retry.DefaultPolicy(),
	}
}

// RegisterPorkbun registers the Porkbun provider factory with the DNS registry.
// It reads two separate keychain entries: porkbun-apikey and porkbun-secretapikey.
func RegisterPorkbun() {
	Register("porkbun", func(store auth.Store, _ Settings) (domain.Provider, error) {
		apiKey, err := store.GetToken(porkbunAPIKeyStore)
		if err != nil {
			return nil, fmt.Errorf("porkbun auth: api key not found (run 'provctl auth login porkbun'): %w", err)
		}
		secretKey, err := store.GetToken(porkbunSecretStore)
		if err != nil {
			return nil, fmt.Errorf("porkbun auth: secret key not found (run 'provctl auth login porkbun'): %w", err)
		}
		return NewPorkbunProvider(apiKey, secretKey), nil
	})
}

// GetDisplayName returns the human-readable provider name.
func (p *PorkbunProvider) GetDisplayName() string {
	return "Porkbun"
}

// --- API request/response types ---

// porkbunAuth is embedded in every request body.
type porkbunAuth struct {
	APIKey    string `json:"apikey"`
	SecretKey string `json:"secretapikey"`
}

// porkbunResponse is the base response shape for all Porkbun API calls.
type porkbunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r porkbunResponse) err() error {
	if r.Status != "SUCCESS" {
		return fmt.Errorf("porkbun: %s", r.Message)
	}
	return nil
}

type porkbunDomainRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	TTL     string `json:"ttl"`
}

// --- HTTP helpers ---

// post sends a POST request to the given path with the JSON body,
// and decodes the response into out. Throttled and gateway responses
// are retried under p.retry.
func (p *PorkbunProvider) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("porkbun: failed to encode request: %w", err)
	}

	var resp *http.Response
	err = retry.Do(ctx, p.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("porkbun: failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = p.client.Do(req)
		if err != nil {
			return err
		}
		if err := retry.CheckStatus(resp); err != nil {
			resp.Body.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("porkbun: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("porkbun: failed to decode response: %w", err)
	}

	return nil
}

func (p *PorkbunProvider) authBody() porkbunAuth {
	return porkbunAuth{APIKey: p.apiKey, SecretKey: p.secretKey}
}

// mapAPIError converts Porkbun error messages to domain sentinels where recognisable.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication"):
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, err.Error())
	case strings.Contains(msg, "not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "invalid domain"):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, err.Error())
	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, err.Error())
	case strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "conflict"):
		return fmt.Errorf("%w: %s", domain.ErrConflict, err.Error())
	}
	return err
}

// --- Provider implementation ---

// ListZones returns every domain in the Porkbun account as a zone.
func (p *PorkbunProvider) ListZones(ctx context.Context) ([]domain.Zone, error) {
	type apiDomain struct {
		Domain string `json:"domain"`
		Status string `json:"status"`
	}
	type response struct {
		porkbunResponse
		Domains []apiDomain `json:"domains"`
	}

	var out response
	if err := p.post(ctx, "/domain/listAll", p.authBody(), &out); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	if err := mapAPIError(out.err()); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	zones := make([]domain.Zone, 0, len(out.Domains))
	for _, d := range out.Domains {
		zones = append(zones, domain.Zone{ID: d.Domain, Name: d.Domain, Status: d.Status})
	}
	return zones, nil
}

// FindZoneByName returns the registered domain equal to name.
func (p *PorkbunProvider) FindZoneByName(ctx context.Context, name string) (*domain.Zone, error) {
	zones, err := p.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		if strings.EqualFold(z.Name, name) {
			return &z, nil
		}
	}
	return nil, fmt.Errorf("zone %q: %w", name, domain.ErrNotFound)
}

// CreateZone always fails: Porkbun zones come from domain registration.
func (p *PorkbunProvider) CreateZone(_ context.Context, opts domain.CreateZoneOpts) (*domain.Zone, error) {
	return nil, fmt.Errorf("porkbun: cannot create zone %q (register the domain first): %w", opts.Name, domain.ErrUnsupported)
}

// DeleteZone always fails: Porkbun zones are tied to domain registrations.
func (p *PorkbunProvider) DeleteZone(_ context.Context, zone domain.Zone) error {
	return fmt.Errorf("porkbun: cannot delete zone %q: %w", zone.Name, domain.ErrUnsupported)
}

// AddRecord creates a new DNS record in the zone.
func (p *PorkbunProvider) AddRecord(ctx context.Context, zone domain.Zone, opts domain.AddRecordOpts) (*domain.Record, error) {
	type request struct {
		porkbunAuth
		Name    string `json:"name,omitempty"`
		Type    string `json:"type"`
		Content string `json:"content"`
		TTL     string `json:"ttl,omitempty"`
	}
	type response struct {
		porkbunResponse
		ID int64 `json:"id"`
	}

	body := request{
		porkbunAuth: p.authBody(),
		Name:        subdomainOf(opts.Name, zone.Name),
		Type:        string(opts.Type),
		Content:     opts.Value,
	}
	if opts.TTL > 0 {
		body.TTL = strconv.Itoa(opts.TTL)
	}

	var out response
	if err := p.post(ctx, "/dns/create/"+zone.Name, body, &out); err != nil {
		return nil, fmt.Errorf("failed to create record in %q: %w", zone.Name, err)
	}
	if err := mapAPIError(out.err()); err != nil {
		return nil, fmt.Errorf("failed to create record in %q: %w", zone.Name, err)
	}

	return &domain.Record{
		ID:    strconv.FormatInt(out.ID, 10),
		Zone:  zone.Name,
		Name:  opts.Name,
		Type:  opts.Type,
		Value: opts.Value,
		TTL:   opts.TTL,
	}, nil
}

// ListRecords returns all DNS records for the zone.
func (p *PorkbunProvider) ListRecords(ctx context.Context, zone domain.Zone) ([]domain.Record, error) {
	type response struct {
		porkbunResponse
		Records []porkbunDomainRecord `json:"records"`
	}

	var out response
	if err := p.post(ctx, "/dns/retrieve/"+zone.Name, p.authBody(), &out); err != nil {
		return nil, fmt.Errorf("failed to list records for %q: %w", zone.Name, err)
	}
	if err := mapAPIError(out.err()); err != nil {
		return nil, fmt.Errorf("failed to list records for %q: %w", zone.Name, err)
	}

	records := make([]domain.Record, 0, len(out.Records))
	for _, r := range out.Records {
		ttl, _ := strconv.Atoi(r.TTL)
		records = append(records, domain.Record{
			ID:    r.ID,
			Zone:  zone.Name,
			Name:  r.Name,
			Type:  domain.RecordType(r.Type),
			Value: r.Content,
			TTL:   ttl,
		})
	}
	return records, nil
}

// DeleteRecord deletes a DNS record by its ID.
func (p *PorkbunProvider) DeleteRecord(ctx context.Context, zone domain.Zone, record domain.Record) error {
	var out porkbunResponse
	if err := p.post(ctx, "/dns/delete/"+zone.Name+"/"+record.ID, p.authBody(), &out); err != nil {
		return fmt.Errorf("failed to delete record %q in %q: %w", record.ID, zone.Name, err)
	}
	if err := mapAPIError(out.err()); err != nil {
		return fmt.Errorf("failed to delete record %q in %q: %w", record.ID, zone.Name, err)
	}
	return nil
}

// subdomainOf strips the zone apex from a fully-qualified name, returning
// "" for the apex itself.
func subdomainOf(fqdn, zone string) string {
	fqdn = strings.TrimSuffix(strings.ToLower(fqdn), ".")
	zone = strings.ToLower(zone)
	if fqdn == zone {
		return ""
	}
	return strings.TrimSuffix(fqdn, "."+zone)
}
