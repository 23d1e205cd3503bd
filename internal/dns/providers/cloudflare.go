package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/retry"
	"nathanbeddoewebdev/provctl/internal/services/auth"
)

const (
	cloudflareBaseURL    = "https://api.cloudflare.com/client/v4"
	cloudflareTimeout    = 30 * time.Second
	cloudflareTokenStore = "cloudflare"
)

// Compile-time check that CloudflareProvider satisfies domain.Provider.
var _ domain.Provider = (*CloudflareProvider)(nil)

// CloudflareProvider implements domain.Provider using the Cloudflare API v4.
// It authenticates via a scoped Account API Token with Zone:Edit and
// DNS:Edit permissions. Creating zones additionally needs the account ID.
type CloudflareProvider struct {
	token     string
	accountID string
	baseURL   string
	client    *http.Client
	retry     retry.Policy
}

// NewCloudflareProvider creates a CloudflareProvider with the given Account
// API Token. accountID may be empty when zones are never created.
func NewCloudflareProvider(token, accountID string) *CloudflareProvider {
	return &CloudflareProvider{
		token:     token,
		accountID: accountID,
		baseURL:   cloudflareBaseURL,
		client:    &http.Client{Timeout: cloudflareTimeout},
		retry:     retry.DefaultPolicy(),
	}
}

// RegisterCloudflare registers the Cloudflare provider factory with the DNS registry.
func RegisterCloudflare() {
	Register("cloudflare", func(store auth.Store, settings Settings) (domain.Provider, error) {
		token, err := store.GetToken(cloudflareTokenStore)
		if err != nil {
			return nil, fmt.Errorf("cloudflare auth: token not found (run 'provctl auth login cloudflare'): %w", err)
		}
		return NewCloudflareProvider(token, settings.CloudflareAccountID), nil
	})
}

// GetDisplayName returns the human-readable provider name.
func (c *CloudflareProvider) GetDisplayName() string {
	return "Cloudflare"
}

// --- API request/response types ---

// cfEnvelope is the standard Cloudflare API response wrapper.
type cfEnvelope[T any] struct {
	Success  bool      `json:"success"`
	Errors   []cfError `json:"errors"`
	Result   T         `json:"result"`
	Messages []cfError `json:"messages,omitempty"`
}

// cfError represents a single Cloudflare API error.
type cfError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// cfResultInfo holds pagination info from Cloudflare list responses.
type cfResultInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
}

// cfListEnvelope extends the envelope with pagination info.
type cfListEnvelope[T any] struct {
	Success    bool         `json:"success"`
	Errors     []cfError    `json:"errors"`
	Result     []T          `json:"result"`
	ResultInfo cfResultInfo `json:"result_info"`
}

type cfZone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type cfCreateZoneBody struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Account struct {
		ID string `json:"id"`
	} `json:"account"`
}

type cfDNSRecord struct {
	ID       string `json:"id"`
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
}

type cfCreateRecordBody struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl,omitempty"`
}

// --- HTTP helpers ---

// envelopeError extracts a single error from a Cloudflare response envelope.
// It maps known HTTP-level and API-level error codes to domain sentinels.
func envelopeError(success bool, errors []cfError, httpStatus int) error {
	if success {
		return nil
	}

	switch httpStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, cfErrorString(errors))
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, cfErrorString(errors))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, cfErrorString(errors))
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, cfErrorString(errors))
	}

	for _, e := range errors {
		msg := strings.ToLower(e.Message)
		switch {
		case e.Code == 9109 || e.Code == 10000 || strings.Contains(msg, "authentication"):
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, e.Message)
		case e.Code == 81044 || e.Code == 1001 || strings.Contains(msg, "not found"):
			return fmt.Errorf("%w: %s", domain.ErrNotFound, e.Message)
		case e.Code == 81057 || e.Code == 1061 || strings.Contains(msg, "already exists"):
			return fmt.Errorf("%w: %s", domain.ErrConflict, e.Message)
		}
	}

	return fmt.Errorf("cloudflare: %s", cfErrorString(errors))
}

// cfErrorString joins multiple Cloudflare errors into a single string.
func cfErrorString(errors []cfError) string {
	if len(errors) == 0 {
		return "unknown error"
	}
	msgs := make([]string, 0, len(errors))
	for _, e := range errors {
		msgs = append(msgs, fmt.Sprintf("[%d] %s", e.Code, e.Message))
	}
	return strings.Join(msgs, "; ")
}

// doJSONWithStatus sends a request and decodes the JSON response into out,
// returning the HTTP status code for error mapping. Transport failures are
// retried with backoff; API errors are not.
func (c *CloudflareProvider) doJSONWithStatus(ctx context.Context, method, path string, body any, out any) (int, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("cloudflare: failed to encode request: %w", err)
		}
		payload = data
	}

	var resp *http.Response
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("cloudflare: failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err = c.client.Do(req)
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
		return 0, fmt.Errorf("cloudflare: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("cloudflare: failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}

// zoneID returns the zone's ID, looking it up by name when the caller only
// knows the apex.
func (c *CloudflareProvider) zoneID(ctx context.Context, zone domain.Zone) (string, error) {
	if zone.ID != "" {
		return zone.ID, nil
	}
	found, err := c.FindZoneByName(ctx, zone.Name)
	if err != nil {
		return "", err
	}
	return found.ID, nil
}

// --- Provider implementation ---

// FindZoneByName returns the zone whose name equals name exactly.
func (c *CloudflareProvider) FindZoneByName(ctx context.Context, name string) (*domain.Zone, error) {
	var out cfListEnvelope[cfZone]
	path := "/zones?name=" + url.QueryEscape(name) + "&per_page=1"
	status, err := c.doJSONWithStatus(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to look up zone %q: %w", name, err)
	}
	if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
		return nil, fmt.Errorf("failed to look up zone %q: %w", name, apiErr)
	}

	for _, z := range out.Result {
		if strings.EqualFold(z.Name, name) {
			zone := cfToDomainZone(z)
			return &zone, nil
		}
	}
	return nil, fmt.Errorf("zone %q: %w", name, domain.ErrNotFound)
}

// CreateZone creates a full-setup zone in the configured account.
// Cloudflare manages the SOA contact itself, so opts.Email is not sent.
func (c *CloudflareProvider) CreateZone(ctx context.Context, opts domain.CreateZoneOpts) (*domain.Zone, error) {
	if c.accountID == "" {
		return nil, fmt.Errorf("cloudflare: creating zone %q requires an account ID (run 'provctl config set cloudflare-account-id <id>')", opts.Name)
	}

	body := cfCreateZoneBody{Name: opts.Name, Type: "full"}
	body.Account.ID = c.accountID

	var out cfEnvelope[cfZone]
	status, err := c.doJSONWithStatus(ctx, http.MethodPost, "/zones", body, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to create zone %q: %w", opts.Name, err)
	}
	if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
		return nil, fmt.Errorf("failed to create zone %q: %w", opts.Name, apiErr)
	}

	zone := cfToDomainZone(out.Result)
	zone.Email = opts.Email
	zone.TTL = opts.TTL
	return &zone, nil
}

// ListZones returns all zones in the Cloudflare account.
func (c *CloudflareProvider) ListZones(ctx context.Context) ([]domain.Zone, error) {
	var all []cfZone
	page := 1

	for {
		path := fmt.Sprintf("/zones?page=%d&per_page=50", page)
		var out cfListEnvelope[cfZone]
		status, err := c.doJSONWithStatus(ctx, http.MethodGet, path, nil, &out)
		if err != nil {
			return nil, fmt.Errorf("failed to list zones: %w", err)
		}
		if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
			return nil, fmt.Errorf("failed to list zones: %w", apiErr)
		}

		all = append(all, out.Result...)

		if page >= out.ResultInfo.TotalPages {
			break
		}
		page++
	}

	zones := make([]domain.Zone, 0, len(all))
	for _, z := range all {
		zones = append(zones, cfToDomainZone(z))
	}
	return zones, nil
}

// DeleteZone deletes the zone and every record in it.
func (c *CloudflareProvider) DeleteZone(ctx context.Context, zone domain.Zone) error {
	id, err := c.zoneID(ctx, zone)
	if err != nil {
		return err
	}

	var out cfEnvelope[struct {
		ID string `json:"id"`
	}]
	status, err := c.doJSONWithStatus(ctx, http.MethodDelete, "/zones/"+id, nil, &out)
	if err != nil {
		return fmt.Errorf("failed to delete zone %q: %w", zone.Name, err)
	}
	if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
		return fmt.Errorf("failed to delete zone %q: %w", zone.Name, apiErr)
	}
	return nil
}

// AddRecord creates a new DNS record in the zone.
func (c *CloudflareProvider) AddRecord(ctx context.Context, zone domain.Zone, opts domain.AddRecordOpts) (*domain.Record, error) {
	id, err := c.zoneID(ctx, zone)
	if err != nil {
		return nil, err
	}

	body := cfCreateRecordBody{
		Type:    string(opts.Type),
		Name:    opts.Name,
		Content: opts.Value,
		TTL:     opts.TTL,
	}

	path := fmt.Sprintf("/zones/%s/dns_records", id)
	var out cfEnvelope[cfDNSRecord]
	status, err := c.doJSONWithStatus(ctx, http.MethodPost, path, body, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to create record in %q: %w", zone.Name, err)
	}
	if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
		return nil, fmt.Errorf("failed to create record in %q: %w", zone.Name, apiErr)
	}

	rec := cfToDomainRecord(zone.Name, out.Result)
	return &rec, nil
}

// ListRecords returns all DNS records in the zone.
func (c *CloudflareProvider) ListRecords(ctx context.Context, zone domain.Zone) ([]domain.Record, error) {
	id, err := c.zoneID(ctx, zone)
	if err != nil {
		return nil, err
	}

	var all []cfDNSRecord
	page := 1

	for {
		path := fmt.Sprintf("/zones/%s/dns_records?page=%d&per_page=100", id, page)
		var out cfListEnvelope[cfDNSRecord]
		status, err := c.doJSONWithStatus(ctx, http.MethodGet, path, nil, &out)
		if err != nil {
			return nil, fmt.Errorf("failed to list records for %q: %w", zone.Name, err)
		}
		if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
			return nil, fmt.Errorf("failed to list records for %q: %w", zone.Name, apiErr)
		}

		all = append(all, out.Result...)

		if page >= out.ResultInfo.TotalPages {
			break
		}
		page++
	}

	records := make([]domain.Record, 0, len(all))
	for _, r := range all {
		records = append(records, cfToDomainRecord(zone.Name, r))
	}
	return records, nil
}

// DeleteRecord deletes a DNS record by its ID.
func (c *CloudflareProvider) DeleteRecord(ctx context.Context, zone domain.Zone, record domain.Record) error {
	id, err := c.zoneID(ctx, zone)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/zones/%s/dns_records/%s", id, record.ID)
	var out cfEnvelope[struct {
		ID string `json:"id"`
	}]
	status, err := c.doJSONWithStatus(ctx, http.MethodDelete, path, nil, &out)
	if err != nil {
		return fmt.Errorf("failed to delete record %q in %q: %w", record.ID, zone.Name, err)
	}
	if apiErr := envelopeError(out.Success, out.Errors, status); apiErr != nil {
		return fmt.Errorf("failed to delete record %q in %q: %w", record.ID, zone.Name, apiErr)
	}

	return nil
}

// --- Conversion helpers ---

func cfToDomainZone(z cfZone) domain.Zone {
	return domain.Zone{ID: z.ID, Name: z.Name, Status: z.Status}
}

func cfToDomainRecord(zoneName string, r cfDNSRecord) domain.Record {
	return domain.Record{
		ID:    r.ID,
		Zone:  zoneName,
		Name:  r.Name,
		Type:  domain.RecordType(r.Type),
		Value: r.Content,
		TTL:   r.TTL,
	}
}
