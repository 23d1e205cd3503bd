package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nathanbeddoewebdev/provctl/internal/dns/domain"
	"nathanbeddoewebdev/provctl/internal/retry"
	"nathanbeddoewebdev/provctl/internal/services/auth"

	"github.com/google/go-cmp/cmp"
)

// --- Test helpers ---

// newTestCloudflareProvider creates a CloudflareProvider pointed at the given test server.
func newTestCloudflareProvider(t *testing.T, serverURL string) *CloudflareProvider {
	t.Helper()
	p := NewCloudflareProvider("test-token", "acct-1")
	p.baseURL = serverURL
	p.retry = retry.Once()
	return p
}

// cfSuccessEnvelope returns a Cloudflare success envelope wrapping the given result.
func cfSuccessEnvelope(result any) map[string]any {
	return map[string]any{
		"success":  true,
		"errors":   []any{},
		"messages": []any{},
		"result":   result,
	}
}

// cfSuccessListEnvelope returns a Cloudflare success list envelope with pagination.
func cfSuccessListEnvelope(result []any, page, totalPages, totalCount int) map[string]any {
	return map[string]any{
		"success":  true,
		"errors":   []any{},
		"messages": []any{},
		"result":   result,
		"result_info": map[string]any{
			"page":        page,
			"per_page":    50,
			"total_pages": totalPages,
			"count":       len(result),
			"total_count": totalCount,
		},
	}
}

// cfErrorEnvelope returns a Cloudflare error envelope.
func cfErrorEnvelope(code int, message string) map[string]any {
	return map[string]any{
		"success":  false,
		"errors":   []any{map[string]any{"code": code, "message": message}},
		"messages": []any{},
		"result":   nil,
	}
}

func testCFZoneJSON(id, name, status string) map[string]any {
	return map[string]any{
		"id":     id,
		"name":   name,
		"status": status,
	}
}

func testCFRecordJSON(id, name, typ, content string, ttl int) map[string]any {
	return map[string]any{
		"id":        id,
		"zone_id":   "zone-123",
		"zone_name": "example.com",
		"name":      name,
		"type":      typ,
		"content":   content,
		"ttl":       ttl,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// newCFRouter creates a httptest.Server that routes requests based on
// "METHOD /path" keys, ignoring the query string.
func newCFRouter(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			writeJSON(w, http.StatusNotFound, cfErrorEnvelope(0, fmt.Sprintf("no handler for %s %s", r.Method, r.URL.String())))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// --- FindZoneByName tests ---

func TestCloudflare_FindZoneByName_Found(t *testing.T) {
	var gotQuery string
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("name")
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{
				testCFZoneJSON("zone-123", "example.com", "active"),
			}, 1, 1, 1))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	zone, err := p.FindZoneByName(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotQuery != "example.com" {
		t.Errorf("name query = %q, want %q", gotQuery, "example.com")
	}
	want := &domain.Zone{ID: "zone-123", Name: "example.com", Status: "active"}
	if diff := cmp.Diff(want, zone); diff != "" {
		t.Errorf("zone mismatch (-want +got):\n%s", diff)
	}
}

func TestCloudflare_FindZoneByName_NotFound(t *testing.T) {
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{}, 1, 1, 0))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	_, err := p.FindZoneByName(context.Background(), "missing.example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCloudflare_FindZoneByName_Unauthorized(t *testing.T) {
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, cfErrorEnvelope(9109, "Invalid access token"))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	_, err := p.FindZoneByName(context.Background(), "example.com")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCloudflare_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{}, 1, 1, 0))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)
	_, _ = p.ListZones(context.Background())

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-token")
	}
}

// --- CreateZone tests ---

func TestCloudflare_CreateZone_SendsAccount(t *testing.T) {
	var body map[string]any
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"POST /zones": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, cfSuccessEnvelope(testCFZoneJSON("zone-new", "app.example.com", "pending")))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	zone, err := p.CreateZone(context.Background(), domain.CreateZoneOpts{
		Name:  "app.example.com",
		Email: "dnsmaster@app.example.com",
		TTL:   300,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := &domain.Zone{ID: "zone-new", Name: "app.example.com", Status: "pending", Email: "dnsmaster@app.example.com", TTL: 300}
	if diff := cmp.Diff(want, zone); diff != "" {
		t.Errorf("zone mismatch (-want +got):\n%s", diff)
	}
	if body["name"] != "app.example.com" || body["type"] != "full" {
		t.Errorf("unexpected request body: %v", body)
	}
	account, _ := body["account"].(map[string]any)
	if account["id"] != "acct-1" {
		t.Errorf("account id = %v, want acct-1", account["id"])
	}
}

func TestCloudflare_CreateZone_RequiresAccountID(t *testing.T) {
	p := NewCloudflareProvider("test-token", "")

	_, err := p.CreateZone(context.Background(), domain.CreateZoneOpts{Name: "example.com"})
	if err == nil || !strings.Contains(err.Error(), "account ID") {
		t.Fatalf("expected account ID error, got %v", err)
	}
}

func TestCloudflare_CreateZone_Conflict(t *testing.T) {
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"POST /zones": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, cfErrorEnvelope(1061, "example.com already exists"))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	_, err := p.CreateZone(context.Background(), domain.CreateZoneOpts{Name: "example.com"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

// --- ListZones tests ---

func TestCloudflare_ListZones_Pagination(t *testing.T) {
	callCount := 0
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			callCount++
			if callCount == 1 {
				writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{
					testCFZoneJSON("zone-1", "example.com", "active"),
				}, 1, 2, 2))
				return
			}
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{
				testCFZoneJSON("zone-2", "another.io", "active"),
			}, 2, 2, 2))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	zones, err := p.ListZones(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []domain.Zone{
		{ID: "zone-1", Name: "example.com", Status: "active"},
		{ID: "zone-2", Name: "another.io", Status: "active"},
	}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Errorf("ListZones mismatch (-want +got):\n%s", diff)
	}
	if callCount != 2 {
		t.Errorf("expected 2 API calls for pagination, got %d", callCount)
	}
}

// --- DeleteZone tests ---

func TestCloudflare_DeleteZone_ByID(t *testing.T) {
	deleted := false
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"DELETE /zones/zone-123": func(w http.ResponseWriter, r *http.Request) {
			deleted = true
			writeJSON(w, http.StatusOK, cfSuccessEnvelope(map[string]any{"id": "zone-123"}))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	if err := p.DeleteZone(context.Background(), domain.Zone{ID: "zone-123", Name: "example.com"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !deleted {
		t.Error("expected DELETE /zones/zone-123 to be called")
	}
}

// --- Record tests ---

func TestCloudflare_AddRecord_LooksUpZoneByName(t *testing.T) {
	var body cfCreateRecordBody
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{
				testCFZoneJSON("zone-123", "example.com", "active"),
			}, 1, 1, 1))
		},
		"POST /zones/zone-123/dns_records": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, cfSuccessEnvelope(testCFRecordJSON("rec-9", body.Name, body.Type, body.Content, body.TTL)))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	rec, err := p.AddRecord(context.Background(), domain.Zone{Name: "example.com"}, domain.AddRecordOpts{
		Name:  "app.example.com",
		Type:  domain.RecordTypeA,
		Value: "203.0.113.7",
		TTL:   300,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := &domain.Record{ID: "rec-9", Zone: "example.com", Name: "app.example.com", Type: domain.RecordTypeA, Value: "203.0.113.7", TTL: 300}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestCloudflare_ListRecords(t *testing.T) {
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"GET /zones/zone-123/dns_records": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, cfSuccessListEnvelope([]any{
				testCFRecordJSON("rec-1", "example.com", "A", "1.2.3.4", 300),
				testCFRecordJSON("rec-2", "www.example.com", "CNAME", "example.com", 1),
			}, 1, 1, 2))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	records, err := p.ListRecords(context.Background(), domain.Zone{ID: "zone-123", Name: "example.com"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []domain.Record{
		{ID: "rec-1", Zone: "example.com", Name: "example.com", Type: domain.RecordTypeA, Value: "1.2.3.4", TTL: 300},
		{ID: "rec-2", Zone: "example.com", Name: "www.example.com", Type: domain.RecordTypeCNAME, Value: "example.com", TTL: 1},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("ListRecords mismatch (-want +got):\n%s", diff)
	}
}

func TestCloudflare_DeleteRecord_NotFound(t *testing.T) {
	srv := newCFRouter(t, map[string]http.HandlerFunc{
		"DELETE /zones/zone-123/dns_records/rec-1": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, cfErrorEnvelope(81044, "Record not found"))
		},
	})

	p := newTestCloudflareProvider(t, srv.URL)

	err := p.DeleteRecord(context.Background(), domain.Zone{ID: "zone-123", Name: "example.com"}, domain.Record{ID: "rec-1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Registration ---

func TestRegisterCloudflare_MissingToken(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	RegisterCloudflare()

	_, err := Get("cloudflare", auth.NewMockStore(), Settings{})
	if !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestRegisterCloudflare_PassesAccountID(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	RegisterCloudflare()

	store := auth.NewMockStore()
	store.SetToken("cloudflare", "tok")

	p, err := Get("CloudFlare", store, Settings{CloudflareAccountID: "acct-9"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cf, ok := p.(*CloudflareProvider)
	if !ok {
		t.Fatalf("expected *CloudflareProvider, got %T", p)
	}
	if cf.accountID != "acct-9" || cf.token != "tok" {
		t.Errorf("unexpected provider fields: account=%q token=%q", cf.accountID, cf.token)
	}
}
