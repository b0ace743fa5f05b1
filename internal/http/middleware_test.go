package http

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), nil)

	res, err := env.http.Client().Get(env.http.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if _, err := uuid.Parse(res.Header.Get(requestIDHeader)); err != nil {
		t.Fatalf("generated request id %q: %v", res.Header.Get(requestIDHeader), err)
	}
	if res.Header.Get("X-Content-Type-Options") != "nosniff" || res.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("security headers missing: %v", res.Header)
	}

	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	res, err = env.http.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.Header.Get(requestIDHeader) != id {
		t.Fatalf("request id not propagated: %q", res.Header.Get(requestIDHeader))
	}

	req, _ = http.NewRequest(http.MethodGet, env.http.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	res, err = env.http.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get(requestIDHeader); got == "not-a-uuid" || got == "" {
		t.Fatalf("invalid request id handled as %q", got)
	}
}

func TestRateLimitMutations(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitPerMin = 2
	env := newTestEnv(t, cfg, nil)

	body := `{"description":"Coffee","amount":1}`
	for i := 0; i < 2; i++ {
		if resp, got := doJSON(t, env, http.MethodPost, "/api/transactions", body); resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d: %d %+v", i, resp.StatusCode, got)
		}
	}
	resp, got := doJSON(t, env, http.MethodPost, "/api/transactions", body)
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") != "60" {
		t.Fatalf("third request = %d %+v", resp.StatusCode, got)
	}
	if got.Message != "Rate limit exceeded. Please try again later." {
		t.Fatalf("message = %q", got.Message)
	}
	if env.ledger.Len() != 2 {
		t.Fatalf("limited request reached the ledger")
	}

	// reads are not limited
	if resp, _ := doJSON(t, env, http.MethodGet, "/api/transactions", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("read status = %d", resp.StatusCode)
	}
	if rl, _ := env.srv.metrics.snapshot(); rl != 1 {
		t.Fatalf("rate limit hits = %d", rl)
	}
}

func TestRateLimiterWindowAndCleanup(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1)
	rl.now = func() time.Time { return now }

	if !rl.allow("10.0.0.1", nil) {
		t.Fatal("first request denied")
	}
	if rl.allow("10.0.0.1", nil) {
		t.Fatal("second request within the window allowed")
	}
	if !rl.allow("10.0.0.2", nil) {
		t.Fatal("other clients share the budget")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("10.0.0.1", nil) {
		t.Fatal("window did not reset")
	}

	now = now.Add(11 * time.Minute)
	rl.allow("10.0.0.3", nil)
	if removed := rl.CleanExpired(); removed != 2 {
		t.Fatalf("CleanExpired removed %d, want 2", removed)
	}
	if len(rl.clients) != 1 {
		t.Fatalf("clients left = %d", len(rl.clients))
	}
}

func TestClientIP(t *testing.T) {
	proxies := proxyList{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	}
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"direct", "203.0.113.9:5000", nil, "203.0.113.9"},
		{"untrusted forwarder ignored", "203.0.113.9:5000", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9"},
		{"trusted forwarder", "10.1.2.3:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.1.2.3"}, "198.51.100.1"},
		{"spoofed left entry skipped", "10.1.2.3:5000", map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.1"}, "198.51.100.1"},
		{"trusted real ip", "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"ipv6 loopback proxy", "[::1]:5000", map[string]string{"X-Real-IP": "2001:db8::5"}, "2001:db8::5"},
		{"garbage forwarded", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "nope"}, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := proxies.clientIP(r); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5000"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := (proxyList{}).clientIP(r); got != "10.1.2.3" {
		t.Fatalf("no trusted proxies: got %q", got)
	}
}

func TestSuspicionReason(t *testing.T) {
	jsonPost := func(ct string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(`{"description":"Coffee","amount":1}`))
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		return r
	}
	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"list", httptest.NewRequest(http.MethodGet, "/api/transactions", nil), ""},
		{"json create", jsonPost("application/json; charset=utf-8"), ""},
		{"empty delete", httptest.NewRequest(http.MethodDelete, "/api/transactions/abc", nil), ""},
		{"export", httptest.NewRequest(http.MethodGet, "/export/csv", nil), ""},
		{"category with spaces", httptest.NewRequest(http.MethodGet, "/api/transactions/category/Food%20%26%20Dining", nil), ""},
		{"dotfile outside routes", httptest.NewRequest(http.MethodGet, "/.env", nil), ""},
		{"form create", jsonPost("application/x-www-form-urlencoded"), "content_type"},
		{"untyped create", jsonPost(""), "content_type"},
		{"dot segment id", httptest.NewRequest(http.MethodGet, "/api/transactions/../summary", nil), "path_traversal"},
		{"encoded slash id", httptest.NewRequest(http.MethodGet, "/api/transactions/a%2Fb", nil), "path_traversal"},
		{"encoded dots format", httptest.NewRequest(http.MethodGet, "/export/%2e%2e", nil), "path_traversal"},
		{"encoded backslash format", httptest.NewRequest(http.MethodGet, "/export/x%5Ccsv", nil), "path_traversal"},
		{"trace", httptest.NewRequest(http.MethodTrace, "/api/transactions", nil), "method"},
		{"long query", httptest.NewRequest(http.MethodGet, "/api/summary?month="+strings.Repeat("x", maxRequestURILength), nil), "uri_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suspicionReason(tt.req); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSuspiciousRequestsCounted(t *testing.T) {
	env := newTestEnv(t, defaultConfig(), nil)

	req, _ := http.NewRequest(http.MethodPost, env.http.URL+"/api/transactions", strings.NewReader(`description=Coffee`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := env.http.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if _, suspicious := env.srv.metrics.snapshot(); suspicious != 1 {
		t.Fatalf("suspicious count = %d", suspicious)
	}
}

func TestValidationMessageJoinsFields(t *testing.T) {
	err := validate.Struct(struct {
		Description string `json:"description" validate:"required"`
		Date        string `json:"date" validate:"iso_date"`
	}{Date: "june"})
	got := validationMessage(err)
	if !strings.Contains(got, "description is required") || !strings.Contains(got, "date must be a YYYY-MM-DD date") {
		t.Fatalf("message = %q", got)
	}
}
