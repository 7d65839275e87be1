package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"readiness/internal/platform/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>assessment</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		FrontendDir:        dir,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 100,
		CORSAllowedOrigins: []string{"*"},
		MetricsEnabled:     true,
		ShutdownTimeout:    time.Second,
		BookingTokenSecret: "test-booking-secret",
		BookingTokenTTL:    time.Hour,
		EmailFrom:          "reports@test.local",
		JobQueueSize:       8,
		JobWorkers:         1,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func postJSON(t *testing.T, client *http.Client, url, body string) (*http.Response, envelope) {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp, env
}

func TestAssessmentJourney(t *testing.T) {
	ts := newTestApp(t, testConfig(t))
	client := ts.Client()

	resp, env := postJSON(t, client, ts.URL+"/api/assessment",
		`{"name":"Ada Lovelace","email":"ada@lovelace.law","firm":"Lovelace LLP","answers":{"strategy_1":4,"data_1":2}}`)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("assessment failed: %d %v", resp.StatusCode, env.Error)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	resp, env = postJSON(t, client, ts.URL+"/api/assessment/report",
		`{"firm":{"name":"Lovelace LLP"},"scores":{"strategy":2,"data":3,"technology":4,"team":2,"change":3}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report failed: %d %v", resp.StatusCode, env.Error)
	}
	var report struct {
		PDFBase64 string `json:"pdfBase64"`
		Source    string `json:"source"`
	}
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.PDFBase64 == "" || report.Source != "fallback" {
		t.Fatalf("unexpected report: source=%s pdf=%d bytes", report.Source, len(report.PDFBase64))
	}

	resp, env = postJSON(t, client, ts.URL+"/api/assessment/email",
		`{"toEmail":"ada@lovelace.law","firmName":"Lovelace LLP","pdfBase64":"`+report.PDFBase64+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("email failed: %d %v", resp.StatusCode, env.Error)
	}
}

func TestLeadBookingJourney(t *testing.T) {
	ts := newTestApp(t, testConfig(t))
	client := ts.Client()

	resp, env := postJSON(t, client, ts.URL+"/api/leads",
		`{"formType":"consultation","email":"grace@hopper.law","name":"Grace Hopper","firmName":"Hopper & Co"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("lead failed: %d %v", resp.StatusCode, env.Error)
	}
	var lead struct {
		LeadID       string `json:"leadId"`
		BookingToken string `json:"bookingToken"`
	}
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		t.Fatalf("decode lead: %v", err)
	}

	resp, env = postJSON(t, client, ts.URL+"/api/leads/"+lead.LeadID+"/booking",
		`{"token":"`+lead.BookingToken+`","bookingRef":"cal-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("booking failed: %d %v", resp.StatusCode, env.Error)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestApp(t, testConfig(t))
	client := ts.Client()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	resp, err := client.Get(ts.URL + "/assessment/results")
	if err != nil {
		t.Fatalf("get spa route: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected SPA fallback, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}
}

func TestRateLimitOnAPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitPerMinute = 1
	ts := newTestApp(t, cfg)
	client := ts.Client()

	body := `{"formType":"contact","email":"a@b.com","name":"A","firmName":"F"}`
	if resp, _ := postJSON(t, client, ts.URL+"/api/leads", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected first lead accepted, got %d", resp.StatusCode)
	}
	resp, _ := postJSON(t, client, ts.URL+"/api/leads", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.JobWorkers = 0
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected config validation error")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG").String() != "DEBUG" || parseLevel("bogus").String() != "INFO" {
		t.Fatalf("unexpected level parsing")
	}
}
