package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"readiness/internal/platform/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected caller request id, got ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" || len(seen) > maxRequestIDLen {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

func TestMemoryRateLimit(t *testing.T) {
	limited := RateLimit(NewMemoryLimiter(1, time.Minute), nil)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by IP, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	other := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
	other.RemoteAddr = "198.51.100.1:1000"
	otherRec := httptest.NewRecorder()
	limited.ServeHTTP(otherRec, other)
	if otherRec.Code != http.StatusNoContent {
		t.Fatalf("expected other client to pass, got %d", otherRec.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/assessment/questions", nil)
	get.RemoteAddr = "203.0.113.10:6666"
	getRec := httptest.NewRecorder()
	limited.ServeHTTP(getRec, get)
	if getRec.Code != http.StatusNoContent {
		t.Fatalf("reads must not be throttled, got %d", getRec.Code)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	d, _ := l.Allow(context.Background(), "k")
	if !d.Allowed {
		t.Fatalf("expected first hit allowed")
	}
	d, _ = l.Allow(context.Background(), "k")
	if d.Allowed {
		t.Fatalf("expected second hit denied")
	}
	now = now.Add(61 * time.Second)
	d, _ = l.Allow(context.Background(), "k")
	if !d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected new window, got %+v", d)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", " 192.0.2.7 , 10.0.0.1")
	if got := ClientIP(req); got != "192.0.2.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
}

type mockRedisEvaler struct {
	lastKeys []string
	lastArgs []interface{}
	result   []interface{}
	err      error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestRedisLimiter(t *testing.T) {
	mock := &mockRedisEvaler{result: []interface{}{int64(3), int64(42000)}}
	l := &RedisLimiter{client: mock, limit: 2, window: time.Minute, prefix: "rl:", timeout: time.Second}

	d, err := l.Allow(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if d.Allowed || d.ResetIn != 42*time.Second {
		t.Fatalf("expected denial with 42s reset, got %+v", d)
	}
	if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "rl:1.2.3.4" {
		t.Fatalf("unexpected keys %v", mock.lastKeys)
	}
	if len(mock.lastArgs) != 1 || mock.lastArgs[0] != int64(60000) {
		t.Fatalf("expected window in milliseconds, got %v", mock.lastArgs)
	}
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	mock := &mockRedisEvaler{err: errors.New("connection refused")}
	l := &RedisLimiter{client: mock, limit: 1, window: time.Minute, prefix: "rl:", timeout: time.Second}
	h := RateLimit(l, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected fail-open, got %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":"this body is too long"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for declared length, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":1}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected small body to pass, got %d", rec.Code)
	}
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Success || body.Error.Code != "internal_error" || body.RequestID == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestLoggerRecordsMetrics(t *testing.T) {
	m := metrics.New()
	h := Logger(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := m.Snapshot()
	if snap["requestsTotal"] != uint64(1) || snap["errorsTotal"] != uint64(1) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://site.example"})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://site.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://site.example" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/leads", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for unknown origin, got %q", got)
	}
}
