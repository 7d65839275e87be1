package chart

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name       string
		labels     []string
		scores     []float64
		wantLabels [Axes]string
		wantScores [Axes]float64
	}{
		{
			name:       "empty input",
			wantLabels: defaultLabels,
		},
		{
			name:       "short arrays padded",
			labels:     []string{"Vision", "  "},
			scores:     []float64{3.2},
			wantLabels: [Axes]string{"Vision", "Data", "Technology", "Team", "Change"},
			wantScores: [Axes]float64{3.2, 0, 0, 0, 0},
		},
		{
			name:       "long arrays truncated and clamped",
			labels:     []string{"a", "b", "c", "d", "e", "f"},
			scores:     []float64{-1, math.NaN(), math.Inf(1), 7, 4.5, 2},
			wantLabels: [Axes]string{"a", "b", "c", "d", "e"},
			wantScores: [Axes]float64{0, 0, 0, 5, 4.5},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			labels, scores := Sanitize(tc.labels, tc.scores)
			if labels != tc.wantLabels {
				t.Fatalf("labels: expected %v, got %v", tc.wantLabels, labels)
			}
			if scores != tc.wantScores {
				t.Fatalf("scores: expected %v, got %v", tc.wantScores, scores)
			}
		})
	}
}

func TestRadarConfigShape(t *testing.T) {
	labels, scores := Sanitize(nil, []float64{1, 2, 3, 4, 5})
	cfg := RadarConfig(labels, scores, "#0EA5E9")
	if cfg["type"] != "radar" {
		t.Fatalf("expected radar chart, got %v", cfg["type"])
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(raw), `"rgba(14,165,233,0.25)"`) {
		t.Fatalf("expected translucent fill, got %s", raw)
	}
}

var tinyPNG = append([]byte("\x89PNG\r\n\x1a\n"), []byte("rest-of-image")...)

func TestRenderSuccess(t *testing.T) {
	var got renderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tinyPNG)
	}))
	defer srv.Close()

	out := NewRenderer(srv.URL, "", srv.Client()).Render(context.Background(), []string{"S"}, []float64{9})
	if out != base64.StdEncoding.EncodeToString(tinyPNG) {
		t.Fatalf("unexpected render output %q", out)
	}
	if got.Format != "png" || got.Chart["type"] != "radar" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestRenderFailuresReturnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{name: "not a png", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<svg/>"))
		}},
		{name: "too large", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(tinyPNG)
			_, _ = w.Write(make([]byte, maxImageSize))
		}},
		{name: "slow", handler: func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write(tinyPNG)
		}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			if tc.name != "slow" {
				ctx = context.Background()
			}
			if out := NewRenderer(srv.URL, "", srv.Client()).Render(ctx, nil, nil); out != "" {
				t.Fatalf("expected empty output, got %d bytes", len(out))
			}
		})
	}
}

func TestDisabledRenderer(t *testing.T) {
	if out := NewRenderer("", "", nil).Render(context.Background(), nil, nil); out != "" {
		t.Fatal("expected disabled renderer to return empty")
	}
	var r *Renderer
	if r.Render(context.Background(), nil, nil) != "" {
		t.Fatal("expected nil renderer to return empty")
	}
}
