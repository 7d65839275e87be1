package chart

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	Axes         = 5
	MaxScore     = 5.0
	maxImageSize = 5 << 20
)

var defaultLabels = [Axes]string{"Strategy", "Data", "Technology", "Team", "Change"}

// Sanitize forces the radar geometry to exactly five axes. Missing or blank
// labels take the default axis name; scores outside [0,5] are clamped and
// non-finite scores become 0.
func Sanitize(labels []string, scores []float64) ([Axes]string, [Axes]float64) {
	var outLabels [Axes]string
	var outScores [Axes]float64
	for i := 0; i < Axes; i++ {
		outLabels[i] = defaultLabels[i]
		if i < len(labels) && strings.TrimSpace(labels[i]) != "" {
			outLabels[i] = strings.TrimSpace(labels[i])
		}
		if i < len(scores) {
			outScores[i] = clampScore(scores[i])
		}
	}
	return outLabels, outScores
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	default:
		return v
	}
}

// RadarConfig returns a Chart.js radar configuration in the shape QuickChart accepts.
func RadarConfig(labels [Axes]string, data [Axes]float64, color string) map[string]any {
	if color == "" {
		color = "#1E3A8A"
	}
	return map[string]any{
		"type": "radar",
		"data": map[string]any{
			"labels": labels[:],
			"datasets": []map[string]any{{
				"label":                "AI Readiness",
				"data":                 data[:],
				"backgroundColor":      hexToRGBA(color, 0.25),
				"borderColor":          color,
				"pointBackgroundColor": color,
				"borderWidth":          2,
			}},
		},
		"options": map[string]any{
			"legend": map[string]any{"display": false},
			"scale": map[string]any{
				"ticks": map[string]any{"min": 0, "max": MaxScore, "stepSize": 1, "beginAtZero": true},
			},
			"scales": map[string]any{
				"r": map[string]any{"min": 0, "max": MaxScore, "ticks": map[string]any{"stepSize": 1}},
			},
		},
	}
}

func hexToRGBA(hex string, alpha float64) string {
	h := strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(h, 16, 32)
	if len(h) != 6 || err != nil {
		return fmt.Sprintf("rgba(30,58,138,%.2f)", alpha)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", v>>16&0xff, v>>8&0xff, v&0xff, alpha)
}

type Renderer struct {
	url    string
	color  string
	client *http.Client
}

// NewRenderer returns a renderer posting to url. An empty url disables
// rendering and Render always returns "".
func NewRenderer(url, color string, client *http.Client) *Renderer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Renderer{url: url, color: color, client: client}
}

type renderRequest struct {
	Chart           map[string]any `json:"chart"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	Format          string         `json:"format"`
	BackgroundColor string         `json:"backgroundColor"`
}

// Render returns the chart as a base64 PNG, or "" on any failure.
func (r *Renderer) Render(ctx context.Context, labels []string, scores []float64) string {
	if r == nil || r.url == "" {
		return ""
	}
	l, s := Sanitize(labels, scores)
	body, err := json.Marshal(renderRequest{
		Chart:           RadarConfig(l, s, r.color),
		Width:           600,
		Height:          600,
		Format:          "png",
		BackgroundColor: "white",
	})
	if err != nil {
		slog.Warn("chart request marshal failed", "err", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("chart request build failed", "err", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Warn("chart render request failed", "err", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("chart render non-2xx", "status", resp.StatusCode)
		return ""
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		slog.Warn("chart response read failed", "err", err)
		return ""
	}
	if len(img) > maxImageSize {
		slog.Warn("chart response too large", "bytes", len(img))
		return ""
	}
	if !bytes.HasPrefix(img, pngMagic) {
		slog.Warn("chart response is not a png", "contentType", resp.Header.Get("Content-Type"))
		return ""
	}
	return base64.StdEncoding.EncodeToString(img)
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")
