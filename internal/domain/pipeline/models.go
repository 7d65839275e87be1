package pipeline

import (
	"readiness/internal/domain/assessment"
	"readiness/internal/domain/recommendations"
	"readiness/internal/platform/config"
)

type EvaluateRequest struct {
	Name    string
	Email   string
	Firm    string
	Answers assessment.Answers
}

// ReportRequest carries either Scores, keyed by canonical or external
// category ids on a 0-5 scale, or Answers to score server-side.
type ReportRequest struct {
	Name         string
	Email        string
	Firm         string
	Scores       map[string]float64
	Answers      assessment.Answers
	Thresholds   *assessment.Thresholds
	Requirements []string
	Brand        *config.Brand
	SendEmail    bool
}

type ReportResult struct {
	PDF             []byte
	Scores          map[assessment.CategoryID]float64
	Recommendations recommendations.Recommendations
	Source          recommendations.Source
	ChartRendered   bool
	EmailQueued     bool
}

type EmailRequest struct {
	ToEmail   string
	Name      string
	FirmName  string
	PDFBase64 string
	Score     float64
	Level     string
}
