package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"readiness/internal/domain/assessment"
	"readiness/internal/domain/delivery"
	"readiness/internal/domain/leads"
	"readiness/internal/domain/recommendations"
	"readiness/internal/domain/report"
	"readiness/internal/platform/chart"
	"readiness/internal/platform/config"
	"readiness/internal/platform/jobs"
	"readiness/internal/platform/metrics"
)

type Deps struct {
	Assessment      *assessment.Service
	Recommendations *recommendations.Generator
	Chart           *chart.Renderer
	Reports         *report.Builder
	Delivery        *delivery.Service
	Leads           *leads.Service
	Jobs            *jobs.Service
	Content         config.Content
	Metrics         *metrics.Collector
}

type Service struct {
	deps Deps
	now  func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps, now: time.Now}
}

// Evaluate scores a submission. Lead capture runs afterwards and never fails
// the request.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (assessment.Submission, error) {
	sub, err := s.deps.Assessment.Evaluate(req.Name, req.Email, req.Firm, req.Answers)
	if err != nil {
		return assessment.Submission{}, err
	}
	if s.deps.Leads != nil {
		_, err := s.deps.Leads.Submit(ctx, leads.Fields{
			Email:    sub.Email,
			Name:     sub.Name,
			FirmName: sub.Firm,
			Source:   "ai-readiness-assessment",
			Notes:    fmt.Sprintf("Assessment level %s (%.1f / 5)", sub.OverallLevel, sub.OverallAverage),
		}, string(leads.FormAssessment))
		if err != nil {
			slog.Warn("assessment lead capture failed", "email", sub.Email, "err", err)
		}
	}
	return sub, nil
}

// GenerateReport runs the recommendation call and chart render concurrently,
// then assembles the PDF. Only scoring and PDF assembly can fail the request.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (ReportResult, error) {
	scores, answered, err := s.resolveScores(req)
	if err != nil {
		return ReportResult{}, err
	}
	content := s.content(req)
	firm := strings.TrimSpace(req.Firm)

	in := recommendations.Input{
		FirmName:     firm,
		Scores:       scores,
		Answers:      answered,
		Thresholds:   s.thresholds(req),
		Brand:        content.Brand,
		Requirements: content.Requirements,
		CTA:          content.CTA,
	}

	var (
		recs     recommendations.Recommendations
		source   recommendations.Source
		chartPNG []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, source = s.deps.Recommendations.Generate(gctx, in)
		return nil
	})
	g.Go(func() error {
		chartPNG = s.renderChart(gctx, scores)
		return nil
	})
	_ = g.Wait()

	pdf, err := s.deps.Reports.Build(report.Input{
		Firm:            firm,
		Date:            s.now(),
		Scores:          scores,
		Recommendations: recs,
		ChartPNG:        chartPNG,
	})
	if err != nil {
		return ReportResult{}, err
	}
	s.deps.Metrics.Inc(metrics.ReportsBuilt)

	res := ReportResult{
		PDF:             pdf,
		Scores:          scores,
		Recommendations: recs,
		Source:          source,
		ChartRendered:   len(chartPNG) > 0,
	}
	if req.SendEmail && strings.TrimSpace(req.Email) != "" {
		err := s.enqueueEmail(delivery.ReportEmail{
			ToEmail:  strings.TrimSpace(req.Email),
			FirmName: firm,
			Name:     req.Name,
			PDF:      pdf,
			Score:    recs.Overall.Score,
			Level:    string(recs.Overall.Level),
		})
		if err != nil {
			slog.Warn("report email not queued", "email", req.Email, "err", err)
		}
		res.EmailQueued = err == nil
	}
	return res, nil
}

// EmailReport validates the PDF and queues delivery. The caller learns only
// that the send was accepted.
func (s *Service) EmailReport(ctx context.Context, req EmailRequest) error {
	to := strings.TrimSpace(req.ToEmail)
	if to == "" {
		return delivery.ErrMissingRecipient
	}
	pdf, err := delivery.DecodePDF(req.PDFBase64)
	if err != nil {
		return err
	}
	return s.enqueueEmail(delivery.ReportEmail{
		ToEmail:  to,
		FirmName: strings.TrimSpace(req.FirmName),
		Name:     req.Name,
		PDF:      pdf,
		Score:    req.Score,
		Level:    req.Level,
	})
}

func (s *Service) enqueueEmail(r delivery.ReportEmail) error {
	run := func(ctx context.Context) (any, error) {
		err := s.deps.Delivery.SendReport(ctx, r)
		return map[string]any{"to": r.ToEmail, "firm": r.FirmName, "bytes": len(r.PDF)}, err
	}
	if s.deps.Jobs == nil {
		if _, err := run(context.Background()); err != nil {
			slog.Warn("report email failed", "to", r.ToEmail, "err", err)
		}
		return nil
	}
	return s.deps.Jobs.Enqueue(jobs.JobReportEmail, r.ToEmail, run)
}

func (s *Service) renderChart(ctx context.Context, scores map[assessment.CategoryID]float64) []byte {
	if s.deps.Chart == nil {
		return nil
	}
	values := make([]float64, 0, len(scores))
	for _, id := range assessment.CategoryIDs() {
		values = append(values, scores[id])
	}
	encoded := s.deps.Chart.Render(ctx, nil, values)
	if encoded == "" {
		s.deps.Metrics.Inc(metrics.ChartFailed)
		return nil
	}
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.deps.Metrics.Inc(metrics.ChartFailed)
		slog.Warn("chart payload decode failed", "err", err)
		return nil
	}
	return png
}

// resolveScores prefers explicit scores. Every category must be present and
// within 0-5, where 0 marks a category nobody answered; answers are only used when no scores are sent.
func (s *Service) resolveScores(req ReportRequest) (map[assessment.CategoryID]float64, []recommendations.AnsweredQuestion, error) {
	answered := answeredQuestions(req.Answers)
	if len(req.Scores) > 0 {
		scores := make(map[assessment.CategoryID]float64, len(req.Scores))
		for key, v := range req.Scores {
			id, ok := assessment.ParseExternalKey(key)
			if !ok {
				return nil, nil, fmt.Errorf("%w: unknown category %q", assessment.ErrInvalidScores, key)
			}
			if math.IsNaN(v) || v < 0 || v > 5 {
				return nil, nil, fmt.Errorf("%w: %s must be between 0 and 5", assessment.ErrInvalidScores, key)
			}
			scores[id] = math.Round(v*100) / 100
		}
		for _, id := range assessment.CategoryIDs() {
			if _, ok := scores[id]; !ok {
				return nil, nil, fmt.Errorf("%w: missing %s", assessment.ErrInvalidScores, assessment.ExternalKey(id))
			}
		}
		return scores, answered, nil
	}
	if len(answered) == 0 {
		return nil, nil, fmt.Errorf("%w: scores or answers are required", assessment.ErrInvalidScores)
	}
	card := s.deps.Assessment.ScoreAnswers(req.Answers)
	return card.AverageScores(), answered, nil
}

func answeredQuestions(answers assessment.Answers) []recommendations.AnsweredQuestion {
	var out []recommendations.AnsweredQuestion
	for _, q := range assessment.Questions() {
		v, ok := answers[q.ID]
		if !ok {
			continue
		}
		out = append(out, recommendations.AnsweredQuestion{ID: q.ID, Text: q.Text, Category: q.Category, Answer: assessment.ClampLikert(v)})
	}
	return out
}

func (s *Service) thresholds(req ReportRequest) assessment.Thresholds {
	if t := req.Thresholds; t != nil && t.EmergingBelow > 0 && t.DevelopingBelow > t.EmergingBelow {
		return *t
	}
	return s.deps.Assessment.Thresholds()
}

// content overlays request brand fields and requirements on the configured
// content.
func (s *Service) content(req ReportRequest) config.Content {
	c := s.deps.Content
	if req.Brand != nil {
		b := *req.Brand
		if b.Name != "" {
			c.Brand.Name = b.Name
		}
		if b.PrimaryColor != "" {
			c.Brand.PrimaryColor = b.PrimaryColor
		}
		if b.AccentColor != "" {
			c.Brand.AccentColor = b.AccentColor
		}
		if b.BookingURL != "" {
			c.Brand.BookingURL = b.BookingURL
		}
	}
	if len(req.Requirements) > 0 {
		c.Requirements = req.Requirements
	}
	return c
}

// IsClientError reports whether err came from request validation.
func IsClientError(err error) bool {
	return errors.Is(err, assessment.ErrMissingFields) ||
		errors.Is(err, assessment.ErrInvalidScores) ||
		errors.Is(err, delivery.ErrInvalidPDF) ||
		errors.Is(err, delivery.ErrMissingRecipient)
}
