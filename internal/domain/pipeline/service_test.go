package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"readiness/internal/domain/assessment"
	"readiness/internal/domain/delivery"
	"readiness/internal/domain/leads"
	"readiness/internal/domain/recommendations"
	"readiness/internal/domain/report"
	"readiness/internal/platform/chart"
	"readiness/internal/platform/config"
	"readiness/internal/platform/crm"
	"readiness/internal/platform/email"
	"readiness/internal/platform/jobs"
	"readiness/internal/platform/llm"
	"readiness/internal/platform/metrics"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (c *captureMailer) Send(ctx context.Context, msg email.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) Provider() string { return "capture" }

func (c *captureMailer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fixture struct {
	svc     *Service
	mailer  *captureMailer
	metrics *metrics.Collector
	leads   *leads.MemoryStore
}

func newFixture(t *testing.T, client llm.Client, chartURL string, queue *jobs.Service) fixture {
	t.Helper()
	content := config.DefaultContent()
	m := metrics.New()
	mailer := &captureMailer{}
	store := leads.NewMemoryStore()
	deliverySvc := delivery.NewService(mailer, crm.NewMulti(nil), m, delivery.Options{From: "r@example.com", Brand: content.Brand})
	svc := NewService(Deps{
		Assessment:      assessment.NewService(assessment.DefaultThresholds()),
		Recommendations: recommendations.NewGenerator(client, m),
		Chart:           chart.NewRenderer(chartURL, content.Brand.PrimaryColor, nil),
		Reports:         report.NewBuilder(report.Options{Brand: content.Brand, CTA: content.CTA}),
		Delivery:        deliverySvc,
		Leads:           leads.NewService(store, nil, leads.Options{Metrics: m}),
		Jobs:            queue,
		Content:         content,
		Metrics:         m,
	})
	return fixture{svc: svc, mailer: mailer, metrics: m, leads: store}
}

func chartServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for x := 0; x < 40; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func externalScores() map[string]float64 {
	return map[string]float64{"strategy": 2, "data": 3, "technology": 4, "team": 2.5, "change": 3.5}
}

func TestGenerateReportFallbackWithChart(t *testing.T) {
	f := newFixture(t, nil, chartServer(t).URL, nil)

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "Lovelace LLP", Scores: externalScores()})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !bytes.HasPrefix(res.PDF, []byte("%PDF-")) {
		t.Fatalf("expected pdf bytes")
	}
	if res.Source != recommendations.SourceFallback || !res.ChartRendered {
		t.Fatalf("unexpected result: source=%s chart=%v", res.Source, res.ChartRendered)
	}
	if res.Scores[assessment.Implementation] != 3.5 {
		t.Fatalf("change key should map to implementation, got %+v", res.Scores)
	}
	if f.metrics.Count(metrics.ReportsBuilt) != 1 || f.metrics.Count(metrics.LLMFallback) != 1 {
		t.Fatalf("expected report and fallback counters")
	}
}

func TestGenerateReportChartFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	f := newFixture(t, nil, srv.URL, nil)

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Scores: externalScores()})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if res.ChartRendered || len(res.PDF) == 0 {
		t.Fatalf("expected pdf without chart")
	}
	if f.metrics.Count(metrics.ChartFailed) != 1 {
		t.Fatalf("expected chart_failed to be counted")
	}
}

func TestGenerateReportUsesModel(t *testing.T) {
	scores := map[assessment.CategoryID]float64{
		assessment.Strategy: 2, assessment.Data: 3, assessment.Technology: 4, assessment.Team: 2.5, assessment.Implementation: 3.5,
	}
	canned := recommendations.Fallback(recommendations.Input{Scores: scores, Thresholds: assessment.DefaultThresholds()})
	canned.Overall.Summary = "Model summary"
	raw, err := json.Marshal(canned)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	client := &llm.MockClient{Response: "```json\n" + string(raw) + "\n```"}
	f := newFixture(t, client, "", nil)

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Scores: externalScores()})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if res.Source != recommendations.SourceLLM || res.Recommendations.Overall.Summary != "Model summary" {
		t.Fatalf("expected model recommendations, got %s %q", res.Source, res.Recommendations.Overall.Summary)
	}
	if len(client.Requests()) != 1 {
		t.Fatalf("expected exactly one model call, got %d", len(client.Requests()))
	}
}

func TestGenerateReportFromAnswers(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	answers := assessment.Answers{}
	for _, q := range assessment.Questions() {
		answers[q.ID] = 4
	}

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Answers: answers})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, id := range assessment.CategoryIDs() {
		if res.Scores[id] != 4 {
			t.Fatalf("expected derived score 4 for %s, got %v", id, res.Scores[id])
		}
	}
}

func TestGenerateReportAcceptsZeroScore(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	scores := map[string]float64{"strategy": 3, "data": 3, "technology": 3, "team": 3, "change": 0}

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Scores: scores})
	if err != nil {
		t.Fatalf("zero score should be accepted: %v", err)
	}
	if v, ok := res.Scores[assessment.Implementation]; !ok || v != 0 {
		t.Fatalf("expected implementation score 0, got %v", res.Scores)
	}
	if len(res.PDF) == 0 {
		t.Fatalf("expected a pdf")
	}
}

func TestGenerateReportClampsOutOfRangeAnswers(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	answers := assessment.Answers{"strategy_1": 9, "data_1": 0, "team_1": -3}

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Answers: answers})
	if err != nil {
		t.Fatalf("out of range answers should be clamped, got %v", err)
	}
	if res.Scores[assessment.Strategy] != 5 || res.Scores[assessment.Data] != 1 || res.Scores[assessment.Team] != 1 {
		t.Fatalf("unexpected clamped scores: %v", res.Scores)
	}
}

func TestAnsweredQuestionsClamps(t *testing.T) {
	got := answeredQuestions(assessment.Answers{"strategy_1": 7, "data_1": 0, "bogus": 3})
	if len(got) != 2 {
		t.Fatalf("expected two answered questions, got %+v", got)
	}
	for _, q := range got {
		if q.Answer < 1 || q.Answer > 5 {
			t.Fatalf("answer %s not clamped: %d", q.ID, q.Answer)
		}
	}
}

func TestGenerateReportRejectsBadScores(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	tests := []struct {
		name   string
		scores map[string]float64
	}{
		{name: "unknown key", scores: map[string]float64{"strategy": 2, "data": 3, "technology": 4, "team": 2, "vibes": 3}},
		{name: "out of range", scores: map[string]float64{"strategy": 6, "data": 3, "technology": 4, "team": 2, "change": 3}},
		{name: "missing category", scores: map[string]float64{"strategy": 2, "data": 3}},
		{name: "nothing", scores: nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.GenerateReport(context.Background(), ReportRequest{Firm: "F", Scores: tc.scores})
			if !errors.Is(err, assessment.ErrInvalidScores) {
				t.Fatalf("expected ErrInvalidScores, got %v", err)
			}
			if !IsClientError(err) {
				t.Fatalf("expected client error classification")
			}
		})
	}
}

func TestGenerateReportSendEmail(t *testing.T) {
	f := newFixture(t, nil, "", nil)

	res, err := f.svc.GenerateReport(context.Background(), ReportRequest{
		Firm: "F", Email: "partner@f.law", Scores: externalScores(), SendEmail: true,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !res.EmailQueued || f.mailer.count() != 1 {
		t.Fatalf("expected email to be sent inline, queued=%v sent=%d", res.EmailQueued, f.mailer.count())
	}
}

func TestEmailReport(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	pdf := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test"))

	if err := f.svc.EmailReport(context.Background(), EmailRequest{ToEmail: "a@b.com", FirmName: "F", PDFBase64: pdf}); err != nil {
		t.Fatalf("email failed: %v", err)
	}
	if f.mailer.count() != 1 {
		t.Fatalf("expected one email, got %d", f.mailer.count())
	}
	if err := f.svc.EmailReport(context.Background(), EmailRequest{ToEmail: "a@b.com", PDFBase64: "bm90IGEgcGRm"}); !errors.Is(err, delivery.ErrInvalidPDF) {
		t.Fatalf("expected ErrInvalidPDF, got %v", err)
	}
	if err := f.svc.EmailReport(context.Background(), EmailRequest{PDFBase64: pdf}); !errors.Is(err, delivery.ErrMissingRecipient) {
		t.Fatalf("expected ErrMissingRecipient, got %v", err)
	}
}

func TestEmailReportQueueFull(t *testing.T) {
	queue := jobs.New(nil, 1, 1)
	f := newFixture(t, nil, "", queue)
	pdf := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test"))

	if err := f.svc.EmailReport(context.Background(), EmailRequest{ToEmail: "a@b.com", PDFBase64: pdf}); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := f.svc.EmailReport(context.Background(), EmailRequest{ToEmail: "b@b.com", PDFBase64: pdf}); !errors.Is(err, jobs.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if f.mailer.count() != 0 {
		t.Fatalf("queued jobs must not run before workers start")
	}
}

func TestEvaluateCapturesLead(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	answers := assessment.Answers{"strategy_1": 5, "data_1": 1}

	sub, err := f.svc.Evaluate(context.Background(), EvaluateRequest{Name: "Ada Lovelace", Email: "ada@l.law", Firm: "L", Answers: answers})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(sub.Results) != 5 {
		t.Fatalf("expected five category results")
	}
	all, _ := f.leads.List(context.Background())
	if len(all) != 1 || all[0].FormType != leads.FormAssessment || all[0].FirstName != "Ada" {
		t.Fatalf("expected assessment lead, got %+v", all)
	}

	if _, err := f.svc.Evaluate(context.Background(), EvaluateRequest{Email: "x@y.z"}); !errors.Is(err, assessment.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

type countingCRM struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCRM) SyncContact(ctx context.Context, contact crm.Contact) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0
}

func TestEvaluateLeavesCRMToDelivery(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	syncer := &countingCRM{}
	f.svc.deps.Leads = leads.NewService(f.leads, nil, leads.Options{CRM: syncer, Metrics: f.metrics})

	if _, err := f.svc.Evaluate(context.Background(), EvaluateRequest{Name: "Ada", Email: "ada@l.law", Firm: "L"}); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	all, _ := f.leads.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected the lead to be stored, got %d", len(all))
	}
	if syncer.calls != 0 {
		t.Fatalf("expected no crm sync from lead capture, got %d", syncer.calls)
	}
}

func TestEvaluateLeadFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil, "", nil)
	if _, err := f.svc.Evaluate(context.Background(), EvaluateRequest{Name: "N", Email: "not an email", Firm: "F"}); err != nil {
		t.Fatalf("lead capture failure must not fail evaluation: %v", err)
	}
	all, _ := f.leads.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no lead for invalid email")
	}
}
