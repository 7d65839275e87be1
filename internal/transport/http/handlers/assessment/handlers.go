package assessmenthandler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"readiness/internal/domain/assessment"
	"readiness/internal/domain/delivery"
	"readiness/internal/domain/pipeline"
	"readiness/internal/domain/recommendations"
	"readiness/internal/platform/config"
	"readiness/internal/platform/jobs"
	"readiness/internal/transport/http/api"
	"readiness/internal/transport/http/middleware"
	"readiness/internal/transport/http/shared"
)

type Handler struct {
	Service *pipeline.Service
}

func NewHandler(service *pipeline.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assessment", func(r chi.Router) {
		r.Post("/", h.handleEvaluate)
		r.Get("/questions", h.handleQuestions)
		r.Post("/report", h.handleReport)
		r.Post("/email", h.handleEmail)
	})
}

// firmName accepts either "Acme LLP" or {"name": "Acme LLP"}.
type firmName string

func (f *firmName) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = firmName(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*f = firmName(obj.Name)
	return nil
}

type answeredQuestion struct {
	ID     string `json:"id"`
	Answer int    `json:"answer"`
}

type evaluateRequest struct {
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Firm    firmName           `json:"firm"`
	Answers assessment.Answers `json:"answers"`
}

type reportRequest struct {
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Firm         firmName               `json:"firm"`
	Scores       map[string]float64     `json:"scores"`
	Answers      assessment.Answers     `json:"answers"`
	Questions    []answeredQuestion     `json:"questions"`
	Thresholds   *assessment.Thresholds `json:"thresholds"`
	Requirements []string               `json:"requirements"`
	Brand        *config.Brand          `json:"brand"`
	SendEmail    bool                   `json:"sendEmail"`
}

type reportResponse struct {
	PDFBase64       string                  `json:"pdfBase64"`
	Scores          map[string]float64      `json:"scores"`
	Recommendations recommendationsResponse `json:"recommendations"`
	Source          recommendations.Source  `json:"source"`
	ChartRendered   bool                    `json:"chartRendered"`
	EmailQueued     bool                    `json:"emailQueued"`
}

// recommendationsResponse re-keys categories with the external ids used by
// the scores map.
type recommendationsResponse struct {
	recommendations.Recommendations
	Categories []categoryRecommendationResponse `json:"categories"`
}

type categoryRecommendationResponse struct {
	recommendations.CategoryRecommendation
	Key string `json:"key"`
}

func toRecommendationsResponse(recs recommendations.Recommendations) recommendationsResponse {
	out := recommendationsResponse{
		Recommendations: recs,
		Categories:      make([]categoryRecommendationResponse, 0, len(recs.Categories)),
	}
	for _, c := range recs.Categories {
		out.Categories = append(out.Categories, categoryRecommendationResponse{
			CategoryRecommendation: c,
			Key:                    assessment.ExternalKey(c.Key),
		})
	}
	return out
}

type emailRequest struct {
	ToEmail   string  `json:"toEmail"`
	Name      string  `json:"name"`
	FirmName  string  `json:"firmName"`
	PDFBase64 string  `json:"pdfBase64"`
	Score     float64 `json:"score"`
	Level     string  `json:"level"`
}

type questionsResponse struct {
	Categories []assessment.Category `json:"categories"`
	Questions  []assessment.Question `json:"questions"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload evaluateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Email("email", payload.Email)
	v.Required("firm", string(payload.Firm), "is required")
	if v.Reject(w, reqID) {
		return
	}

	sub, err := h.Service.Evaluate(r.Context(), pipeline.EvaluateRequest{
		Name:    payload.Name,
		Email:   payload.Email,
		Firm:    string(payload.Firm),
		Answers: payload.Answers,
	})
	if err != nil {
		if pipeline.IsClientError(err) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
			return
		}
		slog.Error("assessment evaluation failed", "email", payload.Email, "err", err)
		api.FailWithDetails(w, http.StatusInternalServerError, "assessment_failed", "failed to score assessment",
			map[string]any{"reason": err.Error()}, reqID)
		return
	}
	api.Success(w, sub, reqID)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, questionsResponse{
		Categories: assessment.Categories(),
		Questions:  assessment.Questions(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload reportRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	answers := payload.Answers
	if len(payload.Questions) > 0 {
		if answers == nil {
			answers = assessment.Answers{}
		}
		for _, q := range payload.Questions {
			if _, ok := answers[q.ID]; !ok {
				answers[q.ID] = q.Answer
			}
		}
	}

	v := shared.NewValidator()
	v.Required("firm", string(payload.Firm), "is required")
	if payload.SendEmail {
		v.Email("email", payload.Email)
	}
	if len(payload.Scores) == 0 && len(answers) == 0 {
		v.Add("scores", "scores or answers are required")
	}
	for key, score := range payload.Scores {
		if _, ok := assessment.ParseExternalKey(key); !ok {
			v.Add("scores."+key, "unknown category")
			continue
		}
		v.Range("scores."+key, score, 0, 5)
	}
	if t := payload.Thresholds; t != nil && (t.EmergingBelow <= 0 || t.DevelopingBelow <= t.EmergingBelow) {
		v.Add("thresholds", "developingBelow must be greater than a positive emergingBelow")
	}
	if v.Reject(w, reqID) {
		return
	}

	res, err := h.Service.GenerateReport(r.Context(), pipeline.ReportRequest{
		Name:         payload.Name,
		Email:        payload.Email,
		Firm:         string(payload.Firm),
		Scores:       payload.Scores,
		Answers:      answers,
		Thresholds:   payload.Thresholds,
		Requirements: payload.Requirements,
		Brand:        payload.Brand,
		SendEmail:    payload.SendEmail,
	})
	if err != nil {
		if pipeline.IsClientError(err) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
			return
		}
		slog.Error("report generation failed", "firm", payload.Firm, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to generate report", reqID)
		return
	}

	scores := make(map[string]float64, len(res.Scores))
	for id, score := range res.Scores {
		scores[assessment.ExternalKey(id)] = score
	}
	api.Success(w, reportResponse{
		PDFBase64:       base64.StdEncoding.EncodeToString(res.PDF),
		Scores:          scores,
		Recommendations: toRecommendationsResponse(res.Recommendations),
		Source:          res.Source,
		ChartRendered:   res.ChartRendered,
		EmailQueued:     res.EmailQueued,
	}, reqID)
}

func (h *Handler) handleEmail(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload emailRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	v.Email("toEmail", payload.ToEmail)
	v.Required("pdfBase64", payload.PDFBase64, "is required")
	if v.Reject(w, reqID) {
		return
	}

	err := h.Service.EmailReport(r.Context(), pipeline.EmailRequest{
		ToEmail:   payload.ToEmail,
		Name:      payload.Name,
		FirmName:  payload.FirmName,
		PDFBase64: payload.PDFBase64,
		Score:     payload.Score,
		Level:     payload.Level,
	})
	switch {
	case err == nil:
		api.Success(w, map[string]string{"status": "queued"}, reqID)
	case errors.Is(err, jobs.ErrQueueFull):
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", "email queue is full, try again shortly", reqID)
	case errors.Is(err, delivery.ErrInvalidPDF):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "pdfBase64", Reason: "must be a base64 encoded PDF"}})
	case pipeline.IsClientError(err):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		slog.Error("report email dispatch failed", "to", payload.ToEmail, "err", err)
		api.Fail(w, http.StatusInternalServerError, "email_failed", "failed to dispatch email", reqID)
	}
}
