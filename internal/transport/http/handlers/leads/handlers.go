package leadshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"readiness/internal/domain/leads"
	"readiness/internal/transport/http/api"
	"readiness/internal/transport/http/middleware"
	"readiness/internal/transport/http/shared"
)

type Handler struct {
	Service *leads.Service
}

func NewHandler(service *leads.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Post("/{leadID}/booking", h.handleBooking)
	})
}

type submitRequest struct {
	FormType  string `json:"formType"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FirmName  string `json:"firmName"`
	Title     string `json:"title"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
	WantsDemo bool   `json:"wantsDemo"`
	Source    string `json:"source"`
}

type bookingRequest struct {
	Token       string `json:"token"`
	BookingRef  string `json:"bookingRef"`
	ScheduledAt string `json:"scheduledAt"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	v.Required("formType", payload.FormType, "is required")
	if _, ok := leads.ParseFormType(payload.FormType); !ok && strings.TrimSpace(payload.FormType) != "" {
		v.Add("formType", "is not a supported form")
	}
	v.Email("email", payload.Email)
	if strings.TrimSpace(payload.Name) == "" && strings.TrimSpace(payload.FirstName) == "" && strings.TrimSpace(payload.LastName) == "" {
		v.Add("name", "is required")
	}
	if len(payload.Notes) > 5000 {
		v.Add("notes", "must be at most 5000 characters")
	}
	if v.Reject(w, reqID) {
		return
	}

	res, err := h.Service.Submit(r.Context(), leads.Fields{
		Email:     payload.Email,
		Name:      payload.Name,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		FirmName:  payload.FirmName,
		Title:     payload.Title,
		Phone:     payload.Phone,
		Notes:     payload.Notes,
		WantsDemo: payload.WantsDemo,
		Source:    payload.Source,
	}, payload.FormType)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrInvalidFormType):
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "formType", Reason: "is not a supported form"}})
		case errors.Is(err, leads.ErrInvalidEmail):
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "email", Reason: "must be a valid email address"}})
		case errors.Is(err, leads.ErrMissingFirm):
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "firmName", Reason: "is required"}})
		default:
			slog.Error("lead submit failed", "formType", payload.FormType, "err", err)
			api.Fail(w, http.StatusInternalServerError, "lead_failed", "failed to save lead", reqID)
		}
		return
	}
	api.Created(w, res, reqID)
}

func (h *Handler) handleBooking(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	leadID := chi.URLParam(r, "leadID")
	var payload bookingRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	v.Required("token", payload.Token, "is required")
	v.Required("bookingRef", payload.BookingRef, "is required")
	var scheduledAt time.Time
	if raw := strings.TrimSpace(payload.ScheduledAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			v.Add("scheduledAt", "must be an RFC 3339 timestamp")
		}
		scheduledAt = parsed
	}
	if v.Reject(w, reqID) {
		return
	}

	lead, err := h.Service.CorrelateBooking(r.Context(), leadID, payload.Token, payload.BookingRef, scheduledAt)
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrInvalidToken):
			api.Fail(w, http.StatusUnauthorized, "invalid_token", "booking token is invalid or expired", reqID)
		case errors.Is(err, leads.ErrLeadNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "lead not found", reqID)
		default:
			slog.Error("booking correlation failed", "leadId", leadID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "booking_failed", "failed to record booking", reqID)
		}
		return
	}
	api.Success(w, map[string]any{
		"leadId":     lead.ID,
		"bookingRef": lead.BookingRef,
		"bookedAt":   lead.BookedAt,
	}, reqID)
}
