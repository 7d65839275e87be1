package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"readiness/internal/platform/crm"
	"readiness/internal/platform/crypto"
	"readiness/internal/platform/jobs"
	"readiness/internal/platform/metrics"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// ContactSyncer pushes a contact to the configured CRMs and reports failures.
type ContactSyncer interface {
	SyncContact(ctx context.Context, c crm.Contact) int
}

type Options struct {
	TokenSecret []byte
	TokenTTL    time.Duration
	Jobs        *jobs.Service
	CRM         ContactSyncer
	Metrics     *metrics.Collector
}

type Service struct {
	Store   StoreAPI
	Crypto  *crypto.Service
	secret  []byte
	ttl     time.Duration
	jobs    *jobs.Service
	crm     ContactSyncer
	metrics *metrics.Collector
	now     func() time.Time
}

func NewService(store StoreAPI, enc *crypto.Service, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	return &Service{
		Store:   store,
		Crypto:  enc,
		secret:  opts.TokenSecret,
		ttl:     opts.TokenTTL,
		jobs:    opts.Jobs,
		crm:     opts.CRM,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

func (s *Service) Submit(ctx context.Context, f Fields, formType string) (SubmitResult, error) {
	ft, ok := ParseFormType(formType)
	if !ok {
		return SubmitResult{}, ErrInvalidFormType
	}
	addr, err := normalizeEmail(f.Email)
	if err != nil {
		return SubmitResult{}, err
	}
	firm := strings.TrimSpace(f.FirmName)
	if firm == "" && ft != FormReferral {
		return SubmitResult{}, ErrMissingFirm
	}

	first, last := strings.TrimSpace(f.FirstName), strings.TrimSpace(f.LastName)
	if first == "" && last == "" {
		first, last = crm.SplitName(f.Name)
	}
	phone := strings.TrimSpace(f.Phone)
	notes := strings.TrimSpace(f.Notes)

	rec := Record{
		ID:        uuid.NewString(),
		Email:     addr,
		FirstName: first,
		LastName:  last,
		FirmName:  firm,
		Title:     strings.TrimSpace(f.Title),
		WantsDemo: f.WantsDemo || ft == FormDemo,
		Source:    strings.TrimSpace(f.Source),
		FormType:  ft,
		CreatedAt: s.now().UTC(),
	}
	if rec.PhoneEnc, err = s.Crypto.EncryptString(phone); err != nil {
		return SubmitResult{}, fmt.Errorf("encrypt phone: %w", err)
	}
	if rec.NotesEnc, err = s.Crypto.EncryptString(notes); err != nil {
		return SubmitResult{}, fmt.Errorf("encrypt notes: %w", err)
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		return SubmitResult{}, fmt.Errorf("create lead: %w", err)
	}
	s.metrics.Inc(metrics.LeadsCreated)
	slog.Info("lead captured", "leadId", rec.ID, "formType", ft)

	// Assessment contacts reach the CRM with their score when the report is
	// delivered.
	if ft != FormAssessment {
		s.syncCRM(ctx, crm.Contact{
			Email:     rec.Email,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Firm:      rec.FirmName,
			Title:     rec.Title,
			Phone:     phone,
			Notes:     notes,
			WantsDemo: rec.WantsDemo,
			Source:    rec.Source,
			FormType:  string(ft),
			LeadID:    rec.ID,
		})
	}

	token, err := s.issueToken(rec.ID)
	if err != nil {
		slog.Warn("booking token issue failed", "leadId", rec.ID, "err", err)
	}
	return SubmitResult{LeadID: rec.ID, BookingToken: token}, nil
}

// CorrelateBooking ties a calendar booking back to the lead that issued the
// token.
func (s *Service) CorrelateBooking(ctx context.Context, leadID, token, bookingRef string, scheduledAt time.Time) (Lead, error) {
	if len(s.secret) == 0 {
		return Lead{}, ErrInvalidToken
	}
	subject, err := ParseBookingToken(s.secret, token)
	if err != nil || subject != leadID {
		return Lead{}, ErrInvalidToken
	}
	if scheduledAt.IsZero() {
		scheduledAt = s.now()
	}
	if err := s.Store.MarkBooked(ctx, leadID, strings.TrimSpace(bookingRef), scheduledAt.UTC()); err != nil {
		if errors.Is(err, ErrLeadNotFound) {
			return Lead{}, err
		}
		return Lead{}, fmt.Errorf("mark booked: %w", err)
	}
	rec, err := s.Store.Get(ctx, leadID)
	if err != nil {
		return Lead{}, fmt.Errorf("load lead: %w", err)
	}
	lead := s.open(rec)

	s.syncCRM(ctx, crm.Contact{
		Email:     lead.Email,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Firm:      lead.FirmName,
		Title:     lead.Title,
		Notes:     fmt.Sprintf("Booked %s (ref %s)", scheduledAt.UTC().Format(time.RFC3339), lead.BookingRef),
		WantsDemo: lead.WantsDemo,
		Source:    lead.Source,
		FormType:  string(FormBooking),
		LeadID:    lead.ID,
	})
	return lead, nil
}

func (s *Service) List(ctx context.Context) ([]Lead, error) {
	records, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Lead, 0, len(records))
	for _, r := range records {
		out = append(out, s.open(r))
	}
	return out, nil
}

// ApplyRetention deletes leads older than maxAge and reports how many were
// removed.
func (s *Service) ApplyRetention(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", maxAge)
	}
	cutoff := s.now().UTC().Add(-maxAge)
	n, err := s.Store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("apply retention: %w", err)
	}
	slog.Info("lead retention applied", "cutoff", cutoff, "deleted", n)
	return n, nil
}

func (s *Service) issueToken(leadID string) (string, error) {
	if len(s.secret) == 0 {
		return "", nil
	}
	return IssueBookingToken(s.secret, leadID, s.ttl)
}

// syncCRM runs on the job queue when one is wired, inline otherwise. A full
// queue drops the sync.
func (s *Service) syncCRM(ctx context.Context, c crm.Contact) {
	if s.crm == nil {
		return
	}
	run := func(ctx context.Context) (any, error) {
		failed := s.crm.SyncContact(ctx, c)
		details := map[string]any{"leadId": c.LeadID, "failed": failed}
		if failed > 0 {
			return details, fmt.Errorf("%d crm syncs failed", failed)
		}
		return details, nil
	}
	if s.jobs == nil {
		_, _ = run(ctx)
		return
	}
	if err := s.jobs.Enqueue(jobs.JobCRMSync, c.LeadID, run); err != nil {
		slog.Warn("crm sync dropped", "leadId", c.LeadID, "err", err)
	}
}

func (s *Service) open(r Record) Lead {
	lead := Lead{
		ID:         r.ID,
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		FirmName:   r.FirmName,
		Title:      r.Title,
		WantsDemo:  r.WantsDemo,
		Source:     r.Source,
		FormType:   r.FormType,
		CreatedAt:  r.CreatedAt,
		BookedAt:   r.BookedAt,
		BookingRef: r.BookingRef,
	}
	var err error
	if lead.Phone, err = s.Crypto.DecryptString(r.PhoneEnc); err != nil {
		slog.Warn("lead phone decrypt failed", "leadId", r.ID, "err", err)
	}
	if lead.Notes, err = s.Crypto.DecryptString(r.NotesEnc); err != nil {
		slog.Warn("lead notes decrypt failed", "leadId", r.ID, "err", err)
	}
	return lead
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
