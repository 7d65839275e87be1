package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"readiness/internal/platform/config"
	"readiness/internal/platform/crm"
	"readiness/internal/platform/email"
	"readiness/internal/platform/metrics"
)

var pdfMagic = []byte("%PDF-")

type Options struct {
	From     string
	FromName string
	Brand    config.Brand
}

type ReportEmail struct {
	ToEmail  string
	FirmName string
	Name     string
	PDF      []byte
	Score    float64
	Level    string
}

type Service struct {
	mailer  email.Mailer
	crm     *crm.Multi
	metrics *metrics.Collector
	opts    Options
}

func NewService(mailer email.Mailer, syncers *crm.Multi, m *metrics.Collector, opts Options) *Service {
	if opts.Brand.Name == "" {
		opts.Brand = config.DefaultContent().Brand
	}
	return &Service{mailer: mailer, crm: syncers, metrics: m, opts: opts}
}

// SendReport emails the PDF and then runs the CRM side channel whether or not
// the email went out. CRM failures are never returned.
func (s *Service) SendReport(ctx context.Context, r ReportEmail) error {
	to := strings.TrimSpace(r.ToEmail)
	if to == "" {
		return ErrMissingRecipient
	}
	if !bytes.HasPrefix(r.PDF, pdfMagic) {
		return ErrInvalidPDF
	}

	sendErr := s.send(ctx, to, r)

	first, last := crm.SplitName(r.Name)
	s.SyncContact(ctx, crm.Contact{
		Email:     to,
		FirstName: first,
		LastName:  last,
		Firm:      r.FirmName,
		Source:    "ai-readiness-assessment",
		FormType:  crm.FormAssessment,
		Score:     r.Score,
		Level:     r.Level,
	})
	return sendErr
}

func (s *Service) send(ctx context.Context, to string, r ReportEmail) error {
	if s.mailer == nil {
		slog.Info("no mailer configured, skipping report email", "to", to)
		return nil
	}
	firm := strings.TrimSpace(r.FirmName)
	if firm == "" {
		firm = "your firm"
	}
	greeting := strings.TrimSpace(r.Name)
	if greeting == "" {
		greeting = "there"
	}
	view := emailView{
		Greeting:   greeting,
		Firm:       firm,
		Level:      r.Level,
		Color:      s.opts.Brand.PrimaryColor,
		BookingURL: s.opts.Brand.BookingURL,
		Sender:     "The " + s.opts.Brand.Name + " team",
	}
	if r.Score > 0 {
		view.Score = fmt.Sprintf("%.1f", r.Score)
	}
	html, text, err := renderReportEmail(view)
	if err != nil {
		return fmt.Errorf("render report email: %w", err)
	}

	msg := email.Message{
		From:     s.opts.From,
		FromName: s.opts.FromName,
		To:       to,
		Subject:  fmt.Sprintf("Your AI Readiness Report for %s", firm),
		HTML:     html,
		Text:     text,
		Attachments: []email.Attachment{{
			Filename:    AttachmentName(r.FirmName),
			ContentType: "application/pdf",
			Data:        r.PDF,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.Inc(metrics.EmailFailed)
		slog.Warn("report email failed", "provider", s.mailer.Provider(), "to", to, "err", err)
		return fmt.Errorf("send report email: %w", err)
	}
	s.metrics.Inc(metrics.EmailSent)
	slog.Info("report email sent", "provider", s.mailer.Provider(), "to", to)
	return nil
}

// SyncContact pushes c to every configured CRM and returns how many failed.
func (s *Service) SyncContact(ctx context.Context, c crm.Contact) int {
	if !s.crm.Enabled() {
		return 0
	}
	failed := s.crm.Sync(ctx, c)
	for i := 0; i < failed; i++ {
		s.metrics.Inc(metrics.CRMFailed)
	}
	return failed
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9]+`)

// AttachmentName returns AI-Readiness-Report-<firm>.pdf with the firm
// reduced to ASCII letters, digits and dashes.
func AttachmentName(firm string) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(firm, "-"), "-")
	if slug == "" {
		return "AI-Readiness-Report.pdf"
	}
	return "AI-Readiness-Report-" + slug + ".pdf"
}

// DecodePDF accepts plain base64 or a data URL and checks the PDF header.
func DecodePDF(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, ErrInvalidPDF
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if !bytes.HasPrefix(raw, pdfMagic) {
		return nil, ErrInvalidPDF
	}
	return raw, nil
}
