package crm

import (
	"context"
	"log/slog"
	"strings"
)

const (
	FormAssessment = "assessment"
)

// Contact is the lead-shaped record pushed to every configured CRM.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Firm      string
	Title     string
	Phone     string
	Notes     string
	WantsDemo bool
	Source    string
	FormType  string
	LeadID    string
	Score     float64
	Level     string
}

type Syncer interface {
	Sync(ctx context.Context, c Contact) error
	Name() string
}

// SplitName splits a free-form full name on the first run of whitespace.
func SplitName(full string) (string, string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// Multi fans a contact out to every syncer. Failures are logged and never
// returned; the count of failed syncers is reported for metrics.
type Multi struct {
	syncers []Syncer
	onError func(name string, err error)
}

func NewMulti(onError func(name string, err error), syncers ...Syncer) *Multi {
	m := &Multi{onError: onError}
	for _, s := range syncers {
		if s != nil {
			m.syncers = append(m.syncers, s)
		}
	}
	return m
}

func (m *Multi) Enabled() bool {
	return m != nil && len(m.syncers) > 0
}

func (m *Multi) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.syncers))
	for _, s := range m.syncers {
		names = append(names, s.Name())
	}
	return names
}

func (m *Multi) Sync(ctx context.Context, c Contact) int {
	if !m.Enabled() {
		return 0
	}
	failed := 0
	for _, s := range m.syncers {
		if err := s.Sync(ctx, c); err != nil {
			failed++
			slog.Warn("crm sync failed", "crm", s.Name(), "formType", c.FormType, "err", err)
			if m.onError != nil {
				m.onError(s.Name(), err)
			}
		}
	}
	return failed
}
