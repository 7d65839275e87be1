package leads

import (
	"strings"
	"time"
)

type FormType string

const (
	FormContact      FormType = "contact"
	FormDemo         FormType = "demo"
	FormConsultation FormType = "consultation"
	FormReferral     FormType = "referral"
	FormBooking      FormType = "booking"
	FormSIGLite      FormType = "sig_lite"
	FormAssessment   FormType = "assessment"
)

var formTypes = map[FormType]struct{}{
	FormContact:      {},
	FormDemo:         {},
	FormConsultation: {},
	FormReferral:     {},
	FormBooking:      {},
	FormSIGLite:      {},
	FormAssessment:   {},
}

// ParseFormType accepts form identifiers case-insensitively, with dashes or
// underscores.
func ParseFormType(s string) (FormType, bool) {
	ft := FormType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	_, ok := formTypes[ft]
	return ft, ok
}

type Lead struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	FirmName   string     `json:"firmName"`
	Title      string     `json:"title,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	WantsDemo  bool       `json:"wantsDemo"`
	Source     string     `json:"source,omitempty"`
	FormType   FormType   `json:"formType"`
	CreatedAt  time.Time  `json:"createdAt"`
	BookedAt   *time.Time `json:"bookedAt,omitempty"`
	BookingRef string     `json:"bookingRef,omitempty"`
}

// Fields is the submitted form payload. Name is split into first and last
// when those are absent.
type Fields struct {
	Email     string
	Name      string
	FirstName string
	LastName  string
	FirmName  string
	Title     string
	Phone     string
	Notes     string
	WantsDemo bool
	Source    string
}

// Record is a lead as persisted, with phone and notes sealed.
type Record struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	FirmName   string
	Title      string
	PhoneEnc   []byte
	NotesEnc   []byte
	WantsDemo  bool
	Source     string
	FormType   FormType
	CreatedAt  time.Time
	BookedAt   *time.Time
	BookingRef string
}

type SubmitResult struct {
	LeadID       string `json:"leadId"`
	BookingToken string `json:"bookingToken"`
}
