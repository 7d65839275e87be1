package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Brand struct {
	Name         string `yaml:"name" json:"name"`
	Tagline      string `yaml:"tagline" json:"tagline"`
	PrimaryColor string `yaml:"primary_color" json:"primaryColor"`
	AccentColor  string `yaml:"accent_color" json:"accentColor"`
	Website      string `yaml:"website" json:"website"`
	ContactEmail string `yaml:"contact_email" json:"contactEmail"`
	ContactPhone string `yaml:"contact_phone" json:"contactPhone"`
	BookingURL   string `yaml:"booking_url" json:"bookingUrl"`
}

type Thresholds struct {
	EmergingBelow   float64 `yaml:"emerging_below" json:"emergingBelow"`
	DevelopingBelow float64 `yaml:"developing_below" json:"developingBelow"`
}

type CTA struct {
	Copy     string `yaml:"copy" json:"copy"`
	LinkText string `yaml:"link_text" json:"linkText"`
	LinkHref string `yaml:"link_href" json:"linkHref"`
}

// Content is the editable marketing copy that feeds prompts, reports and emails.
type Content struct {
	Brand        Brand      `yaml:"brand"`
	Thresholds   Thresholds `yaml:"thresholds"`
	Requirements []string   `yaml:"requirements"`
	CTA          CTA        `yaml:"cta"`
}

func DefaultContent() Content {
	return Content{
		Brand: Brand{
			Name:         "Counsel AI",
			Tagline:      "Private, secure AI for law firms",
			PrimaryColor: "#1E3A8A",
			AccentColor:  "#0EA5E9",
			Website:      "https://www.example.com",
			ContactEmail: "hello@example.com",
			ContactPhone: "+1 (555) 010-2030",
			BookingURL:   "https://www.example.com/book",
		},
		Thresholds: Thresholds{EmergingBelow: 2.5, DevelopingBelow: 4.0},
		Requirements: []string{
			"Client data never leaves the firm's private environment",
			"Outputs must be reviewable by a supervising attorney",
			"Recommendations must respect privilege and confidentiality obligations",
		},
		CTA: CTA{
			Copy:     "Book a 30-minute strategy session to turn this plan into a roadmap for your firm.",
			LinkText: "Schedule your AI strategy session",
			LinkHref: "https://www.example.com/book",
		},
	}
}

// LoadContent overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func LoadContent(path string) (Content, error) {
	content := DefaultContent()
	if path == "" {
		return content, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return content, fmt.Errorf("read content file: %w", err)
	}
	var overlay Content
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return content, fmt.Errorf("parse content file: %w", err)
	}
	mergeBrand(&content.Brand, overlay.Brand)
	if overlay.Thresholds.EmergingBelow > 0 {
		content.Thresholds.EmergingBelow = overlay.Thresholds.EmergingBelow
	}
	if overlay.Thresholds.DevelopingBelow > 0 {
		content.Thresholds.DevelopingBelow = overlay.Thresholds.DevelopingBelow
	}
	if content.Thresholds.DevelopingBelow <= content.Thresholds.EmergingBelow {
		return DefaultContent(), fmt.Errorf("content thresholds: developing_below must exceed emerging_below")
	}
	if len(overlay.Requirements) > 0 {
		content.Requirements = overlay.Requirements
	}
	if overlay.CTA.Copy != "" {
		content.CTA.Copy = overlay.CTA.Copy
	}
	if overlay.CTA.LinkText != "" {
		content.CTA.LinkText = overlay.CTA.LinkText
	}
	if overlay.CTA.LinkHref != "" {
		content.CTA.LinkHref = overlay.CTA.LinkHref
	}
	return content, nil
}

func mergeBrand(dst *Brand, src Brand) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Name, src.Name)
	set(&dst.Tagline, src.Tagline)
	set(&dst.PrimaryColor, src.PrimaryColor)
	set(&dst.AccentColor, src.AccentColor)
	set(&dst.Website, src.Website)
	set(&dst.ContactEmail, src.ContactEmail)
	set(&dst.ContactPhone, src.ContactPhone)
	set(&dst.BookingURL, src.BookingURL)
}
