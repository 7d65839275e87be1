package crm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type SalesforceConfig struct {
	Domain       string
	Username     string
	ClientID     string
	KeyPath      string
	RateLimitRPS float64
}

type insertFunc func(sObjectName string, record map[string]any) (string, error)

type salesforceSyncer struct {
	insert  insertFunc
	limiter *rate.Limiter
}

// NewSalesforce authenticates with the JWT bearer flow. It returns nil, nil
// when no client id is configured.
func NewSalesforce(cfg SalesforceConfig) (Syncer, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, nil
	}
	pemData, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "sf: read JWT private key")
	}
	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Domain,
		Username:       cfg.Username,
		ConsumerKey:    cfg.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}
	insert := func(sObjectName string, record map[string]any) (string, error) {
		result, err := sf.InsertOne(sObjectName, record)
		if err != nil {
			return "", eris.Wrap(err, fmt.Sprintf("sf: insert %s", sObjectName))
		}
		if !result.Success {
			return "", eris.New(fmt.Sprintf("sf: insert %s failed: %v", sObjectName, result.Errors))
		}
		return result.Id, nil
	}
	return newSalesforceSyncer(insert, cfg.RateLimitRPS), nil
}

func newSalesforceSyncer(insert insertFunc, rps float64) *salesforceSyncer {
	s := &salesforceSyncer{insert: insert}
	if rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
	return s
}

func (s *salesforceSyncer) Name() string { return "salesforce" }

func (s *salesforceSyncer) Sync(ctx context.Context, c Contact) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "sf: rate limit")
		}
	}
	_, err := s.insert("Lead", leadRecord(c))
	return err
}

func leadRecord(c Contact) map[string]any {
	lastName := c.LastName
	if lastName == "" {
		// Lead.LastName and Lead.Company are required on the standard object.
		lastName = "Unknown"
	}
	company := c.Firm
	if company == "" {
		company = "Unknown"
	}
	record := map[string]any{
		"Email":      c.Email,
		"FirstName":  c.FirstName,
		"LastName":   lastName,
		"Company":    company,
		"LeadSource": leadSource(c),
	}
	if c.Title != "" {
		record["Title"] = c.Title
	}
	if c.Phone != "" {
		record["Phone"] = c.Phone
	}
	var notes []string
	if c.Notes != "" {
		notes = append(notes, c.Notes)
	}
	if c.WantsDemo {
		notes = append(notes, "Requested a demo.")
	}
	if c.Level != "" {
		notes = append(notes, fmt.Sprintf("AI readiness: %s (%.1f/5).", c.Level, c.Score))
	}
	if len(notes) > 0 {
		record["Description"] = strings.Join(notes, "\n")
	}
	return record
}

func leadSource(c Contact) string {
	if c.Source != "" {
		return c.Source
	}
	return "Web - " + c.FormType
}
