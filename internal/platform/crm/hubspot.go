package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

type HubSpotConfig struct {
	BaseURL        string
	PortalID       string
	AssessmentForm string
	LeadForm       string
	AccessToken    string
}

type hubspotSyncer struct {
	cfg    HubSpotConfig
	client *http.Client
}

// NewHubSpot returns nil when no portal is configured.
func NewHubSpot(cfg HubSpotConfig, client *http.Client) Syncer {
	if strings.TrimSpace(cfg.PortalID) == "" || (cfg.AssessmentForm == "" && cfg.LeadForm == "") {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &hubspotSyncer{cfg: cfg, client: client}
}

func (h *hubspotSyncer) Name() string { return "hubspot" }

type hubspotField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type hubspotSubmission struct {
	Fields  []hubspotField `json:"fields"`
	Context struct {
		PageName string `json:"pageName,omitempty"`
	} `json:"context"`
}

func (h *hubspotSyncer) formFor(formType string) string {
	if formType == FormAssessment && h.cfg.AssessmentForm != "" {
		return h.cfg.AssessmentForm
	}
	if h.cfg.LeadForm != "" {
		return h.cfg.LeadForm
	}
	return h.cfg.AssessmentForm
}

func (h *hubspotSyncer) Sync(ctx context.Context, c Contact) error {
	formID := h.formFor(c.FormType)
	if strings.ContainsAny(formID, "/?#") {
		return eris.New(fmt.Sprintf("hubspot: invalid form id %q", formID))
	}

	sub := hubspotSubmission{}
	add := func(name, value string) {
		if strings.TrimSpace(value) != "" {
			sub.Fields = append(sub.Fields, hubspotField{Name: name, Value: value})
		}
	}
	add("email", c.Email)
	add("firstname", c.FirstName)
	add("lastname", c.LastName)
	add("company", c.Firm)
	add("jobtitle", c.Title)
	add("phone", c.Phone)
	add("message", c.Notes)
	add("lead_source", c.Source)
	add("form_type", c.FormType)
	if c.WantsDemo {
		add("wants_demo", "true")
	}
	if c.Level != "" {
		add("ai_readiness_level", c.Level)
		add("ai_readiness_score", strconv.FormatFloat(c.Score, 'f', 1, 64))
	}
	sub.Context.PageName = c.FormType

	body, err := json.Marshal(sub)
	if err != nil {
		return eris.Wrap(err, "hubspot: marshal submission")
	}
	endpoint := fmt.Sprintf("%s/submissions/v3/integration/submit/%s/%s",
		h.cfg.BaseURL, url.PathEscape(h.cfg.PortalID), url.PathEscape(formID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "hubspot: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if h.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.AccessToken)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "hubspot: submit form")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return eris.New(fmt.Sprintf("hubspot: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	return nil
}
