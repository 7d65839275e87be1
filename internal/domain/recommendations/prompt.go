package recommendations

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"readiness/internal/domain/assessment"
)

const systemPrompt = `You are an AI adoption advisor for law firms. You recommend private, secure AI practices that protect client confidentiality and attorney-client privilege. Never suggest sending client data to public AI tools.

Respond with a single JSON object and nothing else. No markdown, no commentary.

The object must have exactly these top-level keys:
- "overall": {"summary": string, "level": "Emerging"|"Developing"|"Mature", "score": number, "top_priorities": [string, string, string]}
- "categories": an array of exactly 5 objects, one per key in this order: %s. Each object: {"key": string, "score": number, "level": "Emerging"|"Developing"|"Mature", "what_this_means": string, "quick_wins": [2-3 strings], "recommendations": [3-4 objects]}
- each recommendation: {"title": string, "why_it_matters": string, "how_to_execute": [2-4 short strings], "owner": string (a firm role), "timeline": string, "success_metric": string}
- "plan_30_60_90": {"day_30": [strings], "day_60": [strings], "day_90": [strings]}
- "cta": {"copy": string, "link_text": string, "link_href": string}

Scores are on a 0-5 scale; 0 means the category was not answered. Use the level thresholds provided. Keep every string concise: one or two sentences at most.`

type promptPayload struct {
	FirmName     string             `json:"firm_name"`
	Scores       map[string]float64 `json:"scores"`
	Thresholds   promptThresholds   `json:"thresholds"`
	Brand        promptBrand        `json:"brand"`
	Requirements []string           `json:"requirements,omitempty"`
	Answers      []promptAnswer     `json:"answers,omitempty"`
	CTALinkHref  string             `json:"cta_link_href,omitempty"`
}

type promptThresholds struct {
	EmergingBelow   float64 `json:"emerging_below"`
	DevelopingBelow float64 `json:"developing_below"`
}

type promptBrand struct {
	Name    string `json:"name,omitempty"`
	Tagline string `json:"tagline,omitempty"`
	Website string `json:"website,omitempty"`
}

type promptAnswer struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   int    `json:"answer"`
}

// BuildPrompt returns the system and user prompts. Category keys in the
// user prompt use their external names.
func BuildPrompt(in Input) (string, string) {
	ids := assessment.CategoryIDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("%q", assessment.ExternalKey(id))
	}
	system := fmt.Sprintf(systemPrompt, strings.Join(keys, ", "))

	th := in.Thresholds
	if th.EmergingBelow <= 0 || th.DevelopingBelow <= th.EmergingBelow {
		th = assessment.DefaultThresholds()
	}
	payload := promptPayload{
		FirmName:     in.FirmName,
		Scores:       make(map[string]float64, len(ids)),
		Thresholds:   promptThresholds{EmergingBelow: th.EmergingBelow, DevelopingBelow: th.DevelopingBelow},
		Brand:        promptBrand{Name: in.Brand.Name, Tagline: in.Brand.Tagline, Website: in.Brand.Website},
		Requirements: in.Requirements,
		CTALinkHref:  defaultCTA(in).LinkHref,
	}
	for _, id := range ids {
		payload.Scores[assessment.ExternalKey(id)] = math.Round(in.Scores[id]*100) / 100
	}
	for _, a := range in.Answers {
		payload.Answers = append(payload.Answers, promptAnswer{
			Category: assessment.ExternalKey(a.Category),
			Question: a.Text,
			Answer:   a.Answer,
		})
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		body = []byte("{}")
	}
	user := "Generate AI readiness recommendations for this law firm assessment:\n" + string(body)
	return system, user
}
