package recommendations

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"readiness/internal/domain/assessment"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
	folder     = cases.Fold()
)

// stringList accepts a JSON array of strings or a single string.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = splitNonEmpty([]string{one})
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var v string
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	*s = splitNonEmpty(out)
	return nil
}

type looseOverall struct {
	Summary       string          `json:"summary"`
	Level         string          `json:"level"`
	Score         json.RawMessage `json:"score"`
	TopPriorities stringList      `json:"top_priorities"`
}

type looseRecommendation struct {
	Title         string     `json:"title"`
	WhyItMatters  string     `json:"why_it_matters"`
	HowToExecute  stringList `json:"how_to_execute"`
	Owner         string     `json:"owner"`
	Timeline      string     `json:"timeline"`
	SuccessMetric string     `json:"success_metric"`
}

type looseCategory struct {
	Key             string                `json:"key"`
	Score           json.RawMessage       `json:"score"`
	Level           string                `json:"level"`
	WhatThisMeans   string                `json:"what_this_means"`
	QuickWins       stringList            `json:"quick_wins"`
	Recommendations []looseRecommendation `json:"recommendations"`
}

type loosePayload struct {
	Overall    *looseOverall     `json:"overall"`
	Categories []json.RawMessage `json:"categories"`
	Plan       json.RawMessage   `json:"plan_30_60_90"`
	CTA        json.RawMessage   `json:"cta"`
}

type loosePlan struct {
	Day30 stringList `json:"day_30"`
	Day60 stringList `json:"day_60"`
	Day90 stringList `json:"day_90"`
}

// CleanResponse strips a byte-order mark and markdown code fences.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractFirstJSONObject returns the first balanced JSON object in s, honoring
// string literals and escapes, or "" when none is found.
func ExtractFirstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	inString, escape := false, false
	depth := 0
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Decode parses untrusted model output into a complete Recommendations value.
// Scores always come from the input when present; keys, levels and missing
// content are backfilled.
func Decode(raw string, in Input) (Recommendations, error) {
	obj := ExtractFirstJSONObject(CleanResponse(raw))
	if obj == "" {
		return Recommendations{}, ErrNoJSON
	}
	var p loosePayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Recommendations{}, err
	}
	if p.Overall == nil {
		return Recommendations{}, ErrMissingOverall
	}
	if len(p.Categories) == 0 {
		return Recommendations{}, ErrNoCategories
	}

	fallback := Fallback(in)
	th := in.Thresholds
	out := Recommendations{}

	out.Overall = Overall{
		Summary:       strings.TrimSpace(p.Overall.Summary),
		Score:         fallback.Overall.Score,
		TopPriorities: p.Overall.TopPriorities,
	}
	if len(in.Scores) == 0 {
		if v, ok := parseScore(p.Overall.Score); ok {
			out.Overall.Score = v
		}
	}
	if lvl, ok := NormalizeLevel(p.Overall.Level); ok {
		out.Overall.Level = lvl
	} else {
		out.Overall.Level = assessment.LevelFor(out.Overall.Score, th)
	}
	if out.Overall.Summary == "" {
		out.Overall.Summary = fallback.Overall.Summary
	}
	if len(out.Overall.TopPriorities) == 0 {
		out.Overall.TopPriorities = fallback.Overall.TopPriorities
	}

	out.Categories = decodeCategories(p.Categories, in, fallback)

	if len(p.Plan) > 0 {
		var lp loosePlan
		if err := json.Unmarshal(p.Plan, &lp); err == nil {
			out.Plan = Plan{Day30: lp.Day30, Day60: lp.Day60, Day90: lp.Day90}
		}
	}
	if len(p.CTA) > 0 {
		var cta CTA
		if err := json.Unmarshal(p.CTA, &cta); err == nil {
			out.CTA = cta
		}
	}
	return out, nil
}

func decodeCategories(raw []json.RawMessage, in Input, fallback Recommendations) []CategoryRecommendation {
	ids := assessment.CategoryIDs()
	if len(raw) > len(ids) {
		raw = raw[:len(ids)]
	}

	parsed := make([]*looseCategory, len(raw))
	keys := make([]assessment.CategoryID, len(raw))
	used := map[assessment.CategoryID]bool{}
	for i, item := range raw {
		var c looseCategory
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		parsed[i] = &c
		if id, ok := assessment.ParseExternalKey(c.Key); ok && !used[id] {
			keys[i] = id
			used[id] = true
		}
	}
	for i := range keys {
		if keys[i] != "" {
			continue
		}
		if !used[ids[i]] {
			keys[i] = ids[i]
		} else {
			for _, id := range ids {
				if !used[id] {
					keys[i] = id
					break
				}
			}
		}
		used[keys[i]] = true
	}

	byKey := map[assessment.CategoryID]CategoryRecommendation{}
	for i, c := range parsed {
		fb, _ := fallback.Category(keys[i])
		if c == nil {
			byKey[keys[i]] = fb
			continue
		}
		byKey[keys[i]] = mergeCategory(keys[i], c, fb, in)
	}

	out := make([]CategoryRecommendation, 0, len(ids))
	for _, id := range ids {
		if c, ok := byKey[id]; ok {
			out = append(out, c)
			continue
		}
		fb, _ := fallback.Category(id)
		out = append(out, fb)
	}
	return out
}

func mergeCategory(id assessment.CategoryID, c *looseCategory, fb CategoryRecommendation, in Input) CategoryRecommendation {
	out := CategoryRecommendation{
		Key:           id,
		Score:         fb.Score,
		WhatThisMeans: strings.TrimSpace(c.WhatThisMeans),
		QuickWins:     c.QuickWins,
	}
	if _, known := in.Scores[id]; !known {
		if v, ok := parseScore(c.Score); ok {
			out.Score = v
		}
	}
	if lvl, ok := NormalizeLevel(c.Level); ok {
		out.Level = lvl
	} else {
		out.Level = assessment.LevelFor(out.Score, in.Thresholds)
	}
	for _, r := range c.Recommendations {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		out.Recommendations = append(out.Recommendations, Recommendation{
			Title:         strings.TrimSpace(r.Title),
			WhyItMatters:  strings.TrimSpace(r.WhyItMatters),
			HowToExecute:  r.HowToExecute,
			Owner:         strings.TrimSpace(r.Owner),
			Timeline:      strings.TrimSpace(r.Timeline),
			SuccessMetric: strings.TrimSpace(r.SuccessMetric),
		})
	}
	if out.WhatThisMeans == "" {
		out.WhatThisMeans = fb.WhatThisMeans
	}
	if len(out.QuickWins) == 0 {
		out.QuickWins = fb.QuickWins
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = fb.Recommendations
	}
	return out
}

// parseScore accepts a JSON number or numeric string and clamps into 0..5.
func parseScore(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(0, math.Min(5, v)), true
}

// NormalizeLevel folds case and tolerates trailing decoration such as
// "mature (4.2)".
func NormalizeLevel(s string) (assessment.Level, bool) {
	folded := folder.String(strings.TrimSpace(s))
	for _, lvl := range []assessment.Level{assessment.LevelEmerging, assessment.LevelDeveloping, assessment.LevelMature} {
		if strings.HasPrefix(folded, folder.String(string(lvl))) {
			return lvl, true
		}
	}
	return "", false
}

func splitNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
