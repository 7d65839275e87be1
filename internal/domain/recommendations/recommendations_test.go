package recommendations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"readiness/internal/domain/assessment"
	"readiness/internal/platform/llm"
	"readiness/internal/platform/metrics"
)

func sampleInput() Input {
	return Input{
		FirmName: "Lovelace LLP",
		Scores: map[assessment.CategoryID]float64{
			assessment.Strategy:       2.0,
			assessment.Data:           3.0,
			assessment.Technology:     4.2,
			assessment.Team:           1.4,
			assessment.Implementation: 3.6,
		},
		Thresholds: assessment.DefaultThresholds(),
	}
}

func validLevel(l assessment.Level) bool {
	return l == assessment.LevelEmerging || l == assessment.LevelDeveloping || l == assessment.LevelMature
}

func assertComplete(t *testing.T, r Recommendations) {
	t.Helper()
	if len(r.Categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(r.Categories))
	}
	for i, c := range r.Categories {
		if c.Key != assessment.CategoryIDs()[i] {
			t.Fatalf("category %d: expected key %s, got %s", i, assessment.CategoryIDs()[i], c.Key)
		}
		if !validLevel(c.Level) || c.WhatThisMeans == "" || len(c.QuickWins) == 0 || len(c.Recommendations) == 0 {
			t.Fatalf("category %s incomplete: %+v", c.Key, c)
		}
	}
	if !validLevel(r.Overall.Level) {
		t.Fatalf("invalid overall level %q", r.Overall.Level)
	}
}

func TestFallbackIsComplete(t *testing.T) {
	r := Fallback(sampleInput())
	assertComplete(t, r)

	var external []string
	for _, c := range r.Categories {
		external = append(external, assessment.ExternalKey(c.Key))
		if len(c.Recommendations) != 3 {
			t.Fatalf("expected 3 recommendations for %s", c.Key)
		}
		for _, rec := range c.Recommendations {
			if rec.Title == "" || rec.WhyItMatters == "" || len(rec.HowToExecute) == 0 ||
				rec.Owner == "" || rec.Timeline == "" || rec.SuccessMetric == "" {
				t.Fatalf("recommendation missing fields: %+v", rec)
			}
		}
	}
	sort.Strings(external)
	if strings.Join(external, ",") != "change,data,strategy,team,technology" {
		t.Fatalf("unexpected external key set %v", external)
	}
	if !r.Plan.Complete() || r.CTA.Copy == "" {
		t.Fatal("expected plan and cta on fallback")
	}
	if r.Overall.Score != 2.8 || r.Overall.Level != assessment.LevelDeveloping {
		t.Fatalf("unexpected overall %+v", r.Overall)
	}
	if r.Categories[3].Level != assessment.LevelEmerging || r.Categories[2].Level != assessment.LevelMature {
		t.Fatal("expected category levels from input scores")
	}
}

func TestFallbackDoesNotShareSlices(t *testing.T) {
	a := Fallback(sampleInput())
	a.Categories[0].QuickWins[0] = "mutated"
	a.Categories[0].Recommendations[0].HowToExecute[0] = "mutated"
	b := Fallback(sampleInput())
	if b.Categories[0].QuickWins[0] == "mutated" || b.Categories[0].Recommendations[0].HowToExecute[0] == "mutated" {
		t.Fatal("fallback content must not be shared between calls")
	}
}

func TestBuildPromptUsesExternalKeys(t *testing.T) {
	in := sampleInput()
	in.Answers = []AnsweredQuestion{{ID: "implementation_1", Text: "Rolled out tech", Category: assessment.Implementation, Answer: 4}}
	system, user := BuildPrompt(in)
	if !strings.Contains(system, `"change"`) || strings.Contains(system, "implementation") {
		t.Fatalf("system prompt should list external keys: %s", system)
	}
	if !strings.Contains(user, `"change": 3.6`) {
		t.Fatalf("user prompt should key scores externally: %s", user)
	}
	if !strings.Contains(user, "Lovelace LLP") || !strings.Contains(user, `"category": "change"`) {
		t.Fatalf("user prompt missing firm or answers: %s", user)
	}
}

const goodResponse = "```json\n" + `{
  "overall": {"summary": "Solid base {with braces}", "level": "developing", "score": 9, "top_priorities": ["a","b","c"]},
  "categories": [
    {"key": "strategy", "score": 5, "level": "Emerging", "what_this_means": "x", "quick_wins": ["q"], "recommendations": [{"title": "t", "why_it_matters": "w", "how_to_execute": ["s"], "owner": "o", "timeline": "30 days", "success_metric": "m"}]},
    {"key": "DATA", "score": "3.5", "level": "Mature (4.1)", "what_this_means": "x", "quick_wins": "single", "recommendations": [{"title": "t"}]},
    {"key": "change", "level": "nonsense", "what_this_means": "x", "quick_wins": ["q"], "recommendations": [{"title": "t"}]},
    {"key": "strategy", "what_this_means": "dup"},
    {"what_this_means": "no key"},
    {"key": "team", "what_this_means": "sixth entry dropped"}
  ],
  "plan_30_60_90": {"day_30": ["a"], "day_60": ["b"], "day_90": []},
  "cta": {"copy": "Call us", "link_text": "Book", "link_href": "https://example.com"}
}` + "\n```"

func TestDecodeBackfills(t *testing.T) {
	in := sampleInput()
	r, err := Decode(goodResponse, in)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assertComplete(t, r)

	if r.Overall.Level != assessment.LevelDeveloping || r.Overall.Score != 2.8 {
		t.Fatalf("overall should use normalized level and input score: %+v", r.Overall)
	}
	if r.Overall.Summary != "Solid base {with braces}" {
		t.Fatalf("unexpected summary %q", r.Overall.Summary)
	}

	strategy, _ := r.Category(assessment.Strategy)
	if strategy.Score != 2.0 || strategy.WhatThisMeans != "x" {
		t.Fatalf("strategy should keep model text but input score: %+v", strategy)
	}
	data, _ := r.Category(assessment.Data)
	if data.Level != assessment.LevelMature || len(data.QuickWins) != 1 || data.QuickWins[0] != "single" {
		t.Fatalf("unexpected data category %+v", data)
	}
	impl, _ := r.Category(assessment.Implementation)
	if impl.Level != assessment.LevelDeveloping || impl.Score != 3.6 {
		t.Fatalf("implementation level should be computed: %+v", impl)
	}
	team, _ := r.Category(assessment.Team)
	if team.WhatThisMeans != "dup" {
		t.Fatalf("duplicate key at index 3 should backfill positionally to team, got %+v", team)
	}
	tech, _ := r.Category(assessment.Technology)
	if tech.WhatThisMeans != "no key" {
		t.Fatalf("missing key should take the first free slot, got %+v", tech)
	}
	if len(team.Recommendations) != 3 {
		t.Fatal("empty recommendations should be filled from fallback")
	}

	if r.Plan.Complete() {
		t.Fatal("plan with empty bucket must stay incomplete for the report to default it")
	}
	if r.CTA.Copy != "Call us" {
		t.Fatalf("unexpected cta %+v", r.CTA)
	}
}

func TestDecodeFillsMissingCategories(t *testing.T) {
	raw := `Sure! {"overall": {"summary": "s"}, "categories": [{"key": "team", "what_this_means": "t"}]} trailing`
	r, err := Decode(raw, sampleInput())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assertComplete(t, r)
	team, _ := r.Category(assessment.Team)
	if team.WhatThisMeans != "t" {
		t.Fatalf("expected model text for team, got %q", team.WhatThisMeans)
	}
	if r.Plan.Complete() || r.CTA.Copy != "" {
		t.Fatal("missing plan and cta should stay empty")
	}
}

func TestDecodeScoresWithoutInput(t *testing.T) {
	raw := `{"overall": {"score": "4.4"}, "categories": [{"key": "strategy", "score": 12}]}`
	r, err := Decode(raw, Input{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if r.Overall.Score != 4.4 || r.Overall.Level != assessment.LevelMature {
		t.Fatalf("unexpected overall %+v", r.Overall)
	}
	strategy, _ := r.Category(assessment.Strategy)
	if strategy.Score != 5 {
		t.Fatalf("expected clamped score 5, got %v", strategy.Score)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "no json", raw: "I cannot help with that.", want: ErrNoJSON},
		{name: "missing overall", raw: `{"categories": [{}]}`, want: ErrMissingOverall},
		{name: "empty categories", raw: `{"overall": {}, "categories": []}`, want: ErrNoCategories},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.raw, sampleInput()); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := Decode(`{"overall": {"summary": 5}, "categories": [{}]}`, sampleInput()); err == nil {
		t.Fatal("expected type error for malformed overall")
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	tests := map[string]string{
		`prefix {"a":"}"} suffix {"b":1}`: `{"a":"}"}`,
		`{"a":{"b":"\"{"}}`:               `{"a":{"b":"\"{"}}`,
		`no object`:                       ``,
		`{"unterminated": 1`:              ``,
	}
	for in, want := range tests {
		if got := ExtractFirstJSONObject(in); got != want {
			t.Fatalf("ExtractFirstJSONObject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := map[string]assessment.Level{
		"emerging":       assessment.LevelEmerging,
		"  DEVELOPING ":  assessment.LevelDeveloping,
		"Mature (4.5/5)": assessment.LevelMature,
		"advanced":       "",
		"":               "",
	}
	for in, want := range tests {
		got, ok := NormalizeLevel(in)
		if got != want || ok != (want != "") {
			t.Fatalf("NormalizeLevel(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
}

func TestGeneratorFallsBack(t *testing.T) {
	m := metrics.New()
	tests := []struct {
		name   string
		client llm.Client
	}{
		{name: "no client", client: nil},
		{name: "network error", client: &llm.MockClient{Err: errors.New("dial tcp: connection refused")}},
		{name: "malformed json", client: &llm.MockClient{Response: "{not json"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r, source := NewGenerator(tc.client, m).Generate(context.Background(), sampleInput())
			if source != SourceFallback {
				t.Fatalf("expected fallback source, got %s", source)
			}
			assertComplete(t, r)
		})
	}
	if m.Count(metrics.LLMFallback) != 3 {
		t.Fatalf("expected 3 fallbacks counted, got %d", m.Count(metrics.LLMFallback))
	}
}

func TestGeneratorReportsCause(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
		want   error
	}{
		{name: "no client", client: nil, want: ErrNoClient},
		{name: "no json", client: &llm.MockClient{Response: "sorry, I cannot help"}, want: ErrNoJSON},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerator(tc.client, nil).generate(context.Background(), sampleInput())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGeneratorUsesModelOutput(t *testing.T) {
	client := &llm.MockClient{Response: goodResponse}
	r, source := NewGenerator(client, nil).Generate(context.Background(), sampleInput())
	if source != SourceLLM {
		t.Fatalf("expected llm source, got %s", source)
	}
	assertComplete(t, r)

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one model call, got %d", len(reqs))
	}
	if reqs[0].Temperature != 0.2 || reqs[0].MaxTokens != 3500 || !reqs[0].JSON {
		t.Fatalf("unexpected request params %+v", reqs[0])
	}
}
