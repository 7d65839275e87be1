package assessment

import (
	"errors"
	"testing"
)

func TestQuestionBankShape(t *testing.T) {
	qs := Questions()
	if len(qs) != 25 {
		t.Fatalf("expected 25 questions, got %d", len(qs))
	}
	perCategory := map[CategoryID]int{}
	seen := map[string]bool{}
	for _, q := range qs {
		if seen[q.ID] {
			t.Fatalf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
		if q.Weight != 1 {
			t.Fatalf("expected weight 1 for %s", q.ID)
		}
		perCategory[q.Category]++
	}
	for _, id := range CategoryIDs() {
		if perCategory[id] != 5 {
			t.Fatalf("expected 5 questions in %s, got %d", id, perCategory[id])
		}
	}
}

func TestQuestionsReturnsCopy(t *testing.T) {
	qs := Questions()
	qs[0].Text = "mutated"
	if Questions()[0].Text == "mutated" {
		t.Fatal("question bank must not be mutable through Questions()")
	}
}

func TestExternalKeyBijection(t *testing.T) {
	seen := map[string]CategoryID{}
	for _, id := range CategoryIDs() {
		ext := ExternalKey(id)
		if prev, dup := seen[ext]; dup {
			t.Fatalf("external key %s used by %s and %s", ext, prev, id)
		}
		seen[ext] = id
		back, ok := ParseExternalKey(ext)
		if !ok || back != id {
			t.Fatalf("round trip failed for %s via %s", id, ext)
		}
	}
	if ExternalKey(Implementation) != "change" {
		t.Fatalf("expected implementation to map to change")
	}
	if id, ok := ParseExternalKey(" Implementation "); !ok || id != Implementation {
		t.Fatal("canonical keys must parse too")
	}
	if _, ok := ParseExternalKey("culture"); ok {
		t.Fatal("unknown key must not parse")
	}
}

func TestEvaluate(t *testing.T) {
	svc := NewService(DefaultThresholds())
	if _, err := svc.Evaluate("Ada", "", "Lovelace LLP", nil); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	sub, err := svc.Evaluate(" Ada ", "ada@example.com", "Lovelace LLP", Answers{})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sub.Name != "Ada" || sub.CompletedAt.IsZero() {
		t.Fatalf("unexpected submission %+v", sub)
	}
	for _, r := range sub.Results {
		if len(r.Recommendations) == 0 {
			t.Fatalf("expected static recommendations for %s", r.Category)
		}
	}

	high, _ := svc.Evaluate("Ada", "ada@example.com", "Lovelace LLP", allAnswers(5))
	if high.Results[0].Recommendations[0] == sub.Results[0].Recommendations[0] {
		t.Fatal("expected different recommendations for high and low bands")
	}
}
