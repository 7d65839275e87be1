package assessment

import (
	"strings"
	"time"
)

type Service struct {
	thresholds Thresholds
	now        func() time.Time
}

func NewService(th Thresholds) *Service {
	if th.EmergingBelow <= 0 || th.DevelopingBelow <= th.EmergingBelow {
		th = DefaultThresholds()
	}
	return &Service{thresholds: th, now: time.Now}
}

func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

func (s *Service) Evaluate(name, email, firm string, answers Answers) (Submission, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	firm = strings.TrimSpace(firm)
	if name == "" || email == "" || firm == "" {
		return Submission{}, ErrMissingFields
	}
	if answers == nil {
		answers = Answers{}
	}

	card := Score(answers, questions, categories, s.thresholds)
	for i := range card.Results {
		card.Results[i].Recommendations = StaticRecommendations(card.Results[i].Category, card.Results[i].Percentage)
	}
	return Submission{
		Name:        name,
		Email:       email,
		Firm:        firm,
		Answers:     answers,
		CompletedAt: s.now().UTC(),
		Scorecard:   card,
	}, nil
}

// ScoreAnswers scores against the built-in bank without contact details.
func (s *Service) ScoreAnswers(answers Answers) Scorecard {
	return Score(answers, questions, categories, s.thresholds)
}
