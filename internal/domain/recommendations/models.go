package recommendations

import (
	"readiness/internal/domain/assessment"
	"readiness/internal/platform/config"
)

type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

type Recommendations struct {
	Overall    Overall                  `json:"overall"`
	Categories []CategoryRecommendation `json:"categories"`
	Plan       Plan                     `json:"plan_30_60_90"`
	CTA        CTA                      `json:"cta"`
}

type Overall struct {
	Summary       string           `json:"summary"`
	Level         assessment.Level `json:"level"`
	Score         float64          `json:"score"`
	TopPriorities []string         `json:"top_priorities"`
}

type CategoryRecommendation struct {
	Key             assessment.CategoryID `json:"key"`
	Score           float64               `json:"score"`
	Level           assessment.Level      `json:"level"`
	WhatThisMeans   string                `json:"what_this_means"`
	QuickWins       []string              `json:"quick_wins"`
	Recommendations []Recommendation      `json:"recommendations"`
}

type Recommendation struct {
	Title         string   `json:"title"`
	WhyItMatters  string   `json:"why_it_matters"`
	HowToExecute  []string `json:"how_to_execute"`
	Owner         string   `json:"owner"`
	Timeline      string   `json:"timeline"`
	SuccessMetric string   `json:"success_metric"`
}

type Plan struct {
	Day30 []string `json:"day_30"`
	Day60 []string `json:"day_60"`
	Day90 []string `json:"day_90"`
}

// Complete reports whether every bucket has at least one item.
func (p Plan) Complete() bool {
	return len(p.Day30) > 0 && len(p.Day60) > 0 && len(p.Day90) > 0
}

type CTA struct {
	Copy     string `json:"copy"`
	LinkText string `json:"link_text"`
	LinkHref string `json:"link_href"`
}

type AnsweredQuestion struct {
	ID       string                `json:"id"`
	Text     string                `json:"text"`
	Category assessment.CategoryID `json:"category"`
	Answer   int                   `json:"answer"`
}

type Input struct {
	FirmName     string
	Scores       map[assessment.CategoryID]float64
	Answers      []AnsweredQuestion
	Thresholds   assessment.Thresholds
	Brand        config.Brand
	Requirements []string
	CTA          config.CTA
}

// Category returns the entry for id, or false when absent.
func (r Recommendations) Category(id assessment.CategoryID) (CategoryRecommendation, bool) {
	for _, c := range r.Categories {
		if c.Key == id {
			return c, true
		}
	}
	return CategoryRecommendation{}, false
}
