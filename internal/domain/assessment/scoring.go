package assessment

import "math"

const likertMax = 5

// Score aggregates answers per category. Unanswered questions contribute to
// neither score nor max score; unknown question ids are ignored and answers
// are clamped into 1..5.
func Score(answers Answers, qs []Question, cats []Category, th Thresholds) Scorecard {
	type acc struct {
		score, max, weight float64
		answered           int
	}
	totals := make(map[CategoryID]*acc, len(cats))
	for _, c := range cats {
		totals[c.ID] = &acc{}
	}

	for _, q := range qs {
		a, ok := totals[q.Category]
		if !ok {
			continue
		}
		v, answered := answers[q.ID]
		if !answered {
			continue
		}
		v = ClampLikert(v)
		a.score += float64(v) * q.Weight
		a.max += q.Weight * likertMax
		a.weight += q.Weight
		a.answered++
	}

	card := Scorecard{Results: make([]CategoryResult, 0, len(cats))}
	for _, c := range cats {
		a := totals[c.ID]
		avg := 0.0
		if a.weight > 0 {
			avg = a.score / a.weight
		}
		card.Results = append(card.Results, CategoryResult{
			Category:        c.ID,
			Name:            c.Name,
			Score:           a.score,
			MaxScore:        a.max,
			Percentage:      percentage(a.score, a.max),
			Average:         round2(avg),
			Answered:        a.answered,
			Level:           LevelFor(avg, th),
			Recommendations: []string{},
		})
		card.TotalScore += a.score
		card.MaxTotalScore += a.max
	}
	card.OverallPercentage = percentage(card.TotalScore, card.MaxTotalScore)
	card.OverallAverage = round2(card.OverallPercentage / 100 * likertMax)
	card.OverallLevel = LevelFor(card.OverallAverage, th)
	return card
}

// ClampLikert pins an answer to the 1-5 scale.
func ClampLikert(v int) int {
	if v < 1 {
		return 1
	}
	if v > likertMax {
		return likertMax
	}
	return v
}

func percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	p := score / max * 100
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return round2(p)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LevelFor maps a 1..5 average onto a maturity level.
func LevelFor(avg float64, th Thresholds) Level {
	if th.EmergingBelow <= 0 || th.DevelopingBelow <= th.EmergingBelow {
		th = DefaultThresholds()
	}
	switch {
	case avg < th.EmergingBelow:
		return LevelEmerging
	case avg < th.DevelopingBelow:
		return LevelDeveloping
	default:
		return LevelMature
	}
}

// AverageScores returns each category's 1..5 average keyed by id.
func (s Scorecard) AverageScores() map[CategoryID]float64 {
	out := make(map[CategoryID]float64, len(s.Results))
	for _, r := range s.Results {
		out[r.Category] = r.Average
	}
	return out
}
