package assessment

import "time"

type CategoryID string

const (
	Strategy       CategoryID = "strategy"
	Data           CategoryID = "data"
	Technology     CategoryID = "technology"
	Team           CategoryID = "team"
	Implementation CategoryID = "implementation"
)

type Level string

const (
	LevelEmerging   Level = "Emerging"
	LevelDeveloping Level = "Developing"
	LevelMature     Level = "Mature"
)

type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
}

type Question struct {
	ID       string     `json:"id"`
	Text     string     `json:"text"`
	Category CategoryID `json:"category"`
	Weight   float64    `json:"weight"`
}

// Answers maps question id to a Likert value between 1 and 5.
type Answers map[string]int

type CategoryResult struct {
	Category        CategoryID `json:"category"`
	Name            string     `json:"name"`
	Score           float64    `json:"score"`
	MaxScore        float64    `json:"maxScore"`
	Percentage      float64    `json:"percentage"`
	Average         float64    `json:"average"`
	Answered        int        `json:"answered"`
	Level           Level      `json:"level"`
	Recommendations []string   `json:"recommendations"`
}

type Scorecard struct {
	Results           []CategoryResult `json:"results"`
	TotalScore        float64          `json:"totalScore"`
	MaxTotalScore     float64          `json:"maxTotalScore"`
	OverallPercentage float64          `json:"overallPercentage"`
	OverallAverage    float64          `json:"overallAverage"`
	OverallLevel      Level            `json:"overallLevel"`
}

type Submission struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Firm        string    `json:"firm"`
	Answers     Answers   `json:"answers"`
	CompletedAt time.Time `json:"completedAt"`
	Scorecard
}

type Thresholds struct {
	EmergingBelow   float64 `json:"emergingBelow"`
	DevelopingBelow float64 `json:"developingBelow"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{EmergingBelow: 2.5, DevelopingBelow: 4.0}
}
