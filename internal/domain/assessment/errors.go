package assessment

import "errors"

var (
	ErrMissingFields = errors.New("name, email and firm are required")
	ErrInvalidScores = errors.New("invalid category scores")
)
