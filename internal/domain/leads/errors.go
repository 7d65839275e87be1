package leads

import "errors"

var (
	ErrInvalidFormType = errors.New("invalid form type")
	ErrInvalidEmail    = errors.New("valid email is required")
	ErrMissingFirm     = errors.New("firm name is required")
	ErrInvalidToken    = errors.New("invalid booking token")
	ErrLeadNotFound    = errors.New("lead not found")
)
