package delivery

import "errors"

var (
	ErrInvalidPDF       = errors.New("invalid pdf payload")
	ErrMissingRecipient = errors.New("recipient email is required")
)
