package participant

import "errors"

var (
	ErrNotFound     = errors.New("participant not found")
	ErrTripNotFound = errors.New("trip not found")
	ErrInvalidEmail = errors.New("invalid participant email")
)
