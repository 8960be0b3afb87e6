package trip

import "errors"

var (
	ErrNotFound            = errors.New("trip not found")
	ErrInvalidDestination  = errors.New("destination must be at least 4 characters")
	ErrInvalidStartDate    = errors.New("invalid trip start date")
	ErrInvalidEndDate      = errors.New("invalid trip end date")
	ErrInvalidOwner        = errors.New("owner name and a valid owner email are required")
	ErrInvalidInviteeEmail = errors.New("invalid invitee email")
	ErrInvalidTitle        = errors.New("title must be at least 4 characters")
	ErrInvalidActivityDate = errors.New("activity date is outside the trip dates")
	ErrInvalidURL          = errors.New("invalid link url")
)
