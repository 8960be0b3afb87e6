package participant

import "time"

type Participant struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	IsOwner     bool      `json:"is_owner"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Details is the shape a single-participant lookup exposes: no trip
// linkage, no ownership flag.
type Details struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IsConfirmed bool   `json:"is_confirmed"`
}
