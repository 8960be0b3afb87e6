package trip

import "time"

type Trip struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Activity struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Title     string    `json:"title"`
	OccursAt  time.Time `json:"occurs_at"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Link struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
