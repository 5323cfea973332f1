package model

import "time"

// Narrative is a single cohesive biography text synthesized from verified
// fragments. Only the most recent narrative is consumed downstream.
type Narrative struct {
	Content   string
	CreatedAt time.Time
}
