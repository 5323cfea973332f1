package model

import (
	"time"

	"github.com/google/uuid"
)

type SeedID string

// NewSeedID generates a new unique SeedID
func NewSeedID() SeedID {
	return SeedID(uuid.New().String())
}

// Seed is a topic suggestion injected by a third party (typically family) to
// steer future interviews. Unused seeds are woven into interview grounding.
// The core reads seeds; marking them used is the caller's concern.
type Seed struct {
	ID      SeedID
	Content string
	AddedBy string
	Used    bool

	CreatedAt time.Time
}
