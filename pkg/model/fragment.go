package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type FragmentID string

// NewFragmentID generates a new unique FragmentID
func NewFragmentID() FragmentID {
	return FragmentID(uuid.New().String())
}

type State string

const (
	StatePending  State = "pending"
	StateVerified State = "verified"
)

// Validate checks if the state is valid
func (s State) Validate() error {
	switch s {
	case StatePending, StateVerified:
		return nil
	default:
		return goerr.New("invalid fragment state", goerr.V("state", s))
	}
}

// Fragment is a discrete unit of biographical information extracted from
// conversation or media. Machine-extracted fragments start as StatePending and
// become eligible for retrieval and export only after a human promotes them to
// StateVerified. The state never moves backwards.
type Fragment struct {
	ID        FragmentID
	SessionID SessionID
	Category  string
	Content   string
	Context   string

	// Embedding is the codec-encoded float32 vector of EmbeddingText().
	// nil until computed; retrieval degrades gracefully without it.
	Embedding []byte

	State    State
	MediaRef string

	CreatedAt time.Time
}

// EmbeddingText returns the canonical text the fragment's embedding is
// computed from.
func (f *Fragment) EmbeddingText() string {
	return f.Category + ": " + f.Content
}
