package repository

import (
	"context"

	"github.com/m-mizutani/memoria/pkg/model"
)

// Repository defines the interface for fragment, seed and narrative
// persistence. Every fragment query returns the full record; callers select
// the fields they need. Mutations are atomic per fragment, no cross-fragment
// transactions are assumed.
type Repository interface {
	// PutFragment saves a new fragment
	PutFragment(ctx context.Context, fragment *model.Fragment) error

	// GetFragment retrieves a fragment by ID
	GetFragment(ctx context.Context, id model.FragmentID) (*model.Fragment, error)

	// ListFragments retrieves all fragments in natural (creation) order
	ListFragments(ctx context.Context) ([]*model.Fragment, error)

	// ListFragmentsByState retrieves fragments in a given verification state,
	// in natural order
	ListFragmentsByState(ctx context.Context, state model.State) ([]*model.Fragment, error)

	// UpdateFragment overwrites an existing fragment
	UpdateFragment(ctx context.Context, fragment *model.Fragment) error

	// DeleteFragment removes a fragment permanently
	DeleteFragment(ctx context.Context, id model.FragmentID) error

	// PutSession registers an interview session
	PutSession(ctx context.Context, id model.SessionID) error

	// PutSeed saves a topic seed
	PutSeed(ctx context.Context, seed *model.Seed) error

	// ListActiveSeeds retrieves seeds not yet consumed by an interview
	ListActiveSeeds(ctx context.Context) ([]*model.Seed, error)

	// PutNarrative saves a synthesized narrative
	PutNarrative(ctx context.Context, narrative *model.Narrative) error

	// LatestNarrative retrieves the most recently synthesized narrative
	LatestNarrative(ctx context.Context) (*model.Narrative, error)
}
