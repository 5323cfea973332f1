package repository

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
)

// Memory is an in-process Repository used for local mode and tests. Fragments
// keep insertion order, which serves as the natural order for listings.
type Memory struct {
	mu sync.RWMutex

	fragments  map[model.FragmentID]*model.Fragment
	order      []model.FragmentID
	seeds      []*model.Seed
	narratives []*model.Narrative
	sessions   map[model.SessionID]time.Time
}

// NewMemory creates a new in-memory repository
func NewMemory() *Memory {
	return &Memory{
		fragments: make(map[model.FragmentID]*model.Fragment),
		sessions:  make(map[model.SessionID]time.Time),
	}
}

func cloneFragment(f *model.Fragment) *model.Fragment {
	clone := *f
	if f.Embedding != nil {
		clone.Embedding = make([]byte, len(f.Embedding))
		copy(clone.Embedding, f.Embedding)
	}
	return &clone
}

func (r *Memory) PutFragment(ctx context.Context, fragment *model.Fragment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fragments[fragment.ID]; !ok {
		r.order = append(r.order, fragment.ID)
	}
	r.fragments[fragment.ID] = cloneFragment(fragment)
	return nil
}

func (r *Memory) GetFragment(ctx context.Context, id model.FragmentID) (*model.Fragment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fragment, ok := r.fragments[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", id))
	}
	return cloneFragment(fragment), nil
}

func (r *Memory) ListFragments(ctx context.Context) ([]*model.Fragment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fragments := make([]*model.Fragment, 0, len(r.order))
	for _, id := range r.order {
		fragments = append(fragments, cloneFragment(r.fragments[id]))
	}
	return fragments, nil
}

func (r *Memory) ListFragmentsByState(ctx context.Context, state model.State) ([]*model.Fragment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var fragments []*model.Fragment
	for _, id := range r.order {
		if r.fragments[id].State == state {
			fragments = append(fragments, cloneFragment(r.fragments[id]))
		}
	}
	return fragments, nil
}

func (r *Memory) UpdateFragment(ctx context.Context, fragment *model.Fragment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fragments[fragment.ID]; !ok {
		return goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", fragment.ID))
	}
	r.fragments[fragment.ID] = cloneFragment(fragment)
	return nil
}

func (r *Memory) DeleteFragment(ctx context.Context, id model.FragmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fragments[id]; !ok {
		return goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", id))
	}
	delete(r.fragments, id)
	for i, fid := range r.order {
		if fid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Memory) PutSession(ctx context.Context, id model.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		r.sessions[id] = time.Now()
	}
	return nil
}

func (r *Memory) PutSeed(ctx context.Context, seed *model.Seed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *seed
	r.seeds = append(r.seeds, &clone)
	return nil
}

func (r *Memory) ListActiveSeeds(ctx context.Context) ([]*model.Seed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var seeds []*model.Seed
	for _, seed := range r.seeds {
		if !seed.Used {
			clone := *seed
			seeds = append(seeds, &clone)
		}
	}
	return seeds, nil
}

func (r *Memory) PutNarrative(ctx context.Context, narrative *model.Narrative) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *narrative
	r.narratives = append(r.narratives, &clone)
	return nil
}

func (r *Memory) LatestNarrative(ctx context.Context) (*model.Narrative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.narratives) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "no narrative synthesized yet")
	}

	latest := r.narratives[0]
	for _, n := range r.narratives[1:] {
		if n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	clone := *latest
	return &clone, nil
}
