package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionFragments  = "memoria_fragments"
	collectionSeeds      = "memoria_seeds"
	collectionNarratives = "memoria_narratives"
	collectionSessions   = "memoria_sessions"
)

// Firestore implements Repository using Cloud Firestore. Natural order of
// fragments is ascending creation time.
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying Firestore client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutFragment(ctx context.Context, fragment *model.Fragment) error {
	doc := r.client.Collection(collectionFragments).Doc(string(fragment.ID))
	if _, err := doc.Set(ctx, fragment); err != nil {
		return goerr.Wrap(err, "failed to put fragment", goerr.V("fragment_id", fragment.ID))
	}
	return nil
}

func (r *Firestore) GetFragment(ctx context.Context, id model.FragmentID) (*model.Fragment, error) {
	snap, err := r.client.Collection(collectionFragments).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get fragment", goerr.V("fragment_id", id))
	}

	var fragment model.Fragment
	if err := snap.DataTo(&fragment); err != nil {
		return nil, goerr.Wrap(err, "failed to decode fragment", goerr.V("fragment_id", id))
	}
	return &fragment, nil
}

func (r *Firestore) ListFragments(ctx context.Context) ([]*model.Fragment, error) {
	query := r.client.Collection(collectionFragments).OrderBy("CreatedAt", firestore.Asc)
	return r.fragmentsFromQuery(ctx, query)
}

func (r *Firestore) ListFragmentsByState(ctx context.Context, state model.State) ([]*model.Fragment, error) {
	query := r.client.Collection(collectionFragments).
		Where("State", "==", string(state)).
		OrderBy("CreatedAt", firestore.Asc)
	return r.fragmentsFromQuery(ctx, query)
}

func (r *Firestore) fragmentsFromQuery(ctx context.Context, query firestore.Query) ([]*model.Fragment, error) {
	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list fragments")
	}

	fragments := make([]*model.Fragment, 0, len(snaps))
	for _, snap := range snaps {
		var fragment model.Fragment
		if err := snap.DataTo(&fragment); err != nil {
			return nil, goerr.Wrap(err, "failed to decode fragment", goerr.V("doc_id", snap.Ref.ID))
		}
		fragments = append(fragments, &fragment)
	}
	return fragments, nil
}

func (r *Firestore) UpdateFragment(ctx context.Context, fragment *model.Fragment) error {
	doc := r.client.Collection(collectionFragments).Doc(string(fragment.ID))
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", fragment.ID))
		}
		return goerr.Wrap(err, "failed to check fragment", goerr.V("fragment_id", fragment.ID))
	}

	if _, err := doc.Set(ctx, fragment); err != nil {
		return goerr.Wrap(err, "failed to update fragment", goerr.V("fragment_id", fragment.ID))
	}
	return nil
}

func (r *Firestore) DeleteFragment(ctx context.Context, id model.FragmentID) error {
	doc := r.client.Collection(collectionFragments).Doc(string(id))
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "fragment not found", goerr.V("fragment_id", id))
		}
		return goerr.Wrap(err, "failed to check fragment", goerr.V("fragment_id", id))
	}

	if _, err := doc.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete fragment", goerr.V("fragment_id", id))
	}
	return nil
}

func (r *Firestore) PutSession(ctx context.Context, id model.SessionID) error {
	doc := r.client.Collection(collectionSessions).Doc(string(id))
	record := map[string]any{"CreatedAt": time.Now()}
	if _, err := doc.Set(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.V("session_id", id))
	}
	return nil
}

func (r *Firestore) PutSeed(ctx context.Context, seed *model.Seed) error {
	doc := r.client.Collection(collectionSeeds).Doc(string(seed.ID))
	if _, err := doc.Set(ctx, seed); err != nil {
		return goerr.Wrap(err, "failed to put seed", goerr.V("seed_id", seed.ID))
	}
	return nil
}

func (r *Firestore) ListActiveSeeds(ctx context.Context) ([]*model.Seed, error) {
	query := r.client.Collection(collectionSeeds).
		Where("Used", "==", false).
		OrderBy("CreatedAt", firestore.Asc)

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list seeds")
	}

	seeds := make([]*model.Seed, 0, len(snaps))
	for _, snap := range snaps {
		var seed model.Seed
		if err := snap.DataTo(&seed); err != nil {
			return nil, goerr.Wrap(err, "failed to decode seed", goerr.V("doc_id", snap.Ref.ID))
		}
		seeds = append(seeds, &seed)
	}
	return seeds, nil
}

func (r *Firestore) PutNarrative(ctx context.Context, narrative *model.Narrative) error {
	doc := r.client.Collection(collectionNarratives).NewDoc()
	if _, err := doc.Set(ctx, narrative); err != nil {
		return goerr.Wrap(err, "failed to put narrative")
	}
	return nil
}

func (r *Firestore) LatestNarrative(ctx context.Context) (*model.Narrative, error) {
	query := r.client.Collection(collectionNarratives).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(1)

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query narratives")
	}
	if len(snaps) == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "no narrative synthesized yet")
	}

	var narrative model.Narrative
	if err := snaps[0].DataTo(&narrative); err != nil {
		return nil, goerr.Wrap(err, "failed to decode narrative")
	}
	return &narrative, nil
}
