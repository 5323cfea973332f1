package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/memoria/pkg/embedding"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)

	return repo
}

func TestFirestorePutGetFragment(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	fragment := &model.Fragment{
		ID:        model.NewFragmentID(),
		SessionID: model.NewSessionID(),
		Category:  "Childhood",
		Content:   "Grew up in Odense",
		Context:   "Discussing early memories in Denmark",
		Embedding: embedding.Encode([]float32{0.1, 0.2, 0.3}),
		State:     model.StatePending,
		CreatedAt: time.Now(),
	}

	gt.NoError(t, repo.PutFragment(ctx, fragment))

	retrieved, err := repo.GetFragment(ctx, fragment.ID)
	gt.NoError(t, err)
	gt.Equal(t, retrieved.ID, fragment.ID)
	gt.Equal(t, retrieved.Category, fragment.Category)
	gt.Equal(t, retrieved.Content, fragment.Content)
	gt.Equal(t, retrieved.State, model.StatePending)

	vec, err := embedding.Decode(retrieved.Embedding)
	gt.NoError(t, err)
	gt.A(t, vec).Length(3)

	gt.NoError(t, repo.DeleteFragment(ctx, fragment.ID))
}

func TestFirestoreGetFragmentNotFound(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	_, err := repo.GetFragment(ctx, model.FragmentID("non-existent-fragment"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestFirestoreListByState(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	now := time.Now()
	pending := &model.Fragment{
		ID:        model.NewFragmentID(),
		Category:  "Career",
		Content:   "Worked as a fisherman",
		State:     model.StatePending,
		CreatedAt: now,
	}
	verified := &model.Fragment{
		ID:        model.NewFragmentID(),
		Category:  "Family",
		Content:   "Met Maria at the town dance",
		State:     model.StateVerified,
		CreatedAt: now,
	}

	gt.NoError(t, repo.PutFragment(ctx, pending))
	gt.NoError(t, repo.PutFragment(ctx, verified))

	listed, err := repo.ListFragmentsByState(ctx, model.StatePending)
	gt.NoError(t, err)

	found := false
	for _, fragment := range listed {
		gt.Equal(t, fragment.State, model.StatePending)
		if fragment.ID == pending.ID {
			found = true
		}
	}
	gt.True(t, found)

	gt.NoError(t, repo.DeleteFragment(ctx, pending.ID))
	gt.NoError(t, repo.DeleteFragment(ctx, verified.ID))
}

func TestFirestoreNarrative(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	narrative := &model.Narrative{
		Content:   "A life told in fragments",
		CreatedAt: time.Now(),
	}
	gt.NoError(t, repo.PutNarrative(ctx, narrative))

	latest, err := repo.LatestNarrative(ctx)
	gt.NoError(t, err)
	gt.Equal(t, latest.Content, narrative.Content)
}
