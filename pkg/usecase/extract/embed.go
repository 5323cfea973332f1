package extract

import (
	"context"

	"github.com/m-mizutani/memoria/pkg/embedding"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
)

// embedFragments computes and attaches embeddings in one batched call.
// Embedding is best-effort: on any failure the fragments are left without
// vectors and will be persisted anyway.
func (u *UseCase) embedFragments(ctx context.Context, fragments []*model.Fragment) {
	logger := logging.From(ctx)

	if u.gemini == nil || len(fragments) == 0 {
		return
	}

	texts := make([]string, len(fragments))
	for i, fragment := range fragments {
		texts[i] = fragment.EmbeddingText()
	}

	vectors, err := u.gemini.Embedding(ctx, texts)
	if err != nil {
		logger.Warn("embedding generation failed, persisting fragments without vectors", "error", err)
		return
	}
	if len(vectors) != len(fragments) {
		logger.Warn("embedding count mismatch, persisting fragments without vectors",
			"want", len(fragments), "got", len(vectors))
		return
	}

	for i, fragment := range fragments {
		fragment.Embedding = embedding.Encode(vectors[i])
	}
}

// AttachEmbedding computes the embedding for a stored fragment and persists
// it. Embedding failure leaves the fragment unchanged and returns it as-is;
// only a store failure is an error.
func (u *UseCase) AttachEmbedding(ctx context.Context, fragment *model.Fragment) (*model.Fragment, error) {
	logger := logging.From(ctx)

	if u.gemini == nil {
		return fragment, nil
	}

	vectors, err := u.gemini.Embedding(ctx, []string{fragment.EmbeddingText()})
	if err != nil || len(vectors) == 0 {
		logger.Warn("failed to compute embedding for fragment", "error", err, "fragment_id", fragment.ID)
		return fragment, nil
	}

	fragment.Embedding = embedding.Encode(vectors[0])
	if err := u.repo.UpdateFragment(ctx, fragment); err != nil {
		return nil, err
	}
	return fragment, nil
}
