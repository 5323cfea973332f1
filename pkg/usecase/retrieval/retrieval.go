package retrieval

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/adapter"
	"github.com/m-mizutani/memoria/pkg/embedding"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
)

// DefaultLimit is the number of fragments injected as grounding context when
// the caller does not specify one
const DefaultLimit = 5

// UseCase selects the fragments most relevant to a live user utterance.
// Semantic ranking when the embedding backend cooperates, store-order
// fallback otherwise: grounding context degrades, it never vanishes.
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
}

func New(repo repository.Repository, gemini adapter.Gemini) *UseCase {
	return &UseCase{
		repo:   repo,
		gemini: gemini,
	}
}

// Grounding returns up to limit verified fragments ordered by relevance to
// the query. With an empty corpus, an empty query, or an unavailable
// embedding backend it returns the first fragments in store order instead.
// The result is deterministic for an unchanged corpus and query.
func (u *UseCase) Grounding(ctx context.Context, query string, limit int) ([]*model.Fragment, error) {
	logger := logging.From(ctx)

	if limit <= 0 {
		limit = DefaultLimit
	}

	corpus, err := u.repo.ListFragmentsByState(ctx, model.StateVerified)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load fragment corpus")
	}

	query = strings.TrimSpace(query)
	if len(corpus) == 0 || query == "" || u.gemini == nil {
		return head(corpus, limit), nil
	}

	queryVecs, err := u.gemini.Embedding(ctx, []string{query})
	if err != nil || len(queryVecs) == 0 {
		logger.Warn("query embedding unavailable, falling back to store order", "error", err)
		return head(corpus, limit), nil
	}

	candidates := u.candidateVectors(ctx, corpus)

	ranked := embedding.Rank(queryVecs[0], candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	byID := make(map[model.FragmentID]*model.Fragment, len(corpus))
	for _, fragment := range corpus {
		byID[fragment.ID] = fragment
	}

	result := make([]*model.Fragment, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, byID[r.ID])
	}
	return result, nil
}

// candidateVectors decodes stored embeddings and recomputes missing or
// malformed ones in a single batched call. Fragments whose vector cannot be
// obtained at all stay in the candidate set with a nil vector and score zero,
// so older unembedded fragments remain retrievable while never failing the
// call.
func (u *UseCase) candidateVectors(ctx context.Context, corpus []*model.Fragment) []embedding.Candidate {
	logger := logging.From(ctx)

	candidates := make([]embedding.Candidate, len(corpus))
	var missing []int
	var missingTexts []string

	for i, fragment := range corpus {
		candidates[i].ID = fragment.ID

		if len(fragment.Embedding) > 0 {
			vec, err := embedding.Decode(fragment.Embedding)
			if err == nil {
				candidates[i].Vector = vec
				continue
			}
			logger.Warn("stored embedding malformed, recomputing", "fragment_id", fragment.ID, "error", err)
		}

		missing = append(missing, i)
		missingTexts = append(missingTexts, fragment.EmbeddingText())
	}

	if len(missing) > 0 {
		vecs, err := u.gemini.Embedding(ctx, missingTexts)
		if err != nil || len(vecs) != len(missingTexts) {
			logger.Warn("on-demand embedding failed, affected fragments score zero", "count", len(missing), "error", err)
			return candidates
		}
		for j, i := range missing {
			candidates[i].Vector = vecs[j]
		}
	}

	return candidates
}

func head(fragments []*model.Fragment, limit int) []*model.Fragment {
	if len(fragments) > limit {
		return fragments[:limit]
	}
	return fragments
}
