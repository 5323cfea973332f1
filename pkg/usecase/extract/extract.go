package extract

import (
	"github.com/m-mizutani/memoria/pkg/adapter"
	"github.com/m-mizutani/memoria/pkg/repository"
)

// UseCase derives memory fragments from interview transcripts and media. It
// treats the generation and embedding backends as best-effort: any failure
// there yields fewer (or zero) fragments, never an error on the
// conversational path.
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
