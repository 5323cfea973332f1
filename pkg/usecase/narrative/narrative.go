package narrative

import (
	"bytes"
	_ "embed"
	"context"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/adapter"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
	"google.golang.org/genai"
)

//go:embed prompt/synthesize.md
var synthesizePromptRaw string

var synthesizePromptTmpl = template.Must(template.New("synthesize").Parse(synthesizePromptRaw))

// UseCase compiles verified fragments into a single biography text and into
// an exportable memoir document. Only verified fragments feed either path.
type UseCase struct {
	repo    repository.Repository
	gemini  adapter.Gemini
	storage adapter.Storage
}

func New(repo repository.Repository, gemini adapter.Gemini, storage adapter.Storage) *UseCase {
	return &UseCase{
		repo:    repo,
		gemini:  gemini,
		storage: storage,
	}
}

// Synthesize summarizes all verified fragments into a new narrative and
// stores it. Downstream consumers only ever read the most recent narrative.
func (u *UseCase) Synthesize(ctx context.Context) (*model.Narrative, error) {
	fragments, err := u.repo.ListFragmentsByState(ctx, model.StateVerified)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load verified fragments")
	}
	if len(fragments) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "no verified fragments to synthesize")
	}

	var buf bytes.Buffer
	if err := synthesizePromptTmpl.Execute(&buf, map[string]any{
		"Fragments": fragments,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to build synthesis prompt")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize narrative")
	}

	text := responseText(resp)
	if text == "" {
		return nil, goerr.New("synthesis returned empty narrative")
	}

	narrative := &model.Narrative{
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := u.repo.PutNarrative(ctx, narrative); err != nil {
		return nil, goerr.Wrap(err, "failed to save narrative")
	}

	return narrative, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}
