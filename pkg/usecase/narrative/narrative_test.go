package narrative_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
	"github.com/m-mizutani/memoria/pkg/usecase/narrative"
	"google.golang.org/genai"
)

type mockGemini struct {
	generate func(contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generate == nil {
		return nil, goerr.New("generation unavailable")
	}
	return m.generate(contents, config)
}

func (m *mockGemini) GenerateStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		resp, err := m.GenerateContent(ctx, contents, config)
		yield(resp, err)
	}
}

func (m *mockGemini) Embedding(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, goerr.New("embedding unavailable")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

// mockStorage captures export writes in memory, keyed by object name
type mockStorage struct {
	objects map[string]*bytes.Buffer
}

func newMockStorage() *mockStorage {
	return &mockStorage{objects: map[string]*bytes.Buffer{}}
}

type nopWriteCloser struct {
	*bytes.Buffer
}

func (nopWriteCloser) Close() error { return nil }

func (s *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	s.objects[key] = buf
	return nopWriteCloser{buf}, nil
}

func (s *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	buf, ok := s.objects[key]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "no such object", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func verifiedFragment(t *testing.T, repo repository.Repository, category, content, context_ string) {
	t.Helper()
	gt.NoError(t, repo.PutFragment(context.Background(), &model.Fragment{
		ID:       model.NewFragmentID(),
		Category: category,
		Content:  content,
		Context:  context_,
		State:    model.StateVerified,
	}))
}

func TestSynthesize(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	verifiedFragment(t, repo, "Childhood", "Grew up in Odense", "")
	verifiedFragment(t, repo, "Family", "Met Maria at the town dance in 1968", "")

	gemini := &mockGemini{
		generate: func(contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gt.A(t, contents).Length(1)
			prompt := contents[0].Parts[0].Text
			gt.S(t, prompt).Contains("Grew up in Odense")
			gt.S(t, prompt).Contains("Met Maria at the town dance in 1968")
			return textResponse("He grew up in Odense and met Maria in 1968."), nil
		},
	}

	uc := narrative.New(repo, gemini, newMockStorage())

	got, err := uc.Synthesize(ctx)
	gt.NoError(t, err)
	gt.Equal(t, got.Content, "He grew up in Odense and met Maria in 1968.")

	stored, err := repo.LatestNarrative(ctx)
	gt.NoError(t, err)
	gt.Equal(t, stored.Content, got.Content)
}

func TestSynthesizeNoVerifiedFragments(t *testing.T) {
	repo := repository.NewMemory()

	// A pending fragment must not feed synthesis
	gt.NoError(t, repo.PutFragment(context.Background(), &model.Fragment{
		ID:      model.NewFragmentID(),
		Content: "Unreviewed claim",
		State:   model.StatePending,
	}))

	uc := narrative.New(repo, &mockGemini{}, newMockStorage())

	_, err := uc.Synthesize(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSynthesizeGenerationFailure(t *testing.T) {
	repo := repository.NewMemory()
	verifiedFragment(t, repo, "Childhood", "Grew up in Odense", "")

	gemini := &mockGemini{
		generate: func(contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, goerr.Wrap(model.ErrServiceUnavailable, "backend down")
		},
	}

	uc := narrative.New(repo, gemini, newMockStorage())

	_, err := uc.Synthesize(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrServiceUnavailable))

	_, err = repo.LatestNarrative(context.Background())
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestExport(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	verifiedFragment(t, repo, "Childhood", "Grew up in Odense", "Asked where he grew up")
	verifiedFragment(t, repo, "Family", "Met Maria at the town dance in 1968", "")
	verifiedFragment(t, repo, "Childhood", "Loved playing football as a kid", "")

	gt.NoError(t, repo.PutNarrative(ctx, &model.Narrative{
		Content: "He grew up in Odense and met Maria in 1968.",
	}))

	storage := newMockStorage()
	uc := narrative.New(repo, &mockGemini{}, storage)

	key, err := uc.Export(ctx, "Henrik")
	gt.NoError(t, err)
	gt.S(t, key).Contains("exports/memoir_")

	buf, ok := storage.objects[key]
	gt.True(t, ok)
	doc := buf.String()

	gt.S(t, doc).Contains("# The Life Stories of Henrik")
	gt.S(t, doc).Contains("## The Story")
	gt.S(t, doc).Contains("He grew up in Odense and met Maria in 1968.")
	gt.S(t, doc).Contains("## Childhood")
	gt.S(t, doc).Contains("- Grew up in Odense")
	gt.S(t, doc).Contains("_Asked where he grew up_")
	gt.S(t, doc).Contains("## Family")

	// Category groups appear in first-appearance order
	gt.True(t, bytes.Index([]byte(doc), []byte("## Childhood")) < bytes.Index([]byte(doc), []byte("## Family")))
}

func TestExportWithoutNarrative(t *testing.T) {
	repo := repository.NewMemory()
	verifiedFragment(t, repo, "", "Grew up in Odense", "")

	storage := newMockStorage()
	uc := narrative.New(repo, &mockGemini{}, storage)

	key, err := uc.Export(context.Background(), "")
	gt.NoError(t, err)

	doc := storage.objects[key].String()
	gt.S(t, doc).Contains("# A Life in Memories")
	gt.S(t, doc).Contains("## Memories")

	if bytes.Contains([]byte(doc), []byte("## The Story")) {
		t.Error("export without a narrative must not contain a story section")
	}
}

func TestFetchExportedMemoir(t *testing.T) {
	repo := repository.NewMemory()
	verifiedFragment(t, repo, "Childhood", "Grew up in Odense", "")

	storage := newMockStorage()
	uc := narrative.New(repo, &mockGemini{}, storage)

	key, err := uc.Export(context.Background(), "Henrik")
	gt.NoError(t, err)

	doc, err := uc.Fetch(context.Background(), key)
	gt.NoError(t, err)
	gt.S(t, doc).Contains("# The Life Stories of Henrik")
	gt.S(t, doc).Contains("- Grew up in Odense")

	_, err = uc.Fetch(context.Background(), "exports/no_such_memoir.md")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestExportNoVerifiedFragments(t *testing.T) {
	uc := narrative.New(repository.NewMemory(), &mockGemini{}, newMockStorage())

	_, err := uc.Export(context.Background(), "Henrik")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}
