package interview

import (
	"bytes"
	_ "embed"
	"context"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/adapter"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
	"github.com/m-mizutani/memoria/pkg/usecase/extract"
	"github.com/m-mizutani/memoria/pkg/usecase/retrieval"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/persona.md
var personaPromptRaw string

var personaPromptTmpl = template.Must(template.New("persona").Parse(personaPromptRaw))

// Session conducts one life-story interview. Each reply is grounded on
// retrieved memories and active seeds; after each reply the accumulated
// transcript is handed to the extraction dispatcher. The reply path never
// waits on extraction and never observes its outcome.
type Session struct {
	repo       repository.Repository
	gemini     adapter.Gemini
	retrieval  *retrieval.UseCase
	dispatcher *extract.Dispatcher
	profile    Profile

	sessionID model.SessionID
	history   []*genai.Content
	turns     []model.Turn
}

// NewInput contains the dependencies for an interview session. All service
// handles are constructed by the process entry point and injected here.
type NewInput struct {
	Repo       repository.Repository
	Gemini     adapter.Gemini
	Retrieval  *retrieval.UseCase
	Dispatcher *extract.Dispatcher
	Profile    Profile
	SessionID  model.SessionID // optional, generated when empty
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	if input.Gemini == nil {
		return nil, goerr.New("generation backend is required for interviews")
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = model.NewSessionID()
	}

	if err := input.Repo.PutSession(ctx, sessionID); err != nil {
		return nil, goerr.Wrap(err, "failed to register session", goerr.V("session_id", sessionID))
	}

	return &Session{
		repo:       input.Repo,
		gemini:     input.Gemini,
		retrieval:  input.Retrieval,
		dispatcher: input.Dispatcher,
		profile:    input.Profile.withDefaults(),
		sessionID:  sessionID,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID {
	return s.sessionID
}

// Send sends one user utterance and returns the full interviewer reply
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	config := s.generationConfig(ctx, message)
	s.history = append(s.history, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := s.gemini.GenerateContent(ctx, s.history, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate interview reply")
	}

	reply := responseText(resp)
	s.completeTurn(message, reply)
	return reply, nil
}

// SendStream sends one user utterance and yields the reply incrementally via
// onChunk. Extraction is dispatched only after the stream completes.
func (s *Session) SendStream(ctx context.Context, message string, onChunk func(chunk string)) (string, error) {
	config := s.generationConfig(ctx, message)
	s.history = append(s.history, genai.NewContentFromText(message, genai.RoleUser))

	var reply strings.Builder
	for resp, err := range s.gemini.GenerateStream(ctx, s.history, config) {
		if err != nil {
			return "", goerr.Wrap(err, "failed to stream interview reply")
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	s.completeTurn(message, reply.String())
	return reply.String(), nil
}

// completeTurn records the exchange and hands the transcript to background
// extraction
func (s *Session) completeTurn(message, reply string) {
	if reply != "" {
		s.history = append(s.history, genai.NewContentFromText(reply, genai.RoleModel))
	}

	s.turns = append(s.turns,
		model.Turn{Role: model.RoleUser, Text: message},
		model.Turn{Role: model.RoleAssistant, Text: reply},
	)

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(s.sessionID, s.turns)
	}
}

// generationConfig builds the system instruction for the next reply:
// persona, grounding memories relevant to the utterance, and active seeds.
// Grounding and seed lookups are best-effort; their failure degrades the
// prompt, never the reply.
func (s *Session) generationConfig(ctx context.Context, message string) *genai.GenerateContentConfig {
	logger := logging.From(ctx)

	var fragments []*model.Fragment
	if s.retrieval != nil {
		var err error
		fragments, err = s.retrieval.Grounding(ctx, message, s.profile.TopK)
		if err != nil {
			logger.Warn("grounding retrieval failed, proceeding without memories", "error", err)
			fragments = nil
		}
	}

	seeds, err := s.repo.ListActiveSeeds(ctx)
	if err != nil {
		logger.Warn("failed to load topic seeds", "error", err)
		seeds = nil
	}

	var buf bytes.Buffer
	if err := personaPromptTmpl.Execute(&buf, map[string]any{
		"Persona":   s.profile.Persona,
		"Subject":   s.profile.Subject,
		"Fragments": fragments,
		"Seeds":     seeds,
	}); err != nil {
		logger.Warn("failed to build persona prompt", "error", err)
		return nil
	}

	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(buf.String(), ""),
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "")
}
