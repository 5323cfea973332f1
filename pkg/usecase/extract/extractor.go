package extract

import (
	"bytes"
	_ "embed"
	"context"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/extract.md
var extractPromptRaw string

var extractPromptTmpl = template.Must(template.New("extract").Parse(extractPromptRaw))

// extractionResult is the structured output contract with the generative
// model. Anything that does not unmarshal into this shape counts as a parse
// failure and yields zero fragments.
type extractionResult struct {
	Fragments []extractedFragment `json:"fragments"`
	Era       string              `json:"era"`
}

type extractedFragment struct {
	Category string `json:"category"`
	Content  string `json:"content"`
	Context  string `json:"context"`
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"fragments": {
			Type:        genai.TypeArray,
			Description: "Newly disclosed biographical facts",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"category": {
						Type:        genai.TypeString,
						Description: "Short topical label, e.g. Childhood, Career",
					},
					"content": {
						Type:        genai.TypeString,
						Description: "The factual statement",
					},
					"context": {
						Type:        genai.TypeString,
						Description: "What prompted the disclosure",
					},
				},
				Required: []string{"category", "content"},
			},
		},
		"era": {
			Type:        genai.TypeString,
			Description: "Temporal classification of the discussed content",
			Enum:        []string{"modern", "vintage", "sepia"},
		},
	},
	Required: []string{"fragments", "era"},
}

// ExtractAndStore derives memory fragments from a transcript and persists
// them as pending. Generation or parse failure is absorbed: zero fragments,
// era defaults to modern, no error. Only fragment store writes can fail the
// call. Transcripts with fewer than 2 turns are skipped entirely, a single
// turn carries no new-information signal worth extracting.
func (u *UseCase) ExtractAndStore(ctx context.Context, sessionID model.SessionID, turns []model.Turn) (model.Era, error) {
	logger := logging.From(ctx)

	if len(turns) < 2 {
		return model.EraModern, nil
	}

	result, ok := u.runExtraction(ctx, turns)
	if !ok {
		return model.EraModern, nil
	}

	era := model.Era(result.Era)
	if err := era.Validate(); err != nil {
		era = model.EraModern
	}

	now := time.Now()
	var fragments []*model.Fragment
	for _, cand := range result.Fragments {
		content := strings.TrimSpace(cand.Content)
		if content == "" {
			continue
		}
		fragments = append(fragments, &model.Fragment{
			ID:        model.NewFragmentID(),
			SessionID: sessionID,
			Category:  strings.TrimSpace(cand.Category),
			Content:   content,
			Context:   strings.TrimSpace(cand.Context),
			State:     model.StatePending,
			// Strictly increasing so CreatedAt ordering preserves extractor
			// output order within one batch
			CreatedAt: now.Add(time.Duration(len(fragments))),
		})
	}

	if len(fragments) == 0 {
		logger.Debug("extraction yielded no fragments", "session_id", sessionID)
		return era, nil
	}

	u.embedFragments(ctx, fragments)

	var lastErr error
	for _, fragment := range fragments {
		if err := u.repo.PutFragment(ctx, fragment); err != nil {
			logger.Error("failed to persist fragment", "error", err, "fragment_id", fragment.ID)
			lastErr = err
		}
	}
	if lastErr != nil {
		return era, goerr.Wrap(lastErr, "failed to persist extracted fragments", goerr.V("session_id", sessionID))
	}

	logger.Info("extracted memory fragments", "session_id", sessionID, "count", len(fragments), "era", era)
	return era, nil
}

// runExtraction calls the generative model with the structured output schema
// and parses the reply. ok=false means "treat as zero fragments extracted".
func (u *UseCase) runExtraction(ctx context.Context, turns []model.Turn) (*extractionResult, bool) {
	logger := logging.From(ctx)

	if u.gemini == nil {
		logger.Warn("generation backend unavailable, skipping extraction")
		return nil, false
	}

	known, err := u.repo.ListFragments(ctx)
	if err != nil {
		// Dedup context is advisory, extraction proceeds without it
		logger.Warn("failed to load known fragments for dedup context", "error", err)
		known = nil
	}

	var buf bytes.Buffer
	if err := extractPromptTmpl.Execute(&buf, map[string]any{
		"Turns": turns,
		"Known": known,
	}); err != nil {
		logger.Warn("failed to build extraction prompt", "error", err)
		return nil, false
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Warn("extraction generation failed", "error", err)
		return nil, false
	}

	text := responseText(resp)
	if text == "" {
		logger.Warn("extraction returned empty response")
		return nil, false
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		logger.Warn("extraction returned unparsable output", "error", err)
		return nil, false
	}

	return &result, true
}

// responseText extracts the first text part of a generation response
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
