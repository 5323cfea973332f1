package extract

import (
	_ "embed"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/image.md
var imagePromptRaw string

// FromImage derives memory fragments from a shared photograph. Same
// robustness rules as transcript extraction: vision or parse failure yields
// zero fragments and no error; fragments carry the media reference.
func (u *UseCase) FromImage(ctx context.Context, sessionID model.SessionID, mediaRef string, data []byte, mimeType string) (model.Era, error) {
	logger := logging.From(ctx)

	if u.gemini == nil || len(data) == 0 {
		return model.EraModern, nil
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema,
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(imagePromptRaw),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Warn("image analysis failed", "error", err, "media_ref", mediaRef)
		return model.EraModern, nil
	}

	text := responseText(resp)
	var result extractionResult
	if text == "" || json.Unmarshal([]byte(text), &result) != nil {
		logger.Warn("image analysis returned unparsable output", "media_ref", mediaRef)
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
		category := strings.TrimSpace(cand.Category)
		if category == "" {
			category = "Visual Memory"
		}
		fragments = append(fragments, &model.Fragment{
			ID:        model.NewFragmentID(),
			SessionID: sessionID,
			Category:  category,
			Content:   content,
			Context:   strings.TrimSpace(cand.Context),
			State:     model.StatePending,
			MediaRef:  mediaRef,
			// Strictly increasing so CreatedAt ordering preserves output
			// order within one batch
			CreatedAt: now.Add(time.Duration(len(fragments))),
		})
	}

	if len(fragments) == 0 {
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
		return era, goerr.Wrap(lastErr, "failed to persist photo fragments", goerr.V("media_ref", mediaRef))
	}

	logger.Info("extracted photo memory fragments", "session_id", sessionID, "count", len(fragments), "media_ref", mediaRef)
	return era, nil
}
