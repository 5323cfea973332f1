package narrative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
)

// Export compiles the verified fragments, grouped by category, together with
// the latest narrative into a markdown memoir document and writes it to the
// export storage. It returns the object key of the written document.
func (u *UseCase) Export(ctx context.Context, subjectName string) (string, error) {
	fragments, err := u.repo.ListFragmentsByState(ctx, model.StateVerified)
	if err != nil {
		return "", goerr.Wrap(err, "failed to load verified fragments")
	}
	if len(fragments) == 0 {
		return "", goerr.Wrap(model.ErrInvalidArgument, "no verified fragments to export")
	}

	latest, err := u.repo.LatestNarrative(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return "", goerr.Wrap(err, "failed to load narrative")
	}

	doc := compileMemoir(subjectName, fragments, latest)

	key := fmt.Sprintf("exports/memoir_%s.md", time.Now().Format("20060102_150405"))
	w, err := u.storage.Put(ctx, key)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open export writer", goerr.V("key", key))
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write export", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize export", goerr.V("key", key))
	}

	return key, nil
}

// Fetch reads a previously exported memoir document back from the export
// storage by its object key.
func (u *UseCase) Fetch(ctx context.Context, key string) (string, error) {
	r, err := u.storage.Get(ctx, key)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open export", goerr.V("key", key))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read export", goerr.V("key", key))
	}
	return string(data), nil
}

// compileMemoir renders the export document. Fragments are grouped by
// category in first-appearance order so output is stable for an unchanged
// corpus.
func compileMemoir(subjectName string, fragments []*model.Fragment, latest *model.Narrative) string {
	var sb strings.Builder

	title := "A Life in Memories"
	if subjectName != "" {
		title = "The Life Stories of " + subjectName
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("_A collection of memories, moments, and wisdom captured through conversation._\n\n")

	if latest != nil && latest.Content != "" {
		sb.WriteString("## The Story\n\n")
		sb.WriteString(latest.Content)
		sb.WriteString("\n\n")
	}

	var order []string
	grouped := make(map[string][]*model.Fragment)
	for _, fragment := range fragments {
		category := fragment.Category
		if category == "" {
			category = "Memories"
		}
		if _, ok := grouped[category]; !ok {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], fragment)
	}

	for _, category := range order {
		sb.WriteString("## " + category + "\n\n")
		for _, fragment := range grouped[category] {
			sb.WriteString("- " + fragment.Content + "\n")
			if fragment.Context != "" {
				sb.WriteString("  - _" + fragment.Context + "_\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
