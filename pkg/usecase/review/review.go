package review

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/repository"
)

// UseCase is the verification gate: it moves machine-extracted fragments
// from pending to verified, lets a human edit them first, or removes them.
// These are explicit user actions, so unlike extraction and retrieval their
// failures propagate to the caller.
type UseCase struct {
	repo repository.Repository
}

func New(repo repository.Repository) *UseCase {
	return &UseCase{repo: repo}
}

// ListPending returns fragments awaiting human review, in natural order
func (u *UseCase) ListPending(ctx context.Context) ([]*model.Fragment, error) {
	return u.repo.ListFragmentsByState(ctx, model.StatePending)
}

// List returns verified fragments by default. includeAll adds pending ones
// and exists for administrative listing only; nothing user-facing in the
// final memoir may use it.
func (u *UseCase) List(ctx context.Context, includeAll bool) ([]*model.Fragment, error) {
	if includeAll {
		return u.repo.ListFragments(ctx)
	}
	return u.repo.ListFragmentsByState(ctx, model.StateVerified)
}

// Verify promotes a pending fragment to verified. Verifying an already
// verified fragment is a no-op; the state never moves backwards.
func (u *UseCase) Verify(ctx context.Context, id model.FragmentID) error {
	fragment, err := u.repo.GetFragment(ctx, id)
	if err != nil {
		return err
	}

	if fragment.State == model.StateVerified {
		return nil
	}

	fragment.State = model.StateVerified
	if err := u.repo.UpdateFragment(ctx, fragment); err != nil {
		return goerr.Wrap(err, "failed to verify fragment", goerr.V("fragment_id", id))
	}
	return nil
}

// Edit updates a fragment's content and optionally its category without
// touching the verification state. Content must be non-empty; an empty
// category keeps the existing one.
func (u *UseCase) Edit(ctx context.Context, id model.FragmentID, content, category string) (*model.Fragment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "fragment content must not be empty", goerr.V("fragment_id", id))
	}

	fragment, err := u.repo.GetFragment(ctx, id)
	if err != nil {
		return nil, err
	}

	fragment.Content = content
	if category = strings.TrimSpace(category); category != "" {
		fragment.Category = category
	}
	// The stored vector no longer matches the edited text; retrieval
	// recomputes on demand when it is missing.
	fragment.Embedding = nil

	if err := u.repo.UpdateFragment(ctx, fragment); err != nil {
		return nil, goerr.Wrap(err, "failed to update fragment", goerr.V("fragment_id", id))
	}
	return fragment, nil
}

// Reject hard-deletes a fragment. There is no tombstone; the fragment is
// simply absent thereafter.
func (u *UseCase) Reject(ctx context.Context, id model.FragmentID) error {
	return u.repo.DeleteFragment(ctx, id)
}
