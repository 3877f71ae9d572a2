// Package tags manages the registry of known tag names. Tags are created
// lazily the first time an unseen name is applied to an image, recording the
// acting user as creator.
package tags

import (
	"context"
	"fmt"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/storage"
)

// Registry provides tag existence checks and lazy creation, gated through
// the auth engine.
type Registry struct {
	engine *auth.Engine
	store  storage.ContentStore
}

// NewRegistry creates a registry backed by the given content store.
func NewRegistry(engine *auth.Engine, store storage.ContentStore) *Registry {
	return &Registry{engine: engine, store: store}
}

// EnsureTags makes every name in tags exist as a tag. Viewing permission is
// the baseline; create-tags is additionally required only when at least one
// name is new. When all names already exist no writes occur.
func (r *Registry) EnsureTags(ctx context.Context, token string, names []string) error {
	user, err := r.engine.Identify(ctx, token)
	if err != nil {
		return err
	}
	if !r.engine.HasPermission(auth.Role(user.Role), auth.ActionView) {
		return auth.ErrForbidden
	}

	existing, err := r.store.FindTagsByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("looking up tags: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[t.Name] = true
	}

	var missing []string
	for _, name := range names {
		if !known[name] {
			known[name] = true // dedupe repeated names in the request
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if !r.engine.HasPermission(auth.Role(user.Role), auth.ActionCreateTags) {
		return auth.ErrForbidden
	}

	for _, name := range missing {
		tag := &storage.Tag{Name: name, CreatedBy: user.ID}
		if err := r.store.CreateTag(ctx, tag); err != nil {
			return fmt.Errorf("creating tag %q: %w", name, err)
		}
	}
	return nil
}

// ListAll returns every known tag name. Requires assign-tags, since the
// listing exists to drive tag pickers.
func (r *Registry) ListAll(ctx context.Context, token string) ([]string, error) {
	ok, err := r.engine.VerifyPermission(ctx, token, auth.ActionAssignTags)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, auth.ErrForbidden
	}
	names, err := r.store.ListTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return names, nil
}
