package tags

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/storage"
)

type fixture struct {
	registry *Registry
	store    *storage.MemoryStore
	owner    string
	visitor  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore("")
	engine := auth.NewEngine(store, auth.NewTokenCodec([]byte("test-secret")), auth.DefaultPermissions())

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	owner, err := engine.Register(ctx, "owner", "pw", code)
	require.NoError(t, err)

	visitorCode, err := engine.GenerateAccessCode(ctx, owner, auth.RoleVisitor)
	require.NoError(t, err)
	visitor, err := engine.Register(ctx, "guest", "pw", visitorCode)
	require.NoError(t, err)

	return &fixture{registry: NewRegistry(engine, store), store: store, owner: owner, visitor: visitor}
}

func TestEnsureTagsCreatesMissingWithCreator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.registry.EnsureTags(ctx, f.owner, []string{"cats", "dogs", "cats"}))

	created, err := f.store.FindTagsByNames(ctx, []string{"cats", "dogs"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, tag := range created {
		assert.NotEmpty(t, tag.CreatedBy)
	}
}

func TestEnsureTagsExistingNeedsOnlyView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.EnsureTags(ctx, f.owner, []string{"cats"}))

	// Visitors lack create-tags but referencing an existing tag is fine
	assert.NoError(t, f.registry.EnsureTags(ctx, f.visitor, []string{"cats"}))

	// The moment any name is new, create-tags is required
	err := f.registry.EnsureTags(ctx, f.visitor, []string{"cats", "birds"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// And the forbidden call must not have created anything
	found, err := f.store.FindTagsByNames(ctx, []string{"birds"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestEnsureTagsRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	err := f.registry.EnsureTags(context.Background(), "garbage", []string{"cats"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestListAllRequiresAssignTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.registry.EnsureTags(ctx, f.owner, []string{"zebra", "ant"}))

	names, err := f.registry.ListAll(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"ant", "zebra"}, names)

	_, err = f.registry.ListAll(ctx, f.visitor)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}
