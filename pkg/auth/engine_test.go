package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtag-io/wtag/pkg/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore("")
	codec := NewTokenCodec([]byte("test-secret"))
	return NewEngine(store, codec, DefaultPermissions()), store
}

func TestBootstrapMintsOwnerCodeOnce(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	stored, err := store.FindAccessCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, string(RoleOwner), stored.Role)

	// Still no users; bootstrap may run again and mint another code
	again, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, code, again)

	// After the first registration every call rejects
	_, err = engine.Register(ctx, "owner", "pw", code)
	require.NoError(t, err)
	_, err = engine.Bootstrap(ctx)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestRegisterHappyPath(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)

	tok, err := engine.Register(ctx, "alice", "hunter2", code)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	user, err := engine.Identify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, string(RoleOwner), user.Role)

	// The code is consumed
	_, err = store.FindAccessCode(ctx, code)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// And cannot be redeemed again
	_, err = engine.Register(ctx, "bob", "pw", code)
	assert.ErrorIs(t, err, ErrInvalidAccessCode)
}

func TestRegisterRejectsUnknownCode(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.Register(context.Background(), "alice", "pw", "no-such-code")
	assert.ErrorIs(t, err, ErrInvalidAccessCode)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	_, err = engine.Register(ctx, "alice", "pw", code)
	require.NoError(t, err)

	require.NoError(t, store.InsertAccessCode(ctx, &storage.AccessCode{Code: "second", Role: string(RoleTagger)}))
	_, err = engine.Register(ctx, "alice", "pw", "second")
	assert.ErrorIs(t, err, ErrUserExists)

	// The losing registration must not burn the code
	_, err = store.FindAccessCode(ctx, "second")
	assert.NoError(t, err)
}

// staleReadStore hides one username from lookups, standing in for a
// registration whose existence check ran before a concurrent insert of the
// same name committed.
type staleReadStore struct {
	*storage.MemoryStore
	hidden string
}

func (s *staleReadStore) FindUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	if username == s.hidden {
		return nil, storage.ErrNotFound
	}
	return s.MemoryStore.FindUserByUsername(ctx, username)
}

func TestRegisterRestoresCodeAfterLostUsernameRace(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore("")
	codec := NewTokenCodec([]byte("test-secret"))
	engine := NewEngine(&staleReadStore{MemoryStore: store, hidden: "alice"}, codec, DefaultPermissions())

	require.NoError(t, store.InsertAccessCode(ctx, &storage.AccessCode{Code: "first", Role: string(RoleTagger)}))
	_, err := engine.Register(ctx, "alice", "pw", "first")
	require.NoError(t, err)

	// The stale read lets the second registration past the fast-fail check,
	// so the conflict only surfaces at the conditional user insert
	require.NoError(t, store.InsertAccessCode(ctx, &storage.AccessCode{Code: "second", Role: string(RoleTagger)}))
	_, err = engine.Register(ctx, "alice", "pw", "second")
	assert.ErrorIs(t, err, ErrUserExists)

	// The loser's code is restored and still redeems under another name
	_, err = store.FindAccessCode(ctx, "second")
	require.NoError(t, err)
	_, err = engine.Register(ctx, "bob", "pw", "second")
	assert.NoError(t, err)
}

func TestConcurrentRegistrationsConsumeCodeOnce(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	require.NoError(t, store.InsertAccessCode(ctx, &storage.AccessCode{Code: "shared", Role: string(RoleTagger)}))

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = engine.Register(ctx, "user"+string(rune('a'+n)), "pw", "shared")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidAccessCode)
		}
	}
	assert.Equal(t, 1, succeeded)

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	_, err = engine.Register(ctx, "alice", "hunter2", code)
	require.NoError(t, err)

	tok, err := engine.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	user, err := engine.Identify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = engine.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	_, err = engine.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestIdentifyRejectsStaleAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	tok, err := engine.Register(ctx, "alice", "pw", code)
	require.NoError(t, err)

	// A token for a user that no longer exists
	otherCodec := NewTokenCodec([]byte("test-secret"))
	ghost, err := otherCodec.Issue("no-such-user")
	require.NoError(t, err)
	_, err = engine.Identify(ctx, ghost)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Tokens issued before OldestValidIssue are revoked
	user, err := engine.Identify(ctx, tok)
	require.NoError(t, err)
	user.OldestValidIssue = time.Now().Add(time.Hour)
	store.SetUserOldestValidIssue(user.ID, user.OldestValidIssue)
	_, err = engine.Identify(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyPermissionPerRole(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	ownerTok, err := engine.Register(ctx, "owner", "pw", code)
	require.NoError(t, err)

	require.NoError(t, store.InsertAccessCode(ctx, &storage.AccessCode{Code: "v", Role: string(RoleVisitor)}))
	visitorTok, err := engine.Register(ctx, "guest", "pw", "v")
	require.NoError(t, err)

	ok, err := engine.VerifyPermission(ctx, ownerTok, ActionUploadImages)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.VerifyPermission(ctx, visitorTok, ActionUploadImages)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.VerifyPermission(ctx, visitorTok, ActionView)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = engine.VerifyPermission(ctx, "garbage", ActionView)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateAccessCode(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	code, err := engine.Bootstrap(ctx)
	require.NoError(t, err)
	ownerTok, err := engine.Register(ctx, "owner", "pw", code)
	require.NoError(t, err)

	// Owner mints an admin code
	adminCode, err := engine.GenerateAccessCode(ctx, ownerTok, RoleAdmin)
	require.NoError(t, err)
	stored, err := store.FindAccessCode(ctx, adminCode)
	require.NoError(t, err)
	assert.Equal(t, string(RoleAdmin), stored.Role)

	// Owner role and unknown roles are never mintable
	_, err = engine.GenerateAccessCode(ctx, ownerTok, RoleOwner)
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = engine.GenerateAccessCode(ctx, ownerTok, "wizard")
	assert.ErrorIs(t, err, ErrInvalidRole)

	// Admins can mint non-admin codes but not admin codes
	adminTok, err := engine.Register(ctx, "admin", "pw", adminCode)
	require.NoError(t, err)
	_, err = engine.GenerateAccessCode(ctx, adminTok, RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = engine.GenerateAccessCode(ctx, adminTok, RoleMod)
	assert.NoError(t, err)
}
