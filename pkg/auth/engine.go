package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wtag-io/wtag/pkg/storage"
)

// Engine provides bootstrap, registration, login, access-code issuance and
// permission checks. It is stateless between calls; all durable state lives
// in the identity store.
type Engine struct {
	store storage.IdentityStore
	codec *TokenCodec
	table PermissionTable
}

// NewEngine creates an engine backed by the given store and token codec.
func NewEngine(store storage.IdentityStore, codec *TokenCodec, table PermissionTable) *Engine {
	return &Engine{store: store, codec: codec, table: table}
}

// Bootstrap mints the first owner access code. It succeeds only while the
// user table is empty and is safe to call repeatedly afterwards; every
// post-initialization call fails with ErrAlreadyInitialized.
func (e *Engine) Bootstrap(ctx context.Context) (string, error) {
	count, err := e.store.CountUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("counting users: %w", err)
	}
	if count != 0 {
		return "", ErrAlreadyInitialized
	}

	code := &storage.AccessCode{Code: uuid.NewString(), Role: string(RoleOwner)}
	if err := e.store.InsertAccessCode(ctx, code); err != nil {
		return "", fmt.Errorf("storing bootstrap code: %w", err)
	}
	return code.Code, nil
}

// Register redeems an access code, creates the account with the role the
// code carries, and returns a freshly issued identity token. The code is
// consumed atomically: concurrent registrations with the same code produce
// exactly one account.
func (e *Engine) Register(ctx context.Context, username, password, accessCode string) (string, error) {
	if _, err := e.store.FindAccessCode(ctx, accessCode); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidAccessCode
		}
		return "", fmt.Errorf("looking up access code: %w", err)
	}

	// Fast-fail on taken usernames before burning the code. The conditional
	// insert below still catches the race.
	if _, err := e.store.FindUserByUsername(ctx, username); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("looking up username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	code, err := e.store.ConsumeAccessCode(ctx, accessCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidAccessCode
		}
		return "", fmt.Errorf("consuming access code: %w", err)
	}

	user := &storage.User{
		Username:     username,
		PasswordHash: hash,
		Role:         code.Role,
		// Truncated to whole seconds so the token issued below, whose
		// issue time has second precision, is not older than this.
		OldestValidIssue: time.Now().Truncate(time.Second),
	}
	created, err := e.store.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a username race after the code was already consumed.
			// Put the code back so the caller can retry with another name.
			if restoreErr := e.store.InsertAccessCode(ctx, code); restoreErr != nil {
				return "", fmt.Errorf("restoring access code: %w", restoreErr)
			}
			return "", ErrUserExists
		}
		return "", fmt.Errorf("creating user: %w", err)
	}

	return e.codec.Issue(created.ID)
}

// Login verifies the credentials and returns a fresh identity token.
func (e *Engine) Login(ctx context.Context, username, password string) (string, error) {
	user, err := e.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrNoSuchAccount
		}
		return "", fmt.Errorf("looking up username: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	return e.codec.Issue(user.ID)
}

// Identify verifies the token and loads the user it refers to. Tokens whose
// issue time predates the user's oldest accepted issue time are rejected,
// which is what makes revoke-all-sessions possible.
func (e *Engine) Identify(ctx context.Context, token string) (*storage.User, error) {
	claims, err := e.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := e.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if claims.IssuedAt.Time.Before(user.OldestValidIssue) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// VerifyPermission verifies the token and reports whether the referenced
// user's current role grants the action. There is no caching, so role
// changes take effect on the next call.
func (e *Engine) VerifyPermission(ctx context.Context, token string, action Action) (bool, error) {
	user, err := e.Identify(ctx, token)
	if err != nil {
		return false, err
	}
	return e.table.HasPermission(Role(user.Role), action), nil
}

// HasPermission consults the engine's permission table directly, for callers
// that already hold an identified user.
func (e *Engine) HasPermission(role Role, action Action) bool {
	return e.table.HasPermission(role, action)
}

// GenerateAccessCode mints a single-use registration code for the requested
// role. Owner codes can only ever come from Bootstrap; minting admin codes
// requires create-admin-accounts, any other role create-accounts.
func (e *Engine) GenerateAccessCode(ctx context.Context, token string, role Role) (string, error) {
	if role == RoleOwner || !e.table.KnownRole(role) {
		return "", ErrInvalidRole
	}

	required := ActionCreateAccounts
	if role == RoleAdmin {
		required = ActionCreateAdminAccounts
	}
	ok, err := e.VerifyPermission(ctx, token, required)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrForbidden
	}

	code := &storage.AccessCode{Code: uuid.NewString(), Role: string(role)}
	if err := e.store.InsertAccessCode(ctx, code); err != nil {
		return "", fmt.Errorf("storing access code: %w", err)
	}
	return code.Code, nil
}
