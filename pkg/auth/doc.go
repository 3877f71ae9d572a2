// Package auth implements the identity and authorization engine: invite-code
// bootstrapping, registration, login, token issuance and verification, and the
// static role-permission matrix.
//
// # Roles and permissions
//
// Five fixed roles exist (owner, admin, mod, tagger, visitor), each mapped to
// an immutable set of actions built once at load time. HasPermission is a pure
// lookup; an unknown role is simply granted nothing.
//
// # Tokens
//
// Identity tokens are HS256 JWTs carrying the user id and the issue time and
// nothing else. They are stateless and carry no expiry; instead every user
// record stores the oldest issue time it still accepts, so bumping that field
// invalidates all previously issued tokens at once.
//
// # Access codes
//
// Registration is gated on single-use access codes. Bootstrap mints the first
// owner code while the user table is empty; afterwards codes are minted by
// holders of the create-accounts (or create-admin-accounts) permission.
// Redemption consumes the code atomically at the storage boundary, so a code
// can never be redeemed twice even under concurrent registration.
package auth
