// Package storage defines the persistence contracts the WTag core is built
// against, plus the record types that cross the persistence boundary.
//
// # Overview
//
// Three collaborator interfaces cover everything the services need:
//
//   - IdentityStore: users and single-use access codes
//   - ContentStore: image metadata and tags
//   - BlobStore: object bytes (full images and thumbnails)
//
// Implementations live in subpackages (postgres, s3) and in memory.go for
// tests and single-process development.
//
// # Conditional writes
//
// Uniqueness of usernames and image hashes is enforced at this boundary:
// CreateUser and CreateImage are insert-if-absent operations returning
// ErrConflict when the key is already taken, and ConsumeAccessCode atomically
// removes and returns a code so that concurrent redemptions have exactly one
// winner. Callers never do separate existence checks followed by writes.
package storage
