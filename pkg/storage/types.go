package storage

import (
	"errors"
	"time"
)

// Sentinel errors returned by store implementations. Services translate these
// into their own error vocabulary at the operation boundary.
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a conditional insert lost to an existing record
	ErrConflict = errors.New("record already exists")
)

// User is a registered account. Records are immutable after creation except
// for OldestValidIssue, which exists to support revoke-all-sessions.
type User struct {
	ID               string    `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	PasswordHash     []byte    `json:"-" db:"password_hash"`
	Role             string    `json:"role" db:"role"`
	OldestValidIssue time.Time `json:"-" db:"oldest_valid_issue"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// AccessCode is a single-use registration credential carrying the role the
// redeemer will receive.
type AccessCode struct {
	Code      string    `json:"code" db:"code"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Image is the metadata record for one stored image. ID is a store-assigned
// surrogate key; Hash is the content address. Hash uniqueness is enforced by
// CreateImage, not by the schema, so historical duplicates stay repairable
// by the dedup maintenance pass.
type Image struct {
	ID       int64     `json:"id" db:"id"`
	Hash     string    `json:"hash" db:"hash"`
	Name     string    `json:"name" db:"name"`
	Tags     []string  `json:"tags" db:"tags"`
	Uploaded time.Time `json:"uploaded" db:"uploaded"`
	Updated  time.Time `json:"updated" db:"updated"`
}

// Tag is a known tag name and the user who first created it.
type Tag struct {
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ImageFilter selects images by tag membership. Include and Exclude hold bare
// tag names; an image matches when it carries at least one Include tag (or
// Include is empty) and none of the Exclude tags.
type ImageFilter struct {
	Include []string
	Exclude []string
}

// Valid sort keys for QueryImages.
const (
	SortByName     = "name"
	SortByHash     = "hash"
	SortByUploaded = "uploaded"
	SortByUpdated  = "updated"
)
