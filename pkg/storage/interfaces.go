package storage

import "context"

// IdentityStore persists users and access codes.
type IdentityStore interface {
	// CountUsers returns the total number of registered users
	CountUsers(ctx context.Context) (int64, error)

	// FindUserByID returns ErrNotFound if no user has the given id
	FindUserByID(ctx context.Context, id string) (*User, error)

	// FindUserByUsername returns ErrNotFound if the username is unknown
	FindUserByUsername(ctx context.Context, username string) (*User, error)

	// CreateUser inserts the user if the username is absent, assigning ID.
	// Returns ErrConflict when the username is already taken.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// InsertAccessCode stores a freshly minted access code
	InsertAccessCode(ctx context.Context, code *AccessCode) error

	// FindAccessCode returns ErrNotFound if the code does not exist
	FindAccessCode(ctx context.Context, code string) (*AccessCode, error)

	// ConsumeAccessCode atomically deletes the code and returns it. Under
	// concurrent redemption exactly one caller receives the code; the rest
	// get ErrNotFound.
	ConsumeAccessCode(ctx context.Context, code string) (*AccessCode, error)
}

// ContentStore persists image metadata and tags.
type ContentStore interface {
	// FindImageByHash returns ErrNotFound if no record carries the hash.
	// When duplicates exist (externally seeded data) the oldest record wins.
	FindImageByHash(ctx context.Context, hash string) (*Image, error)

	// CreateImage inserts the record if the hash is absent, assigning ID.
	// Returns ErrConflict when a record with the hash already exists.
	CreateImage(ctx context.Context, img *Image) (*Image, error)

	// UpdateImageTags replaces the tag set and updated timestamp of every
	// record with the hash. Returns ErrNotFound if none matched.
	UpdateImageTags(ctx context.Context, hash string, tags []string, updated int64) error

	// DeleteImageByHash removes all records with the hash and reports
	// whether any existed.
	DeleteImageByHash(ctx context.Context, hash string) (bool, error)

	// DeleteImagesByIDs removes records by surrogate id (dedup repair)
	DeleteImagesByIDs(ctx context.Context, ids []int64) error

	// QueryImages returns records matching the filter, sorted ascending by
	// sortBy (one of the SortBy constants), then sliced by skip and limit.
	QueryImages(ctx context.Context, filter ImageFilter, sortBy string, skip, limit int64) ([]*Image, error)

	// ListImages returns every record in stable (id) order
	ListImages(ctx context.Context) ([]*Image, error)

	// FindTagsByNames returns the subset of names that exist as tags
	FindTagsByNames(ctx context.Context, names []string) ([]*Tag, error)

	// CreateTag inserts the tag if the name is absent; existing names are
	// left untouched and do not error
	CreateTag(ctx context.Context, tag *Tag) error

	// ListTagNames returns every known tag name sorted ascending
	ListTagNames(ctx context.Context) ([]string, error)
}

// BlobStore stores object bytes under opaque keys.
type BlobStore interface {
	// Put writes the object, overwriting any previous content
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the object back; ErrNotFound if the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// BaseURL returns the public URL prefix objects are served from
	BaseURL() string
}
