package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of IdentityStore, ContentStore
// and BlobStore. It backs the memory storage mode and the unit tests; all
// methods are safe for concurrent use.
type MemoryStore struct {
	mu sync.Mutex

	users       map[string]*User // by id
	accessCodes map[string]*AccessCode
	images      []*Image
	tags        map[string]*Tag
	blobs       map[string][]byte

	nextUserID  int64
	nextImageID int64
	baseURL     string
}

// NewMemoryStore creates an empty store. baseURL is what BlobStore.BaseURL
// reports; content is only ever held in memory.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*User),
		accessCodes: make(map[string]*AccessCode),
		tags:        make(map[string]*Tag),
		blobs:       make(map[string][]byte),
		baseURL:     baseURL,
	}
}

// --- IdentityStore ---

func (m *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, ErrConflict
		}
	}
	m.nextUserID++
	cp := *user
	cp.ID = fmt.Sprintf("u%d", m.nextUserID)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

// SetUserOldestValidIssue moves the user's revocation cutoff. Tokens issued
// before the cutoff stop being accepted.
func (m *MemoryStore) SetUserOldestValidIssue(id string, cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.OldestValidIssue = cutoff
	}
}

func (m *MemoryStore) InsertAccessCode(ctx context.Context, code *AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.accessCodes[cp.Code] = &cp
	return nil
}

func (m *MemoryStore) FindAccessCode(ctx context.Context, code string) (*AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ac, ok := m.accessCodes[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ac
	return &cp, nil
}

func (m *MemoryStore) ConsumeAccessCode(ctx context.Context, code string) (*AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ac, ok := m.accessCodes[code]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.accessCodes, code)
	cp := *ac
	return &cp, nil
}

// --- ContentStore ---

func (m *MemoryStore) FindImageByHash(ctx context.Context, hash string) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *Image
	for _, img := range m.images {
		if img.Hash == hash && (oldest == nil || img.ID < oldest.ID) {
			oldest = img
		}
	}
	if oldest == nil {
		return nil, ErrNotFound
	}
	return copyImage(oldest), nil
}

func (m *MemoryStore) CreateImage(ctx context.Context, img *Image) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.images {
		if existing.Hash == img.Hash {
			return nil, ErrConflict
		}
	}
	return m.insertLocked(img), nil
}

// SeedImage inserts a record without the hash-uniqueness check. It exists so
// tests can construct the duplicate groups the dedup repair pass cleans up.
func (m *MemoryStore) SeedImage(img *Image) *Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(img)
}

func (m *MemoryStore) insertLocked(img *Image) *Image {
	m.nextImageID++
	cp := *copyImage(img)
	cp.ID = m.nextImageID
	m.images = append(m.images, &cp)
	return copyImage(&cp)
}

func (m *MemoryStore) UpdateImageTags(ctx context.Context, hash string, tags []string, updated int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, img := range m.images {
		if img.Hash == hash {
			img.Tags = append([]string(nil), tags...)
			img.Updated = time.UnixMilli(updated)
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) DeleteImageByHash(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.images[:0]
	found := false
	for _, img := range m.images {
		if img.Hash == hash {
			found = true
			continue
		}
		kept = append(kept, img)
	}
	m.images = kept
	return found, nil
}

func (m *MemoryStore) DeleteImagesByIDs(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.images[:0]
	for _, img := range m.images {
		if !drop[img.ID] {
			kept = append(kept, img)
		}
	}
	m.images = kept
	return nil
}

func (m *MemoryStore) QueryImages(ctx context.Context, filter ImageFilter, sortBy string, skip, limit int64) ([]*Image, error) {
	m.mu.Lock()
	matched := make([]*Image, 0, len(m.images))
	for _, img := range m.images {
		if filter.Matches(img.Tags) {
			matched = append(matched, copyImage(img))
		}
	}
	m.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		switch sortBy {
		case SortByHash:
			return matched[i].Hash < matched[j].Hash
		case SortByUploaded:
			return matched[i].Uploaded.Before(matched[j].Uploaded)
		case SortByUpdated:
			return matched[i].Updated.Before(matched[j].Updated)
		default:
			return matched[i].Name < matched[j].Name
		}
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= int64(len(matched)) {
		return []*Image{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStore) ListImages(ctx context.Context) ([]*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Image, 0, len(m.images))
	for _, img := range m.images {
		out = append(out, copyImage(img))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) FindTagsByNames(ctx context.Context, names []string) ([]*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Tag, 0, len(names))
	for _, name := range names {
		if t, ok := m.tags[name]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateTag(ctx context.Context, tag *Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[tag.Name]; ok {
		return nil
	}
	cp := *tag
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.tags[cp.Name] = &cp
	return nil
}

func (m *MemoryStore) ListTagNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tags))
	for name := range m.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// --- BlobStore ---

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemoryStore) BaseURL() string {
	return strings.TrimSuffix(m.baseURL, "/")
}

// Matches reports whether an image with the given tag set passes the filter.
func (f ImageFilter) Matches(tags []string) bool {
	for _, ex := range f.Exclude {
		for _, t := range tags {
			if t == ex {
				return false
			}
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		for _, t := range tags {
			if t == in {
				return true
			}
		}
	}
	return false
}

func copyImage(img *Image) *Image {
	cp := *img
	cp.Tags = append([]string(nil), img.Tags...)
	return &cp
}
