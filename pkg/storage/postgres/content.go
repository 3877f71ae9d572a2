package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/wtag-io/wtag/pkg/storage"
)

// ContentStore implements storage.ContentStore on PostgreSQL. Image tag sets
// are TEXT[] columns queried with the array overlap operator.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new PostgreSQL-backed content store
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

const imageColumns = `id, hash, name, tags, uploaded, updated`

func scanImage(row interface{ Scan(...interface{}) error }) (*storage.Image, error) {
	var img storage.Image
	err := row.Scan(&img.ID, &img.Hash, &img.Name, pq.Array(&img.Tags), &img.Uploaded, &img.Updated)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *ContentStore) FindImageByHash(ctx context.Context, hash string) (*storage.Image, error) {
	img, err := scanImage(s.db.QueryRowContext(ctx, `
		SELECT `+imageColumns+` FROM images WHERE hash = $1 ORDER BY id ASC LIMIT 1
	`, hash))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying image: %w", err)
	}
	return img, nil
}

// CreateImage inserts the record only when no row carries the hash yet.
// The hash column has no UNIQUE constraint (duplicate rows must stay visible
// to the dedup pass), so under READ COMMITTED two concurrent inserts could
// both pass the NOT EXISTS check. The per-hash advisory lock serializes
// them; no row back means the hash is already present.
func (s *ContentStore) CreateImage(ctx context.Context, img *storage.Image) (*storage.Image, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning image insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, img.Hash); err != nil {
		return nil, fmt.Errorf("locking hash: %w", err)
	}

	cp := *img
	err = tx.QueryRowContext(ctx, `
		INSERT INTO images (hash, name, tags, uploaded, updated)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (SELECT 1 FROM images WHERE hash = $1)
		RETURNING id
	`, img.Hash, img.Name, pq.Array(img.Tags), img.Uploaded, img.Updated).Scan(&cp.ID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("inserting image: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing image insert: %w", err)
	}
	return &cp, nil
}

func (s *ContentStore) UpdateImageTags(ctx context.Context, hash string, tags []string, updated int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE images SET tags = $1, updated = $2 WHERE hash = $3
	`, pq.Array(tags), time.UnixMilli(updated), hash)
	if err != nil {
		return fmt.Errorf("updating image tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *ContentStore) DeleteImageByHash(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE hash = $1`, hash)
	if err != nil {
		return false, fmt.Errorf("deleting image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking delete result: %w", err)
	}
	return n > 0, nil
}

func (s *ContentStore) DeleteImagesByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("deleting images by id: %w", err)
	}
	return nil
}

// sortColumn whitelists the ORDER BY column; sort keys arrive from query
// strings and must never reach the SQL text directly.
func sortColumn(sortBy string) string {
	switch sortBy {
	case storage.SortByHash:
		return "hash"
	case storage.SortByUploaded:
		return "uploaded"
	case storage.SortByUpdated:
		return "updated"
	default:
		return "name"
	}
}

func (s *ContentStore) QueryImages(ctx context.Context, filter storage.ImageFilter, sortBy string, skip, limit int64) ([]*storage.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE 1=1`
	args := []interface{}{}
	if len(filter.Include) > 0 {
		args = append(args, pq.Array(filter.Include))
		query += fmt.Sprintf(` AND tags && $%d`, len(args))
	}
	if len(filter.Exclude) > 0 {
		args = append(args, pq.Array(filter.Exclude))
		query += fmt.Sprintf(` AND NOT (tags && $%d)`, len(args))
	}
	query += ` ORDER BY ` + sortColumn(sortBy) + ` ASC, id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}
	defer rows.Close()
	return collectImages(rows)
}

func (s *ContentStore) ListImages(ctx context.Context) ([]*storage.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+imageColumns+` FROM images ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()
	return collectImages(rows)
}

func collectImages(rows *sql.Rows) ([]*storage.Image, error) {
	out := []*storage.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}
	return out, nil
}

func (s *ContentStore) FindTagsByNames(ctx context.Context, names []string) ([]*storage.Tag, error) {
	if len(names) == 0 {
		return []*storage.Tag{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, created_by, created_at FROM tags WHERE name = ANY($1)
	`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	out := []*storage.Tag{}
	for rows.Next() {
		var t storage.Tag
		if err := rows.Scan(&t.Name, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return out, nil
}

func (s *ContentStore) CreateTag(ctx context.Context, tag *storage.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name, created_by) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, tag.Name, tag.CreatedBy)
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}
	return nil
}

func (s *ContentStore) ListTagNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag names: %w", err)
	}
	return out, nil
}
