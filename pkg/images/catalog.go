package images

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wtag-io/wtag/pkg/auth"
	"github.com/wtag-io/wtag/pkg/imaging"
	"github.com/wtag-io/wtag/pkg/observability"
	"github.com/wtag-io/wtag/pkg/storage"
	"github.com/wtag-io/wtag/pkg/tags"
)

// DefaultTag is applied to every image at intake.
const DefaultTag = "untagged"

// Catalog is the image business service. Every operation authenticates and
// authorizes through the auth engine before touching storage.
type Catalog struct {
	engine        *auth.Engine
	registry      *tags.Registry
	store         storage.ContentStore
	blobs         storage.BlobStore
	codec         *imaging.Codec
	thumbnailSize int
	logger        *observability.Logger
}

// NewCatalog creates a catalog. thumbnailSize is the square canvas edge for
// generated thumbnails.
func NewCatalog(engine *auth.Engine, registry *tags.Registry, store storage.ContentStore,
	blobs storage.BlobStore, codec *imaging.Codec, thumbnailSize int, logger *observability.Logger) *Catalog {
	return &Catalog{
		engine:        engine,
		registry:      registry,
		store:         store,
		blobs:         blobs,
		codec:         codec,
		thumbnailSize: thumbnailSize,
		logger:        logger,
	}
}

// Ingest normalizes the upload, derives its content address, stores the
// canonical image and its thumbnail, and commits the metadata record last.
// Content whose hash is already cataloged is rejected with ErrAlreadyExists.
func (c *Catalog) Ingest(ctx context.Context, token string, raw []byte, name string) (string, error) {
	if err := c.require(ctx, token, auth.ActionUploadImages); err != nil {
		return "", err
	}

	canonical, err := c.codec.Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("normalizing upload: %w", err)
	}
	hash := c.codec.Digest(canonical)

	// Fast path; the conditional insert below is what actually closes the
	// intake race.
	if _, err := c.store.FindImageByHash(ctx, hash); err == nil {
		return "", ErrAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("looking up hash: %w", err)
	}

	thumb, err := c.codec.Thumbnail(canonical, c.thumbnailSize, c.thumbnailSize)
	if err != nil {
		return "", fmt.Errorf("rendering thumbnail: %w", err)
	}

	if err := c.blobs.Put(ctx, BlobKey(hash), canonical); err != nil {
		return "", fmt.Errorf("storing image blob: %w", err)
	}
	if err := c.blobs.Put(ctx, ThumbnailKey(hash), thumb); err != nil {
		return "", fmt.Errorf("storing thumbnail blob: %w", err)
	}

	now := time.Now()
	img := &storage.Image{
		Hash:     hash,
		Name:     name,
		Tags:     []string{DefaultTag},
		Uploaded: now,
		Updated:  now,
	}
	if _, err := c.store.CreateImage(ctx, img); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost an intake race for identical content; the blobs we
			// wrote are byte-identical to the winner's.
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("creating image record: %w", err)
	}

	c.logger.WithField("hash", hash).Info("image ingested")
	return hash, nil
}

// List returns the views of images matching the tag expression, sorted
// ascending by sortKey and paginated by skip/max.
func (c *Catalog) List(ctx context.Context, token string, terms []string, max, skip int64, sortKey string) ([]View, error) {
	if err := c.require(ctx, token, auth.ActionView); err != nil {
		return nil, err
	}

	filter := ParseTagExpression(terms)
	records, err := c.store.QueryImages(ctx, filter, normalizeSortKey(sortKey), skip, max)
	if err != nil {
		return nil, fmt.Errorf("querying images: %w", err)
	}

	views := make([]View, 0, len(records))
	for _, rec := range records {
		views = append(views, c.view(rec))
	}
	return views, nil
}

// Get returns the view of the image with the given content address.
func (c *Catalog) Get(ctx context.Context, token, hash string) (*View, error) {
	if err := c.require(ctx, token, auth.ActionView); err != nil {
		return nil, err
	}

	rec, err := c.store.FindImageByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up image: %w", err)
	}
	v := c.view(rec)
	return &v, nil
}

// AssignTags replaces the image's tag set wholesale. Unknown tag names are
// created through the registry, which requires create-tags for them.
func (c *Catalog) AssignTags(ctx context.Context, token, hash string, tagNames []string) error {
	if err := c.require(ctx, token, auth.ActionAssignTags); err != nil {
		return err
	}

	if len(tagNames) == 0 {
		tagNames = []string{DefaultTag}
	}
	if err := c.registry.EnsureTags(ctx, token, tagNames); err != nil {
		return err
	}

	err := c.store.UpdateImageTags(ctx, hash, tagNames, nowMillis())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("updating tags: %w", err)
	}
	return nil
}

// Delete removes the metadata record first and the blobs only if a record
// existed, so the blobs of a surviving record are never touched.
func (c *Catalog) Delete(ctx context.Context, token, hash string) error {
	if err := c.require(ctx, token, auth.ActionDeleteImages); err != nil {
		return err
	}

	found, err := c.store.DeleteImageByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("deleting image record: %w", err)
	}
	if !found {
		return ErrNotFound
	}

	if err := c.blobs.Delete(ctx, BlobKey(hash)); err != nil {
		return fmt.Errorf("deleting image blob: %w", err)
	}
	if err := c.blobs.Delete(ctx, ThumbnailKey(hash)); err != nil {
		return fmt.Errorf("deleting thumbnail blob: %w", err)
	}

	c.logger.WithField("hash", hash).Info("image deleted")
	return nil
}

// RegenerateThumbnails re-renders every thumbnail from the stored canonical
// image. Idempotent; safe to re-run after partial failure.
func (c *Catalog) RegenerateThumbnails(ctx context.Context, token string) error {
	if err := c.require(ctx, token, auth.ActionUploadImages); err != nil {
		return err
	}
	return c.RegenerateAllThumbnails(ctx)
}

// RegenerateAllThumbnails is the ungated maintenance pass behind
// RegenerateThumbnails, also run by the in-process scheduler. Each record is
// processed independently; a failure aborts the pass but keeps the
// thumbnails already rewritten.
func (c *Catalog) RegenerateAllThumbnails(ctx context.Context) error {
	records, err := c.store.ListImages(ctx)
	if err != nil {
		return fmt.Errorf("listing images: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.Hash] {
			continue
		}
		seen[rec.Hash] = true

		canonical, err := c.blobs.Get(ctx, BlobKey(rec.Hash))
		if err != nil {
			return fmt.Errorf("fetching blob %s: %w", rec.Hash, err)
		}
		thumb, err := c.codec.Thumbnail(canonical, c.thumbnailSize, c.thumbnailSize)
		if err != nil {
			return fmt.Errorf("rendering thumbnail %s: %w", rec.Hash, err)
		}
		if err := c.blobs.Put(ctx, ThumbnailKey(rec.Hash), thumb); err != nil {
			return fmt.Errorf("storing thumbnail %s: %w", rec.Hash, err)
		}
	}

	c.logger.WithField("count", len(seen)).Info("thumbnails regenerated")
	return nil
}

// Deduplicate removes residual duplicate records sharing a hash, keeping
// one per group. Intake enforces hash uniqueness, so this is a repair tool
// for externally seeded data, not a steady-state operation.
func (c *Catalog) Deduplicate(ctx context.Context, token string) (bool, error) {
	if err := c.require(ctx, token, auth.ActionDeleteImages); err != nil {
		return false, err
	}
	return c.DeduplicateAll(ctx)
}

// DeduplicateAll is the ungated maintenance pass behind Deduplicate, also
// run by the in-process scheduler. For every hash with more than one record
// the record with the smallest id survives.
func (c *Catalog) DeduplicateAll(ctx context.Context) (bool, error) {
	records, err := c.store.ListImages(ctx)
	if err != nil {
		return false, fmt.Errorf("listing images: %w", err)
	}

	kept := make(map[string]bool, len(records))
	var surplus []int64
	for _, rec := range records { // id order, so the oldest record survives
		if kept[rec.Hash] {
			surplus = append(surplus, rec.ID)
			continue
		}
		kept[rec.Hash] = true
	}

	if len(surplus) == 0 {
		return false, nil
	}
	if err := c.store.DeleteImagesByIDs(ctx, surplus); err != nil {
		return false, fmt.Errorf("deleting duplicate records: %w", err)
	}

	c.logger.WithField("removed", len(surplus)).Warn("duplicate image records removed")
	return true, nil
}

func (c *Catalog) require(ctx context.Context, token string, action auth.Action) error {
	ok, err := c.engine.VerifyPermission(ctx, token, action)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrForbidden
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (c *Catalog) view(rec *storage.Image) View {
	return View{
		BaseURL: c.blobs.BaseURL(),
		Hash:    rec.Hash,
		FileExt: FileExt,
		Name:    rec.Name,
		Tags:    rec.Tags,
	}
}
