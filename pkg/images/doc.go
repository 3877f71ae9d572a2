// Package images implements the content-addressed image catalog: hash-based
// intake with deduplication, tag-filtered listing, tag assignment, deletion,
// and the thumbnail/dedup maintenance passes.
//
// # Content addressing
//
// Uploads are normalized to a canonical PNG and addressed by the SHA-256 of
// the canonical bytes, so the same pixels always land on the same hash no
// matter how they were encoded on the way in. Re-uploading existing content
// is rejected rather than overwritten.
//
// # Sensitive content
//
// The reserved tag "*sensitive" is opt-in only: every listing excludes it
// unless the query names it explicitly in its inclusion set.
//
// # Ordering of writes
//
// Intake writes the full image and thumbnail blobs first and commits the
// metadata record last, so a record never exists without its blobs having
// been attempted. A crash in between can orphan a blob, which is harmless:
// blobs are keyed by hash, and a later successful intake of the same content
// overwrites them with identical bytes.
package images
