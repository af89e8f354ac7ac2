// Package local provides the fallback collections used by the pass store
// when the primary is unreachable.
//
// Every driver keeps the whole collection as one JSON array, read and
// rewritten as a unit:
//
//   - FileStore: a file on an afero filesystem (OS disk, or memory for
//     development and tests).
//   - ObjectStore: one object in an S3/MinIO bucket.
//
// Entries are decoded through pass.Decode, so collections written by older
// versions (full_name, issued_at, pass_number-only ids) still load.
package local
