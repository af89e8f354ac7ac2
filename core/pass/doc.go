// Package pass defines the press pass record and the normalization rules
// applied to it before anything is stored.
//
// Callers hand in loosely shaped field maps (web forms, legacy rows written
// under older column names, fallback entries) and receive one canonical
// Record. The precedence between competing spellings is fixed here and
// nowhere else:
//
//   - display name: name, then full_name
//   - identity: pass_number, then id, then a generated FP-XXXXXX id
//   - creation time: created_at, then issued_on, then issued_at, then now
//
// # Errors
//
// Validation failures are reported as *ValidationError before any store is
// touched. ErrNotFound and ErrStorageUnavailable are the only other errors
// the store layer lets through to callers.
package pass
