// Package utils provides conversion helpers for loosely typed field maps.
//
// Request bodies and stored rows are decoded into map[string]any before the
// pass normalizer looks at them, so values arrive as strings, float64s,
// bools or nil. These helpers fold them into the Go types a Record needs.
package utils
