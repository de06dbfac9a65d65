// Package pointer provides small helpers for working with pointers to
// values, mainly for populating optional fields.
package pointer

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}
