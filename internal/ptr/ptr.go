// Package ptr has helpers for optional values such as nullable weights.
package ptr

// Ref returns a pointer to a copy of v.
func Ref[T any](v T) *T {
	return &v
}

// Deref returns the value p points to or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
