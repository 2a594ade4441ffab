package util

// GetPtr returns a pointer to v, handy for optional struct fields.
func GetPtr[T any](v T) *T {
	return &v
}
