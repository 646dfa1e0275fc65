package util

// CloneSlice returns a copy of src. A nil or empty src yields an empty, non-nil slice.
func CloneSlice[T any](src []T) []T {
	clone := make([]T, len(src))
	copy(clone, src)

	return clone
}

// IsASCIIDigit reports whether b is one of the ASCII characters '0'..'9'.
func IsASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
