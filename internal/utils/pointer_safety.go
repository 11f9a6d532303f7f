package utils

func Ptr[T any](v T) *T {
	return &v
}

// FirstNonEmpty returns the first non empty string, or "" when every value is empty.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
