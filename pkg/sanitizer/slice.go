package sanitizer

// Dedupe keeps the first item for every non-empty key, preserving order.
func Dedupe[T any](items []T, key func(T) string) []T {
	result := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, item)
	}

	return result
}
