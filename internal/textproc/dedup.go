package textproc

// RemoveDuplicates drops every string that is similar to an earlier kept
// one, using DefaultMatcher.
func RemoveDuplicates(items []string) []string {
	return DefaultMatcher.RemoveDuplicates(items)
}

// RemoveCrossDuplicates removes from *first every string similar to some
// string of second, using DefaultMatcher.
func RemoveCrossDuplicates(first *[]string, second []string) {
	DefaultMatcher.RemoveCrossDuplicates(first, second)
}

// RemoveDuplicates keeps the first member of each similarity class in
// original order. Inputs of length 0 or 1 are returned as is.
func (m Matcher) RemoveDuplicates(items []string) []string {
	return RemoveDuplicatesFunc(m, items, identity)
}

// RemoveCrossDuplicates rewrites *first keeping only the strings that have
// no similar counterpart in second. second is not modified. Both inputs are
// assumed to be free of internal duplicates already.
func (m Matcher) RemoveCrossDuplicates(first *[]string, second []string) {
	RemoveCrossDuplicatesFunc(m, first, second, identity)
}

// RemoveDuplicatesFunc is RemoveDuplicates over any element type; key
// gives the text compared for each element.
func RemoveDuplicatesFunc[T any](m Matcher, items []T, key func(T) string) []T {
	if len(items) < 2 {
		return items
	}
	kept := make([]T, 0, len(items))
	keys := make([]string, 0, len(items))
	for _, item := range items {
		k := key(item)
		if containsSimilar(m, keys, k) {
			continue
		}
		kept = append(kept, item)
		keys = append(keys, k)
	}
	return kept
}

// RemoveCrossDuplicatesFunc is RemoveCrossDuplicates over any element type.
func RemoveCrossDuplicatesFunc[T any](m Matcher, first *[]T, second []T, key func(T) string) {
	if first == nil || len(*first) == 0 || len(second) == 0 {
		return
	}
	others := make([]string, len(second))
	for i, item := range second {
		others[i] = key(item)
	}

	filtered := make([]T, 0, len(*first))
	for _, item := range *first {
		if !containsSimilar(m, others, key(item)) {
			filtered = append(filtered, item)
		}
	}
	*first = filtered
}

func containsSimilar(m Matcher, pool []string, s string) bool {
	for _, p := range pool {
		if m.IsSimilar(p, s) {
			return true
		}
	}
	return false
}

func identity(s string) string { return s }
