package workout

import "strings"

const sanitizeMaxLength = 200

// sanitize trims input, caps it at maxLength characters and strips angle brackets.
func sanitize(input string, maxLength int) string {
	s := strings.TrimSpace(input)
	if r := []rune(s); len(r) > maxLength {
		s = string(r[:maxLength])
	}
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

// NormalizeExerciseName is the canonical form of an exercise name used for both writes and lookups.
func NormalizeExerciseName(name string) string {
	return strings.Join(strings.Fields(sanitize(name, sanitizeMaxLength)), " ")
}

// normalizeNames normalizes names, dropping blanks and duplicates while keeping first-seen order.
func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := NormalizeExerciseName(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
