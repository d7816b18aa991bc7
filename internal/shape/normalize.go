package shape

import "strings"

// NormalizeIdentifier canonicalizes a schema-supplied name into a storage
// identifier: lower-cased, hyphens and spaces folded to single underscores.
// Schema authors supply either form interchangeably and both must land on
// the same column.
func NormalizeIdentifier(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(name))
	lastSep := false
	for _, r := range name {
		switch {
		case r == '-' || r == ' ' || r == '_':
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastSep = true
		default:
			b.WriteRune(r)
			lastSep = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// NormalizeFields normalizes every field name, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeFields(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		normalized := NormalizeIdentifier(field)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
