package schema

import "strings"

// sanitizer undoes exactly one level of quote escaping left behind by prior
// serialization of the schema text. It runs on the raw schema text only,
// never on parsed field values.
var sanitizer = strings.NewReplacer(`\"`, `"`, `\'`, `'`)

// Sanitize removes one level of backslash escaping for double and single
// quotes from raw schema text.
func Sanitize(raw string) string {
	return sanitizer.Replace(raw)
}
