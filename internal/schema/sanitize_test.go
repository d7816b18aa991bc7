package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"unwraps escaped double quotes": {in: `{\"name\": \"value\"}`, want: `{"name": "value"}`},
		"unwraps escaped single quotes": {in: `it\'s`, want: `it's`},
		"clean text passes through":     {in: `{"name": "value"}`, want: `{"name": "value"}`},
		"removes exactly one level":     {in: `\\"doubled`, want: `\"doubled`},
		"empty input":                   {in: "", want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}
