package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"Passing-Year":        "passing_year",
		"passing_year":        "passing_year",
		"  University Name  ": "university_name",
		"ROLL--NO":            "roll_no",
		"trailing-":           "trailing",
		"-leading":            "leading",
		"":                    "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeIdentifier(input), "input %q", input)
	}
}

func TestNormalizeFields(t *testing.T) {
	t.Run("drops duplicates after normalization", func(t *testing.T) {
		got := NormalizeFields([]string{"Passing-Year", "passing_year", "Roll-No"})
		assert.Equal(t, []string{"passing_year", "roll_no"}, got)
	})

	t.Run("drops empties and preserves first-seen order", func(t *testing.T) {
		got := NormalizeFields([]string{"", "b-field", "a-field"})
		assert.Equal(t, []string{"b_field", "a_field"}, got)
	})
}
