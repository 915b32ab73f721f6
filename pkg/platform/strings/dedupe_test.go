package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  PMAY  ", "UJJ  "},
			expected: []string{"PMAY", "UJJ"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"PMAY", "UJJ", "PMAY", "RENTAL_SUPPORT", "UJJ"},
			expected: []string{"PMAY", "UJJ", "RENTAL_SUPPORT"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"PMAY", "", "  ", "UJJ"},
			expected: []string{"PMAY", "UJJ"},
		},
		{
			name:     "preserves case",
			input:    []string{"Pmay", "pmay", "PMAY"},
			expected: []string{"Pmay", "pmay", "PMAY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		input    [][]string
		expected []string
	}{
		{
			name:     "no lists",
			input:    nil,
			expected: []string{},
		},
		{
			name:     "earlier lists come first",
			input:    [][]string{{"STATE_HOUSING", "RENTAL_SUPPORT"}, {"PMAY"}},
			expected: []string{"STATE_HOUSING", "RENTAL_SUPPORT", "PMAY"},
		},
		{
			name:     "duplicates across lists keep first position",
			input:    [][]string{{"PMAY"}, {"MGNREGA (Job Card)", "PMAY"}},
			expected: []string{"PMAY", "MGNREGA (Job Card)"},
		},
		{
			name:     "nil lists are skipped",
			input:    [][]string{nil, {"PMAY"}, nil},
			expected: []string{"PMAY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.input...))
		})
	}
}

func TestTruncate(t *testing.T) {
	in := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b"}, Truncate(in, 2))
	assert.Equal(t, []string{"a", "b", "c"}, Truncate(in, 5))
	assert.Equal(t, []string{}, Truncate(in, -1))

	out := Truncate(in, 1)
	out[0] = "z"
	assert.Equal(t, "a", in[0], "truncate must copy")
}
