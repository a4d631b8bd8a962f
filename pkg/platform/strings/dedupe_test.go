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
			name:     "nil stays nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty stays empty",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims each element",
			input:    []string{" broker-1:9092 ", "broker-2:9092  "},
			expected: []string{"broker-1:9092", "broker-2:9092"},
		},
		{
			name:     "drops empties and blanks",
			input:    []string{"broker-1:9092", "", "   ", "broker-2:9092"},
			expected: []string{"broker-1:9092", "broker-2:9092"},
		},
		{
			name:     "dedupes keeping first-seen order",
			input:    []string{"b", "a", "b", "c", "a"},
			expected: []string{"b", "a", "c"},
		},
		{
			name:     "duplicates only after trimming",
			input:    []string{" a", "a ", "a"},
			expected: []string{"a"},
		},
		{
			name:     "case is significant",
			input:    []string{"Broker", "broker"},
			expected: []string{"Broker", "broker"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimDoesNotMutateItsInput(t *testing.T) {
	input := []string{" a ", "b", "a"}
	DedupeAndTrim(input)
	assert.Equal(t, []string{" a ", "b", "a"}, input)
}
