package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuiteName(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		command  string
		expected string
	}{
		{
			name:     "bazel build",
			display:  "Bazel",
			command:  "build",
			expected: "BazelBuild",
		},
		{
			name:     "buck2 test",
			display:  "Buck2",
			command:  "test",
			expected: "Buck2Test",
		},
		{
			name:     "already capitalized",
			display:  "Reclient",
			command:  "Build",
			expected: "ReclientBuild",
		},
		{
			name:     "multibyte first rune",
			display:  "Bazel",
			command:  "ébauche",
			expected: "BazelÉbauche",
		},
		{
			name:     "single multibyte rune",
			display:  "Buck2",
			command:  "ω",
			expected: "Buck2Ω",
		},
		{
			name:     "empty command",
			display:  "Goma",
			command:  "",
			expected: "Goma",
		},
		{
			name:     "surrounding whitespace",
			display:  "Bazel",
			command:  " clean ",
			expected: "BazelClean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SuiteName(tt.display, tt.command))
		})
	}
}

func TestExecutionRequest_Workers(t *testing.T) {
	tests := []struct {
		name       string
		maxWorkers int
		expected   int
	}{
		{
			name:       "unset uses default",
			maxWorkers: 0,
			expected:   DefaultMaxWorkers,
		},
		{
			name:       "negative uses default",
			maxWorkers: -3,
			expected:   DefaultMaxWorkers,
		},
		{
			name:       "explicit value",
			maxWorkers: 16,
			expected:   16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &ExecutionRequest{MaxWorkers: tt.maxWorkers}
			assert.Equal(t, tt.expected, req.Workers())
		})
	}
}
