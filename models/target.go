package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type ExecutionRequest struct {
	RunID      string
	Backend    string
	Command    string
	Targets    []string
	MaxWorkers int
	Remote     bool
	ExtraArgs  []string
	Timeout    time.Duration
}

const DefaultMaxWorkers = 4

func (r *ExecutionRequest) Workers() int {
	if r.MaxWorkers <= 0 {
		return DefaultMaxWorkers
	}
	return r.MaxWorkers
}

// SuiteName joins the backend display name with the title-cased command,
// e.g. "Bazel" + "build" -> "BazelBuild".
func SuiteName(display, command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return display
	}
	first, size := utf8.DecodeRuneInString(command)
	return display + string(unicode.ToUpper(first)) + command[size:]
}
