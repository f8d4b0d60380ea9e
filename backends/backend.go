package backends

import (
	"fmt"
	"strings"

	"github.com/vcnkl/rexec/models"
)

// Backend describes one build tool. Invocations take the form
// <binary> <command> <target> [remote args] [extra args].
type Backend interface {
	Name() string
	DisplayName() string
	// Binaries lists executable names tried in order.
	Binaries() []string
	RemoteArgs() []string
	BuildArgs(command, target string, remote, extra []string) []string
}

type ToolUnavailableError struct {
	Tool   string
	Looked []string
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("%s: tool not found in PATH (looked for: %s)", e.Tool, strings.Join(e.Looked, ", "))
}

func (e *ToolUnavailableError) ReturnCode() int {
	return models.ReturnCodeToolNotFound
}

func buildArgs(command, target string, remote, extra []string) []string {
	args := make([]string, 0, 2+len(remote)+len(extra))
	args = append(args, command, target)
	args = append(args, remote...)
	args = append(args, extra...)
	return args
}
