package exec

import (
	"context"

	"github.com/vcnkl/rexec/models"
)

// InvokeFunc runs a single target and blocks until its process exits or
// fails to launch.
type InvokeFunc func(ctx context.Context, target string) (*Outcome, error)

// Slots holds one result per resolved target, indexed by the target's
// position in the resolved list.
type Slots []*models.TargetResult

// Observer is notified once per finished target. It is called from worker
// goroutines and must be safe for concurrent use.
type Observer func(result models.TargetResult)

// coded is implemented by errors that map to a sentinel return code.
type coded interface {
	ReturnCode() int
}
