package exec

import (
	"fmt"

	"github.com/vcnkl/rexec/models"
)

// Collect reads the filled slots in target order. An empty slot means a
// dispatched target never produced a result, which is a bug in the
// dispatcher rather than a run failure, so it panics.
func Collect(suite string, slots Slots) *models.Report {
	results := make([]models.TargetResult, len(slots))
	for i, slot := range slots {
		if slot == nil {
			panic(fmt.Sprintf("result collector: slot %d of %d was never filled", i, len(slots)))
		}
		results[i] = *slot
	}

	return &models.Report{
		Suite:   suite,
		Results: results,
	}
}
