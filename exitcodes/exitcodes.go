package exitcodes

import "github.com/vcnkl/rexec/models"

const (
	Success       = 0
	TargetFailure = 1
	ConfigError   = 2
)

// Aggregate returns Success only when every target returned zero.
func Aggregate(report *models.Report) int {
	if report == nil {
		return Success
	}
	for _, r := range report.Results {
		if r.ReturnCode != models.ReturnCodeSuccess {
			return TargetFailure
		}
	}
	return Success
}
