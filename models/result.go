package models

import "time"

// Sentinel return codes. A real process never exits with a negative code, so
// these cannot collide with a backend's own failure codes.
const (
	ReturnCodeSuccess      = 0
	ReturnCodeToolNotFound = -1
	ReturnCodeLaunchFailed = -2
	ReturnCodeTimeout      = -3
	ReturnCodeCanceled     = -4
	ReturnCodeInternal     = -5
)

type TargetResult struct {
	Target     string        `json:"target"`
	ReturnCode int           `json:"returncode"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	Duration   time.Duration `json:"-"`
}

func (r *TargetResult) Passed() bool {
	return r.ReturnCode == ReturnCodeSuccess
}

// Outcome classifies the return code for summaries and metrics.
func (r *TargetResult) Outcome() string {
	switch r.ReturnCode {
	case ReturnCodeSuccess:
		return "pass"
	case ReturnCodeToolNotFound:
		return "not_found"
	case ReturnCodeLaunchFailed:
		return "launch_failed"
	case ReturnCodeTimeout:
		return "timeout"
	case ReturnCodeCanceled:
		return "canceled"
	case ReturnCodeInternal:
		return "internal"
	}
	return "fail"
}

type Report struct {
	Suite    string
	Results  []TargetResult
	Duration time.Duration
}

func (r *Report) Total() int {
	return len(r.Results)
}

func (r *Report) Failed() []TargetResult {
	var failed []TargetResult
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}
