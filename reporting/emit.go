package reporting

import (
	"errors"

	"github.com/vcnkl/rexec/models"
)

// Outputs names the report files requested for a run. Empty paths are skipped.
type Outputs struct {
	JUnit string
	JSON  string
}

func (o Outputs) Any() bool {
	return o.JUnit != "" || o.JSON != ""
}

// Emit writes every requested report. A failing emitter does not stop the
// others; all failures are returned joined.
func Emit(report *models.Report, out Outputs) error {
	var errs []error
	if out.JUnit != "" {
		if err := WriteJUnit(report, out.JUnit); err != nil {
			errs = append(errs, err)
		}
	}
	if out.JSON != "" {
		if err := WriteJSON(report, out.JSON); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
