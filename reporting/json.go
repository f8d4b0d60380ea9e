package reporting

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/vcnkl/rexec/models"
)

// MarshalJSON renders the results as a 2-space indented array. An empty
// report renders as [].
func MarshalJSON(report *models.Report) ([]byte, error) {
	results := report.Results
	if results == nil {
		results = []models.TargetResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteJSON(report *models.Report, path string) error {
	data, err := MarshalJSON(report)
	if err != nil {
		return &WriteError{Format: "json", Path: path, Err: err}
	}
	if err = writeFile(path, data); err != nil {
		return &WriteError{Format: "json", Path: path, Err: err}
	}
	return nil
}
