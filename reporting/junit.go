package reporting

import (
	"encoding/xml"
	"fmt"

	"github.com/vcnkl/rexec/models"
)

type junitSuite struct {
	XMLName xml.Name    `xml:"testsuite"`
	Name    string      `xml:"name,attr"`
	Tests   int         `xml:"tests,attr"`
	Cases   []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// MarshalXML writes the body with literal newlines; plain struct chardata
// encodes each one as &#xA;.
func (f junitFailure) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "message"}, Value: f.Message})
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if f.Body != "" {
		if err := e.EncodeToken(xml.CharData(f.Body)); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func MarshalJUnit(report *models.Report) ([]byte, error) {
	suite := junitSuite{
		Name:  report.Suite,
		Tests: report.Total(),
		Cases: make([]junitCase, 0, report.Total()),
	}

	for _, r := range report.Results {
		tc := junitCase{
			Name:      r.Target,
			Classname: report.Suite,
		}
		if !r.Passed() {
			tc.Failure = &junitFailure{
				Message: fmt.Sprintf("Exit code %d", r.ReturnCode),
				Body:    r.Stderr,
			}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	body, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

func WriteJUnit(report *models.Report, path string) error {
	data, err := MarshalJUnit(report)
	if err != nil {
		return &WriteError{Format: "junit", Path: path, Err: err}
	}
	if err = writeFile(path, data); err != nil {
		return &WriteError{Format: "junit", Path: path, Err: err}
	}
	return nil
}
