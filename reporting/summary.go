package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/vcnkl/rexec/models"
)

// WriteSummary renders the batch summary table, one row per target in report
// order.
func WriteSummary(w io.Writer, report *models.Report, colored bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s Batch Summary (%s)", report.Suite, formatDuration(report.Duration)))

	t.AppendHeader(table.Row{"Target", "Exit", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Target", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, r := range report.Results {
		t.AppendRow(table.Row{
			r.Target,
			r.ReturnCode,
			formatDuration(r.Duration),
			statusString(r),
		})
	}

	failed := len(report.Failed())
	t.AppendFooter(table.Row{
		"TOTAL",
		report.Total(),
		formatDuration(report.Duration),
		fmt.Sprintf("%d passed, %d failed", report.Total()-failed, failed),
	})

	switch {
	case !colored:
		t.SetStyle(table.StyleLight)
	case failed == 0:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Style().Title.Format = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	t.Render()
}

func statusString(r models.TargetResult) string {
	if r.Passed() {
		return "PASS"
	}
	if outcome := r.Outcome(); outcome != "fail" {
		return "FAIL (" + outcome + ")"
	}
	return "FAIL"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
