package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tOgg1/autostamp/internal/pipeline"
)

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}

func writeTickResult(out io.Writer, asJSON bool, result pipeline.Result) error {
	if asJSON {
		return writeJSON(out, result)
	}

	t := newTable()
	t.add("tick", result.TickID)
	t.add("date", result.Date)
	t.add("step", string(result.Step))
	t.add("action", result.Action.String())
	t.add("working", fmt.Sprintf("%s (%d events)", yesNo(result.Working), result.EventCount))
	t.add("holiday", yesNo(result.Holiday))
	t.add("holiday reason", result.HolidayReason)
	t.add("clock in", result.ClockInTime)
	t.add("clock out", result.LastClockOutTime)
	t.add("error", result.ErrorMessage)
	t.add("duration", result.Duration.String())
	return t.render(out)
}

func writeHolidayRows(out io.Writer, asJSON bool, rows []holidayRow) error {
	if asJSON {
		return writeJSON(out, rows)
	}

	t := newTable("DATE", "DAY", "HOLIDAY", "REASON", "SOURCE")
	for _, row := range rows {
		source := string(row.Source)
		if row.Provisional {
			source += " (provisional)"
		}
		t.add(row.Date, row.Weekday, yesNo(row.Holiday), row.Reason, source)
	}
	return t.render(out)
}
