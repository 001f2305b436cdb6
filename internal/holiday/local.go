package holiday

import (
	"context"
	"time"
)

// Local answers from weekday and national holiday rules only.
type Local struct {
	// DisableNational limits the answer to weekends.
	DisableNational bool
}

// Lookup returns the local decision for date.
func (l Local) Lookup(date time.Time) Result {
	switch date.Weekday() {
	case time.Saturday:
		return Result{Holiday: true, Reason: "土曜日", Source: SourceWeekend}
	case time.Sunday:
		return Result{Holiday: true, Reason: "日曜日", Source: SourceWeekend}
	}
	if !l.DisableNational {
		if name, ok := JapaneseHoliday(date); ok {
			return Result{Holiday: true, Reason: name, Source: SourceNational}
		}
	}
	return Result{Source: SourceNone}
}

// IsHoliday implements Oracle.
func (l Local) IsHoliday(_ context.Context, date time.Time) (bool, string) {
	r := l.Lookup(date)
	return r.Holiday, r.Reason
}
