package pipeline

import (
	"github.com/tOgg1/autostamp/internal/config"
	"github.com/tOgg1/autostamp/internal/models"
)

// TimeGate decides which stamp, if any, is due at wall-clock time now.
// The cutoff is a hard lockout: nothing is stamped at or after it, even on a
// day without a clock-in.
func TimeGate(now models.TimeOfDay, clockInDone bool, rules config.TimeRules) models.Action {
	switch {
	case now.AtOrAfter(rules.Cutoff):
		return models.ActionSkipped
	case now.AtOrAfter(rules.ClockOut):
		if clockInDone {
			return models.ActionClockOut
		}
		return models.ActionClockInAndOut
	case !clockInDone:
		return models.ActionClockIn
	default:
		return models.ActionSkipped
	}
}
