package models

// Action is the outcome TimeGate and StampExecute assign to a tick.
type Action string

const (
	// ActionNone means the tick ended before TimeGate ran.
	ActionNone          Action = ""
	ActionClockIn       Action = "clock_in"
	ActionClockOut      Action = "clock_out"
	ActionClockInAndOut Action = "clock_in_and_out"
	ActionSkipped       Action = "skipped"
	ActionError         Action = "error"
)

// IsStamp reports whether the action requires a transport call.
func (a Action) IsStamp() bool {
	switch a {
	case ActionClockIn, ActionClockOut, ActionClockInAndOut:
		return true
	default:
		return false
	}
}

// String returns the action name, "none" for the zero value.
func (a Action) String() string {
	if a == ActionNone {
		return "none"
	}
	return string(a)
}
