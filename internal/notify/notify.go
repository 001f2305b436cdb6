// Package notify delivers stamp outcomes to the operator.
package notify

import (
	"context"
	"fmt"

	"github.com/tOgg1/autostamp/internal/models"
)

// Notifier delivers messages. Errors are reported to the caller, which
// decides whether they matter.
type Notifier interface {
	Send(ctx context.Context, message string) error
	SendError(ctx context.Context, message string) error
}

// StampMessage returns the success message for a stamp action, or false when
// the action is not announced.
func StampMessage(action models.Action, clockInTime, clockOutTime string) (string, bool) {
	switch action {
	case models.ActionClockIn:
		return fmt.Sprintf("✅ 出勤打刻しました（%s）", clockInTime), true
	case models.ActionClockOut:
		return fmt.Sprintf("🕐 退勤打刻を更新しました（%s）", clockOutTime), true
	case models.ActionClockInAndOut:
		return fmt.Sprintf("✅ 出勤（%s）・退勤（%s）を打刻しました", clockInTime, clockOutTime), true
	default:
		return "", false
	}
}

// FailureMessage wraps a stamp error in a request for manual follow-up.
func FailureMessage(errorMessage string) string {
	return fmt.Sprintf("❌ 打刻に失敗しました。手動確認をお願いします（エラー: %s）", errorMessage)
}
