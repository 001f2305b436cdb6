package notify

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/tOgg1/autostamp/internal/models"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestStampMessages(t *testing.T) {
	var lines []string
	for _, action := range []models.Action{
		models.ActionClockIn,
		models.ActionClockOut,
		models.ActionClockInAndOut,
	} {
		message, ok := StampMessage(action, "19:00", "19:01")
		assert.True(t, ok)
		lines = append(lines, action.String()+": "+message)
	}
	lines = append(lines, "failure: "+FailureMessage("clock-out failed: timeout"))

	newGolden(t).Assert(t, "messages", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestStampMessage_Silent(t *testing.T) {
	for _, action := range []models.Action{models.ActionNone, models.ActionSkipped, models.ActionError} {
		_, ok := StampMessage(action, "09:00", "")
		assert.False(t, ok, action.String())
	}
}
