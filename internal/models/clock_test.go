package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "18:00", want: TimeOfDay{Hour: 18}},
		{input: "9:05", want: TimeOfDay{Hour: 9, Minute: 5}},
		{input: " 22:30 ", want: TimeOfDay{Hour: 22, Minute: 30}},
		{input: "00:00", want: TimeOfDay{}},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12:5", wantErr: true},
		{input: "1200", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidTimeOfDay))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayComparisons(t *testing.T) {
	clockOut := MustParseTimeOfDay("18:00")

	require.True(t, MustParseTimeOfDay("17:59").Before(clockOut))
	require.True(t, MustParseTimeOfDay("18:00").AtOrAfter(clockOut))
	require.False(t, MustParseTimeOfDay("18:00").Before(clockOut))
	require.Equal(t, "09:05", TimeOfDay{Hour: 9, Minute: 5}.String())
}

func TestTimeOfDayOfIgnoresSeconds(t *testing.T) {
	at := time.Date(2026, 10, 14, 21, 59, 59, 0, time.UTC)
	require.Equal(t, TimeOfDay{Hour: 21, Minute: 59}, TimeOfDayOf(at))
	require.Equal(t, "21:59", FormatStampTime(at))
	require.Equal(t, "2026-10-14", DateOf(at))
}
