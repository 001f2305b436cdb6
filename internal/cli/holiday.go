package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/autostamp/internal/daemon"
	"github.com/tOgg1/autostamp/internal/db"
	"github.com/tOgg1/autostamp/internal/holiday"
	"github.com/tOgg1/autostamp/internal/logging"
	"github.com/tOgg1/autostamp/internal/models"
)

// holidayRow is one line of holiday output.
type holidayRow struct {
	Date        string         `json:"date"`
	Weekday     string         `json:"weekday"`
	Holiday     bool           `json:"holiday"`
	Reason      string         `json:"reason,omitempty"`
	Source      holiday.Source `json:"source"`
	Provisional bool           `json:"provisional,omitempty"`
}

func newHolidayCmd(opts *RootOptions) *cobra.Command {
	var (
		days       int
		localOnly  bool
		noDatabase bool
	)

	cmd := &cobra.Command{
		Use:   "holiday [date]",
		Short: "Show whether dates are holidays",
		Long:  "Resolve dates (YYYY-MM-DD, default today) the way a tick does: weekends and national holidays first, then the calendar lookup.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			rules, err := cfg.TimeRules.Rules()
			if err != nil {
				return err
			}
			start, err := parseDate(args, rules.Location)
			if err != nil {
				return err
			}

			var database *db.DB
			if cfg.Calendar.Cache && !noDatabase {
				database, err = daemon.OpenDatabase(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer database.Close()
			}

			service := daemon.NewHolidayService(cmd.Context(), cfg, database, daemon.HolidayOptions{
				DisableCalendar: localOnly,
				Logger:          logging.Component("holiday"),
			})

			rows := make([]holidayRow, 0, days)
			for i := 0; i < days; i++ {
				date := start.AddDate(0, 0, i)
				result := service.Resolve(cmd.Context(), date)
				rows = append(rows, holidayRow{
					Date:        models.DateOf(date),
					Weekday:     date.Weekday().String()[:3],
					Holiday:     result.Holiday,
					Reason:      result.Reason,
					Source:      result.Source,
					Provisional: result.Provisional,
				})
			}
			return writeHolidayRows(cmd.OutOrStdout(), opts.JSON, rows)
		},
	}
	cmd.Flags().IntVarP(&days, "days", "n", 1, "number of consecutive days to resolve")
	cmd.Flags().BoolVar(&localOnly, "local", false, "skip the calendar lookup and leave the cache unchanged")
	cmd.Flags().BoolVar(&noDatabase, "no-db", false, "do not read or write the holiday cache database")

	return cmd
}

// parseDate returns noon of the requested date in loc, or of today.
func parseDate(args []string, loc *time.Location) (time.Time, error) {
	if len(args) == 0 {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc), nil
	}
	date, err := time.ParseInLocation(models.DateLayout, args[0], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[0])
	}
	return date.Add(12 * time.Hour), nil
}
