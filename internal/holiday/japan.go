package holiday

import (
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/jp"
)

const (
	substituteHolidayName = "振替休日"
	citizensHolidayName   = "国民の休日"
)

// japaneseNames maps each statutory holiday rule to its name under the Act on
// National Holidays.
var japaneseNames = map[*cal.Holiday]string{
	jp.NewYear:                 "元日",
	jp.ComingOfAgeDay:          "成人の日",
	jp.NationalFoundationDay:   "建国記念の日",
	jp.TheEmperorsBirthday:     "天皇誕生日",
	jp.VernalEquinoxDay:        "春分の日",
	jp.ShowaDay:                "昭和の日",
	jp.ConstitutionMemorialDay: "憲法記念日",
	jp.GreeneryDay:             "みどりの日",
	jp.ChildrensDay:            "こどもの日",
	jp.MarineDay:               "海の日",
	jp.MountainDay:             "山の日",
	jp.RespectForTheAgedDay:    "敬老の日",
	jp.AutumnalEquinoxDay:      "秋分の日",
	jp.SportsDay:               "スポーツの日",
	jp.CultureDay:              "文化の日",
	jp.LaborThanksgivingDay:    "勤労感謝の日",

	jp.NationalHolidayBetweenRespectForTheAgedDayAndAutumnalEquinoxDay:              citizensHolidayName,
	jp.NationalHolidayBetweenShowaDayAndNewEmperorEnthronementDay:                   citizensHolidayName,
	jp.NationalHolidayBetweenTheNewEmperorEnthronementDayAndConstitutionMemorialDay: citizensHolidayName,

	jp.TheNewEmperorEnthronementDay:      "天皇の即位の日",
	jp.TheNewEmperorEnthronementCeremony: "即位礼正殿の儀の行われる日",
}

// calcMu serializes rule evaluation: the equinox rules write to the shared
// jp.Holiday values while computing a year.
var calcMu sync.Mutex

// JapaneseHoliday returns the Japanese name of the national holiday on date,
// if any. Only the year, month and day of date are used. The rules match the
// law as amended in 2007 and later.
func JapaneseHoliday(date time.Time) (string, bool) {
	year, month, day := date.Date()

	calcMu.Lock()
	defer calcMu.Unlock()

	substitute := false
	for _, h := range jp.Holidays {
		actual, observed := h.Calc(year)
		if sameDay(actual, year, month, day) {
			return holidayName(h, year), true
		}
		if !observed.Equal(actual) && sameDay(observed, year, month, day) {
			substitute = true
		}
	}
	if substitute {
		return substituteHolidayName, true
	}
	return "", false
}

func holidayName(h *cal.Holiday, year int) string {
	if h == jp.SportsDay && year < 2020 {
		return "体育の日"
	}
	if name, ok := japaneseNames[h]; ok {
		return name
	}
	return h.Name
}

func sameDay(t time.Time, year int, month time.Month, day int) bool {
	if t.IsZero() {
		return false
	}
	y, m, d := t.Date()
	return y == year && m == month && d == day
}
