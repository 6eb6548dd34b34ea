package timeutil

import (
	"log"
	"time"
	_ "time/tzdata"
)

// Shop is the shop's local time zone. Day and week boundaries for reports
// and payroll are computed in it.
var Shop *time.Location = time.UTC

// SetZone loads the named IANA zone into Shop. Unknown names keep UTC.
func SetZone(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Time] Unknown timezone %q, keeping %s", name, Shop)
		return
	}
	Shop = loc
}

// Now returns the current time in the shop zone
func Now() time.Time {
	return time.Now().In(Shop)
}

// ParseDate parses a YYYY-MM-DD date as midnight in the shop zone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Shop)
}

// StartOfDay returns 00:00:00 of t's day in the shop zone
func StartOfDay(t time.Time) time.Time {
	local := t.In(Shop)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Shop)
}

// EndOfDay returns the last instant of t's day in the shop zone
func EndOfDay(t time.Time) time.Time {
	local := t.In(Shop)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, Shop)
}

// WeekStart returns Monday 00:00 of the payroll week containing t.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekKey formats the week containing t as its Monday date.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(DateLayout)
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
