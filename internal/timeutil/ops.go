package timeutil

import (
	"time"
	_ "time/tzdata"
)

// Ops is the location the airport operates in. Month prefixes, month_year
// labels and "today" on the dashboard are all computed in this zone.
var Ops *time.Location

func init() {
	var err error
	Ops, err = time.LoadLocation("Europe/London")
	if err != nil {
		Ops = time.UTC
	}
}

// SetLocation switches the operations zone (from config). Unknown names keep the current zone.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Ops = loc
	return nil
}

// Now returns the current time in the operations zone
func Now() time.Time {
	return time.Now().In(Ops)
}

// ToOps converts any time to the operations zone
func ToOps(t time.Time) time.Time {
	return t.In(Ops)
}

// ParseInOps parses a time string in the operations zone
func ParseInOps(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, Ops)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseDateReceived accepts either an RFC3339 timestamp or a plain date
// (YYYY-MM-DD, interpreted as midnight in the operations zone).
func ParseDateReceived(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(Ops), nil
	}
	if t, err := ParseInOps(DateTimeLocalLayout, value); err == nil {
		return t, nil
	}
	return ParseInOps(DateLayout, value)
}

// StartOfDay returns 00:00:00 in the operations zone for the given time
func StartOfDay(t time.Time) time.Time {
	o := t.In(Ops)
	return time.Date(o.Year(), o.Month(), o.Day(), 0, 0, 0, 0, Ops)
}

const (
	DateLayout          = "2006-01-02"
	DateTimeLocalLayout = "2006-01-02T15:04"
	SheetDateLayout     = "02/01/2006"
	DisplayLayout       = "02 Jan 2006, 15:04"
)
