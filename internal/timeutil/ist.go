package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30)
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// Today returns the current IST calendar date as midnight UTC.
// Business dates are stored and compared in that form.
func Today() time.Time {
	return DateOf(Now())
}

// DateOf drops the clock part of t, keeping t's calendar day
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD business date
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", value)
	}
	return t, nil
}

// ParseOptionalDate returns nil for an empty value
func ParseOptionalDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateTimeLayout,
	DateLayout,
}

// ParseDateTime accepts RFC3339, HTML datetime-local values and plain dates.
// Values without a zone are read as IST.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, IST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", value)
}

// StartOfDay returns 00:00 IST on the given calendar date
func StartOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, IST)
}
