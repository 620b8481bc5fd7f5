package eligibility

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 1900
	maxYear = 2100
)

type dateKind int

const (
	dateEmpty dateKind = iota
	dateISO
	dateEpoch
	dateTime
)

// Date is a tagged union over the position-start representations the store
// may hand us: an ISO `YYYY-MM-DD` string, an epoch-seconds timestamp, or a
// parsed time value. All conversion happens in Resolve; callers never sniff
// the underlying type themselves.
type Date struct {
	kind  dateKind
	iso   string
	epoch int64
	value time.Time
}

// ISODate wraps a `YYYY-MM-DD` string.
func ISODate(s string) Date {
	return Date{kind: dateISO, iso: s}
}

// EpochDate wraps a unix timestamp in seconds.
func EpochDate(sec int64) Date {
	return Date{kind: dateEpoch, epoch: sec}
}

// TimeDate wraps an already-parsed time value.
func TimeDate(t time.Time) Date {
	return Date{kind: dateTime, value: t}
}

// IsZero reports whether no date was supplied at all.
func (d Date) IsZero() bool {
	return d.kind == dateEmpty || (d.kind == dateTime && d.value.IsZero())
}

// Resolve converts the union into a midnight-UTC calendar date. It returns
// ok=false for malformed strings, years outside [1900, 2100], impossible
// calendar dates, and dates strictly after today. Rejection is silent:
// partial records during data entry are expected, never an error.
func (d Date) Resolve(today time.Time) (time.Time, bool) {
	var resolved time.Time

	switch d.kind {
	case dateISO:
		parts := strings.Split(strings.TrimSpace(d.iso), "-")
		if len(parts) != 3 {
			return time.Time{}, false
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, false
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil {
			return time.Time{}, false
		}
		day, err := strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, false
		}
		resolved = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (month 13 becomes January of the
		// next year); a round-trip mismatch means the input was not a real
		// calendar date.
		ry, rm, rd := resolved.Date()
		if ry != year || int(rm) != month || rd != day {
			return time.Time{}, false
		}
	case dateEpoch:
		resolved = time.Unix(d.epoch, 0).UTC()
	case dateTime:
		if d.value.IsZero() {
			return time.Time{}, false
		}
		resolved = d.value.UTC()
	default:
		return time.Time{}, false
	}

	resolved = truncateToDay(resolved)
	if resolved.Year() < minYear || resolved.Year() > maxYear {
		return time.Time{}, false
	}
	if resolved.After(truncateToDay(today.UTC())) {
		return time.Time{}, false
	}

	return resolved, true
}

// MonthsSince counts whole calendar months elapsed between the reference
// date and today, never negative. This is a month-boundary count, not a
// 30-day-multiple count: Jan 31 to Feb 1 counts as one full month even
// though a single day passed. Stored evaluations depend on this counting
// mode, so it is kept as-is.
func MonthsSince(ref Date, today time.Time) int {
	resolved, ok := ref.Resolve(today)
	if !ok {
		return 0
	}

	today = truncateToDay(today.UTC())
	months := (today.Year()-resolved.Year())*12 + int(today.Month()) - int(resolved.Month())
	if months < 0 {
		return 0
	}
	return months
}

// addMonthsClamped adds whole calendar months, clamping the day to the last
// valid day of the target month (Jan 31 + 1 month = Feb 29 or Feb 28).
// time.AddDate is unsuitable here because it normalizes overflow into the
// following month.
func addMonthsClamped(t time.Time, months int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 + months
	year := total / 12
	month := time.Month(total%12 + 1)

	day := t.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}
