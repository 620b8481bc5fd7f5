package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthsSinceSameDay(t *testing.T) {
	today := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsSince(ISODate("2024-03-15"), today))
}

func TestMonthsSinceFutureDateRejected(t *testing.T) {
	today := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsSince(ISODate("2024-03-16"), today))
	assert.Equal(t, 0, MonthsSince(TimeDate(today.AddDate(1, 0, 0)), today))
}

func TestMonthsSinceCalendarMonthBoundary(t *testing.T) {
	// Jan 31 -> Feb 28 is one elapsed month even though fewer than 30 days
	// passed; the count crosses month boundaries, not 30-day multiples.
	today := time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, MonthsSince(ISODate("2023-01-31"), today))

	today = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, MonthsSince(ISODate("2024-01-31"), today))
}

func TestMonthsSinceWholeYears(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 18, MonthsSince(ISODate("2022-12-01"), today))
}

func TestMonthsSinceMalformedStrings(t *testing.T) {
	today := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	cases := []string{
		"2024-13-01", // invalid month
		"2024-02-30", // impossible day
		"2024-06",    // too few components
		"2024-06-01-05",
		"abcd-06-01",
		"2024-xx-01",
		"2024-06-zz",
		"",
		"1899-06-01", // year below range
		"2101-06-01", // year above range
	}
	for _, raw := range cases {
		assert.Equal(t, 0, MonthsSince(ISODate(raw), today), "input %q", raw)
	}
}

func TestMonthsSinceEpochSeconds(t *testing.T) {
	today := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	ref := time.Date(2023, time.September, 20, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, MonthsSince(EpochDate(ref.Unix()), today))
}

func TestMonthsSinceTimeValue(t *testing.T) {
	today := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	ref := time.Date(2023, time.March, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, 12, MonthsSince(TimeDate(ref), today))
	assert.Equal(t, 0, MonthsSince(TimeDate(time.Time{}), today))
}

func TestDateIsZero(t *testing.T) {
	assert.True(t, Date{}.IsZero())
	assert.True(t, TimeDate(time.Time{}).IsZero())
	assert.False(t, ISODate("2024-01-01").IsZero())
}

func TestAddMonthsClamped(t *testing.T) {
	jan31 := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), addMonthsClamped(jan31, 1))

	jan31 = time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC), addMonthsClamped(jan31, 1))

	aug31 := time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), addMonthsClamped(aug31, 6))

	mid := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.August, 20, 0, 0, 0, 0, time.UTC), addMonthsClamped(mid, 6))

	dec := time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), addMonthsClamped(dec, 1))
}
