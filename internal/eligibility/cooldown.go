package eligibility

import "time"

const (
	firstFailureWaitMonths  = 1
	repeatFailureWaitMonths = 6
)

// Attempt is the slice of exam history the cooldown policy needs.
type Attempt struct {
	Date   time.Time
	Passed bool
}

// CooldownStatus reports whether a failed exam may be retaken and, if not,
// when.
type CooldownStatus struct {
	CanRetake           bool       `json:"can_retake"`
	NextDate            *time.Time `json:"next_date,omitempty"`
	WaitMonths          int        `json:"wait_months"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	DaysRemaining       int        `json:"days_remaining"`
}

// Cooldown applies the escalating retake policy: no failures means no wait,
// a single failure imposes one month from its date, two or more impose six
// months from the most recent failure with no further escalation. Month
// addition is calendar-based with end-of-month clamping. The policy is
// independent of Evaluate; callers must check both before scheduling an exam.
func Cooldown(attempts []Attempt, today time.Time) CooldownStatus {
	var failures int
	var anchor time.Time
	for _, attempt := range attempts {
		if attempt.Passed {
			continue
		}
		failures++
		if date := truncateToDay(attempt.Date.UTC()); date.After(anchor) {
			anchor = date
		}
	}

	if failures == 0 {
		return CooldownStatus{CanRetake: true}
	}

	waitMonths := firstFailureWaitMonths
	if failures > 1 {
		waitMonths = repeatFailureWaitMonths
	}

	next := addMonthsClamped(anchor, waitMonths)
	today = truncateToDay(today.UTC())

	status := CooldownStatus{
		NextDate:            &next,
		WaitMonths:          waitMonths,
		ConsecutiveFailures: failures,
	}

	if !today.Before(next) {
		status.CanRetake = true
		return status
	}

	status.DaysRemaining = ceilDays(next.Sub(today))
	return status
}
