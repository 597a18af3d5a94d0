// Package schedule computes inspection due dates and classifies components
// by urgency. It is pure logic with no persistence.
package schedule

import (
	"strings"
	"time"
)

// Inspection frequencies.
const (
	Monthly   = "monthly"
	Quarterly = "quarterly"
	Annually  = "annually"
	FiveYears = "5-years"
)

// UpcomingWindow is how far ahead a due date counts as "upcoming", and how
// far back a check counts as "recent".
const UpcomingWindow = 30 * 24 * time.Hour

// NormalizeFrequency maps loose frequency values onto the supported set.
// Unrecognized input defaults to annually: under-scheduling an inspection
// is preferred over rejecting the record.
func NormalizeFrequency(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly", "month", "1-month":
		return Monthly
	case "quarterly", "quarter", "3-month", "3-months":
		return Quarterly
	case "annually", "annual", "yearly", "year", "1-year":
		return Annually
	case "5-years", "5-year", "5 years", "five-years":
		return FiveYears
	default:
		return Annually
	}
}

// NormalizeStatus maps loose inspection results onto pass/fail/pending.
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pass", "yes", "ok", "passed":
		return "pass"
	case "fail", "no", "failed":
		return "fail"
	default:
		return "pending"
	}
}

// NextDue returns the next inspection due date for a frequency, counted
// from the given reference date. Month and year arithmetic uses
// time.AddDate, so overflowing days normalize forward (2024-01-31 plus one
// month is 2024-03-02). Tests pin this policy.
func NextDue(frequency string, from time.Time) time.Time {
	switch NormalizeFrequency(frequency) {
	case Monthly:
		return from.AddDate(0, 1, 0)
	case Quarterly:
		return from.AddDate(0, 3, 0)
	case FiveYears:
		return from.AddDate(5, 0, 0)
	default:
		return from.AddDate(1, 0, 0)
	}
}

// Classification buckets. Upcoming and Recent are independent windows and
// may both apply; Overdue and Upcoming cannot.
type Classification struct {
	Overdue  bool `json:"overdue"`
	Upcoming bool `json:"upcoming"`
	Recent   bool `json:"recent"`
}

// Classify buckets a component's schedule state relative to now. A nil
// nextDue means the component has never been inspected and counts as
// overdue.
func Classify(lastChecked, nextDue *time.Time, now time.Time) Classification {
	var c Classification

	switch {
	case nextDue == nil:
		c.Overdue = true
	case nextDue.Before(now):
		c.Overdue = true
	case nextDue.After(now) && nextDue.Sub(now) <= UpcomingWindow:
		c.Upcoming = true
	}

	if lastChecked != nil && !lastChecked.After(now) && now.Sub(*lastChecked) <= UpcomingWindow {
		c.Recent = true
	}

	return c
}
