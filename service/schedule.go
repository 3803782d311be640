package service

import (
	"time"
)

// NextDepositDate computes the next run date for a deposit day.
// A run on the deposit day itself counts as elapsed: if today's day of
// month is >= the deposit day, the next run is that day next month,
// otherwise it is that day of the current month. Deposit days are
// capped at 28, so every month has the day and no clamping is needed.
func NextDepositDate(depositDay int, now time.Time) time.Time {
	if now.Day() >= depositDay {
		return time.Date(now.Year(), now.Month()+1, depositDay, 0, 0, 0, 0, now.Location())
	}
	return time.Date(now.Year(), now.Month(), depositDay, 0, 0, 0, 0, now.Location())
}

// StartOfDay truncates a time to midnight in its location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
