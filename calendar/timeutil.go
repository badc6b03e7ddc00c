package calendar

import "time"

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func durationFromNanos(ns int64) time.Duration {
	return time.Duration(ns)
}
