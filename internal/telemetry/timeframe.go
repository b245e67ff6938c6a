package telemetry

import (
	"fmt"
	"time"
)

// Timeframe selects how far back ListMetrics reaches.
type Timeframe string

const (
	TimeframeHour  Timeframe = "hour"
	TimeframeDay   Timeframe = "day"
	TimeframeMonth Timeframe = "month"
)

// ParseTimeframe validates a query value. Empty means hour.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return TimeframeHour, nil
	case TimeframeHour, TimeframeDay, TimeframeMonth:
		return Timeframe(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
	}
}

// Cutoff returns the start of the current hour, day, or month containing now,
// computed in UTC.
func (tf Timeframe) Cutoff(now time.Time) time.Time {
	now = now.UTC()
	switch tf {
	case TimeframeDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case TimeframeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return now.Truncate(time.Hour)
	}
}
