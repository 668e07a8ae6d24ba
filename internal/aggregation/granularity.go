package aggregation

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the bucket size used to group readings
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// ParseGranularity accepts names ("weekly"), single letters ("W") and interval
// forms ("1w", "1mo"). Empty input selects daily.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.TrimSpace(s) {
	case "", "daily", "Daily", "D", "d", "1d", "day":
		return GranularityDaily, nil
	case "weekly", "Weekly", "W", "w", "1w", "week":
		return GranularityWeekly, nil
	case "monthly", "Monthly", "M", "1mo", "1M", "month":
		return GranularityMonthly, nil
	case "yearly", "Yearly", "Y", "y", "1y", "year":
		return GranularityYearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Valid reports whether g is one of the known granularities
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityYearly:
		return true
	}
	return false
}

// Bucket is a time interval readings are grouped into. Start is the inclusive
// lower bound in the location of the bucketed timestamps; buckets order by Start.
type Bucket struct {
	Start time.Time `json:"start"`
	Label string    `json:"label"`
}

// BucketFor maps a timestamp to its bucket. Calendar boundaries are evaluated in
// t's location.
//
//	daily   2024-01-02   midnight
//	weekly  2024-W01     Monday of the ISO week
//	monthly 2024-01      first of month
//	yearly  2024         January 1st
func BucketFor(t time.Time, g Granularity) Bucket {
	switch g {
	case GranularityWeekly:
		year, week := t.ISOWeek()
		return Bucket{Start: TruncateToWeek(t), Label: fmt.Sprintf("%04d-W%02d", year, week)}
	case GranularityMonthly:
		return Bucket{Start: TruncateToMonth(t), Label: t.Format("2006-01")}
	case GranularityYearly:
		return Bucket{Start: TruncateToYear(t), Label: t.Format("2006")}
	default:
		return Bucket{Start: TruncateToDay(t), Label: t.Format("2006-01-02")}
	}
}

// End returns the exclusive upper bound of the bucket
func (b Bucket) End(g Granularity) time.Time {
	switch g {
	case GranularityWeekly:
		return b.Start.AddDate(0, 0, 7)
	case GranularityMonthly:
		return b.Start.AddDate(0, 1, 0)
	case GranularityYearly:
		return b.Start.AddDate(1, 0, 0)
	default:
		return b.Start.AddDate(0, 0, 1)
	}
}

// TruncateToDay truncates time to local midnight
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TruncateToWeek truncates time to midnight of the Monday starting its ISO week
func TruncateToWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// TruncateToMonth truncates time to the start of the month
func TruncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// TruncateToYear truncates time to the start of the year
func TruncateToYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}
