package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/sizeup/schema"
)

// DateLayout is the calendar date format accepted for start and end dates.
const DateLayout = "2006-01-02"

// lookbackRe captures "<integer><unit>" where unit is d, w, mo or y.
var lookbackRe = regexp.MustCompile(`^(\d+)(d|w|mo|y)$`)

// MaxLookbackDays bounds a lookback window to one hundred years.
const MaxLookbackDays = 100 * 365

// lookbackUnitDays converts a lookback unit into days.
var lookbackUnitDays = map[string]int{
	"d":  1,
	"w":  7,
	"mo": 30,
	"y":  365,
}

// ResolveDateRange turns a lookback period or explicit dates into a reporting window.
// Explicit dates are interpreted in the location of now. A lookback window ends at
// midnight of today and its end is exclusive.
func ResolveDateRange(lookback, startDate, endDate string, now time.Time) (schema.DateRange, error) {
	lookback = strings.TrimSpace(lookback)
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)

	if lookback != "" && (startDate != "" || endDate != "") {
		return schema.DateRange{}, fmt.Errorf("%w: use either a lookback period or start and end dates, but not both", schema.ErrConflictingRangeSpecifiers)
	}
	if endDate != "" && startDate == "" {
		return schema.DateRange{}, schema.ErrMissingStartDate
	}
	if lookback == "" && startDate == "" {
		return schema.DateRange{}, fmt.Errorf("%w: you must select either a lookback period or start and end dates", schema.ErrConflictingRangeSpecifiers)
	}

	if lookback != "" {
		days, err := ParseLookbackDays(lookback)
		if err != nil {
			return schema.DateRange{}, err
		}
		today := Midnight(now)
		return schema.DateRange{Start: today.AddDate(0, 0, -days), End: &today}, nil
	}

	start, err := time.ParseInLocation(DateLayout, startDate, now.Location())
	if err != nil {
		return schema.DateRange{}, fmt.Errorf("start %w: %q", schema.ErrInvalidDateFormat, startDate)
	}
	dr := schema.DateRange{Start: start}

	if endDate != "" {
		end, err := time.ParseInLocation(DateLayout, endDate, now.Location())
		if err != nil {
			return schema.DateRange{}, fmt.Errorf("end %w: %q", schema.ErrInvalidDateFormat, endDate)
		}
		if end.Before(start) {
			return schema.DateRange{}, schema.ErrInvertedRange
		}
		dr.End = &end
	}

	return dr, nil
}

// ParseLookbackDays converts strings like "4d", "2w", "1mo" or "1y" into days.
func ParseLookbackDays(s string) (int, error) {
	matches := lookbackRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q (expected <integer><d|w|mo|y>)", schema.ErrInvalidLookbackFormat, s)
	}

	// 1: Value (e.g., "4")
	// 2: Unit (e.g., "mo")
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", schema.ErrInvalidLookbackFormat, s)
	}
	unitDays := lookbackUnitDays[matches[2]]
	if value > MaxLookbackDays/unitDays {
		return 0, fmt.Errorf("%w: %q exceeds %d days", schema.ErrInvalidLookbackFormat, s, MaxLookbackDays)
	}
	return value * unitDays, nil
}

// Midnight strips the time of day from t in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
