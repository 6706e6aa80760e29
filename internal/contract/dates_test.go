package contract

import (
	"testing"
	"time"

	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateRange_Lookback(t *testing.T) {
	tests := []struct {
		name          string
		lookback      string
		expectedStart time.Time
	}{
		{name: "days", lookback: "4d", expectedStart: day(2024, time.June, 6)},
		{name: "weeks", lookback: "2w", expectedStart: day(2024, time.May, 27)},
		{name: "months", lookback: "1mo", expectedStart: day(2024, time.May, 11)},
		{name: "years", lookback: "1y", expectedStart: day(2023, time.June, 11)},
		{name: "zero days", lookback: "0d", expectedStart: day(2024, time.June, 10)},
		{name: "upper case", lookback: "3D", expectedStart: day(2024, time.June, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := ResolveDateRange(tt.lookback, "", "", fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStart, dr.Start)
			require.NotNil(t, dr.End)
			assert.Equal(t, day(2024, time.June, 10), *dr.End)
		})
	}
}

func TestResolveDateRange_ExplicitDates(t *testing.T) {
	t.Run("start only", func(t *testing.T) {
		dr, err := ResolveDateRange("", "2024-01-01", "", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, day(2024, time.January, 1), dr.Start)
		assert.Nil(t, dr.End)
	})

	t.Run("start and end", func(t *testing.T) {
		dr, err := ResolveDateRange("", "2024-01-01", "2024-02-01", fixedNow)
		require.NoError(t, err)
		require.NotNil(t, dr.End)
		assert.Equal(t, day(2024, time.February, 1), *dr.End)
	})

	t.Run("same day is allowed", func(t *testing.T) {
		_, err := ResolveDateRange("", "2024-01-01", "2024-01-01", fixedNow)
		assert.NoError(t, err)
	})
}

func TestResolveDateRange_Errors(t *testing.T) {
	tests := []struct {
		name     string
		lookback string
		start    string
		end      string
		expected error
	}{
		{name: "nothing supplied", expected: schema.ErrConflictingRangeSpecifiers},
		{name: "lookback and start", lookback: "4d", start: "2024-01-01", expected: schema.ErrConflictingRangeSpecifiers},
		{name: "lookback and end", lookback: "4d", end: "2024-01-01", expected: schema.ErrConflictingRangeSpecifiers},
		{name: "end without start", end: "2024-01-01", expected: schema.ErrMissingStartDate},
		{name: "bad start", start: "01/02/2024", expected: schema.ErrInvalidDateFormat},
		{name: "bad end", start: "2024-01-01", end: "2024-13-01", expected: schema.ErrInvalidDateFormat},
		{name: "inverted", start: "2024-02-01", end: "2024-01-01", expected: schema.ErrInvertedRange},
		{name: "bad unit", lookback: "4h", expected: schema.ErrInvalidLookbackFormat},
		{name: "no integer", lookback: "d", expected: schema.ErrInvalidLookbackFormat},
		{name: "overflowing days", lookback: "9223372036854775807d", expected: schema.ErrInvalidLookbackFormat},
		{name: "beyond int range", lookback: "99999999999999999999d", expected: schema.ErrInvalidLookbackFormat},
		{name: "too many years", lookback: "300000000y", expected: schema.ErrInvalidLookbackFormat},
		{name: "just over bound", lookback: "101y", expected: schema.ErrInvalidLookbackFormat},
		{name: "trailing junk", lookback: "4days", expected: schema.ErrInvalidLookbackFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveDateRange(tt.lookback, tt.start, tt.end, fixedNow)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestResolveDateRange_ErrorMessages(t *testing.T) {
	_, err := ResolveDateRange("", "", "", fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you must select either a lookback period or start and end dates")

	_, err = ResolveDateRange("4d", "2024-01-01", "", fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "but not both")

	_, err = ResolveDateRange("", "nope", "", fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date must be a valid date in YYYY-MM-DD format")
}

func TestParseLookbackDays(t *testing.T) {
	for input, expected := range map[string]int{"4d": 4, "2w": 14, "1mo": 30, "3mo": 90, "1y": 365} {
		days, err := ParseLookbackDays(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, days, input)
	}
}

func TestParseLookbackDays_Bound(t *testing.T) {
	days, err := ParseLookbackDays("100y")
	require.NoError(t, err)
	assert.Equal(t, MaxLookbackDays, days)

	days, err = ParseLookbackDays("36500d")
	require.NoError(t, err)
	assert.Equal(t, MaxLookbackDays, days)

	_, err = ParseLookbackDays("36501d")
	assert.ErrorIs(t, err, schema.ErrInvalidLookbackFormat)
	assert.ErrorContains(t, err, "exceeds 36500 days")
}

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*60*60)
	ts := time.Date(2024, time.June, 10, 23, 59, 59, 999, loc)
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, loc), Midnight(ts))
}
