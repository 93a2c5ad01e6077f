package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, day string, hour int) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	return parsed.Add(time.Duration(hour) * time.Hour)
}

func entriesOn(t *testing.T, typ string, days ...string) []Entry {
	t.Helper()
	out := make([]Entry, 0, len(days))
	for _, d := range days {
		out = append(out, Entry{At: at(t, d, 20), Type: typ})
	}
	return out
}

func TestBucketByDayCountsSumToInput(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Beer"},
		{At: at(t, "2026-03-01", 21), Type: "Beer"},
		{At: at(t, "2026-03-01", 23), Type: "Wine"},
		{At: at(t, "2026-03-02", 19), Type: "Cocktail"},
		{At: at(t, "2026-03-05", 20), Type: "Beer"},
	}

	b := BucketByDay(entries, time.UTC)

	daySum := 0
	for _, dc := range b.Days {
		daySum += dc.Count
	}
	assert.Equal(t, len(entries), daySum)

	typeSum := 0
	for _, n := range b.Types {
		typeSum += n
	}
	assert.Equal(t, len(entries), typeSum)

	hourSum := 0
	for _, n := range b.Hours {
		hourSum += n
	}
	assert.Equal(t, len(entries), hourSum)
}

func TestBucketByDaySortedAscending(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-05", 20), Type: "Beer"},
		{At: at(t, "2026-03-01", 20), Type: "Beer"},
		{At: at(t, "2026-03-03", 20), Type: "Beer"},
	}

	b := BucketByDay(entries, time.UTC)

	require.Len(t, b.Days, 3)
	assert.Equal(t, "2026-03-01", b.Days[0].Date)
	assert.Equal(t, "2026-03-03", b.Days[1].Date)
	assert.Equal(t, "2026-03-05", b.Days[2].Date)
}

func TestBucketByDayRespectsTimezone(t *testing.T) {
	// 2026-03-02 01:00 UTC is still 2026-03-01 in UTC-5.
	est := time.FixedZone("EST", -5*3600)
	entries := []Entry{{At: at(t, "2026-03-02", 1), Type: "Beer"}}

	b := BucketByDay(entries, est)

	require.Len(t, b.Days, 1)
	assert.Equal(t, "2026-03-01", b.Days[0].Date)
}

func TestSummarizeEmptyIsNeutral(t *testing.T) {
	s := Summarize(nil, time.Time{}, at(t, "2026-03-10", 12), time.UTC)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.DaysLogged)
	assert.Zero(t, s.AvgPerDay)
	assert.Empty(t, s.BestDayDate)
	assert.Empty(t, s.MostCommonType)
	assert.Equal(t, 0, s.LongestStreak)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, -1, s.DaysSinceLast)
}

func TestSummarizeConsecutiveDaysStreak(t *testing.T) {
	entries := entriesOn(t, "Beer", "2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05")
	now := at(t, "2026-03-05", 23)

	s := Summarize(entries, time.Time{}, now, time.UTC)

	assert.Equal(t, 5, s.LongestStreak)
	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 0, s.DaysSinceLast)
}

func TestSummarizeGapResetsStreak(t *testing.T) {
	entries := entriesOn(t, "Beer",
		"2026-03-01", "2026-03-02", "2026-03-03",
		"2026-03-05", "2026-03-06")
	now := at(t, "2026-03-06", 23)

	s := Summarize(entries, time.Time{}, now, time.UTC)

	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestSummarizeCurrentStreakSurvivesUntilYesterday(t *testing.T) {
	entries := entriesOn(t, "Beer", "2026-03-03", "2026-03-04")

	s := Summarize(entries, time.Time{}, at(t, "2026-03-05", 10), time.UTC)
	assert.Equal(t, 2, s.CurrentStreak, "logged yesterday, streak still alive")

	s = Summarize(entries, time.Time{}, at(t, "2026-03-06", 10), time.UTC)
	assert.Equal(t, 0, s.CurrentStreak, "two days idle, streak dead")
	assert.Equal(t, 2, s.LongestStreak)
	assert.Equal(t, 2, s.DaysSinceLast)
}

func TestSummarizeDuplicateDaysDoNotInflateStreak(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Beer"},
		{At: at(t, "2026-03-01", 22), Type: "Beer"},
		{At: at(t, "2026-03-02", 20), Type: "Beer"},
	}

	s := Summarize(entries, time.Time{}, at(t, "2026-03-02", 23), time.UTC)

	assert.Equal(t, 2, s.LongestStreak)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.DaysLogged)
}

func TestSummarizeBestDay(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Beer"},
		{At: at(t, "2026-03-02", 19), Type: "Beer"},
		{At: at(t, "2026-03-02", 21), Type: "Wine"},
		{At: at(t, "2026-03-02", 23), Type: "Shot"},
		{At: at(t, "2026-03-04", 20), Type: "Beer"},
	}

	s := Summarize(entries, time.Time{}, at(t, "2026-03-04", 23), time.UTC)

	assert.Equal(t, "2026-03-02", s.BestDayDate)
	assert.Equal(t, 3, s.BestDayCount)
}

func TestSummarizeBestDayTieKeepsEarliest(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Beer"},
		{At: at(t, "2026-03-01", 20), Type: "Beer"},
		{At: at(t, "2026-03-03", 18), Type: "Beer"},
		{At: at(t, "2026-03-03", 20), Type: "Beer"},
	}

	s := Summarize(entries, time.Time{}, at(t, "2026-03-03", 23), time.UTC)

	assert.Equal(t, "2026-03-01", s.BestDayDate)
	assert.Equal(t, 2, s.BestDayCount)
}

func TestMostCommonTypeTieJoinsAlphabetically(t *testing.T) {
	a := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Wine"},
		{At: at(t, "2026-03-01", 19), Type: "Beer"},
		{At: at(t, "2026-03-02", 20), Type: "Wine"},
		{At: at(t, "2026-03-02", 21), Type: "Beer"},
	}
	// Same multiset, different order.
	b := []Entry{a[3], a[0], a[2], a[1]}

	now := at(t, "2026-03-02", 23)
	sa := Summarize(a, time.Time{}, now, time.UTC)
	sb := Summarize(b, time.Time{}, now, time.UTC)

	assert.Equal(t, "Beer & Wine", sa.MostCommonType)
	assert.Equal(t, sa.MostCommonType, sb.MostCommonType, "tie label must not depend on input order")
}

func TestMostCommonTypeSingleWinner(t *testing.T) {
	entries := []Entry{
		{At: at(t, "2026-03-01", 18), Type: "Wine"},
		{At: at(t, "2026-03-01", 19), Type: "Beer"},
		{At: at(t, "2026-03-02", 20), Type: "Beer"},
	}

	s := Summarize(entries, time.Time{}, at(t, "2026-03-02", 23), time.UTC)

	assert.Equal(t, "Beer", s.MostCommonType)
}

func TestSummarizeAvgPerDayAnchoredToWindow(t *testing.T) {
	entries := entriesOn(t, "Beer", "2026-03-08", "2026-03-09", "2026-03-10")
	now := at(t, "2026-03-10", 23)

	// Window opened a week ago: 3 drinks over 8 calendar days.
	since := at(t, "2026-03-03", 23)
	s := Summarize(entries, since, now, time.UTC)
	assert.InDelta(t, 3.0/8.0, s.AvgPerDay, 1e-9)

	// No window: span runs from the first entry.
	s = Summarize(entries, time.Time{}, now, time.UTC)
	assert.InDelta(t, 1.0, s.AvgPerDay, 1e-9)
}

func TestSummarizeSameDaySpanIsOneDay(t *testing.T) {
	entries := entriesOn(t, "Beer", "2026-03-10")

	s := Summarize(entries, time.Time{}, at(t, "2026-03-10", 23), time.UTC)

	assert.InDelta(t, 1.0, s.AvgPerDay, 1e-9)
}

func TestParseRange(t *testing.T) {
	for _, valid := range []string{"1W", "1M", "3M", "6M", "1Y", "YTD", "ALL"} {
		r, err := ParseRange(valid)
		require.NoError(t, err)
		assert.Equal(t, Range(valid), r)
	}

	r, err := ParseRange("ytd")
	require.NoError(t, err)
	assert.Equal(t, RangeYTD, r)

	r, err = ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeAll, r)

	_, err = ParseRange("2W")
	assert.Error(t, err)
}

func TestRangeCutoff(t *testing.T) {
	now := at(t, "2026-03-15", 12)

	assert.Equal(t, at(t, "2026-03-08", 12), RangeWeek.Cutoff(now, time.UTC))
	assert.Equal(t, at(t, "2026-02-15", 12), RangeMonth.Cutoff(now, time.UTC))
	assert.Equal(t, at(t, "2025-03-15", 12), RangeYear.Cutoff(now, time.UTC))
	assert.Equal(t, at(t, "2026-01-01", 0), RangeYTD.Cutoff(now, time.UTC))
	assert.True(t, RangeAll.Cutoff(now, time.UTC).IsZero())
}

func TestFilterSinceWideningNeverShrinks(t *testing.T) {
	now := at(t, "2026-03-15", 12)
	entries := entriesOn(t, "Beer",
		"2025-06-01", "2026-01-10", "2026-02-20",
		"2026-03-09", "2026-03-12", "2026-03-14")

	ranges := []Range{RangeWeek, RangeMonth, Range3M, Range6M, RangeYear, RangeAll}
	prev := -1
	for _, r := range ranges {
		got := len(FilterSince(entries, r.Cutoff(now, time.UTC)))
		assert.GreaterOrEqual(t, got, prev, "range %s shrank the window", r)
		prev = got
	}

	assert.Len(t, FilterSince(entries, time.Time{}), len(entries))
}

func TestFilterSinceBoundaryInclusive(t *testing.T) {
	cutoff := at(t, "2026-03-10", 12)
	entries := []Entry{
		{At: cutoff.Add(-time.Second), Type: "Beer"},
		{At: cutoff, Type: "Beer"},
		{At: cutoff.Add(time.Second), Type: "Beer"},
	}

	kept := FilterSince(entries, cutoff)

	assert.Len(t, kept, 2)
}
