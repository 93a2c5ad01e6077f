// Package stats holds the pure aggregation logic behind the analytics and
// versus views: calendar-day bucketing, KPI derivation, streaks, and time
// windows. Everything here is deterministic array processing with no I/O.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one drink log reduced to what aggregation needs.
type Entry struct {
	At   time.Time
	Type string
}

// DayCount is a local calendar date with its log count.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Buckets groups entries by local calendar date, drink type, and hour of
// day.
type Buckets struct {
	Days  []DayCount     `json:"days"` // ascending by date
	Types map[string]int `json:"types"`
	Hours [24]int        `json:"hours"`
}

// Summary is the KPI set derived from a list of entries.
type Summary struct {
	Total          int     `json:"total"`
	DaysLogged     int     `json:"days_logged"`
	AvgPerDay      float64 `json:"avg_per_day"`
	BestDayDate    string  `json:"best_day_date,omitempty"`
	BestDayCount   int     `json:"best_day_count"`
	MostCommonType string  `json:"most_common_type,omitempty"`
	DistinctTypes  int     `json:"distinct_types"`
	LongestStreak  int     `json:"longest_streak"`
	CurrentStreak  int     `json:"current_streak"`
	DaysSinceLast  int     `json:"days_since_last"` // -1 when no entries
}

const dayFormat = "2006-01-02"

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayFormat)
}

// daySerial converts a day key to a serial day number so that consecutive
// calendar dates differ by exactly one, independent of DST.
func daySerial(key string) int {
	t, err := time.Parse(dayFormat, key)
	if err != nil {
		return 0
	}
	return int(t.Unix() / 86400)
}

// BucketByDay groups entries by local calendar date. The per-day counts
// always sum to len(entries).
func BucketByDay(entries []Entry, loc *time.Location) Buckets {
	b := Buckets{Types: make(map[string]int)}

	days := make(map[string]int)
	for _, e := range entries {
		local := e.At.In(loc)
		days[local.Format(dayFormat)]++
		b.Types[e.Type]++
		b.Hours[local.Hour()]++
	}

	b.Days = make([]DayCount, 0, len(days))
	for date, count := range days {
		b.Days = append(b.Days, DayCount{Date: date, Count: count})
	}
	sort.Slice(b.Days, func(i, j int) bool { return b.Days[i].Date < b.Days[j].Date })
	return b
}

// Summarize derives the KPI set from entries. since is the start of the
// window the entries were filtered to and anchors the per-day average; a
// zero since falls back to the first entry. Empty input yields zero values
// with DaysSinceLast = -1.
func Summarize(entries []Entry, since, now time.Time, loc *time.Location) Summary {
	if len(entries) == 0 {
		return Summary{DaysSinceLast: -1}
	}

	b := BucketByDay(entries, loc)

	s := Summary{
		Total:         len(entries),
		DaysLogged:    len(b.Days),
		DistinctTypes: len(b.Types),
	}

	for _, dc := range b.Days {
		if dc.Count > s.BestDayCount {
			s.BestDayCount = dc.Count
			s.BestDayDate = dc.Date
		}
	}

	s.MostCommonType = mostCommon(b.Types)

	serials := make([]int, len(b.Days))
	for i, dc := range b.Days {
		serials[i] = daySerial(dc.Date)
	}
	s.LongestStreak, s.CurrentStreak = streaks(serials, daySerial(dayKey(now, loc)))

	s.DaysSinceLast = daySerial(dayKey(now, loc)) - serials[len(serials)-1]

	start := since
	if start.IsZero() {
		start = entries[0].At
		for _, e := range entries[1:] {
			if e.At.Before(start) {
				start = e.At
			}
		}
	}
	spanDays := daySerial(dayKey(now, loc)) - daySerial(dayKey(start, loc)) + 1
	if spanDays < 1 {
		spanDays = 1
	}
	s.AvgPerDay = float64(s.Total) / float64(spanDays)

	return s
}

// mostCommon returns the drink type with the highest count. Ties are
// joined with " & " in alphabetical order so the result is stable
// regardless of input order.
func mostCommon(types map[string]int) string {
	best := 0
	for _, n := range types {
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return ""
	}

	var winners []string
	for t, n := range types {
		if n == best {
			winners = append(winners, t)
		}
	}
	sort.Strings(winners)
	return strings.Join(winners, " & ")
}

// streaks computes the longest run of consecutive days and the run still
// alive today. serials must be ascending and duplicate-free; a streak
// counts as current when its last day is today or yesterday.
func streaks(serials []int, today int) (longest, current int) {
	run := 0
	prev := 0
	for i, d := range serials {
		if i > 0 && d == prev+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}

	if len(serials) > 0 && today-serials[len(serials)-1] <= 1 {
		current = run
	}
	return longest, current
}

// Range selects the rolling analytics window.
type Range string

const (
	RangeWeek  Range = "1W"
	RangeMonth Range = "1M"
	Range3M    Range = "3M"
	Range6M    Range = "6M"
	RangeYear  Range = "1Y"
	RangeYTD   Range = "YTD"
	RangeAll   Range = "ALL"
)

// ParseRange validates a range string. Empty input means ALL.
func ParseRange(s string) (Range, error) {
	switch Range(strings.ToUpper(s)) {
	case "":
		return RangeAll, nil
	case RangeWeek, RangeMonth, Range3M, Range6M, RangeYear, RangeYTD, RangeAll:
		return Range(strings.ToUpper(s)), nil
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Cutoff returns the inclusive lower bound of the window, or the zero time
// for ALL.
func (r Range) Cutoff(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	switch r {
	case RangeWeek:
		return local.AddDate(0, 0, -7)
	case RangeMonth:
		return local.AddDate(0, -1, 0)
	case Range3M:
		return local.AddDate(0, -3, 0)
	case Range6M:
		return local.AddDate(0, -6, 0)
	case RangeYear:
		return local.AddDate(-1, 0, 0)
	case RangeYTD:
		return time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
	}
	return time.Time{}
}

// FilterSince keeps entries at or after cutoff. A zero cutoff keeps
// everything. Widening the window can only grow the result.
func FilterSince(entries []Entry, cutoff time.Time) []Entry {
	if cutoff.IsZero() {
		return entries
	}
	var kept []Entry
	for _, e := range entries {
		if !e.At.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}
