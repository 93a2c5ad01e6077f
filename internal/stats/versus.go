package stats

import "math"

// Metric is one row of the head-to-head comparison.
type Metric struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Mine   float64 `json:"mine"`
	Theirs float64 `json:"theirs"`
	Winner string  `json:"winner"` // "me", "them", or "tie"
}

// Comparison is the full versus result between two users.
type Comparison struct {
	Metrics   []Metric `json:"metrics"`
	MyWins    int      `json:"my_wins"`
	TheirWins int      `json:"their_wins"`
	Ties      int      `json:"ties"`
}

const (
	WinnerMe   = "me"
	WinnerThem = "them"
	WinnerTie  = "tie"
)

// Compare builds the per-metric versus rows between two summaries. Every
// metric is higher-is-better, so two equal summaries tie on every row.
func Compare(mine, theirs Summary) Comparison {
	rows := []struct {
		key, label   string
		mine, theirs float64
	}{
		{"total", "Total Drinks", float64(mine.Total), float64(theirs.Total)},
		{"avg_per_day", "Average Per Day", mine.AvgPerDay, theirs.AvgPerDay},
		{"best_day", "Best Single Day", float64(mine.BestDayCount), float64(theirs.BestDayCount)},
		{"longest_streak", "Longest Streak", float64(mine.LongestStreak), float64(theirs.LongestStreak)},
		{"current_streak", "Current Streak", float64(mine.CurrentStreak), float64(theirs.CurrentStreak)},
		{"distinct_types", "Drink Variety", float64(mine.DistinctTypes), float64(theirs.DistinctTypes)},
	}

	c := Comparison{Metrics: make([]Metric, 0, len(rows))}
	for _, r := range rows {
		m := Metric{Key: r.key, Label: r.label, Mine: r.mine, Theirs: r.theirs}
		switch {
		case math.Abs(r.mine-r.theirs) < 1e-9:
			m.Winner = WinnerTie
			c.Ties++
		case r.mine > r.theirs:
			m.Winner = WinnerMe
			c.MyWins++
		default:
			m.Winner = WinnerThem
			c.TheirWins++
		}
		c.Metrics = append(c.Metrics, m)
	}
	return c
}
