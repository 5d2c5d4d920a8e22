// Package stats derives averages, extremes and trend series from daily
// records. The functions here are total: empty input yields zero values.
package stats

import (
	"sort"
	"time"

	"github.com/kalambet/emotrack/internal/tracker"
)

// Point is one day's score for a single factor.
type Point struct {
	Date  time.Time `json:"date" yaml:"date"`
	Score int       `json:"score" yaml:"score"`
}

// FactorStatistics summarizes one factor. Averages cover the 7- and 30-day
// windows; the extremes cover the whole history.
type FactorStatistics struct {
	SevenDayAverage  float64 `json:"seven_day_average" yaml:"seven_day_average"`
	ThirtyDayAverage float64 `json:"thirty_day_average" yaml:"thirty_day_average"`
	HighestScore     int     `json:"highest_score" yaml:"highest_score"`
	LowestScore      int     `json:"lowest_score" yaml:"lowest_score"`
}

// OverallAverage is the mean of each record's own average. Every record counts
// once, including records with no scores, which contribute 0.
func OverallAverage(records []tracker.DailyRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += r.AverageScore()
	}
	return sum / float64(len(records))
}

// FactorAverage is the mean score of factorID over the records that have one.
func FactorAverage(factorID string, records []tracker.DailyRecord) float64 {
	sum, n := 0, 0
	for _, r := range records {
		if v, ok := r.Scores[factorID]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// TrendSeries returns factorID's scores ordered by date, oldest first.
func TrendSeries(factorID string, records []tracker.DailyRecord) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		if v, ok := r.Scores[factorID]; ok {
			points = append(points, Point{Date: r.Date, Score: v})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func CountDataPoints(factorID string, records []tracker.DailyRecord) int {
	n := 0
	for _, r := range records {
		if _, ok := r.Scores[factorID]; ok {
			n++
		}
	}
	return n
}

// Statistics computes FactorStatistics for factorID. Extremes are 0 when the
// factor has never been scored.
func Statistics(factorID string, all, last7, last30 []tracker.DailyRecord) FactorStatistics {
	st := FactorStatistics{
		SevenDayAverage:  FactorAverage(factorID, last7),
		ThirtyDayAverage: FactorAverage(factorID, last30),
	}
	seen := false
	for _, r := range all {
		v, ok := r.Scores[factorID]
		if !ok {
			continue
		}
		if !seen {
			st.HighestScore, st.LowestScore = v, v
			seen = true
			continue
		}
		st.HighestScore = max(st.HighestScore, v)
		st.LowestScore = min(st.LowestScore, v)
	}
	return st
}
