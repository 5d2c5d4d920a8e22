package stats

import (
	"fmt"
	"time"

	"github.com/kalambet/emotrack/internal/calendar"
	"github.com/kalambet/emotrack/internal/tracker"
)

// Window lengths in calendar days.
const (
	ShortWindowDays = 7
	LongWindowDays  = 30
)

// RecordSource is satisfied by tracker.Journal.
type RecordSource interface {
	ListAll() ([]tracker.DailyRecord, error)
	ListInRange(start, end time.Time) ([]tracker.DailyRecord, error)
}

// FactorSource is satisfied by tracker.Registry.
type FactorSource interface {
	ListActive() ([]tracker.Factor, error)
}

// Snapshot is the record set a dashboard is computed from, captured at
// GeneratedAt. It is not updated afterwards.
type Snapshot struct {
	GeneratedAt time.Time
	Factors     []tracker.Factor
	All         []tracker.DailyRecord
	Last7       []tracker.DailyRecord
	Last30      []tracker.DailyRecord
}

// Load reads the active factors, the full history and both windows. A window
// of N days spans [now-N days, now].
func Load(records RecordSource, factors FactorSource, cal calendar.Calendar) (Snapshot, error) {
	now := cal.Now()
	active, err := factors.ListActive()
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading factors: %w", err)
	}
	all, err := records.ListAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading records: %w", err)
	}
	last7, err := records.ListInRange(cal.DaysAgo(ShortWindowDays), now)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading %d-day window: %w", ShortWindowDays, err)
	}
	last30, err := records.ListInRange(cal.DaysAgo(LongWindowDays), now)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading %d-day window: %w", LongWindowDays, err)
	}
	return Snapshot{
		GeneratedAt: now,
		Factors:     active,
		All:         all,
		Last7:       last7,
		Last30:      last30,
	}, nil
}

// FactorSummary is everything a per-factor chart needs.
type FactorSummary struct {
	Factor     tracker.Factor   `json:"factor" yaml:"factor"`
	Statistics FactorStatistics `json:"statistics" yaml:"statistics"`
	Trend      []Point          `json:"trend" yaml:"trend"`
	DataPoints int              `json:"data_points" yaml:"data_points"`
}

type Summary struct {
	GeneratedAt      time.Time       `json:"generated_at" yaml:"generated_at"`
	OverallAverage   float64         `json:"overall_average" yaml:"overall_average"`
	SevenDayAverage  float64         `json:"seven_day_average" yaml:"seven_day_average"`
	ThirtyDayAverage float64         `json:"thirty_day_average" yaml:"thirty_day_average"`
	Factors          []FactorSummary `json:"factors" yaml:"factors"`
}

// Summary computes the dashboard view of the snapshot. Trends and data point
// counts use the 30-day window.
func (s Snapshot) Summary() Summary {
	sum := Summary{
		GeneratedAt:      s.GeneratedAt,
		OverallAverage:   OverallAverage(s.All),
		SevenDayAverage:  OverallAverage(s.Last7),
		ThirtyDayAverage: OverallAverage(s.Last30),
		Factors:          make([]FactorSummary, 0, len(s.Factors)),
	}
	for _, f := range s.Factors {
		sum.Factors = append(sum.Factors, s.summarize(f))
	}
	return sum
}

// Factor returns the summary of one active factor.
func (s Snapshot) Factor(id string) (FactorSummary, bool) {
	for _, f := range s.Factors {
		if f.ID == id {
			return s.summarize(f), true
		}
	}
	return FactorSummary{}, false
}

func (s Snapshot) summarize(f tracker.Factor) FactorSummary {
	return FactorSummary{
		Factor:     f,
		Statistics: Statistics(f.ID, s.All, s.Last7, s.Last30),
		Trend:      TrendSeries(f.ID, s.Last30),
		DataPoints: CountDataPoints(f.ID, s.Last30),
	}
}
