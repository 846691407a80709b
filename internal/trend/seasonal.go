package trend

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-insights/internal/timeseries"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/iwvelando/finance-insights/pkg/datetime"
	"github.com/iwvelando/finance-insights/pkg/mathutil"
)

// Grouping selects how periods are folded into seasons.
type Grouping string

const (
	ByMonth   Grouping = "month"
	ByQuarter Grouping = "quarter"
)

// SeasonalIndex is the typical level of one season relative to the overall
// average. Index is a ratio around 1.0, not a percentage.
type SeasonalIndex struct {
	Period  int     `json:"period"`
	Label   string  `json:"label"`
	Average float64 `json:"average"`
	Index   float64 `json:"index"`
	Count   int     `json:"count"`
}

// Seasonality lists the seasonal indices in calendar order and the seasons
// above high or below low.
type Seasonality struct {
	Grouping   Grouping        `json:"grouping"`
	Indices    []SeasonalIndex `json:"indices"`
	HighSeason []string        `json:"highSeason"`
	LowSeason  []string        `json:"lowSeason"`
}

// Seasonal groups each period by the calendar month or quarter of its start
// and divides each group's mean by the mean of all periods, so the
// count-weighted mean of the indices is 1. An all-zero series has every
// index at 1.
func Seasonal(s timeseries.Series, grouping Grouping, high, low float64) Seasonality {
	slots := constants.MonthsPerYear
	if grouping == ByQuarter {
		slots = constants.QuartersPerYear
	} else {
		grouping = ByMonth
	}

	sums := make([]float64, slots)
	counts := make([]int, slots)
	total := 0.0
	for _, p := range s.Points {
		slot := seasonOf(p.Start, grouping) - 1
		sums[slot] += p.Value
		counts[slot]++
		total += p.Value
	}
	grandMean := mathutil.SafeDivide(total, float64(s.Len()))

	result := Seasonality{
		Grouping:   grouping,
		Indices:    []SeasonalIndex{},
		HighSeason: []string{},
		LowSeason:  []string{},
	}
	for slot := 0; slot < slots; slot++ {
		if counts[slot] == 0 {
			continue
		}
		avg := sums[slot] / float64(counts[slot])
		index := 1.0
		if grandMean != 0 {
			index = avg / grandMean
		}
		label := seasonLabel(slot+1, grouping)
		result.Indices = append(result.Indices, SeasonalIndex{
			Period:  slot + 1,
			Label:   label,
			Average: mathutil.Round(avg),
			Index:   index,
			Count:   counts[slot],
		})
		if index > high {
			result.HighSeason = append(result.HighSeason, label)
		} else if index < low {
			result.LowSeason = append(result.LowSeason, label)
		}
	}
	return result
}

func seasonOf(t time.Time, grouping Grouping) int {
	if grouping == ByQuarter {
		return datetime.Quarter(t)
	}
	return int(t.Month())
}

func seasonLabel(period int, grouping Grouping) string {
	if grouping == ByQuarter {
		return fmt.Sprintf("Q%d", period)
	}
	return time.Month(period).String()
}
