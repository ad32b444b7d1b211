package recurring

import (
	"math"
	"time"

	"github.com/Veraticus/ledgerlens/internal/model"
)

// dayGaps returns the calendar-day gaps between consecutive members.
func dayGaps(cluster []Input) []float64 {
	gaps := make([]float64, 0, len(cluster)-1)
	for i := 1; i < len(cluster); i++ {
		prev := civilDay(cluster[i-1].Transaction.Date)
		cur := civilDay(cluster[i].Transaction.Date)
		gaps = append(gaps, math.Round(cur.Sub(prev).Hours()/24))
	}
	return gaps
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanAbsDeviation is the mean absolute deviation of values from their mean.
func meanAbsDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += math.Abs(v - m)
	}
	return sum / float64(len(values))
}

// classify returns the frequency whose band contains meanGap.
func classify(meanGap float64, bands []Band) (model.Frequency, bool) {
	for _, b := range bands {
		if meanGap >= b.MinDays && meanGap <= b.MaxDays {
			return b.Frequency, true
		}
	}
	return "", false
}
