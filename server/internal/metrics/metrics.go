// Package metrics summarises a click ledger.
package metrics

import (
	"math"
	"sort"

	"video-coords/server/internal/models"
)

type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// Summary is keyed by metric name.
type Summary map[string]MetricResult

// Summarize computes the ledger metrics. Positions are normalised by each
// click's own native size so clicks on differently sized sources compare.
func Summarize(clicks []models.ClickEvent) Summary {
	cx, cy := centroid(clicks)
	return Summary{
		"click_count":          {Value: float64(len(clicks)), Calculated: true, SampleSize: len(clicks)},
		"frame_span":           frameSpan(clicks),
		"centroid_x":           cx,
		"centroid_y":           cy,
		"spread":               spread(clicks),
		"average_interval":     averageInterval(clicks),
		"interval_variability": intervalVariability(clicks),
	}
}

func normalised(e models.ClickEvent) (float64, float64, bool) {
	if e.Width <= 0 || e.Height <= 0 {
		return 0, 0, false
	}
	return float64(e.X) / float64(e.Width), float64(e.Y) / float64(e.Height), true
}

// frameSpan is the distance in seconds between the earliest and latest
// annotated frames.
func frameSpan(clicks []models.ClickEvent) MetricResult {
	if len(clicks) < 2 {
		return MetricResult{}
	}
	lo, hi := clicks[0].FrameTime, clicks[0].FrameTime
	for _, e := range clicks[1:] {
		lo = math.Min(lo, e.FrameTime)
		hi = math.Max(hi, e.FrameTime)
	}
	return MetricResult{Value: hi - lo, Calculated: true, SampleSize: len(clicks)}
}

func centroid(clicks []models.ClickEvent) (MetricResult, MetricResult) {
	var sx, sy float64
	n := 0
	for _, e := range clicks {
		x, y, ok := normalised(e)
		if !ok {
			continue
		}
		sx += x
		sy += y
		n++
	}
	if n == 0 {
		return MetricResult{}, MetricResult{}
	}
	return MetricResult{Value: sx / float64(n), Calculated: true, SampleSize: n},
		MetricResult{Value: sy / float64(n), Calculated: true, SampleSize: n}
}

// spread is the mean distance from the centroid in normalised units.
func spread(clicks []models.ClickEvent) MetricResult {
	cx, cy := centroid(clicks)
	if !cx.Calculated || cx.SampleSize < 2 {
		return MetricResult{}
	}

	var sum float64
	for _, e := range clicks {
		x, y, ok := normalised(e)
		if !ok {
			continue
		}
		sum += math.Hypot(x-cx.Value, y-cy.Value)
	}
	return MetricResult{Value: sum / float64(cx.SampleSize), Calculated: true, SampleSize: cx.SampleSize}
}

// intervals returns the wall clock gaps between consecutive clicks, in
// milliseconds. Ledger order already is time order.
func intervals(clicks []models.ClickEvent) []float64 {
	if len(clicks) < 2 {
		return nil
	}
	out := make([]float64, 0, len(clicks)-1)
	for i := 1; i < len(clicks); i++ {
		out = append(out, float64(clicks[i].UnixTime-clicks[i-1].UnixTime))
	}
	return out
}

func averageInterval(clicks []models.ClickEvent) MetricResult {
	gaps := intervals(clicks)
	if len(gaps) == 0 {
		return MetricResult{}
	}

	// Trimmed mean (drop top and bottom 5%) once there are enough samples.
	if len(gaps) > 10 {
		sort.Float64s(gaps)
		trim := int(math.Floor(float64(len(gaps)) * 0.05))
		if trim > 0 {
			gaps = gaps[trim : len(gaps)-trim]
		}
	}
	return MetricResult{Value: mean(gaps), Calculated: true, SampleSize: len(gaps)}
}

// intervalVariability is the coefficient of variation of the click intervals.
func intervalVariability(clicks []models.ClickEvent) MetricResult {
	gaps := intervals(clicks)
	if len(gaps) < 3 {
		return MetricResult{SampleSize: len(gaps)}
	}

	avg := mean(gaps)
	if avg <= 0 {
		return MetricResult{SampleSize: len(gaps)}
	}

	// Bessel's correction
	var variance float64
	for _, g := range gaps {
		variance += math.Pow(g-avg, 2)
	}
	variance /= float64(len(gaps) - 1)

	return MetricResult{Value: math.Sqrt(variance) / avg, Calculated: true, SampleSize: len(gaps)}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
