package stats

import (
	"errors"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goets/timeseries"
)

// DecompositionType selects how trend, season and remainder combine.
type DecompositionType string

const (
	// Additive decomposition: Y = T + S + R.
	Additive DecompositionType = "additive"
	// Multiplicative decomposition: Y = T * S * R.
	Multiplicative DecompositionType = "multiplicative"
)

var (
	// ErrInvalidPeriod is returned for a seasonal period below 2.
	ErrInvalidPeriod = errors.New("seasonal period must be at least 2")
	// ErrTooShort is returned when the series holds fewer than two full cycles.
	ErrTooShort = errors.New("decomposition needs at least two full seasonal cycles")
	// ErrNonPositive is returned when a multiplicative decomposition meets a value <= 0.
	ErrNonPositive = errors.New("multiplicative decomposition needs strictly positive values")
)

// DecompositionResult represents the decomposition of a time series.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	// Pattern holds one normalized seasonal value per position in the cycle,
	// aligned so that Pattern[i%Period] is the seasonal value of observation i.
	Pattern []float64
	Period  int
	Type    DecompositionType
}

// Decompose performs classical seasonal decomposition of a time series.
// The trend is a centered moving average (2xm for even periods); the seasonal
// pattern is the per-position average of the detrended series, normalized to
// sum to zero (additive) or average to one (multiplicative).
func Decompose(series *timeseries.Series, period int, kind DecompositionType) (*DecompositionResult, error) {
	if period < 2 {
		return nil, ErrInvalidPeriod
	}
	n := series.Len()
	if n < 2*period {
		return nil, ErrTooShort
	}
	if kind != Multiplicative {
		kind = Additive
	}
	if kind == Multiplicative && series.FirstNonPositive() >= 0 {
		return nil, ErrNonPositive
	}

	tr := CenteredMovingAverage(series.Values, period)

	detrended := make([]float64, n)
	for i, v := range series.Values {
		switch {
		case math.IsNaN(tr[i]):
			detrended[i] = math.NaN()
		case kind == Multiplicative:
			detrended[i] = v / tr[i]
		default:
			detrended[i] = v - tr[i]
		}
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, d := range detrended {
		if math.IsNaN(d) {
			continue
		}
		pattern[i%period] += d
		counts[i%period]++
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		} else if kind == Multiplicative {
			pattern[i] = 1
		}
	}
	normalizePattern(pattern, kind)

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i, v := range series.Values {
		seasonal[i] = pattern[i%period]
		switch {
		case math.IsNaN(tr[i]):
			residual[i] = math.NaN()
		case kind == Multiplicative:
			residual[i] = v / (tr[i] * seasonal[i])
		default:
			residual[i] = v - tr[i] - seasonal[i]
		}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    component(series, tr, "trend"),
		Seasonal: component(series, seasonal, "seasonal"),
		Residual: component(series, residual, "residual"),
		Pattern:  pattern,
		Period:   period,
		Type:     kind,
	}, nil
}

// CenteredMovingAverage returns the centered moving average of values over
// period, with NaN where the window does not fit. Even periods use the 2xm
// average of two adjacent m-windows so that the result stays centered.
func CenteredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || n < period {
		return out
	}

	// windowMean[s] is the mean of values[s : s+period].
	windowMean := make([]float64, n-period+1)
	sma := trend.NewSmaWithPeriod[float64](period)
	ma := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	offset := n - len(ma)
	for j, v := range ma {
		start := j + offset - (period - 1)
		if start < 0 || start >= len(windowMean) {
			continue
		}
		windowMean[start] = v
	}

	half := period / 2
	if period%2 == 1 {
		for s, m := range windowMean {
			out[s+half] = m
		}
		return out
	}
	for s := 0; s+1 < len(windowMean); s++ {
		out[s+half] = (windowMean[s] + windowMean[s+1]) / 2
	}
	return out
}

func normalizePattern(pattern []float64, kind DecompositionType) {
	mean := stat.Mean(pattern, nil)
	if kind == Multiplicative {
		floats.Scale(1/mean, pattern)
		return
	}
	floats.AddConst(-mean, pattern)
}

func component(series *timeseries.Series, values []float64, name string) *timeseries.Series {
	return &timeseries.Series{
		Timestamps: series.Timestamps,
		Values:     values,
		Name:       name,
		Period:     series.SeasonalPeriod(),
	}
}
