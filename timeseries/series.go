// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series represents a time series with timestamps, values and a seasonal period.
//
// A Series is treated as immutable once constructed: every method that derives
// a new series copies the underlying data, and nothing in this module writes
// to Values after construction.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
	Period     int // Seasonal period m (1 for non-seasonal data)
}

// epoch anchors the synthetic timestamps of series built from bare values.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// New creates a non-seasonal time series from values.
// The values are copied.
func New(values []float64) *Series {
	return NewSeasonal(values, 1)
}

// NewSeasonal creates a time series with seasonal period m.
// A period below 1 is treated as 1.
func NewSeasonal(values []float64, period int) *Series {
	if period < 1 {
		period = 1
	}
	v := make([]float64, len(values))
	copy(v, values)

	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = epoch.Add(time.Duration(i) * time.Hour)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     v,
		Period:     period,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64, period int) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	if period < 1 {
		period = 1
	}
	s := &Series{
		Timestamps: make([]time.Time, len(timestamps)),
		Values:     make([]float64, len(values)),
		Period:     period,
	}
	copy(s.Timestamps, timestamps)
	copy(s.Values, values)
	return s, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// SeasonalPeriod returns the seasonal period, never less than 1.
func (s *Series) SeasonalPeriod() int {
	if s.Period < 1 {
		return 1
	}
	return s.Period
}

// WithPeriod returns a copy of the series carrying seasonal period m.
func (s *Series) WithPeriod(m int) *Series {
	c := s.Copy()
	if m < 1 {
		m = 1
	}
	c.Period = m
	return c
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.StdDev(s.Values, nil)
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Median returns the median value of the series.
func (s *Series) Median() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// FirstNonPositive returns the index of the first value <= 0, or -1 when
// every value is strictly positive.
func (s *Series) FirstNonPositive() int {
	for i, v := range s.Values {
		if v <= 0 {
			return i
		}
	}
	return -1
}

// Slice returns a copy of the series from start to end (exclusive).
// The seasonal period is preserved.
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name, Period: s.SeasonalPeriod()}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Period:     s.SeasonalPeriod(),
	}
}

// Split divides the series into a training part of trainSize observations
// and a test part holding the rest.
func (s *Series) Split(trainSize int) (train, test *Series) {
	return s.Slice(0, trainSize), s.Slice(trainSize, s.Len())
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Period:     s.SeasonalPeriod(),
	}
}
