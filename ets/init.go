package ets

import (
	"fmt"
	"math"

	"github.com/sartorproj/goets/stats"
	"github.com/sartorproj/goets/timeseries"
)

// minObservations is the shortest series a model with period m can be fitted
// on: two full seasonal cycles, and never fewer than m+2 points.
func minObservations(m int) int {
	return max(m+2, 2*m)
}

// seedState derives the initial state from the start of the series.
//
// Non-seasonal models seed from the first two observations so that the first
// fitted value reproduces y[0]. Seasonal models decompose the first two full
// cycles: the normalized seasonal pattern seeds the seasonal states, and the
// cycle means of the deseasonalized data seed level and trend.
func seedState(y []float64, spec Spec, m int) (State, error) {
	if !spec.Seasonal() {
		return seedNonSeasonal(y, spec), nil
	}

	kind := stats.Additive
	if spec.Season == MultiplicativeSeason {
		kind = stats.Multiplicative
	}
	head := timeseries.NewSeasonal(y[:2*m], m)
	decomp, err := stats.Decompose(head, m, kind)
	if err != nil {
		return State{}, fmt.Errorf("seed seasonal state: %w", err)
	}

	rule := seasonRuleFor(spec.Season)
	first, second := 0.0, 0.0
	for i := 0; i < m; i++ {
		first += rule.remove(y[i], decomp.Pattern[i])
		second += rule.remove(y[m+i], decomp.Pattern[i])
	}
	first /= float64(m)
	second /= float64(m)

	st := State{Season: append([]float64(nil), decomp.Pattern...)}
	center := float64(m+1) / 2
	switch {
	case spec.MultiplicativeTrend():
		st.Trend = math.Pow(second/first, 1/float64(m))
		st.Level = first / math.Pow(st.Trend, center)
	case spec.HasTrend():
		st.Trend = (second - first) / float64(m)
		st.Level = first - st.Trend*center
	default:
		st.Level = first
	}
	return st, nil
}

func seedNonSeasonal(y []float64, spec Spec) State {
	switch {
	case spec.MultiplicativeTrend():
		b := y[1] / y[0]
		return State{Level: y[0] / b, Trend: b}
	case spec.HasTrend():
		b := y[1] - y[0]
		return State{Level: y[0] - b, Trend: b}
	default:
		return State{Level: y[0]}
	}
}

// checkState validates a caller-supplied initial state against the spec.
func checkState(st State, spec Spec, m int) error {
	if math.IsNaN(st.Level) || math.IsInf(st.Level, 0) {
		return invalid("initial level", st.Level, "must be a finite number")
	}
	if math.IsNaN(st.Trend) || math.IsInf(st.Trend, 0) {
		return invalid("initial trend", st.Trend, "must be a finite number")
	}
	if spec.MultiplicativeTrend() && st.Trend <= 0 {
		return &NonPositiveValueError{Component: "trend", Index: -1, Value: st.Trend}
	}
	if (spec.MultiplicativeTrend() || spec.Season == MultiplicativeSeason) && st.Level <= 0 {
		return &NonPositiveValueError{Component: "level", Index: -1, Value: st.Level}
	}
	if !spec.Seasonal() {
		return nil
	}
	if len(st.Season) != m {
		return invalid("initial season length", float64(len(st.Season)),
			fmt.Sprintf("must equal the seasonal period %d", m))
	}
	for _, s := range st.Season {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return invalid("initial season", s, "must be a finite number")
		}
		if spec.Season == MultiplicativeSeason && s <= 0 {
			return &NonPositiveValueError{Component: "season", Index: -1, Value: s}
		}
	}
	return nil
}
