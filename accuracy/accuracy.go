// Package accuracy scores forecasts against actual observations.
package accuracy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric names a forecast error measure. Lower is better for all of them
// except ME, which is compared by absolute value.
type Metric string

const (
	MetricRMSE Metric = "rmse"
	MetricMAE  Metric = "mae"
	MetricMAPE Metric = "mape"
	MetricME   Metric = "me"
)

// ParseMetric parses a metric name, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricRMSE, MetricMAE, MetricMAPE, MetricME:
		return m, nil
	}
	return "", fmt.Errorf("unknown accuracy metric %q", s)
}

// ErrEmpty is returned when there is nothing to score.
var ErrEmpty = errors.New("accuracy needs at least one value")

// LengthMismatchError reports forecast and actual slices of different length.
type LengthMismatchError struct {
	Forecast int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("forecast has %d values but actual has %d", e.Forecast, e.Actual)
}

// DivisionByZeroError reports an actual value of zero under MAPE.
type DivisionByZeroError struct {
	Index int
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("MAPE undefined: actual value at index %d is zero", e.Index)
}

func check(forecast, actual []float64) error {
	if len(forecast) != len(actual) {
		return &LengthMismatchError{Forecast: len(forecast), Actual: len(actual)}
	}
	if len(actual) == 0 {
		return ErrEmpty
	}
	return nil
}

func errorsOf(forecast, actual []float64) []float64 {
	e := make([]float64, len(actual))
	floats.SubTo(e, actual, forecast)
	return e
}

// RMSE returns the root mean squared error of forecast against actual.
func RMSE(forecast, actual []float64) (float64, error) {
	if err := check(forecast, actual); err != nil {
		return 0, err
	}
	e := errorsOf(forecast, actual)
	return math.Sqrt(floats.Dot(e, e) / float64(len(e))), nil
}

// MAE returns the mean absolute error.
func MAE(forecast, actual []float64) (float64, error) {
	if err := check(forecast, actual); err != nil {
		return 0, err
	}
	return floats.Distance(actual, forecast, 1) / float64(len(actual)), nil
}

// MAPE returns the mean absolute percentage error, in percent. Any zero
// actual value makes it undefined.
func MAPE(forecast, actual []float64) (float64, error) {
	if err := check(forecast, actual); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, a := range actual {
		if a == 0 {
			return 0, &DivisionByZeroError{Index: i}
		}
		sum += math.Abs((a - forecast[i]) / a)
	}
	return 100 * sum / float64(len(actual)), nil
}

// ME returns the mean error (actual minus forecast), a measure of bias.
func ME(forecast, actual []float64) (float64, error) {
	if err := check(forecast, actual); err != nil {
		return 0, err
	}
	return floats.Sum(errorsOf(forecast, actual)) / float64(len(actual)), nil
}

// Metrics holds every accuracy measure for one forecast.
type Metrics struct {
	N    int     `json:"n" yaml:"n"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
	MAPE float64 `json:"mape" yaml:"mape"`
	ME   float64 `json:"me" yaml:"me"`
}

// Evaluate computes all metrics at once. A zero actual value returns the
// *DivisionByZeroError from MAPE together with the other metrics, leaving
// MAPE at zero; callers decide whether to skip or substitute it.
func Evaluate(forecast, actual []float64) (*Metrics, error) {
	if err := check(forecast, actual); err != nil {
		return nil, err
	}
	out := &Metrics{N: len(actual)}
	out.RMSE, _ = RMSE(forecast, actual)
	out.MAE, _ = MAE(forecast, actual)
	out.ME, _ = ME(forecast, actual)
	mape, err := MAPE(forecast, actual)
	if err != nil {
		return out, err
	}
	out.MAPE = mape
	return out, nil
}

// Score computes a single metric.
func Score(metric Metric, forecast, actual []float64) (float64, error) {
	switch metric {
	case MetricRMSE:
		return RMSE(forecast, actual)
	case MetricMAE:
		return MAE(forecast, actual)
	case MetricMAPE:
		return MAPE(forecast, actual)
	case MetricME:
		return ME(forecast, actual)
	}
	return 0, fmt.Errorf("unknown accuracy metric %q", metric)
}

// Get returns the named metric from m.
func (m *Metrics) Get(metric Metric) float64 {
	switch metric {
	case MetricMAE:
		return m.MAE
	case MetricMAPE:
		return m.MAPE
	case MetricME:
		return m.ME
	default:
		return m.RMSE
	}
}
