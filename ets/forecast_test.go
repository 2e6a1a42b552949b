package ets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goets/timeseries"
)

const z95 = 1.959963984540054

func TestForecastSESVariance(t *testing.T) {
	model, err := Fit(timeseries.New(wiggly(30)), SES(), Params{Alpha: 0.4})
	require.NoError(t, err)
	require.Greater(t, model.Sigma2, 0.0)

	fc, err := model.Forecast(10)
	require.NoError(t, err)
	assert.Equal(t, IntervalAnalytic, fc.Method)
	assert.Equal(t, 0.95, fc.Level)
	assert.Equal(t, 10, fc.Horizon())

	for k, p := range fc.Points {
		want := model.Sigma2 * (1 + float64(k)*0.4*0.4)
		half := z95 * math.Sqrt(want)
		assert.Equal(t, k+1, p.Step)
		assert.InDeltaf(t, p.Value-half, p.Lower, 1e-6, "lower at step %d", k+1)
		assert.InDeltaf(t, p.Value+half, p.Upper, 1e-6, "upper at step %d", k+1)
	}
}

func TestForecastWidthsNonDecreasing(t *testing.T) {
	series := timeseries.NewSeasonal(seasonalData(6), 4)
	specs := []Spec{
		SES(),
		Holt(false),
		Holt(true),
		HoltWinters(AdditiveSeason, false),
	}
	params := Params{Alpha: 0.5, Beta: 0.2, Gamma: 0.1, Phi: 0.85}

	for _, spec := range specs {
		t.Run(spec.String(), func(t *testing.T) {
			model, err := Fit(series, spec, params)
			require.NoError(t, err)

			fc, err := model.Forecast(24)
			require.NoError(t, err)
			widths := fc.Widths()
			for k := 1; k < len(widths); k++ {
				assert.GreaterOrEqualf(t, widths[k], widths[k-1]-1e-12, "width shrank at step %d", k+1)
			}
		})
	}
}

func TestForecastDampedTrend(t *testing.T) {
	model, err := Fit(timeseries.New(wiggly(40)), Holt(true), Params{Alpha: 0.5, Beta: 0.2, Phi: 0.8})
	require.NoError(t, err)

	fc, err := model.Forecast(200)
	require.NoError(t, err)

	// The trend contribution levels off at T*phi/(1-phi).
	limit := model.Final.Trend * 0.8 / 0.2
	last := fc.Points[199].Value - model.Final.Level
	assert.InDelta(t, limit, last, 1e-9*math.Max(1, math.Abs(limit)))

	// Each extra step adds a variance increment approaching sigma2*c^2,
	// c = alpha*(1 + beta*phi/(1-phi)).
	v := model.forecastVariances(fc.Values())
	c := 0.5 * (1 + 0.2*0.8/0.2)
	assert.InDelta(t, model.Sigma2*c*c, v[199]-v[198], 1e-9*model.Sigma2)
}

func TestForecastUndampedTrendGrowsLinearly(t *testing.T) {
	model, err := Fit(timeseries.New(wiggly(40)), Holt(false), Params{Alpha: 0.5, Beta: 0.2})
	require.NoError(t, err)

	fc, err := model.Forecast(50)
	require.NoError(t, err)
	values := fc.Values()
	for k := 1; k < len(values); k++ {
		assert.InDelta(t, model.Final.Trend, values[k]-values[k-1], 1e-9)
	}
}

func TestForecastMultiplicativeError(t *testing.T) {
	model, err := Fit(timeseries.New(wiggly(30)), Spec{Error: MultiplicativeError}, Params{Alpha: 0.3})
	require.NoError(t, err)

	fc, err := model.Forecast(5)
	require.NoError(t, err)
	assert.Equal(t, IntervalAnalytic, fc.Method)

	p := fc.Points[0]
	sigma := math.Sqrt(model.Sigma2)
	assert.InDelta(t, 2*z95*sigma*p.Value, p.Width(), 1e-6)
	for _, p := range fc.Points {
		assert.Less(t, p.Lower, p.Value)
		assert.Greater(t, p.Upper, p.Value)
	}
}

func TestForecastSimulation(t *testing.T) {
	series := timeseries.New(wiggly(30))
	spec := Spec{Error: AdditiveError, Trend: MultiplicativeTrend}

	model, err := Fit(series, spec, Params{Alpha: 0.5, Beta: 0.1})
	require.NoError(t, err)

	a, err := model.Forecast(8, WithSeed(7), WithSimulations(500))
	require.NoError(t, err)
	b, err := model.Forecast(8, WithSeed(7), WithSimulations(500))
	require.NoError(t, err)
	c, err := model.Forecast(8, WithSeed(8), WithSimulations(500))
	require.NoError(t, err)

	assert.Equal(t, IntervalSimulation, a.Method)
	assert.Equal(t, a.Lower(), b.Lower())
	assert.Equal(t, a.Upper(), b.Upper())
	assert.NotEqual(t, a.Upper(), c.Upper())

	for _, p := range a.Points {
		assert.LessOrEqual(t, p.Lower, p.Upper)
		assert.False(t, math.IsNaN(p.Lower))
	}
	assert.Greater(t, a.Points[7].Width(), a.Points[0].Width())
}

func TestForecastSimulationStaysPositive(t *testing.T) {
	series := timeseries.NewSeasonal(seasonalData(6), 4)
	spec := Spec{Error: MultiplicativeError, Trend: NoTrend, Season: MultiplicativeSeason}
	model, err := Fit(series, spec, Params{Alpha: 0.3, Gamma: 0.1})
	require.NoError(t, err)

	// Wide enough that most Gaussian draws fall below -1.
	model.Sigma2 = 4
	fc, err := model.Forecast(12, WithSeed(11), WithSimulations(2000))
	require.NoError(t, err)
	assert.Equal(t, IntervalSimulation, fc.Method)

	for _, p := range fc.Points {
		if math.IsNaN(p.Lower) {
			continue
		}
		assert.Greaterf(t, p.Lower, 0.0, "step %d", p.Step)
		assert.GreaterOrEqual(t, p.Upper, p.Lower)
	}
	assert.False(t, math.IsNaN(fc.Points[0].Lower), "some paths survive the first step")
}

func TestForecastSimulationMultiplicativeSeason(t *testing.T) {
	series := timeseries.NewSeasonal(seasonalData(6), 4)
	model, err := Fit(series, HoltWinters(MultiplicativeSeason, false), Params{Alpha: 0.3, Beta: 0.05, Gamma: 0.1})
	require.NoError(t, err)

	fc, err := model.Forecast(8, WithLevel(0.8), WithSeed(3))
	require.NoError(t, err)
	assert.Equal(t, IntervalSimulation, fc.Method)
	assert.Equal(t, 0.8, fc.Level)
	for _, p := range fc.Points {
		assert.Less(t, p.Lower, p.Upper)
	}
}

func TestForecastErrors(t *testing.T) {
	model, err := Fit(timeseries.New(wiggly(20)), SES(), Params{Alpha: 0.5})
	require.NoError(t, err)

	var perr *InvalidParameterError
	_, err = model.Forecast(0)
	assert.ErrorAs(t, err, &perr)
	_, err = model.Forecast(3, WithLevel(1))
	assert.ErrorAs(t, err, &perr)
	_, err = model.Forecast(3, WithSimulations(0))
	assert.ErrorAs(t, err, &perr)

	_, err = (&Model{}).Forecast(3)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDampedSteps(t *testing.T) {
	assert.Equal(t, 5.0, DampedSteps(1, 5))
	assert.InDelta(t, 0.75, DampedSteps(0.5, 2), 1e-15)
	assert.Equal(t, 0.0, DampedSteps(0.9, 0))
	assert.InDelta(t, 9.0, DampedSteps(0.9, 10000), 1e-9)
}
