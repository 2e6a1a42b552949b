package optimize

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goets/accuracy"
	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/timeseries"
)

// noisyLevel simulates a local level process with smoothing weight alpha.
func noisyLevel(n int, alpha float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 42))
	values := make([]float64, n)
	level := 100.0
	for i := range values {
		e := 2 * rng.NormFloat64()
		values[i] = level + e
		level += alpha * e
	}
	return values
}

// seasonalSeries returns period-4 data with a strong additive pattern.
func seasonalSeries(cycles int, seed uint64) *timeseries.Series {
	rng := rand.New(rand.NewPCG(seed, 7))
	pattern := []float64{6, -2, -8, 4}
	values := make([]float64, 0, 4*cycles)
	for c := 0; c < cycles; c++ {
		for _, s := range pattern {
			values = append(values, 50+0.2*float64(len(values))+s+0.5*rng.NormFloat64())
		}
	}
	return timeseries.NewSeasonal(values, 4)
}

func gridConfig(train, test int) GridConfig {
	cfg := DefaultGridConfig()
	cfg.Range = Range{Min: 0.1, Max: 0.9, Step: 0.1}
	cfg.Train = Span{Start: 0, End: train}
	cfg.Test = Span{Start: train, End: train + test}
	return cfg
}

func TestDefaultConfigs(t *testing.T) {
	grid := DefaultGridConfig()
	assert.Equal(t, ets.Alpha, grid.Target)
	assert.Equal(t, accuracy.MetricRMSE, grid.Metric)
	assert.Equal(t, 1, grid.Workers)
	assert.Equal(t, DefaultRange(ets.Alpha), grid.Range)

	fit := DefaultFitConfig()
	assert.Equal(t, ObjectiveSSE, fit.Objective)
	assert.Equal(t, 4, fit.Starts)
	assert.Equal(t, 500, fit.MaxIterations)
	assert.Equal(t, Interval{Lo: 1e-4, Hi: 0.9999}, fit.Bounds.Alpha)
	assert.Equal(t, Interval{Lo: 0.8, Hi: 0.98}, fit.Bounds.Phi)

	sel := DefaultSelectConfig()
	assert.Equal(t, CriterionAICc, sel.Criterion)
	assert.Equal(t, 4, sel.Fit.Starts)
}

func TestRangeValues(t *testing.T) {
	values := Range{Min: 0, Max: 1, Step: 0.1}.Values()
	require.Len(t, values, 11)
	assert.Equal(t, 0.3, values[3])
	assert.Equal(t, 1.0, values[10])

	assert.Len(t, DefaultRange(ets.Alpha).Values(), 100)
	assert.Len(t, DefaultRange(ets.Beta).Values(), 101)
	assert.Nil(t, Range{Min: 0.5, Max: 0.1, Step: 0.1}.Values())
}

func TestGridSearchBestIsMinimum(t *testing.T) {
	series := timeseries.New(noisyLevel(120, 0.3, 1))
	cfg := gridConfig(100, 20)

	res, err := GridSearch(context.Background(), series, ets.SES(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Curve, 9)
	assert.Equal(t, 9, res.Evaluated)

	train := series.Slice(0, 100)
	actual := series.Values[100:120]
	for _, p := range res.Curve {
		require.NoError(t, p.Err)
		assert.LessOrEqual(t, res.BestScore, p.Score)

		// Recompute the point by hand.
		model, err := ets.Fit(train, ets.SES(), ets.Params{Alpha: p.Value})
		require.NoError(t, err)
		fc, err := model.Forecast(20)
		require.NoError(t, err)
		want, err := accuracy.RMSE(fc.Values(), actual)
		require.NoError(t, err)
		assert.InDelta(t, want, p.Score, 1e-12)
	}
	require.NotNil(t, res.Model)
	assert.Equal(t, res.Best, res.Model.Params.Alpha)
	assert.Equal(t, 100, res.Model.NObs, "model sees only the train span")
}

func TestGridSearchTieBreaksLow(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 5
	}
	cfg := gridConfig(20, 10)

	res, err := GridSearch(context.Background(), timeseries.New(values), ets.SES(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.1, res.Best)
	assert.Zero(t, res.BestScore)
}

func TestGridSearchRecordsInvalidPoints(t *testing.T) {
	series := timeseries.New(noisyLevel(60, 0.5, 2))
	cfg := gridConfig(50, 10)
	cfg.Range = Range{Min: 0, Max: 0.5, Step: 0.1}

	res, err := GridSearch(context.Background(), series, ets.SES(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Curve, 6)
	assert.Equal(t, 5, res.Evaluated)

	var perr *ets.InvalidParameterError
	assert.ErrorAs(t, res.Curve[0].Err, &perr)
	assert.True(t, math.IsNaN(res.Curve[0].Score))
	assert.NotEqual(t, 0.0, res.Best)
}

func TestGridSearchAllInvalid(t *testing.T) {
	values := noisyLevel(40, 0.5, 3)
	values[10] = -1
	cfg := gridConfig(30, 10)

	_, err := GridSearch(context.Background(), timeseries.New(values), ets.Spec{Error: ets.MultiplicativeError}, cfg)
	require.ErrorIs(t, err, ErrNoValidConfiguration)
	var nerr *ets.NonPositiveValueError
	assert.ErrorAs(t, err, &nerr)
}

func TestGridSearchNoLookahead(t *testing.T) {
	series := timeseries.New(noisyLevel(60, 0.5, 4))
	cfg := gridConfig(50, 10)
	cfg.Test = Span{Start: 45, End: 55}

	_, err := GridSearch(context.Background(), series, ets.SES(), cfg)
	var perr *ets.InvalidParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "test start", perr.Name)

	cfg.Test = Span{Start: 50, End: 70}
	_, err = GridSearch(context.Background(), series, ets.SES(), cfg)
	assert.ErrorAs(t, err, &perr)
}

func TestGridSearchGapBetweenSpans(t *testing.T) {
	series := timeseries.New(noisyLevel(80, 0.3, 5))
	cfg := gridConfig(50, 10)
	cfg.Test = Span{Start: 60, End: 70}

	res, err := GridSearch(context.Background(), series, ets.SES(), cfg)
	require.NoError(t, err)

	model, err := ets.Fit(series.Slice(0, 50), ets.SES(), ets.Params{Alpha: res.Best})
	require.NoError(t, err)
	fc, err := model.Forecast(20)
	require.NoError(t, err)
	want, err := accuracy.RMSE(fc.Values()[10:], series.Values[60:70])
	require.NoError(t, err)
	assert.InDelta(t, want, res.BestScore, 1e-12)
}

func TestGridSearchTargetNotInSpec(t *testing.T) {
	cfg := gridConfig(50, 10)
	cfg.Target = ets.Gamma

	_, err := GridSearch(context.Background(), timeseries.New(noisyLevel(60, 0.5, 6)), ets.SES(), cfg)
	var perr *ets.InvalidParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "target", perr.Name)
}

func TestGridSearchInvalidConfig(t *testing.T) {
	series := timeseries.New(noisyLevel(60, 0.5, 7))

	cfg := gridConfig(50, 10)
	cfg.Metric = "smape"
	_, err := GridSearch(context.Background(), series, ets.SES(), cfg)
	assert.Error(t, err)

	cfg = gridConfig(50, 10)
	cfg.Train = Span{}
	_, err = GridSearch(context.Background(), series, ets.SES(), cfg)
	assert.Error(t, err)
}

func TestGridSearchParallelMatchesSequential(t *testing.T) {
	series := seasonalSeries(12, 8)
	spec := ets.HoltWinters(ets.AdditiveSeason, false)

	cfg := gridConfig(40, 8)
	cfg.Target = ets.Gamma
	cfg.Range = Range{Min: 0, Max: 1, Step: 0.05}
	cfg.Base = ets.Params{Alpha: 0.3, Beta: 0.05}
	cfg.Metric = accuracy.MetricMAE

	seq, err := GridSearch(context.Background(), series, spec, cfg)
	require.NoError(t, err)

	cfg.Workers = 8
	par, err := GridSearch(context.Background(), series, spec, cfg)
	require.NoError(t, err)

	assert.Equal(t, seq.Best, par.Best)
	assert.Equal(t, seq.BestScore, par.BestScore)
	require.Len(t, par.Curve, len(seq.Curve))
	for i := range seq.Curve {
		assert.Equal(t, seq.Curve[i].Value, par.Curve[i].Value)
		assert.Equal(t, seq.Curve[i].Score, par.Curve[i].Score)
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GridSearch(ctx, timeseries.New(noisyLevel(60, 0.5, 9)), ets.SES(), gridConfig(50, 10))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGridSearchLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	cfg := gridConfig(50, 10)
	cfg.Range = Range{Min: 0, Max: 0.2, Step: 0.1}
	_, err := GridSearch(ctx, timeseries.New(noisyLevel(60, 0.5, 10)), ets.SES(), cfg)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "grid point rejected")
	assert.Contains(t, buf.String(), "grid search finished")
}

func TestFitBeatsGrid(t *testing.T) {
	series := timeseries.New(noisyLevel(200, 0.3, 11))

	model, err := Fit(context.Background(), series, ets.SES(), DefaultFitConfig())
	require.NoError(t, err)

	for a := 0.05; a < 1; a += 0.05 {
		m, err := ets.Fit(series, ets.SES(), ets.Params{Alpha: a})
		require.NoError(t, err)
		assert.LessOrEqualf(t, model.SSE, m.SSE*(1+1e-6), "alpha %.2f beats the optimum", a)
	}
	assert.Greater(t, model.Params.Alpha, 0.05)
	assert.Less(t, model.Params.Alpha, 0.8)
}

func TestFitHoltWinters(t *testing.T) {
	series := seasonalSeries(10, 12)
	spec := ets.HoltWinters(ets.AdditiveSeason, true)

	cfg := DefaultFitConfig()
	cfg.Workers = 4
	model, err := Fit(context.Background(), series, spec, cfg)
	require.NoError(t, err)

	// The first start sits at the midpoint of every interval.
	mid, err := ets.Fit(series, spec, ets.Params{Alpha: 0.5, Beta: 0.5, Gamma: 0.5, Phi: 0.89})
	require.NoError(t, err)
	assert.LessOrEqual(t, model.SSE, mid.SSE*(1+1e-9))

	p := model.Params
	assert.GreaterOrEqual(t, p.Phi, 0.8)
	assert.LessOrEqual(t, p.Phi, 0.98)
	for _, v := range []float64{p.Alpha, p.Beta, p.Gamma} {
		assert.GreaterOrEqual(t, v, 1e-4)
		assert.LessOrEqual(t, v, 0.9999)
	}
}

func TestFitFixedParameters(t *testing.T) {
	series := timeseries.New(noisyLevel(80, 0.3, 13))
	alpha, beta := 0.4, 0.2

	cfg := DefaultFitConfig()
	cfg.Fixed.Alpha = &alpha
	model, err := Fit(context.Background(), series, ets.Holt(false), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.4, model.Params.Alpha)

	cfg.Fixed.Beta = &beta
	model, err = Fit(context.Background(), series, ets.Holt(false), cfg)
	require.NoError(t, err)
	assert.Equal(t, ets.Params{Alpha: 0.4, Beta: 0.2, Phi: 1}, model.Params)
}

func TestFitLogLikObjective(t *testing.T) {
	series := timeseries.New(noisyLevel(80, 0.3, 14))

	cfg := DefaultFitConfig()
	cfg.Objective = ObjectiveLogLik
	model, err := Fit(context.Background(), series, ets.Spec{Error: ets.MultiplicativeError}, cfg)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(model.LogLik))
}

func TestFitFailure(t *testing.T) {
	_, err := Fit(context.Background(), timeseries.New([]float64{1, 2}), ets.SES(), DefaultFitConfig())
	require.ErrorIs(t, err, ErrNoValidConfiguration)
	var herr *ets.InsufficientHistoryError
	assert.ErrorAs(t, err, &herr)
}

func TestAdmissible(t *testing.T) {
	positive := timeseries.New(noisyLevel(30, 0.3, 15))
	assert.Len(t, Admissible(positive), 10)

	withZero := positive.Copy()
	withZero.Values[3] = 0
	assert.Len(t, Admissible(withZero), 3)

	assert.Len(t, Admissible(seasonalSeries(4, 16)), 30)
}

func TestSelect(t *testing.T) {
	series := seasonalSeries(10, 17)

	cfg := DefaultSelectConfig()
	cfg.Candidates = []ets.Spec{ets.SES(), ets.Holt(false), ets.HoltWinters(ets.AdditiveSeason, false)}
	cfg.Workers = 3

	sel, err := Select(context.Background(), series, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, sel.Evaluated)
	assert.Equal(t, ets.AdditiveSeason, sel.Model.Spec.Season)
	for _, c := range sel.Candidates {
		assert.LessOrEqual(t, sel.Score, c.Score)
	}
	assert.Equal(t, sel.Model.AICc, sel.Score)
}

func TestSelectSkipsFailures(t *testing.T) {
	series := timeseries.New(noisyLevel(30, 0.3, 18))

	cfg := DefaultSelectConfig()
	cfg.Criterion = CriterionBIC
	// Seasonal specs cannot be fitted without a period.
	cfg.Candidates = []ets.Spec{ets.HoltWinters(ets.AdditiveSeason, false), ets.SES()}

	sel, err := Select(context.Background(), series, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Evaluated)
	assert.Equal(t, ets.SES(), sel.Model.Spec)
	assert.Error(t, sel.Candidates[0].Err)
	assert.Equal(t, sel.Model.BIC, sel.Score)
}
