package optimize

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goets/accuracy"
	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/timeseries"
)

// GridPoint is one evaluated value of the swept parameter.
type GridPoint struct {
	Value float64
	Score float64 // NaN when Err is set
	Err   error

	model *ets.Model
}

// Valid reports whether the point was fitted and scored.
func (p GridPoint) Valid() bool { return p.Err == nil }

// GridResult holds the outcome of a grid search.
type GridResult struct {
	Target    ets.Name
	Metric    accuracy.Metric
	Best      float64
	BestScore float64
	// Model is fitted on the train span with the best value.
	Model     *ets.Model
	Curve     []GridPoint
	Evaluated int // number of valid points
}

// GridSearch sweeps one smoothing parameter across a grid. At every point it
// fits spec on the train span, forecasts through the end of the test span and
// scores the forecast against the test observations. The best point has the
// lowest score (lowest |ME| for the mean error); ties go to the lowest value.
//
// Failed points are recorded in the curve and skipped. If none succeeds the
// error wraps ErrNoValidConfiguration.
func GridSearch(ctx context.Context, series *timeseries.Series, spec ets.Spec, cfg GridConfig) (*GridResult, error) {
	if err := prepare(&cfg); err != nil {
		return nil, err
	}
	if err := checkGrid(series, spec, cfg); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)
	start := time.Now()

	values := cfg.Range.Values()
	train := series.Slice(cfg.Train.Start, cfg.Train.End)
	actual := series.Values[cfg.Test.Start:cfg.Test.End]
	horizon := cfg.Test.End - cfg.Train.End

	curve := make([]GridPoint, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, v := range values {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			curve[i] = evaluatePoint(train, spec, cfg, v, horizon, actual)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &GridResult{
		Target:    cfg.Target,
		Metric:    cfg.Metric,
		BestScore: math.Inf(1),
		Curve:     curve,
	}
	var lastErr error
	for _, p := range curve {
		if !p.Valid() {
			lastErr = p.Err
			log.Debug().Err(p.Err).Float64(string(cfg.Target), p.Value).Msg("grid point rejected")
			continue
		}
		result.Evaluated++
		if rank(cfg.Metric, p.Score) < rank(cfg.Metric, result.BestScore) {
			result.Best = p.Value
			result.BestScore = p.Score
			result.Model = p.model
		}
	}
	if result.Model == nil {
		return nil, fmt.Errorf("%w: all %d grid points failed: %w", ErrNoValidConfiguration, len(curve), lastErr)
	}

	log.Info().
		Str("spec", spec.String()).
		Str("target", string(cfg.Target)).
		Float64("best", result.Best).
		Float64("score", result.BestScore).
		Int("evaluated", result.Evaluated).
		Int("points", len(curve)).
		Dur("elapsed", time.Since(start)).
		Msg("grid search finished")
	return result, nil
}

func checkGrid(series *timeseries.Series, spec ets.Spec, cfg GridConfig) error {
	if !slices.Contains(spec.Free(), cfg.Target) {
		return &ets.InvalidParameterError{
			Name:   "target",
			Value:  math.NaN(),
			Reason: fmt.Sprintf("%s is not a parameter of %s", cfg.Target, spec),
		}
	}
	if cfg.Range.Step <= 0 {
		return invalidConfig("range step", cfg.Range.Step, "must be positive")
	}
	if cfg.Range.Max < cfg.Range.Min {
		return invalidConfig("range max", cfg.Range.Max, fmt.Sprintf("must not be below min %g", cfg.Range.Min))
	}
	if cfg.Test.Start < cfg.Train.End {
		return invalidConfig("test start", float64(cfg.Test.Start),
			fmt.Sprintf("test span must start at or after the train span end %d", cfg.Train.End))
	}
	if n := series.Len(); cfg.Test.End > n {
		return invalidConfig("test end", float64(cfg.Test.End), fmt.Sprintf("series has only %d observations", n))
	}
	return nil
}

// evaluatePoint fits and scores a single grid value. The model only ever sees
// the train slice.
func evaluatePoint(train *timeseries.Series, spec ets.Spec, cfg GridConfig, v float64, horizon int, actual []float64) GridPoint {
	p := GridPoint{Value: v, Score: math.NaN()}

	model, err := ets.Fit(train, spec, cfg.Base.With(cfg.Target, v))
	if err != nil {
		p.Err = err
		return p
	}
	fc, err := model.Forecast(horizon)
	if err != nil {
		p.Err = err
		return p
	}
	// A gap between the spans is forecast through but not scored.
	predicted := fc.Values()[horizon-len(actual):]
	score, err := accuracy.Score(cfg.Metric, predicted, actual)
	if err != nil {
		p.Err = err
		return p
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		p.Err = fmt.Errorf("%s is not finite", cfg.Metric)
		return p
	}

	p.Score = score
	p.model = model
	return p
}

// rank maps a score onto the scale being minimized.
func rank(metric accuracy.Metric, score float64) float64 {
	if metric == accuracy.MetricME {
		return math.Abs(score)
	}
	return score
}
