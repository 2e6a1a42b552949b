package optimize

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gonumopt "gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/timeseries"
)

// penalty is the objective value of parameters the recursion rejects.
const penalty = 1e100

// problem maps an unconstrained vector onto the free parameters of a spec.
type problem struct {
	series    *timeseries.Series
	spec      ets.Spec
	objective Objective
	base      ets.Params
	free      []ets.Name
	bounds    []Interval
}

func newProblem(series *timeseries.Series, spec ets.Spec, cfg FitConfig) *problem {
	pr := &problem{series: series, spec: spec, objective: cfg.Objective, base: ets.Params{Phi: 1}}
	for _, n := range spec.Free() {
		if v, ok := cfg.Fixed.Get(n); ok {
			pr.base = pr.base.With(n, v)
			continue
		}
		pr.free = append(pr.free, n)
		pr.bounds = append(pr.bounds, cfg.Bounds.Get(n))
	}
	return pr
}

// params decodes x through a logistic map onto each parameter's interval.
func (pr *problem) params(x []float64) ets.Params {
	p := pr.base
	for i, n := range pr.free {
		b := pr.bounds[i]
		p = p.With(n, b.Lo+(b.Hi-b.Lo)/(1+math.Exp(-x[i])))
	}
	return p
}

// encode is the inverse of params for a value strictly inside its interval.
func encode(v float64, b Interval) float64 {
	u := (v - b.Lo) / (b.Hi - b.Lo)
	u = math.Min(math.Max(u, 1e-6), 1-1e-6)
	return math.Log(u / (1 - u))
}

func (pr *problem) loss(model *ets.Model) float64 {
	if pr.objective == ObjectiveLogLik {
		return -2 * model.LogLik
	}
	return model.SSE
}

func (pr *problem) eval(x []float64) float64 {
	model, err := ets.Fit(pr.series, pr.spec, pr.params(x))
	if err != nil {
		return penalty
	}
	v := pr.loss(model)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return penalty
	}
	return v
}

// starts returns deterministic start points spread over the bounds. Start 0
// is the interval midpoints; later starts stagger each dimension differently.
func (pr *problem) starts(count int) [][]float64 {
	out := make([][]float64, count)
	for s := range out {
		x := make([]float64, len(pr.free))
		for d, b := range pr.bounds {
			frac := 0.5
			if s > 0 {
				frac = (float64((s+d)%count) + 0.5) / float64(count)
			}
			x[d] = encode(b.Lo+frac*(b.Hi-b.Lo), b)
		}
		out[s] = x
	}
	return out
}

type startResult struct {
	x    []float64
	loss float64
	err  error
}

// Fit estimates the free smoothing parameters of spec on series by
// minimizing the configured objective with Nelder-Mead, then returns the
// model refitted at the optimum. Callers pass the training span only.
func Fit(ctx context.Context, series *timeseries.Series, spec ets.Spec, cfg FitConfig) (*ets.Model, error) {
	if err := prepare(&cfg); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)
	pr := newProblem(series, spec, cfg)
	if len(pr.free) == 0 {
		return ets.Fit(series, spec, pr.base)
	}

	points := pr.starts(cfg.Starts)
	results := make([]startResult, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, x0 := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = pr.minimize(x0, cfg.MaxIterations)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := -1
	var lastErr error
	for i, r := range results {
		if r.err != nil {
			lastErr = r.err
			log.Debug().Err(r.err).Int("start", i).Str("spec", spec.String()).Msg("start point failed")
			continue
		}
		if best < 0 || r.loss < results[best].loss {
			best = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("fit %s: %w: %w", spec, ErrNoValidConfiguration, lastErr)
	}
	if results[best].loss >= penalty {
		// Every start stayed in rejected territory; surface the real error.
		_, err := ets.Fit(series, spec, pr.params(results[best].x))
		return nil, fmt.Errorf("fit %s: %w: %w", spec, ErrNoValidConfiguration, err)
	}

	model, err := ets.Fit(series, spec, pr.params(results[best].x))
	if err != nil {
		return nil, fmt.Errorf("refit %s: %w", spec, err)
	}
	log.Debug().
		Str("spec", spec.String()).
		Float64("alpha", model.Params.Alpha).
		Float64("beta", model.Params.Beta).
		Float64("gamma", model.Params.Gamma).
		Float64("phi", model.Params.Phi).
		Float64("loss", results[best].loss).
		Msg("parameters estimated")
	return model, nil
}

func (pr *problem) minimize(x0 []float64, maxIter int) startResult {
	p := gonumopt.Problem{Func: pr.eval}
	settings := &gonumopt.Settings{
		MajorIterations: maxIter,
		Converger: &gonumopt.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 50,
		},
	}

	res, err := gonumopt.Minimize(p, x0, settings, &gonumopt.NelderMead{SimplexSize: 0.5})
	if res == nil {
		if err == nil {
			err = errors.New("minimizer returned no result")
		}
		return startResult{err: err}
	}
	// Hitting the iteration limit still leaves a usable best point.
	return startResult{x: res.X, loss: res.F}
}
