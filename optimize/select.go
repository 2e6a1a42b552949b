package optimize

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/timeseries"
)

// Candidate is one spec tried by Select.
type Candidate struct {
	Spec  ets.Spec
	Score float64 // information criterion, NaN when Err is set
	Err   error

	model *ets.Model
}

// Selection is the outcome of automatic spec selection.
type Selection struct {
	Model      *ets.Model
	Criterion  Criterion
	Score      float64
	Evaluated  int // candidates fitted successfully
	Candidates []Candidate
}

// Admissible lists the specs series can support: multiplicative components
// need strictly positive data and seasonal specs need a period of at least 2.
func Admissible(series *timeseries.Series) []ets.Spec {
	positive := series.FirstNonPositive() < 0
	seasonal := series.SeasonalPeriod() >= 2

	var specs []ets.Spec
	for _, s := range ets.AllSpecs() {
		if s.NeedsPositive() && !positive {
			continue
		}
		if s.Seasonal() && !seasonal {
			continue
		}
		specs = append(specs, s)
	}
	return specs
}

// Select estimates every candidate spec on series and keeps the one with the
// lowest information criterion. Ties go to the earlier candidate.
func Select(ctx context.Context, series *timeseries.Series, cfg SelectConfig) (*Selection, error) {
	if err := prepare(&cfg); err != nil {
		return nil, err
	}
	specs := cfg.Candidates
	if len(specs) == 0 {
		specs = Admissible(series)
	}

	log := zerolog.Ctx(ctx)
	start := time.Now()

	candidates := make([]Candidate, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := Candidate{Spec: spec, Score: math.NaN()}
			model, err := Fit(gctx, series, spec, cfg.Fit)
			if err != nil {
				c.Err = err
			} else {
				c.Score = cfg.Criterion.Of(model)
				c.model = model
			}
			candidates[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel := &Selection{Criterion: cfg.Criterion, Score: math.Inf(1), Candidates: candidates}
	var lastErr error
	for _, c := range candidates {
		if c.Err != nil {
			lastErr = c.Err
			log.Debug().Err(c.Err).Str("spec", c.Spec.String()).Msg("candidate skipped")
			continue
		}
		sel.Evaluated++
		if c.Score < sel.Score {
			sel.Score = c.Score
			sel.Model = c.model
		}
	}
	if sel.Model == nil {
		return nil, fmt.Errorf("%w: none of %d candidate specs could be fitted: %w",
			ErrNoValidConfiguration, len(candidates), lastErr)
	}

	log.Info().
		Str("spec", sel.Model.Spec.String()).
		Str("criterion", string(cfg.Criterion)).
		Float64("score", sel.Score).
		Int("evaluated", sel.Evaluated).
		Int("candidates", len(candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("model selected")
	return sel, nil
}
