package ets

import (
	"fmt"
	"math"
)

// State is the component state of a model at one point in time.
type State struct {
	Level float64
	Trend float64
	// Season holds the last m seasonal states, oldest first, so Season[0] is
	// the state used for the next observation. Nil for non-seasonal models.
	Season []float64
}

func (s State) clone() State {
	c := s
	if s.Season != nil {
		c.Season = make([]float64, len(s.Season))
		copy(c.Season, s.Season)
	}
	return c
}

// engine runs the recursion for one spec and one set of parameters. The trend
// and season rules are chosen once, when the engine is built.
type engine struct {
	spec   Spec
	params Params
	period int
	trend  trendRule
	season seasonRule
}

func newEngine(spec Spec, params Params, period int) *engine {
	if !spec.Seasonal() {
		period = 1
	}
	return &engine{
		spec:   spec,
		params: params,
		period: period,
		trend:  trendRuleFor(spec.Trend),
		season: seasonRuleFor(spec.Season),
	}
}

// step advances the state by one observation y. s is the seasonal state m
// periods back. It returns the one-step forecast made before seeing y and
// the updated level, trend and seasonal states.
func (e *engine) step(level, slope, s, y float64) (yhat, nextLevel, nextSlope, nextS float64) {
	p := e.params
	base := e.trend.project(level, slope, p.Phi)
	yhat = e.season.apply(base, s)
	nextLevel = p.Alpha*e.season.remove(y, s) + (1-p.Alpha)*base
	nextSlope = e.trend.update(p.Beta, p.Phi, nextLevel, level, slope)
	nextS = e.season.update(p.Gamma, y, nextLevel, s)
	return yhat, nextLevel, nextSlope, nextS
}

// innovation returns the residual of y against its one-step forecast in the
// error form of the spec.
func (e *engine) innovation(y, yhat float64) float64 {
	if e.spec.Error == MultiplicativeError {
		return (y - yhat) / yhat
	}
	return y - yhat
}

// trace is the full history of one recursion.
type trace struct {
	levels    []float64
	trends    []float64
	seasonals []float64 // seeds first: seasonals[t] is the state used at step t
	fitted    []float64
	residuals []float64
	final     State
}

// filter runs the recursion over y from the initial state. It is strictly
// sequential: step t reads only the output of step t-1 and the seasonal
// state written m steps earlier.
func (e *engine) filter(y []float64, init State) (*trace, error) {
	n := len(y)
	m := e.period
	tr := &trace{
		levels:    make([]float64, n),
		trends:    make([]float64, n),
		fitted:    make([]float64, n),
		residuals: make([]float64, n),
	}
	if e.spec.Seasonal() {
		tr.seasonals = make([]float64, n+m)
		copy(tr.seasonals, init.Season)
	}

	level, slope := init.Level, init.Trend
	for t, obs := range y {
		s := 0.0
		if tr.seasonals != nil {
			s = tr.seasonals[t]
		}

		yhat, nl, nb, ns := e.step(level, slope, s, obs)
		if err := e.guard(t, yhat, nl, nb, ns); err != nil {
			return nil, err
		}

		tr.fitted[t] = yhat
		tr.residuals[t] = e.innovation(obs, yhat)
		tr.levels[t] = nl
		tr.trends[t] = nb
		if tr.seasonals != nil {
			tr.seasonals[t+m] = ns
		}
		level, slope = nl, nb
	}

	tr.final = State{Level: level, Trend: slope}
	if tr.seasonals != nil {
		tr.final.Season = make([]float64, m)
		copy(tr.final.Season, tr.seasonals[n:])
	}
	return tr, nil
}

// guard rejects states the multiplicative components cannot carry forward.
func (e *engine) guard(t int, yhat, level, slope, s float64) error {
	for _, v := range [...]float64{yhat, level, slope, s} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("step %d: %w", t, ErrUnstable)
		}
	}
	if e.spec.Error == MultiplicativeError && yhat <= 0 {
		return &NonPositiveValueError{Component: "forecast", Index: t, Value: yhat}
	}
	if (e.spec.MultiplicativeTrend() || e.spec.Season == MultiplicativeSeason) && level <= 0 {
		return &NonPositiveValueError{Component: "level", Index: t, Value: level}
	}
	if e.spec.MultiplicativeTrend() && slope <= 0 {
		return &NonPositiveValueError{Component: "trend", Index: t, Value: slope}
	}
	if e.spec.Season == MultiplicativeSeason && s <= 0 {
		return &NonPositiveValueError{Component: "season", Index: t, Value: s}
	}
	return nil
}
