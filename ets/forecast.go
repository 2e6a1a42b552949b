package ets

// Point is one step of a forecast.
type Point struct {
	Step  int // Steps ahead of the last observation, starting at 1
	Value float64
	Lower float64
	Upper float64
}

// Width returns the width of the prediction interval.
func (p Point) Width() float64 { return p.Upper - p.Lower }

// IntervalMethod names how prediction intervals were derived.
type IntervalMethod string

const (
	IntervalAnalytic   IntervalMethod = "analytic"
	IntervalSimulation IntervalMethod = "simulation"
)

// Forecast holds point forecasts and prediction intervals for h steps.
type Forecast struct {
	Spec   Spec
	Level  float64 // Coverage of the prediction intervals, e.g. 0.95
	Method IntervalMethod
	Points []Point
}

// Horizon returns the number of forecast steps.
func (f *Forecast) Horizon() int { return len(f.Points) }

// Values returns the point forecasts.
func (f *Forecast) Values() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Value
	}
	return out
}

// Lower returns the lower prediction bounds.
func (f *Forecast) Lower() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Lower
	}
	return out
}

// Upper returns the upper prediction bounds.
func (f *Forecast) Upper() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Upper
	}
	return out
}

// Widths returns the prediction interval widths.
func (f *Forecast) Widths() []float64 {
	out := make([]float64, len(f.Points))
	for i, p := range f.Points {
		out[i] = p.Width()
	}
	return out
}

// ForecastOption configures Forecast.
type ForecastOption func(*forecastOptions)

type forecastOptions struct {
	level       float64
	simulations int
	seed        uint64
}

// WithLevel sets the prediction interval coverage (default 0.95).
func WithLevel(level float64) ForecastOption {
	return func(o *forecastOptions) { o.level = level }
}

// WithSimulations sets the number of sample paths used for models without a
// closed-form interval (default 1000).
func WithSimulations(n int) ForecastOption {
	return func(o *forecastOptions) { o.simulations = n }
}

// WithSeed sets the seed of the simulation random source (default 1).
func WithSeed(seed uint64) ForecastOption {
	return func(o *forecastOptions) { o.seed = seed }
}

// Forecast projects the final state h steps ahead.
//
// The point forecast for step k is (L ⊕ k_eff·T) ⊕ S, where k_eff is the damped
// step sum and S is the seasonal state from the last full cycle at position
// (k-1) mod m.
//
// Intervals are exact for additive models and for multiplicative errors on
// additive components; other models are simulated. For damped trends the
// point forecast converges, but the interval keeps widening: each step adds
// a variance increment that tends to σ²α²(1+βφ/(1-φ))², so widths grow like
// the square root of h rather than levelling off.
func (m *Model) Forecast(h int, opts ...ForecastOption) (*Forecast, error) {
	if m == nil || !m.fitted {
		return nil, ErrNotFitted
	}
	o := forecastOptions{level: 0.95, simulations: 1000, seed: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if h < 1 {
		return nil, invalid("horizon", float64(h), "must be at least 1")
	}
	if !(o.level > 0 && o.level < 1) {
		return nil, invalid("level", o.level, "must lie in (0, 1)")
	}
	if o.simulations < 1 {
		return nil, invalid("simulations", float64(o.simulations), "must be at least 1")
	}
	if m.NObs < 2*m.Period {
		return nil, &InsufficientHistoryError{Have: m.NObs, Need: 2 * m.Period}
	}

	means := m.pointForecasts(h)
	f := &Forecast{
		Spec:   m.Spec,
		Level:  o.level,
		Points: make([]Point, h),
	}

	var lower, upper []float64
	switch m.intervalClass() {
	case classAdditive, classMultiplicativeError:
		f.Method = IntervalAnalytic
		lower, upper = m.analyticBounds(means, o.level)
	default:
		f.Method = IntervalSimulation
		lower, upper = m.simulatedBounds(h, o)
	}

	for k := range f.Points {
		f.Points[k] = Point{Step: k + 1, Value: means[k], Lower: lower[k], Upper: upper[k]}
	}
	return f, nil
}

// pointForecasts returns the h point forecasts from the final state.
func (m *Model) pointForecasts(h int) []float64 {
	e := m.engine
	out := make([]float64, h)
	for k := 1; k <= h; k++ {
		base := e.trend.project(m.Final.Level, m.Final.Trend, DampedSteps(m.Params.Phi, k))
		out[k-1] = e.season.apply(base, m.seasonAhead(k))
	}
	return out
}

// seasonAhead returns the seasonal state reused k steps past the data.
func (m *Model) seasonAhead(k int) float64 {
	if m.Final.Season == nil {
		return 0
	}
	return m.Final.Season[(k-1)%m.Period]
}
