package ets

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goets/stats"
	"github.com/sartorproj/goets/timeseries"
)

// Model is a fitted exponential smoothing model. It is an immutable snapshot
// of one fit: accessors return copies.
type Model struct {
	Spec    Spec
	Params  Params // Parameters used by the recursion (Phi is 1 when undamped)
	Period  int    // Seasonal period m (1 when non-seasonal)
	Initial State
	Final   State
	Sigma2  float64 // Residual variance, on the innovation scale
	SSE     float64 // Sum of squared innovations
	LogLik  float64
	AIC     float64
	AICc    float64 // Corrected AIC for small sample sizes
	BIC     float64
	NObs    int

	fitted     bool
	engine     *engine
	levels     []float64
	trends     []float64
	seasonals  []float64
	fittedVals []float64
	residuals  []float64
}

// FitOption configures Fit.
type FitOption func(*fitOptions)

type fitOptions struct {
	initial *State
}

// WithInitialState fits from an explicit initial state instead of seeding
// it by decomposition. Season must hold m values, oldest first.
func WithInitialState(st State) FitOption {
	return func(o *fitOptions) {
		c := st.clone()
		o.initial = &c
	}
}

// Fit runs the state recursion of spec over series with the given smoothing
// parameters and returns the fitted model.
//
// Parameters and data are validated before the recursion starts: out-of-range
// parameters yield *InvalidParameterError, non-positive data under a
// multiplicative component yields *NonPositiveValueError and a series shorter
// than max(m+2, 2m) yields *InsufficientHistoryError.
func Fit(series *timeseries.Series, spec Spec, params Params, opts ...FitOption) (*Model, error) {
	var o fitOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	p, err := params.normalize(spec)
	if err != nil {
		return nil, err
	}

	m := 1
	if spec.Seasonal() {
		m = series.SeasonalPeriod()
		if m < 2 {
			return nil, invalid("period", float64(m), "seasonal models need a period of at least 2")
		}
	}

	y := series.Values
	if need := minObservations(m); len(y) < need {
		return nil, &InsufficientHistoryError{Have: len(y), Need: need}
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalid("observation", v, fmt.Sprintf("value at index %d must be finite", i))
		}
	}
	if spec.NeedsPositive() {
		if i := series.FirstNonPositive(); i >= 0 {
			return nil, &NonPositiveValueError{Component: multiplicativeComponent(spec), Index: i, Value: y[i]}
		}
	}

	var init State
	if o.initial != nil {
		if err := checkState(*o.initial, spec, m); err != nil {
			return nil, err
		}
		init = o.initial.clone()
	} else {
		init, err = seedState(y, spec, m)
		if err != nil {
			return nil, err
		}
	}
	if !spec.HasTrend() {
		init.Trend = 0
	}

	eng := newEngine(spec, p, m)
	tr, err := eng.filter(y, init)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Spec:       spec,
		Params:     p,
		Period:     m,
		Initial:    init,
		Final:      tr.final,
		NObs:       len(y),
		fitted:     true,
		engine:     eng,
		levels:     tr.levels,
		trends:     tr.trends,
		seasonals:  tr.seasonals,
		fittedVals: tr.fitted,
		residuals:  tr.residuals,
	}
	model.calculateIC()
	return model, nil
}

func multiplicativeComponent(spec Spec) string {
	switch {
	case spec.Error == MultiplicativeError:
		return "error"
	case spec.MultiplicativeTrend():
		return "trend"
	default:
		return "season"
	}
}

// NumParams returns the number of estimated quantities: free smoothing
// parameters, initial states (m-1 for a normalized season) and the variance.
func (m *Model) NumParams() int {
	k := len(m.Spec.Free()) + 1 + 1
	if m.Spec.HasTrend() {
		k++
	}
	if m.Spec.Seasonal() {
		k += m.Period - 1
	}
	return k
}

// calculateIC computes the Gaussian log-likelihood and AIC, AICc and BIC.
func (m *Model) calculateIC() {
	n := float64(m.NObs)
	m.SSE = floats.Dot(m.residuals, m.residuals)

	k := m.NumParams()
	if m.NObs > k {
		m.Sigma2 = m.SSE / float64(m.NObs-k)
	} else {
		m.Sigma2 = m.SSE / n
	}

	// A perfect fit would send log(sigma2) to -Inf; keep the criteria finite.
	mle := math.Max(m.SSE/n, 1e-300)
	m.LogLik = -0.5 * n * (math.Log(2*math.Pi*mle) + 1)
	if m.Spec.Error == MultiplicativeError {
		for _, f := range m.fittedVals {
			m.LogLik -= math.Log(math.Abs(f))
		}
	}

	kf := float64(k)
	m.AIC = -2*m.LogLik + 2*kf
	if n-kf-1 > 0 {
		m.AICc = m.AIC + 2*kf*(kf+1)/(n-kf-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + kf*math.Log(n)
}

// Residuals returns the one-step innovations: y - yhat for additive errors,
// (y - yhat)/yhat for multiplicative errors.
func (m *Model) Residuals() []float64 { return m.copyOf(m.residuals) }

// FittedValues returns the one-step-ahead forecasts over the training data.
func (m *Model) FittedValues() []float64 { return m.copyOf(m.fittedVals) }

// Levels returns the level state after each observation.
func (m *Model) Levels() []float64 { return m.copyOf(m.levels) }

// Trends returns the trend state after each observation (zeros without trend).
func (m *Model) Trends() []float64 { return m.copyOf(m.trends) }

// Seasonals returns the seasonal state written at each observation, or nil
// for non-seasonal models.
func (m *Model) Seasonals() []float64 {
	if m.seasonals == nil {
		return nil
	}
	return m.copyOf(m.seasonals[m.Period:])
}

func (m *Model) copyOf(src []float64) []float64 {
	if m == nil || !m.fitted || src == nil {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// Summary describes a fitted model.
type Summary struct {
	Spec         string
	Params       Params
	Initial      State
	NObs         int
	Sigma2       float64
	SSE          float64
	LogLik       float64
	AIC          float64
	AICc         float64
	BIC          float64
	ResidualMean float64
	LjungBox     *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model, including a Ljung-Box test
// on the residuals. Returns nil for an unfitted model.
func (m *Model) Summary() *Summary {
	if m == nil || !m.fitted {
		return nil
	}

	lags := min(10, m.NObs/5)
	if m.Spec.Seasonal() {
		lags = min(2*m.Period, m.NObs/5)
	}

	return &Summary{
		Spec:         m.Spec.String(),
		Params:       m.Params,
		Initial:      m.Initial.clone(),
		NObs:         m.NObs,
		Sigma2:       m.Sigma2,
		SSE:          m.SSE,
		LogLik:       m.LogLik,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		ResidualMean: stat.Mean(m.residuals, nil),
		LjungBox:     stats.LjungBox(m.residuals, lags, len(m.Spec.Free())),
	}
}
