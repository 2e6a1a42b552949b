package ets

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type intervalClass int

const (
	// classAdditive: additive error, no multiplicative components.
	classAdditive intervalClass = iota
	// classMultiplicativeError: multiplicative error, additive components.
	classMultiplicativeError
	// classSimulated: any multiplicative trend or season.
	classSimulated
)

func (m *Model) intervalClass() intervalClass {
	switch {
	case m.Spec.MultiplicativeTrend() || m.Spec.Season == MultiplicativeSeason:
		return classSimulated
	case m.Spec.Error == MultiplicativeError:
		return classMultiplicativeError
	default:
		return classAdditive
	}
}

// innovationWeight returns c_j, the weight with which an innovation feeds
// the forecast j steps later.
func (m *Model) innovationWeight(j int) float64 {
	p := m.Params
	c := p.Alpha
	if m.Spec.HasTrend() {
		c += p.Alpha * p.Beta * DampedSteps(p.Phi, j)
	}
	if m.Spec.Seasonal() && j%m.Period == 0 {
		c += p.Gamma * (1 - p.Alpha)
	}
	return c
}

// forecastVariances returns the h-step forecast variances for the models
// with closed forms.
func (m *Model) forecastVariances(means []float64) []float64 {
	h := len(means)
	v := make([]float64, h)
	c2 := make([]float64, h)
	for j := 1; j < h; j++ {
		w := m.innovationWeight(j)
		c2[j] = w * w
	}
	s2 := m.Sigma2

	if m.intervalClass() == classAdditive {
		acc := 1.0
		for k := 0; k < h; k++ {
			if k > 0 {
				acc += c2[k]
			}
			v[k] = s2 * acc
		}
		return v
	}

	theta := make([]float64, h)
	for k := 0; k < h; k++ {
		mu2 := means[k] * means[k]
		theta[k] = mu2
		for j := 1; j <= k; j++ {
			theta[k] += s2 * c2[j] * theta[k-j]
		}
		v[k] = (1+s2)*theta[k] - mu2
	}
	return v
}

func (m *Model) analyticBounds(means []float64, level float64) (lower, upper []float64) {
	z := distuv.UnitNormal.Quantile(0.5 + level/2)
	vars := m.forecastVariances(means)
	lower = make([]float64, len(means))
	upper = make([]float64, len(means))
	for k, mu := range means {
		half := z * math.Sqrt(math.Max(vars[k], 0))
		lower[k] = mu - half
		upper[k] = mu + half
	}
	return lower, upper
}

// simulatedBounds draws sample paths by feeding Gaussian innovations through
// the recursion and reads the bounds off the empirical quantiles. A path stops
// at the first step whose draw or state leaves the admissible space: a
// non-finite value, or a non-positive value where a multiplicative component
// needs positivity.
func (m *Model) simulatedBounds(h int, o forecastOptions) (lower, upper []float64) {
	e := m.engine
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	sigma := math.Sqrt(m.Sigma2)

	samples := make([][]float64, h)
	for k := range samples {
		samples[k] = make([]float64, 0, o.simulations)
	}

	for path := 0; path < o.simulations; path++ {
		level, slope := m.Final.Level, m.Final.Trend
		season := m.Final.clone().Season
		for k := 0; k < h; k++ {
			idx := k % m.Period
			s := 0.0
			if season != nil {
				s = season[idx]
			}

			mean := e.season.apply(e.trend.project(level, slope, m.Params.Phi), s)
			eps := sigma * rng.NormFloat64()
			y := mean + eps
			if m.Spec.Error == MultiplicativeError {
				y = mean * (1 + eps)
			}

			yhat, nl, nb, ns := e.step(level, slope, s, y)
			if !isFinite(y) || (m.Spec.NeedsPositive() && y <= 0) {
				break
			}
			if e.guard(k, yhat, nl, nb, ns) != nil {
				break
			}
			samples[k] = append(samples[k], y)
			level, slope = nl, nb
			if season != nil {
				season[idx] = ns
			}
		}
	}

	tail := (1 - o.level) / 2
	lower = make([]float64, h)
	upper = make([]float64, h)
	for k, xs := range samples {
		if len(xs) == 0 {
			lower[k], upper[k] = math.NaN(), math.NaN()
			continue
		}
		sort.Float64s(xs)
		lower[k] = stat.Quantile(tail, stat.Empirical, xs, nil)
		upper[k] = stat.Quantile(1-tail, stat.Empirical, xs, nil)
	}
	return lower, upper
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
