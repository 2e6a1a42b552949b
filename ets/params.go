package ets

import (
	"fmt"
	"math"
)

// Params holds the smoothing parameters of a model.
//
// Only the parameters of the components present in the Spec are read:
// Beta for a trend, Gamma for a season and Phi for a damped trend. An
// undamped trend always uses Phi = 1.
type Params struct {
	Alpha float64 // Level smoothing, in (0, 1]
	Beta  float64 // Trend smoothing, in [0, 1]
	Gamma float64 // Seasonal smoothing, in [0, 1]
	Phi   float64 // Damping, in (0, 1]
}

// Name identifies a single smoothing parameter.
type Name string

const (
	Alpha Name = "alpha"
	Beta  Name = "beta"
	Gamma Name = "gamma"
	Phi   Name = "phi"
)

// ParseName parses a parameter name.
func ParseName(s string) (Name, error) {
	switch n := Name(s); n {
	case Alpha, Beta, Gamma, Phi:
		return n, nil
	}
	return "", fmt.Errorf("unknown smoothing parameter %q", s)
}

// Get returns the value of the named parameter.
func (p Params) Get(n Name) float64 {
	switch n {
	case Beta:
		return p.Beta
	case Gamma:
		return p.Gamma
	case Phi:
		return p.Phi
	default:
		return p.Alpha
	}
}

// With returns a copy of p with the named parameter set to v.
func (p Params) With(n Name, v float64) Params {
	switch n {
	case Alpha:
		p.Alpha = v
	case Beta:
		p.Beta = v
	case Gamma:
		p.Gamma = v
	case Phi:
		p.Phi = v
	}
	return p
}

// ValidRange returns the closed interval a parameter may take and whether the
// lower bound itself is excluded.
func ValidRange(n Name) (lo, hi float64, openLow bool) {
	switch n {
	case Alpha, Phi:
		return 0, 1, true
	default:
		return 0, 1, false
	}
}

// Free lists the parameters the spec actually uses, in canonical order.
func (s Spec) Free() []Name {
	names := []Name{Alpha}
	if s.HasTrend() {
		names = append(names, Beta)
	}
	if s.Seasonal() {
		names = append(names, Gamma)
	}
	if s.Damped() {
		names = append(names, Phi)
	}
	return names
}

// normalize validates p against the spec and returns the parameters the
// recursion will use, with unused components zeroed and Phi pinned to 1 for
// undamped trends.
func (p Params) normalize(spec Spec) (Params, error) {
	out := Params{Alpha: p.Alpha, Phi: 1}
	for _, n := range spec.Free() {
		v := p.Get(n)
		if err := checkRange(n, v); err != nil {
			return Params{}, err
		}
		out = out.With(n, v)
	}
	return out, nil
}

func checkRange(n Name, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(string(n), v, "must be a finite number")
	}
	lo, hi, openLow := ValidRange(n)
	if v > hi || v < lo || (openLow && v == lo) {
		if openLow {
			return invalid(string(n), v, fmt.Sprintf("must lie in (%g, %g]", lo, hi))
		}
		return invalid(string(n), v, fmt.Sprintf("must lie in [%g, %g]", lo, hi))
	}
	return nil
}
