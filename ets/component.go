package ets

import "math"

// trendRule holds the trend-specific pieces of the recursion.
type trendRule struct {
	// project carries a level forward by reach steps of trend, where reach is
	// the damped step sum phi + phi^2 + ... (or plain k when undamped).
	project func(level, slope, reach float64) float64
	// update returns the next trend state.
	update func(beta, phi, level, prevLevel, prevSlope float64) float64
}

// seasonRule holds the season-specific pieces of the recursion.
type seasonRule struct {
	// apply combines a trend-adjusted level with a seasonal state.
	apply func(base, s float64) float64
	// remove takes the seasonal effect out of an observation.
	remove func(y, s float64) float64
	// update returns the next seasonal state.
	update func(gamma, y, level, prevS float64) float64
}

var (
	flatTrend = trendRule{
		project: func(level, _, _ float64) float64 { return level },
		update:  func(_, _, _, _, _ float64) float64 { return 0 },
	}

	linearTrend = trendRule{
		project: func(level, slope, reach float64) float64 {
			return level + reach*slope
		},
		update: func(beta, phi, level, prevLevel, prevSlope float64) float64 {
			return beta*(level-prevLevel) + (1-beta)*phi*prevSlope
		},
	}

	ratioTrend = trendRule{
		project: func(level, slope, reach float64) float64 {
			return level * math.Pow(slope, reach)
		},
		update: func(beta, phi, level, prevLevel, prevSlope float64) float64 {
			return beta*(level/prevLevel) + (1-beta)*math.Pow(prevSlope, phi)
		},
	}
)

var (
	noSeason = seasonRule{
		apply:  func(base, _ float64) float64 { return base },
		remove: func(y, _ float64) float64 { return y },
		update: func(_, _, _, prevS float64) float64 { return prevS },
	}

	additiveSeason = seasonRule{
		apply:  func(base, s float64) float64 { return base + s },
		remove: func(y, s float64) float64 { return y - s },
		update: func(gamma, y, level, prevS float64) float64 {
			return gamma*(y-level) + (1-gamma)*prevS
		},
	}

	multiplicativeSeason = seasonRule{
		apply:  func(base, s float64) float64 { return base * s },
		remove: func(y, s float64) float64 { return y / s },
		update: func(gamma, y, level, prevS float64) float64 {
			return gamma*(y/level) + (1-gamma)*prevS
		},
	}
)

func trendRuleFor(t TrendType) trendRule {
	switch t {
	case AdditiveTrend, DampedAdditiveTrend:
		return linearTrend
	case MultiplicativeTrend, DampedMultiplicativeTrend:
		return ratioTrend
	default:
		return flatTrend
	}
}

func seasonRuleFor(s SeasonType) seasonRule {
	switch s {
	case AdditiveSeason:
		return additiveSeason
	case MultiplicativeSeason:
		return multiplicativeSeason
	default:
		return noSeason
	}
}

// DampedSteps returns phi + phi^2 + ... + phi^k, the effective number of
// trend steps a damped forecast travels after k periods. It equals k when
// phi is 1 and approaches phi/(1-phi) as k grows when phi < 1.
func DampedSteps(phi float64, k int) float64 {
	if k <= 0 {
		return 0
	}
	if phi == 1 {
		return float64(k)
	}
	return phi * (1 - math.Pow(phi, float64(k))) / (1 - phi)
}
