// Package stats provides the statistical building blocks behind the ets models.
//
// # Decomposition
//
// Classical decomposition splits a series into trend, seasonal and remainder
// components using a centered moving average. The ets package uses the
// seasonal pattern of the first two cycles to seed Holt-Winters models:
//
//	decomp, err := stats.Decompose(series, 12, stats.Additive)
//	// decomp.Pattern[i%12] is the seasonal effect of observation i
//
// # Residual Diagnostics
//
// Check fitted residuals for leftover autocorrelation:
//
//	lb := stats.LjungBox(model.Residuals(), 10, 2)
//	if lb.WhiteNoise() {
//	    // Residuals look like white noise
//	}
//
//	acf := stats.ACF(model.Residuals(), 20)
//	bound := stats.ConfidenceBound(len(model.Residuals()))
package stats
