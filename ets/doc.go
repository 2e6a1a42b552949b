// Package ets implements exponential smoothing (ETS) state space models.
//
// A model is selected by a Spec that combines:
//   - Error: additive (A) or multiplicative (M) innovations
//   - Trend: none (N), additive (A), damped additive (Ad), multiplicative (M)
//     or damped multiplicative (Md)
//   - Season: none (N), additive (A) or multiplicative (M)
//
// Simple exponential smoothing is ETS(A,N,N), Holt's linear method is
// ETS(A,A,N) and additive Holt-Winters is ETS(A,A,A).
//
// # Basic Usage
//
// Fit a model with known smoothing parameters and forecast:
//
//	series := timeseries.NewSeasonal(values, 12)
//	spec := ets.HoltWinters(ets.AdditiveSeason, false)
//
//	model, err := ets.Fit(series, spec, ets.Params{Alpha: 0.3, Beta: 0.1, Gamma: 0.2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fc, _ := model.Forecast(12, ets.WithLevel(0.9))
//	for _, p := range fc.Points {
//	    fmt.Printf("%d: %.2f [%.2f, %.2f]\n", p.Step, p.Value, p.Lower, p.Upper)
//	}
//
// # Prediction Intervals
//
// Models without multiplicative trend or season have closed-form forecast
// variances. The rest are simulated from the fitted recursion; pass WithSeed
// for reproducible bounds.
//
// # Initial State
//
// Non-seasonal models seed level and trend from the first two observations.
// Seasonal models seed from a classical decomposition of the first two
// cycles. WithInitialState overrides both.
//
// To estimate the smoothing parameters themselves, use the optimize package.
package ets
