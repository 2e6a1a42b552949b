// Package optimize estimates exponential smoothing parameters and specs.
//
// Three searches are provided:
//   - GridSearch sweeps one smoothing parameter over a grid, scoring each
//     value by out-of-sample forecast accuracy on a held-out test span.
//   - Fit estimates all free parameters on a training series by minimizing
//     the in-sample SSE or -2 log-likelihood with Nelder-Mead.
//   - Select runs Fit for every admissible spec and picks the lowest AICc,
//     AIC or BIC.
//
// # Basic Usage
//
//	cfg := optimize.DefaultGridConfig()
//	cfg.Target = ets.Alpha
//	cfg.Range = optimize.DefaultRange(ets.Alpha)
//	cfg.Train = optimize.Span{Start: 0, End: 100}
//	cfg.Test = optimize.Span{Start: 100, End: 120}
//
//	res, err := optimize.GridSearch(ctx, series, ets.SES(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("best alpha %.2f (RMSE %.3f)\n", res.Best, res.BestScore)
//
// All searches evaluate candidates independently and can spread them over
// Workers goroutines. Progress is logged through the zerolog logger carried
// by the context, if any.
package optimize
