// Package goets provides exponential smoothing (ETS) models for time series
// forecasting.
//
// GoETS covers the innovations state space family ETS(Error,Trend,Season):
// additive or multiplicative errors, none/additive/multiplicative trends with
// optional damping, and additive or multiplicative seasonality. It follows the
// methodology from "Forecasting: Principles and Practice".
//
// # Quick Start
//
// Fit Holt's linear method with fixed weights and forecast:
//
//	series := timeseries.New(values)
//	spec, _ := ets.ParseSpec("AAN")
//	model, _ := ets.Fit(series, spec, ets.Params{Alpha: 0.5, Beta: 0.1})
//	fc, _ := model.Forecast(10)
//
// Estimate the weights, or let the information criterion pick the model:
//
//	model, _ := optimize.Fit(ctx, series, spec, optimize.DefaultFitConfig())
//	sel, _ := optimize.Select(ctx, series, optimize.DefaultSelectConfig())
//
// # Packages
//
//   - ets: model specs, state recursion, forecasts and prediction intervals
//   - optimize: grid search, numerical fitting and model selection
//   - accuracy: forecast error measures (RMSE, MAE, MAPE, ME)
//   - stats: autocorrelation, Ljung-Box and decomposition helpers
//   - timeseries: series data structure and CSV loading
//
// The etsforecast command under cmd/ wraps these for CSV files.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Hyndman, R.J., Koehler, A.B., Ord, J.K., & Snyder, R.D. (2008). Forecasting with Exponential Smoothing
package goets
