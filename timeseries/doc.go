// Package timeseries provides time series data structures and utilities.
//
// A Series pairs observations with timestamps and carries the seasonal
// period m used by seasonal models (1 for non-seasonal data). Series values
// are never modified in place by this module; derived series are copies.
//
// # Creating a Series
//
//	series := timeseries.New([]float64{100, 102, 105, 103, 108, 110})
//
//	// Quarterly data with yearly seasonality
//	quarterly := timeseries.NewSeasonal(values, 4)
//
// # Loading from CSV
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "Beer"
//	opts.Period = 4
//	series, err := timeseries.LoadCSV("aus_production.csv", opts)
//
// # Train/Test Splits
//
//	train, test := series.Split(series.Len() - 8)
//	window := series.Slice(10, 50)
package timeseries
