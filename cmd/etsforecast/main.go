// etsforecast fits exponential smoothing models to a CSV series and
// forecasts it.
//
// Usage:
//
//	etsforecast fit --data sales.csv --model AAdA --period 12 --horizon 24
//	etsforecast sweep --data sales.csv --model ANN --target alpha --holdout 12
//	etsforecast select --data sales.csv --period 12 --criterion aicc --candidate ANA --candidate AAdA
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/sartorproj/goets/accuracy"
	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/optimize"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "etsforecast",
		Usage:   "Exponential smoothing forecasts from CSV data",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"ETS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, yaml)",
			},
		},
		Commands: []*cli.Command{
			fitCommand(),
			sweepCommand(),
			selectCommand(),
			versionCommand(),
		},
	}
}

// dataFlags are shared by every command that reads a series.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Path to the CSV input"},
		&cli.StringFlag{Name: "column", Usage: "Value column name"},
		&cli.IntFlag{Name: "period", Aliases: []string{"m"}, Usage: "Seasonal period"},
		&cli.IntFlag{Name: "holdout", Usage: "Observations held out at the end for scoring"},
	}
}

func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "alpha", Usage: "Fix the level smoothing weight"},
		&cli.Float64Flag{Name: "beta", Usage: "Fix the trend smoothing weight"},
		&cli.Float64Flag{Name: "gamma", Usage: "Fix the seasonal smoothing weight"},
		&cli.Float64Flag{Name: "phi", Usage: "Fix the damping factor"},
	}
}

// setup loads the configuration, applies flag overrides and returns a
// context carrying the logger.
func setup(c *cli.Context) (*Config, context.Context, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	overrideString(c, "log-level", &cfg.LogLevel)
	overrideString(c, "format", &cfg.Format)
	overrideString(c, "data", &cfg.Data.Path)
	overrideString(c, "column", &cfg.Data.Column)
	overrideInt(c, "period", &cfg.Data.Period)
	overrideInt(c, "holdout", &cfg.Holdout)
	overrideString(c, "model", &cfg.Model)
	overrideInt(c, "horizon", &cfg.Horizon)
	overrideFloat(c, "level", &cfg.Level)
	for name, dst := range map[string]**float64{
		"alpha": &cfg.Params.Alpha,
		"beta":  &cfg.Params.Beta,
		"gamma": &cfg.Params.Gamma,
		"phi":   &cfg.Params.Phi,
	} {
		if c.IsSet(name) {
			v := c.Float64(name)
			*dst = &v
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.WithContext(c.Context), nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

func overrideString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

func overrideInt(c *cli.Context, name string, dst *int) {
	if c.IsSet(name) {
		*dst = c.Int(name)
	}
}

func overrideFloat(c *cli.Context, name string, dst *float64) {
	if c.IsSet(name) {
		*dst = c.Float64(name)
	}
}

// =============================================================================
// FIT COMMAND
// =============================================================================

func fitCommand() *cli.Command {
	flags := append(dataFlags(), paramFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "model", Usage: "Model spec, e.g. ETS(A,Ad,N) or AAdN"},
		&cli.IntFlag{Name: "horizon", Usage: "Forecast steps"},
		&cli.Float64Flag{Name: "level", Usage: "Prediction interval coverage"},
	)
	return &cli.Command{
		Name:   "fit",
		Usage:  "Fit a model, estimating any parameter not fixed, and forecast",
		Flags:  flags,
		Action: runFit,
	}
}

func runFit(c *cli.Context) error {
	cfg, ctx, err := setup(c)
	if err != nil {
		return err
	}
	series, err := cfg.loadSeries()
	if err != nil {
		return err
	}
	spec, err := ets.ParseSpec(cfg.Model)
	if err != nil {
		return err
	}
	train, test, err := cfg.split(series)
	if err != nil {
		return err
	}

	fitCfg := cfg.Fit
	fitCfg.Fixed = cfg.Params
	model, err := optimize.Fit(ctx, train, spec, fitCfg)
	if err != nil {
		return fmt.Errorf("fit %s: %w", spec, err)
	}

	horizon := cfg.Horizon
	if test != nil {
		horizon = max(horizon, test.Len())
	}
	fc, err := model.Forecast(horizon,
		ets.WithLevel(cfg.Level),
		ets.WithSeed(cfg.Seed),
		ets.WithSimulations(cfg.Sims),
	)
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	var acc *AccuracyInfo
	if test != nil {
		metrics, err := accuracy.Evaluate(fc.Values()[:test.Len()], test.Values)
		var zerr *accuracy.DivisionByZeroError
		switch {
		case errors.As(err, &zerr):
			zerolog.Ctx(ctx).Warn().Int("index", train.Len()+zerr.Index).Msg("holdout has a zero actual, MAPE not reported")
		case err != nil:
			return fmt.Errorf("score holdout: %w", err)
		}
		acc = accuracyInfo(metrics, err)
	}

	report := fitReport(newHeader("fit", cfg.Data.Path), train, model, fc, acc)
	return render(c.App.Writer, cfg.Format, report)
}

// =============================================================================
// SWEEP COMMAND
// =============================================================================

func sweepCommand() *cli.Command {
	flags := append(dataFlags(), paramFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "model", Usage: "Model spec, e.g. ETS(A,N,N)"},
		&cli.StringFlag{Name: "target", Usage: "Parameter to sweep (alpha, beta, gamma, phi)"},
		&cli.Float64Flag{Name: "min", Usage: "Grid start"},
		&cli.Float64Flag{Name: "max", Usage: "Grid end"},
		&cli.Float64Flag{Name: "step", Usage: "Grid step"},
		&cli.StringFlag{Name: "metric", Usage: "Score (rmse, mae, mape, me)"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Parallel grid evaluations"},
	)
	return &cli.Command{
		Name:   "sweep",
		Usage:  "Sweep one smoothing parameter and score each value on the holdout",
		Flags:  flags,
		Action: runSweep,
	}
}

func runSweep(c *cli.Context) error {
	cfg, ctx, err := setup(c)
	if err != nil {
		return err
	}
	overrideString(c, "target", &cfg.Sweep.Target)
	overrideString(c, "metric", &cfg.Sweep.Metric)
	overrideInt(c, "workers", &cfg.Sweep.Workers)
	if cfg.Sweep.Range.IsZero() {
		cfg.Sweep.Range = optimize.DefaultRange(ets.Name(cfg.Sweep.Target))
	}
	overrideFloat(c, "min", &cfg.Sweep.Range.Min)
	overrideFloat(c, "max", &cfg.Sweep.Range.Max)
	overrideFloat(c, "step", &cfg.Sweep.Range.Step)
	if err := cfg.validate(); err != nil {
		return err
	}

	series, err := cfg.loadSeries()
	if err != nil {
		return err
	}
	spec, err := ets.ParseSpec(cfg.Model)
	if err != nil {
		return err
	}
	if cfg.Holdout < 1 || cfg.Holdout >= series.Len() {
		return fmt.Errorf("sweep needs a holdout between 1 and %d, got %d", series.Len()-1, cfg.Holdout)
	}

	target, err := ets.ParseName(cfg.Sweep.Target)
	if err != nil {
		return err
	}
	metric, err := accuracy.ParseMetric(cfg.Sweep.Metric)
	if err != nil {
		return err
	}

	trainEnd := series.Len() - cfg.Holdout
	grid := optimize.GridConfig{
		Target:  target,
		Range:   cfg.Sweep.Range,
		Base:    baseParams(cfg.Params),
		Train:   optimize.Span{Start: 0, End: trainEnd},
		Test:    optimize.Span{Start: trainEnd, End: series.Len()},
		Metric:  metric,
		Workers: cfg.Sweep.Workers,
	}
	res, err := optimize.GridSearch(ctx, series, spec, grid)
	if err != nil {
		return fmt.Errorf("sweep %s over %s: %w", target, spec, err)
	}

	return render(c.App.Writer, cfg.Format, sweepReport(newHeader("sweep", cfg.Data.Path), spec, res))
}

// baseParams turns fixed values into the base of a sweep; unset ones take
// common starting values.
func baseParams(f optimize.Fixed) ets.Params {
	p := ets.Params{Alpha: 0.3, Beta: 0.1, Gamma: 0.1, Phi: 0.98}
	for _, n := range []ets.Name{ets.Alpha, ets.Beta, ets.Gamma, ets.Phi} {
		if v, ok := f.Get(n); ok {
			p = p.With(n, v)
		}
	}
	return p
}

// =============================================================================
// SELECT COMMAND
// =============================================================================

func selectCommand() *cli.Command {
	flags := append(dataFlags(),
		&cli.StringFlag{Name: "criterion", Usage: "Information criterion (aicc, aic, bic)"},
		&cli.StringSliceFlag{Name: "candidate", Usage: "Candidate spec; repeat to list several (default: all admissible)"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Parallel candidate fits"},
	)
	return &cli.Command{
		Name:   "select",
		Usage:  "Fit every candidate spec and keep the best by information criterion",
		Flags:  flags,
		Action: runSelect,
	}
}

func runSelect(c *cli.Context) error {
	cfg, ctx, err := setup(c)
	if err != nil {
		return err
	}
	overrideString(c, "criterion", &cfg.Select.Criterion)
	overrideInt(c, "workers", &cfg.Select.Workers)
	if err := cfg.validate(); err != nil {
		return err
	}

	series, err := cfg.loadSeries()
	if err != nil {
		return err
	}
	train, _, err := cfg.split(series)
	if err != nil {
		return err
	}

	sel := optimize.SelectConfig{
		Criterion: optimize.Criterion(cfg.Select.Criterion),
		Fit:       cfg.Fit,
		Workers:   cfg.Select.Workers,
	}
	if specs := c.StringSlice("candidate"); len(specs) > 0 {
		sel.Candidates, err = parseSpecs(specs)
		if err != nil {
			return err
		}
	}

	res, err := optimize.Select(ctx, train, sel)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	return render(c.App.Writer, cfg.Format, selectReport(newHeader("select", cfg.Data.Path), res))
}

func parseSpecs(texts []string) ([]ets.Spec, error) {
	specs := make([]ets.Spec, 0, len(texts))
	for _, t := range texts {
		s, err := ets.ParseSpec(t)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "etsforecast %s\n", c.App.Version)
			return nil
		},
	}
}
