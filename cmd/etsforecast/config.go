package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/sartorproj/goets/optimize"
	"github.com/sartorproj/goets/timeseries"
)

// Config is the file and environment configuration of the CLI. Flags given
// on the command line override it.
type Config struct {
	Data     DataConfig         `mapstructure:"data"`
	Model    string             `mapstructure:"model" default:"ETS(A,N,N)" validate:"required"`
	Horizon  int                `mapstructure:"horizon" default:"12" validate:"min=1"`
	Level    float64            `mapstructure:"level" default:"0.95" validate:"gt=0,lt=1"`
	Holdout  int                `mapstructure:"holdout" validate:"min=0"`
	Seed     uint64             `mapstructure:"seed" default:"1"`
	Sims     int                `mapstructure:"simulations" default:"1000" validate:"min=1"`
	Params   optimize.Fixed     `mapstructure:"params"`
	Fit      optimize.FitConfig `mapstructure:"fit"`
	Sweep    SweepConfig        `mapstructure:"sweep"`
	Select   SelectConfig       `mapstructure:"select"`
	LogLevel string             `mapstructure:"log_level" default:"info" validate:"oneof=trace debug info warn error disabled"`
	Format   string             `mapstructure:"format" default:"table" validate:"oneof=table json yaml"`
}

// DataConfig locates the input series.
type DataConfig struct {
	Path       string `mapstructure:"path"`
	Column     string `mapstructure:"column" default:"y"`
	DateColumn string `mapstructure:"date_column" default:"date"`
	DateFormat string `mapstructure:"date_format" default:"2006-01-02"`
	Period     int    `mapstructure:"period" default:"1" validate:"min=1"`
}

// SweepConfig configures the sweep command.
type SweepConfig struct {
	Target  string         `mapstructure:"target" default:"alpha" validate:"oneof=alpha beta gamma phi"`
	Range   optimize.Range `mapstructure:"range"`
	Metric  string         `mapstructure:"metric" default:"rmse" validate:"oneof=rmse mae mape me"`
	Workers int            `mapstructure:"workers" default:"1" validate:"min=1"`
}

// SelectConfig configures the select command.
type SelectConfig struct {
	Criterion string `mapstructure:"criterion" default:"aicc" validate:"oneof=aicc aic bic"`
	Workers   int    `mapstructure:"workers" default:"1" validate:"min=1"`
}

var envKeys = []string{
	"data.path", "data.column", "data.period",
	"model", "horizon", "level", "holdout", "log_level", "format",
}

// LoadConfig starts from the defaults, layers path (if not empty) and ETS_*
// environment variables on top and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	// Defaults go in first: an explicit zero is validated, never replaced.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var configValidator = validator.New()

// validate checks the configuration. Called again after flag overrides.
func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadSeries reads the configured CSV column.
func (c *Config) loadSeries() (*timeseries.Series, error) {
	if c.Data.Path == "" {
		return nil, errors.New("no input: set --data or data.path")
	}
	opts := timeseries.DefaultCSVOptions()
	opts.ValueColumn = c.Data.Column
	opts.DateColumn = c.Data.DateColumn
	opts.DateFormat = c.Data.DateFormat
	opts.Period = c.Data.Period

	series, err := timeseries.LoadCSV(c.Data.Path, opts)
	if err != nil {
		return nil, err
	}
	return series, nil
}

// split separates the holdout from the end of the series.
func (c *Config) split(series *timeseries.Series) (train, test *timeseries.Series, err error) {
	if c.Holdout == 0 {
		return series, nil, nil
	}
	if c.Holdout >= series.Len() {
		return nil, nil, fmt.Errorf("holdout %d leaves no training data in %d observations", c.Holdout, series.Len())
	}
	train, test = series.Split(series.Len() - c.Holdout)
	return train, test, nil
}
