package optimize

import (
	"errors"
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/sartorproj/goets/accuracy"
	"github.com/sartorproj/goets/ets"
)

// ErrNoValidConfiguration is returned when every evaluated configuration
// failed. It wraps the last failure.
var ErrNoValidConfiguration = errors.New("no valid configuration")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// prepare applies default tags and validates cfg, which must be a pointer.
func prepare(cfg any) error {
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("apply config defaults: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Span is the half-open index range [Start, End) of a series.
type Span struct {
	Start int `validate:"gte=0" yaml:"start" mapstructure:"start"`
	End   int `validate:"gtfield=Start" yaml:"end" mapstructure:"end"`
}

// Len returns the number of observations in the span.
func (s Span) Len() int { return s.End - s.Start }

// Range is an inclusive grid of candidate values from Min to Max.
type Range struct {
	Min  float64 `validate:"gte=0,lte=1" yaml:"min" mapstructure:"min"`
	Max  float64 `validate:"gte=0,lte=1" yaml:"max" mapstructure:"max"`
	Step float64 `validate:"gte=0" yaml:"step" mapstructure:"step"`
}

// IsZero reports whether no range was given.
func (r Range) IsZero() bool { return r == Range{} }

// Values expands the range into its grid points, in increasing order.
func (r Range) Values() []float64 {
	if r.Step <= 0 || r.Max < r.Min {
		return nil
	}
	n := int(math.Floor((r.Max-r.Min)/r.Step + 1e-9))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		// Round away accumulated binary drift so 0.1 stays 0.1.
		out = append(out, math.Round((r.Min+float64(i)*r.Step)*1e12)/1e12)
	}
	return out
}

// DefaultRange returns the valid range of a parameter with a 0.01 step. An
// open lower bound starts one step in.
func DefaultRange(name ets.Name) Range {
	lo, hi, openLow := ets.ValidRange(name)
	r := Range{Min: lo, Max: hi, Step: 0.01}
	if openLow {
		r.Min += r.Step
	}
	return r
}

// GridConfig configures GridSearch.
type GridConfig struct {
	// Target is the parameter swept over Range.
	Target ets.Name `default:"alpha" validate:"oneof=alpha beta gamma phi" yaml:"target" mapstructure:"target"`
	// Range defaults to the valid range of Target with a 0.01 step.
	Range Range `yaml:"range" mapstructure:"range"`
	// Base holds the values of every parameter other than Target.
	Base ets.Params `yaml:"base" mapstructure:"base"`
	// Train is the span each grid point is fitted on; Test is scored against
	// the forecast and must not start before Train ends.
	Train   Span            `yaml:"train" mapstructure:"train"`
	Test    Span            `yaml:"test" mapstructure:"test"`
	Metric  accuracy.Metric `default:"rmse" validate:"oneof=rmse mae mape me" yaml:"metric" mapstructure:"metric"`
	Workers int             `default:"1" validate:"min=1,max=256" yaml:"workers" mapstructure:"workers"`
}

// SetDefaults fills in the target's range when none was given.
func (c *GridConfig) SetDefaults() {
	if c.Range.IsZero() && c.Target != "" {
		c.Range = DefaultRange(c.Target)
	}
}

// DefaultGridConfig returns a grid search over alpha with default settings.
// Train and Test must still be set.
func DefaultGridConfig() GridConfig {
	var c GridConfig
	defaults.MustSet(&c)
	return c
}

// Objective is the quantity minimized by Fit.
type Objective string

const (
	// ObjectiveSSE minimizes the sum of squared one-step innovations.
	ObjectiveSSE Objective = "sse"
	// ObjectiveLogLik minimizes -2 times the Gaussian log-likelihood.
	ObjectiveLogLik Objective = "loglik"
)

// Interval bounds one free parameter during Fit.
type Interval struct {
	Lo float64 `validate:"gte=0,lte=1" yaml:"lo" mapstructure:"lo"`
	Hi float64 `validate:"gtfield=Lo,lte=1" yaml:"hi" mapstructure:"hi"`
}

// Bounds holds the search interval of each smoothing parameter.
type Bounds struct {
	Alpha Interval `yaml:"alpha" mapstructure:"alpha"`
	Beta  Interval `yaml:"beta" mapstructure:"beta"`
	Gamma Interval `yaml:"gamma" mapstructure:"gamma"`
	Phi   Interval `yaml:"phi" mapstructure:"phi"`
}

// SetDefaults fills unset intervals: [1e-4, 0.9999] for the smoothing
// weights and [0.8, 0.98] for the damping factor.
func (b *Bounds) SetDefaults() {
	weights := Interval{Lo: 1e-4, Hi: 0.9999}
	for _, iv := range []*Interval{&b.Alpha, &b.Beta, &b.Gamma} {
		if *iv == (Interval{}) {
			*iv = weights
		}
	}
	if b.Phi == (Interval{}) {
		b.Phi = Interval{Lo: 0.8, Hi: 0.98}
	}
}

// Get returns the interval of the named parameter.
func (b Bounds) Get(n ets.Name) Interval {
	switch n {
	case ets.Beta:
		return b.Beta
	case ets.Gamma:
		return b.Gamma
	case ets.Phi:
		return b.Phi
	default:
		return b.Alpha
	}
}

// Fixed pins parameters to a value; nil fields are estimated.
type Fixed struct {
	Alpha *float64 `yaml:"alpha" mapstructure:"alpha"`
	Beta  *float64 `yaml:"beta" mapstructure:"beta"`
	Gamma *float64 `yaml:"gamma" mapstructure:"gamma"`
	Phi   *float64 `yaml:"phi" mapstructure:"phi"`
}

// Get returns the pinned value of the named parameter, if any.
func (f Fixed) Get(n ets.Name) (float64, bool) {
	var v *float64
	switch n {
	case ets.Alpha:
		v = f.Alpha
	case ets.Beta:
		v = f.Beta
	case ets.Gamma:
		v = f.Gamma
	case ets.Phi:
		v = f.Phi
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// FitConfig configures Fit.
type FitConfig struct {
	Objective     Objective `default:"sse" validate:"oneof=sse loglik" yaml:"objective" mapstructure:"objective"`
	Fixed         Fixed     `yaml:"fixed" mapstructure:"fixed"`
	Bounds        Bounds    `yaml:"bounds" mapstructure:"bounds"`
	Starts        int       `default:"4" validate:"min=1,max=64" yaml:"starts" mapstructure:"starts"`
	Workers       int       `default:"1" validate:"min=1,max=256" yaml:"workers" mapstructure:"workers"`
	MaxIterations int       `default:"500" validate:"min=1" yaml:"max_iterations" mapstructure:"max_iterations"`
}

// DefaultFitConfig returns the default training-fit configuration.
func DefaultFitConfig() FitConfig {
	var c FitConfig
	defaults.MustSet(&c)
	return c
}

// Criterion is the information criterion used to rank specs.
type Criterion string

const (
	CriterionAICc Criterion = "aicc"
	CriterionAIC  Criterion = "aic"
	CriterionBIC  Criterion = "bic"
)

// Of returns the criterion value of a fitted model.
func (c Criterion) Of(m *ets.Model) float64 {
	switch c {
	case CriterionAIC:
		return m.AIC
	case CriterionBIC:
		return m.BIC
	default:
		return m.AICc
	}
}

// SelectConfig configures Select.
type SelectConfig struct {
	// Candidates defaults to every spec the series admits.
	Candidates []ets.Spec `yaml:"-" mapstructure:"-"`
	Criterion  Criterion  `default:"aicc" validate:"oneof=aicc aic bic" yaml:"criterion" mapstructure:"criterion"`
	Fit        FitConfig  `yaml:"fit" mapstructure:"fit"`
	Workers    int        `default:"1" validate:"min=1,max=256" yaml:"workers" mapstructure:"workers"`
}

// DefaultSelectConfig returns the default selection configuration.
func DefaultSelectConfig() SelectConfig {
	var c SelectConfig
	defaults.MustSet(&c)
	return c
}

func invalidConfig(name string, value float64, reason string) error {
	return &ets.InvalidParameterError{Name: name, Value: value, Reason: reason}
}
