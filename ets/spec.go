package ets

import (
	"fmt"
	"strings"
)

// ErrorType is the innovation form of the model.
type ErrorType int

const (
	AdditiveError ErrorType = iota
	MultiplicativeError
)

// TrendType is the trend component of the model.
type TrendType int

const (
	NoTrend TrendType = iota
	AdditiveTrend
	DampedAdditiveTrend
	MultiplicativeTrend
	DampedMultiplicativeTrend
)

// SeasonType is the seasonal component of the model.
type SeasonType int

const (
	NoSeason SeasonType = iota
	AdditiveSeason
	MultiplicativeSeason
)

// Spec selects one exponential smoothing model out of the
// error x trend x season family.
type Spec struct {
	Error  ErrorType
	Trend  TrendType
	Season SeasonType
}

// SES returns the simple exponential smoothing spec, ETS(A,N,N).
func SES() Spec {
	return Spec{Error: AdditiveError, Trend: NoTrend, Season: NoSeason}
}

// Holt returns Holt's linear trend spec, optionally damped.
func Holt(damped bool) Spec {
	s := Spec{Error: AdditiveError, Trend: AdditiveTrend}
	if damped {
		s.Trend = DampedAdditiveTrend
	}
	return s
}

// HoltWinters returns the additive-trend Holt-Winters spec with the given
// seasonal form, optionally damped. Multiplicative seasonality pairs with
// multiplicative errors.
func HoltWinters(season SeasonType, damped bool) Spec {
	s := Holt(damped)
	s.Season = season
	if season == MultiplicativeSeason {
		s.Error = MultiplicativeError
	}
	return s
}

// HasTrend reports whether the spec carries a trend component.
func (s Spec) HasTrend() bool { return s.Trend != NoTrend }

// Damped reports whether the trend is damped.
func (s Spec) Damped() bool {
	return s.Trend == DampedAdditiveTrend || s.Trend == DampedMultiplicativeTrend
}

// Seasonal reports whether the spec carries a seasonal component.
func (s Spec) Seasonal() bool { return s.Season != NoSeason }

// MultiplicativeTrend reports whether the trend uses the ratio form.
func (s Spec) MultiplicativeTrend() bool {
	return s.Trend == MultiplicativeTrend || s.Trend == DampedMultiplicativeTrend
}

// NeedsPositive reports whether any component is multiplicative, in which
// case the data must be strictly positive.
func (s Spec) NeedsPositive() bool {
	return s.Error == MultiplicativeError || s.MultiplicativeTrend() || s.Season == MultiplicativeSeason
}

// Validate checks that every component holds a known value.
func (s Spec) Validate() error {
	if s.Error < AdditiveError || s.Error > MultiplicativeError {
		return invalid("error type", float64(s.Error), "unknown error type")
	}
	if s.Trend < NoTrend || s.Trend > DampedMultiplicativeTrend {
		return invalid("trend type", float64(s.Trend), "unknown trend type")
	}
	if s.Season < NoSeason || s.Season > MultiplicativeSeason {
		return invalid("season type", float64(s.Season), "unknown season type")
	}
	return nil
}

// String renders the spec in ETS(error,trend,season) notation, e.g. ETS(M,Ad,M).
func (s Spec) String() string {
	return fmt.Sprintf("ETS(%s,%s,%s)", s.errorCode(), s.trendCode(), s.seasonCode())
}

func (s Spec) errorCode() string {
	if s.Error == MultiplicativeError {
		return "M"
	}
	return "A"
}

func (s Spec) trendCode() string {
	switch s.Trend {
	case AdditiveTrend:
		return "A"
	case DampedAdditiveTrend:
		return "Ad"
	case MultiplicativeTrend:
		return "M"
	case DampedMultiplicativeTrend:
		return "Md"
	default:
		return "N"
	}
}

func (s Spec) seasonCode() string {
	switch s.Season {
	case AdditiveSeason:
		return "A"
	case MultiplicativeSeason:
		return "M"
	default:
		return "N"
	}
}

// ParseSpec parses a spec from ETS notation. It accepts "ETS(A,Ad,M)",
// "A,Ad,M" and the compact "AAdM" forms, case-insensitively.
func ParseSpec(text string) (Spec, error) {
	code := strings.ToUpper(strings.TrimSpace(text))
	code = strings.TrimPrefix(code, "ETS")
	code = strings.NewReplacer("(", "", ")", "", ",", "", " ", "").Replace(code)

	var s Spec
	fail := fmt.Errorf("unrecognized model spec %q", text)
	if code == "" {
		return s, fail
	}

	switch code[0] {
	case 'A':
		s.Error = AdditiveError
	case 'M':
		s.Error = MultiplicativeError
	default:
		return s, fail
	}
	code = code[1:]

	if code == "" {
		return s, fail
	}
	switch {
	case strings.HasPrefix(code, "AD"):
		s.Trend, code = DampedAdditiveTrend, code[2:]
	case strings.HasPrefix(code, "MD"):
		s.Trend, code = DampedMultiplicativeTrend, code[2:]
	case code[0] == 'A':
		s.Trend, code = AdditiveTrend, code[1:]
	case code[0] == 'M':
		s.Trend, code = MultiplicativeTrend, code[1:]
	case code[0] == 'N':
		s.Trend, code = NoTrend, code[1:]
	default:
		return s, fail
	}

	switch code {
	case "N":
		s.Season = NoSeason
	case "A":
		s.Season = AdditiveSeason
	case "M":
		s.Season = MultiplicativeSeason
	default:
		return s, fail
	}
	return s, nil
}

// AllSpecs enumerates every spec in the family, additive errors first.
func AllSpecs() []Spec {
	var specs []Spec
	for e := AdditiveError; e <= MultiplicativeError; e++ {
		for t := NoTrend; t <= DampedMultiplicativeTrend; t++ {
			for s := NoSeason; s <= MultiplicativeSeason; s++ {
				specs = append(specs, Spec{Error: e, Trend: t, Season: s})
			}
		}
	}
	return specs
}
