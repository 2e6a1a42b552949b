package ets

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when forecasting from a model that was never fitted.
var ErrNotFitted = errors.New("model must be fitted before forecasting")

// ErrUnstable is returned when the recursion produces a non-finite state.
var ErrUnstable = errors.New("recursion produced a non-finite state")

// InvalidParameterError reports a smoothing parameter or option outside its
// valid range. It is returned before any recursion starts.
type InvalidParameterError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s = %g: %s", e.Name, e.Value, e.Reason)
}

// NonPositiveValueError reports a multiplicative component meeting data or
// state that is not strictly positive.
type NonPositiveValueError struct {
	Component string // "error", "trend", "season", "level"
	Index     int    // observation index, or -1 for state outside the data
	Value     float64
}

func (e *NonPositiveValueError) Error() string {
	return fmt.Sprintf("multiplicative %s needs positive values: got %g at index %d",
		e.Component, e.Value, e.Index)
}

// InsufficientHistoryError reports a series too short for the requested model.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d observations, need at least %d", e.Have, e.Need)
}

func invalid(name string, value float64, reason string) error {
	return &InvalidParameterError{Name: name, Value: value, Reason: reason}
}
