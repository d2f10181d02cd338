package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleRequest is returned when a fetch resolves after a newer request superseded it.
	ErrStaleRequest = errors.New("stale request discarded")
	// ErrNotReady is returned by operations that need a drawn chart.
	ErrNotReady = errors.New("chart is not ready")
	// ErrInvalidMode is returned by ParseMode.
	ErrInvalidMode = errors.New("invalid mode")
)

// InvalidTimestampError reports a record whose time is not a numeric UTC timestamp.
type InvalidTimestampError struct {
	Index int
	Value any
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp at index %d: %v (%T): all items must have a numeric \"time\" property", e.Index, e.Value, e.Value)
}

// UnorderedSeriesError reports a series whose times are not strictly increasing.
type UnorderedSeriesError struct {
	Index int
	Prev  int64
	Time  int64
}

func (e *UnorderedSeriesError) Error() string {
	return fmt.Sprintf("series not strictly increasing at index %d: %d after %d", e.Index, e.Time, e.Prev)
}

// UnknownIndexError rejects an index-mode symbol outside the configured list.
type UnknownIndexError struct {
	Symbol  string
	Allowed []string
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("unknown index %s (must be one of %s)", e.Symbol, strings.Join(e.Allowed, ", "))
}

// FetchError is a DataSource failure. Message is shown to the user verbatim.
type FetchError struct {
	DataType   DataType
	ResultType ResultType
	Symbol     string
	Status     int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderError is a drawing-stage failure. It is recovered locally and never
// leaves the session.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
