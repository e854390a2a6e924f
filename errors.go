// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnknownStrategy is returned when asking for an enumeration strategy
	// that does not exist.
	ErrUnknownStrategy = errors.New("unknown enumeration strategy")

	// ErrTraceNotFound is returned when the backward search from a violating
	// state dries up before reaching an initial state. This can only happen if
	// the reversed relation is not the converse of the forward one.
	ErrTraceNotFound = errors.New("no path from the initial states to the violating states")

	// ErrNotLocal is returned when a relation is not the identity on the levels
	// above the top level declared for it.
	ErrNotLocal = errors.New("relation is not the identity above its top level")

	// ErrUnsupported is returned by saturation when the descriptor contains a
	// variant that cannot be decomposed into events.
	ErrUnsupported = errors.New("descriptor not supported by this strategy")
)

// Error returns the error status of the table.
func (t *Table) Error() string {
	if t.error == nil {
		return ""
	}
	return t.error.Error()
}

// Errored returns true if there was an error during a computation.
func (t *Table) Errored() bool {
	return t.error != nil
}

// Err returns the first error recorded in the table, with the following ones
// appended to its message, or nil.
func (t *Table) Err() error {
	return t.error
}

func (t *Table) seterror(format string, a ...interface{}) Node {
	if t.error != nil {
		t.error = errors.Wrapf(t.error, format, a...)
		return nil
	}
	t.error = errors.Errorf(format, a...)
	t.log.WithError(t.error).Debug("node table error")
	return nil
}
