// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

// Package errors provides the error type used across the whole
// codebase and helpers to inspect and test such errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the default error type used by flatgen.
// It may wrap other errors, building a chain of context that is
// joined by [Separator] when formatted.
type Error struct {
	// Kind is the kind of error.
	Kind Kind

	// Description of the error.
	Description string

	// Err represents the underlying error.
	Err error
}

// Kind defines the kind of an error.
type Kind string

// Separator used when formatting the error chain.
const Separator = ": "

// E builds an error value from its arguments.
// There must be at least one argument or E panics.
// The type of each argument determines its meaning.
//
// The types are:
//
//	errors.Kind
//		The kind of error.
//	error
//		The underlying error that triggered this one.
//	string
//		Treated as a format string; all remaining arguments are
//		its format values and are not scanned further.
//
// Only fields set to non-zero values appear in the formatted error.
// If the kind is unset it is pulled up from the underlying error,
// and duplicated descriptions are erased so messages never repeat.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E called with no args")
	}

	e := &Error{}
	for i, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.Err = arg
		case string:
			e.Description = fmt.Sprintf(arg, args[i+1:]...)
			return promote(e)
		case nil:
			// ignored so callers can pass optional errors directly.
		default:
			panic(fmt.Errorf("errors.E called with unknown type %T", arg))
		}
	}

	if e.isEmpty() && e.Err == nil {
		panic("errors.E called with only empty values")
	}
	return promote(e)
}

// promote pulls fields up from a wrapped *Error avoiding duplicated
// kinds and descriptions in the formatted chain.
func promote(e *Error) *Error {
	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}
	if e.Kind == "" {
		e.Kind = prev.Kind
		prev.Kind = ""
	} else if prev.Kind == e.Kind {
		prev.Kind = ""
	}
	if prev.Description == e.Description {
		prev.Description = ""
	}
	if prev.isEmpty() {
		e.Err = prev.Err
	}
	return e
}

func (e *Error) isEmpty() bool {
	return e.Kind == "" && e.Description == ""
}

// Error returns the error message.
func (e *Error) Error() string {
	var parts []string
	if e.Kind != "" {
		parts = append(parts, string(e.Kind))
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, Separator)
}

// Unwrap returns the wrapped error, if there is any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind tells if err is of kind k.
// It returns false if err is nil or not an *errors.Error.
// It also recursively checks if any underlying error is of kind k.
func IsKind(err error, k Kind) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Kind != "" {
		return e.Kind == k
	}
	return IsKind(e.Err, k)
}

// Is tells if err matches the target error.
// A *Error matches a *Error target if any error in its chain is of
// the target's kind. Any other combination defers to Go's stdlib
// errors.Is semantics.
func Is(err, target error) bool {
	e, ok := err.(*Error)
	if !ok {
		return errors.Is(err, target)
	}
	t, ok := target.(*Error)
	if !ok {
		if e.Err != nil {
			return Is(e.Err, target)
		}
		return false
	}
	if IsKind(e, t.Kind) {
		return true
	}
	if e.Err != nil {
		return Is(e.Err, t)
	}
	return false
}
