// Copyright 2025 Terramate GmbH
// SPDX-License-Identifier: MPL-2.0

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// List represents a list of error instances that also implements
// Go's error interface.
type List struct {
	errs []error
}

// L builds a List instance with all errs provided as arguments.
// Any nil errors on errs will be discarded.
func L(errs ...error) *List {
	l := &List{}
	for _, err := range errs {
		l.Append(err)
	}
	return l
}

// Append appends a new error on the error list.
// If the error is nil it will not be added on the error list.
// If the error is of type [List] its contents are flattened in.
func (l *List) Append(err error) {
	if err == nil {
		return
	}
	if other, ok := err.(*List); ok {
		l.errs = append(l.errs, other.errs...)
		return
	}
	l.errs = append(l.errs, err)
}

// AsError returns an error if the error list is non-empty.
// If the list is empty it will return nil.
func (l *List) AsError() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}

// Error returns the string representation of the error list.
// Only the first error message is returned, all other errors are
// elided. For a full representation of all errors use [List.Detailed].
func (l *List) Error() string {
	if len(l.errs) == 0 {
		return ""
	}
	errmsg := l.errs[0].Error()
	if len(l.errs) == 1 {
		return errmsg
	}
	return fmt.Sprintf("%s (and %d elided errors)", errmsg, len(l.errs)-1)
}

// Errors returns all errors contained on the list that are of the
// type Error or that have an Error wrapped inside them.
func (l *List) Errors() []*Error {
	var errs []*Error
	for _, err := range l.errs {
		var e *Error
		if errors.As(err, &e) {
			errs = append(errs, e)
		}
	}
	return errs
}

// Detailed returns a detailed string representation of the error
// list, one error per line.
func (l *List) Detailed() string {
	if len(l.errs) == 0 {
		return ""
	}
	details := []string{"error list:"}
	for _, err := range l.errs {
		details = append(details, "\t-"+err.Error())
	}
	return strings.Join(details, "\n")
}

// Is tells if the error list matches the target error, which is true
// if any of the errors on the list matches it.
func (l *List) Is(target error) bool {
	for _, err := range l.errs {
		if Is(err, target) {
			return true
		}
	}
	return false
}
