// Package model holds the sentinel errors shared by the archive packages.
// Every one of them is fatal for a run: callers wrap and propagate, never
// recover.
package model

import "errors"

var (
	// ErrConsistency marks a data-integrity violation, e.g. a message routed
	// to a dialog it does not belong to.
	ErrConsistency = errors.New("consistency error")
	// ErrUnsupportedAction is returned when a service action kind is outside
	// the known set.
	ErrUnsupportedAction = errors.New("unsupported action type")
	// ErrMalformedRecord is returned when a raw record lacks a field the
	// archive cannot work without.
	ErrMalformedRecord = errors.New("malformed record")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrNotDirectory    = errors.New("not a directory")
	ErrConfig          = errors.New("configuration error")
)
