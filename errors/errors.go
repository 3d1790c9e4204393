// Package errors provides error handling for workspaced.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoAdapter) {
//	    // handle missing adapter
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for use across workspaced.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotAccepted indicates the control-plane refused the worker handshake.
	ErrNotAccepted = New("worker not accepted by control-plane")

	// ErrNoAdapter indicates no adapter factory is registered for a URL scheme.
	ErrNoAdapter = New("no adapter registered for scheme")

	// ErrUnknownMode indicates a workspace mode outside the lifecycle vocabulary.
	ErrUnknownMode = New("unknown workspace mode")

	// ErrRetryBudgetExceeded indicates a bounded retry exhausted its time budget.
	ErrRetryBudgetExceeded = New("retry budget exceeded")

	// ErrServiceUnavailable indicates a required service is not reachable.
	ErrServiceUnavailable = New("service unavailable")
)

// IsRetryBudgetExceeded checks if an error is or wraps ErrRetryBudgetExceeded.
func IsRetryBudgetExceeded(err error) bool {
	return err != nil && Is(err, ErrRetryBudgetExceeded)
}

// IsNoAdapter checks if an error is or wraps ErrNoAdapter.
func IsNoAdapter(err error) bool {
	return err != nil && Is(err, ErrNoAdapter)
}
