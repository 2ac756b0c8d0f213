package queue

import "errors"

// Retryable marks err as transient: the queue retries the task until the
// bounded attempt limit, and the failure stays invisible to the job owner
// until the last attempt.
type Retryable struct{ Err error }

func (e *Retryable) Error() string { return e.Err.Error() }
func (e *Retryable) Unwrap() error { return e.Err }

// RetryableErr wraps err as Retryable.
func RetryableErr(err error) error { return &Retryable{Err: err} }

// IsRetryable reports whether err is marked Retryable.
func IsRetryable(err error) bool { return errors.As(err, new(*Retryable)) }

// Terminal marks err as final: the queue must not retry, and the failure is
// user-visible now. Stage executors use it for contract violations and for
// domain failures that retrying cannot fix.
type Terminal struct{ Err error }

func (e *Terminal) Error() string { return e.Err.Error() }
func (e *Terminal) Unwrap() error { return e.Err }

// TerminalErr wraps err as Terminal.
func TerminalErr(err error) error { return &Terminal{Err: err} }

// IsTerminal reports whether err is marked Terminal.
func IsTerminal(err error) bool { return errors.As(err, new(*Terminal)) }
