package sync

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so callers can pick severity and messaging
// without parsing strings.
type Kind string

const (
	// KindLoad is a census/table/field load failure; blocks compare.
	KindLoad Kind = "load"
	// KindStaging is an upload or staging-table failure; aborts compare.
	KindStaging Kind = "staging"
	// KindComparison is a compare procedure failure or a missing results
	// table; aborts compare, state returns to tables loaded.
	KindComparison Kind = "comparison"
	// KindApply is an update procedure or post-apply verification failure;
	// the run is marked failed but cleanup and reload still happen.
	KindApply Kind = "apply"
	// KindCleanup is a staging cleanup failure; logged only.
	KindCleanup Kind = "cleanup"
	// KindBusy is a re-entrant call while an operation is in flight.
	KindBusy Kind = "busy"
	// KindTimedOut is a remote call exceeding the configured deadline.
	KindTimedOut Kind = "timed_out"
	// KindConfirmation is an apply attempted past the warning gate without
	// explicit confirmation.
	KindConfirmation Kind = "confirmation_required"
	// KindState is an operation invoked from the wrong run state.
	KindState Kind = "invalid_state"
)

// Error is a classified engine error. No other error type escapes the
// engine's public operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with a kind and message.
func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or an empty kind for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsBusy reports whether err is a rejected re-entrant call.
func IsBusy(err error) bool {
	return KindOf(err) == KindBusy
}

// IsConfirmationRequired reports whether err is the warning gate refusing an
// unconfirmed apply.
func IsConfirmationRequired(err error) bool {
	return KindOf(err) == KindConfirmation
}
