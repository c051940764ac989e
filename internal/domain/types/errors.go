package types

import (
	"errors"
	"fmt"
)

var (
	ErrRideNotFound         = errors.New("ride not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotFound             = errors.New("requested item not found")

	// ErrPreconditionFailed - the state machine guard rejected the transition.
	// Expected under concurrent callers, surfaced as a client error.
	ErrPreconditionFailed = errors.New("ride status precondition failed")

	ErrUnauthorized        = errors.New("missing or invalid credentials")
	ErrForbidden           = errors.New("operation not allowed for this identity")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrMalformed           = errors.New("malformed request or event payload")

	ErrNoDriverAvailable = errors.New("no driver available")
)

// TransitionError carries the conflicting status so the client can decide
// whether to retry or refresh. Unwraps to ErrPreconditionFailed.
type TransitionError struct {
	Current RideStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition rejected: ride is %s", e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrPreconditionFailed
}

// CurrentStatus extracts the conflicting status from a precondition error.
func CurrentStatus(err error) (RideStatus, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Current, true
	}
	return "", false
}
