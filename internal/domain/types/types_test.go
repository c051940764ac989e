package types

import (
	"errors"
	"testing"
)

func TestRideStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   RideStatus
		terminal bool
	}{
		{StatusRequested, false},
		{StatusOffered, false},
		{StatusAccepted, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
	}

	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestRideStatus_Valid(t *testing.T) {
	for _, s := range []RideStatus{StatusRequested, StatusOffered, StatusAccepted, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []RideStatus{"", "REQUESTED", "driving", "done"} {
		if s.Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"PASSENGER", RolePassenger, true},
		{"PASSAGER", RolePassenger, true},
		{"passager", RolePassenger, true},
		{" passenger ", RolePassenger, true},
		{"DRIVER", RoleDriver, true},
		{"CHAUFFEUR", RoleDriver, true},
		{"chauffeur", RoleDriver, true},
		{"ADMIN", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{"", "", false},
		{"rider", "", false},
	}

	for _, tc := range tests {
		got, ok := NormalizeRole(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeRole(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTransitionError_UnwrapsToPreconditionFailed(t *testing.T) {
	err := &TransitionError{Current: StatusCompleted}

	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("TransitionError must unwrap to ErrPreconditionFailed")
	}

	current, ok := CurrentStatus(err)
	if !ok {
		t.Fatalf("CurrentStatus should find the transition error")
	}
	if current != StatusCompleted {
		t.Errorf("current = %s, want %s", current, StatusCompleted)
	}
}

func TestCurrentStatus_PlainError(t *testing.T) {
	if _, ok := CurrentStatus(errors.New("boom")); ok {
		t.Fatalf("plain errors must not report a current status")
	}
}
