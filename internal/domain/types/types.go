package types

import "strings"

type ServiceMode string

// API - the synchronous ride lifecycle surface (passenger/driver/internal endpoints)
// DispatchWorker - consumes ride.requested and matches rides to drivers
// NotifyWorker - consumes the notifications queue and performs delivery
const (
	APIService     ServiceMode = "api"
	DispatchWorker ServiceMode = "dispatch-worker"
	NotifyWorker   ServiceMode = "notify-worker"
)

// RideStatus is the ride state machine enum. Wire and storage form is lowercase.
type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	StatusRequested RideStatus = "requested"
	StatusOffered   RideStatus = "offered"
	StatusAccepted  RideStatus = "accepted"
	StatusCompleted RideStatus = "completed"
	StatusCancelled RideStatus = "cancelled"
)

// Terminal reports whether the status accepts no further transitions.
func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s RideStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusOffered, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Source status sets for each lifecycle verb. Every guarded transition takes
// one of these as its precondition; a ride outside the set is rejected.
var (
	OfferSources    = []RideStatus{StatusRequested}
	AcceptSources   = []RideStatus{StatusOffered}
	RejectSources   = []RideStatus{StatusOffered}
	CompleteSources = []RideStatus{StatusAccepted}
	CancelSources   = []RideStatus{StatusRequested, StatusOffered, StatusAccepted}
)

// Enum для роли пользователя
type Role string

func (r Role) String() string {
	return string(r)
}

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAdmin     Role = "ADMIN"
)

// NormalizeRole maps the spellings the identity service may return onto the
// canonical role enum. The legacy service emits both "PASSAGER" and
// "PASSENGER" for the same role, and "CHAUFFEUR" for drivers; all of them are
// folded here so the rest of the pipeline only ever sees the canonical form.
func NormalizeRole(raw string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PASSENGER", "PASSAGER":
		return RolePassenger, true
	case "DRIVER", "CHAUFFEUR":
		return RoleDriver, true
	case "ADMIN":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// NotificationType mirrors the ride transitions that produce user notifications.
type NotificationType string

func (t NotificationType) String() string {
	return string(t)
}

const (
	NotifyRideRequested NotificationType = "ride_requested"
	NotifyRideOffered   NotificationType = "ride_offered"
	NotifyRideAccepted  NotificationType = "ride_accepted"
	NotifyRideRejected  NotificationType = "ride_rejected"
	NotifyRideCompleted NotificationType = "ride_completed"
	NotifyRideCancelled NotificationType = "ride_cancelled"
)
