package models

import (
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// Ride is the unit of work tracked through the dispatch state machine.
// Mutated exclusively through the guarded transition in the ride store;
// cancellation and completion are states, not deletions.
type Ride struct {
	ID          uuid.UUID        `json:"id"`
	PassengerID int64            `json:"passenger_id"`
	DriverID    *int64           `json:"driver_id,omitempty"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Status      types.RideStatus `json:"status"`

	// Populated only on transition to completed.
	Price *float64 `json:"price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the identity may read this ride.
func (r *Ride) VisibleTo(id *Identity) bool {
	if id == nil {
		return false
	}
	if id.Role == types.RoleAdmin {
		return true
	}
	if r.PassengerID == id.ID {
		return true
	}
	return r.DriverID != nil && *r.DriverID == id.ID
}

// AssignedTo reports whether the ride is currently bound to the given driver.
func (r *Ride) AssignedTo(driverID int64) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}
