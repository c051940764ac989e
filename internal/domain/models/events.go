package models

import (
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

/* ======================= rabbitmq wire contract =======================

Queue names double as event kinds. Field names and scalar types below are
the wire contract; independent worker implementations must parse and
produce them identically. Payloads are validated at the channel boundary
before dispatch, never inside handlers. */

const (
	QueueRideRequested = "ride.requested"
	QueueRideOffer     = "ride.offer"
	QueueRideAccepted  = "ride.accepted"
	QueueRideCompleted = "ride.completed"
	QueueRideCancelled = "ride.cancelled"
	QueueNotifications = "notifications"

	// Dead-letter target for ride.requested messages past the retry cap.
	QueueRideRequestedDLQ = "ride.requested.dlq"
)

type RideRequestedMessage struct {
	RideID      uuid.UUID `json:"ride_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	PassengerID int64     `json:"passenger_id"`
}

func (m RideRequestedMessage) Validate() error {
	if m.RideID.IsZero() {
		return fmt.Errorf("%w: ride_id is required", types.ErrMalformed)
	}
	if m.Origin == "" || m.Destination == "" {
		return fmt.Errorf("%w: origin and destination are required", types.ErrMalformed)
	}
	if m.PassengerID == 0 {
		return fmt.Errorf("%w: passenger_id is required", types.ErrMalformed)
	}
	return nil
}

type RideOfferMessage struct {
	RideID      uuid.UUID `json:"ride_id"`
	DriverID    int64     `json:"driver_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	PassengerID int64     `json:"passenger_id"`
}

func (m RideOfferMessage) Validate() error {
	if m.RideID.IsZero() {
		return fmt.Errorf("%w: ride_id is required", types.ErrMalformed)
	}
	if m.DriverID == 0 {
		return fmt.Errorf("%w: driver_id is required", types.ErrMalformed)
	}
	return nil
}

type RideAcceptedMessage struct {
	RideID   uuid.UUID `json:"ride_id"`
	DriverID int64     `json:"driver_id"`
}

type RideCompletedMessage struct {
	RideID uuid.UUID `json:"ride_id"`
	Price  float64   `json:"price"`
}

type RideCancelledMessage struct {
	RideID uuid.UUID `json:"ride_id"`
}

type NotificationMessage struct {
	UserID  int64                  `json:"user_id"`
	Type    types.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	RideID  uuid.UUID              `json:"ride_id"`
}

func (m NotificationMessage) Validate() error {
	if m.UserID == 0 {
		return fmt.Errorf("%w: user_id is required", types.ErrMalformed)
	}
	if m.Type == "" {
		return fmt.Errorf("%w: type is required", types.ErrMalformed)
	}
	if m.Title == "" && m.Message == "" {
		return fmt.Errorf("%w: notification has no content", types.ErrMalformed)
	}
	return nil
}
