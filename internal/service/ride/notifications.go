package ride

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// Notification texts per transition. Wording is part of the user-facing
// surface; clients string-match on titles, do not reword casually.

func requestedNotification(ride *models.Ride) (types.NotificationType, string, string) {
	return types.NotifyRideRequested,
		"Ride Request Received",
		fmt.Sprintf("Your ride request from %s to %s has been received. Looking for a driver...", ride.Origin, ride.Destination)
}

func offeredNotification(ride *models.Ride) (types.NotificationType, string, string) {
	return types.NotifyRideOffered,
		"New Ride Offer",
		fmt.Sprintf("New ride request from %s to %s", ride.Origin, ride.Destination)
}

func acceptedNotification(ride *models.Ride) (types.NotificationType, string, string) {
	driverID := int64(0)
	if ride.DriverID != nil {
		driverID = *ride.DriverID
	}
	return types.NotifyRideAccepted,
		"Driver Accepted Your Ride",
		fmt.Sprintf("Driver %d accepted your ride and is on the way", driverID)
}

func rejectedNotification(_ *models.Ride) (types.NotificationType, string, string) {
	return types.NotifyRideRejected,
		"Driver Rejected Ride",
		"Driver rejected your ride. Looking for another driver..."
}

func completedNotification(ride *models.Ride) (types.NotificationType, string, string) {
	price := 0.0
	if ride.Price != nil {
		price = *ride.Price
	}
	return types.NotifyRideCompleted,
		"Ride Completed",
		fmt.Sprintf("Your ride from %s to %s is completed. Price: $%.2f", ride.Origin, ride.Destination, price)
}

func cancelledNotification(byRole types.Role) (types.NotificationType, string, string) {
	title := "Ride Cancelled by Passenger"
	if byRole == types.RoleDriver {
		title = "Ride Cancelled by Driver"
	}
	return types.NotifyRideCancelled, title, "The ride has been cancelled"
}

// notify persists a notification record and publishes the matching event for
// the fan-out consumer. Best effort on purpose: a ride transition that
// already committed must not be failed by its notification side channel.
func (s *Service) notify(ctx context.Context, userID int64, ride *models.Ride, typ types.NotificationType, title, message string) {
	id, err := uuid.New()
	if err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to generate notification id", err)
		return
	}

	record := &models.Notification{
		ID:      id,
		UserID:  userID,
		RideID:  ride.ID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if _, err := s.notifications.Create(ctx, record); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to persist notification", err,
			"user_id", userID, "type", typ)
	}

	event := models.NotificationMessage{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		RideID:  ride.ID,
	}
	if err := s.broker.PublishNotification(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish notification event", err,
			"user_id", userID, "type", typ)
	}
}
