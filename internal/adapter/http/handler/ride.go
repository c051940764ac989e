package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
	"github.com/Temutjin2k/ride-dispatch/pkg/validator"
)

type RideService interface {
	Create(ctx context.Context, who *models.Identity, origin, destination string) (*models.Ride, error)
	List(ctx context.Context, who *models.Identity) ([]*models.Ride, error)
	Get(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error)
	Offer(ctx context.Context, who *models.Identity, rideID uuid.UUID, driverID int64) (*models.Ride, error)
	Accept(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error)
	Reject(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error)
	Complete(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error)
	Cancel(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error)
}

type Ride struct {
	service RideService
	l       logger.Logger
}

func NewRide(service RideService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// Create godoc
// @Summary      Request a ride
// @Description  Creates a ride in the requested state and enqueues it for dispatch
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateRideRequest true "Origin and destination"
// @Success      201 {object} models.Ride
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")
	who := models.IdentityFromContext(ctx)

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.service.Create(ctx, who, req.Origin, req.Destination)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride created", "ride_id", ride.ID)
}

// List godoc
// @Summary      List rides
// @Description  Lists rides visible to the caller; admins see everything
// @Tags         Rides
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /rides [get]
func (h *Ride) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rides")
	who := models.IdentityFromContext(ctx)

	rides, err := h.service.List(ctx, who)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"count": len(rides),
		"rides": rides,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// Get godoc
// @Summary      Get a ride
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id} [get]
func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")
	who := models.IdentityFromContext(ctx)

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	ride, err := h.service.Get(ctx, who, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// Offer godoc
// @Summary      Offer a ride to a driver
// @Description  Admin-only manual dispatch: binds a driver and moves the ride to offered
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        request body dto.OfferRideRequest true "Driver to offer the ride to"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id}/offer [post]
func (h *Ride) Offer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "offer_ride")
	who := models.IdentityFromContext(ctx)

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	var req dto.OfferRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.service.Offer(ctx, who, rideID, *req.DriverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to offer ride", err)
		transitionErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride offered", "ride_id", ride.ID, "driver_id", *req.DriverID)
}

// Accept godoc
// @Summary      Accept an offered ride
// @Description  The offered driver confirms the ride; moves offered to accepted
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id}/accept [post]
func (h *Ride) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept_ride", h.service.Accept)
}

// Reject godoc
// @Summary      Reject an offered ride
// @Description  The offered driver declines; the ride returns to requested for re-dispatch
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id}/reject [post]
func (h *Ride) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject_ride", h.service.Reject)
}

// Complete godoc
// @Summary      Complete an accepted ride
// @Description  The assigned driver finishes the ride; the fare is set on completion
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id}/complete [post]
func (h *Ride) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "complete_ride", h.service.Complete)
}

// Cancel godoc
// @Summary      Cancel a ride
// @Description  The passenger or the assigned driver cancels a non-terminal ride
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200 {object} models.Ride
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel_ride", h.service.Cancel)
}

// transition is the shared shape of the bodyless lifecycle verbs: parse the
// ride id, run the guarded transition, return the updated snapshot.
func (h *Ride) transition(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error),
) {
	ctx := wrap.WithAction(r.Context(), action)
	who := models.IdentityFromContext(ctx)

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := fn(ctx, who, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "ride transition failed", err)
		transitionErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride transition applied", "ride_id", ride.ID, "status", ride.Status)
}
