package dto

import (
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/validator"
)

type CreateRideRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator) {
	v.Check(r.Origin != "", "origin", "must be provided")
	v.Check(len(r.Origin) <= 255, "origin", "must not be more than 255 characters")
	v.Check(r.Destination != "", "destination", "must be provided")
	v.Check(len(r.Destination) <= 255, "destination", "must not be more than 255 characters")
}

type OfferRideRequest struct {
	DriverID *int64 `json:"driver_id"`
}

func (r *OfferRideRequest) Validate(v *validator.Validator) {
	v.Check(r.DriverID != nil, "driver_id", "must be provided")
	if r.DriverID != nil {
		v.Check(*r.DriverID > 0, "driver_id", "must be positive")
	}
}

type AssignDriverRequest struct {
	DriverID *int64 `json:"driver_id"`
}

func (r *AssignDriverRequest) Validate(v *validator.Validator) {
	v.Check(r.DriverID != nil, "driver_id", "must be provided")
	if r.DriverID != nil {
		v.Check(*r.DriverID > 0, "driver_id", "must be positive")
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Check(r.Status != "", "status", "must be provided")
	if r.Status != "" {
		v.Check(types.RideStatus(r.Status).Valid(), "status", "must be one of requested, offered, accepted, completed, cancelled")
	}
}
