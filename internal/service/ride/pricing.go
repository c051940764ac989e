package ride

import "github.com/Temutjin2k/ride-dispatch/internal/domain/models"

// PricingStrategy computes the fare when a ride completes. The price is set
// exactly once, inside the completing transition.
type PricingStrategy interface {
	Fare(ride *models.Ride) float64
}

// FixedFare charges every ride the same amount.
type FixedFare struct {
	amount float64
}

func NewFixedFare(amount float64) FixedFare {
	return FixedFare{amount: amount}
}

func (f FixedFare) Fare(_ *models.Ride) float64 {
	return f.amount
}
