package dispatch

import (
	"context"
	"math/rand/v2"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
)

// Matcher selects a driver for a requested ride. Real location-based
// matching stays behind this interface as a pluggable strategy.
type Matcher interface {
	SelectDriver(ctx context.Context, req models.RideRequestedMessage) (int64, error)
}

// PoolMatcher picks a random driver from a fixed configured pool.
type PoolMatcher struct {
	pool []int64
}

func NewPoolMatcher(pool []int64) *PoolMatcher {
	return &PoolMatcher{pool: pool}
}

func (m *PoolMatcher) SelectDriver(_ context.Context, _ models.RideRequestedMessage) (int64, error) {
	if len(m.pool) == 0 {
		return 0, types.ErrNoDriverAvailable
	}
	return m.pool[rand.IntN(len(m.pool))], nil
}
