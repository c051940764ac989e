package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"context"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// Client talks to the ride API's trusted internal surface. The worker never
// touches the ride store directly; every mutation goes through the same
// guarded-transition endpoint the API itself uses.
type Client struct {
	base   string
	client *http.Client

	l logger.Logger
}

func NewClient(base string, log logger.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{},
		l:      log,
	}
}

type assignDriverRequest struct {
	DriverID int64 `json:"driver_id"`
}

type rideEnvelope struct {
	Ride *models.Ride `json:"ride"`
}

type errorEnvelope struct {
	Error         string           `json:"error"`
	CurrentStatus types.RideStatus `json:"current_status"`
}

// AssignDriver performs the requested -> offered transition for the ride.
// A 409 comes back as a TransitionError carrying the ride's current status,
// so the caller can treat it as "already handled".
func (c *Client) AssignDriver(ctx context.Context, rideID uuid.UUID, driverID int64) (*models.Ride, error) {
	const op = "dispatch.Client.AssignDriver"

	body, err := json.Marshal(assignDriverRequest{DriverID: driverID})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: marshal request: %w", op, err))
	}

	url := fmt.Sprintf("%s/internal/rides/%s/assign-driver", c.base, rideID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: build request: %w", op, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrUpstreamUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var env rideEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("%s: decode response: %w", op, err))
		}
		return env.Ride, nil

	case resp.StatusCode == http.StatusConflict:
		var env errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return nil, wrap.Error(ctx, types.ErrPreconditionFailed)
		}
		return nil, wrap.Error(ctx, &types.TransitionError{Current: env.CurrentStatus})

	case resp.StatusCode == http.StatusNotFound:
		return nil, wrap.Error(ctx, types.ErrRideNotFound)

	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, wrap.Error(ctx, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, types.ErrMalformed))

	default:
		return nil, wrap.Error(ctx, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, types.ErrUpstreamUnavailable))
	}
}
