package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// stubRideService returns canned results; only the verbs a test exercises
// need to be configured.
type stubRideService struct {
	ride *models.Ride
	err  error
}

func (s *stubRideService) Create(context.Context, *models.Identity, string, string) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) List(context.Context, *models.Identity) ([]*models.Ride, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Ride{s.ride}, nil
}
func (s *stubRideService) Get(context.Context, *models.Identity, uuid.UUID) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) Offer(context.Context, *models.Identity, uuid.UUID, int64) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) Accept(context.Context, *models.Identity, uuid.UUID) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) Reject(context.Context, *models.Identity, uuid.UUID) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) Complete(context.Context, *models.Identity, uuid.UUID) (*models.Ride, error) {
	return s.ride, s.err
}
func (s *stubRideService) Cancel(context.Context, *models.Identity, uuid.UUID) (*models.Ride, error) {
	return s.ride, s.err
}

func newRideHandler(svc RideService) *Ride {
	return NewRide(svc, logger.InitLogger("test", logger.LevelError))
}

func acceptRequest(t *testing.T, rideID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/rides/"+rideID+"/accept", nil)
	r.SetPathValue("ride_id", rideID)
	who := &models.Identity{ID: 42, Role: types.RoleDriver}
	return r.WithContext(models.WithIdentity(r.Context(), who))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrRideNotFound, http.StatusNotFound},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrPreconditionFailed, http.StatusConflict},
		{&types.TransitionError{Current: types.StatusOffered}, http.StatusConflict},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{types.ErrMalformed, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := GetCode(tc.err); got != tc.want {
			t.Errorf("GetCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestTransition_ConflictCarriesCurrentStatus(t *testing.T) {
	svc := &stubRideService{err: &types.TransitionError{Current: types.StatusCompleted}}
	h := newRideHandler(svc)

	id, _ := uuid.New()
	rec := httptest.NewRecorder()
	h.Accept(rec, acceptRequest(t, id.String()))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var body struct {
		Error         string `json:"error"`
		CurrentStatus string `json:"current_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CurrentStatus != string(types.StatusCompleted) {
		t.Errorf("current_status = %q, want %q", body.CurrentStatus, types.StatusCompleted)
	}
	if body.Error == "" {
		t.Errorf("error message missing")
	}
}

func TestTransition_InvalidUUID(t *testing.T) {
	h := newRideHandler(&stubRideService{})

	rec := httptest.NewRecorder()
	h.Accept(rec, acceptRequest(t, "not-a-uuid"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTransition_Forbidden(t *testing.T) {
	h := newRideHandler(&stubRideService{err: types.ErrForbidden})

	id, _ := uuid.New()
	rec := httptest.NewRecorder()
	h.Accept(rec, acceptRequest(t, id.String()))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestTransition_OK(t *testing.T) {
	id, _ := uuid.New()
	driverID := int64(42)
	svc := &stubRideService{ride: &models.Ride{ID: id, Status: types.StatusAccepted, DriverID: &driverID}}
	h := newRideHandler(svc)

	rec := httptest.NewRecorder()
	h.Accept(rec, acceptRequest(t, id.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Ride models.Ride `json:"ride"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Ride.Status != types.StatusAccepted {
		t.Errorf("status = %s, want accepted", body.Ride.Status)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	h := newRideHandler(&stubRideService{})

	r := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{"origin": "", "destination": "b"}`))
	who := &models.Identity{ID: 1, Role: types.RolePassenger}
	r = r.WithContext(models.WithIdentity(r.Context(), who))

	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCreate_BadJSON(t *testing.T) {
	h := newRideHandler(&stubRideService{})

	r := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{"origin": `))
	who := &models.Identity{ID: 1, Role: types.RolePassenger}
	r = r.WithContext(models.WithIdentity(r.Context(), who))

	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreate_OK(t *testing.T) {
	id, _ := uuid.New()
	svc := &stubRideService{ride: &models.Ride{ID: id, Status: types.StatusRequested, Origin: "a", Destination: "b"}}
	h := newRideHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(`{"origin": "a", "destination": "b"}`))
	who := &models.Identity{ID: 1, Role: types.RolePassenger}
	r = r.WithContext(models.WithIdentity(r.Context(), who))

	rec := httptest.NewRecorder()
	h.Create(rec, r)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}
