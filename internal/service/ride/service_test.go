package ride

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// fakeRepo is an in-memory ride store honoring the Transition contract:
// precondition check against the current status, mutation and status flip
// applied atomically, nothing written when the check or the mutation fails.
type fakeRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (f *fakeRepo) Create(_ context.Context, ride *models.Ride) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	cp := *ride
	cp.CreatedAt = now
	cp.UpdatedAt = now
	f.rides[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (f *fakeRepo) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*models.Ride, 0, len(f.rides))
	for _, r := range f.rides {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) ListByParticipant(_ context.Context, userID int64) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Ride
	for _, r := range f.rides {
		if r.PassengerID == userID || (r.DriverID != nil && *r.DriverID == userID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Transition(_ context.Context, rideID uuid.UUID, from []types.RideStatus, to types.RideStatus, mutate func(*models.Ride) error) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}

	if !slices.Contains(from, r.Status) {
		return nil, &types.TransitionError{Current: r.Status}
	}

	cp := *r
	if mutate != nil {
		if err := mutate(&cp); err != nil {
			return nil, err
		}
	}
	cp.Status = to
	cp.UpdatedAt = time.Now()
	f.rides[rideID] = &cp

	out := cp
	return &out, nil
}

type fakeBroker struct {
	mu            sync.Mutex
	requested     []models.RideRequestedMessage
	offers        []models.RideOfferMessage
	accepted      []models.RideAcceptedMessage
	completed     []models.RideCompletedMessage
	cancelled     []models.RideCancelledMessage
	notifications []models.NotificationMessage
}

func (b *fakeBroker) PublishRideRequested(_ context.Context, m models.RideRequestedMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requested = append(b.requested, m)
	return nil
}

func (b *fakeBroker) PublishRideOffer(_ context.Context, m models.RideOfferMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offers = append(b.offers, m)
	return nil
}

func (b *fakeBroker) PublishRideAccepted(_ context.Context, m models.RideAcceptedMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accepted = append(b.accepted, m)
	return nil
}

func (b *fakeBroker) PublishRideCompleted(_ context.Context, m models.RideCompletedMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = append(b.completed, m)
	return nil
}

func (b *fakeBroker) PublishRideCancelled(_ context.Context, m models.RideCancelledMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, m)
	return nil
}

func (b *fakeBroker) PublishNotification(_ context.Context, m models.NotificationMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, m)
	return nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	records []*models.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	cp.CreatedAt = time.Now()
	f.records = append(f.records, &cp)
	return &cp, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeBroker, *fakeNotifications) {
	t.Helper()
	repo := newFakeRepo()
	broker := &fakeBroker{}
	notifications := &fakeNotifications{}
	log := logger.InitLogger("test", logger.LevelError)
	svc := NewService(repo, notifications, broker, NewFixedFare(10.00), "api", log)
	return svc, repo, broker, notifications
}

var (
	passenger = &models.Identity{ID: 1, Email: "p@example.com", Role: types.RolePassenger}
	driver42  = &models.Identity{ID: 42, Email: "d42@example.com", Role: types.RoleDriver}
	driver7   = &models.Identity{ID: 7, Email: "d7@example.com", Role: types.RoleDriver}
	admin     = &models.Identity{ID: 99, Email: "a@example.com", Role: types.RoleAdmin}
)

// Full lifecycle: request, offer to 42, reject, offer to 7, accept, complete.
func TestRideLifecycle_Sequence(t *testing.T) {
	svc, _, broker, _ := newTestService(t)
	ctx := context.Background()

	ride, err := svc.Create(ctx, passenger, "Dostyk 5", "Abay 10")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ride.Status != types.StatusRequested {
		t.Fatalf("status = %s, want requested", ride.Status)
	}
	if ride.DriverID != nil {
		t.Fatalf("requested ride must have no driver")
	}
	if len(broker.requested) != 1 {
		t.Fatalf("expected one ride.requested event, got %d", len(broker.requested))
	}

	ride, err = svc.AssignDriver(ctx, ride.ID, 42)
	if err != nil {
		t.Fatalf("assign 42: %v", err)
	}
	if ride.Status != types.StatusOffered || !ride.AssignedTo(42) {
		t.Fatalf("ride should be offered to 42, got %s %v", ride.Status, ride.DriverID)
	}

	ride, err = svc.Reject(ctx, driver42, ride.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ride.Status != types.StatusRequested {
		t.Fatalf("rejected ride should return to requested, got %s", ride.Status)
	}
	if ride.DriverID != nil {
		t.Fatalf("reject must clear the driver binding")
	}
	if len(broker.requested) != 2 {
		t.Fatalf("reject should republish ride.requested, got %d events", len(broker.requested))
	}

	ride, err = svc.AssignDriver(ctx, ride.ID, 7)
	if err != nil {
		t.Fatalf("assign 7: %v", err)
	}

	ride, err = svc.Accept(ctx, driver7, ride.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if ride.Status != types.StatusAccepted {
		t.Fatalf("status = %s, want accepted", ride.Status)
	}
	if ride.Price != nil {
		t.Fatalf("accepted ride must not carry a price")
	}
	if len(broker.accepted) != 1 || broker.accepted[0].DriverID != 7 {
		t.Fatalf("ride.accepted event missing or wrong driver: %+v", broker.accepted)
	}

	ride, err = svc.Complete(ctx, driver7, ride.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ride.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", ride.Status)
	}
	if ride.Price == nil || *ride.Price != 10.00 {
		t.Fatalf("completed ride must carry the fare, got %v", ride.Price)
	}
	if len(broker.completed) != 1 || broker.completed[0].Price != 10.00 {
		t.Fatalf("ride.completed event missing or wrong price: %+v", broker.completed)
	}
}

func TestAccept_ForeignDriverForbidden(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	if _, err := svc.AssignDriver(ctx, ride.ID, 42); err != nil {
		t.Fatalf("assign: %v", err)
	}

	_, err := svc.Accept(ctx, driver7, ride.ID)
	if !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("foreign driver accept should be Forbidden, got %v", err)
	}

	// The guard must leave the ride untouched.
	stored, _ := repo.Get(ctx, ride.ID)
	if stored.Status != types.StatusOffered || !stored.AssignedTo(42) {
		t.Fatalf("ride changed by forbidden accept: %s %v", stored.Status, stored.DriverID)
	}
}

func TestAssignDriver_DuplicateIsPreconditionFailed(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	if _, err := svc.AssignDriver(ctx, ride.ID, 42); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	_, err := svc.AssignDriver(ctx, ride.ID, 7)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Fatalf("second assign should fail the precondition, got %v", err)
	}
	current, ok := types.CurrentStatus(err)
	if !ok || current != types.StatusOffered {
		t.Fatalf("conflicting status should be offered, got %v %v", current, ok)
	}
}

func TestCancel_FromTerminalPreconditionFailed(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	_, _ = svc.AssignDriver(ctx, ride.ID, 42)
	_, _ = svc.Accept(ctx, driver42, ride.ID)
	if _, err := svc.Complete(ctx, driver42, ride.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := svc.Cancel(ctx, passenger, ride.ID)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Fatalf("cancel of completed ride should fail precondition, got %v", err)
	}
	current, _ := types.CurrentStatus(err)
	if current != types.StatusCompleted {
		t.Fatalf("conflicting status = %s, want completed", current)
	}
}

func TestTransition_PreconditionLeavesUpdatedAtUntouched(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	ride, _ = svc.AssignDriver(ctx, ride.ID, 42)
	before := ride.UpdatedAt

	if _, err := svc.AssignDriver(ctx, ride.ID, 7); err == nil {
		t.Fatalf("expected precondition failure")
	}

	stored, _ := repo.Get(ctx, ride.ID)
	if !stored.UpdatedAt.Equal(before) {
		t.Fatalf("rejected transition must not touch updated_at")
	}
}

func TestCancel_NotifiesCounterpart(t *testing.T) {
	svc, _, broker, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	_, _ = svc.AssignDriver(ctx, ride.ID, 42)
	_, _ = svc.Accept(ctx, driver42, ride.ID)

	countBefore := len(broker.notifications)
	if _, err := svc.Cancel(ctx, passenger, ride.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	added := broker.notifications[countBefore:]
	if len(added) != 1 {
		t.Fatalf("expected one cancellation notification, got %d", len(added))
	}
	note := added[0]
	if note.UserID != 42 {
		t.Errorf("cancellation should notify the driver, got user %d", note.UserID)
	}
	if note.Type != types.NotifyRideCancelled {
		t.Errorf("type = %s, want %s", note.Type, types.NotifyRideCancelled)
	}
	if note.Title != "Ride Cancelled by Passenger" {
		t.Errorf("title = %q", note.Title)
	}
}

func TestCancel_StrangerForbidden(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")

	stranger := &models.Identity{ID: 555, Role: types.RolePassenger}
	_, err := svc.Cancel(ctx, stranger, ride.ID)
	if !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("stranger cancel should be Forbidden, got %v", err)
	}
}

func TestGet_Visibility(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	_, _ = svc.AssignDriver(ctx, ride.ID, 42)

	if _, err := svc.Get(ctx, passenger, ride.ID); err != nil {
		t.Errorf("passenger should see own ride: %v", err)
	}
	if _, err := svc.Get(ctx, driver42, ride.ID); err != nil {
		t.Errorf("assigned driver should see the ride: %v", err)
	}
	if _, err := svc.Get(ctx, admin, ride.ID); err != nil {
		t.Errorf("admin should see every ride: %v", err)
	}
	if _, err := svc.Get(ctx, driver7, ride.ID); !errors.Is(err, types.ErrForbidden) {
		t.Errorf("unrelated driver should be Forbidden, got %v", err)
	}
}

func TestOffer_AdminOnly(t *testing.T) {
	svc, _, broker, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")

	if _, err := svc.Offer(ctx, driver42, ride.ID, 42); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("non-admin offer should be Forbidden, got %v", err)
	}

	offered, err := svc.Offer(ctx, admin, ride.ID, 42)
	if err != nil {
		t.Fatalf("admin offer: %v", err)
	}
	if offered.Status != types.StatusOffered || !offered.AssignedTo(42) {
		t.Fatalf("offer result wrong: %s %v", offered.Status, offered.DriverID)
	}
	if len(broker.offers) != 1 || broker.offers[0].DriverID != 42 {
		t.Fatalf("ride.offer event missing: %+v", broker.offers)
	}
}

func TestUpdateStatus_OfferedNeedsAssignDriver(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")

	_, err := svc.UpdateStatus(ctx, ride.ID, types.StatusOffered)
	if !errors.Is(err, types.ErrMalformed) {
		t.Fatalf("update-status to offered should be malformed, got %v", err)
	}
}

func TestUpdateStatus_CompletedSetsPrice(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ride, _ := svc.Create(ctx, passenger, "a", "b")
	_, _ = svc.AssignDriver(ctx, ride.ID, 42)
	_, _ = svc.Accept(ctx, driver42, ride.ID)

	done, err := svc.UpdateStatus(ctx, ride.ID, types.StatusCompleted)
	if err != nil {
		t.Fatalf("update-status: %v", err)
	}
	if done.Price == nil || *done.Price != 10.00 {
		t.Fatalf("internal completion must set the fare, got %v", done.Price)
	}
}

func TestCreate_PersistsNotificationRecord(t *testing.T) {
	svc, _, _, notifications := newTestService(t)
	ctx := context.Background()

	ride, err := svc.Create(ctx, passenger, "Dostyk 5", "Abay 10")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(notifications.records) != 1 {
		t.Fatalf("expected one notification record, got %d", len(notifications.records))
	}
	rec := notifications.records[0]
	if rec.UserID != passenger.ID || rec.RideID != ride.ID {
		t.Errorf("record bound to wrong user/ride: %+v", rec)
	}
	if rec.Type != types.NotifyRideRequested || rec.Title != "Ride Request Received" {
		t.Errorf("record content wrong: %s %q", rec.Type, rec.Title)
	}
}
