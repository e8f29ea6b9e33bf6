package internal

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/auth"
	"autoservice-dashboard/internal/booking"
	"autoservice-dashboard/internal/db"
	"autoservice-dashboard/internal/gateway"
	"autoservice-dashboard/internal/mockapi"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/notification"
	"autoservice-dashboard/internal/poller"
	"autoservice-dashboard/internal/status"
	"autoservice-dashboard/internal/store"
)

// nextOpenDate returns the first date after today that is not a Sunday.
func nextOpenDate(now time.Time) string {
	day := now.AddDate(0, 0, 1)
	if day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format("2006-01-02")
}

func nextEvent(t *testing.T, jobs <-chan notification.Event) notification.Event {
	t.Helper()
	select {
	case ev := <-jobs:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected a notification event")
		return notification.Event{}
	}
}

// TestBookingLifecycle books a slot as a customer, accepts it as an employee and
// verifies the stores, the durable session and the notification events along the way.
func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()

	// --- Backend ---
	backend := mockapi.NewBackend(nil)
	bookingSrv := httptest.NewServer(mockapi.NewBookingAPI(backend))
	defer bookingSrv.Close()
	accountSrv := httptest.NewServer(mockapi.NewAccountAPI(backend))
	defer accountSrv.Close()

	gormDB, err := db.Init(&config.DatabaseConfig{DSN: "file:lifecycle?mode=memory&cache=shared", MaxOpenConns: 1, MaxIdleConns: 1}, nil)
	require.NoError(t, err)

	// --- Client wiring ---
	session := store.NewSessionStore(db.NewSessionRepository(gormDB), nil)
	bookings := store.NewBookingStore()
	vehicles := store.NewVehicleStore()
	gw := gateway.New(config.GatewayConfig{
		BookingURL:  bookingSrv.URL + "/api",
		AuthURL:     accountSrv.URL,
		WorkshopURL: accountSrv.URL,
		Timeout:     2 * time.Second,
	}, session, nil, nil)

	// The pool is not started: events are read straight from its queue.
	pool := notification.NewWorkerPool(1, db.NewSubscriptionRepository(gormDB), &webpush.Options{}, nil)
	authSvc := auth.NewService(gw, session, nil)
	bookingFlow := booking.NewWorkflow(gw, bookings, vehicles, nil, booking.WithSession(session), booking.WithNotifier(pool))
	statusFlow := status.NewWorkflow(gw, bookings, pool, nil)

	// --- Customer books a slot ---
	landing, err := authSvc.Login(ctx, mockapi.CustomerEmail, mockapi.SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, "/customer", landing)

	require.NoError(t, bookingFlow.LoadReferenceData(ctx))
	require.Len(t, vehicles.Vehicles(), 2)

	date := nextOpenDate(time.Now())
	require.NoError(t, bookingFlow.SetSelection(ctx, 1, 2, date))
	st := bookingFlow.Snapshot()
	require.NotNil(t, st.Availability)
	require.True(t, st.Availability.Available)
	first := st.Availability.Slots[0]
	assert.Equal(t, model.TimeSlot{StartTime: "09:00", EndTime: "10:30", GapRemainingAfter: 390}, first)

	require.NoError(t, bookingFlow.SelectSlot(first))
	require.NoError(t, bookingFlow.SelectVehicle(vehicles.Vehicles()[0].ID))
	bookingFlow.SetCustomerName("Kasun Perera")

	created, err := bookingFlow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, created.CurrentStatus)
	assert.Equal(t, "Brake Pad Replacement", created.ServiceName)

	st = bookingFlow.Snapshot()
	assert.Equal(t, booking.SuccessMessage, st.Success)
	assert.Nil(t, st.Slot)
	assert.False(t, st.Availability.HasSlot(first), "a booked slot is not offered again")

	ev := nextEvent(t, pool.Jobs())
	assert.Equal(t, notification.EventBookingCreated, ev.Kind)

	// --- The session survives a restart ---
	restored := store.NewSessionStore(db.NewSessionRepository(gormDB), nil)
	ok, err := auth.NewService(gw, restored, nil).RestoreSession()
	require.NoError(t, err)
	require.True(t, ok)
	u, _ := restored.User()
	assert.Equal(t, mockapi.CustomerEmail, u.Email)

	// --- Employee accepts it ---
	authSvc.Logout()
	landing, err = authSvc.Login(ctx, mockapi.EmployeeEmail, mockapi.SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, "/employee", landing)

	pollSvc := poller.NewService(config.PollerConfig{Enabled: true}, statusFlow, bookings, session, nil, nil)
	assert.Empty(t, pollSvc.PollOnce(ctx))

	pending := statusFlow.Filter(model.StatusPending)
	require.NotEmpty(t, pending)
	assert.Equal(t, "BK-1", pending[0].BookingID)
	assert.Equal(t, []model.Action{model.ActionAccept, model.ActionReject}, statusFlow.AvailableActions("BK-1"))

	updated, err := statusFlow.Transition(ctx, "BK-1", model.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, updated.CurrentStatus)

	ev = nextEvent(t, pool.Jobs())
	assert.Equal(t, notification.EventStatusChanged, ev.Kind)
	assert.Equal(t, model.StatusPending, ev.From)

	for _, r := range backend.Requests() {
		if r.BookingID == "BK-1" {
			assert.Equal(t, model.StatusAccepted, r.CurrentStatus)
		}
	}

	// --- A second customer booking shows up on the next poll ---
	_, err = gw.CreateBooking(ctx, model.BookingPayload{
		CenterID: 2, ServiceID: 1, Date: date, StartTime: "09:00", EndTime: "09:30", CustomerName: "Walk-in",
	})
	require.NoError(t, err)
	fresh := pollSvc.PollOnce(ctx)
	require.Len(t, fresh, 1)
	assert.Equal(t, "BK-2", fresh[0].BookingID)

	// --- Expired sessions are dropped on restore ---
	token, err := backend.IssueToken(u.ID, -time.Minute)
	require.NoError(t, err)
	store.NewSessionStore(db.NewSessionRepository(gormDB), nil).Login(token, u)

	stale := store.NewSessionStore(db.NewSessionRepository(gormDB), nil)
	ok, err = auth.NewService(gw, stale, nil).RestoreSession()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, stale.Snapshot().IsAuthenticated)
}
