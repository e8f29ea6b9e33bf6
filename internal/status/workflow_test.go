package status

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

type fakeGateway struct {
	mu        sync.Mutex
	calls     map[string]int
	err       error
	block     chan struct{}
	started   chan struct{}
	requests  []model.Booking
	fetchErr  error
	emptyBody bool
}

func (f *fakeGateway) FetchBookingRequests(context.Context) ([]model.Booking, error) {
	return f.requests, f.fetchErr
}

func (f *fakeGateway) UpdateBookingStatus(ctx context.Context, id string, s model.BookingStatus) (model.Booking, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.err != nil {
		return model.Booking{}, f.err
	}
	if f.emptyBody {
		return model.Booking{}, nil
	}
	return model.Booking{BookingID: id, CurrentStatus: s, CustomerName: "server copy"}, nil
}

func (f *fakeGateway) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []model.BookingStatus
}

func (r *recordingNotifier) StatusChanged(b model.Booking, from model.BookingStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, b.CurrentStatus)
}

func seeded() []model.Booking {
	return []model.Booking{
		{ID: "a1", BookingID: "REQ-001", CustomerName: "Ann", ServiceName: "Oil Change", CurrentStatus: model.StatusPending},
		{ID: "a2", BookingID: "REQ-002", CustomerName: "Bob", ServiceName: "Brake Pad Replacement", CurrentStatus: model.StatusPending},
		{ID: "a3", BookingID: "REQ-003", CustomerName: "Cid", CurrentStatus: model.StatusInProgress},
		{ID: "a5", BookingID: "REQ-005", CustomerName: "Dee", CurrentStatus: model.StatusCompleted},
	}
}

func newWorkflow(gw *fakeGateway) (*Workflow, *store.BookingStore, *recordingNotifier) {
	bookings := store.NewBookingStore()
	if gw.requests == nil {
		gw.requests = seeded()
	}
	n := &recordingNotifier{}
	wf := NewWorkflow(gw, bookings, n, nil)
	return wf, bookings, n
}

func TestWorkflow_AcceptScenario(t *testing.T) {
	gw := &fakeGateway{}
	wf, bookings, n := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	assert.Equal(t, []model.Action{model.ActionAccept, model.ActionReject}, wf.AvailableActions("REQ-001"))

	updated, err := wf.Transition(ctx, "REQ-001", model.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, updated.CurrentStatus)

	b, _ := bookings.Get("REQ-001")
	assert.Equal(t, model.StatusAccepted, b.CurrentStatus)
	assert.Equal(t, "server copy", b.CustomerName)
	assert.NotContains(t, wf.AvailableActions("REQ-001"), model.ActionAccept)
	assert.Equal(t, []model.Action{model.ActionComplete}, wf.AvailableActions("REQ-001"))

	_, err = wf.Transition(ctx, "REQ-001", model.ActionAccept)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 1, gw.callCount("REQ-001"))

	assert.Equal(t, []model.BookingStatus{model.StatusAccepted}, n.changes)
}

func TestWorkflow_FailureReverts(t *testing.T) {
	gw := &fakeGateway{err: &apperror.ServerError{Op: "PATCH", StatusCode: 500, Message: "Database unavailable"}}
	wf, bookings, n := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))
	before := bookings.Bookings()

	_, err := wf.Transition(ctx, "REQ-001", model.ActionAccept)
	require.Error(t, err)
	assert.True(t, apperror.IsServer(err))

	b, _ := bookings.Get("REQ-001")
	assert.Equal(t, model.StatusPending, b.CurrentStatus)
	assert.Same(t, before[0], bookings.Bookings()[0])
	assert.Equal(t, "Database unavailable", bookings.Snapshot().Error)
	assert.Empty(t, n.changes)
	assert.False(t, wf.InFlight("REQ-001"))
}

func TestWorkflow_OptimisticValueVisibleWhilePending(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), started: make(chan struct{}, 1)}
	wf, bookings, _ := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := wf.Transition(ctx, "REQ-002", model.ActionReject)
		done <- err
	}()
	<-gw.started

	b, _ := bookings.Get("REQ-002")
	assert.Equal(t, model.StatusRejected, b.CurrentStatus)
	assert.True(t, wf.InFlight("REQ-002"))
	assert.Empty(t, wf.AvailableActions("REQ-002"))

	close(gw.block)
	require.NoError(t, <-done)
}

func TestWorkflow_DoubleInvokeIssuesOneCall(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), started: make(chan struct{}, 2)}
	wf, _, _ := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := wf.Transition(ctx, "REQ-001", model.ActionAccept)
		done <- err
	}()
	<-gw.started

	_, err := wf.Transition(ctx, "REQ-001", model.ActionAccept)
	assert.ErrorIs(t, err, ErrTransitionInFlight)

	close(gw.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.callCount("REQ-001"))
}

func TestWorkflow_DifferentBookingsRunConcurrently(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{}), started: make(chan struct{}, 2)}
	wf, bookings, _ := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	var wg sync.WaitGroup
	for _, id := range []string{"REQ-001", "REQ-002"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := wf.Transition(ctx, id, model.ActionAccept)
			assert.NoError(t, err)
		}(id)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-gw.started:
		case <-time.After(time.Second):
			t.Fatal("transitions were not issued concurrently")
		}
	}
	close(gw.block)
	wg.Wait()

	assert.Equal(t, 2, wf.Counts()[model.StatusAccepted])
	b, _ := bookings.Get("REQ-002")
	assert.Equal(t, model.StatusAccepted, b.CurrentStatus)
}

func TestWorkflow_InvalidEdgesAndUnknownBooking(t *testing.T) {
	gw := &fakeGateway{}
	wf, _, _ := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	_, err := wf.Transition(ctx, "REQ-005", model.ActionComplete)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, wf.AvailableActions("REQ-005"))

	_, err = wf.Transition(ctx, "REQ-404", model.ActionAccept)
	assert.True(t, apperror.IsValidation(err))

	updated, err := wf.Transition(ctx, "REQ-003", model.ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.CurrentStatus)
	assert.Equal(t, 0, gw.callCount("REQ-005"))
}

func TestWorkflow_EmptyServerBodyKeepsOptimisticValue(t *testing.T) {
	gw := &fakeGateway{emptyBody: true}
	wf, bookings, _ := newWorkflow(gw)
	ctx := context.Background()
	require.NoError(t, wf.Refresh(ctx))

	updated, err := wf.Transition(ctx, "REQ-001", model.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.CustomerName)
	assert.Equal(t, model.StatusRejected, updated.CurrentStatus)
	b, _ := bookings.Get("REQ-001")
	assert.Equal(t, model.StatusRejected, b.CurrentStatus)
}

func TestWorkflow_RefreshFailure(t *testing.T) {
	gw := &fakeGateway{fetchErr: &apperror.NetworkError{Op: "GET", Err: context.Canceled}}
	wf, bookings, _ := newWorkflow(gw)

	err := wf.Refresh(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, bookings.Snapshot().Error)
	assert.False(t, bookings.Snapshot().IsLoading)
}

func TestWorkflow_CountsAndFilter(t *testing.T) {
	gw := &fakeGateway{}
	wf, _, _ := newWorkflow(gw)
	require.NoError(t, wf.Refresh(context.Background()))

	counts := wf.Counts()
	assert.Equal(t, 2, counts[model.StatusPending])
	assert.Equal(t, 1, counts[model.StatusInProgress])
	assert.Equal(t, 1, counts[model.StatusCompleted])
	assert.Equal(t, 0, counts[model.StatusHoldOn])

	pending := wf.Filter(model.StatusPending)
	require.Len(t, pending, 2)
	assert.Equal(t, "REQ-001", pending[0].BookingID)
	assert.Len(t, wf.Filter(""), 4)
}
