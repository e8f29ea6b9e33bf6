// Package status applies employee actions to booking requests.
package status

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

// ErrTransitionInFlight is returned when a transition for the same booking is still pending.
var ErrTransitionInFlight = errors.New("status transition already in flight")

// Gateway is the subset of the remote gateway used for booking requests.
type Gateway interface {
	FetchBookingRequests(ctx context.Context) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status model.BookingStatus) (model.Booking, error)
}

// Notifier is told about every acknowledged status change.
type Notifier interface {
	StatusChanged(b model.Booking, from model.BookingStatus)
}

// Workflow serializes transitions per booking; different bookings may proceed concurrently.
type Workflow struct {
	gw       Gateway
	bookings *store.BookingStore
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewWorkflow creates a status workflow. notifier may be nil.
func NewWorkflow(gw Gateway, bookings *store.BookingStore, notifier Notifier, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		gw:       gw,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// Refresh loads all booking requests into the store.
func (w *Workflow) Refresh(ctx context.Context) error {
	w.bookings.SetLoading(true)
	defer w.bookings.SetLoading(false)

	list, err := w.gw.FetchBookingRequests(ctx)
	if err != nil {
		w.bookings.SetError(apperror.UserMessage(err))
		return fmt.Errorf("failed to fetch booking requests: %w", err)
	}
	w.bookings.SetBookings(list)
	w.bookings.SetError("")
	return nil
}

// AvailableActions returns the actions offered for a booking. None while a transition is pending.
func (w *Workflow) AvailableActions(bookingID string) []model.Action {
	if w.InFlight(bookingID) {
		return nil
	}
	b, ok := w.bookings.Get(bookingID)
	if !ok {
		return nil
	}
	return model.AvailableActions(b.CurrentStatus)
}

// InFlight reports whether a transition for bookingID is pending.
func (w *Workflow) InFlight(bookingID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.inFlight[bookingID]
	return ok
}

func (w *Workflow) acquire(bookingID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inFlight[bookingID]; ok {
		return false
	}
	w.inFlight[bookingID] = struct{}{}
	return true
}

func (w *Workflow) release(bookingID string) {
	w.mu.Lock()
	delete(w.inFlight, bookingID)
	w.mu.Unlock()
}

// Transition applies action to a booking optimistically and reconciles with the server.
// A failed call restores the previous status and sets the store error.
func (w *Workflow) Transition(ctx context.Context, bookingID string, action model.Action) (model.Booking, error) {
	if !w.acquire(bookingID) {
		return model.Booking{}, ErrTransitionInFlight
	}
	defer w.release(bookingID)

	current, ok := w.bookings.Get(bookingID)
	if !ok {
		return model.Booking{}, apperror.NewValidation("booking", "Booking not found")
	}
	to, ok := model.NextStatus(current.CurrentStatus, action)
	if !ok {
		return model.Booking{}, apperror.NewValidation("action",
			fmt.Sprintf("Cannot %s a booking that is %s", action, current.CurrentStatus))
	}

	revert, err := w.bookings.ApplyOptimistic(bookingID, func(b model.Booking) model.Booking {
		b.CurrentStatus = to
		return b
	})
	if err != nil {
		return model.Booking{}, fmt.Errorf("failed to apply %s to %s: %w", action, bookingID, err)
	}

	updated, err := w.gw.UpdateBookingStatus(ctx, bookingID, to)
	if err != nil {
		revert()
		w.bookings.SetError(apperror.UserMessage(err))
		w.logger.Warn("status transition failed, reverted",
			zap.String("booking_id", bookingID),
			zap.String("from", string(current.CurrentStatus)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return model.Booking{}, fmt.Errorf("failed to update booking %s: %w", bookingID, err)
	}

	if updated.BookingID == "" {
		updated = current
		updated.CurrentStatus = to
	} else if err := w.bookings.ReplaceBooking(updated); err != nil {
		w.logger.Warn("booking disappeared during transition", zap.String("booking_id", bookingID))
	}
	w.bookings.SetError("")

	w.logger.Info("booking status changed",
		zap.String("booking_id", bookingID),
		zap.String("from", string(current.CurrentStatus)),
		zap.String("to", string(updated.CurrentStatus)),
	)

	if w.notifier != nil {
		w.notifier.StatusChanged(updated, current.CurrentStatus)
	}
	return updated, nil
}

// Counts tallies the stored bookings per status.
func (w *Workflow) Counts() map[model.BookingStatus]int {
	counts := make(map[model.BookingStatus]int, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		counts[s] = 0
	}
	for _, b := range w.bookings.Bookings() {
		counts[b.CurrentStatus]++
	}
	return counts
}

// Filter returns the stored bookings with the given status, in store order.
// An empty status returns every booking.
func (w *Workflow) Filter(status model.BookingStatus) []*model.Booking {
	all := w.bookings.Bookings()
	if status == "" {
		return all
	}
	var out []*model.Booking
	for _, b := range all {
		if b.CurrentStatus == status {
			out = append(out, b)
		}
	}
	return out
}
