// Package booking drives the customer's center/service/date selection, the availability
// lookup and the submission of a booking.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

// SuccessMessage is shown after a booking was accepted by the server.
const SuccessMessage = "Appointment Booked Successfully!"

const dateLayout = "2006-01-02"

// ErrSubmissionInFlight is returned when Submit is called while a submission is pending.
var ErrSubmissionInFlight = errors.New("booking submission already in flight")

// Gateway is the subset of the remote gateway used by the workflow.
type Gateway interface {
	ListCenters(ctx context.Context) ([]model.Center, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	CheckAvailability(ctx context.Context, centerID int64, date string, serviceID int64) (*model.Availability, error)
	CreateBooking(ctx context.Context, payload model.BookingPayload) (model.Booking, error)
}

// Notifier is told about every booking created through the workflow.
type Notifier interface {
	BookingCreated(b model.Booking)
}

// Session supplies the signed-in customer, if any.
type Session interface {
	User() (model.User, bool)
}

// State is the form state exposed to the presentation layer.
type State struct {
	Centers  []model.Center
	Services []model.Service

	CenterID     int64
	ServiceID    int64
	Date         string
	Slot         *model.TimeSlot
	VehicleID    string
	CustomerName string

	Availability *model.Availability
	Loading      bool
	Submitting   bool
	Success      string
	Error        string

	// token identifies the latest availability request for the current selection.
	token uint64
}

// SelectionComplete reports whether center, service and date are all set.
func (s State) SelectionComplete() bool {
	return s.CenterID > 0 && s.ServiceID > 0 && s.Date != ""
}

// Workflow is safe for concurrent use. Gateway calls run on the caller's goroutine.
type Workflow struct {
	gw       Gateway
	bookings *store.BookingStore
	vehicles *store.VehicleStore
	session  Session
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	state *store.Container[State]
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the clock used for the minimum selectable date.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithNotifier registers a notifier for created bookings.
func WithNotifier(n Notifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

// WithSession sets the source of the customer identity.
func WithSession(s Session) Option {
	return func(w *Workflow) { w.session = s }
}

// NewWorkflow creates a booking workflow over the given stores.
func NewWorkflow(gw Gateway, bookings *store.BookingStore, vehicles *store.VehicleStore, logger *zap.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workflow{
		gw:       gw,
		bookings: bookings,
		vehicles: vehicles,
		logger:   logger,
		now:      time.Now,
		state:    store.NewContainer(State{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns the current form state.
func (w *Workflow) Snapshot() State { return w.state.Get() }

// Subscribe registers a listener for form state changes.
func (w *Workflow) Subscribe(l store.Listener[State]) func() { return w.state.Subscribe(l) }

// MinDate is the earliest selectable date, today in local time.
func (w *Workflow) MinDate() string {
	return w.now().Format(dateLayout)
}

// LoadReferenceData fetches centers, services and the customer's vehicles concurrently.
func (w *Workflow) LoadReferenceData(ctx context.Context) error {
	var (
		centers  []model.Center
		services []model.Service
		vehicles []model.Vehicle
	)

	w.vehicles.SetLoading(true)
	defer w.vehicles.SetLoading(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		centers, err = w.gw.ListCenters(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = w.gw.ListServices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		vehicles, err = w.gw.ListVehicles(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		msg := apperror.UserMessage(err)
		w.vehicles.SetError(msg)
		w.state.Update(func(st State) State {
			st.Error = msg
			return st
		})
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	w.vehicles.SetVehicles(vehicles)
	w.vehicles.SetError("")
	w.state.Update(func(st State) State {
		st.Centers = centers
		st.Services = services
		return st
	})
	return nil
}

// SetCenter changes the center and re-queries availability when the selection is complete.
func (w *Workflow) SetCenter(ctx context.Context, centerID int64) error {
	return w.changeSelection(ctx, func(st *State) { st.CenterID = centerID })
}

// SetService changes the service and re-queries availability when the selection is complete.
func (w *Workflow) SetService(ctx context.Context, serviceID int64) error {
	return w.changeSelection(ctx, func(st *State) { st.ServiceID = serviceID })
}

// SetDate changes the date. It must be YYYY-MM-DD and not before today.
func (w *Workflow) SetDate(ctx context.Context, date string) error {
	if err := w.validateDate(date); err != nil {
		return err
	}
	return w.changeSelection(ctx, func(st *State) { st.Date = date })
}

// SetSelection changes center, service and date at once, issuing at most one query.
func (w *Workflow) SetSelection(ctx context.Context, centerID, serviceID int64, date string) error {
	if err := w.validateDate(date); err != nil {
		return err
	}
	return w.changeSelection(ctx, func(st *State) {
		st.CenterID = centerID
		st.ServiceID = serviceID
		st.Date = date
	})
}

// Refresh re-queries availability for the unchanged selection.
func (w *Workflow) Refresh(ctx context.Context) error {
	return w.changeSelection(ctx, func(*State) {})
}

func (w *Workflow) validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.ParseInLocation(dateLayout, date, time.Local); err != nil {
		return apperror.NewValidation("date", "Please enter a valid date (YYYY-MM-DD)")
	}
	// Same-layout dates compare correctly as strings.
	if date < w.MinDate() {
		return apperror.NewValidation("date", "Please choose today or a later date")
	}
	return nil
}

// changeSelection applies change, drops the slot and previous result, and issues a new
// availability request when the selection is complete. Only the latest request may land.
func (w *Workflow) changeSelection(ctx context.Context, change func(*State)) error {
	var (
		token uint64
		query bool
		sel   State
	)
	w.state.Update(func(st State) State {
		change(&st)
		st.token++
		st.Slot = nil
		st.Availability = nil
		st.Error = ""
		query = st.SelectionComplete()
		st.Loading = query
		token, sel = st.token, st
		return st
	})
	if !query {
		return nil
	}

	result, err := w.gw.CheckAvailability(ctx, sel.CenterID, sel.Date, sel.ServiceID)

	applied := false
	w.state.Update(func(st State) State {
		if st.token != token {
			return st
		}
		applied = true
		st.Loading = false
		if err != nil {
			st.Error = apperror.UserMessage(err)
			return st
		}
		st.Availability = result
		return st
	})

	if !applied {
		w.logger.Debug("discarding superseded availability result",
			zap.Uint64("token", token),
			zap.Int64("center_id", sel.CenterID),
			zap.Int64("service_id", sel.ServiceID),
			zap.String("date", sel.Date),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check availability: %w", err)
	}
	return nil
}

// SelectSlot selects one of the slots of the current availability result.
func (w *Workflow) SelectSlot(slot model.TimeSlot) error {
	var verr error
	w.state.Update(func(st State) State {
		switch {
		case st.Availability == nil:
			verr = apperror.NewValidation("slot", "Please choose a center, service and date first")
		case !st.Availability.Available:
			verr = apperror.NewValidation("slot", "No time slots are available for the selected date")
		case !st.Availability.HasSlot(slot):
			verr = apperror.NewValidation("slot", "The selected time slot is not available")
		}
		if verr != nil {
			return st
		}
		selected := slot
		st.Slot = &selected
		st.Success = ""
		return st
	})
	return verr
}

// CancelSlot clears the selected slot.
func (w *Workflow) CancelSlot() {
	w.state.Update(func(st State) State {
		st.Slot = nil
		return st
	})
}

// SelectVehicle selects a vehicle from the vehicle store. An empty id clears the selection.
func (w *Workflow) SelectVehicle(vehicleID string) error {
	if vehicleID != "" {
		if _, ok := w.vehicles.Get(vehicleID); !ok {
			return apperror.NewValidation("vehicle", "The selected vehicle does not exist")
		}
	}
	w.state.Update(func(st State) State {
		st.VehicleID = vehicleID
		return st
	})
	return nil
}

// SetCustomerName sets the name the booking is made under.
func (w *Workflow) SetCustomerName(name string) {
	w.state.Update(func(st State) State {
		st.CustomerName = name
		return st
	})
}

// Reset clears the whole form, keeping reference data.
// A submission in flight stays guarded until it resolves.
func (w *Workflow) Reset() {
	w.state.Update(func(st State) State {
		return State{
			Centers:    st.Centers,
			Services:   st.Services,
			Submitting: st.Submitting,
			token:      st.token + 1,
		}
	})
}

// Payload assembles the booking payload from the current state without submitting it.
func (w *Workflow) Payload() (model.BookingPayload, error) {
	return w.payload(w.state.Get())
}

func (w *Workflow) payload(st State) (model.BookingPayload, error) {
	if st.Slot == nil {
		return model.BookingPayload{}, apperror.NewValidation("slot", "Please select a time slot")
	}
	if st.VehicleID == "" {
		return model.BookingPayload{}, apperror.NewValidation("vehicle", "Please select a vehicle")
	}
	vehicle, ok := w.vehicles.Get(st.VehicleID)
	if !ok {
		return model.BookingPayload{}, apperror.NewValidation("vehicle", "The selected vehicle does not exist")
	}
	name := strings.TrimSpace(st.CustomerName)
	if name == "" {
		return model.BookingPayload{}, apperror.NewValidation("customer_name", "Please enter your name")
	}

	p := model.BookingPayload{
		CenterID:     st.CenterID,
		ServiceID:    st.ServiceID,
		Date:         st.Date,
		StartTime:    st.Slot.StartTime,
		EndTime:      st.Slot.EndTime,
		CustomerName: name,
		VehicleID:    vehicle.ID,
		VehicleName:  vehicle.DisplayName(),
	}
	if w.session != nil {
		if u, ok := w.session.User(); ok && u.ID != 0 {
			p.CustomerID = strconv.FormatInt(u.ID, 10)
		}
	}
	return p, nil
}

// Submit sends the booking. On success the slot is cleared and availability re-queried.
// On failure every selection is kept so the user can retry.
func (w *Workflow) Submit(ctx context.Context) (model.Booking, error) {
	var (
		payload model.BookingPayload
		err     error
	)
	w.state.Update(func(st State) State {
		if st.Submitting {
			err = ErrSubmissionInFlight
			return st
		}
		payload, err = w.payload(st)
		if err != nil {
			st.Error = apperror.UserMessage(err)
			return st
		}
		st.Submitting = true
		st.Error = ""
		st.Success = ""
		return st
	})
	if err != nil {
		return model.Booking{}, err
	}

	created, err := w.gw.CreateBooking(ctx, payload)
	if err != nil {
		w.logger.Warn("booking submission failed",
			zap.Int64("center_id", payload.CenterID),
			zap.String("date", payload.Date),
			zap.String("start_time", payload.StartTime),
			zap.Error(err),
		)
		w.state.Update(func(st State) State {
			st.Submitting = false
			st.Error = apperror.UserMessage(err)
			return st
		})
		return model.Booking{}, fmt.Errorf("failed to create booking: %w", err)
	}

	if created.Vehicle.ID == "" {
		created.Vehicle, _ = w.vehicles.Get(payload.VehicleID)
	}
	w.bookings.AddBooking(created)
	w.state.Update(func(st State) State {
		st.Submitting = false
		st.Success = SuccessMessage
		st.Slot = nil
		return st
	})
	w.logger.Info("booking created",
		zap.String("booking_id", created.BookingID),
		zap.String("date", created.Date),
		zap.String("start_time", payload.StartTime),
	)

	if w.notifier != nil {
		w.notifier.BookingCreated(created)
	}

	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn("failed to refresh availability after booking", zap.Error(err))
	}
	return created, nil
}
