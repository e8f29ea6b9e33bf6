// Package vehicle manages the customer's vehicles. The store is only changed after the
// server acknowledged a call.
package vehicle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

// Gateway is the subset of the remote gateway used for vehicles.
type Gateway interface {
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	AddVehicle(ctx context.Context, req model.VehicleRequest) (model.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, patch model.VehiclePatch) (model.Vehicle, error)
	RemoveVehicle(ctx context.Context, id string) error
}

// Manager runs vehicle CRUD and holds the edit-mode toggle.
type Manager struct {
	gw       Gateway
	vehicles *store.VehicleStore
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	editingID string
	form      Form
}

// NewManager creates a vehicle manager.
func NewManager(gw Gateway, vehicles *store.VehicleStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{gw: gw, vehicles: vehicles, logger: logger, now: time.Now}
}

// Load replaces the store with the server's list.
func (m *Manager) Load(ctx context.Context) error {
	m.vehicles.SetLoading(true)
	defer m.vehicles.SetLoading(false)

	list, err := m.gw.ListVehicles(ctx)
	if err != nil {
		m.vehicles.SetError(apperror.UserMessage(err))
		return fmt.Errorf("failed to load vehicles: %w", err)
	}
	m.vehicles.SetVehicles(list)
	m.vehicles.SetError("")
	return nil
}

// Add creates a vehicle and prepends it to the store.
func (m *Manager) Add(ctx context.Context, f Form) (model.Vehicle, error) {
	if err := f.Validate(m.now()); err != nil {
		return model.Vehicle{}, err
	}
	v, err := m.gw.AddVehicle(ctx, f.Request())
	if err != nil {
		m.vehicles.SetError(apperror.UserMessage(err))
		return model.Vehicle{}, fmt.Errorf("failed to add vehicle: %w", err)
	}
	m.vehicles.AddVehicle(v)
	m.vehicles.SetError("")
	m.logger.Info("vehicle added", zap.String("vehicle_id", v.ID), zap.String("plate", v.LicensePlate))
	return v, nil
}

// Update sends f for vehicle id and merges the acknowledged values into the store.
func (m *Manager) Update(ctx context.Context, id string, f Form) (model.Vehicle, error) {
	if err := f.Validate(m.now()); err != nil {
		return model.Vehicle{}, err
	}
	if _, ok := m.vehicles.Get(id); !ok {
		return model.Vehicle{}, apperror.NewValidation("vehicle", "Vehicle not found")
	}

	req := f.Request()
	updated, err := m.gw.UpdateVehicle(ctx, id, model.PatchFromRequest(req))
	if err != nil {
		m.vehicles.SetError(apperror.UserMessage(err))
		return model.Vehicle{}, fmt.Errorf("failed to update vehicle %s: %w", id, err)
	}

	patch := model.PatchFromRequest(req)
	if updated.ID != "" {
		patch = model.PatchFromRequest(requestFrom(updated))
	}
	if err := m.vehicles.UpdateVehicle(id, patch); err != nil {
		m.logger.Warn("vehicle disappeared during update", zap.String("vehicle_id", id))
	}
	m.vehicles.SetError("")

	v, _ := m.vehicles.Get(id)
	return v, nil
}

// Remove deletes a vehicle, dropping it from the store once the server confirms.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.gw.RemoveVehicle(ctx, id); err != nil {
		m.vehicles.SetError(apperror.UserMessage(err))
		return fmt.Errorf("failed to remove vehicle %s: %w", id, err)
	}
	m.vehicles.RemoveVehicle(id)
	m.vehicles.SetError("")

	m.mu.Lock()
	if m.editingID == id {
		m.editingID, m.form = "", Form{}
	}
	m.mu.Unlock()
	return nil
}

// Edit enters edit mode for vehicle id and returns the pre-filled form.
func (m *Manager) Edit(id string) (Form, error) {
	v, ok := m.vehicles.Get(id)
	if !ok {
		return Form{}, apperror.NewValidation("vehicle", "Vehicle not found")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editingID = id
	m.form = FormFrom(v)
	return m.form, nil
}

// CancelEdit leaves edit mode and clears the form.
func (m *Manager) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editingID, m.form = "", Form{}
}

// Editing returns the id being edited, if any.
func (m *Manager) Editing() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editingID, m.editingID != ""
}

// Form returns the current form contents.
func (m *Manager) Form() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

// Submit updates the edited vehicle in edit mode and creates a new one otherwise.
// Edit mode ends after a successful submit.
func (m *Manager) Submit(ctx context.Context, f Form) (model.Vehicle, error) {
	m.mu.Lock()
	id := m.editingID
	m.form = f
	m.mu.Unlock()

	var (
		v   model.Vehicle
		err error
	)
	if id != "" {
		v, err = m.Update(ctx, id, f)
	} else {
		v, err = m.Add(ctx, f)
	}
	if err != nil {
		return model.Vehicle{}, err
	}

	m.mu.Lock()
	if m.editingID == id {
		m.editingID, m.form = "", Form{}
	}
	m.mu.Unlock()
	return v, nil
}

func requestFrom(v model.Vehicle) model.VehicleRequest {
	return model.VehicleRequest{
		VehicleType:  v.VehicleType,
		Brand:        v.Brand,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		Color:        v.Color,
		Notes:        v.Notes,
	}
}
