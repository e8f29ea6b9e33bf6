package store

import "autoservice-dashboard/internal/model"

// VehicleState is the snapshot held by a VehicleStore.
type VehicleState struct {
	Vehicles  []*model.Vehicle
	IsLoading bool
	Error     string
}

// VehicleStore mirrors the customer's vehicles.
type VehicleStore struct {
	c *Container[VehicleState]
}

// NewVehicleStore creates an empty vehicle store.
func NewVehicleStore() *VehicleStore {
	return &VehicleStore{c: NewContainer(VehicleState{Vehicles: []*model.Vehicle{}})}
}

func (s *VehicleStore) Snapshot() VehicleState { return s.c.Get() }

func (s *VehicleStore) Vehicles() []*model.Vehicle { return s.c.Get().Vehicles }

func (s *VehicleStore) Subscribe(l Listener[VehicleState]) func() { return s.c.Subscribe(l) }

// Get returns a copy of the vehicle with the given id.
func (s *VehicleStore) Get(id string) (model.Vehicle, bool) {
	for _, v := range s.c.Get().Vehicles {
		if v.ID == id {
			return *v, true
		}
	}
	return model.Vehicle{}, false
}

func (s *VehicleStore) SetVehicles(vehicles []model.Vehicle) {
	list := make([]*model.Vehicle, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		list[i] = &v
	}
	s.c.Update(func(st VehicleState) VehicleState {
		st.Vehicles = list
		return st
	})
}

// AddVehicle prepends v.
func (s *VehicleStore) AddVehicle(v model.Vehicle) {
	s.c.Update(func(st VehicleState) VehicleState {
		list := make([]*model.Vehicle, 0, len(st.Vehicles)+1)
		list = append(list, &v)
		st.Vehicles = append(list, st.Vehicles...)
		return st
	})
}

// UpdateVehicle shallow-merges patch into the vehicle with the given id.
func (s *VehicleStore) UpdateVehicle(id string, patch model.VehiclePatch) error {
	found := false
	s.c.Update(func(st VehicleState) VehicleState {
		for i, v := range st.Vehicles {
			if v.ID != id {
				continue
			}
			found = true
			next := patch.Apply(*v)
			st.Vehicles = replaceAt(st.Vehicles, i, &next)
			break
		}
		return st
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *VehicleStore) RemoveVehicle(id string) {
	s.c.Update(func(st VehicleState) VehicleState {
		list := make([]*model.Vehicle, 0, len(st.Vehicles))
		for _, v := range st.Vehicles {
			if v.ID != id {
				list = append(list, v)
			}
		}
		st.Vehicles = list
		return st
	})
}

func (s *VehicleStore) SetLoading(loading bool) {
	s.c.Update(func(st VehicleState) VehicleState {
		st.IsLoading = loading
		return st
	})
}

func (s *VehicleStore) SetError(msg string) {
	s.c.Update(func(st VehicleState) VehicleState {
		st.Error = msg
		return st
	})
}
