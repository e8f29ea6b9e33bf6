package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice-dashboard/internal/model"
)

func TestVehicleStore(t *testing.T) {
	s := NewVehicleStore()
	s.SetVehicles([]model.Vehicle{
		{ID: "v1", Brand: "Toyota", Model: "Corolla", Color: "White"},
		{ID: "v2", Brand: "Honda", Model: "Civic"},
	})
	before := s.Vehicles()

	s.AddVehicle(model.Vehicle{ID: "v3", Brand: "Mazda"})
	require.Len(t, s.Vehicles(), 3)
	assert.Equal(t, "v3", s.Vehicles()[0].ID)

	color := "Red"
	require.NoError(t, s.UpdateVehicle("v1", model.VehiclePatch{Color: &color}))
	v1, ok := s.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "Red", v1.Color)
	assert.Equal(t, "Corolla", v1.Model)
	assert.Same(t, before[1], s.Vehicles()[2])

	assert.ErrorIs(t, s.UpdateVehicle("nope", model.VehiclePatch{}), ErrNotFound)

	s.RemoveVehicle("v2")
	_, ok = s.Get("v2")
	assert.False(t, ok)
	assert.Len(t, s.Vehicles(), 2)
}
