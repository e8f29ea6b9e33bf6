package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/vehicle"
)

// GetVehicles handles GET /api/vehicles. ?refresh=true reloads from the workshop API.
func (h *Handler) GetVehicles(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := h.Vehicles.Load(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return
		}
	}
	st := h.VehicleStore.Snapshot()
	list := make([]model.Vehicle, 0, len(st.Vehicles))
	for _, v := range st.Vehicles {
		list = append(list, *v)
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": list, "types": model.VehicleTypes, "error": st.Error})
}

// PostVehicle handles POST /api/vehicles.
func (h *Handler) PostVehicle(c *gin.Context) {
	var f vehicle.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c)
		return
	}
	v, err := h.Vehicles.Add(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// PutVehicle handles PUT /api/vehicles/:id.
func (h *Handler) PutVehicle(c *gin.Context) {
	var f vehicle.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c)
		return
	}
	v, err := h.Vehicles.Update(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DeleteVehicle handles DELETE /api/vehicles/:id.
func (h *Handler) DeleteVehicle(c *gin.Context) {
	if err := h.Vehicles.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type vehicleFormResponse struct {
	Editing   bool         `json:"editing"`
	VehicleID string       `json:"vehicleId,omitempty"`
	Form      vehicle.Form `json:"form"`
}

func (h *Handler) vehicleForm() vehicleFormResponse {
	id, editing := h.Vehicles.Editing()
	return vehicleFormResponse{Editing: editing, VehicleID: id, Form: h.Vehicles.Form()}
}

// GetVehicleForm handles GET /api/vehicle-form.
func (h *Handler) GetVehicleForm(c *gin.Context) {
	c.JSON(http.StatusOK, h.vehicleForm())
}

// EditVehicle handles POST /api/vehicle-form/edit/:id.
func (h *Handler) EditVehicle(c *gin.Context) {
	if _, err := h.Vehicles.Edit(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.vehicleForm())
}

// CancelVehicleEdit handles DELETE /api/vehicle-form.
func (h *Handler) CancelVehicleEdit(c *gin.Context) {
	h.Vehicles.CancelEdit()
	c.JSON(http.StatusOK, h.vehicleForm())
}

// SubmitVehicleForm handles POST /api/vehicle-form/submit: update in edit mode, add otherwise.
func (h *Handler) SubmitVehicleForm(c *gin.Context) {
	var f vehicle.Form
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c)
		return
	}
	v, err := h.Vehicles.Submit(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": v, "form": h.vehicleForm()})
}
