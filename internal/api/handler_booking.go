package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/booking"
	"autoservice-dashboard/internal/model"
)

// Gateway is the subset of the remote gateway read directly by handlers.
type Gateway interface {
	ListCenters(ctx context.Context) ([]model.Center, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
}

// GetCenters handles GET /api/centers.
func (h *Handler) GetCenters(c *gin.Context) {
	centers, err := h.Gateway.ListCenters(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, centers)
}

// GetServices handles GET /api/services.
func (h *Handler) GetServices(c *gin.Context) {
	services, err := h.Gateway.ListServices(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// bookingFormResponse is the JSON view of the booking form state.
type bookingFormResponse struct {
	Centers           []model.Center      `json:"centers"`
	Services          []model.Service     `json:"services"`
	CenterID          int64               `json:"centerId"`
	ServiceID         int64               `json:"serviceId"`
	Date              string              `json:"date"`
	MinDate           string              `json:"minDate"`
	Slot              *model.TimeSlot     `json:"slot"`
	VehicleID         string              `json:"vehicleId"`
	CustomerName      string              `json:"customerName"`
	Availability      *model.Availability `json:"availability"`
	SelectionComplete bool                `json:"selectionComplete"`
	Loading           bool                `json:"loading"`
	Submitting        bool                `json:"submitting"`
	Success           string              `json:"success,omitempty"`
	Error             string              `json:"error,omitempty"`
}

func (h *Handler) bookingForm() bookingFormResponse {
	st := h.Booking.Snapshot()
	return bookingFormResponse{
		Centers:           st.Centers,
		Services:          st.Services,
		CenterID:          st.CenterID,
		ServiceID:         st.ServiceID,
		Date:              st.Date,
		MinDate:           h.Booking.MinDate(),
		Slot:              st.Slot,
		VehicleID:         st.VehicleID,
		CustomerName:      st.CustomerName,
		Availability:      st.Availability,
		SelectionComplete: st.SelectionComplete(),
		Loading:           st.Loading,
		Submitting:        st.Submitting,
		Success:           st.Success,
		Error:             st.Error,
	}
}

// GetBookingForm handles GET /api/booking.
func (h *Handler) GetBookingForm(c *gin.Context) {
	c.JSON(http.StatusOK, h.bookingForm())
}

// LoadBookingForm handles POST /api/booking/load.
func (h *Handler) LoadBookingForm(c *gin.Context) {
	if err := h.Booking.LoadReferenceData(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.bookingForm())
}

type selectionRequest struct {
	CenterID  *int64  `json:"centerId"`
	ServiceID *int64  `json:"serviceId"`
	Date      *string `json:"date"`
}

// PutSelection handles PUT /api/booking/selection. Omitted fields keep their value.
func (h *Handler) PutSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	st := h.Booking.Snapshot()
	centerID, serviceID, date := st.CenterID, st.ServiceID, st.Date
	if req.CenterID != nil {
		centerID = *req.CenterID
	}
	if req.ServiceID != nil {
		serviceID = *req.ServiceID
	}
	if req.Date != nil {
		date = *req.Date
	}

	if err := h.Booking.SetSelection(c.Request.Context(), centerID, serviceID, date); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.bookingForm())
}

// RefreshAvailability handles POST /api/booking/refresh.
func (h *Handler) RefreshAvailability(c *gin.Context) {
	if err := h.Booking.Refresh(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.bookingForm())
}

// PutSlot handles PUT /api/booking/slot.
func (h *Handler) PutSlot(c *gin.Context) {
	var slot model.TimeSlot
	if err := c.ShouldBindJSON(&slot); err != nil || slot.StartTime == "" || slot.EndTime == "" {
		badRequest(c)
		return
	}
	if err := h.Booking.SelectSlot(slot); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.bookingForm())
}

// DeleteSlot handles DELETE /api/booking/slot.
func (h *Handler) DeleteSlot(c *gin.Context) {
	h.Booking.CancelSlot()
	c.JSON(http.StatusOK, h.bookingForm())
}

type vehicleSelectionRequest struct {
	VehicleID string `json:"vehicleId"`
}

// PutBookingVehicle handles PUT /api/booking/vehicle.
func (h *Handler) PutBookingVehicle(c *gin.Context) {
	var req vehicleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.Booking.SelectVehicle(req.VehicleID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.bookingForm())
}

type customerRequest struct {
	CustomerName string `json:"customerName"`
}

// PutCustomerName handles PUT /api/booking/customer.
func (h *Handler) PutCustomerName(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.Booking.SetCustomerName(req.CustomerName)
	c.JSON(http.StatusOK, h.bookingForm())
}

// ResetBookingForm handles POST /api/booking/reset.
func (h *Handler) ResetBookingForm(c *gin.Context) {
	h.Booking.Reset()
	c.JSON(http.StatusOK, h.bookingForm())
}

// SubmitBooking handles POST /api/booking/submit.
func (h *Handler) SubmitBooking(c *gin.Context) {
	created, err := h.Booking.Submit(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": booking.SuccessMessage,
		"booking": created,
		"form":    h.bookingForm(),
	})
}

// GetBookings handles GET /api/bookings: the bookings held by the client store.
// With ?refresh=true the customer's bookings are reloaded from the booking API first.
func (h *Handler) GetBookings(c *gin.Context) {
	if c.Query("refresh") == "true" {
		h.Bookings.SetLoading(true)
		list, err := h.Gateway.ListBookings(c.Request.Context())
		h.Bookings.SetLoading(false)
		if err != nil {
			h.Bookings.SetError(apperror.UserMessage(err))
			h.respondError(c, err)
			return
		}
		h.Bookings.SetBookings(list)
		h.Bookings.SetError("")
	}

	st := h.Bookings.Snapshot()
	list := make([]model.Booking, 0, len(st.Bookings))
	for _, b := range st.Bookings {
		list = append(list, *b)
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list, "loading": st.IsLoading, "error": st.Error})
}
