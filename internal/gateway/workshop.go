package gateway

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
)

// FetchBookingRequests returns the employee view of all booking requests.
// Rows with an unrecognised status are kept as they are and expose no actions.
func (c *Client) FetchBookingRequests(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.WorkshopURL, "/api/bookings"), out: &bookings}); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if !b.CurrentStatus.Valid() {
			c.logger.Warn("booking request with unknown status",
				zap.String("booking_id", b.BookingID),
				zap.String("status", string(b.CurrentStatus)),
			)
		}
	}
	return bookings, nil
}

// UpdateBookingStatus moves a booking to status and returns the server's copy.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID string, status model.BookingStatus) (model.Booking, error) {
	var resp model.StatusUpdateResponse
	err := c.do(ctx, request{
		method: http.MethodPatch,
		url:    joinURL(c.cfg.WorkshopURL, "/api/bookings/"+url.PathEscape(bookingID)+"/status"),
		body:   model.StatusUpdate{NewStatus: status},
		out:    &resp,
	})
	if err != nil {
		return model.Booking{}, err
	}
	return resp.UpdatedBooking, nil
}

// ListVehicles returns the signed-in customer's vehicles.
func (c *Client) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.WorkshopURL, "/api/vehicle/get_vehicles"), out: &vehicles}); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// AddVehicle registers a vehicle and returns it with its server-assigned id.
func (c *Client) AddVehicle(ctx context.Context, req model.VehicleRequest) (model.Vehicle, error) {
	var resp struct {
		Message string        `json:"message"`
		Vehicle model.Vehicle `json:"vehicle"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    joinURL(c.cfg.WorkshopURL, "/api/vehicle/add_vehicles"),
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return model.Vehicle{}, err
	}
	return resp.Vehicle, nil
}

// UpdateVehicle applies patch to a vehicle and returns the server's copy.
func (c *Client) UpdateVehicle(ctx context.Context, id string, patch model.VehiclePatch) (model.Vehicle, error) {
	var v model.Vehicle
	err := c.do(ctx, request{
		method: http.MethodPut,
		url:    joinURL(c.cfg.WorkshopURL, "/api/vehicle/update_vehicle/"+url.PathEscape(id)),
		body:   patch,
		out:    &v,
	})
	if err != nil {
		return model.Vehicle{}, err
	}
	return v, nil
}

// RemoveVehicle deletes a vehicle.
func (c *Client) RemoveVehicle(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		url:    joinURL(c.cfg.WorkshopURL, "/api/vehicle/delete_vehicle/"+url.PathEscape(id)),
	})
}
