package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"autoservice-dashboard/internal/model"
)

const (
	cacheKeyCenters  = "centers"
	cacheKeyServices = "services"
)

// ListCenters returns the service centers. The answer is cached.
func (c *Client) ListCenters(ctx context.Context) ([]model.Center, error) {
	if v, ok := c.cache.Get(cacheKeyCenters); ok {
		return v.([]model.Center), nil
	}

	var centers []model.Center
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.BookingURL, "/centers/"), out: &centers}); err != nil {
		return nil, err
	}
	c.cache.SetDefault(cacheKeyCenters, centers)
	return centers, nil
}

// ListServices returns the bookable services. The answer is cached.
func (c *Client) ListServices(ctx context.Context) ([]model.Service, error) {
	if v, ok := c.cache.Get(cacheKeyServices); ok {
		return v.([]model.Service), nil
	}

	var services []model.Service
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.BookingURL, "/services/"), out: &services}); err != nil {
		return nil, err
	}
	c.cache.SetDefault(cacheKeyServices, services)
	return services, nil
}

// CheckAvailability queries the free slots for a center, date and service. Never cached.
func (c *Client) CheckAvailability(ctx context.Context, centerID int64, date string, serviceID int64) (*model.Availability, error) {
	path := fmt.Sprintf("/availability/%d/%s/%d/", centerID, url.PathEscape(date), serviceID)

	var result model.Availability
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.BookingURL, path), out: &result}); err != nil {
		return nil, err
	}
	result.Normalize()
	return &result, nil
}

// CreateBooking submits a new booking. Each call carries a fresh idempotency key.
func (c *Client) CreateBooking(ctx context.Context, payload model.BookingPayload) (model.Booking, error) {
	var created customerBooking
	err := c.do(ctx, request{
		method:         http.MethodPost,
		url:            joinURL(c.cfg.BookingURL, "/bookings/"),
		body:           payload,
		out:            &created,
		idempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return model.Booking{}, err
	}
	return created.toBooking(), nil
}

// ListBookings returns the customer's bookings from the booking API.
func (c *Client) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var list []customerBooking
	if err := c.do(ctx, request{method: http.MethodGet, url: joinURL(c.cfg.BookingURL, "/bookings/"), out: &list}); err != nil {
		return nil, err
	}
	bookings := make([]model.Booking, len(list))
	for i, b := range list {
		bookings[i] = b.toBooking()
	}
	return bookings, nil
}

// customerBooking is the booking shape of the booking API.
type customerBooking struct {
	ID           int64         `json:"id"`
	Status       string        `json:"status"`
	CreatedAt    string        `json:"created_at"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	CustomerName string        `json:"customer_name"`
	CenterID     int64         `json:"center_id"`
	ServiceID    int64         `json:"service_id"`
	Center       model.Center  `json:"center"`
	Service      model.Service `json:"service"`
	VehicleID    string        `json:"vehicle_id"`
	VehicleName  string        `json:"vehicle_Name"`
}

func (b customerBooking) toBooking() model.Booking {
	status := model.StatusPending
	if strings.TrimSpace(b.Status) != "" {
		status = model.StatusFromWire(b.Status)
	}
	id := strconv.FormatInt(b.ID, 10)
	return model.Booking{
		ID:            id,
		BookingID:     id,
		CustomerName:  b.CustomerName,
		CurrentStatus: status,
		Date:          b.Date,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		ServiceName:   b.Service.Name,
		CenterName:    b.Center.Name,
		Vehicle:       model.Vehicle{ID: b.VehicleID, Model: b.VehicleName},
	}
}
