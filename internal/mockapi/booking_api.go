package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/mw"
)

// bookingJSON is the booking shape of the booking API.
type bookingJSON struct {
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

// NewBookingAPI returns the engine for the booking API, mounted under /api.
func NewBookingAPI(b *Backend) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog(b.logger.Named("booking-api")), b.injectFailures("detail"))

	api := r.Group("/api")
	api.GET("/centers/", b.listCenters)
	api.GET("/services/", b.listServices)
	api.GET("/availability/:center/:date/:service/", b.checkAvailability)
	api.GET("/bookings/", b.listCustomerBookings)
	api.POST("/bookings/", b.createBooking)
	return r
}

func (b *Backend) listCenters(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.centers)
}

func (b *Backend) listServices(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.services)
}

func (b *Backend) checkAvailability(c *gin.Context) {
	centerID, err1 := strconv.ParseInt(c.Param("center"), 10, 64)
	serviceID, err2 := strconv.ParseInt(c.Param("service"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "center and service must be integers"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	result, err := b.availability(centerID, c.Param("date"), serviceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (b *Backend) bookingJSON(bk *customerBooking) bookingJSON {
	center, _ := b.center(bk.CenterID)
	svc, _ := b.service(bk.ServiceID)
	return bookingJSON{
		ID:           bk.ID,
		Status:       string(bk.request.CurrentStatus),
		CreatedAt:    bk.CreatedAt.Format(time.RFC3339),
		Date:         bk.Date,
		StartTime:    clock(bk.Start),
		EndTime:      clock(bk.End),
		CustomerName: bk.CustomerName,
		CenterID:     bk.CenterID,
		ServiceID:    bk.ServiceID,
		Center:       center,
		Service:      svc,
		VehicleID:    bk.VehicleID,
		VehicleName:  bk.VehicleName,
	}
}

func (b *Backend) listCustomerBookings(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bookingJSON, 0, len(b.bookings))
	for i := len(b.bookings) - 1; i >= 0; i-- {
		out = append(out, b.bookingJSON(b.bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createBooking(c *gin.Context) {
	var p model.BookingPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid booking payload"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := c.GetHeader("X-Idempotency-Key")
	if id, ok := b.idempotency[key]; ok && key != "" {
		for _, bk := range b.bookings {
			if bk.ID == id {
				c.JSON(http.StatusCreated, b.bookingJSON(bk))
				return
			}
		}
	}

	if strings.TrimSpace(p.CustomerName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Customer name is required"})
		return
	}
	svc, ok := b.service(p.ServiceID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unknown service"})
		return
	}
	center, ok := b.center(p.CenterID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unknown center"})
		return
	}
	start, ok1 := parseClock(p.StartTime)
	end, ok2 := parseClock(p.EndTime)
	if !ok1 || !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid start or end time"})
		return
	}

	result, err := b.availability(p.CenterID, p.Date, p.ServiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if !result.HasSlot(model.TimeSlot{StartTime: clock(start), EndTime: clock(end)}) {
		c.JSON(http.StatusConflict, gin.H{"detail": "The selected time slot is no longer available"})
		return
	}

	id := b.nextID
	b.nextID++
	request := &model.Booking{
		ID:            "bk-" + strconv.FormatInt(id, 10),
		BookingID:     "BK-" + strconv.FormatInt(id, 10),
		CustomerName:  strings.TrimSpace(p.CustomerName),
		CurrentStatus: model.StatusPending,
		Date:          p.Date + "T" + clock(start) + ":00Z",
		StartTime:     clock(start),
		EndTime:       clock(end),
		ServiceName:   svc.Name,
		CenterName:    center.Name,
		Vehicle:       model.Vehicle{ID: p.VehicleID, Model: p.VehicleName},
	}
	if v := b.vehicleByID(p.VehicleID); v != nil {
		request.Vehicle = *v
	}
	bk := &customerBooking{
		ID:           id,
		CreatedAt:    b.now().UTC(),
		Date:         p.Date,
		Start:        start,
		End:          end,
		CustomerName: request.CustomerName,
		CustomerID:   p.CustomerID,
		CenterID:     p.CenterID,
		ServiceID:    p.ServiceID,
		VehicleID:    p.VehicleID,
		VehicleName:  p.VehicleName,
		request:      request,
	}
	b.bookings = append(b.bookings, bk)
	b.requests = append([]*model.Booking{request}, b.requests...)
	if key != "" {
		b.idempotency[key] = id
	}

	b.logger.Info("booking created",
		zap.Int64("id", id),
		zap.Int64("center_id", p.CenterID),
		zap.String("date", p.Date),
		zap.String("start", clock(start)),
	)
	c.JSON(http.StatusCreated, b.bookingJSON(bk))
}

func (b *Backend) vehicleByID(id string) *model.Vehicle {
	for _, r := range b.vehicles {
		if r.vehicle.ID == id {
			v := r.vehicle
			return &v
		}
	}
	return nil
}
