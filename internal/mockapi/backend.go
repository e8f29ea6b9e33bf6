// Package mockapi serves in-memory stand-ins for the booking, auth and workshop REST APIs.
package mockapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
)

const (
	dateLayout  = "2006-01-02"
	openMinute  = 9 * 60
	closeMinute = 17 * 60
	slotStep    = 30
)

// customerBooking is a booking made through the booking API.
// Its status lives on the mirrored workshop request.
type customerBooking struct {
	ID           int64
	CreatedAt    time.Time
	Date         string
	Start        int
	End          int
	CustomerName string
	CustomerID   string
	CenterID     int64
	ServiceID    int64
	VehicleID    string
	VehicleName  string
	request      *model.Booking
}

type account struct {
	user     model.User
	password string
}

type vehicleRecord struct {
	owner   int64
	vehicle model.Vehicle
}

type failure struct {
	status  int
	message string
}

// Backend is the shared state behind the mock engines. Safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	centers  []model.Center
	services []model.Service

	bookings    []*customerBooking
	nextID      int64
	idempotency map[string]int64

	requests []*model.Booking

	accounts   map[string]*account
	nextUserID int64
	vehicles   []*vehicleRecord
	nextVehID  int

	failures map[string]failure

	secret []byte
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock overrides the clock used for date checks and token expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithSecret sets the HS256 key used to sign access tokens.
func WithSecret(secret string) Option {
	return func(b *Backend) { b.secret = []byte(secret) }
}

// NewBackend creates a backend seeded with reference data, accounts, vehicles and booking requests.
func NewBackend(logger *zap.Logger, opts ...Option) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{
		idempotency: make(map[string]int64),
		accounts:    make(map[string]*account),
		failures:    make(map[string]failure),
		secret:      []byte("mock-backend-secret"),
		now:         time.Now,
		logger:      logger,
		nextID:      1,
		nextUserID:  1,
		nextVehID:   1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.seed()
	return b
}

// FailNext makes the next request to method and path answer with status and message.
func (b *Backend) FailNext(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns a copy of the workshop booking requests.
func (b *Backend) Requests() []model.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Booking, len(b.requests))
	for i, r := range b.requests {
		out[i] = *r
	}
	return out
}

// injectFailures answers with a queued failure for the request, once.
func (b *Backend) injectFailures(errorKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path
		b.mu.Lock()
		f, ok := b.failures[key]
		if ok {
			delete(b.failures, key)
		}
		b.mu.Unlock()

		if ok {
			b.logger.Debug("injected failure", zap.String("route", key), zap.Int("status", f.status))
			c.AbortWithStatusJSON(f.status, gin.H{errorKey: f.message})
			return
		}
		c.Next()
	}
}

func (b *Backend) center(id int64) (model.Center, bool) {
	for _, c := range b.centers {
		if c.ID == id {
			return c, true
		}
	}
	return model.Center{}, false
}

func (b *Backend) service(id int64) (model.Service, bool) {
	for _, s := range b.services {
		if s.ID == id {
			return s, true
		}
	}
	return model.Service{}, false
}

func (b *Backend) today() time.Time {
	now := b.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

type interval struct{ start, end int }

// busy returns the occupied intervals of a center on date, sorted by start.
func (b *Backend) busy(centerID int64, date string) []interval {
	var out []interval
	for _, bk := range b.bookings {
		if bk.CenterID != centerID || bk.Date != date || bk.request.CurrentStatus == model.StatusRejected {
			continue
		}
		out = append(out, interval{bk.Start, bk.End})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// freeSlots lists the slots for a service duration that fit between opening hours and existing bookings.
func (b *Backend) freeSlots(centerID int64, date string, duration int) []model.TimeSlot {
	taken := b.busy(centerID, date)
	var slots []model.TimeSlot
	for start := openMinute; start+duration <= closeMinute; start += slotStep {
		end := start + duration
		gapEnd := closeMinute
		clash := false
		for _, t := range taken {
			if start < t.end && t.start < end {
				clash = true
				break
			}
			if t.start >= end && t.start < gapEnd {
				gapEnd = t.start
			}
		}
		if clash {
			continue
		}
		slots = append(slots, model.TimeSlot{
			StartTime:         clock(start),
			EndTime:           clock(end),
			GapRemainingAfter: gapEnd - end,
		})
	}
	return slots
}

// availability answers an availability query; the error is a client error message.
func (b *Backend) availability(centerID int64, date string, serviceID int64) (model.Availability, error) {
	if _, ok := b.center(centerID); !ok {
		return model.Availability{}, fmt.Errorf("Center %d not found", centerID)
	}
	svc, ok := b.service(serviceID)
	if !ok {
		return model.Availability{}, fmt.Errorf("Service %d not found", serviceID)
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return model.Availability{}, fmt.Errorf("Invalid date %q, expected YYYY-MM-DD", date)
	}
	if day.Before(b.today()) {
		return model.Availability{}, fmt.Errorf("Cannot book a date in the past")
	}

	if day.Weekday() == time.Sunday {
		return model.Availability{
			Available:      false,
			Slots:          []model.TimeSlot{},
			Message:        "The center is closed on Sundays",
			SuggestedDates: b.suggest(centerID, day, svc.DurationMinutes),
		}, nil
	}

	slots := b.freeSlots(centerID, date, svc.DurationMinutes)
	if len(slots) == 0 {
		return model.Availability{
			Available:      false,
			Slots:          []model.TimeSlot{},
			Message:        "No time slots are available on this date",
			SuggestedDates: b.suggest(centerID, day, svc.DurationMinutes),
		}, nil
	}
	return model.Availability{Available: true, Slots: slots}, nil
}

// suggest returns up to three following open dates with free slots.
func (b *Backend) suggest(centerID int64, from time.Time, duration int) []model.SuggestedDate {
	var out []model.SuggestedDate
	for day := from.AddDate(0, 0, 1); len(out) < 3 && day.Before(from.AddDate(0, 0, 14)); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Sunday {
			continue
		}
		slots := b.freeSlots(centerID, day.Format(dateLayout), duration)
		if len(slots) == 0 {
			continue
		}
		earliest := slots[0].StartTime
		out = append(out, model.SuggestedDate{Date: day.Format(dateLayout), NumSlots: len(slots), EarliestStart: &earliest})
	}
	return out
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
