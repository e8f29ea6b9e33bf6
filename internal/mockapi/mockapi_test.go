package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoservice-dashboard/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// monday is 2025-11-03 08:00 UTC.
var monday = time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)

func newTestBackend() *Backend {
	return NewBackend(nil, WithClock(func() time.Time { return monday }))
}

func call(t *testing.T, h http.Handler, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestBookingAPI_Availability(t *testing.T) {
	api := NewBookingAPI(newTestBackend())

	t.Run("open day lists every slot", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/1/2025-11-04/1/", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		a := decode[model.Availability](t, w)
		assert.True(t, a.Available)
		require.Len(t, a.Slots, 16)
		assert.Equal(t, model.TimeSlot{StartTime: "09:00", EndTime: "09:30", GapRemainingAfter: 450}, a.Slots[0])
		assert.Equal(t, "16:30", a.Slots[15].StartTime)
	})

	t.Run("long services fit before closing", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/1/2025-11-04/3/", "", nil)
		a := decode[model.Availability](t, w)
		require.NotEmpty(t, a.Slots)
		assert.Equal(t, "17:00", a.Slots[len(a.Slots)-1].EndTime)
	})

	t.Run("sunday suggests other dates", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/1/2025-11-09/1/", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		a := decode[model.Availability](t, w)
		assert.False(t, a.Available)
		assert.Empty(t, a.Slots)
		require.Len(t, a.SuggestedDates, 3)
		assert.Equal(t, "2025-11-10", a.SuggestedDates[0].Date)
		require.NotNil(t, a.SuggestedDates[0].EarliestStart)
		assert.Equal(t, "09:00", *a.SuggestedDates[0].EarliestStart)
	})

	t.Run("past dates are rejected", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/1/2025-11-02/1/", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "detail")
	})

	t.Run("unknown center", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/99/2025-11-04/1/", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookingAPI_CreateBooking(t *testing.T) {
	b := newTestBackend()
	api := NewBookingAPI(b)

	payload := model.BookingPayload{
		CenterID: 1, ServiceID: 1, Date: "2025-11-04",
		StartTime: "09:00", EndTime: "09:30",
		CustomerName: "Kasun Perera", VehicleID: "veh-0001", VehicleName: "Toyota Corolla (ABC-1234)",
	}

	w := call(t, api, http.MethodPost, "/api/bookings/", "", payload, "X-Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[bookingJSON](t, w)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, "Colombo Central", created.Center.Name)
	assert.Equal(t, "Oil Change", created.Service.Name)

	t.Run("replayed key returns the same booking", func(t *testing.T) {
		w := call(t, api, http.MethodPost, "/api/bookings/", "", payload, "X-Idempotency-Key", "key-1")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int64(1), decode[bookingJSON](t, w).ID)
	})

	t.Run("taken slot conflicts", func(t *testing.T) {
		w := call(t, api, http.MethodPost, "/api/bookings/", "", payload, "X-Idempotency-Key", "key-2")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("booked slot disappears from availability", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/availability/1/2025-11-04/1/", "", nil)
		a := decode[model.Availability](t, w)
		require.Len(t, a.Slots, 15)
		assert.Equal(t, "09:30", a.Slots[0].StartTime)

		other := decode[model.Availability](t, call(t, api, http.MethodGet, "/api/availability/2/2025-11-04/1/", "", nil))
		assert.Len(t, other.Slots, 16)
	})

	t.Run("booking is mirrored as a workshop request", func(t *testing.T) {
		reqs := b.Requests()
		require.NotEmpty(t, reqs)
		assert.Equal(t, "BK-1", reqs[0].BookingID)
		assert.Equal(t, model.StatusPending, reqs[0].CurrentStatus)
		assert.Equal(t, "Corolla", reqs[0].Vehicle.Model)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		w := call(t, api, http.MethodGet, "/api/bookings/", "", nil)
		list := decode[[]bookingJSON](t, w)
		require.Len(t, list, 1)
		assert.Equal(t, "09:00", list[0].StartTime)
	})

	t.Run("missing name", func(t *testing.T) {
		p := payload
		p.CustomerName = " "
		p.StartTime, p.EndTime = "10:00", "10:30"
		w := call(t, api, http.MethodPost, "/api/bookings/", "", p)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func login(t *testing.T, api http.Handler, email string) string {
	t.Helper()
	w := call(t, api, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: email, Password: SeedPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.AuthResponse](t, w).AccessToken
}

func TestAccountAPI_Auth(t *testing.T) {
	b := newTestBackend()
	api := NewAccountAPI(b)

	token := login(t, api, CustomerEmail)

	w := call(t, api, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[model.User](t, w)
	assert.Equal(t, model.RoleCustomer, me.Role)
	assert.Equal(t, "Kasun", me.FirstName)

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(t, api, http.MethodGet, "/api/v1/users/me", "", nil).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := b.IssueToken(me.ID, -time.Minute)
		require.NoError(t, err)
		w := call(t, api, http.MethodGet, "/api/v1/users/me", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := call(t, api, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: CustomerEmail, Password: "nope-nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("register then duplicate", func(t *testing.T) {
		req := model.RegisterRequest{Email: "new@autoservice.test", Password: "secret1", FirstName: "New", LastName: "User"}
		w := call(t, api, http.MethodPost, "/api/v1/auth/register", "", req)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, decode[model.AuthResponse](t, w).AccessToken)

		assert.Equal(t, http.StatusConflict, call(t, api, http.MethodPost, "/api/v1/auth/register", "", req).Code)
	})

	t.Run("profile update and password change", func(t *testing.T) {
		phone := "+94770000000"
		w := call(t, api, http.MethodPut, "/api/v1/users/me", token, model.UserPatch{Phone: &phone})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, phone, decode[model.User](t, w).Phone)

		w = call(t, api, http.MethodPatch, "/api/v1/users/me/password", token,
			model.ChangePasswordRequest{CurrentPassword: "wrong!", NewPassword: "another1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = call(t, api, http.MethodPatch, "/api/v1/users/me/password", token,
			model.ChangePasswordRequest{CurrentPassword: SeedPassword, NewPassword: "another1"})
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestAccountAPI_Vehicles(t *testing.T) {
	api := NewAccountAPI(newTestBackend())
	token := login(t, api, CustomerEmail)

	list := decode[[]model.Vehicle](t, call(t, api, http.MethodGet, "/api/vehicle/get_vehicles", token, nil))
	require.Len(t, list, 2)

	w := call(t, api, http.MethodPost, "/api/vehicle/add_vehicles", token, model.VehicleRequest{
		VehicleType: "Van", Brand: "Nissan", Model: "Caravan", Year: 2015, LicensePlate: "PH-7788", Color: "White",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[struct {
		Vehicle model.Vehicle `json:"vehicle"`
	}](t, w).Vehicle
	assert.NotEmpty(t, added.ID)

	color := "Black"
	w = call(t, api, http.MethodPut, "/api/vehicle/update_vehicle/"+added.ID, token, model.VehiclePatch{Color: &color})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Black", decode[model.Vehicle](t, w).Color)
	assert.Equal(t, "Caravan", decode[model.Vehicle](t, w).Model)

	w = call(t, api, http.MethodPost, "/api/vehicle/add_vehicles", token, model.VehicleRequest{
		VehicleType: "Car", Brand: "Toyota", Model: "Corolla", Year: 2020, LicensePlate: "abc-1234",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusOK, call(t, api, http.MethodDelete, "/api/vehicle/delete_vehicle/"+added.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, api, http.MethodDelete, "/api/vehicle/delete_vehicle/"+added.ID, token, nil).Code)

	t.Run("vehicles are scoped to their owner", func(t *testing.T) {
		employee := login(t, api, EmployeeEmail)
		list := decode[[]model.Vehicle](t, call(t, api, http.MethodGet, "/api/vehicle/get_vehicles", employee, nil))
		assert.Empty(t, list)
	})
}

func TestAccountAPI_BookingRequests(t *testing.T) {
	b := newTestBackend()
	api := NewAccountAPI(b)
	token := login(t, api, EmployeeEmail)

	list := decode[[]model.Booking](t, call(t, api, http.MethodGet, "/api/bookings", token, nil))
	require.Len(t, list, 7)
	assert.Equal(t, "REQ-001", list[0].BookingID)
	assert.Equal(t, "Toyota", list[0].Vehicle.Brand)
	assert.Equal(t, "Oil Change", list[0].ServiceName)
	assert.Equal(t, model.StatusPending, list[0].CurrentStatus)

	w := call(t, api, http.MethodPatch, "/api/bookings/REQ-001/status", token, model.StatusUpdate{NewStatus: model.StatusAccepted})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.StatusUpdateResponse](t, w)
	assert.Equal(t, model.StatusAccepted, resp.UpdatedBooking.CurrentStatus)

	t.Run("transition outside the table", func(t *testing.T) {
		w := call(t, api, http.MethodPatch, "/api/bookings/REQ-005/status", token, model.StatusUpdate{NewStatus: model.StatusPending})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		w := call(t, api, http.MethodPatch, "/api/bookings/REQ-999/status", token, model.StatusUpdate{NewStatus: model.StatusAccepted})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("injected failure fires once", func(t *testing.T) {
		b.FailNext(http.MethodPatch, "/api/bookings/REQ-002/status", http.StatusInternalServerError, "Database unavailable")
		w := call(t, api, http.MethodPatch, "/api/bookings/REQ-002/status", token, model.StatusUpdate{NewStatus: model.StatusRejected})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Database unavailable"}`, w.Body.String())

		w = call(t, api, http.MethodPatch, "/api/bookings/REQ-002/status", token, model.StatusUpdate{NewStatus: model.StatusRejected})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
