package mockapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/mw"
)

const (
	tokenTTL   = 24 * time.Hour
	userIDKey  = "mock_user_id"
	minPassLen = 6
)

// NewAccountAPI returns the engine serving the auth, profile, vehicle and booking request APIs.
func NewAccountAPI(b *Backend) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog(b.logger.Named("account-api")), b.injectFailures("message"))

	authAPI := r.Group("/api/v1/auth")
	authAPI.POST("/login", b.login)
	authAPI.POST("/register", b.register)

	users := r.Group("/api/v1/users", b.requireAuth)
	users.GET("/me", b.getMe)
	users.PUT("/me", b.updateMe)
	users.PATCH("/me/password", b.changePassword)

	vehicles := r.Group("/api/vehicle", b.requireAuth)
	vehicles.GET("/get_vehicles", b.listVehicles)
	vehicles.POST("/add_vehicles", b.addVehicleHandler)
	vehicles.PUT("/update_vehicle/:id", b.updateVehicle)
	vehicles.DELETE("/delete_vehicle/:id", b.deleteVehicle)

	requests := r.Group("/api/bookings", b.requireAuth)
	requests.GET("", b.listRequests)
	requests.PATCH("/:id/status", b.updateRequestStatus)
	return r
}

// IssueToken signs an access token for user id with the given lifetime.
func (b *Backend) IssueToken(userID int64, ttl time.Duration) (string, error) {
	now := b.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *Backend) requireAuth(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
		return
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || b.accountByID(id) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unknown account"})
		return
	}
	c.Set(userIDKey, id)
	c.Next()
}

// accountByID must be called without b.mu held.
func (b *Backend) accountByID(id int64) *account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findAccount(id)
}

func (b *Backend) findAccount(id int64) *account {
	for _, a := range b.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (b *Backend) respondToken(c *gin.Context, status int, userID int64) {
	token, err := b.IssueToken(userID, tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
		return
	}
	c.JSON(status, model.AuthResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: int64(tokenTTL.Seconds())})
}

func (b *Backend) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	a, ok := b.accounts[strings.ToLower(req.Email)]
	b.mu.Unlock()
	if !ok || a.password != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
		return
	}
	b.respondToken(c, http.StatusOK, a.user.ID)
}

func (b *Backend) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if len(req.Password) < minPassLen {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Password is too short"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"message": "An account with this email already exists"})
		return
	}
	u := b.addAccount(model.User{
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      model.RoleCustomer,
	}, req.Password)
	b.mu.Unlock()

	b.logger.Info("account registered", zap.Int64("user_id", u.ID))
	b.respondToken(c, http.StatusCreated, u.ID)
}

func (b *Backend) getMe(c *gin.Context) {
	a := b.accountByID(c.GetInt64(userIDKey))
	c.JSON(http.StatusOK, a.user)
}

func (b *Backend) updateMe(c *gin.Context) {
	var patch model.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.findAccount(c.GetInt64(userIDKey))
	updated := patch.Apply(a.user)
	updated.Email = strings.ToLower(updated.Email)
	if updated.Email != a.user.Email {
		if _, taken := b.accounts[updated.Email]; taken {
			c.JSON(http.StatusConflict, gin.H{"message": "Email is already in use"})
			return
		}
		delete(b.accounts, a.user.Email)
		b.accounts[updated.Email] = a
	}
	a.user = updated
	c.JSON(http.StatusOK, a.user)
}

func (b *Backend) changePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.findAccount(c.GetInt64(userIDKey))
	if a.password != req.CurrentPassword {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is incorrect"})
		return
	}
	if len(req.NewPassword) < minPassLen {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Password is too short"})
		return
	}
	a.password = req.NewPassword
	c.Status(http.StatusNoContent)
}

func (b *Backend) listVehicles(c *gin.Context) {
	owner := c.GetInt64(userIDKey)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.Vehicle{}
	for _, r := range b.vehicles {
		if r.owner == owner {
			out = append(out, r.vehicle)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) addVehicleHandler(c *gin.Context) {
	var req model.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if req.Brand == "" || req.Model == "" || req.LicensePlate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Brand, model and license plate are required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.vehicles {
		if strings.EqualFold(r.vehicle.LicensePlate, req.LicensePlate) {
			c.JSON(http.StatusConflict, gin.H{"message": "A vehicle with this license plate already exists"})
			return
		}
	}
	v := b.addVehicle(c.GetInt64(userIDKey), model.Vehicle{
		VehicleType:  req.VehicleType,
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		Notes:        req.Notes,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Vehicle added successfully", "vehicle": v})
}

// ownedVehicle must be called with b.mu held.
func (b *Backend) ownedVehicle(c *gin.Context) *vehicleRecord {
	id, owner := c.Param("id"), c.GetInt64(userIDKey)
	for _, r := range b.vehicles {
		if r.vehicle.ID == id && r.owner == owner {
			return r
		}
	}
	return nil
}

func (b *Backend) updateVehicle(c *gin.Context) {
	var patch model.VehiclePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.ownedVehicle(c)
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Vehicle not found"})
		return
	}
	r.vehicle = patch.Apply(r.vehicle)
	c.JSON(http.StatusOK, r.vehicle)
}

func (b *Backend) deleteVehicle(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := b.ownedVehicle(c)
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Vehicle not found"})
		return
	}
	kept := b.vehicles[:0]
	for _, v := range b.vehicles {
		if v != r {
			kept = append(kept, v)
		}
	}
	b.vehicles = kept
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"})
}

func (b *Backend) listRequests(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Booking, len(b.requests))
	for i, r := range b.requests {
		out[i] = *r
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) updateRequestStatus(c *gin.Context) {
	var req model.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil || !req.NewStatus.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var target *model.Booking
	for _, r := range b.requests {
		if r.BookingID == c.Param("id") {
			target = r
			break
		}
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Booking not found"})
		return
	}
	if !model.CanTransition(target.CurrentStatus, req.NewStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot change status from " + string(target.CurrentStatus) + " to " + string(req.NewStatus)})
		return
	}

	from := target.CurrentStatus
	target.CurrentStatus = req.NewStatus
	b.logger.Info("booking status updated",
		zap.String("booking_id", target.BookingID),
		zap.String("from", string(from)),
		zap.String("to", string(req.NewStatus)),
	)
	c.JSON(http.StatusOK, model.StatusUpdateResponse{Message: "Booking status updated", UpdatedBooking: *target})
}
