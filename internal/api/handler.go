package api

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/apperror"
	"autoservice-dashboard/internal/auth"
	"autoservice-dashboard/internal/booking"
	"autoservice-dashboard/internal/db"
	"autoservice-dashboard/internal/status"
	"autoservice-dashboard/internal/store"
	"autoservice-dashboard/internal/vehicle"
)

// LoginPath is where the client is sent after the session was torn down.
const LoginPath = "/login"

// Navigator records that the gateway asked for a redirect to the login page.
// The next API response carries the redirect.
type Navigator struct {
	pending atomic.Bool
}

// RedirectToLogin marks a pending redirect.
func (n *Navigator) RedirectToLogin() { n.pending.Store(true) }

// Take returns and clears the pending redirect.
func (n *Navigator) Take() bool { return n.pending.Swap(false) }

// Deps are the components served by the API.
type Deps struct {
	Booking       *booking.Workflow
	Status        *status.Workflow
	Vehicles      *vehicle.Manager
	Auth          *auth.Service
	Session       *store.SessionStore
	Bookings      *store.BookingStore
	VehicleStore  *store.VehicleStore
	Gateway       Gateway
	Subscriptions *db.SubscriptionRepository
	WebPush       *webpush.Options
	Navigator     *Navigator
	Logger        *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Navigator == nil {
		d.Navigator = &Navigator{}
	}
	return &Handler{Deps: d}
}

// respondError maps err onto a status code and a JSON body carrying the display message.
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	msg := apperror.UserMessage(err)

	var (
		verr *apperror.ValidationError
		nerr *apperror.NetworkError
		serr *apperror.ServerError
	)
	switch {
	case apperror.IsAuth(err):
		h.Navigator.Take()
		loginRedirect(c)
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "field": verr.Field})
	case errors.Is(err, status.ErrTransitionInFlight), errors.Is(err, booking.ErrSubmissionInFlight):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "The previous request is still being processed"})
	case errors.As(err, &nerr):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msg, "retryable": true})
	case errors.As(err, &serr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": msg, "status": serr.StatusCode})
	case errors.Is(err, db.ErrSubscriptionNotFound), errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.Logger.Error("unhandled api error", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": apperror.GenericMessage})
	}
}

// sessionRedirect answers with the login redirect when the session was torn down
// since the previous response, for instance by a background refresh.
// Sign-in routes pass through; a successful sign-in clears the redirect.
func (h *Handler) sessionRedirect(c *gin.Context) {
	switch c.FullPath() {
	case "/api/auth/login", "/api/auth/register", "/api/auth/logout":
		c.Next()
		return
	}
	if h.Navigator.Take() {
		loginRedirect(c)
		return
	}
	c.Next()
}

func loginRedirect(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperror.UserMessage(&apperror.AuthError{}), "redirect": LoginPath})
}

// badRequest answers a request whose body could not be bound.
func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
