package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/mw"
)

// NewRouter creates and configures the dashboard router.
// Idle rate limiter entries are swept until ctx is done.
func NewRouter(ctx context.Context, h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog(h.Logger))

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	limiter := mw.NewIPRateLimiter(limit, cfg.RateLimitBurst)

	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.CacheTTLSeconds > 0 {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		caching = mw.Cache(cache.New(ttl, 2*ttl), ttl)
	}

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter), h.sessionRedirect)
	{
		api.GET("/centers", caching, h.GetCenters)
		api.GET("/services", caching, h.GetServices)

		form := api.Group("/booking")
		form.GET("", h.GetBookingForm)
		form.POST("/load", h.LoadBookingForm)
		form.PUT("/selection", h.PutSelection)
		form.POST("/refresh", h.RefreshAvailability)
		form.PUT("/slot", h.PutSlot)
		form.DELETE("/slot", h.DeleteSlot)
		form.PUT("/vehicle", h.PutBookingVehicle)
		form.PUT("/customer", h.PutCustomerName)
		form.POST("/reset", h.ResetBookingForm)
		form.POST("/submit", h.SubmitBooking)

		api.GET("/bookings", h.GetBookings)

		api.GET("/requests", h.GetRequests)
		api.GET("/requests/counts", h.GetRequestCounts)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/transition", h.PostTransition)

		api.GET("/vehicles", h.GetVehicles)
		api.POST("/vehicles", h.PostVehicle)
		api.PUT("/vehicles/:id", h.PutVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)

		api.GET("/vehicle-form", h.GetVehicleForm)
		api.DELETE("/vehicle-form", h.CancelVehicleEdit)
		api.POST("/vehicle-form/edit/:id", h.EditVehicle)
		api.POST("/vehicle-form/submit", h.SubmitVehicleForm)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", h.PostLogin)
		authGroup.POST("/register", h.PostRegister)
		authGroup.POST("/logout", h.PostLogout)
		authGroup.GET("/me", h.GetMe)
		authGroup.PUT("/profile", h.PutProfile)
		authGroup.PATCH("/password", h.PatchPassword)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()

	return r
}
