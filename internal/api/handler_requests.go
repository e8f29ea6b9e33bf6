package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoservice-dashboard/internal/model"
)

// requestView is a booking request with the actions currently offered for it.
type requestView struct {
	model.Booking
	Actions  []model.Action `json:"actions"`
	InFlight bool           `json:"inFlight"`
}

func (h *Handler) requestView(b model.Booking) requestView {
	actions := h.Status.AvailableActions(b.BookingID)
	if actions == nil {
		actions = []model.Action{}
	}
	return requestView{Booking: b, Actions: actions, InFlight: h.Status.InFlight(b.BookingID)}
}

// GetRequests handles GET /api/requests. ?status filters, ?refresh=true reloads from the workshop API.
func (h *Handler) GetRequests(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := h.Status.Refresh(c.Request.Context()); err != nil {
			h.respondError(c, err)
			return
		}
	}

	var filter model.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s, err := model.ParseStatus(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
		filter = s
	}

	list := h.Status.Filter(filter)
	out := make([]requestView, 0, len(list))
	for _, b := range list {
		out = append(out, h.requestView(*b))
	}
	c.JSON(http.StatusOK, out)
}

// GetRequestCounts handles GET /api/requests/counts.
func (h *Handler) GetRequestCounts(c *gin.Context) {
	counts := h.Status.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts, "total": total})
}

// GetRequest handles GET /api/requests/:id.
func (h *Handler) GetRequest(c *gin.Context) {
	b, ok := h.Bookings.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	c.JSON(http.StatusOK, h.requestView(b))
}

type transitionRequest struct {
	Action model.Action `json:"action" binding:"required"`
}

// PostTransition handles POST /api/requests/:id/transition.
func (h *Handler) PostTransition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	switch req.Action {
	case model.ActionAccept, model.ActionReject, model.ActionComplete:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
		return
	}

	updated, err := h.Status.Transition(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requestView(updated))
}
