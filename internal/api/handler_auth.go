package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoservice-dashboard/internal/auth"
	"autoservice-dashboard/internal/model"
)

type sessionResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user"`
	Landing       string      `json:"landing,omitempty"`
}

func (h *Handler) sessionView() sessionResponse {
	u, ok := h.Session.User()
	if !ok || h.Session.Token() == "" {
		return sessionResponse{}
	}
	return sessionResponse{Authenticated: true, User: &u, Landing: auth.LandingPath(u.Role)}
}

// PostLogin handles POST /api/auth/login.
func (h *Handler) PostLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if _, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	h.Navigator.Take()
	c.JSON(http.StatusOK, h.sessionView())
}

// PostRegister handles POST /api/auth/register.
func (h *Handler) PostRegister(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if _, err := h.Auth.Register(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	h.Navigator.Take()
	c.JSON(http.StatusCreated, h.sessionView())
}

// PostLogout handles POST /api/auth/logout.
func (h *Handler) PostLogout(c *gin.Context) {
	h.Auth.Logout()
	h.Navigator.Take()
	c.JSON(http.StatusOK, gin.H{"redirect": LoginPath})
}

// GetMe handles GET /api/auth/me.
func (h *Handler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionView())
}

// PutProfile handles PUT /api/auth/profile.
func (h *Handler) PutProfile(c *gin.Context) {
	var patch model.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c)
		return
	}
	u, err := h.Auth.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// PatchPassword handles PATCH /api/auth/password.
func (h *Handler) PatchPassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.Auth.ChangePassword(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
