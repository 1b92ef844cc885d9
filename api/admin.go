package api

import (
	"net/http"

	"github.com/Domenick1991/hotelbooking/internal/auth"
	"github.com/Domenick1991/hotelbooking/internal/middleware"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(user, password string) (auth.AccessToken, error)
	middleware.TokenVerifier
}

// AdminHandler serves the stats dashboard. Everything except login needs an
// admin token.
type AdminHandler struct {
	auth     Authenticator
	bookings booking.BookingUseCase
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAdminHandler(authenticator Authenticator, bookings booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{auth: authenticator, bookings: bookings}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)

	protected := router.Group("", middleware.JWTAuth(h.auth), middleware.RequireRole(auth.RoleAdmin))
	protected.GET("/stats", h.stats)
	protected.POST("/expire", h.expire)
}

func (h *AdminHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.bookings.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// expire runs the pending booking sweep on demand.
func (h *AdminHandler) expire(c *gin.Context) {
	expired, err := h.bookings.ExpirePendingBookings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": len(expired)})
}
