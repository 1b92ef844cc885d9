package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const timeLayout = time.RFC3339

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingResponse struct {
	ID string `json:"id"`
}

type resendCodeResponse struct {
	ID        string `json:"id"`
	ExpiresAt string `json:"expiresAt"`
}

type paymentMethodRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/resend-code", h.resendCode)
	router.PUT("/:id/confirm", h.confirm)
	router.PUT("/:id/payment-method", h.changePaymentMethod)
}

func (h *BookingHandler) create(c *gin.Context) {
	var draft domain.BookingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createBookingResponse{ID: created.ID})
}

func (h *BookingHandler) resendCode(c *gin.Context) {
	var draft domain.BookingDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refreshed, err := h.service.ResendConfirmationCode(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resendCodeResponse{
		ID:        refreshed.ID,
		ExpiresAt: refreshed.ExpiresAt.UTC().Format(timeLayout),
	})
}

func (h *BookingHandler) confirm(c *gin.Context) {
	code := strings.TrimSpace(c.Query("confirmationCode"))
	confirmed, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("id"), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmed)
}

// changePaymentMethod answers with the stored method as a bare JSON string.
func (h *BookingHandler) changePaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.ChangePaymentMethod(c.Request.Context(), c.Param("id"), req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}
	method := req.PaymentMethod
	if updated.PaymentMethod != nil {
		method = *updated.PaymentMethod
	}
	c.JSON(http.StatusOK, method)
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}
