package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/auth"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func adminRouter(t *testing.T, bookings *MockBookingUseCase) (*gin.Engine, *auth.Authenticator) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator("jwt-key", "admin", string(hash), time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAdminHandler(authenticator, bookings).Register(router.Group("/admin"))
	return router, authenticator
}

func TestAdminHandler_login(t *testing.T) {
	router, authenticator := adminRouter(t, &MockBookingUseCase{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "s3cret"}))
	require.Equal(t, http.StatusOK, w.Code)

	var token auth.AccessToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	claims, err := authenticator.Verify(token.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, http.MethodPost, "/admin/login", gin.H{"username": "admin"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_stats(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router, authenticator := adminRouter(t, bookings)

	stats := &domain.Stats{
		ByStatus:         map[domain.BookingStatus]int64{domain.BookingStatusConfirmed: 2},
		ByPaymentMethod:  map[domain.PaymentMethod]int64{domain.PaymentMethodCash: 1},
		ConfirmedRevenue: 400,
		Total:            2,
	}
	bookings.On("Stats", context.Background()).Return(stats, nil)

	// Без токена
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := authenticator.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"byStatus":{"CONFIRMED":2},"byPaymentMethod":{"CASH":1},"confirmedRevenue":400,"total":2}`, w.Body.String())
}

func TestAdminHandler_expire(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router, authenticator := adminRouter(t, bookings)
	bookings.On("ExpirePendingBookings", context.Background()).Return([]domain.Booking{{ID: testID}}, nil)

	token, err := authenticator.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/expire", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"expired":1}`, w.Body.String())
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler(map[string]Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	}).Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"postgres":"ok","redis":"dial tcp: refused"}`, w.Body.String())
}
