package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/hotelbooking/api"
	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/middleware"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/Domenick1991/hotelbooking/internal/service/rooms"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerFile = "booking.swagger.json"

type Services struct {
	Bookings booking.BookingUseCase
	Rooms    rooms.RoomUseCase
	Auth     api.Authenticator
	Checks   map[string]api.Check
}

// Run serves the booking API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.HTTP.Address).Info("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSeconds)*time.Second)
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter mounts every handler under /api. Swagger UI is served when
// cfg.HTTP.SwaggerDir is set.
func NewRouter(cfg *config.Config, svc Services, log *logrus.Entry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	api.NewHealthHandler(svc.Checks).Register(router)

	group := router.Group("/api")
	api.NewBookingHandler(svc.Bookings).Register(group.Group("/bookings"))
	api.NewRoomHandler(svc.Rooms).Register(group.Group("/rooms"))
	if svc.Auth != nil {
		api.NewAdminHandler(svc.Auth, svc.Bookings).Register(group.Group("/admin"))
	}

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger-files", cfg.HTTP.SwaggerDir)
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger-files/"+swaggerFile))))
	}
	return router
}
