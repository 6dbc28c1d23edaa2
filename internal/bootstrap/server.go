package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/api"
	"github.com/luxtouch/spadispatch/config"
)

// Handlers bundles the transport adapters wired by cmd/app.
type Handlers struct {
	Search   *api.TherapistSearchHandler
	Requests *api.RequestHandler
	Bookings *api.BookingHandler
	Pricing  *api.PricingHandler
	Profile  *api.ProfileHandler
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers, log *zap.Logger) error {
	router := newRouter(cfg, h)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1", api.AuthMiddleware(cfg.Auth.JWTSecret))
	h.Search.Register(v1.Group("/therapists"))
	h.Requests.Register(v1.Group("/requests"))
	h.Bookings.Register(v1.Group("/bookings"))
	h.Pricing.Register(v1.Group("/pricing"))
	h.Profile.Register(v1)

	if cfg.HTTP.OpenAPIFile != "" {
		router.StaticFile("/docs/openapi.json", cfg.HTTP.OpenAPIFile)
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/docs/openapi.json"),
		)))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
