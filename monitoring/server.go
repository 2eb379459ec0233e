package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ticket-marketplace/security"
)

// OpsServer exposes the metrics scrape endpoint on a separate port so
// it never shares a listener with the public API.
type OpsServer struct {
	echo *echo.Echo
	srv  *http.Server
}

func NewOpsServer(port string, redisClient *redis.Client) *OpsServer {
	e := echo.New()

	limiter := security.NewRateLimiter(redisClient)
	e.Use(limiter.AntiBotMiddleware())
	e.Use(limiter.OpsRateLimit())

	metricsHandler := promhttp.Handler()
	e.GET("/metrics", func(c echo.Context) error {
		metricsHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &OpsServer{
		echo: e,
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      e,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (s *OpsServer) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server stopped", "error", err)
		}
	}()
}

func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
