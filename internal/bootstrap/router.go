package bootstrap

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/airinventory/api"
	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/service/booking"
	"github.com/Domenick1991/airinventory/internal/service/flights"
	"github.com/Domenick1991/airinventory/internal/service/luggage"
	"github.com/Domenick1991/airinventory/internal/service/payments"
	"github.com/Domenick1991/airinventory/internal/service/tickets"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthCheck checks one backing dependency.
type HealthCheck func(ctx context.Context) error

// Services is everything the transports expose.
type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Tickets  tickets.TicketUseCase
	Payments payments.PaymentUseCase
	Luggage  luggage.LuggageUseCase
	Auditor  api.InventoryAuditor

	Gatherer prometheus.Gatherer
	Health   map[string]HealthCheck
}

// NewRouter builds the HTTP API: /api/v1 handlers, /healthz, /metrics and /docs.
func NewRouter(cfg *config.Config, svc Services, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler(svc.Health))

	gatherer := svc.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/swagger/openapi.json", filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	v1 := router.Group("/api/v1")
	api.NewFlightHandler(svc.Flights).Register(v1)
	api.NewBookingHandler(svc.Bookings, svc.Tickets).Register(v1)
	api.NewPaymentHandler(svc.Payments).Register(v1)
	api.NewLuggageHandler(svc.Luggage).Register(v1)
	api.NewAdminHandler(svc.Auditor).Register(v1)

	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"latency_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
	}
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "healthy"
		}
		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "checks": report})
	}
}
