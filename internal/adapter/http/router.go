package http

import (
	"log/slog"
	"net/http"
	"time"

	"municipal-portal/internal/adapter/middleware"
	"municipal-portal/internal/domain/directory"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Health       *Handler
	Submissions  *SubmissionHandler
	JWTSecret    []byte
	Redis        *redis.Client // nil disables idempotency
	IdempTTL     time.Duration
	MaxBodyBytes int64
	Logger       *slog.Logger
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		echomw.Recover(),
		requestLogger(cfg.Logger),
		middleware.Metrics(),
	)

	e.GET("/health", cfg.Health.Health)
	e.GET("/ready", cfg.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", middleware.Authenticate(cfg.JWTSecret))
	var idem []echo.MiddlewareFunc
	if cfg.Redis != nil {
		idem = append(idem, middleware.IdempotencyMiddleware(cfg.Redis, cfg.IdempTTL, cfg.MaxBodyBytes, cfg.Logger))
	}

	api.POST("/solicitudes", cfg.Submissions.CreateRequest, idem...)
	api.POST("/respuestas", cfg.Submissions.CreateResponse,
		append([]echo.MiddlewareFunc{middleware.RequireRole(directory.RoleStaff, directory.RoleAdmin)}, idem...)...)
	api.GET("/solicitudes/:id", cfg.Submissions.GetRequest)

	return e
}

// requestLogger logs one line per request; level follows the status class.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = slog.LevelError
			case v.Status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.LogAttrs(c.Request().Context(), level, "http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}
