package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/joseph-ayodele/gym-slots/internal/async"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
)

type Ingester interface {
	Ingest(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Exporter interface {
	ExportOpenSlotsXLSX(ctx context.Context, gymRef string, from, to *time.Time) ([]byte, error)
}

// Deps are the collaborators of the HTTP API. Queue may be nil, in which
// case sources registered with ingest=true are stored but not queued.
type Deps struct {
	Ingester      Ingester
	Queue         async.Queue
	Exporter      Exporter
	Areas         repository.AreaRepository
	Sports        repository.SportRepository
	Gyms          repository.GymRepository
	Sources       repository.SourceRepository
	Slots         repository.OpenSlotRepository
	ParserVersion string
}

// Handler serves the JSON API.
type Handler struct {
	deps   Deps
	logger *slog.Logger
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{deps: deps, logger: logger}
}

// NewRouter builds the echo instance. readMW wraps the read-only endpoints
// (the Redis response cache in production).
func NewRouter(h *Handler, logger *slog.Logger, readMW ...echo.MiddlewareFunc) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.POST("/parse-pdf", h.ParsePDF)
	api.POST("/sources", h.CreateSource)
	api.GET("/sources/:id", h.GetSource)

	read := api.Group("", readMW...)
	read.GET("/areas", h.ListAreas)
	read.GET("/sports", h.ListSports)
	read.GET("/gyms", h.ListGyms)
	read.GET("/gyms/:id", h.GetGym)
	// Slot availability changes with every ingestion; never served from cache.
	api.GET("/open-slots", h.ListOpenSlots)
	api.GET("/open-slots/export", h.ExportOpenSlots)

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"req_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"elapsed_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				logger.Warn("http.request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("http.request", attrs...)
			return nil
		},
	})
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
