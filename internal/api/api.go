// Package api exposes the tracking control operations over HTTP.
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ringwatch/internal/scheduler"
	"ringwatch/internal/tracking"
)

// Controller is the control surface the handlers drive. The scheduler
// implements it.
type Controller interface {
	Start(ctx context.Context, sink string) (scheduler.StartResult, error)
	Stop(ctx context.Context) error
	SetTargetPrice(ctx context.Context, price decimal.Decimal) error
	SetVariants(ctx context.Context, variants []tracking.VariantID) error
	SetInterval(ctx context.Context, d time.Duration) error
	CheckNow(ctx context.Context) ([]tracking.Observation, error)
	Status() scheduler.Status
	History(ctx context.Context, n int) ([]tracking.Observation, error)
}

var _ Controller = (*scheduler.Scheduler)(nil)

// NewServer builds the echo instance with all routes registered.
func NewServer(ctrl Controller, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h := &TrackingHandler{ctrl: ctrl, logger: logger.With().Str("component", "api").Logger()}

	e.GET("/healthz", h.Healthz)

	v1 := e.Group("/api/v1/tracking")
	v1.POST("/start", h.Start)
	v1.POST("/stop", h.Stop)
	v1.PUT("/target-price", h.SetTargetPrice)
	v1.PUT("/variants", h.SetVariants)
	v1.PUT("/interval", h.SetInterval)
	v1.POST("/check", h.Check)
	v1.GET("/status", h.Status)
	v1.GET("/history", h.History)

	return e
}
