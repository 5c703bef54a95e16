package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"ringwatch/internal/scheduler"
	"ringwatch/internal/tracking"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 1000
)

// TrackingHandler serves the tracking control endpoints.
type TrackingHandler struct {
	ctrl   Controller
	logger zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type startRequest struct {
	Sink string `json:"sink"`
}

type startResponse struct {
	IntervalMinutes int      `json:"interval_minutes"`
	TargetPrice     string   `json:"target_price"`
	TrackedVariants []string `json:"tracked_variants"`
}

type statusResponse struct {
	Running         bool     `json:"running"`
	TargetPrice     string   `json:"target_price"`
	IntervalMinutes int      `json:"interval_minutes"`
	TrackedVariants []string `json:"tracked_variants"`
	AlertSink       string   `json:"alert_sink"`
}

type targetPriceRequest struct {
	Price float64 `json:"price"`
}

type variantsRequest struct {
	Variants []string `json:"variants"`
}

type intervalRequest struct {
	Minutes int `json:"minutes"`
}

// Healthz reports process liveness.
func (*TrackingHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start enables tracking with the requester's sink.
func (h *TrackingHandler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	result, err := h.ctrl.Start(c.Request().Context(), req.Sink)
	if errors.Is(err, scheduler.ErrAlreadyRunning) {
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("start failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, startResponse{
		IntervalMinutes: int(result.Interval / time.Minute),
		TargetPrice:     result.TargetPrice.StringFixed(2),
		TrackedVariants: variantStrings(result.TrackedVariants),
	})
}

// Stop disables tracking.
func (h *TrackingHandler) Stop(c echo.Context) error {
	err := h.ctrl.Stop(c.Request().Context())
	if errors.Is(err, scheduler.ErrAlreadyStopped) {
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("stop failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

// SetTargetPrice updates the alert threshold.
func (h *TrackingHandler) SetTargetPrice(c echo.Context) error {
	var req targetPriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	err := h.ctrl.SetTargetPrice(c.Request().Context(), decimal.NewFromFloat(req.Price))
	return h.mutationResult(c, err)
}

// SetVariants updates the tracked variant set.
func (h *TrackingHandler) SetVariants(c echo.Context) error {
	var req variantsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	variants := lo.Map(req.Variants, func(v string, _ int) tracking.VariantID {
		return tracking.VariantID(v)
	})
	err := h.ctrl.SetVariants(c.Request().Context(), variants)
	return h.mutationResult(c, err)
}

// SetInterval updates the sweep cadence.
func (h *TrackingHandler) SetInterval(c echo.Context) error {
	var req intervalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	err := h.ctrl.SetInterval(c.Request().Context(), time.Duration(req.Minutes)*time.Minute)
	return h.mutationResult(c, err)
}

// Check runs one immediate sweep and returns its observations. Zero results
// is a normal response, not an error.
func (h *TrackingHandler) Check(c echo.Context) error {
	observations, err := h.ctrl.CheckNow(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("manual check failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, observations)
}

// Status reports the scheduler state and configuration.
func (h *TrackingHandler) Status(c echo.Context) error {
	status := h.ctrl.Status()
	return c.JSON(http.StatusOK, statusResponse{
		Running:         status.Running,
		TargetPrice:     status.TargetPrice.StringFixed(2),
		IntervalMinutes: int(status.Interval / time.Minute),
		TrackedVariants: variantStrings(status.TrackedVariants),
		AlertSink:       status.AlertSink,
	})
}

// History returns the most recent observations in chronological order.
func (h *TrackingHandler) History(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		}
		if parsed < 1 || parsed > maxHistoryLimit {
			return c.JSON(http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit),
			})
		}
		limit = parsed
	}

	observations, err := h.ctrl.History(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("history query failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, observations)
}

// mutationResult maps setter outcomes: validation failures are the caller's
// fault, persistence failures are ours.
func (h *TrackingHandler) mutationResult(c echo.Context, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	var invalidVariants *tracking.InvalidVariantsError
	switch {
	case errors.Is(err, tracking.ErrPriceOutOfRange),
		errors.Is(err, tracking.ErrIntervalOutOfRange),
		errors.Is(err, tracking.ErrNoVariants),
		errors.As(err, &invalidVariants):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Msg("mutation failed")
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func variantStrings(vs []tracking.VariantID) []string {
	return lo.Map(vs, func(v tracking.VariantID, _ int) string { return string(v) })
}
