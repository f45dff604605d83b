package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

type lightRequest struct {
	LightID      string   `json:"light_id"`
	Lat          *float64 `json:"location_lat"`
	Lng          *float64 `json:"location_lng"`
	Intersection string   `json:"intersection_name"`
	CycleSeconds int      `json:"cycle_duration"`
}

// CreateLight registers a new traffic light
func (h *Handler) CreateLight(c *fiber.Ctx) error {
	var req lightRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}

	created, err := h.controlSvc.CreateLight(c.Context(), domain.TrafficLight{
		LightID:      req.LightID,
		Location:     geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		Intersection: req.Intersection,
		CycleSeconds: req.CycleSeconds,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Traffic light created successfully",
		"traffic_light": created,
	})
}

// GetLights lists all active traffic lights
func (h *Handler) GetLights(c *fiber.Ctx) error {
	lights, err := h.controlSvc.ListLights(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"traffic_lights": lights,
		"count":          len(lights),
	})
}

type lightStateRequest struct {
	State    string `json:"state"`
	Reason   string `json:"reason"`
	Operator string `json:"operator"`
}

// UpdateLightState applies a manual, audited state change
func (h *Handler) UpdateLightState(c *fiber.Ctx) error {
	var req lightStateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.State == "" {
		return domain.MissingField("state")
	}

	updated, err := h.controlSvc.UpdateLightState(
		c.Context(), c.Params("light_id"), domain.LightState(req.State), req.Reason, req.Operator)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":       "Traffic light state updated successfully",
		"traffic_light": updated,
	})
}

// RunAdaptiveControl triggers one adaptive-control pass over all lights
func (h *Handler) RunAdaptiveControl(c *fiber.Ctx) error {
	actions, err := h.controlSvc.RunAdaptiveControl(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":         "Adaptive traffic control executed",
		"timestamp":       time.Now().UTC(),
		"actions_taken":   len(actions),
		"control_actions": actions,
	})
}

type emergencyRequest struct {
	EmergencyType string   `json:"emergency_type"`
	Lat           *float64 `json:"location_lat"`
	Lng           *float64 `json:"location_lng"`
}

// EmergencyResponse activates the emergency override around a location
func (h *Handler) EmergencyResponse(c *fiber.Ctx) error {
	var req emergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}

	result, err := h.controlSvc.EmergencyResponse(
		c.Context(), req.EmergencyType, geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":          "Emergency response activated",
		"emergency_signal": result.Signal,
		"affected_lights":  result.AffectedLights,
		"control_actions":  result.Actions,
	})
}

type signalRequest struct {
	SignalID  string   `json:"signal_id"`
	Category  string   `json:"signal_type"`
	Lat       *float64 `json:"location_lat"`
	Lng       *float64 `json:"location_lng"`
	Message   string   `json:"message"`
	Priority  string   `json:"priority"`
	ExpiresAt string   `json:"expires_at"`
}

// CreateSignal publishes an operator advisory signal
func (h *Handler) CreateSignal(c *fiber.Ctx) error {
	var req signalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}

	sig := domain.AdvisorySignal{
		SignalID: req.SignalID,
		Category: req.Category,
		Location: geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		Message:  req.Message,
		Priority: domain.Priority(req.Priority),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return domain.NewValidationError("expires_at", "must be RFC 3339")
		}
		sig.ExpiresAt = &expires
	}

	created, err := h.controlSvc.CreateSignal(c.Context(), sig)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Traffic signal created successfully",
		"signal":  created,
	})
}

// GetSignals lists active advisory signals
func (h *Handler) GetSignals(c *fiber.Ctx) error {
	signals, err := h.controlSvc.ListSignals(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"signals": signals,
		"count":   len(signals),
	})
}

// GetActions lists recent control actions
func (h *Handler) GetActions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	actions, err := h.controlSvc.RecentActions(c.Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"actions": actions,
		"count":   len(actions),
	})
}
