package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

type congestionRequest struct {
	Lat   *float64 `json:"location_lat"`
	Lng   *float64 `json:"location_lng"`
	Hours *int     `json:"prediction_hours"`
}

// PredictCongestion returns the hourly congestion forecast for a location
func (h *Handler) PredictCongestion(c *fiber.Ctx) error {
	var req congestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}
	if req.Hours == nil {
		return domain.MissingField("prediction_hours")
	}

	result, err := h.forecastSvc.PredictCongestion(
		c.Context(), geo.Point{Lat: *req.Lat, Lng: *req.Lng}, *req.Hours)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

type routeRequest struct {
	StartLat *float64 `json:"start_lat"`
	StartLng *float64 `json:"start_lng"`
	EndLat   *float64 `json:"end_lat"`
	EndLng   *float64 `json:"end_lng"`
}

func (r routeRequest) endpoints() (geo.Point, geo.Point, error) {
	if r.StartLat == nil || r.StartLng == nil {
		return geo.Point{}, geo.Point{}, domain.MissingField("start")
	}
	if r.EndLat == nil || r.EndLng == nil {
		return geo.Point{}, geo.Point{}, domain.MissingField("end")
	}
	origin := geo.Point{Lat: *r.StartLat, Lng: *r.StartLng}
	dest := geo.Point{Lat: *r.EndLat, Lng: *r.EndLng}
	return origin, dest, nil
}

// PredictRouteTime estimates travel time between two points
func (h *Handler) PredictRouteTime(c *fiber.Ctx) error {
	var req routeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	origin, dest, err := req.endpoints()
	if err != nil {
		return err
	}

	result, err := h.forecastSvc.PredictRouteTime(c.Context(), origin, dest)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// PredictOptimalRoutes ranks candidate routes between two points
func (h *Handler) PredictOptimalRoutes(c *fiber.Ctx) error {
	var req routeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	origin, dest, err := req.endpoints()
	if err != nil {
		return err
	}

	result, err := h.forecastSvc.OptimalRoutes(c.Context(), origin, dest)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
