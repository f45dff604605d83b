package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/traffic/internal/analysis"
	"github.com/smartcity/traffic/internal/control"
	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/internal/forecast"
	"github.com/smartcity/traffic/internal/ingest"
	"github.com/smartcity/traffic/internal/simulator"
	"github.com/smartcity/traffic/pkg/geo"
)

// HealthChecker reports backing-store connectivity
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	ingestSvc   *ingest.Service
	analysisSvc *analysis.Service
	controlSvc  *control.Service
	forecastSvc *forecast.Service
	sim         *simulator.Simulator
	health      HealthChecker
}

// NewHandler creates a new handler
func NewHandler(
	ingestSvc *ingest.Service,
	analysisSvc *analysis.Service,
	controlSvc *control.Service,
	forecastSvc *forecast.Service,
	sim *simulator.Simulator,
	health HealthChecker,
) *Handler {
	return &Handler{
		ingestSvc:   ingestSvc,
		analysisSvc: analysisSvc,
		controlSvc:  controlSvc,
		forecastSvc: forecastSvc,
		sim:         sim,
		health:      health,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.health.Health(c.Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "traffic-backend",
		"version": "1.0.0",
	})
}

type readingRequest struct {
	SensorID     string   `json:"sensor_id"`
	Lat          *float64 `json:"location_lat"`
	Lng          *float64 `json:"location_lng"`
	VehicleCount *int     `json:"vehicle_count"`
	AverageSpeed *float64 `json:"average_speed"`
}

// IngestReading accepts a sensor reading
func (h *Handler) IngestReading(c *fiber.Ctx) error {
	var req readingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}
	if req.VehicleCount == nil {
		return domain.MissingField("vehicle_count")
	}
	if req.AverageSpeed == nil {
		return domain.MissingField("average_speed")
	}

	created, err := h.ingestSvc.IngestReading(c.Context(), domain.Reading{
		SensorID:     req.SensorID,
		Location:     geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		VehicleCount: *req.VehicleCount,
		AverageSpeed: *req.AverageSpeed,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Traffic data ingested successfully",
		"data":    created,
	})
}

// GetReadings lists recent readings with optional sensor filtering
func (h *Handler) GetReadings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	readings, err := h.ingestSvc.RecentReadings(c.Context(), limit, c.Query("sensor_id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  readings,
		"count": len(readings),
	})
}

type incidentRequest struct {
	Type        string   `json:"incident_type"`
	Lat         *float64 `json:"location_lat"`
	Lng         *float64 `json:"location_lng"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
}

// ReportIncident accepts a new incident report
func (h *Handler) ReportIncident(c *fiber.Ctx) error {
	var req incidentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.MissingField("location")
	}

	created, err := h.ingestSvc.ReportIncident(c.Context(), domain.Incident{
		Type:        req.Type,
		Location:    geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		Severity:    domain.Severity(req.Severity),
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Incident reported successfully",
		"incident": created,
	})
}

// GetIncidents lists incidents by status
func (h *Handler) GetIncidents(c *fiber.Ctx) error {
	status := domain.IncidentStatus(c.Query("status", string(domain.IncidentActive)))
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	incidents, err := h.ingestSvc.IncidentsByStatus(c.Context(), status, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// ResolveIncident transitions an incident to RESOLVED
func (h *Handler) ResolveIncident(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return domain.NewValidationError("id", "must be an integer")
	}

	resolved, err := h.ingestSvc.ResolveIncident(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":  "Incident resolved successfully",
		"incident": resolved,
	})
}

// GetPatterns returns the per-sensor pattern analysis
func (h *Handler) GetPatterns(c *fiber.Ctx) error {
	report, err := h.analysisSvc.Patterns(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// GetHotspots returns the detected congestion hotspots
func (h *Handler) GetHotspots(c *fiber.Ctx) error {
	report, err := h.analysisSvc.Hotspots(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"analysis_timestamp":       report.AnalyzedAt,
		"total_locations_analyzed": report.LocationsTotal,
		"hotspots_identified":      len(report.Hotspots),
		"hotspots":                 report.Hotspots,
	})
}

// GetIncidentImpacts returns the scored active incidents
func (h *Handler) GetIncidentImpacts(c *fiber.Ctx) error {
	report, err := h.analysisSvc.IncidentImpacts(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"analysis_timestamp":            report.AnalyzedAt,
		"total_incidents_analyzed":      report.IncidentsTotal,
		"incidents_with_traffic_impact": len(report.Impacts),
		"impact_analysis":               report.Impacts,
	})
}

// SimulateReadings generates random sensor data for testing
func (h *Handler) SimulateReadings(c *fiber.Ctx) error {
	count := c.QueryInt("count", 10)
	if count < 1 || count > 1000 {
		count = 10
	}

	created, err := h.sim.GenerateReadings(c.Context(), count)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Simulated traffic data created",
		"count":   len(created),
		"data":    created,
	})
}

// SeedDemoLights registers the demo intersection fixtures
func (h *Handler) SeedDemoLights(c *fiber.Ctx) error {
	created, err := h.sim.SeedDemoLights(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Demo data initialized successfully",
		"created_lights": len(created),
		"traffic_lights": created,
	})
}
