package http

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Ingestion endpoints
		api.Post("/traffic-data", handler.IngestReading)
		api.Get("/traffic-data", handler.GetReadings)
		api.Post("/incidents", handler.ReportIncident)
		api.Get("/incidents", handler.GetIncidents)
		api.Put("/incidents/:id/resolve", handler.ResolveIncident)

		// Analysis endpoints
		api.Get("/analysis/traffic-patterns", handler.GetPatterns)
		api.Get("/analysis/congestion-hotspots", handler.GetHotspots)
		api.Get("/analysis/incident-impact", handler.GetIncidentImpacts)

		// Prediction endpoints
		api.Post("/predictions/congestion", handler.PredictCongestion)
		api.Post("/predictions/route-time", handler.PredictRouteTime)
		api.Post("/predictions/optimal-routes", handler.PredictOptimalRoutes)

		// Control endpoints
		api.Get("/control/traffic-lights", handler.GetLights)
		api.Post("/control/traffic-lights", handler.CreateLight)
		api.Put("/control/traffic-lights/:light_id/state", handler.UpdateLightState)
		api.Post("/control/adaptive", handler.RunAdaptiveControl)
		api.Post("/control/emergency", handler.EmergencyResponse)
		api.Get("/control/signals", handler.GetSignals)
		api.Post("/control/signals", handler.CreateSignal)
		api.Get("/control/actions", handler.GetActions)

		// Simulation endpoints
		api.Post("/simulate/traffic-data", handler.SimulateReadings)
		api.Post("/simulate/demo-lights", handler.SeedDemoLights)
	}
}
