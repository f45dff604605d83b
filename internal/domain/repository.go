package domain

import (
	"context"
)

// ReadingStore owns sensor readings. Readings are immutable once created.
type ReadingStore interface {
	// CreateReading persists a new reading and returns it with its identifier
	CreateReading(ctx context.Context, r Reading) (Reading, error)

	// RecentReadings returns up to limit readings, newest first, optionally
	// filtered by sensor
	RecentReadings(ctx context.Context, limit int, sensorID string) ([]Reading, error)
}

// IncidentStore owns reported incidents
type IncidentStore interface {
	// CreateIncident persists a new incident in ACTIVE status
	CreateIncident(ctx context.Context, inc Incident) (Incident, error)

	// IncidentsByStatus returns up to limit incidents with the given status,
	// newest first
	IncidentsByStatus(ctx context.Context, status IncidentStatus, limit int) ([]Incident, error)

	// ResolveIncident transitions an ACTIVE incident to RESOLVED and stamps
	// the resolution time. Returns ErrNotFound for an unknown id.
	ResolveIncident(ctx context.Context, id int64) (Incident, error)
}

// ControlStore owns traffic lights, advisory signals, and the control action
// audit log. Implementations must make ApplyLightAction atomic: the light
// mutation and its audit record commit together or not at all, and
// concurrent mutations of the same light are serialized.
type ControlStore interface {
	// CreateLight registers a new traffic light
	CreateLight(ctx context.Context, light TrafficLight) (TrafficLight, error)

	// LightByID returns the light with the given external identifier.
	// Returns ErrNotFound for an unknown id.
	LightByID(ctx context.Context, lightID string) (TrafficLight, error)

	// ActiveLights returns all lights with the active flag set
	ActiveLights(ctx context.Context) ([]TrafficLight, error)

	// ApplyLightAction persists the updated light and appends its audit
	// record in a single transaction
	ApplyLightAction(ctx context.Context, light TrafficLight, action ControlAction) (ControlAction, error)

	// AppendAction records an audit entry that carries no entity mutation,
	// such as a recommendation
	AppendAction(ctx context.Context, action ControlAction) (ControlAction, error)

	// CreateSignal persists a new advisory signal
	CreateSignal(ctx context.Context, sig AdvisorySignal) (AdvisorySignal, error)

	// ActiveSignals returns all signals with the active flag set, including
	// expired ones; expiry is evaluated by consumers
	ActiveSignals(ctx context.Context) ([]AdvisorySignal, error)

	// RecentActions returns up to limit audit records, newest first
	RecentActions(ctx context.Context, limit int) ([]ControlAction, error)
}
