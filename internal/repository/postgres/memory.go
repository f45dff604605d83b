package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/smartcity/traffic/internal/domain"
)

// MemoryStore implements the domain stores in memory for demo mode and
// tests. A single mutex serializes all mutations, which trivially preserves
// the one-audit-record-per-mutation invariant.
type MemoryStore struct {
	mu sync.Mutex

	readings  []domain.Reading
	incidents []domain.Incident
	lights    []domain.TrafficLight
	signals   []domain.AdvisorySignal
	actions   []domain.ControlAction

	nextID int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// Health always succeeds in memory mode
func (m *MemoryStore) Health(ctx context.Context) error { return nil }

// CreateReading appends a reading
func (m *MemoryStore) CreateReading(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	m.readings = append(m.readings, r)
	return r, nil
}

// RecentReadings returns readings newest first
func (m *MemoryStore) RecentReadings(ctx context.Context, limit int, sensorID string) ([]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.Reading, 0, limit)
	for i := len(m.readings) - 1; i >= 0 && len(results) < limit; i-- {
		if sensorID != "" && m.readings[i].SensorID != sensorID {
			continue
		}
		results = append(results, m.readings[i])
	}
	return results, nil
}

// CreateIncident appends an incident
func (m *MemoryStore) CreateIncident(ctx context.Context, inc domain.Incident) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc.ID = m.id()
	if inc.ReportedAt.IsZero() {
		inc.ReportedAt = time.Now().UTC()
	}
	m.incidents = append(m.incidents, inc)
	return inc, nil
}

// IncidentsByStatus returns incidents with the status, newest first
func (m *MemoryStore) IncidentsByStatus(ctx context.Context, status domain.IncidentStatus, limit int) ([]domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.Incident, 0, limit)
	for i := len(m.incidents) - 1; i >= 0 && len(results) < limit; i-- {
		if m.incidents[i].Status != status {
			continue
		}
		results = append(results, m.incidents[i])
	}
	return results, nil
}

// ResolveIncident applies the ACTIVE to RESOLVED transition. Resolving an
// already-resolved incident is a no-op returning the current record.
func (m *MemoryStore) ResolveIncident(ctx context.Context, id int64) (domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.incidents {
		if m.incidents[i].ID != id {
			continue
		}
		if m.incidents[i].Status != domain.IncidentResolved {
			now := time.Now().UTC()
			m.incidents[i].Status = domain.IncidentResolved
			m.incidents[i].ResolvedAt = &now
		}
		return m.incidents[i], nil
	}
	return domain.Incident{}, domain.ErrNotFound
}

// CreateLight registers a light
func (m *MemoryStore) CreateLight(ctx context.Context, light domain.TrafficLight) (domain.TrafficLight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	light.ID = m.id()
	if light.UpdatedAt.IsZero() {
		light.UpdatedAt = time.Now().UTC()
	}
	m.lights = append(m.lights, light)
	return light, nil
}

// LightByID returns the light with the external identifier
func (m *MemoryStore) LightByID(ctx context.Context, lightID string) (domain.TrafficLight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, light := range m.lights {
		if light.LightID == lightID {
			return light, nil
		}
	}
	return domain.TrafficLight{}, domain.ErrNotFound
}

// ActiveLights returns all lights with the active flag set
func (m *MemoryStore) ActiveLights(ctx context.Context) ([]domain.TrafficLight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.TrafficLight, 0, len(m.lights))
	for _, light := range m.lights {
		if light.Active {
			results = append(results, light)
		}
	}
	return results, nil
}

// ApplyLightAction updates the light and appends its audit record under one
// lock acquisition
func (m *MemoryStore) ApplyLightAction(ctx context.Context, light domain.TrafficLight, action domain.ControlAction) (domain.ControlAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.lights {
		if m.lights[i].LightID != light.LightID {
			continue
		}
		m.lights[i].State = light.State
		m.lights[i].CycleSeconds = light.CycleSeconds
		m.lights[i].UpdatedAt = light.UpdatedAt

		action.ID = m.id()
		m.actions = append(m.actions, action)
		return action, nil
	}
	return domain.ControlAction{}, domain.ErrNotFound
}

// AppendAction records an audit entry with no entity mutation
func (m *MemoryStore) AppendAction(ctx context.Context, action domain.ControlAction) (domain.ControlAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action.ID = m.id()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	m.actions = append(m.actions, action)
	return action, nil
}

// CreateSignal appends an advisory signal
func (m *MemoryStore) CreateSignal(ctx context.Context, sig domain.AdvisorySignal) (domain.AdvisorySignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sig.ID = m.id()
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	m.signals = append(m.signals, sig)
	return sig, nil
}

// ActiveSignals returns all signals with the active flag set
func (m *MemoryStore) ActiveSignals(ctx context.Context) ([]domain.AdvisorySignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.AdvisorySignal, 0, len(m.signals))
	for i := len(m.signals) - 1; i >= 0; i-- {
		if m.signals[i].Active {
			results = append(results, m.signals[i])
		}
	}
	return results, nil
}

// RecentActions returns the newest audit records
func (m *MemoryStore) RecentActions(ctx context.Context, limit int) ([]domain.ControlAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]domain.ControlAction, 0, limit)
	for i := len(m.actions) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, m.actions[i])
	}
	return results, nil
}
