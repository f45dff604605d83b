package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/domain"
)

// Service owns the ingestion boundary: readings and incidents enter the
// system here and nowhere else.
type Service struct {
	readings  domain.ReadingStore
	incidents domain.IncidentStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the ingestion service
func NewService(readings domain.ReadingStore, incidents domain.IncidentStore, logger *zap.Logger) *Service {
	return &Service{
		readings:  readings,
		incidents: incidents,
		logger:    logger.Named("ingest"),
		now:       time.Now,
	}
}

// IngestReading validates and persists a sensor reading. The congestion
// level is always derived here from count and speed; a level supplied by
// the caller is ignored.
func (s *Service) IngestReading(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	if r.SensorID == "" {
		return domain.Reading{}, domain.MissingField("sensor_id")
	}
	if r.VehicleCount < 0 {
		return domain.Reading{}, domain.NewValidationError("vehicle_count", "must be non-negative")
	}
	if r.AverageSpeed < 0 {
		return domain.Reading{}, domain.NewValidationError("average_speed", "must be non-negative")
	}

	r.Congestion = domain.DeriveCongestion(r.VehicleCount, r.AverageSpeed)
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	created, err := s.readings.CreateReading(ctx, r)
	if err != nil {
		return domain.Reading{}, domain.Upstream("reading store", err)
	}
	return created, nil
}

// RecentReadings returns the newest readings, optionally for one sensor
func (s *Service) RecentReadings(ctx context.Context, limit int, sensorID string) ([]domain.Reading, error) {
	readings, err := s.readings.RecentReadings(ctx, limit, sensorID)
	if err != nil {
		return nil, domain.Upstream("reading store", err)
	}
	return readings, nil
}

// ReportIncident validates and persists a new incident in ACTIVE status
func (s *Service) ReportIncident(ctx context.Context, inc domain.Incident) (domain.Incident, error) {
	if inc.Type == "" {
		return domain.Incident{}, domain.MissingField("incident_type")
	}
	if !domain.ValidSeverity(inc.Severity) {
		return domain.Incident{}, domain.NewValidationError("severity", "must be LOW, MEDIUM, HIGH, or CRITICAL")
	}

	inc.Status = domain.IncidentActive
	inc.ResolvedAt = nil
	if inc.ReportedAt.IsZero() {
		inc.ReportedAt = s.now().UTC()
	}

	created, err := s.incidents.CreateIncident(ctx, inc)
	if err != nil {
		return domain.Incident{}, domain.Upstream("incident store", err)
	}
	return created, nil
}

// IncidentsByStatus lists incidents with the given status, newest first
func (s *Service) IncidentsByStatus(ctx context.Context, status domain.IncidentStatus, limit int) ([]domain.Incident, error) {
	if status != domain.IncidentActive && status != domain.IncidentResolved {
		return nil, domain.NewValidationError("status", "must be ACTIVE or RESOLVED")
	}
	incidents, err := s.incidents.IncidentsByStatus(ctx, status, limit)
	if err != nil {
		return nil, domain.Upstream("incident store", err)
	}
	return incidents, nil
}

// ResolveIncident performs the one permitted incident mutation, the
// ACTIVE to RESOLVED transition
func (s *Service) ResolveIncident(ctx context.Context, id int64) (domain.Incident, error) {
	resolved, err := s.incidents.ResolveIncident(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Incident{}, err
		}
		return domain.Incident{}, domain.Upstream("incident store", err)
	}
	s.logger.Info("incident resolved", zap.Int64("incident_id", id))
	return resolved, nil
}
