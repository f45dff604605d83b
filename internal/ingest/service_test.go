package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/internal/repository/postgres"
	"github.com/smartcity/traffic/pkg/geo"
)

func newTestService(t *testing.T) (*Service, *postgres.MemoryStore) {
	t.Helper()
	store := postgres.NewMemoryStore()
	svc := NewService(store, store, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, store
}

func TestIngestReading_DerivesCongestion(t *testing.T) {
	svc, _ := newTestService(t)

	// a supplied level is ignored and re-derived
	created, err := svc.IngestReading(context.Background(), domain.Reading{
		SensorID:     "SENSOR_001",
		Location:     geo.Point{Lat: 40.0, Lng: -74.0},
		VehicleCount: 60,
		AverageSpeed: 20,
		Congestion:   domain.CongestionLow,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CongestionHigh, created.Congestion)
	assert.NotZero(t, created.ID)
}

func TestIngestReading_DefaultsTimestamp(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.IngestReading(context.Background(), domain.Reading{
		SensorID: "SENSOR_001", VehicleCount: 10, AverageSpeed: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), created.Timestamp)

	supplied := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	created, err = svc.IngestReading(context.Background(), domain.Reading{
		SensorID: "SENSOR_001", VehicleCount: 10, AverageSpeed: 60, Timestamp: supplied,
	})
	require.NoError(t, err)
	assert.Equal(t, supplied, created.Timestamp)
}

func TestIngestReading_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	var verr *domain.ValidationError

	_, err := svc.IngestReading(context.Background(), domain.Reading{VehicleCount: 10, AverageSpeed: 60})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.IngestReading(context.Background(), domain.Reading{
		SensorID: "SENSOR_001", VehicleCount: -1, AverageSpeed: 60,
	})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.IngestReading(context.Background(), domain.Reading{
		SensorID: "SENSOR_001", VehicleCount: 10, AverageSpeed: -5,
	})
	assert.ErrorAs(t, err, &verr)
}

func TestRecentReadings_FiltersBySensor(t *testing.T) {
	svc, _ := newTestService(t)

	for _, sensorID := range []string{"S1", "S2", "S1"} {
		_, err := svc.IngestReading(context.Background(), domain.Reading{
			SensorID: sensorID, VehicleCount: 10, AverageSpeed: 60,
		})
		require.NoError(t, err)
	}

	all, err := svc.RecentReadings(context.Background(), 10, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s1, err := svc.RecentReadings(context.Background(), 10, "S1")
	require.NoError(t, err)
	assert.Len(t, s1, 2)
}

func TestReportIncident(t *testing.T) {
	svc, _ := newTestService(t)

	// status and resolution are forced regardless of input
	resolvedAt := time.Now()
	created, err := svc.ReportIncident(context.Background(), domain.Incident{
		Type:       "ACCIDENT",
		Severity:   domain.SeverityHigh,
		Status:     domain.IncidentResolved,
		ResolvedAt: &resolvedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentActive, created.Status)
	assert.Nil(t, created.ResolvedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), created.ReportedAt)
}

func TestReportIncident_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	var verr *domain.ValidationError

	_, err := svc.ReportIncident(context.Background(), domain.Incident{Severity: domain.SeverityHigh})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.ReportIncident(context.Background(), domain.Incident{Type: "ACCIDENT", Severity: "EXTREME"})
	assert.ErrorAs(t, err, &verr)
}

func TestIncidentsByStatus(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.ReportIncident(context.Background(), domain.Incident{
		Type: "ACCIDENT", Severity: domain.SeverityHigh,
	})
	require.NoError(t, err)
	_, err = svc.ReportIncident(context.Background(), domain.Incident{
		Type: "ROADWORK", Severity: domain.SeverityLow,
	})
	require.NoError(t, err)

	active, err := svc.IncidentsByStatus(context.Background(), domain.IncidentActive, 10)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = svc.ResolveIncident(context.Background(), first.ID)
	require.NoError(t, err)

	active, err = svc.IncidentsByStatus(context.Background(), domain.IncidentActive, 10)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	resolved, err := svc.IncidentsByStatus(context.Background(), domain.IncidentResolved, 10)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, first.ID, resolved[0].ID)

	var verr *domain.ValidationError
	_, err = svc.IncidentsByStatus(context.Background(), "PENDING", 10)
	assert.ErrorAs(t, err, &verr)
}

func TestResolveIncident(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.ReportIncident(context.Background(), domain.Incident{
		Type: "ACCIDENT", Severity: domain.SeverityHigh,
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveIncident(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// resolving again is a no-op returning the same record
	again, err := svc.ResolveIncident(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, resolved.ResolvedAt, again.ResolvedAt)

	_, err = svc.ResolveIncident(context.Background(), 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
