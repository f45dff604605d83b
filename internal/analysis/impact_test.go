package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

func incidentAt(id int64, severity domain.Severity, lat, lng float64) domain.Incident {
	return domain.Incident{
		ID:       id,
		Type:     "ACCIDENT",
		Severity: severity,
		Location: geo.Point{Lat: lat, Lng: lng},
		Status:   domain.IncidentActive,
	}
}

func readingAt(lat, lng float64, count int, speed float64) domain.Reading {
	return domain.Reading{
		SensorID:     "SENSOR_001",
		Location:     geo.Point{Lat: lat, Lng: lng},
		VehicleCount: count,
		AverageSpeed: speed,
		Congestion:   domain.DeriveCongestion(count, speed),
	}
}

func TestEstimateImpact_NoNearbyReadingsExcluded(t *testing.T) {
	incidents := []domain.Incident{incidentAt(1, domain.SeverityCritical, 40.0, -74.0)}
	readings := []domain.Reading{readingAt(41.0, -75.0, 60, 20)}

	impacts := EstimateImpact(incidents, readings, DefaultImpactConfig())
	assert.Empty(t, impacts)
}

func TestEstimateImpact_SeverityBases(t *testing.T) {
	// calm traffic near every incident, so no bonuses apply
	readings := []domain.Reading{readingAt(40.0, -74.0, 10, 60)}

	cases := []struct {
		severity domain.Severity
		want     int
	}{
		{domain.SeverityCritical, 10},
		{domain.SeverityHigh, 7},
		{domain.SeverityMedium, 4},
		{domain.SeverityLow, 2},
	}

	for _, tc := range cases {
		impacts := EstimateImpact(
			[]domain.Incident{incidentAt(1, tc.severity, 40.0, -74.0)},
			readings, DefaultImpactConfig(),
		)
		require.Len(t, impacts, 1, "severity %s", tc.severity)
		assert.Equal(t, tc.want, impacts[0].ImpactScore, "severity %s", tc.severity)
	}
}

func TestEstimateImpact_BonusesAndCap(t *testing.T) {
	// slow and dense: both bonuses apply, but CRITICAL is already at the cap
	readings := []domain.Reading{
		readingAt(40.0, -74.0, 60, 25),
		readingAt(40.005, -74.005, 60, 25),
	}
	impacts := EstimateImpact(
		[]domain.Incident{incidentAt(1, domain.SeverityCritical, 40.0, -74.0)},
		readings, DefaultImpactConfig(),
	)
	require.Len(t, impacts, 1)
	assert.Equal(t, 10, impacts[0].ImpactScore)
	assert.Equal(t, 2, impacts[0].AffectedReadings)
	assert.InDelta(t, 25, impacts[0].NearbyMeanSpeed, 1e-9)
	assert.InDelta(t, 60, impacts[0].NearbyMeanCount, 1e-9)

	// LOW base 2 + slow 2 + busy 2 = 6
	impacts = EstimateImpact(
		[]domain.Incident{incidentAt(2, domain.SeverityLow, 40.0, -74.0)},
		readings, DefaultImpactConfig(),
	)
	require.Len(t, impacts, 1)
	assert.Equal(t, 6, impacts[0].ImpactScore)
}

func TestEstimateImpact_SortedDescendingStable(t *testing.T) {
	readings := []domain.Reading{readingAt(40.0, -74.0, 10, 60)}

	incidents := []domain.Incident{
		incidentAt(1, domain.SeverityLow, 40.0, -74.0),
		incidentAt(2, domain.SeverityCritical, 40.0, -74.0),
		incidentAt(3, domain.SeverityLow, 40.0, -74.0),
	}

	impacts := EstimateImpact(incidents, readings, DefaultImpactConfig())
	require.Len(t, impacts, 3)
	assert.Equal(t, int64(2), impacts[0].Incident.ID)
	// equal scores keep input order
	assert.Equal(t, int64(1), impacts[1].Incident.ID)
	assert.Equal(t, int64(3), impacts[2].Incident.ID)
}
