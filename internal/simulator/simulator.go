package simulator

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

// site is a fixed sensor placement used for generated data
type site struct {
	sensorID string
	point    geo.Point
}

var defaultSites = []site{
	{"SENSOR_001", geo.Point{Lat: 40.7128, Lng: -74.0060}},
	{"SENSOR_002", geo.Point{Lat: 40.7589, Lng: -73.9851}},
	{"SENSOR_003", geo.Point{Lat: 40.7505, Lng: -73.9934}},
	{"SENSOR_004", geo.Point{Lat: 40.7282, Lng: -73.7949}},
	{"SENSOR_005", geo.Point{Lat: 40.6892, Lng: -74.0445}},
}

// demoLight is a fixed intersection fixture
type demoLight struct {
	lightID string
	point   geo.Point
	name    string
}

var demoLights = []demoLight{
	{"TL_001", geo.Point{Lat: 40.7128, Lng: -74.0060}, "Times Square"},
	{"TL_002", geo.Point{Lat: 40.7589, Lng: -73.9851}, "Central Park South"},
	{"TL_003", geo.Point{Lat: 40.7505, Lng: -73.9934}, "Herald Square"},
	{"TL_004", geo.Point{Lat: 40.7282, Lng: -73.7949}, "Queens Plaza"},
	{"TL_005", geo.Point{Lat: 40.6892, Lng: -74.0445}, "Brooklyn Bridge"},
}

// Simulator generates synthetic readings and demo fixtures. The randomness
// source is injected so generated batches are reproducible.
type Simulator struct {
	readings domain.ReadingStore
	control  domain.ControlStore
	rng      *rand.Rand
	logger   *zap.Logger
}

// New creates a simulator over the given stores
func New(readings domain.ReadingStore, control domain.ControlStore, rng *rand.Rand, logger *zap.Logger) *Simulator {
	return &Simulator{
		readings: readings,
		control:  control,
		rng:      rng,
		logger:   logger.Named("simulator"),
	}
}

// GenerateReadings creates count random readings over the fixed sensor
// sites. The congestion level goes through the same derivation as real
// ingestion.
func (s *Simulator) GenerateReadings(ctx context.Context, count int) ([]domain.Reading, error) {
	created := make([]domain.Reading, 0, count)
	for i := 0; i < count; i++ {
		loc := defaultSites[s.rng.Intn(len(defaultSites))]
		vehicleCount := 10 + s.rng.Intn(91)
		averageSpeed := 20 + s.rng.Float64()*60

		reading := domain.Reading{
			SensorID:     loc.sensorID,
			Location:     loc.point,
			VehicleCount: vehicleCount,
			AverageSpeed: averageSpeed,
			Congestion:   domain.DeriveCongestion(vehicleCount, averageSpeed),
		}

		stored, err := s.readings.CreateReading(ctx, reading)
		if err != nil {
			return created, domain.Upstream("reading store", err)
		}
		created = append(created, stored)
	}

	s.logger.Info("simulated readings", zap.Int("count", len(created)))
	return created, nil
}

// SeedDemoLights registers the demo intersection fixtures, skipping any
// light already present
func (s *Simulator) SeedDemoLights(ctx context.Context) ([]domain.TrafficLight, error) {
	created := make([]domain.TrafficLight, 0, len(demoLights))
	for _, fixture := range demoLights {
		if _, err := s.control.LightByID(ctx, fixture.lightID); err == nil {
			continue
		}

		light := domain.TrafficLight{
			LightID:      fixture.lightID,
			Location:     fixture.point,
			Intersection: fixture.name,
			State:        domain.LightGreen,
			CycleSeconds: 120,
			Active:       true,
		}
		stored, err := s.control.CreateLight(ctx, light)
		if err != nil {
			return created, domain.Upstream("control store", err)
		}
		created = append(created, stored)
	}

	s.logger.Info("seeded demo lights", zap.Int("created", len(created)))
	return created, nil
}
