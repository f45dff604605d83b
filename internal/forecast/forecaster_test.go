package forecast

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

func pinnedForecaster(now time.Time) *Forecaster {
	f := NewForecaster(DefaultForecastConfig(), rand.New(rand.NewSource(1)))
	f.now = func() time.Time { return now }
	return f
}

func historyAt(lat, lng float64, n, count int, speed float64) []domain.Reading {
	readings := make([]domain.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, domain.Reading{
			SensorID:     "SENSOR_001",
			Location:     geo.Point{Lat: lat, Lng: lng},
			VehicleCount: count,
			AverageSpeed: speed,
		})
	}
	return readings
}

func TestForecast_HorizonAndTimeFields(t *testing.T) {
	// Wednesday 06:00 UTC; offsets 1..3 land on 07:00-09:00, all rush hour
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 3, nil)
	require.Len(t, predictions, 3)

	for i, p := range predictions {
		assert.Equal(t, i+1, p.HourOffset)
		assert.Equal(t, now.Add(time.Duration(i+1)*time.Hour), p.Time)
		assert.Equal(t, 7+i, p.HourOfDay)
		assert.Equal(t, time.Wednesday, p.DayOfWeek)
		assert.True(t, p.RushHour)
		assert.False(t, p.Weekend)
	}
}

func TestForecast_BaselineFromNearbyHistory(t *testing.T) {
	// Wednesday noon; offset 1 is 13:00, no rush or weekend multiplier, so
	// count stays at the baseline plus jitter and speed at the baseline
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	history := historyAt(40.0, -74.0, 20, 60, 40)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, history)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.InDelta(t, 60, float64(p.VehicleCount), 10)
	assert.InDelta(t, 40, p.Speed, 5)
	assert.False(t, p.RushHour)
}

func TestForecast_RushHourMultipliers(t *testing.T) {
	now := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	history := historyAt(40.0, -74.0, 20, 60, 42)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, history)
	require.Len(t, predictions, 1)

	// count scales by 1.5, speed divides by 1.5*0.8+0.2 = 1.4
	p := predictions[0]
	assert.InDelta(t, 90, float64(p.VehicleCount), 10)
	assert.InDelta(t, 30, p.Speed, 5)
	assert.True(t, p.RushHour)
}

func TestForecast_NightMultipliers(t *testing.T) {
	// Wednesday 22:00; offset 1 is 23:00, night discount
	now := time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	history := historyAt(40.0, -74.0, 20, 100, 34)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, history)
	require.Len(t, predictions, 1)

	// count scales by 0.6, speed divides by 0.6*0.8+0.2 = 0.68
	p := predictions[0]
	assert.InDelta(t, 60, float64(p.VehicleCount), 10)
	assert.InDelta(t, 50, p.Speed, 5)
	assert.False(t, p.RushHour)
}

func TestForecast_WeekendFlag(t *testing.T) {
	// Saturday noon; offset 1 is 13:00, weekend midday multiplier 1.2
	now := time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	history := historyAt(40.0, -74.0, 20, 50, 40)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, history)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.True(t, p.Weekend)
	assert.Equal(t, time.Saturday, p.DayOfWeek)
	assert.InDelta(t, 60, float64(p.VehicleCount), 10)
}

func TestForecast_Confidence(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	// 10 nearby readings: 0.5 + 10/100
	f := pinnedForecaster(now)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, historyAt(40.0, -74.0, 10, 50, 40))
	require.Len(t, predictions, 1)
	assert.InDelta(t, 0.6, predictions[0].Confidence, 1e-9)

	// 60 nearby readings would give 1.1; capped at 0.95
	f = pinnedForecaster(now)
	predictions = f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, historyAt(40.0, -74.0, 60, 50, 40))
	require.Len(t, predictions, 1)
	assert.InDelta(t, 0.95, predictions[0].Confidence, 1e-9)
}

func TestForecast_FallbackPool(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	// history is far from the queried location: the general pool stands in
	history := historyAt(10.0, 10.0, 80, 100, 30)
	location := geo.Point{Lat: 40.0, Lng: -74.0}

	assert.Equal(t, 50, f.PoolSize(location, history))

	predictions := f.Forecast(location, 1, history)
	require.Len(t, predictions, 1)
	assert.InDelta(t, 100, float64(predictions[0].VehicleCount), 10)
}

func TestForecast_NoHistoryUsesDefaults(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 1, nil)
	require.Len(t, predictions, 1)

	p := predictions[0]
	assert.InDelta(t, 40, float64(p.VehicleCount), 10)
	assert.InDelta(t, 50, p.Speed, 5)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)
}

func TestForecast_ValuesStayWithinBounds(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f := pinnedForecaster(now)

	// extreme baseline forces the clamps across a full day of multipliers
	history := historyAt(40.0, -74.0, 20, 500, 1)
	predictions := f.Forecast(geo.Point{Lat: 40.0, Lng: -74.0}, 24, history)
	require.Len(t, predictions, 24)

	for _, p := range predictions {
		assert.GreaterOrEqual(t, p.VehicleCount, 5)
		assert.LessOrEqual(t, p.VehicleCount, 150)
		assert.GreaterOrEqual(t, p.Speed, 10.0)
		assert.LessOrEqual(t, p.Speed, 80.0)
		assert.Equal(t, domain.DeriveCongestion(p.VehicleCount, p.Speed), p.Congestion)
	}
}
