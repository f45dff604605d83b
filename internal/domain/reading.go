package domain

import (
	"time"

	"github.com/smartcity/traffic/pkg/geo"
)

// CongestionLevel classifies a reading by load
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "LOW"
	CongestionMedium CongestionLevel = "MEDIUM"
	CongestionHigh   CongestionLevel = "HIGH"
)

// DeriveCongestion maps a vehicle count and average speed to a congestion
// level. This is the single source of truth for the classification: it is
// applied at ingestion, in the simulator, and re-applied whenever a reading
// is consumed for scoring. Stored levels are never trusted downstream.
func DeriveCongestion(vehicleCount int, averageSpeed float64) CongestionLevel {
	if vehicleCount > 50 && averageSpeed < 30 {
		return CongestionHigh
	}
	if vehicleCount > 30 || averageSpeed < 50 {
		return CongestionMedium
	}
	return CongestionLow
}

// Reading is a single sensor measurement. Immutable once created.
type Reading struct {
	ID           int64           `json:"id"`
	SensorID     string          `json:"sensor_id"`
	Location     geo.Point       `json:"location"`
	VehicleCount int             `json:"vehicle_count"`
	AverageSpeed float64         `json:"average_speed"`
	Congestion   CongestionLevel `json:"congestion_level"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Coord implements geo.Located
func (r Reading) Coord() geo.Point { return r.Location }

// DerivedCongestion recomputes the level from the stored count and speed.
func (r Reading) DerivedCongestion() CongestionLevel {
	return DeriveCongestion(r.VehicleCount, r.AverageSpeed)
}

// CongestionIndex is the density-over-speed proxy for local load.
// The divisor is floored at 1 to avoid division by zero.
func (r Reading) CongestionIndex() float64 {
	speed := r.AverageSpeed
	if speed < 1 {
		speed = 1
	}
	return float64(r.VehicleCount) / speed
}
