package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCongestion(t *testing.T) {
	tests := []struct {
		name  string
		count int
		speed float64
		want  CongestionLevel
	}{
		{"dense and slow", 51, 29, CongestionHigh},
		{"dense but fast", 51, 60, CongestionMedium},
		{"slow but sparse", 10, 29, CongestionMedium},
		{"boundary count not high", 50, 29, CongestionMedium},
		{"boundary speed not high", 51, 30, CongestionMedium},
		{"moderate count", 31, 60, CongestionMedium},
		{"moderate speed", 10, 49, CongestionMedium},
		{"free flow", 30, 50, CongestionLow},
		{"empty road", 0, 80, CongestionLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCongestion(tt.count, tt.speed))
		})
	}
}

func TestReading_DerivedCongestion_IgnoresStoredLevel(t *testing.T) {
	// a reading arriving with a stale or forged level is reclassified from
	// its count and speed
	r := Reading{VehicleCount: 60, AverageSpeed: 20, Congestion: CongestionLow}
	assert.Equal(t, CongestionHigh, r.DerivedCongestion())
}

func TestReading_CongestionIndex(t *testing.T) {
	assert.InDelta(t, 3.0, Reading{VehicleCount: 60, AverageSpeed: 20}.CongestionIndex(), 1e-9)
	// divisor floored at 1 when the road is stopped
	assert.InDelta(t, 40.0, Reading{VehicleCount: 40, AverageSpeed: 0}.CongestionIndex(), 1e-9)
	assert.InDelta(t, 40.0, Reading{VehicleCount: 40, AverageSpeed: 0.5}.CongestionIndex(), 1e-9)
}

func TestAdvisorySignal_Expired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(2 * time.Hour)

	sig := AdvisorySignal{ExpiresAt: &expires}
	assert.False(t, sig.Expired(now))
	assert.False(t, sig.Expired(expires))
	assert.True(t, sig.Expired(expires.Add(time.Hour)))

	noExpiry := AdvisorySignal{}
	assert.False(t, noExpiry.Expired(now.Add(1000*time.Hour)))
}
