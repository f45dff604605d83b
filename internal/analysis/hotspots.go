package analysis

import (
	"fmt"
	"sort"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// HotspotConfig holds the tunable thresholds for hotspot detection
type HotspotConfig struct {
	// ScoreThreshold is the minimum mean congestion index for a location to
	// count as a hotspot
	ScoreThreshold float64
	// HighThreshold upgrades a hotspot's severity from MEDIUM to HIGH
	HighThreshold float64
	// TopN caps the number of hotspots returned
	TopN int
}

// DefaultHotspotConfig returns the thresholds calibrated for the congestion
// index scale
func DefaultHotspotConfig() HotspotConfig {
	return HotspotConfig{
		ScoreThreshold: 2.0,
		HighThreshold:  4.0,
		TopN:           10,
	}
}

// Hotspot is a location whose mean congestion index exceeds the threshold
type Hotspot struct {
	Location   geo.Point       `json:"location"`
	SensorID   string          `json:"sensor_id"`
	MeanIndex  float64         `json:"avg_congestion_score"`
	MeanCount  float64         `json:"avg_vehicle_count"`
	MeanSpeed  float64         `json:"avg_speed"`
	Severity   domain.Severity `json:"severity"`
	DataPoints int             `json:"data_points"`
}

// Coord implements geo.Located
func (h Hotspot) Coord() geo.Point { return h.Location }

// DetectHotspots groups readings by location rounded to four decimal places,
// averages the per-reading congestion index, and returns the locations above
// the threshold sorted by index descending, capped at TopN. Ties keep the
// first-encountered location order.
func DetectHotspots(readings []domain.Reading, cfg HotspotConfig) []Hotspot {
	type bucket struct {
		location geo.Point
		sensorID string
		indexSum float64
		countSum float64
		speedSum float64
		points   int
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, r := range readings {
		key := fmt.Sprintf("%.4f,%.4f", r.Location.Lat, r.Location.Lng)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{location: r.Location, sensorID: r.SensorID}
			buckets[key] = b
			order = append(order, key)
		}
		b.indexSum += r.CongestionIndex()
		b.countSum += float64(r.VehicleCount)
		b.speedSum += r.AverageSpeed
		b.points++
	}

	hotspots := make([]Hotspot, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		n := float64(b.points)
		meanIndex := b.indexSum / n
		if meanIndex <= cfg.ScoreThreshold {
			continue
		}

		severity := domain.SeverityMedium
		if meanIndex > cfg.HighThreshold {
			severity = domain.SeverityHigh
		}

		hotspots = append(hotspots, Hotspot{
			Location:   b.location,
			SensorID:   b.sensorID,
			MeanIndex:  utils.RoundTo(meanIndex, 2),
			MeanCount:  utils.RoundTo(b.countSum/n, 2),
			MeanSpeed:  utils.RoundTo(b.speedSum/n, 2),
			Severity:   severity,
			DataPoints: b.points,
		})
	}

	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].MeanIndex > hotspots[j].MeanIndex
	})

	if cfg.TopN > 0 && len(hotspots) > cfg.TopN {
		hotspots = hotspots[:cfg.TopN]
	}
	return hotspots
}
