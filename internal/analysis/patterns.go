package analysis

import (
	"time"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// SensorStats summarizes all readings from a single sensor
type SensorStats struct {
	SensorID string    `json:"sensor_id"`
	Location geo.Point `json:"location"`
	Summary
}

// PatternReport is the per-sensor breakdown of a reading snapshot
type PatternReport struct {
	AnalyzedAt      time.Time                      `json:"analysis_timestamp"`
	TotalDataPoints int                            `json:"total_data_points"`
	CongestionTally map[domain.CongestionLevel]int `json:"congestion_summary"`
	Sensors         []SensorStats                  `json:"sensor_analysis"`
	OverallCount    float64                        `json:"overall_avg_vehicle_count"`
	OverallSpeed    float64                        `json:"overall_avg_speed"`
}

// AnalyzePatterns groups readings by sensor and scores each group. Sensors
// appear in first-encountered order. An empty snapshot yields an empty
// report, not an error.
func AnalyzePatterns(readings []domain.Reading, now time.Time) PatternReport {
	report := PatternReport{
		AnalyzedAt:      now,
		TotalDataPoints: len(readings),
		CongestionTally: map[domain.CongestionLevel]int{
			domain.CongestionLow:    0,
			domain.CongestionMedium: 0,
			domain.CongestionHigh:   0,
		},
	}
	if len(readings) == 0 {
		return report
	}

	bySensor := make(map[string][]domain.Reading)
	order := make([]string, 0)

	var countSum, speedSum float64
	for _, r := range readings {
		if _, seen := bySensor[r.SensorID]; !seen {
			order = append(order, r.SensorID)
		}
		bySensor[r.SensorID] = append(bySensor[r.SensorID], r)
		report.CongestionTally[r.DerivedCongestion()]++
		countSum += float64(r.VehicleCount)
		speedSum += r.AverageSpeed
	}

	for _, sensorID := range order {
		group := bySensor[sensorID]
		summary, err := Score(group)
		if err != nil {
			continue
		}
		report.Sensors = append(report.Sensors, SensorStats{
			SensorID: sensorID,
			Location: group[0].Location,
			Summary:  summary,
		})
	}

	n := float64(len(readings))
	report.OverallCount = utils.RoundTo(countSum/n, 2)
	report.OverallSpeed = utils.RoundTo(speedSum/n, 2)

	return report
}
