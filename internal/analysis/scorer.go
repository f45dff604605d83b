package analysis

import (
	"github.com/smartcity/traffic/internal/domain"
)

// Summary aggregates a correlated set of readings into congestion metrics.
type Summary struct {
	MeanCount       float64                `json:"avg_vehicle_count"`
	MaxCount        int                    `json:"max_vehicle_count"`
	MinCount        int                    `json:"min_vehicle_count"`
	MeanSpeed       float64                `json:"avg_speed"`
	MaxSpeed        float64                `json:"max_speed"`
	MinSpeed        float64                `json:"min_speed"`
	Dominant        domain.CongestionLevel `json:"most_common_congestion"`
	CongestionIndex float64                `json:"avg_congestion_score"`
	SampleSize      int                    `json:"data_points"`
}

// Score reduces a set of readings to aggregate congestion metrics. The
// dominant category is the most frequent one, with ties broken by first
// appearance in the input order. Congestion levels are re-derived from the
// stored count and speed, never trusted from the reading itself.
// Returns domain.ErrEmptyInput on zero readings; callers with possibly-empty
// correlation results must branch before calling.
func Score(readings []domain.Reading) (Summary, error) {
	if len(readings) == 0 {
		return Summary{}, domain.ErrEmptyInput
	}

	s := Summary{
		MaxCount:   readings[0].VehicleCount,
		MinCount:   readings[0].VehicleCount,
		MaxSpeed:   readings[0].AverageSpeed,
		MinSpeed:   readings[0].AverageSpeed,
		SampleSize: len(readings),
	}

	var countSum, speedSum, indexSum float64
	levelCounts := make(map[domain.CongestionLevel]int)
	levelOrder := make([]domain.CongestionLevel, 0, 3)

	for _, r := range readings {
		countSum += float64(r.VehicleCount)
		speedSum += r.AverageSpeed
		indexSum += r.CongestionIndex()

		if r.VehicleCount > s.MaxCount {
			s.MaxCount = r.VehicleCount
		}
		if r.VehicleCount < s.MinCount {
			s.MinCount = r.VehicleCount
		}
		if r.AverageSpeed > s.MaxSpeed {
			s.MaxSpeed = r.AverageSpeed
		}
		if r.AverageSpeed < s.MinSpeed {
			s.MinSpeed = r.AverageSpeed
		}

		level := r.DerivedCongestion()
		if _, seen := levelCounts[level]; !seen {
			levelOrder = append(levelOrder, level)
		}
		levelCounts[level]++
	}

	n := float64(len(readings))
	s.MeanCount = countSum / n
	s.MeanSpeed = speedSum / n
	s.CongestionIndex = indexSum / n

	best := levelOrder[0]
	for _, level := range levelOrder[1:] {
		if levelCounts[level] > levelCounts[best] {
			best = level
		}
	}
	s.Dominant = best

	return s, nil
}

// HighFraction returns the share of readings whose re-derived level is HIGH.
func HighFraction(readings []domain.Reading) float64 {
	if len(readings) == 0 {
		return 0
	}
	high := 0
	for _, r := range readings {
		if r.DerivedCongestion() == domain.CongestionHigh {
			high++
		}
	}
	return float64(high) / float64(len(readings))
}
