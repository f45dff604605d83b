package analysis

import (
	"sort"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// ImpactConfig holds the tunable parameters of the impact estimator
type ImpactConfig struct {
	// Window is the correlation tolerance for incident-adjacent readings
	Window geo.Window
	// SlowSpeedBonus and BusyCountBonus are added when nearby traffic is
	// already slow or dense
	SlowSpeedBonus int
	BusyCountBonus int
	SlowSpeedBelow float64
	BusyCountAbove float64
	// MaxScore caps the total; the severity base is never reduced
	MaxScore int
}

// DefaultImpactConfig returns the calibrated estimator parameters
func DefaultImpactConfig() ImpactConfig {
	return ImpactConfig{
		Window:         geo.WindowDeg(0.01),
		SlowSpeedBonus: 2,
		BusyCountBonus: 2,
		SlowSpeedBelow: 30,
		BusyCountAbove: 50,
		MaxScore:       10,
	}
}

// severityBase maps a declared severity to its base impact score
func severityBase(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 10
	case domain.SeverityHigh:
		return 7
	case domain.SeverityMedium:
		return 4
	default:
		return 2
	}
}

// IncidentImpact pairs an incident with its estimated impact on nearby flow
type IncidentImpact struct {
	Incident         domain.Incident `json:"incident"`
	ImpactScore      int             `json:"impact_score"`
	NearbyMeanSpeed  float64         `json:"nearby_avg_speed"`
	NearbyMeanCount  float64         `json:"nearby_avg_vehicle_count"`
	AffectedReadings int             `json:"affected_sensors"`
}

// EstimateImpact scores each incident against the readings correlated to its
// location. Incidents with no nearby readings are excluded rather than
// scored as zero: absence of data is not absence of impact. The result is
// sorted by impact descending; ties keep input order.
func EstimateImpact(incidents []domain.Incident, readings []domain.Reading, cfg ImpactConfig) []IncidentImpact {
	impacts := make([]IncidentImpact, 0, len(incidents))

	for _, inc := range incidents {
		nearby := geo.Correlate(inc.Location, readings, cfg.Window)
		if len(nearby) == 0 {
			continue
		}

		summary, err := Score(nearby)
		if err != nil {
			continue
		}

		score := severityBase(inc.Severity)
		if summary.MeanSpeed < cfg.SlowSpeedBelow {
			score += cfg.SlowSpeedBonus
		}
		if summary.MeanCount > cfg.BusyCountAbove {
			score += cfg.BusyCountBonus
		}
		if score > cfg.MaxScore {
			score = cfg.MaxScore
		}

		impacts = append(impacts, IncidentImpact{
			Incident:         inc,
			ImpactScore:      score,
			NearbyMeanSpeed:  utils.RoundTo(summary.MeanSpeed, 2),
			NearbyMeanCount:  utils.RoundTo(summary.MeanCount, 2),
			AffectedReadings: summary.SampleSize,
		})
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return impacts[i].ImpactScore > impacts[j].ImpactScore
	})

	return impacts
}
