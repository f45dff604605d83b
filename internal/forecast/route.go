package forecast

import (
	"sort"

	"github.com/smartcity/traffic/internal/analysis"
	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// Route status labels
const (
	StatusClear    = "CLEAR"
	StatusModerate = "MODERATE_TRAFFIC"
	StatusHeavy    = "HEAVY_TRAFFIC"
)

// RouteConfig holds the tunables of the route estimator and ranker
type RouteConfig struct {
	// CorridorPad widens the origin/destination bounding rectangle on each
	// side, in degrees
	CorridorPad float64
	// DefaultSpeed is assumed when no corridor readings exist
	DefaultSpeed float64
	// Speed reduction factors; the HIGH check takes precedence and the two
	// are mutually exclusive
	HeavyFractionAbove    float64
	HeavySpeedFactor      float64
	ModerateFractionAbove float64
	ModerateSpeedFactor   float64
	// Fixed buffers added when any congested segment is present
	HeavyBufferMinutes    float64
	ModerateBufferMinutes float64
	// Status label thresholds
	HeavyStatusAbove    float64
	ModerateStatusAbove float64
	// Ranking weights
	HotspotPenalty    float64
	TimePenalty       float64
	ScenicTimePenalty float64
}

// DefaultRouteConfig returns the route tunables used by the system
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		CorridorPad:           0.01,
		DefaultSpeed:          50,
		HeavyFractionAbove:    0.3,
		HeavySpeedFactor:      0.6,
		ModerateFractionAbove: 0.5,
		ModerateSpeedFactor:   0.8,
		HeavyBufferMinutes:    15,
		ModerateBufferMinutes: 5,
		HeavyStatusAbove:      0.2,
		ModerateStatusAbove:   0.3,
		HotspotPenalty:        20,
		TimePenalty:           0.5,
		ScenicTimePenalty:     0.3,
	}
}

// RouteEstimate is the travel-time estimate between two points
type RouteEstimate struct {
	DistanceKm       float64 `json:"distance_km"`
	AvgSpeed         float64 `json:"average_speed_kmh"`
	TravelMinutes    float64 `json:"estimated_travel_time_minutes"`
	BufferMinutes    float64 `json:"buffer_time_minutes"`
	TotalMinutes     float64 `json:"total_time_minutes"`
	Status           string  `json:"route_status"`
	HeavySegments    int     `json:"high_congestion_segments"`
	ModerateSegments int     `json:"medium_congestion_segments"`
	DataPoints       int     `json:"data_points_analyzed"`
}

// EstimateTravel combines the planar degree distance with the congestion of
// corridor-adjacent readings. Congestion levels are re-derived from count
// and speed. With no adjacent readings the route is assumed CLEAR at the
// default speed.
func EstimateTravel(origin, dest geo.Point, readings []domain.Reading, cfg RouteConfig) RouteEstimate {
	distance := geo.Distance(origin, dest)

	var corridor []domain.Reading
	for _, r := range readings {
		if geo.InCorridor(r.Location, origin, dest, cfg.CorridorPad) {
			corridor = append(corridor, r)
		}
	}

	est := RouteEstimate{
		DistanceKm: utils.RoundTo(distance, 2),
		AvgSpeed:   cfg.DefaultSpeed,
		Status:     StatusClear,
		DataPoints: len(corridor),
	}

	if len(corridor) > 0 {
		summary, err := analysis.Score(corridor)
		if err == nil {
			est.AvgSpeed = summary.MeanSpeed
		}
		for _, r := range corridor {
			switch r.DerivedCongestion() {
			case domain.CongestionHigh:
				est.HeavySegments++
			case domain.CongestionMedium:
				est.ModerateSegments++
			}
		}

		n := float64(len(corridor))
		heavyFrac := float64(est.HeavySegments) / n
		moderateFrac := float64(est.ModerateSegments) / n

		switch {
		case heavyFrac > cfg.HeavyFractionAbove:
			est.AvgSpeed *= cfg.HeavySpeedFactor
		case moderateFrac > cfg.ModerateFractionAbove:
			est.AvgSpeed *= cfg.ModerateSpeedFactor
		}

		switch {
		case heavyFrac > cfg.HeavyStatusAbove:
			est.Status = StatusHeavy
		case moderateFrac > cfg.ModerateStatusAbove:
			est.Status = StatusModerate
		}
	}

	est.TravelMinutes = utils.RoundTo(distance/est.AvgSpeed*60, 1)
	switch {
	case est.HeavySegments > 0:
		est.BufferMinutes = cfg.HeavyBufferMinutes
	case est.ModerateSegments > 0:
		est.BufferMinutes = cfg.ModerateBufferMinutes
	}
	est.TotalMinutes = utils.RoundTo(est.TravelMinutes+est.BufferMinutes, 1)
	est.AvgSpeed = utils.RoundTo(est.AvgSpeed, 1)

	return est
}

// RouteOption is one candidate path between origin and destination
type RouteOption struct {
	RouteID     string      `json:"route_id"`
	Name        string      `json:"route_name"`
	DistanceKm  float64     `json:"distance_km"`
	TimeMinutes float64     `json:"estimated_time_minutes"`
	Hotspots    int         `json:"hotspots_encountered"`
	Score       float64     `json:"route_score"`
	Scenic      bool        `json:"-"`
	Waypoints   []geo.Point `json:"waypoints"`
}

// RankRoutes scores the candidates and returns them best first. The scenic
// variant trades hotspot exposure for distance and is weighted on time
// alone. Ties keep input order.
func RankRoutes(candidates []RouteOption, cfg RouteConfig) []RouteOption {
	ranked := make([]RouteOption, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		if ranked[i].Scenic {
			ranked[i].Score = utils.RoundTo(100-cfg.ScenicTimePenalty*ranked[i].TimeMinutes, 1)
		} else {
			ranked[i].Score = utils.RoundTo(
				100-cfg.HotspotPenalty*float64(ranked[i].Hotspots)-cfg.TimePenalty*ranked[i].TimeMinutes, 1)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// BuildCandidates generates the direct, alternative, and scenic route
// options between origin and destination, counting corridor hotspots for
// the direct path.
func BuildCandidates(origin, dest geo.Point, hotspots []analysis.Hotspot, cfg RouteConfig) []RouteOption {
	directDistance := geo.Distance(origin, dest)

	directHotspots := 0
	for _, h := range hotspots {
		if geo.InCorridor(h.Location, origin, dest, cfg.CorridorPad) {
			directHotspots++
		}
	}

	directSpeed := cfg.DefaultSpeed - float64(directHotspots)*10
	if directSpeed < 20 {
		directSpeed = 20
	}

	latOffset, lngOffset := 0.01, 0.01
	if dest.Lat < origin.Lat {
		latOffset = -0.01
	}
	if dest.Lng < origin.Lng {
		lngOffset = -0.01
	}

	altDistance := directDistance * 1.2
	altHotspots := directHotspots - 1
	if altHotspots < 0 {
		altHotspots = 0
	}
	altSpeed := 55 - float64(altHotspots)*8
	if altSpeed < 25 {
		altSpeed = 25
	}

	scenicDistance := directDistance * 1.4
	const scenicSpeed = 60.0

	return []RouteOption{
		{
			RouteID:     "direct",
			Name:        "Direct Route",
			DistanceKm:  utils.RoundTo(directDistance, 2),
			TimeMinutes: utils.RoundTo(directDistance/directSpeed*60, 1),
			Hotspots:    directHotspots,
			Waypoints:   []geo.Point{origin, dest},
		},
		{
			RouteID:     "alternative",
			Name:        "Alternative Route",
			DistanceKm:  utils.RoundTo(altDistance, 2),
			TimeMinutes: utils.RoundTo(altDistance/altSpeed*60, 1),
			Hotspots:    altHotspots,
			Waypoints: []geo.Point{
				origin,
				{Lat: origin.Lat + latOffset, Lng: origin.Lng + lngOffset},
				dest,
			},
		},
		{
			RouteID:     "scenic",
			Name:        "Scenic Route (Least Congested)",
			DistanceKm:  utils.RoundTo(scenicDistance, 2),
			TimeMinutes: utils.RoundTo(scenicDistance/scenicSpeed*60, 1),
			Hotspots:    0,
			Scenic:      true,
			Waypoints: []geo.Point{
				origin,
				{Lat: origin.Lat - latOffset, Lng: origin.Lng - lngOffset},
				{Lat: dest.Lat - latOffset, Lng: dest.Lng - lngOffset},
				dest,
			},
		},
	}
}
