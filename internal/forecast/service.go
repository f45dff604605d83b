package forecast

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/analysis"
	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

// Config bundles the tunables of the prediction layer
type Config struct {
	Forecast ForecastConfig
	Route    RouteConfig
	// HistoryLimit bounds the snapshot backing a congestion forecast
	HistoryLimit int
	// RouteLimit bounds the snapshot backing a travel-time estimate
	RouteLimit int
	// MaxHorizonHours bounds how far ahead a forecast may reach
	MaxHorizonHours int
}

// DefaultConfig returns the prediction tunables used by the system
func DefaultConfig() Config {
	return Config{
		Forecast:        DefaultForecastConfig(),
		Route:           DefaultRouteConfig(),
		HistoryLimit:    200,
		RouteLimit:      100,
		MaxHorizonHours: 24,
	}
}

// Service answers congestion and travel-time predictions over store
// snapshots
type Service struct {
	readings   domain.ReadingStore
	forecaster *Forecaster
	analysis   *analysis.Service
	cfg        Config
	logger     *zap.Logger
}

// NewService creates the prediction service
func NewService(readings domain.ReadingStore, forecaster *Forecaster, analysisSvc *analysis.Service, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		readings:   readings,
		forecaster: forecaster,
		analysis:   analysisSvc,
		cfg:        cfg,
		logger:     logger.Named("forecast"),
	}
}

// CongestionForecast is the horizon forecast for one location
type CongestionForecast struct {
	GeneratedAt time.Time    `json:"prediction_timestamp"`
	Location    geo.Point    `json:"location"`
	PoolSize    int          `json:"historical_data_points"`
	Predictions []Prediction `json:"predictions"`
}

// PredictCongestion projects congestion at the location for the next
// horizonHours hours
func (s *Service) PredictCongestion(ctx context.Context, location geo.Point, horizonHours int) (CongestionForecast, error) {
	if horizonHours < 1 || horizonHours > s.cfg.MaxHorizonHours {
		return CongestionForecast{}, domain.NewValidationError("prediction_hours", "must be between 1 and 24")
	}

	historical, err := s.readings.RecentReadings(ctx, s.cfg.HistoryLimit, "")
	if err != nil {
		return CongestionForecast{}, domain.Upstream("reading store", err)
	}

	return CongestionForecast{
		GeneratedAt: time.Now().UTC(),
		Location:    location,
		PoolSize:    s.forecaster.PoolSize(location, historical),
		Predictions: s.forecaster.Forecast(location, horizonHours, historical),
	}, nil
}

// RoutePrediction is a travel-time estimate with its endpoints
type RoutePrediction struct {
	GeneratedAt time.Time     `json:"prediction_timestamp"`
	Origin      geo.Point     `json:"origin"`
	Destination geo.Point     `json:"destination"`
	Estimate    RouteEstimate `json:"time_prediction"`
}

// PredictRouteTime estimates travel time between two points under current
// corridor conditions
func (s *Service) PredictRouteTime(ctx context.Context, origin, dest geo.Point) (RoutePrediction, error) {
	readings, err := s.readings.RecentReadings(ctx, s.cfg.RouteLimit, "")
	if err != nil {
		return RoutePrediction{}, domain.Upstream("reading store", err)
	}

	return RoutePrediction{
		GeneratedAt: time.Now().UTC(),
		Origin:      origin,
		Destination: dest,
		Estimate:    EstimateTravel(origin, dest, readings, s.cfg.Route),
	}, nil
}

// RouteRanking is the ranked set of candidate routes
type RouteRanking struct {
	GeneratedAt  time.Time     `json:"prediction_timestamp"`
	Origin       geo.Point     `json:"origin"`
	Destination  geo.Point     `json:"destination"`
	AreaHotspots int           `json:"total_hotspots_in_area"`
	Recommended  []RouteOption `json:"recommended_routes"`
}

// OptimalRoutes generates direct, alternative, and scenic candidates and
// ranks them against the current congestion hotspots
func (s *Service) OptimalRoutes(ctx context.Context, origin, dest geo.Point) (RouteRanking, error) {
	hotspotReport, err := s.analysis.Hotspots(ctx)
	if err != nil {
		return RouteRanking{}, err
	}

	candidates := BuildCandidates(origin, dest, hotspotReport.Hotspots, s.cfg.Route)

	return RouteRanking{
		GeneratedAt:  time.Now().UTC(),
		Origin:       origin,
		Destination:  dest,
		AreaHotspots: len(hotspotReport.Hotspots),
		Recommended:  RankRoutes(candidates, s.cfg.Route),
	}, nil
}
