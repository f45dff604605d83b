package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/cache"
	"github.com/smartcity/traffic/internal/domain"
)

// Config bundles the tunables of the analysis layer
type Config struct {
	Hotspots HotspotConfig
	Impact   ImpactConfig
	// PatternLimit / HotspotLimit / ImpactLimit bound the snapshot fetched
	// for each report
	PatternLimit int
	HotspotLimit int
	ImpactLimit  int
	// CacheTTL bounds how stale a cached report may be
	CacheTTL time.Duration
}

// DefaultConfig returns the analysis tunables used by the system
func DefaultConfig() Config {
	return Config{
		Hotspots:     DefaultHotspotConfig(),
		Impact:       DefaultImpactConfig(),
		PatternLimit: 100,
		HotspotLimit: 200,
		ImpactLimit:  100,
		CacheTTL:     30 * time.Second,
	}
}

// Service computes analysis reports over store snapshots
type Service struct {
	readings  domain.ReadingStore
	incidents domain.IncidentStore
	cache     cache.Cache
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the analysis service. The cache may be nil.
func NewService(readings domain.ReadingStore, incidents domain.IncidentStore, c cache.Cache, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		readings:  readings,
		incidents: incidents,
		cache:     c,
		cfg:       cfg,
		logger:    logger.Named("analysis"),
		now:       time.Now,
	}
}

// Patterns returns the per-sensor traffic pattern report
func (s *Service) Patterns(ctx context.Context) (PatternReport, error) {
	if report, ok := cached[PatternReport](ctx, s, "patterns"); ok {
		return report, nil
	}

	readings, err := s.readings.RecentReadings(ctx, s.cfg.PatternLimit, "")
	if err != nil {
		return PatternReport{}, domain.Upstream("reading store", err)
	}

	report := AnalyzePatterns(readings, s.now().UTC())
	s.store(ctx, "patterns", report)
	return report, nil
}

// HotspotReport wraps the detected hotspots with snapshot metadata
type HotspotReport struct {
	AnalyzedAt     time.Time `json:"analysis_timestamp"`
	LocationsTotal int       `json:"total_locations_analyzed"`
	Hotspots       []Hotspot `json:"hotspots"`
}

// Hotspots returns the congestion hotspots in the latest snapshot
func (s *Service) Hotspots(ctx context.Context) (HotspotReport, error) {
	if report, ok := cached[HotspotReport](ctx, s, "hotspots"); ok {
		return report, nil
	}

	readings, err := s.readings.RecentReadings(ctx, s.cfg.HotspotLimit, "")
	if err != nil {
		return HotspotReport{}, domain.Upstream("reading store", err)
	}

	locations := make(map[string]struct{})
	for _, r := range readings {
		locations[fmt.Sprintf("%.4f,%.4f", r.Location.Lat, r.Location.Lng)] = struct{}{}
	}

	report := HotspotReport{
		AnalyzedAt:     s.now().UTC(),
		LocationsTotal: len(locations),
		Hotspots:       DetectHotspots(readings, s.cfg.Hotspots),
	}
	s.store(ctx, "hotspots", report)
	return report, nil
}

// ImpactReport wraps the scored incidents with snapshot metadata
type ImpactReport struct {
	AnalyzedAt     time.Time        `json:"analysis_timestamp"`
	IncidentsTotal int              `json:"total_incidents_analyzed"`
	Impacts        []IncidentImpact `json:"impact_analysis"`
}

// IncidentImpacts scores all active incidents against nearby readings.
// Incidents without nearby readings are omitted from the result.
func (s *Service) IncidentImpacts(ctx context.Context) (ImpactReport, error) {
	incidents, err := s.incidents.IncidentsByStatus(ctx, domain.IncidentActive, s.cfg.ImpactLimit)
	if err != nil {
		return ImpactReport{}, domain.Upstream("incident store", err)
	}

	readings, err := s.readings.RecentReadings(ctx, s.cfg.ImpactLimit, "")
	if err != nil {
		return ImpactReport{}, domain.Upstream("reading store", err)
	}

	return ImpactReport{
		AnalyzedAt:     s.now().UTC(),
		IncidentsTotal: len(incidents),
		Impacts:        EstimateImpact(incidents, readings, s.cfg.Impact),
	}, nil
}

// cached fetches and decodes a cached report, if present and fresh
func cached[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var zero T
	if s.cache == nil {
		return zero, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var report T
	if err := json.Unmarshal(raw, &report); err != nil {
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return report, true
}

func (s *Service) store(ctx context.Context, key string, report any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, raw, s.cfg.CacheTTL)
}
