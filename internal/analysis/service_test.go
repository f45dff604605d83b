package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/internal/repository/postgres"
)

// mapCache is a minimal in-process cache.Cache for tests
type mapCache struct {
	entries map[string][]byte
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, ok := c.entries[key]
	return raw, ok
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.entries[key] = value
	c.sets++
}

func seedStore(t *testing.T, store *postgres.MemoryStore) {
	t.Helper()
	for i := 0; i < 4; i++ {
		_, err := store.CreateReading(context.Background(), readingAt(40.0, -74.0, 60, 20))
		require.NoError(t, err)
	}
	_, err := store.CreateIncident(context.Background(), incidentAt(0, domain.SeverityHigh, 40.0, -74.0))
	require.NoError(t, err)
}

func TestServicePatterns(t *testing.T) {
	store := postgres.NewMemoryStore()
	seedStore(t, store)
	svc := NewService(store, store, nil, DefaultConfig(), zap.NewNop())

	report, err := svc.Patterns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalDataPoints)
	require.Len(t, report.Sensors, 1)
	assert.Equal(t, "SENSOR_001", report.Sensors[0].SensorID)
}

func TestServiceHotspots_CountsDistinctLocations(t *testing.T) {
	store := postgres.NewMemoryStore()
	seedStore(t, store)
	_, err := store.CreateReading(context.Background(), readingAt(41.0, -75.0, 10, 60))
	require.NoError(t, err)

	svc := NewService(store, store, nil, DefaultConfig(), zap.NewNop())
	report, err := svc.Hotspots(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.LocationsTotal)
	require.Len(t, report.Hotspots, 1)
	assert.Equal(t, domain.SeverityMedium, report.Hotspots[0].Severity)
}

func TestServiceIncidentImpacts(t *testing.T) {
	store := postgres.NewMemoryStore()
	seedStore(t, store)
	svc := NewService(store, store, nil, DefaultConfig(), zap.NewNop())

	report, err := svc.IncidentImpacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.IncidentsTotal)
	require.Len(t, report.Impacts, 1)
	// HIGH base 7 + slow 2 + busy 2, capped at 10
	assert.Equal(t, 10, report.Impacts[0].ImpactScore)
}

func TestServiceHotspots_UsesCache(t *testing.T) {
	store := postgres.NewMemoryStore()
	seedStore(t, store)
	c := newMapCache()
	svc := NewService(store, store, c, DefaultConfig(), zap.NewNop())

	first, err := svc.Hotspots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	// new readings are invisible until the entry expires
	_, err = store.CreateReading(context.Background(), readingAt(41.0, -75.0, 100, 10))
	require.NoError(t, err)

	second, err := svc.Hotspots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, len(first.Hotspots), len(second.Hotspots))
}

func TestServiceCache_DiscardsUndecodableEntry(t *testing.T) {
	store := postgres.NewMemoryStore()
	seedStore(t, store)
	c := newMapCache()
	c.entries["patterns"] = []byte("{not json")
	svc := NewService(store, store, c, DefaultConfig(), zap.NewNop())

	report, err := svc.Patterns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalDataPoints)
	// the bad entry was overwritten with a fresh report
	assert.Equal(t, 1, c.sets)
}
