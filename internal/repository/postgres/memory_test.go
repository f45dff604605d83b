package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
)

func TestMemoryStoreApplyLightAction(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateLight(ctx, domain.TrafficLight{
		LightID:      "TL_001",
		Location:     geo.Point{Lat: 40.0, Lng: -74.0},
		State:        domain.LightRed,
		CycleSeconds: 120,
		Active:       true,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := created
	updated.State = domain.LightGreen
	updated.CycleSeconds = 150
	updated.UpdatedAt = now

	recorded, err := store.ApplyLightAction(ctx, updated, domain.ControlAction{
		Type:      domain.ActionLightChange,
		TargetID:  "TL_001",
		Status:    domain.ActionExecuted,
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NotZero(t, recorded.ID)

	// the mutation and its audit record land together
	light, err := store.LightByID(ctx, "TL_001")
	require.NoError(t, err)
	assert.Equal(t, domain.LightGreen, light.State)
	assert.Equal(t, 150, light.CycleSeconds)

	actions, err := store.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "TL_001", actions[0].TargetID)
}

func TestMemoryStoreApplyLightAction_UnknownLight(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.ApplyLightAction(context.Background(), domain.TrafficLight{LightID: "TL_X"}, domain.ControlAction{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// a failed mutation leaves no audit record behind
	actions, err := store.RecentActions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestMemoryStoreConcurrentApply(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.CreateLight(ctx, domain.TrafficLight{
		LightID: "TL_001", State: domain.LightRed, CycleSeconds: 120, Active: true,
	})
	require.NoError(t, err)

	const workers = 8
	done := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			light := domain.TrafficLight{LightID: "TL_001", State: domain.LightGreen, CycleSeconds: 150}
			_, err := store.ApplyLightAction(ctx, light, domain.ControlAction{
				Type: domain.ActionLightChange, TargetID: "TL_001", Status: domain.ActionExecuted,
			})
			done <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-done)
	}

	// one audit record per applied mutation, no more and no fewer
	actions, err := store.RecentActions(ctx, workers*2)
	require.NoError(t, err)
	assert.Len(t, actions, workers)
}
