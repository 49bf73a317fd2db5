package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	ingredientRuns atomic.Int32
	cartRuns       atomic.Int32
	olderThan      atomic.Int64
	purgeRuns      atomic.Int32
	retention      atomic.Int64
	err            error
}

func (s *countingSweeper) PurgeRead(olderThan time.Duration) (int64, error) {
	s.purgeRuns.Add(1)
	s.retention.Store(int64(olderThan))
	return 3, s.err
}

func (s *countingSweeper) RefreshStatuses() (int, error) {
	s.ingredientRuns.Add(1)
	return 2, s.err
}

func (s *countingSweeper) AbandonStaleCarts(olderThan time.Duration) (int64, error) {
	s.cartRuns.Add(1)
	s.olderThan.Store(int64(olderThan))
	return 1, s.err
}

func TestMaintenanceScheduler_Sweeps(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewMaintenanceScheduler(Config{
		IngredientSpec:   "@every 1h",
		CartSpec:         "@hourly",
		CartAbandonAfter: 6 * time.Hour,

		NotificationRetention: 30 * 24 * time.Hour,
	}, sweeper, sweeper, sweeper)

	s.SweepIngredients()
	s.SweepCarts()
	s.PurgeNotifications()
	assert.Equal(t, int32(1), sweeper.ingredientRuns.Load())
	assert.Equal(t, int32(1), sweeper.cartRuns.Load())
	assert.Equal(t, int64(6*time.Hour), sweeper.olderThan.Load())
	assert.Equal(t, int32(1), sweeper.purgeRuns.Load())
	assert.Equal(t, int64(30*24*time.Hour), sweeper.retention.Load())

	// failures are logged, not raised
	sweeper.err = errors.New("database is locked")
	s.SweepIngredients()
	s.SweepCarts()
	s.PurgeNotifications()
	assert.Equal(t, int32(2), sweeper.cartRuns.Load())
	assert.Equal(t, int32(2), sweeper.purgeRuns.Load())
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewMaintenanceScheduler(Config{
		IngredientSpec: "@every 1h",
		CartSpec:       "0 * * * *",
	}, sweeper, sweeper, sweeper)

	require.NoError(t, s.Start())
	assert.Equal(t, 2, s.Entries())
	s.Stop()

	withPurge := NewMaintenanceScheduler(Config{
		IngredientSpec:   "@every 1h",
		CartSpec:         "@hourly",
		NotificationSpec: "@daily",
	}, sweeper, sweeper, sweeper)
	require.NoError(t, withPurge.Start())
	assert.Equal(t, 3, withPurge.Entries())
	withPurge.Stop()
}

func TestMaintenanceScheduler_RejectsBadSpec(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewMaintenanceScheduler(Config{
		IngredientSpec: "every so often",
		CartSpec:       "@hourly",
	}, sweeper, sweeper, sweeper)

	assert.Error(t, s.Start())
}
