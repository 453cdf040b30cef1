package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/pkg/cache"
)

func TestWatchlistRunOnce(t *testing.T) {
	runner := &recordingRunner{fail: map[string]bool{"BAD": true}}
	s := NewWatchlistScheduler(runner, nil, []string{" aapl", "bad", "", "msft"}, nil)

	done := s.RunOnce(context.Background())
	assert.Equal(t, 2, done)
	require.Len(t, runner.params, 3)
	assert.Equal(t, "AAPL", runner.params[0].Ticker)
	assert.Equal(t, "MSFT", runner.params[2].Ticker)
}

func TestWatchlistSkipsWhenLocked(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	ok, err := mem.TryLock(context.Background(), "lock:watchlist", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	runner := &recordingRunner{}
	s := NewWatchlistScheduler(runner, mem, []string{"AAPL"}, nil)
	assert.Zero(t, s.RunOnce(context.Background()))
	assert.Empty(t, runner.params)

	require.NoError(t, mem.Unlock(context.Background(), "lock:watchlist"))
	assert.Equal(t, 1, s.RunOnce(context.Background()))
}

func TestWatchlistReleasesLock(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	s := NewWatchlistScheduler(&recordingRunner{}, mem, []string{"AAPL"}, nil)

	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.Equal(t, 1, s.RunOnce(context.Background()))
}

func TestWatchlistStartValidates(t *testing.T) {
	empty := NewWatchlistScheduler(&recordingRunner{}, nil, nil, nil)
	assert.Error(t, empty.Start(""))

	s := NewWatchlistScheduler(&recordingRunner{}, nil, []string{"AAPL"}, nil)
	assert.Error(t, s.Start("not a schedule"))
}

func TestWatchlistStartStop(t *testing.T) {
	s := NewWatchlistScheduler(&recordingRunner{}, nil, []string{"AAPL"}, nil)
	require.NoError(t, s.Start("*/5 * * * *"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
