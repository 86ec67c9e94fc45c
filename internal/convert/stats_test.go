package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, ms == 500)
	}

	snap := stats.Snapshot()
	assert.Equal(t, 5, snap.Count)
	assert.Equal(t, 1, snap.Failures)
	assert.Equal(t, int64(100), snap.MinMs)
	assert.Equal(t, int64(500), snap.MaxMs)
	assert.InDelta(t, 300, snap.AvgMs, 0.001)
	assert.InDelta(t, 300, snap.P50Ms, 0.001)
	assert.InDelta(t, 480, snap.P95Ms, 0.001)
	assert.InDelta(t, 496, snap.P99Ms, 0.001)
}

func TestLatencyStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	stats := NewLatencyStats(10 * time.Second)
	stats.now = func() time.Time { return now }

	stats.Record(100*time.Millisecond, false)
	now = now.Add(25 * time.Second)
	assert.Equal(t, 0, stats.Snapshot().Count)

	stats.Record(200*time.Millisecond, false)
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(200), snap.MinMs)
	assert.Equal(t, int64(200), snap.MaxMs)
}

func TestLatencyStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewLatencyStats(time.Hour)
	stats.Record(-10*time.Millisecond, false)
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Equal(t, int64(0), snap.MaxMs)
}

func TestLatencyStatsEmpty(t *testing.T) {
	assert.Equal(t, StatsSnapshot{}, NewLatencyStats(0).Snapshot())
}
