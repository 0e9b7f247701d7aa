package farming_test

import (
	"testing"

	"github.com/solfarm/farming-go/farming"
	"github.com/solfarm/farming-go/farming/fixedpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeSnapshotEnforcesMinWindow(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	require.NoError(t, farming.TakeSnapshot(&buf, 100, fixedpoint.FromUint64(10), 50))

	err := farming.TakeSnapshot(&buf, 120, fixedpoint.FromUint64(20), 50)
	assert.ErrorIs(t, err, farming.ErrInsufficientSlotTime)

	require.NoError(t, farming.TakeSnapshot(&buf, 200, fixedpoint.FromUint64(20), 50))
}

func TestLatestAndOldestSnapshot(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	_, ok := farming.LatestSnapshot(&buf)
	assert.False(t, ok)
	_, ok = farming.OldestSnapshot(&buf)
	assert.False(t, ok)

	for i := uint64(0); i < 5; i++ {
		require.NoError(t, farming.TakeSnapshot(&buf, 100*(i+1), fixedpoint.FromUint64(i), 100))
	}

	latest, ok := farming.LatestSnapshot(&buf)
	require.True(t, ok)
	assert.Equal(t, uint64(500), latest.StartedAt)

	oldest, ok := farming.OldestSnapshot(&buf)
	require.True(t, ok)
	assert.Equal(t, uint64(100), oldest.StartedAt)
}

func TestSnapshotRingBufferWraps(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	for i := uint64(0); i < farming.N+5; i++ {
		require.NoError(t, farming.TakeSnapshot(&buf, (i+1)*100, fixedpoint.FromUint64(i), 100))
	}

	oldest, ok := farming.OldestSnapshot(&buf)
	require.True(t, ok)
	// the first 5 snapshots have been overwritten by wraparound.
	assert.Equal(t, uint64(600), oldest.StartedAt)

	latest, ok := farming.LatestSnapshot(&buf)
	require.True(t, ok)
	assert.Equal(t, uint64((farming.N+5)*100), latest.StartedAt)
}

func TestFirstSnapshotAfter(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, farming.TakeSnapshot(&buf, 100*(i+1), fixedpoint.FromUint64(i), 100))
	}

	s, ok := farming.FirstSnapshotAfter(&buf, 250)
	require.True(t, ok)
	assert.Equal(t, uint64(300), s.StartedAt)

	_, ok = farming.FirstSnapshotAfter(&buf, 10000)
	assert.False(t, ok)
}

func TestWindowsNewestFirstStopsAtFrom(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	for i := uint64(0); i < 4; i++ {
		require.NoError(t, farming.TakeSnapshot(&buf, 100*(i+1), fixedpoint.FromUint64(i), 100))
	}

	var starts []uint64
	for w := range farming.Windows(&buf, 150) {
		starts = append(starts, w.Start.StartedAt)
	}
	// windows: (300,400], (200,300] -- (100,200] ends at 200 > from=150 so
	// it's included too, but (nothing,100] never exists since Tip starts
	// pairing from index 1.
	assert.Equal(t, []uint64{300, 200, 100}, starts)
}

func TestWindowsEmptyBuffer(t *testing.T) {
	t.Parallel()

	var buf farming.SnapshotBuffer
	count := 0
	for range farming.Windows(&buf, 0) {
		count++
	}
	assert.Equal(t, 0, count)
}
