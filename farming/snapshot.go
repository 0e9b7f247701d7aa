package farming

import (
	"iter"

	"github.com/solfarm/farming-go/farming/fixedpoint"
)

// TakeSnapshot records the farm's total staked balance as of slot now,
// enforcing that at least minWindow slots have elapsed since the last
// snapshot (spec.md's "Bounded history" / minimum snapshot window
// rule). minWindow is normally the farm's own MinSnapshotWindowSlots.
func TakeSnapshot(buf *SnapshotBuffer, now uint64, staked fixedpoint.Amount, minWindow uint64) error {
	if buf.Tip > 0 {
		last := buf.Entries[(buf.Tip-1)%N]
		if now < last.StartedAt || now-last.StartedAt < minWindow {
			return ErrInsufficientSlotTime
		}
	}
	buf.Entries[buf.Tip%N] = Snapshot{StartedAt: now, Staked: staked}
	buf.Tip++
	return nil
}

// LatestSnapshot returns the most recently taken snapshot, or the zero
// Snapshot and false if none has ever been taken.
func LatestSnapshot(buf *SnapshotBuffer) (Snapshot, bool) {
	if buf.Tip == 0 {
		return Snapshot{}, false
	}
	return buf.Entries[(buf.Tip-1)%N], true
}

// OldestSnapshot returns the oldest snapshot still retained in the
// ring buffer, or the zero Snapshot and false if none has ever been
// taken.
func OldestSnapshot(buf *SnapshotBuffer) (Snapshot, bool) {
	if buf.Tip == 0 {
		return Snapshot{}, false
	}
	if buf.Tip < N {
		return buf.Entries[0], true
	}
	return buf.Entries[buf.Tip%N], true
}

// FirstSnapshotAfter returns the earliest retained snapshot whose
// StartedAt is greater than or equal to slot, walking from the oldest
// retained entry forward. Returns false if every retained snapshot
// predates slot, or none exist.
func FirstSnapshotAfter(buf *SnapshotBuffer, slot uint64) (Snapshot, bool) {
	count := buf.Tip
	if count > N {
		count = N
	}
	start := uint64(0)
	if buf.Tip > N {
		start = buf.Tip - N
	}
	for i := start; i < start+count; i++ {
		s := buf.Entries[i%N]
		if s.StartedAt >= slot {
			return s, true
		}
	}
	return Snapshot{}, false
}

// SnapshotWindow is a closed interval between two consecutive
// snapshots: Start is the older one, End the newer. The staked balance
// held throughout the window is Start.Staked (the balance as of the
// start of the interval), per spec.md §4.4's closed-window sum.
type SnapshotWindow struct {
	Start Snapshot
	End   Snapshot
}

// Windows returns a newest-first iterator over consecutive snapshot
// pairs whose End.StartedAt is strictly after from. It stops as soon
// as it reaches a window that ends at or before from, or the ring
// buffer's wrap boundary — whichever comes first — silently dropping
// any older history the buffer no longer retains, per spec.md §9
// "Bounded history".
func Windows(buf *SnapshotBuffer, from uint64) iter.Seq[SnapshotWindow] {
	return func(yield func(SnapshotWindow) bool) {
		if buf.Tip < 2 {
			return
		}
		count := buf.Tip
		if count > N {
			count = N
		}
		oldestIndex := uint64(0)
		if buf.Tip > N {
			oldestIndex = buf.Tip - N
		}
		for i := buf.Tip - 1; i > oldestIndex; i-- {
			end := buf.Entries[i%N]
			start := buf.Entries[(i-1)%N]
			if end.StartedAt <= from {
				return
			}
			if !yield(SnapshotWindow{Start: start, End: end}) {
				return
			}
		}
	}
}
