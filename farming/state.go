package farming

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solfarm/farming-go/farming/fixedpoint"
)

const (
	// Psi is the maximum number of distinct harvest mints a single farm
	// tracks, and the number of harvest slots on a Farmer record.
	Psi = 10
	// PMax is the maximum number of scheduled periods kept per harvest
	// mint, newest-first.
	PMax = 10
	// N is the capacity of a farm's snapshot ring buffer.
	N = 1000
	// MinSnapshotWindowSlots is the smallest window a snapshot may be
	// taken over, matching the reference implementation's
	// MIN_SNAPSHOT_WINDOW_SLOTS: 14400 slots, since the integer division
	// 1000/400 truncates to 2 slots per second (2 hours at 500ms/slot,
	// about 1.6 hours at ~400ms/slot).
	MinSnapshotWindowSlots = 2 * 60 * 60 * (1000 / 400)
)

// HarvestPeriod is a single scheduled tokens-per-slot rate over a
// half-open slot range [StartsAt, EndsAt).
type HarvestPeriod struct {
	StartsAt uint64
	EndsAt   uint64
	TPS      fixedpoint.Amount
}

// IsZero reports whether p is an unused schedule slot.
func (p HarvestPeriod) IsZero() bool {
	return p.StartsAt == 0 && p.EndsAt == 0 && p.TPS.IsZero()
}

// Contains reports whether slot falls within the period's half-open
// range.
func (p HarvestPeriod) Contains(slot uint64) bool {
	return slot >= p.StartsAt && slot < p.EndsAt
}

// Snapshot records the farm's total staked balance as of a slot.
type Snapshot struct {
	StartedAt uint64
	Staked    fixedpoint.Amount
}

// SnapshotBuffer is a fixed-capacity ring buffer of historical
// snapshots. Tip counts the snapshots taken so far, so the most recent
// one is at Entries[(Tip-1)%N] and the next is written at Entries[Tip%N];
// entries not yet written are the zero Snapshot.
type SnapshotBuffer struct {
	Tip     uint64
	Entries [N]Snapshot
}

// Harvest is one harvest mint tracked by a farm: its vault and its
// schedule of tokens-per-slot rates.
type Harvest struct {
	Mint    solana.PublicKey
	Vault   solana.PublicKey
	Periods [PMax]HarvestPeriod
}

// IsZero reports whether h is an unused harvest slot.
func (h Harvest) IsZero() bool {
	return h.Mint.IsZero()
}

// Farm is the on-chain (or in-memory) record of a single staking pool:
// one stake mint, up to Psi harvest mints, and a history of stake
// snapshots used to compute time-proportional accrual.
type Farm struct {
	Admin                  solana.PublicKey
	StakeMint              solana.PublicKey
	StakeVault             solana.PublicKey
	MinSnapshotWindowSlots uint64
	Harvests               [Psi]Harvest
	Snapshots              SnapshotBuffer
}

// FarmerHarvest tracks one farmer's accrued-but-unclaimed balance for
// a single harvest mint.
type FarmerHarvest struct {
	Mint    solana.PublicKey
	Accrued fixedpoint.Amount
}

// IsZero reports whether fh is an unused farmer-harvest slot.
func (fh FarmerHarvest) IsZero() bool {
	return fh.Mint.IsZero()
}

// Farmer is one authority's staking position in a Farm: their staked
// balance, any balance still vesting out, and their accrued-but-unclaimed
// harvest per mint.
type Farmer struct {
	Authority                 solana.PublicKey
	Farm                      solana.PublicKey
	Staked                    fixedpoint.Amount
	Vested                    fixedpoint.Amount
	VestedAt                  uint64
	CalculateNextHarvestFrom  uint64
	Harvests                  [Psi]FarmerHarvest
}

// HarvestIndex returns the index of mint within f.Harvests, or -1.
func (f *Farm) HarvestIndex(mint solana.PublicKey) int {
	for i, h := range f.Harvests {
		if h.Mint.Equals(mint) {
			return i
		}
	}
	return -1
}

// firstEmptyHarvestSlot returns the index of the first unused harvest
// slot, or -1 if the farm already tracks Psi mints.
func (f *Farm) firstEmptyHarvestSlot() int {
	for i, h := range f.Harvests {
		if h.IsZero() {
			return i
		}
	}
	return -1
}

// HarvestIndex returns the index of mint within fr.Harvests, or -1.
func (fr *Farmer) HarvestIndex(mint solana.PublicKey) int {
	for i, h := range fr.Harvests {
		if h.Mint.Equals(mint) {
			return i
		}
	}
	return -1
}

// firstEmptyHarvestSlot returns the index of the first unused
// farmer-harvest slot, or -1 if the farmer already tracks Psi mints.
func (fr *Farmer) firstEmptyHarvestSlot() int {
	for i, h := range fr.Harvests {
		if h.IsZero() {
			return i
		}
	}
	return -1
}
