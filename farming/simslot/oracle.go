// Package simslot implements farming.SlotOracle as a wall-clock-driven
// simulation, for cmd/farmd's demo mode and for deterministic tests via
// clockwork.NewFakeClock().
package simslot

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// ApproximateSlotDuration mirrors the real network's block time.
const ApproximateSlotDuration = 400 * time.Millisecond

// Oracle derives a monotonically increasing slot number from elapsed
// wall-clock time since it was created.
type Oracle struct {
	clock      clockwork.Clock
	genesis    time.Time
	genesisAt  uint64
	slotPeriod time.Duration
}

// New creates an Oracle that reports genesisAt at construction time
// and advances one slot every slotPeriod thereafter, driven by clock.
func New(clock clockwork.Clock, genesisAt uint64, slotPeriod time.Duration) *Oracle {
	if slotPeriod <= 0 {
		slotPeriod = ApproximateSlotDuration
	}
	return &Oracle{
		clock:      clock,
		genesis:    clock.Now(),
		genesisAt:  genesisAt,
		slotPeriod: slotPeriod,
	}
}

// CurrentSlot returns the simulated current slot.
func (o *Oracle) CurrentSlot(_ context.Context) (uint64, error) {
	elapsed := o.clock.Now().Sub(o.genesis)
	if elapsed <= 0 {
		return o.genesisAt, nil
	}
	return o.genesisAt + uint64(elapsed/o.slotPeriod), nil
}
