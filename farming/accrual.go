package farming

import "github.com/solfarm/farming-go/farming/fixedpoint"

// vestingBoundary returns the StartedAt of the earliest snapshot taken
// after farmer's VestedAt, along with whether one exists yet. That
// snapshot's StartedAt moving past VestedAt is what proves the deposit
// was on the books before it ran, so it's the slot from which the
// deposit is safe to count as stake. Until such a snapshot exists, a
// newly started deposit sits in Vested and earns nothing, so a flash
// stake right before take_farm_snapshot can't dilute other farmers'
// share of that snapshot's window.
func vestingBoundary(farm *Farm, farmer *Farmer) (uint64, bool) {
	if farmer.Vested.IsZero() {
		return 0, false
	}
	snap, ok := FirstSnapshotAfter(&farm.Snapshots, farmer.VestedAt+1)
	if !ok {
		return 0, false
	}
	return snap.StartedAt, true
}

// reconcileVesting folds farmer's vested balance into Staked once
// hasBoundary reports that a qualifying snapshot exists.
func reconcileVesting(farmer *Farmer, hasBoundary bool) error {
	if !hasBoundary {
		return nil
	}
	staked, err := fixedpoint.Add(farmer.Staked, farmer.Vested)
	if err != nil {
		return err
	}
	farmer.Staked = staked
	farmer.Vested = fixedpoint.Zero()
	farmer.VestedAt = 0
	return nil
}

// unstake drains up to max out of farmer's balance, vested first and
// then staked, capped at the farmer's total deposited balance. Mirrors
// the reference implementation's vested-first drawdown order: vesting
// tokens haven't earned anything yet, so they're the first to leave.
func unstake(farmer *Farmer, max fixedpoint.Amount) (fixedpoint.Amount, error) {
	total, err := fixedpoint.Add(farmer.Staked, farmer.Vested)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	amount := fixedpoint.Min(max, total)

	fromVested := fixedpoint.Min(amount, farmer.Vested)
	newVested, err := fixedpoint.Sub(farmer.Vested, fromVested)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	fromStaked, err := fixedpoint.Sub(amount, fromVested)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	newStaked, err := fixedpoint.Sub(farmer.Staked, fromStaked)
	if err != nil {
		return fixedpoint.Amount{}, err
	}

	farmer.Vested = newVested
	farmer.Staked = newStaked
	if farmer.Vested.IsZero() {
		farmer.VestedAt = 0
	}
	return amount, nil
}

// syncHarvestMints ensures every non-empty harvest mint on farm has a
// matching FarmerHarvest slot on farmer, allocating into the first
// empty slot when one doesn't exist yet. Mirrors the reference
// implementation's sync_harvest_mints: farmers only track mints the
// farm actually offers, and gain a zero-accrued slot the first time
// accrual runs after the farm adds a new one.
func syncHarvestMints(farm *Farm, farmer *Farmer) error {
	for _, h := range farm.Harvests {
		if h.IsZero() {
			continue
		}
		if farmer.HarvestIndex(h.Mint) != -1 {
			continue
		}
		idx := farmer.firstEmptyHarvestSlot()
		if idx == -1 {
			return ErrHarvestMintsFull
		}
		farmer.Harvests[idx] = FarmerHarvest{Mint: h.Mint}
	}
	return nil
}

// UpdateEligibleHarvestUntil advances farmer's accrued balance for
// every harvest mint on farm through slot until inclusive, then sets
// farmer.CalculateNextHarvestFrom to until + 1. It is idempotent:
// calling it again with an until before the farmer's current watermark
// does nothing, and calling it repeatedly with increasing until values
// accrues each slot exactly once.
//
// A farmer whose Vested balance hasn't yet been swept into Staked by a
// qualifying snapshot is split into two phases: windows ending at or
// before that snapshot use the farmer's pre-fold Staked balance (zero,
// typically, for a fresh deposit), and everything from that snapshot
// onward uses the balance after folding Vested in. This mirrors
// check_vested_period_and_update_harvest, which computes eligible
// harvest up to the qualifying snapshot's started_at - 1 before
// folding vested into staked and continuing from there.
func UpdateEligibleHarvestUntil(farm *Farm, farmer *Farmer, until uint64) error {
	if err := syncHarvestMints(farm, farmer); err != nil {
		return err
	}

	from := farmer.CalculateNextHarvestFrom
	if until < from {
		return nil
	}

	oldStaked := farmer.Staked
	boundary, hasBoundary := vestingBoundary(farm, farmer)
	if err := reconcileVesting(farmer, hasBoundary); err != nil {
		return err
	}

	for w := range Windows(&farm.Snapshots, from) {
		ws := max(w.Start.StartedAt, from)
		we := min(w.End.StartedAt, until+1)
		if we <= ws {
			continue
		}
		if w.Start.Staked.IsZero() {
			continue
		}
		farmerStaked := farmer.Staked
		if hasBoundary && w.End.StartedAt <= boundary {
			farmerStaked = oldStaked
		}
		if err := accrueInterval(farm, farmer, ws, we, farmerStaked, w.Start.Staked); err != nil {
			return err
		}
	}

	latest, ok := LatestSnapshot(&farm.Snapshots)
	tailStart := from
	if ok && latest.StartedAt > tailStart {
		tailStart = latest.StartedAt
	}
	if ok && !latest.Staked.IsZero() && until >= tailStart {
		if err := accrueInterval(farm, farmer, tailStart, until+1, farmer.Staked, latest.Staked); err != nil {
			return err
		}
	}

	farmer.CalculateNextHarvestFrom = until + 1
	return nil
}

// UpdateEligibleHarvest is UpdateEligibleHarvestUntil with until set to
// the current slot.
func UpdateEligibleHarvest(farm *Farm, farmer *Farmer, now uint64) error {
	return UpdateEligibleHarvestUntil(farm, farmer, now)
}

// accrueInterval credits farmer's share of every harvest mint's
// emission over [from, to), where farmerStaked is the farmer's staked
// balance in effect throughout the interval (which may predate any
// vesting fold made for a later interval) and totalStaked is the
// farm-wide staked balance in effect throughout the interval.
func accrueInterval(farm *Farm, farmer *Farmer, from, to uint64, farmerStaked, totalStaked fixedpoint.Amount) error {
	if farmerStaked.IsZero() {
		return nil
	}
	for _, h := range farm.Harvests {
		if h.IsZero() {
			continue
		}
		emitted, err := emittedTokens(h.Periods, from, to)
		if err != nil {
			return err
		}
		if emitted.IsZero() {
			continue
		}
		reward, err := fixedpoint.MulDiv(farmerStaked, emitted, totalStaked)
		if err != nil {
			return err
		}
		if reward.IsZero() {
			continue
		}
		idx := farmer.HarvestIndex(h.Mint)
		if idx == -1 {
			return ErrUnknownHarvestMintPubKey
		}
		sum, err := fixedpoint.Add(farmer.Harvests[idx].Accrued, reward)
		if err != nil {
			return err
		}
		farmer.Harvests[idx].Accrued = sum
	}
	return nil
}
