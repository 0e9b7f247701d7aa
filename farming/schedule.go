package farming

import "github.com/solfarm/farming-go/farming/fixedpoint"

// reservation returns the total harvest tokens a period locks up for
// its full run: both endpoints are inclusive, so a period spanning a
// single slot (starts_at == ends_at) still reserves one slot's worth.
func reservation(p HarvestPeriod) (fixedpoint.Amount, error) {
	duration := fixedpoint.FromUint64(p.EndsAt - p.StartsAt + 1)
	return fixedpoint.Mul(p.TPS, duration)
}

// Schedule inserts next at the front of periods (newest-first, up to
// PMax entries), or overwrites the current front entry in place when
// next re-schedules a period that hasn't started yet. It returns the
// net change in harvest tokens the caller must move into (delta,
// refund == false) or back out of (delta, refund == true) the harvest
// vault to keep it matching the schedule's total reservation.
func Schedule(periods *[PMax]HarvestPeriod, now uint64, next HarvestPeriod) (delta fixedpoint.Amount, refund bool, err error) {
	if next.StartsAt < now {
		return fixedpoint.Amount{}, false, ErrHarvestPeriodMustStartAtOrAfterCurrentSlot
	}
	if next.EndsAt <= next.StartsAt {
		return fixedpoint.Amount{}, false, ErrHarvestPeriodMustBeAtLeastOneSlot
	}

	reserve, err := reservation(next)
	if err != nil {
		return fixedpoint.Amount{}, false, err
	}

	front := periods[0]
	switch {
	case front.IsZero():
		periods[0] = next
		return reserve, false, nil

	case next.StartsAt < front.EndsAt:
		// next overlaps the current front period. Only allowed if that
		// period hasn't started accruing yet.
		if front.StartsAt < now {
			return fixedpoint.Amount{}, false, ErrCannotOverwriteOpenHarvestPeriod
		}
		oldReserve, err := reservation(front)
		if err != nil {
			return fixedpoint.Amount{}, false, err
		}
		periods[0] = next
		if reserve.LessThan(oldReserve) {
			d, err := fixedpoint.Sub(oldReserve, reserve)
			return d, true, err
		}
		d, err := fixedpoint.Sub(reserve, oldReserve)
		return d, false, err

	default:
		// next starts cleanly after the front period ends: shift
		// everything back one slot and prepend. Refuse to drop the
		// oldest period off the end of the array while it's still
		// historically relevant (hasn't fully elapsed).
		oldest := periods[PMax-1]
		if !oldest.IsZero() && oldest.EndsAt > now {
			return fixedpoint.Amount{}, false, ErrCannotOverwriteOpenHarvestPeriod
		}
		for i := PMax - 1; i > 0; i-- {
			periods[i] = periods[i-1]
		}
		periods[0] = next
		return reserve, false, nil
	}
}

// TPSAt returns the tokens-per-slot rate in effect at slot, or the
// zero Amount if slot falls outside every scheduled period (spec.md §9's
// open question on gaps between periods: resolved as zero accrual, not
// an error).
func TPSAt(periods [PMax]HarvestPeriod, slot uint64) fixedpoint.Amount {
	for _, p := range periods {
		if p.IsZero() {
			continue
		}
		if p.Contains(slot) {
			return p.TPS
		}
	}
	return fixedpoint.Zero()
}

// TPSHistory returns the periods (in stored, newest-first order) whose
// range overlaps [0, until), i.e. every period the closed-window
// accrual sum might need a rate from.
func TPSHistory(periods [PMax]HarvestPeriod, until uint64) []HarvestPeriod {
	var out []HarvestPeriod
	for _, p := range periods {
		if p.IsZero() {
			continue
		}
		if p.StartsAt < until {
			out = append(out, p)
		}
	}
	return out
}

// emittedTokens sums tps*duration across every period overlapping
// [from, to), i.e. the total farm-wide token emission for that mint
// during the interval, independent of any farmer's share of it.
func emittedTokens(periods [PMax]HarvestPeriod, from, to uint64) (fixedpoint.Amount, error) {
	if to <= from {
		return fixedpoint.Zero(), nil
	}
	total := fixedpoint.Zero()
	for _, p := range periods {
		if p.IsZero() {
			continue
		}
		start := max(p.StartsAt, from)
		end := min(p.EndsAt, to)
		if end <= start {
			continue
		}
		amt, err := fixedpoint.Mul(p.TPS, fixedpoint.FromUint64(end-start))
		if err != nil {
			return fixedpoint.Amount{}, err
		}
		total, err = fixedpoint.Add(total, amt)
		if err != nil {
			return fixedpoint.Amount{}, err
		}
	}
	return total, nil
}
