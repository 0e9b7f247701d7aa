package farming

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/solfarm/farming-go/farming/fixedpoint"
	"github.com/solfarm/farming-go/farming/metrics"
)

func (e *Engine) currentSlot(ctx context.Context) (uint64, error) {
	return e.slots.CurrentSlot(ctx)
}

func recordOutcome(op string, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.Operations.WithLabelValues(op, outcome).Inc()
}

// InitializeFarm creates a new Farm record for farm, admin-owned, over
// stakeMint, with the given minimum snapshot window (which is raised
// to MinSnapshotWindowSlots if configured lower).
func (e *Engine) InitializeFarm(ctx context.Context, farm, admin, stakeMint, stakeVault solana.PublicKey, minSnapshotWindowSlots uint64) (err error) {
	defer recordOutcome("initialize_farm", &err)

	if admin.IsZero() || stakeMint.IsZero() || stakeVault.IsZero() {
		return ErrInvalidAccountInput
	}
	if minSnapshotWindowSlots < MinSnapshotWindowSlots {
		minSnapshotWindowSlots = MinSnapshotWindowSlots
	}

	unlock := e.locks.lock(farm)
	defer unlock()

	f := &Farm{
		Admin:                  admin,
		StakeMint:              stakeMint,
		StakeVault:             stakeVault,
		MinSnapshotWindowSlots: minSnapshotWindowSlots,
	}
	return e.ledger.SaveFarm(ctx, farm, f)
}

// AddHarvestMint registers mint as one of farm's harvest mints, backed
// by vault. Only the farm's admin may call this.
func (e *Engine) AddHarvestMint(ctx context.Context, caller, farm, mint, vault solana.PublicKey) (err error) {
	defer recordOutcome("add_harvest_mint", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.Admin.Equals(caller) {
		return ErrFarmAdminMismatch
	}
	if f.HarvestIndex(mint) != -1 {
		return ErrInvalidAccountInput
	}
	idx := f.firstEmptyHarvestSlot()
	if idx == -1 {
		return ErrHarvestMintsFull
	}
	f.Harvests[idx] = Harvest{Mint: mint, Vault: vault}
	return e.ledger.SaveFarm(ctx, farm, f)
}

// ScheduleHarvestPeriod schedules a new tokens-per-slot period for
// mint on farm, moving the net change in reserved harvest tokens
// between adminWallet and the harvest vault: adminWallet is debited
// when the new schedule reserves more than what it replaces, credited
// when it reserves less. Only the farm's admin may call this.
func (e *Engine) ScheduleHarvestPeriod(ctx context.Context, caller, farm, mint, adminWallet solana.PublicKey, period HarvestPeriod) (err error) {
	defer recordOutcome("schedule_harvest_period", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.Admin.Equals(caller) {
		return ErrFarmAdminMismatch
	}
	idx := f.HarvestIndex(mint)
	if idx == -1 {
		return ErrUnknownHarvestMintPubKey
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}

	delta, refund, err := Schedule(&f.Harvests[idx].Periods, now, period)
	if err != nil {
		return err
	}
	if !delta.IsZero() {
		vault := f.Harvests[idx].Vault
		if refund {
			err = e.ledger.Transfer(ctx, mint, vault, adminWallet, delta)
		} else {
			err = e.ledger.Transfer(ctx, mint, adminWallet, vault, delta)
		}
		if err != nil {
			return err
		}
	}
	return e.ledger.SaveFarm(ctx, farm, f)
}

// TakeFarmSnapshot records farm's current staked balance in its
// snapshot ring buffer. Permissionless: anyone can call it, as long as
// at least the farm's configured minimum window has elapsed since the
// last snapshot.
func (e *Engine) TakeFarmSnapshot(ctx context.Context, farm solana.PublicKey) (err error) {
	defer recordOutcome("take_farm_snapshot", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	staked, err := e.ledger.VaultBalance(ctx, f.StakeVault)
	if err != nil {
		return err
	}
	if err = TakeSnapshot(&f.Snapshots, now, staked, f.MinSnapshotWindowSlots); err != nil {
		return err
	}
	if err = e.ledger.SaveFarm(ctx, farm, f); err != nil {
		return err
	}
	metrics.Snapshots.WithLabelValues(farm.String()).Inc()
	metrics.StakedTokens.WithLabelValues(farm.String()).Set(mustFloat(staked))
	return nil
}

// InitializeFarmer creates a new, empty Farmer record for authority
// within farm.
func (e *Engine) InitializeFarmer(ctx context.Context, farm, authority solana.PublicKey) (farmer solana.PublicKey, err error) {
	defer recordOutcome("initialize_farmer", &err)
	return e.ledger.CreateFarmer(ctx, farm, authority)
}

// StartFarming stakes amount of farm's stake mint from src into farm's
// stake vault, crediting farmer's Vested balance (folded into Staked by
// the first snapshot taken after this slot). Accrual is
// reconciled up to now first, so the stake-weighted history before
// this deposit is unaffected by it.
func (e *Engine) StartFarming(ctx context.Context, farm, farmer, src solana.PublicKey, amount fixedpoint.Amount) (err error) {
	defer recordOutcome("start_farming", &err)

	if amount.IsZero() {
		return ErrAmountMustBePositive
	}

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	if err = UpdateEligibleHarvest(f, fr, now); err != nil {
		return err
	}

	if err = e.ledger.Transfer(ctx, f.StakeMint, src, f.StakeVault, amount); err != nil {
		return err
	}
	newVested, err := fixedpoint.Add(fr.Vested, amount)
	if err != nil {
		return err
	}
	fr.Vested = newVested
	fr.VestedAt = now

	if err = e.ledger.SaveFarmer(ctx, farmer, fr); err != nil {
		return err
	}
	return e.ledger.SaveFarm(ctx, farm, f)
}

// StopFarming unstakes up to maxAmount of farmer's balance, draining
// Vested before Staked, and transfers the amount actually unstaked out
// of farm's stake vault to dst in the same call. Accrual is reconciled
// first so the departing stake still earns credit through now. Only
// farmer's authority may call this.
func (e *Engine) StopFarming(ctx context.Context, farm, farmer, authority, dst solana.PublicKey, maxAmount fixedpoint.Amount) (err error) {
	defer recordOutcome("stop_farming", &err)

	if maxAmount.IsZero() {
		return ErrAmountMustBePositive
	}

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}
	if !fr.Authority.Equals(authority) {
		return ErrFarmerAuthorityMismatch
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	if err = UpdateEligibleHarvest(f, fr, now); err != nil {
		return err
	}

	amount, err := unstake(fr, maxAmount)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return e.ledger.SaveFarmer(ctx, farmer, fr)
	}

	if err = e.ledger.Transfer(ctx, f.StakeMint, f.StakeVault, dst, amount); err != nil {
		return err
	}
	return e.ledger.SaveFarmer(ctx, farmer, fr)
}

// UpdateEligibleHarvest advances farmer's accrued balances through the
// current slot and persists the result.
func (e *Engine) UpdateEligibleHarvest(ctx context.Context, farm, farmer solana.PublicKey) (err error) {
	defer recordOutcome("update_eligible_harvest", &err)

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	if err = UpdateEligibleHarvest(f, fr, now); err != nil {
		return err
	}
	return e.ledger.SaveFarmer(ctx, farmer, fr)
}

// HarvestClaim identifies one (vault, wallet) pair passed to
// ClaimEligibleHarvest: vault is the farm's harvest vault to debit,
// identifying which harvest mint is being claimed; wallet is the
// destination that receives it.
type HarvestClaim struct {
	Vault  solana.PublicKey
	Wallet solana.PublicKey
}

// resolveHarvestVault finds the harvest entry on farm backed by vault
// and returns its mint. Rejects farm's stake vault outright: without
// this check, the harvest-claim path could be used to drain staked
// principal instead of accrued rewards.
func resolveHarvestVault(f *Farm, vault solana.PublicKey) (mint solana.PublicKey, idx int, err error) {
	if vault.Equals(f.StakeVault) {
		return solana.PublicKey{}, -1, ErrInvalidAccountInput
	}
	for i, h := range f.Harvests {
		if h.IsZero() {
			continue
		}
		if h.Vault.Equals(vault) {
			return h.Mint, i, nil
		}
	}
	return solana.PublicKey{}, -1, ErrUnknownHarvestMintPubKey
}

// ClaimEligibleHarvest reconciles accrual through now, then for each
// (vault, wallet) pair in claims transfers the accrued balance for the
// mint backing that vault to wallet, zeroing it. Only farmer's
// authority may call this.
func (e *Engine) ClaimEligibleHarvest(ctx context.Context, farm, farmer, authority solana.PublicKey, claims []HarvestClaim) (err error) {
	defer recordOutcome("claim_eligible_harvest", &err)

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}
	if !fr.Authority.Equals(authority) {
		return ErrFarmerAuthorityMismatch
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	if err = UpdateEligibleHarvest(f, fr, now); err != nil {
		return err
	}

	for _, claim := range claims {
		mint, hIdx, rerr := resolveHarvestVault(f, claim.Vault)
		if rerr != nil {
			return rerr
		}
		frIdx := fr.HarvestIndex(mint)
		if frIdx == -1 {
			return ErrUnknownHarvestMintPubKey
		}
		amount := fr.Harvests[frIdx].Accrued
		if amount.IsZero() {
			continue
		}
		if err = e.ledger.Transfer(ctx, mint, f.Harvests[hIdx].Vault, claim.Wallet, amount); err != nil {
			return err
		}
		fr.Harvests[frIdx].Accrued = fixedpoint.Zero()
		metrics.Claimed.WithLabelValues(farm.String(), mint.String()).Add(mustFloat(amount))
	}

	return e.ledger.SaveFarmer(ctx, farmer, fr)
}

// claimHarvestByMint looks up farmer's accrued balance for mint
// directly, for internal callers (compounding) that already know the
// mint rather than a vault key.
func claimHarvestByMint(f *Farm, fr *Farmer, mint solana.PublicKey) (fixedpoint.Amount, int, error) {
	hIdx := f.HarvestIndex(mint)
	if hIdx == -1 {
		return fixedpoint.Amount{}, -1, ErrUnknownHarvestMintPubKey
	}
	frIdx := fr.HarvestIndex(mint)
	if frIdx == -1 {
		return fixedpoint.Amount{}, -1, ErrUnknownHarvestMintPubKey
	}
	return fr.Harvests[frIdx].Accrued, hIdx, nil
}

// claimInternal reconciles accrual and transfers farmer's accrued
// balance for mint to dst, zeroing it, for CompoundSameFarm and
// CompoundAcrossFarms. Unlike ClaimEligibleHarvest it identifies the
// harvest by mint, since callers already resolved that from farm
// state, and dst is an intermediate wallet the caller immediately
// restakes from rather than the compounder's own withdrawal target.
func (e *Engine) claimInternal(ctx context.Context, farm, farmer, mint, dst solana.PublicKey) (fixedpoint.Amount, error) {
	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return fixedpoint.Amount{}, err
	}

	now, err := e.currentSlot(ctx)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	if err = UpdateEligibleHarvest(f, fr, now); err != nil {
		return fixedpoint.Amount{}, err
	}

	amount, hIdx, err := claimHarvestByMint(f, fr, mint)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	if amount.IsZero() {
		return fixedpoint.Zero(), nil
	}

	if err = e.ledger.Transfer(ctx, mint, f.Harvests[hIdx].Vault, dst, amount); err != nil {
		return fixedpoint.Amount{}, err
	}
	frIdx := fr.HarvestIndex(mint)
	fr.Harvests[frIdx].Accrued = fixedpoint.Zero()

	if err = e.ledger.SaveFarmer(ctx, farmer, fr); err != nil {
		return fixedpoint.Amount{}, err
	}
	metrics.Claimed.WithLabelValues(farm.String(), mint.String()).Add(mustFloat(amount))
	return amount, nil
}

// RemoveHarvest drops mint from farm's harvest set once its vault has
// been fully claimed out. Only the farm's admin may call this.
func (e *Engine) RemoveHarvest(ctx context.Context, caller, farm, mint solana.PublicKey) (err error) {
	defer recordOutcome("remove_harvest", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.Admin.Equals(caller) {
		return ErrFarmAdminMismatch
	}
	idx := f.HarvestIndex(mint)
	if idx == -1 {
		return ErrUnknownHarvestMintPubKey
	}
	balance, err := e.ledger.VaultBalance(ctx, f.Harvests[idx].Vault)
	if err != nil {
		return err
	}
	if !balance.IsZero() {
		return ErrHarvestVaultNotEmpty
	}
	f.Harvests[idx] = Harvest{}
	return e.ledger.SaveFarm(ctx, farm, f)
}

// SetFarmOwner transfers administration of farm to newAdmin. Only the
// current admin may call this.
func (e *Engine) SetFarmOwner(ctx context.Context, caller, farm, newAdmin solana.PublicKey) (err error) {
	defer recordOutcome("set_farm_owner", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.Admin.Equals(caller) {
		return ErrFarmAdminMismatch
	}
	f.Admin = newAdmin
	return e.ledger.SaveFarm(ctx, farm, f)
}

// SetMinSnapshotWindow updates the minimum number of slots that must
// elapse between two of farm's snapshots. Only the farm's admin may
// call this.
func (e *Engine) SetMinSnapshotWindow(ctx context.Context, caller, farm solana.PublicKey, minSnapshotWindowSlots uint64) (err error) {
	defer recordOutcome("set_min_snapshot_window", &err)

	unlock := e.locks.lock(farm)
	defer unlock()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.Admin.Equals(caller) {
		return ErrFarmAdminMismatch
	}
	f.MinSnapshotWindowSlots = minSnapshotWindowSlots
	return e.ledger.SaveFarm(ctx, farm, f)
}

// Airdrop credits farmer's accrued balance for mint by amount and
// transfers amount from wallet into farm's harvest vault, outside the
// normal accrual path. Used for one-off migrations and manual top-ups;
// anyone holding wallet's authority may call it, since it can only add
// to what a farmer is eligible to claim.
func (e *Engine) Airdrop(ctx context.Context, farm, farmer, wallet, mint solana.PublicKey, amount fixedpoint.Amount) (err error) {
	defer recordOutcome("airdrop", &err)

	if amount.IsZero() {
		return ErrAmountMustBePositive
	}

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}
	hIdx := f.HarvestIndex(mint)
	if hIdx == -1 {
		return ErrUnknownHarvestMintPubKey
	}
	if err = syncHarvestMints(f, fr); err != nil {
		return err
	}
	frIdx := fr.HarvestIndex(mint)
	if frIdx == -1 {
		return ErrUnknownHarvestMintPubKey
	}

	sum, err := fixedpoint.Add(fr.Harvests[frIdx].Accrued, amount)
	if err != nil {
		return err
	}
	fr.Harvests[frIdx].Accrued = sum

	if err = e.ledger.Transfer(ctx, mint, wallet, f.Harvests[hIdx].Vault, amount); err != nil {
		return err
	}
	return e.ledger.SaveFarmer(ctx, farmer, fr)
}

// UpdateEligibleHarvestUntil advances farmer's accrued balances through
// slot until, or through the current slot when until lies beyond it,
// and persists the result, letting a crank roll a farmer's
// watermark forward before the snapshot ring buffer's history would
// otherwise lose it.
func (e *Engine) UpdateEligibleHarvestUntil(ctx context.Context, farm, farmer solana.PublicKey, until uint64) (err error) {
	defer recordOutcome("update_eligible_harvest_until", &err)

	unlockFarm := e.locks.lock(farm)
	defer unlockFarm()
	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}
	now, err := e.currentSlot(ctx)
	if err != nil {
		return err
	}
	if err = UpdateEligibleHarvestUntil(f, fr, min(until, now)); err != nil {
		return err
	}
	return e.ledger.SaveFarmer(ctx, farmer, fr)
}

// CloseFarmer removes farmer's account once it holds no stake and no
// unclaimed harvest. Only farmer's authority may call this.
func (e *Engine) CloseFarmer(ctx context.Context, farmer, authority solana.PublicKey) (err error) {
	defer recordOutcome("close_farmer", &err)

	unlockFarmer := e.locks.lock(farmer)
	defer unlockFarmer()

	fr, err := e.ledger.LoadFarmer(ctx, farmer)
	if err != nil {
		return err
	}
	if !fr.Authority.Equals(authority) {
		return ErrFarmerAuthorityMismatch
	}
	return e.ledger.CloseFarmer(ctx, farmer)
}

// WhitelistFarmForCompounding authorizes claims from sourceFarm to be
// restaked directly into targetFarm via CompoundAcrossFarms.
func (e *Engine) WhitelistFarmForCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) (err error) {
	defer recordOutcome("whitelist_farm_for_compounding", &err)
	return e.ledger.CreateWhitelistCompounding(ctx, sourceFarm, targetFarm)
}

// DewhitelistFarmForCompounding revokes a prior
// WhitelistFarmForCompounding authorization.
func (e *Engine) DewhitelistFarmForCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) (err error) {
	defer recordOutcome("dewhitelist_farm_for_compounding", &err)
	return e.ledger.CloseWhitelistCompounding(ctx, sourceFarm, targetFarm)
}

// CompoundSameFarm claims farmer's accrued balance for mint and
// immediately restakes it into the same farm. Only valid when mint is
// also farm's stake mint (the reference implementation's
// CannotCompoundIfStakeMintIsNotHarvest guard).
func (e *Engine) CompoundSameFarm(ctx context.Context, farm, farmer, vault solana.PublicKey, mint solana.PublicKey) (err error) {
	defer recordOutcome("compound_same_farm", &err)

	f, err := e.ledger.LoadFarm(ctx, farm)
	if err != nil {
		return err
	}
	if !f.StakeMint.Equals(mint) {
		return ErrInvalidAccountInput
	}

	claimed, err := e.claimInternal(ctx, farm, farmer, mint, vault)
	if err != nil {
		return err
	}
	if claimed.IsZero() {
		return nil
	}
	return e.StartFarming(ctx, farm, farmer, vault, claimed)
}

// CompoundAcrossFarms claims sourceFarmer's accrued balance for mint
// out of sourceFarm and restakes it into targetFarmer within
// targetFarm, provided sourceFarm has been whitelisted for compounding
// into targetFarm.
func (e *Engine) CompoundAcrossFarms(ctx context.Context, sourceFarm, sourceFarmer, targetFarm, targetFarmer, mint, vault solana.PublicKey) (err error) {
	defer recordOutcome("compound_across_farms", &err)

	ok, err := e.ledger.LookupWhitelistCompounding(ctx, sourceFarm, targetFarm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidAccountInput
	}

	targetFarmState, err := e.ledger.LoadFarm(ctx, targetFarm)
	if err != nil {
		return err
	}
	if !targetFarmState.StakeMint.Equals(mint) {
		return ErrInvalidAccountInput
	}

	claimed, err := e.claimInternal(ctx, sourceFarm, sourceFarmer, mint, vault)
	if err != nil {
		return err
	}
	if claimed.IsZero() {
		return nil
	}
	return e.StartFarming(ctx, targetFarm, targetFarmer, vault, claimed)
}

func mustFloat(a fixedpoint.Amount) float64 {
	v, err := a.Uint64()
	if err != nil {
		return 0
	}
	return float64(v)
}
