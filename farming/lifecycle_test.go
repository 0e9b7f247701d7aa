package farming_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfarm/farming-go/farming"
	"github.com/solfarm/farming-go/farming/fixedpoint"
	"github.com/solfarm/farming-go/farming/simslot"
)

// fixedSlotOracle reports a slot that tests can mutate directly,
// giving deterministic control over accrual without wiring a fake
// clock through simslot for every scenario.
type fixedSlotOracle struct{ slot uint64 }

func (o *fixedSlotOracle) CurrentSlot(context.Context) (uint64, error) { return o.slot, nil }

func newTestEngine(t *testing.T, oracle farming.SlotOracle, ledger farming.Ledger) *farming.Engine {
	t.Helper()
	e, err := farming.NewEngine(farming.Config{
		Ledger:     ledger,
		SlotOracle: oracle,
		Logger:     slog.Default(),
	})
	require.NoError(t, err)
	return e
}

func TestEngineStakeAccrueClaim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	adminWallet := solana.NewWallet().PublicKey()
	stakeMint := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, stakeMint, stakeVault, farming.MinSnapshotWindowSlots))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))
	ledger.SetBalance(adminWallet, fixedpoint.FromUint64(100_000_000))
	require.NoError(t, e.ScheduleHarvestPeriod(ctx, admin, farm, harvestMint, adminWallet, farming.HarvestPeriod{
		StartsAt: 0, EndsAt: 1_000_000, TPS: fixedpoint.FromUint64(10),
	}))

	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	ledger.SetBalance(staker, fixedpoint.FromUint64(1000))
	require.NoError(t, e.StartFarming(ctx, farm, farmer, staker, fixedpoint.FromUint64(100)))

	oracle.slot = farming.MinSnapshotWindowSlots
	require.NoError(t, e.TakeFarmSnapshot(ctx, farm))

	oracle.slot += farming.MinSnapshotWindowSlots
	require.NoError(t, e.TakeFarmSnapshot(ctx, farm))

	require.NoError(t, e.UpdateEligibleHarvest(ctx, farm, farmer))

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	idx := fr.HarvestIndex(harvestMint)
	require.NotEqual(t, -1, idx)
	assert.False(t, fr.Harvests[idx].Accrued.IsZero())

	dst := solana.NewWallet().PublicKey()
	require.NoError(t, e.ClaimEligibleHarvest(ctx, farm, farmer, staker, []farming.HarvestClaim{
		{Vault: harvestVault, Wallet: dst},
	}))

	fr, err = ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.True(t, fr.Harvests[fr.HarvestIndex(harvestMint)].Accrued.IsZero())

	dstBal, err := ledger.VaultBalance(ctx, dst)
	require.NoError(t, err)
	assert.False(t, dstBal.IsZero())
}

func TestEngineClaimEligibleHarvestRejectsStakeVault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), stakeVault, 0))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	err = e.ClaimEligibleHarvest(ctx, farm, farmer, staker, []farming.HarvestClaim{
		{Vault: stakeVault, Wallet: solana.NewWallet().PublicKey()},
	})
	assert.ErrorIs(t, err, farming.ErrInvalidAccountInput)
}

func TestEngineAddHarvestMintRequiresAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := farming.NewMemoryLedger(solana.NewWallet().PublicKey())
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))

	notAdmin := solana.NewWallet().PublicKey()
	err := e.AddHarvestMint(ctx, notAdmin, farm, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, farming.ErrFarmAdminMismatch)
}

func TestEngineCannotStartFarmingZeroAmount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := farming.NewMemoryLedger(solana.NewWallet().PublicKey())
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	farm := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeFarm(ctx, farm, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	farmer, err := e.InitializeFarmer(ctx, farm, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	err = e.StartFarming(ctx, farm, farmer, solana.NewWallet().PublicKey(), fixedpoint.Zero())
	assert.ErrorIs(t, err, farming.ErrAmountMustBePositive)
}

func TestEngineCloseFarmerRefusesUnclaimedHarvest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := farming.NewMemoryLedger(solana.NewWallet().PublicKey())
	farm := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	farmer, err := ledger.CreateFarmer(ctx, farm, authority)
	require.NoError(t, err)

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	fr.Harvests[0] = farming.FarmerHarvest{Mint: solana.NewWallet().PublicKey(), Accrued: fixedpoint.FromUint64(1)}
	require.NoError(t, ledger.SaveFarmer(ctx, farmer, fr))

	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)
	err = e.CloseFarmer(ctx, farmer, authority)
	assert.ErrorIs(t, err, farming.ErrFarmerHasUnclaimedHarvest)
}

func TestEngineStopFarmingTransfersAmount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	stakeMint := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, stakeMint, stakeVault, 0))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	ledger.SetBalance(staker, fixedpoint.FromUint64(1000))
	require.NoError(t, e.StartFarming(ctx, farm, farmer, staker, fixedpoint.FromUint64(500)))
	ledger.SetBalance(stakeVault, fixedpoint.FromUint64(500))

	dst := solana.NewWallet().PublicKey()
	require.NoError(t, e.StopFarming(ctx, farm, farmer, staker, dst, fixedpoint.FromUint64(500)))

	dstBal, err := ledger.VaultBalance(ctx, dst)
	require.NoError(t, err)
	got, err := dstBal.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.True(t, fr.Vested.IsZero())
	assert.True(t, fr.Staked.IsZero())
	assert.Equal(t, uint64(0), fr.VestedAt)
}

func TestEngineStopFarmingRequiresAuthority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), stakeVault, 0))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	ledger.SetBalance(staker, fixedpoint.FromUint64(200))
	require.NoError(t, e.StartFarming(ctx, farm, farmer, staker, fixedpoint.FromUint64(200)))

	impostor := solana.NewWallet().PublicKey()
	err = e.StopFarming(ctx, farm, farmer, impostor, solana.NewWallet().PublicKey(), fixedpoint.FromUint64(200))
	assert.ErrorIs(t, err, farming.ErrFarmerAuthorityMismatch)
}

func TestEngineClaimEligibleHarvestRequiresAuthority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	impostor := solana.NewWallet().PublicKey()
	err = e.ClaimEligibleHarvest(ctx, farm, farmer, impostor, []farming.HarvestClaim{
		{Vault: harvestVault, Wallet: solana.NewWallet().PublicKey()},
	})
	assert.ErrorIs(t, err, farming.ErrFarmerAuthorityMismatch)
}

func TestEngineCloseFarmerRequiresAuthority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := farming.NewMemoryLedger(solana.NewWallet().PublicKey())
	farm := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	farmer, err := ledger.CreateFarmer(ctx, farm, authority)
	require.NoError(t, err)

	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	impostor := solana.NewWallet().PublicKey()
	err = e.CloseFarmer(ctx, farmer, impostor)
	assert.ErrorIs(t, err, farming.ErrFarmerAuthorityMismatch)
}

func TestEngineStopFarmingDrainsVestedBeforeStaked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), stakeVault, 0))
	farmer, err := ledger.CreateFarmer(ctx, farm, authority)
	require.NoError(t, err)

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	fr.Staked = fixedpoint.FromUint64(300)
	fr.Vested = fixedpoint.FromUint64(100)
	require.NoError(t, ledger.SaveFarmer(ctx, farmer, fr))
	ledger.SetBalance(stakeVault, fixedpoint.FromUint64(400))

	dst := solana.NewWallet().PublicKey()
	require.NoError(t, e.StopFarming(ctx, farm, farmer, authority, dst, fixedpoint.FromUint64(150)))

	dstBal, err := ledger.VaultBalance(ctx, dst)
	require.NoError(t, err)
	got, err := dstBal.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(150), got)

	fr, err = ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.True(t, fr.Vested.IsZero())
	staked, err := fr.Staked.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), staked)
}

func TestEngineStartFarmingCreditsVestedNotStaked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 0}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	stakeVault := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), stakeVault, farming.MinSnapshotWindowSlots))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	ledger.SetBalance(staker, fixedpoint.FromUint64(100))
	require.NoError(t, e.StartFarming(ctx, farm, farmer, staker, fixedpoint.FromUint64(100)))

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.True(t, fr.Staked.IsZero())
	vested, err := fr.Vested.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), vested)
	assert.Equal(t, uint64(0), fr.VestedAt)

	oracle.slot = farming.MinSnapshotWindowSlots
	require.NoError(t, e.TakeFarmSnapshot(ctx, farm))
	require.NoError(t, e.UpdateEligibleHarvest(ctx, farm, farmer))

	fr, err = ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.True(t, fr.Vested.IsZero())
	staked, err := fr.Staked.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), staked)
}

func TestEngineRemoveHarvest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))

	err := e.RemoveHarvest(ctx, admin, farm, harvestMint)
	require.NoError(t, err)

	f, err := ledger.LoadFarm(ctx, farm)
	require.NoError(t, err)
	assert.Equal(t, -1, f.HarvestIndex(harvestMint))
}

func TestEngineRemoveHarvestRefusesNonEmptyVault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))
	ledger.SetBalance(harvestVault, fixedpoint.FromUint64(1))

	err := e.RemoveHarvest(ctx, admin, farm, harvestMint)
	assert.ErrorIs(t, err, farming.ErrHarvestVaultNotEmpty)
}

func TestEngineSetFarmOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	newAdmin := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))

	err := e.SetFarmOwner(ctx, admin, farm, newAdmin)
	require.NoError(t, err)

	f, err := ledger.LoadFarm(ctx, farm)
	require.NoError(t, err)
	assert.True(t, f.Admin.Equals(newAdmin))

	err = e.SetFarmOwner(ctx, admin, farm, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, farming.ErrFarmAdminMismatch)
}

func TestEngineSetMinSnapshotWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))

	err := e.SetMinSnapshotWindow(ctx, admin, farm, 500)
	require.NoError(t, err)

	f, err := ledger.LoadFarm(ctx, farm)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), f.MinSnapshotWindowSlots)
}

func TestEngineAirdrop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)
	ledger.SetBalance(wallet, fixedpoint.FromUint64(1000))

	require.NoError(t, e.Airdrop(ctx, farm, farmer, wallet, harvestMint, fixedpoint.FromUint64(250)))

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	accrued, err := fr.Harvests[fr.HarvestIndex(harvestMint)].Accrued.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), accrued)

	vaultBal, err := ledger.VaultBalance(ctx, harvestVault)
	require.NoError(t, err)
	got, err := vaultBal.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), got)
}

func TestEngineUpdateEligibleHarvestUntil(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	programID := solana.NewWallet().PublicKey()
	ledger := farming.NewMemoryLedger(programID)
	oracle := &fixedSlotOracle{slot: 1000}
	e := newTestEngine(t, oracle, ledger)

	admin := solana.NewWallet().PublicKey()
	adminWallet := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	harvestMint := solana.NewWallet().PublicKey()
	harvestVault := solana.NewWallet().PublicKey()
	staker := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeFarm(ctx, farm, admin, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 0))
	require.NoError(t, e.AddHarvestMint(ctx, admin, farm, harvestMint, harvestVault))
	ledger.SetBalance(adminWallet, fixedpoint.FromUint64(100_000_000))
	require.NoError(t, e.ScheduleHarvestPeriod(ctx, admin, farm, harvestMint, adminWallet, farming.HarvestPeriod{
		StartsAt: 0, EndsAt: 1_000_000, TPS: fixedpoint.FromUint64(10),
	}))
	farmer, err := e.InitializeFarmer(ctx, farm, staker)
	require.NoError(t, err)

	require.NoError(t, e.UpdateEligibleHarvestUntil(ctx, farm, farmer, 500))

	fr, err := ledger.LoadFarmer(ctx, farmer)
	require.NoError(t, err)
	assert.Equal(t, uint64(501), fr.CalculateNextHarvestFrom)
}

func TestEngineWithSimulatedSlotClock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := clockwork.NewFakeClock()
	oracle := simslot.New(clock, 1000, simslot.ApproximateSlotDuration)

	slot, err := oracle.CurrentSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), slot)

	clock.Advance(4 * simslot.ApproximateSlotDuration)
	slot, err = oracle.CurrentSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1004), slot)
}
