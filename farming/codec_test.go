package farming_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfarm/farming-go/farming"
	"github.com/solfarm/farming-go/farming/fixedpoint"
)

func TestFarmRoundTrip(t *testing.T) {
	t.Parallel()

	f := &farming.Farm{
		Admin:                  solana.NewWallet().PublicKey(),
		StakeMint:              solana.NewWallet().PublicKey(),
		StakeVault:             solana.NewWallet().PublicKey(),
		MinSnapshotWindowSlots: 12345,
	}
	f.Harvests[0] = farming.Harvest{Mint: solana.NewWallet().PublicKey(), Vault: solana.NewWallet().PublicKey()}
	f.Harvests[0].Periods[0] = farming.HarvestPeriod{StartsAt: 1, EndsAt: 2, TPS: fixedpoint.FromUint64(99)}
	require.NoError(t, farming.TakeSnapshot(&f.Snapshots, 100, fixedpoint.FromUint64(500), 1))

	data, err := farming.EncodeFarm(f)
	require.NoError(t, err)

	got, err := farming.DecodeFarm(data)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFarmerRoundTrip(t *testing.T) {
	t.Parallel()

	fr := &farming.Farmer{
		Authority:                solana.NewWallet().PublicKey(),
		Farm:                     solana.NewWallet().PublicKey(),
		Staked:                   fixedpoint.FromUint64(42),
		Vested:                   fixedpoint.FromUint64(7),
		VestedAt:                 999,
		CalculateNextHarvestFrom: 555,
	}
	fr.Harvests[0] = farming.FarmerHarvest{Mint: solana.NewWallet().PublicKey(), Accrued: fixedpoint.FromUint64(3)}

	data, err := farming.EncodeFarmer(fr)
	require.NoError(t, err)

	got, err := farming.DecodeFarmer(data)
	require.NoError(t, err)
	assert.Equal(t, fr, got)
}

func TestDecodeFarmTruncatedData(t *testing.T) {
	t.Parallel()

	_, err := farming.DecodeFarm([]byte{1, 2, 3})
	assert.Error(t, err)
}
