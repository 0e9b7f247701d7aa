package farming_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfarm/farming-go/farming"
)

func TestPDADerivationsAreDeterministicAndDistinct(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	targetFarm := solana.NewWallet().PublicKey()

	derivations := []func() (solana.PublicKey, uint8, error){
		func() (solana.PublicKey, uint8, error) { return farming.DeriveFarmSignerPDA(programID, farm) },
		func() (solana.PublicKey, uint8, error) { return farming.DeriveStakeVaultPDA(programID, farm) },
		func() (solana.PublicKey, uint8, error) { return farming.DeriveHarvestVaultPDA(programID, farm, mint) },
		func() (solana.PublicKey, uint8, error) { return farming.DeriveFarmerPDA(programID, farm, authority) },
		func() (solana.PublicKey, uint8, error) {
			return farming.DeriveWhitelistCompoundingPDA(programID, farm, targetFarm)
		},
	}

	seen := map[solana.PublicKey]bool{}
	for _, derive := range derivations {
		pda, _, err := derive()
		require.NoError(t, err)

		again, _, err := derive()
		require.NoError(t, err)
		assert.Equal(t, pda, again, "derivation must be deterministic")

		assert.False(t, seen[pda], "distinct seed prefixes must not collide")
		seen[pda] = true
	}
}

func TestDeriveFarmerPDAVariesByAuthority(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()

	a, _, err := farming.DeriveFarmerPDA(programID, farm, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	b, _, err := farming.DeriveFarmerPDA(programID, farm, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDeriveHarvestVaultPDAVariesByMint(t *testing.T) {
	t.Parallel()

	programID := solana.NewWallet().PublicKey()
	farm := solana.NewWallet().PublicKey()

	a, _, err := farming.DeriveHarvestVaultPDA(programID, farm, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	b, _, err := farming.DeriveHarvestVaultPDA(programID, farm, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
