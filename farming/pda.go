package farming

import "github.com/gagliardetto/solana-go"

// PDA seeds, matching the reference implementation's
// Farm::SIGNER_PDA_PREFIX / STAKE_VAULT_PREFIX / WHITELIST_PDA_PREFIX,
// Harvest::VAULT_PREFIX, and Farmer::ACCOUNT_PREFIX constants.
var (
	seedSigner               = []byte("signer")
	seedStakeVault           = []byte("stake_vault")
	seedHarvestVault         = []byte("harvest_vault")
	seedFarmer               = []byte("farmer")
	seedWhitelistCompounding = []byte("whitelist_compounding")
)

// DeriveFarmSignerPDA derives the PDA a farm uses as its vault
// authority.
func DeriveFarmSignerPDA(programID, farm solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedSigner, farm.Bytes()}, programID)
}

// DeriveStakeVaultPDA derives the PDA of a farm's stake token vault.
func DeriveStakeVaultPDA(programID, farm solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedStakeVault, farm.Bytes()}, programID)
}

// DeriveHarvestVaultPDA derives the PDA of one harvest mint's token
// vault within a farm.
func DeriveHarvestVaultPDA(programID, farm, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedHarvestVault, farm.Bytes(), mint.Bytes()}, programID)
}

// DeriveFarmerPDA derives the PDA of an authority's Farmer record
// within a farm.
func DeriveFarmerPDA(programID, farm, authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedFarmer, farm.Bytes(), authority.Bytes()}, programID)
}

// DeriveWhitelistCompoundingPDA derives the PDA of the marker record
// authorizing compounding from sourceFarm's harvest into targetFarm's
// stake.
func DeriveWhitelistCompoundingPDA(programID, sourceFarm, targetFarm solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{seedWhitelistCompounding, sourceFarm.Bytes(), targetFarm.Bytes()}, programID)
}
