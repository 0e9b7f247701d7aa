package config

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

const (
	EnvMainnetBeta = "mainnet-beta"
	EnvMainnet     = "mainnet"
	EnvTestnet     = "testnet"
	EnvDevnet      = "devnet"
)

// NetworkConfig is the environment-specific wiring cmd/farmd and
// cmd/farmctl need to talk to a deployed farming program: which
// cluster to dial and which program ID to derive PDAs against.
type NetworkConfig struct {
	Moniker          string
	LedgerRPCURL     string
	FarmingProgramID solana.PublicKey
}

// NetworkConfigForEnv resolves env to its NetworkConfig, applying the
// FARMD_LEDGER_RPC_URL environment variable as an override so an
// operator can point at a local validator without recompiling.
func NetworkConfigForEnv(env string) (*NetworkConfig, error) {
	var config *NetworkConfig
	switch env {
	case EnvMainnetBeta, EnvMainnet:
		programID, err := solana.PublicKeyFromBase58(MainnetFarmingProgramID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse farming program ID: %w", err)
		}
		config = &NetworkConfig{
			Moniker:          EnvMainnetBeta,
			LedgerRPCURL:     MainnetLedgerRPCURL,
			FarmingProgramID: programID,
		}
	case EnvTestnet:
		programID, err := solana.PublicKeyFromBase58(TestnetFarmingProgramID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse farming program ID: %w", err)
		}
		config = &NetworkConfig{
			Moniker:          EnvTestnet,
			LedgerRPCURL:     TestnetLedgerRPCURL,
			FarmingProgramID: programID,
		}
	case EnvDevnet:
		programID, err := solana.PublicKeyFromBase58(DevnetFarmingProgramID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse farming program ID: %w", err)
		}
		config = &NetworkConfig{
			Moniker:          EnvDevnet,
			LedgerRPCURL:     DevnetLedgerRPCURL,
			FarmingProgramID: programID,
		}
	default:
		return nil, fmt.Errorf("invalid environment %q, must be one of: %s, %s, %s", env, EnvMainnetBeta, EnvTestnet, EnvDevnet)
	}

	if rpcURL := os.Getenv("FARMD_LEDGER_RPC_URL"); rpcURL != "" {
		config.LedgerRPCURL = rpcURL
	}

	return config, nil
}
