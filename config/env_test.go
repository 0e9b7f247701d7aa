package config_test

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/solfarm/farming-go/config"
)

func TestConfig_NetworkConfigForEnv(t *testing.T) {
	tests := []struct {
		env     string
		want    *config.NetworkConfig
		wantErr error
	}{
		{
			env: config.EnvMainnet,
			want: &config.NetworkConfig{
				Moniker:          config.EnvMainnetBeta,
				LedgerRPCURL:     config.MainnetLedgerRPCURL,
				FarmingProgramID: solana.MustPublicKeyFromBase58(config.MainnetFarmingProgramID),
			},
		},
		{
			env: config.EnvMainnetBeta,
			want: &config.NetworkConfig{
				Moniker:          config.EnvMainnetBeta,
				LedgerRPCURL:     config.MainnetLedgerRPCURL,
				FarmingProgramID: solana.MustPublicKeyFromBase58(config.MainnetFarmingProgramID),
			},
		},
		{
			env: config.EnvTestnet,
			want: &config.NetworkConfig{
				Moniker:          config.EnvTestnet,
				LedgerRPCURL:     config.TestnetLedgerRPCURL,
				FarmingProgramID: solana.MustPublicKeyFromBase58(config.TestnetFarmingProgramID),
			},
		},
		{
			env: config.EnvDevnet,
			want: &config.NetworkConfig{
				Moniker:          config.EnvDevnet,
				LedgerRPCURL:     config.DevnetLedgerRPCURL,
				FarmingProgramID: solana.MustPublicKeyFromBase58(config.DevnetFarmingProgramID),
			},
		},
		{
			env:     "invalid",
			want:    nil,
			wantErr: fmt.Errorf("invalid environment %q, must be one of: %s, %s, %s", "invalid", config.EnvMainnetBeta, config.EnvTestnet, config.EnvDevnet),
		},
	}

	for _, test := range tests {
		t.Run(test.env, func(t *testing.T) {
			got, err := config.NetworkConfigForEnv(test.env)
			if test.wantErr != nil {
				require.Equal(t, test.wantErr.Error(), err.Error())
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestConfig_NetworkConfigForEnv_RPCURLOverrideFromEnvVar(t *testing.T) {
	t.Setenv("FARMD_LEDGER_RPC_URL", "https://other-rpc-url.example.com")

	got, err := config.NetworkConfigForEnv(config.EnvMainnet)
	require.NoError(t, err)
	require.Equal(t, "https://other-rpc-url.example.com", got.LedgerRPCURL)
}
