package config

const (
	// Mainnet constants.
	MainnetLedgerRPCURL     = "https://api.mainnet-beta.solana.com"
	MainnetFarmingProgramID = "8HPT29aE7LQAARYbBdQFXQRW1KKTYGzevJ4ESPniymiJ"

	// Testnet constants.
	TestnetLedgerRPCURL     = "https://api.testnet.solana.com"
	TestnetFarmingProgramID = "AaStHU4YU5yv6ZkGe57sQopFCPPSARW5XvYaeRBc7J1G"

	// Devnet constants.
	DevnetLedgerRPCURL     = "https://api.devnet.solana.com"
	DevnetFarmingProgramID = "9PggzHyAe323HWT35grpQ1zEqLh9uF6hKfdMW65LBh3R"
)
