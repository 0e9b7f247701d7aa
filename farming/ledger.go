package farming

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/solfarm/farming-go/farming/fixedpoint"
)

// VaultTransferer moves tokens between vaults and reports a vault's
// current balance. Implementations own signing and custody; the
// engine never touches a private key.
type VaultTransferer interface {
	Transfer(ctx context.Context, mint, src, dst solana.PublicKey, amount fixedpoint.Amount) error
	VaultBalance(ctx context.Context, vault solana.PublicKey) (fixedpoint.Amount, error)
}

// AccountAllocator loads, persists, creates, and closes the accounts
// the farming engine operates on: Farm, Farmer, and the
// WhitelistCompounding marker record that authorizes compounding
// between two farms.
type AccountAllocator interface {
	LoadFarm(ctx context.Context, farm solana.PublicKey) (*Farm, error)
	SaveFarm(ctx context.Context, farm solana.PublicKey, f *Farm) error

	LoadFarmer(ctx context.Context, farmer solana.PublicKey) (*Farmer, error)
	SaveFarmer(ctx context.Context, farmer solana.PublicKey, fr *Farmer) error
	CreateFarmer(ctx context.Context, farm, authority solana.PublicKey) (solana.PublicKey, error)
	CloseFarmer(ctx context.Context, farmer solana.PublicKey) error

	CreateWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) error
	LookupWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) (bool, error)
	CloseWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) error
}

// Ledger is the full host-runtime boundary the engine drives:
// custody (VaultTransferer), account storage (AccountAllocator), and
// the program ID PDAs are derived against. farming.MemoryLedger is the
// in-process reference implementation; farming/onchain drives a real
// Solana program.
type Ledger interface {
	VaultTransferer
	AccountAllocator
	ProgramID() solana.PublicKey
}

// SlotOracle reports the current slot. farming/simslot and
// farming/rpcslot are the two implementations shipped in this repo.
type SlotOracle interface {
	CurrentSlot(ctx context.Context) (uint64, error)
}
