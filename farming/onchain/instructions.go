// Package onchain drives a real Solana farming program: it builds and
// sends the instructions in the call surface below and satisfies
// farming.Ledger against a live cluster instead of an in-memory map.
package onchain

import (
	"github.com/gagliardetto/solana-go"
	borsh "github.com/near/borsh-go"
)

// InstructionType discriminates the farming program's instructions, one
// discriminator per Engine operation exposed over the wire.
type InstructionType uint8

const (
	InitializeFarmInstruction InstructionType = iota
	AddHarvestMintInstruction
	ScheduleHarvestPeriodInstruction
	StartFarmingInstruction
	StopFarmingInstruction
	ClaimEligibleHarvestInstruction
	// CompoundHarvestInstruction reserves the discriminator slot for the
	// program's compound_same_farm/compound_across_farms CPI pair.
	// Client doesn't build or send it: compounding needs a materially
	// different multi-account shape per direction (same-farm vs.
	// cross-farm), and callers get the equivalent behavior locally via
	// farming.Engine's CompoundSameFarm/CompoundAcrossFarms, which claim
	// then restake through the already-wired instructions above.
	CompoundHarvestInstruction
	CreateFarmerInstruction
	CloseFarmerInstruction
	CreateWhitelistCompoundingInstruction
	CloseWhitelistCompoundingInstruction
	TakeFarmSnapshotInstruction
	UpdateEligibleHarvestInstruction
	RemoveHarvestInstruction
	SetFarmOwnerInstruction
	SetMinSnapshotWindowInstruction
	AirdropInstruction
	UpdateEligibleHarvestUntilInstruction
)

type initializeFarmArgs struct {
	Discriminator          uint8
	MinSnapshotWindowSlots uint64
}

type scheduleHarvestPeriodArgs struct {
	Discriminator uint8
	StartsAt      uint64
	EndsAt        uint64
	TPS           uint64
}

type amountArgs struct {
	Discriminator uint8
	Amount        uint64
}

type mintOnlyArgs struct {
	Discriminator uint8
	Mint          solana.PublicKey
}

type bareArgs struct {
	Discriminator uint8
}

type u64Args struct {
	Discriminator uint8
	Value         uint64
}

type mintAmountArgs struct {
	Discriminator uint8
	Mint          solana.PublicKey
	Amount        uint64
}

func serializeInitializeFarm(minSnapshotWindowSlots uint64) ([]byte, error) {
	return borsh.Serialize(initializeFarmArgs{
		Discriminator:          uint8(InitializeFarmInstruction),
		MinSnapshotWindowSlots: minSnapshotWindowSlots,
	})
}

func serializeScheduleHarvestPeriod(startsAt, endsAt, tps uint64) ([]byte, error) {
	return borsh.Serialize(scheduleHarvestPeriodArgs{
		Discriminator: uint8(ScheduleHarvestPeriodInstruction),
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		TPS:           tps,
	})
}

func serializeAmount(disc InstructionType, amount uint64) ([]byte, error) {
	return borsh.Serialize(amountArgs{Discriminator: uint8(disc), Amount: amount})
}

func serializeMintOnly(disc InstructionType, mint solana.PublicKey) ([]byte, error) {
	return borsh.Serialize(mintOnlyArgs{Discriminator: uint8(disc), Mint: mint})
}

func serializeBare(disc InstructionType) ([]byte, error) {
	return borsh.Serialize(bareArgs{Discriminator: uint8(disc)})
}

func serializeU64(disc InstructionType, v uint64) ([]byte, error) {
	return borsh.Serialize(u64Args{Discriminator: uint8(disc), Value: v})
}

func serializeMintAmount(disc InstructionType, mint solana.PublicKey, amount uint64) ([]byte, error) {
	return borsh.Serialize(mintAmountArgs{Discriminator: uint8(disc), Mint: mint, Amount: amount})
}
