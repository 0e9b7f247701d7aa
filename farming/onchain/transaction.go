package onchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solfarm/farming-go/farming"
)

// TransactionSender is the slice of the RPC surface needed to land a
// signed transaction, mirroring the pack SDK clients' TransactionSender
// interfaces.
type TransactionSender interface {
	SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error)
	GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

func buildStartFarmingInstruction(programID, farm, farmer, staker, stakeVault solana.PublicKey, amount uint64) (solana.Instruction, error) {
	data, err := serializeAmount(StartFarmingInstruction, amount)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: true},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
			{PublicKey: staker, IsSigner: true, IsWritable: true},
			{PublicKey: stakeVault, IsSigner: false, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

func buildStopFarmingInstruction(programID, authority, farmer, stakeWallet, farm, signerPDA, stakeVault solana.PublicKey, unstakeMax uint64) (solana.Instruction, error) {
	data, err := serializeAmount(StopFarmingInstruction, unstakeMax)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: authority, IsSigner: true, IsWritable: false},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
			{PublicKey: stakeWallet, IsSigner: false, IsWritable: true},
			{PublicKey: farm, IsSigner: false, IsWritable: false},
			{PublicKey: signerPDA, IsSigner: false, IsWritable: false},
			{PublicKey: stakeVault, IsSigner: false, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

// buildTakeFarmSnapshotInstruction builds the permissionless crank
// instruction that appends the stake vault's current balance to the
// farm's snapshot ring buffer.
func buildTakeFarmSnapshotInstruction(programID, farm, stakeVault solana.PublicKey) (solana.Instruction, error) {
	data, err := serializeBare(TakeFarmSnapshotInstruction)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: true},
			{PublicKey: stakeVault, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

// buildUpdateEligibleHarvestInstruction builds the permissionless
// instruction bots invoke on behalf of an inactive farmer to roll their
// eligible harvest forward before the snapshot ring buffer's history
// would otherwise lose it.
func buildUpdateEligibleHarvestInstruction(programID, farm, farmer solana.PublicKey) (solana.Instruction, error) {
	data, err := serializeBare(UpdateEligibleHarvestInstruction)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: false},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
		},
		DataBytes: data,
	}, nil
}

// buildClaimEligibleHarvestInstruction builds ClaimEligibleHarvest's
// instruction: a fixed account prefix followed by one (vault, wallet)
// pair per entry in claims, matching claim_eligible_harvest.rs's
// [harvest_vault1, harvest_wallet1, harvest_vault2, harvest_wallet2, ...]
// remaining-accounts convention.
func buildClaimEligibleHarvestInstruction(programID, authority, farmer, signerPDA solana.PublicKey, claims []farming.HarvestClaim) (solana.Instruction, error) {
	data, err := serializeBare(ClaimEligibleHarvestInstruction)
	if err != nil {
		return nil, err
	}
	accounts := []*solana.AccountMeta{
		{PublicKey: authority, IsSigner: true, IsWritable: false},
		{PublicKey: farmer, IsSigner: false, IsWritable: true},
		{PublicKey: signerPDA, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	for _, c := range claims {
		accounts = append(accounts,
			&solana.AccountMeta{PublicKey: c.Vault, IsSigner: false, IsWritable: true},
			&solana.AccountMeta{PublicKey: c.Wallet, IsSigner: false, IsWritable: true},
		)
	}
	return &solana.GenericInstruction{
		ProgID:        programID,
		AccountValues: accounts,
		DataBytes:     data,
	}, nil
}

// buildRemoveHarvestInstruction builds the admin-only instruction that
// drops mint from farm's harvest set and closes its now-empty vault.
func buildRemoveHarvestInstruction(programID, admin, farm, signerPDA, harvestVault, mint solana.PublicKey) (solana.Instruction, error) {
	data, err := serializeMintOnly(RemoveHarvestInstruction, mint)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: admin, IsSigner: true, IsWritable: false},
			{PublicKey: farm, IsSigner: false, IsWritable: true},
			{PublicKey: signerPDA, IsSigner: false, IsWritable: false},
			{PublicKey: harvestVault, IsSigner: false, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

// buildSetFarmOwnerInstruction builds the instruction that transfers
// administration of farm to newAdmin. Both the current and incoming
// admin must sign.
func buildSetFarmOwnerInstruction(programID, admin, newAdmin, farm solana.PublicKey) (solana.Instruction, error) {
	data, err := serializeBare(SetFarmOwnerInstruction)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: admin, IsSigner: true, IsWritable: false},
			{PublicKey: newAdmin, IsSigner: true, IsWritable: false},
			{PublicKey: farm, IsSigner: false, IsWritable: true},
		},
		DataBytes: data,
	}, nil
}

// buildSetMinSnapshotWindowInstruction builds the admin-only instruction
// that updates farm's minimum inter-snapshot slot window.
func buildSetMinSnapshotWindowInstruction(programID, admin, farm solana.PublicKey, minSnapshotWindowSlots uint64) (solana.Instruction, error) {
	data, err := serializeU64(SetMinSnapshotWindowInstruction, minSnapshotWindowSlots)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: admin, IsSigner: true, IsWritable: false},
			{PublicKey: farm, IsSigner: false, IsWritable: true},
		},
		DataBytes: data,
	}, nil
}

// buildAirdropInstruction builds the instruction that moves amount from
// walletAuthority's harvestWallet into harvestVault and credits farmer's
// accrued balance for mint.
func buildAirdropInstruction(programID, walletAuthority, farmer, harvestWallet, harvestVault, mint solana.PublicKey, amount uint64) (solana.Instruction, error) {
	data, err := serializeMintAmount(AirdropInstruction, mint, amount)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: walletAuthority, IsSigner: true, IsWritable: false},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
			{PublicKey: harvestWallet, IsSigner: false, IsWritable: true},
			{PublicKey: harvestVault, IsSigner: false, IsWritable: true},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

// buildUpdateEligibleHarvestUntilInstruction builds the permissionless
// crank instruction that advances farmer's accrual watermark to until.
func buildUpdateEligibleHarvestUntilInstruction(programID, farm, farmer solana.PublicKey, until uint64) (solana.Instruction, error) {
	data, err := serializeU64(UpdateEligibleHarvestUntilInstruction, until)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: false},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
		},
		DataBytes: data,
	}, nil
}

// signAndSend builds a transaction from a single instruction, funds and
// signs it with payer, and lands it via sender.
func signAndSend(ctx context.Context, sender TransactionSender, ix solana.Instruction, payer *solana.PrivateKey) (solana.Signature, error) {
	bh, err := sender.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, bh.Value.Blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return payer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, err
	}
	return sender.SendTransaction(ctx, tx)
}
