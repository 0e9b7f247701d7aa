package onchain

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solfarm/farming-go/farming"
	"github.com/solfarm/farming-go/farming/fixedpoint"
)

func littleEndianUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// ErrDirectStateWriteUnsupported is returned by SaveFarm/SaveFarmer: a
// live program's state only ever changes as the side effect of one of
// its own instructions, never by resubmitting a client-decoded struct.
// Callers driving a real cluster must invoke the corresponding Client
// method (StartFarming, StopFarming, ClaimEligibleHarvest, ...) instead
// of farming.Engine's load-mutate-save cycle, which is written for
// farming.MemoryLedger's map semantics.
var ErrDirectStateWriteUnsupported = errors.New("onchain: state changes on a live program go through instructions, not direct writes")

// RPC is the slice of a live cluster's JSON-RPC surface Client needs.
type RPC interface {
	TransactionSender
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
}

// Client drives a real Solana farming program deployment. It satisfies
// farming.Ledger so farming.Engine can read state and route custody
// operations through it exactly as it does against farming.MemoryLedger.
type Client struct {
	rpc       RPC
	programID solana.PublicKey
	payer     *solana.PrivateKey
}

// New constructs a Client against programID, signing outgoing
// transactions with payer.
func New(rpcClient RPC, programID solana.PublicKey, payer *solana.PrivateKey) *Client {
	return &Client{rpc: rpcClient, programID: programID, payer: payer}
}

func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

func (c *Client) VaultBalance(ctx context.Context, vault solana.PublicKey) (fixedpoint.Amount, error) {
	bal, err := c.rpc.GetTokenAccountBalance(ctx, vault, rpc.CommitmentFinalized)
	if err != nil {
		return fixedpoint.Amount{}, fmt.Errorf("get token account balance: %w", err)
	}
	if bal == nil || bal.Value == nil {
		return fixedpoint.Amount{}, fmt.Errorf("get token account balance: no value for %s", vault)
	}
	v, err := strconv.ParseUint(bal.Value.Amount, 10, 64)
	if err != nil {
		return fixedpoint.Amount{}, fmt.Errorf("parse token account balance: %w", err)
	}
	return fixedpoint.FromUint64(v), nil
}

// Transfer lands a token transfer instruction moving amount from src to
// dst, signed by the payer as the source's owner. It uses the legacy SPL
// Token Transfer instruction, so mint is not part of the account list.
func (c *Client) Transfer(ctx context.Context, mint, src, dst solana.PublicKey, amount fixedpoint.Amount) error {
	v, err := amount.Uint64()
	if err != nil {
		return err
	}
	// SPL Token Transfer: discriminator 3, amount u64 LE. mint isn't
	// part of the legacy Transfer instruction's account list; it's
	// accepted here only so Client's signature matches farming.Ledger.
	data := append([]byte{3}, littleEndianUint64(v)...)
	ix := &solana.GenericInstruction{
		ProgID: solana.TokenProgramID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: src, IsSigner: false, IsWritable: true},
			{PublicKey: dst, IsSigner: false, IsWritable: true},
			{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: false},
		},
		DataBytes: data,
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

func (c *Client) loadAccount(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	info, err := c.rpc.GetAccountInfo(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if info == nil || info.Value == nil {
		return nil, farming.ErrInvalidAccountInput
	}
	return info.Value.Data.GetBinary(), nil
}

func (c *Client) LoadFarm(ctx context.Context, farm solana.PublicKey) (*farming.Farm, error) {
	data, err := c.loadAccount(ctx, farm)
	if err != nil {
		return nil, err
	}
	return farming.DecodeFarm(data)
}

func (c *Client) SaveFarm(context.Context, solana.PublicKey, *farming.Farm) error {
	return ErrDirectStateWriteUnsupported
}

func (c *Client) LoadFarmer(ctx context.Context, farmer solana.PublicKey) (*farming.Farmer, error) {
	data, err := c.loadAccount(ctx, farmer)
	if err != nil {
		return nil, err
	}
	return farming.DecodeFarmer(data)
}

func (c *Client) SaveFarmer(context.Context, solana.PublicKey, *farming.Farmer) error {
	return ErrDirectStateWriteUnsupported
}

// CreateFarmer sends the CreateFarmer instruction and returns the
// derived Farmer PDA.
func (c *Client) CreateFarmer(ctx context.Context, farm, authority solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := farming.DeriveFarmerPDA(c.programID, farm, authority)
	if err != nil {
		return solana.PublicKey{}, err
	}
	data, err := serializeBare(CreateFarmerInstruction)
	if err != nil {
		return solana.PublicKey{}, err
	}
	ix := &solana.GenericInstruction{
		ProgID: c.programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: false},
			{PublicKey: pda, IsSigner: false, IsWritable: true},
			{PublicKey: authority, IsSigner: false, IsWritable: false},
			{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: true},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}
	if _, err := signAndSend(ctx, c.rpc, ix, c.payer); err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

func (c *Client) CloseFarmer(ctx context.Context, farmer, authority solana.PublicKey) error {
	data, err := serializeBare(CloseFarmerInstruction)
	if err != nil {
		return err
	}
	ix := &solana.GenericInstruction{
		ProgID: c.programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: authority, IsSigner: true, IsWritable: false},
			{PublicKey: farmer, IsSigner: false, IsWritable: true},
			{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: true},
		},
		DataBytes: data,
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

func (c *Client) whitelistInstruction(disc InstructionType, sourceFarm, targetFarm, pda solana.PublicKey) (solana.Instruction, error) {
	data, err := serializeBare(disc)
	if err != nil {
		return nil, err
	}
	return &solana.GenericInstruction{
		ProgID: c.programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: sourceFarm, IsSigner: false, IsWritable: false},
			{PublicKey: targetFarm, IsSigner: false, IsWritable: false},
			{PublicKey: pda, IsSigner: false, IsWritable: true},
			{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: true},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

func (c *Client) CreateWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) error {
	pda, _, err := farming.DeriveWhitelistCompoundingPDA(c.programID, sourceFarm, targetFarm)
	if err != nil {
		return err
	}
	ix, err := c.whitelistInstruction(CreateWhitelistCompoundingInstruction, sourceFarm, targetFarm, pda)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

func (c *Client) LookupWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) (bool, error) {
	pda, _, err := farming.DeriveWhitelistCompoundingPDA(c.programID, sourceFarm, targetFarm)
	if err != nil {
		return false, err
	}
	info, err := c.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return false, fmt.Errorf("get account info: %w", err)
	}
	return info != nil && info.Value != nil, nil
}

func (c *Client) CloseWhitelistCompounding(ctx context.Context, sourceFarm, targetFarm solana.PublicKey) error {
	pda, _, err := farming.DeriveWhitelistCompoundingPDA(c.programID, sourceFarm, targetFarm)
	if err != nil {
		return err
	}
	ix, err := c.whitelistInstruction(CloseWhitelistCompoundingInstruction, sourceFarm, targetFarm, pda)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// StartFarming lands the farming program's StartFarming instruction
// directly, for callers driving a live cluster outside farming.Engine's
// MemoryLedger-oriented load/mutate/save cycle.
func (c *Client) StartFarming(ctx context.Context, farm, farmer, staker, stakeVault solana.PublicKey, amount fixedpoint.Amount) error {
	v, err := amount.Uint64()
	if err != nil {
		return err
	}
	ix, err := buildStartFarmingInstruction(c.programID, farm, farmer, staker, stakeVault, v)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// ClaimEligibleHarvest lands the farming program's ClaimEligibleHarvest
// instruction directly, one (vault, wallet) pair per harvest mint being
// claimed.
func (c *Client) ClaimEligibleHarvest(ctx context.Context, farm, farmer, authority solana.PublicKey, claims []farming.HarvestClaim) error {
	signerPDA, _, err := farming.DeriveFarmSignerPDA(c.programID, farm)
	if err != nil {
		return err
	}
	ix, err := buildClaimEligibleHarvestInstruction(c.programID, authority, farmer, signerPDA, claims)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// StopFarming lands the farming program's StopFarming instruction,
// unstaking up to unstakeMax out of farmer's vested-then-staked balance
// and transferring it to stakeWallet in the same call.
func (c *Client) StopFarming(ctx context.Context, farm, farmer, authority, stakeWallet, stakeVault solana.PublicKey, unstakeMax fixedpoint.Amount) error {
	v, err := unstakeMax.Uint64()
	if err != nil {
		return err
	}
	signerPDA, _, err := farming.DeriveFarmSignerPDA(c.programID, farm)
	if err != nil {
		return err
	}
	ix, err := buildStopFarmingInstruction(c.programID, authority, farmer, stakeWallet, farm, signerPDA, stakeVault, v)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// RemoveHarvest lands the farming program's RemoveHarvest instruction,
// dropping mint from farm's harvest set once harvestVault is empty.
func (c *Client) RemoveHarvest(ctx context.Context, admin, farm, harvestVault, mint solana.PublicKey) error {
	signerPDA, _, err := farming.DeriveFarmSignerPDA(c.programID, farm)
	if err != nil {
		return err
	}
	ix, err := buildRemoveHarvestInstruction(c.programID, admin, farm, signerPDA, harvestVault, mint)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// SetFarmOwner lands the farming program's SetFarmOwner instruction,
// transferring administration of farm to newAdmin.
func (c *Client) SetFarmOwner(ctx context.Context, admin, newAdmin, farm solana.PublicKey) error {
	ix, err := buildSetFarmOwnerInstruction(c.programID, admin, newAdmin, farm)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// SetMinSnapshotWindow lands the farming program's
// SetMinSnapshotWindow instruction.
func (c *Client) SetMinSnapshotWindow(ctx context.Context, admin, farm solana.PublicKey, minSnapshotWindowSlots uint64) error {
	ix, err := buildSetMinSnapshotWindowInstruction(c.programID, admin, farm, minSnapshotWindowSlots)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// Airdrop lands the farming program's Airdrop instruction, crediting
// farmer's accrued balance for mint and moving amount from
// harvestWallet into farm's harvest vault.
func (c *Client) Airdrop(ctx context.Context, walletAuthority, farmer, harvestWallet, harvestVault, mint solana.PublicKey, amount fixedpoint.Amount) error {
	v, err := amount.Uint64()
	if err != nil {
		return err
	}
	ix, err := buildAirdropInstruction(c.programID, walletAuthority, farmer, harvestWallet, harvestVault, mint, v)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// UpdateEligibleHarvestUntil lands the farming program's
// UpdateEligibleHarvestUntil crank instruction on behalf of farmer.
func (c *Client) UpdateEligibleHarvestUntil(ctx context.Context, farm, farmer solana.PublicKey, until uint64) error {
	ix, err := buildUpdateEligibleHarvestUntilInstruction(c.programID, farm, farmer, until)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// TakeFarmSnapshot lands the farming program's permissionless
// TakeFarmSnapshot crank instruction.
func (c *Client) TakeFarmSnapshot(ctx context.Context, farm, stakeVault solana.PublicKey) error {
	ix, err := buildTakeFarmSnapshotInstruction(c.programID, farm, stakeVault)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// UpdateEligibleHarvest lands the farming program's permissionless
// UpdateEligibleHarvest crank instruction on behalf of farmer.
func (c *Client) UpdateEligibleHarvest(ctx context.Context, farm, farmer solana.PublicKey) error {
	ix, err := buildUpdateEligibleHarvestInstruction(c.programID, farm, farmer)
	if err != nil {
		return err
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// InitializeFarm lands the farming program's InitializeFarm instruction
// directly, allocating farm's account and vaults.
func (c *Client) InitializeFarm(ctx context.Context, farm, admin, stakeMint, stakeVault solana.PublicKey, minSnapshotWindowSlots uint64) error {
	data, err := serializeInitializeFarm(minSnapshotWindowSlots)
	if err != nil {
		return err
	}
	ix := &solana.GenericInstruction{
		ProgID: c.programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: farm, IsSigner: false, IsWritable: true},
			{PublicKey: admin, IsSigner: true, IsWritable: false},
			{PublicKey: stakeMint, IsSigner: false, IsWritable: false},
			{PublicKey: stakeVault, IsSigner: false, IsWritable: true},
			{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: true},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

// ScheduleHarvestPeriod lands the farming program's
// ScheduleHarvestPeriod instruction directly, moving the net change in
// reserved harvest tokens between adminWallet and harvestVault.
func (c *Client) ScheduleHarvestPeriod(ctx context.Context, admin, farm, harvestMint, adminWallet, harvestVault solana.PublicKey, period farming.HarvestPeriod) error {
	tps, err := period.TPS.Uint64()
	if err != nil {
		return err
	}
	signerPDA, _, err := farming.DeriveFarmSignerPDA(c.programID, farm)
	if err != nil {
		return err
	}
	data, err := serializeScheduleHarvestPeriod(period.StartsAt, period.EndsAt, tps)
	if err != nil {
		return err
	}
	ix := &solana.GenericInstruction{
		ProgID: c.programID,
		AccountValues: []*solana.AccountMeta{
			{PublicKey: admin, IsSigner: true, IsWritable: false},
			{PublicKey: farm, IsSigner: false, IsWritable: true},
			{PublicKey: adminWallet, IsSigner: false, IsWritable: true},
			{PublicKey: harvestVault, IsSigner: false, IsWritable: true},
			{PublicKey: signerPDA, IsSigner: false, IsWritable: false},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: data,
	}
	_, err = signAndSend(ctx, c.rpc, ix, c.payer)
	return err
}

var _ farming.Ledger = (*Client)(nil)
