package farming

import "errors"

// Sentinel errors returned by the engine. Callers should compare with
// errors.Is; these are never wrapped by the engine itself, only by the
// I/O boundaries around it (ledger adapters, HTTP handlers, cmd/
// entrypoints).
var (
	ErrFarmAdminMismatch                          = errors.New("farming: farm admin mismatch")
	ErrFarmerAuthorityMismatch                    = errors.New("farming: farmer authority mismatch")
	ErrUnknownHarvestMintPubKey                   = errors.New("farming: unknown harvest mint")
	ErrHarvestMintsFull                           = errors.New("farming: farm already tracks the maximum number of harvest mints")
	ErrHarvestVaultNotEmpty                       = errors.New("farming: harvest vault is not empty")
	ErrHarvestPeriodMustStartAtOrAfterCurrentSlot = errors.New("farming: harvest period must start at or after the current slot")
	ErrHarvestPeriodMustBeAtLeastOneSlot          = errors.New("farming: harvest period must span at least one slot")
	ErrCannotOverwriteOpenHarvestPeriod           = errors.New("farming: cannot overwrite an open or historically-relevant harvest period")
	ErrInsufficientSlotTime                       = errors.New("farming: insufficient slots elapsed since the last snapshot")
	ErrInvalidAccountInput                        = errors.New("farming: invalid account input")
	ErrFarmerHasUnclaimedHarvest                  = errors.New("farming: farmer has unclaimed harvest")
	ErrFarmerStillHasStakedTokens                 = errors.New("farming: farmer still has staked tokens")
	ErrInvalidLpTokenAmount                       = errors.New("farming: invalid LP token amount")
	ErrInvariantViolated                          = errors.New("farming: invariant violated")
	ErrAmountMustBePositive                       = errors.New("farming: amount must be positive")

	// Config validation errors.
	ErrLedgerRequired     = errors.New("farming: ledger is required")
	ErrSlotOracleRequired = errors.New("farming: slot oracle is required")
	ErrLoggerRequired     = errors.New("farming: logger is required")
)
