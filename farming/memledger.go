package farming

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/solfarm/farming-go/farming/fixedpoint"
)

// MemoryLedger is an in-process Ledger backed by plain maps, guarded
// by a single mutex. It's the reference implementation every engine
// test and cmd/farmd's simulation mode run against; it makes no
// attempt to model transaction atomicity beyond what the mutex gives
// for free, since there's no notion of a partially-applied in-memory
// write.
type MemoryLedger struct {
	programID solana.PublicKey

	mu        sync.Mutex
	balances  map[solana.PublicKey]fixedpoint.Amount
	farms     map[solana.PublicKey]*Farm
	farmers   map[solana.PublicKey]*Farmer
	whitelist map[whitelistKey]bool
}

type whitelistKey struct {
	source, target solana.PublicKey
}

// NewMemoryLedger creates an empty MemoryLedger for the given program
// ID (used only to derive PDAs consistently with a real deployment).
func NewMemoryLedger(programID solana.PublicKey) *MemoryLedger {
	return &MemoryLedger{
		programID: programID,
		balances:  make(map[solana.PublicKey]fixedpoint.Amount),
		farms:     make(map[solana.PublicKey]*Farm),
		farmers:   make(map[solana.PublicKey]*Farmer),
		whitelist: make(map[whitelistKey]bool),
	}
}

// ProgramID returns the program ID this ledger derives PDAs against.
func (l *MemoryLedger) ProgramID() solana.PublicKey {
	return l.programID
}

// SetBalance seeds a vault's balance directly, for test fixtures.
func (l *MemoryLedger) SetBalance(vault solana.PublicKey, amount fixedpoint.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[vault] = amount
}

// VaultBalance returns a vault's current balance.
func (l *MemoryLedger) VaultBalance(_ context.Context, vault solana.PublicKey) (fixedpoint.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[vault], nil
}

// Transfer moves amount from src to dst. mint is unused by the memory
// ledger (a single vault key already identifies the token account
// uniquely) but kept in the signature so callers exercise the same
// call shape as farming/onchain.
func (l *MemoryLedger) Transfer(_ context.Context, _, src, dst solana.PublicKey, amount fixedpoint.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	srcBal := l.balances[src]
	newSrc, err := fixedpoint.Sub(srcBal, amount)
	if err != nil {
		return err
	}
	newDst, err := fixedpoint.Add(l.balances[dst], amount)
	if err != nil {
		return err
	}
	l.balances[src] = newSrc
	l.balances[dst] = newDst
	return nil
}

func (l *MemoryLedger) LoadFarm(_ context.Context, farm solana.PublicKey) (*Farm, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.farms[farm]
	if !ok {
		return nil, ErrInvalidAccountInput
	}
	cp := *f
	return &cp, nil
}

func (l *MemoryLedger) SaveFarm(_ context.Context, farm solana.PublicKey, f *Farm) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *f
	l.farms[farm] = &cp
	return nil
}

func (l *MemoryLedger) LoadFarmer(_ context.Context, farmer solana.PublicKey) (*Farmer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr, ok := l.farmers[farmer]
	if !ok {
		return nil, ErrInvalidAccountInput
	}
	cp := *fr
	return &cp, nil
}

func (l *MemoryLedger) SaveFarmer(_ context.Context, farmer solana.PublicKey, fr *Farmer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *fr
	l.farmers[farmer] = &cp
	return nil
}

// CreateFarmer derives a deterministic pseudo-PDA for (farm,
// authority) and allocates a zeroed Farmer record there.
func (l *MemoryLedger) CreateFarmer(_ context.Context, farm, authority solana.PublicKey) (solana.PublicKey, error) {
	key := memoryPDA(farm, authority)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.farmers[key]; exists {
		return solana.PublicKey{}, ErrInvalidAccountInput
	}
	l.farmers[key] = &Farmer{Authority: authority, Farm: farm}
	return key, nil
}

func (l *MemoryLedger) CloseFarmer(_ context.Context, farmer solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr, ok := l.farmers[farmer]
	if !ok {
		return ErrInvalidAccountInput
	}
	if !fr.Staked.IsZero() || !fr.Vested.IsZero() {
		return ErrFarmerStillHasStakedTokens
	}
	for _, h := range fr.Harvests {
		if !h.Accrued.IsZero() {
			return ErrFarmerHasUnclaimedHarvest
		}
	}
	delete(l.farmers, farmer)
	return nil
}

func (l *MemoryLedger) CreateWhitelistCompounding(_ context.Context, sourceFarm, targetFarm solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.whitelist[whitelistKey{sourceFarm, targetFarm}] = true
	return nil
}

func (l *MemoryLedger) LookupWhitelistCompounding(_ context.Context, sourceFarm, targetFarm solana.PublicKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.whitelist[whitelistKey{sourceFarm, targetFarm}], nil
}

func (l *MemoryLedger) CloseWhitelistCompounding(_ context.Context, sourceFarm, targetFarm solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.whitelist, whitelistKey{sourceFarm, targetFarm})
	return nil
}

// memoryPDA derives a stable, deterministic stand-in address for
// (farm, authority) pairs without a real program ID's curve check;
// the memory ledger doesn't need bump-seed validity, only uniqueness.
func memoryPDA(farm, authority solana.PublicKey) solana.PublicKey {
	h := sha256.New()
	h.Write(seedFarmer)
	h.Write(farm[:])
	h.Write(authority[:])
	var pk solana.PublicKey
	copy(pk[:], h.Sum(nil))
	return pk
}

var _ Ledger = (*MemoryLedger)(nil)
