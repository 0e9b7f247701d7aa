package farming

import "log/slog"

// Config configures an Engine.
type Config struct {
	Ledger     Ledger
	SlotOracle SlotOracle
	Logger     *slog.Logger
}

// Validate checks that every required field is set.
func (c *Config) Validate() error {
	if c.Ledger == nil {
		return ErrLedgerRequired
	}
	if c.SlotOracle == nil {
		return ErrSlotOracleRequired
	}
	if c.Logger == nil {
		return ErrLoggerRequired
	}
	return nil
}

// Engine drives every farming lifecycle operation against a Ledger and
// a SlotOracle. Its methods are safe for concurrent use: each takes
// the per-farm and, where applicable, per-farmer lock before reading
// or writing state through the ledger.
type Engine struct {
	ledger Ledger
	slots  SlotOracle
	logger *slog.Logger
	locks  *locks
}

// NewEngine constructs an Engine from cfg, which must pass Validate.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		ledger: cfg.Ledger,
		slots:  cfg.SlotOracle,
		logger: cfg.Logger,
		locks:  newLocks(),
	}, nil
}
