// Package rpcslot implements farming.SlotOracle against a live Solana
// cluster's RPC endpoint.
package rpcslot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v5"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// Client is the narrow slice of the Solana RPC surface Oracle needs.
type Client interface {
	GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error)
}

// Oracle reports the current slot of a live cluster, retrying
// transient RPC failures with an exponential backoff.
type Oracle struct {
	log        *slog.Logger
	client     Client
	commitment solanarpc.CommitmentType
}

// New constructs an Oracle. If commitment is the zero value it
// defaults to CommitmentFinalized.
func New(log *slog.Logger, client Client, commitment solanarpc.CommitmentType) *Oracle {
	if commitment == "" {
		commitment = solanarpc.CommitmentFinalized
	}
	return &Oracle{log: log, client: client, commitment: commitment}
}

// CurrentSlot returns the cluster's current slot at o's configured
// commitment level.
func (o *Oracle) CurrentSlot(ctx context.Context) (uint64, error) {
	attempt := 0
	slot, err := backoff.Retry(ctx, func() (uint64, error) {
		if attempt > 0 {
			o.log.Warn("failed to get current slot, retrying", "attempt", attempt)
		}
		attempt++
		return o.client.GetSlot(ctx, o.commitment)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return 0, fmt.Errorf("get current slot: %w", err)
	}
	return slot, nil
}
