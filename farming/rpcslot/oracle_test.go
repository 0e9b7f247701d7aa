package rpcslot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solfarm/farming-go/farming/rpcslot"
)

type flakyClient struct {
	failuresLeft int
	slot         uint64
}

func (c *flakyClient) GetSlot(context.Context, solanarpc.CommitmentType) (uint64, error) {
	if c.failuresLeft > 0 {
		c.failuresLeft--
		return 0, errors.New("rpc unavailable")
	}
	return c.slot, nil
}

func TestOracleCurrentSlotRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	client := &flakyClient{failuresLeft: 2, slot: 12345}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := rpcslot.New(log, client, solanarpc.CommitmentConfirmed)

	slot, err := o.CurrentSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), slot)
	assert.Equal(t, 0, client.failuresLeft)
}

type alwaysFailClient struct{}

func (alwaysFailClient) GetSlot(context.Context, solanarpc.CommitmentType) (uint64, error) {
	return 0, errors.New("rpc unavailable")
}

func TestOracleCurrentSlotGivesUpWhenContextCancelled(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := rpcslot.New(log, alwaysFailClient{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.CurrentSlot(ctx)
	assert.Error(t, err)
}
