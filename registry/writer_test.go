package registry

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/pkg/logger"
)

func newTestWriter(t *testing.T, backend *fakeBackend, confirm evm.ConfirmFunc) *Writer {
	t.Helper()

	chainID, err := NetworkSepolia.ChainID()
	require.NoError(t, err)

	txOpts, err := evm.TransactorRandom().Generate(chainID)
	require.NoError(t, err)

	w, err := NewWriter(logger.Test(t), NetworkSepolia, backend, txOpts, confirm)
	require.NoError(t, err)

	return w
}

// confirmWithReceipt returns a ConfirmFunc that hands back a fixed receipt
// for whatever transaction it is given.
func confirmWithReceipt(logs []*types.Log) evm.ConfirmFunc {
	return func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return &types.Receipt{
			TxHash:      tx.Hash(),
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(1),
			Logs:        logs,
		}, nil
	}
}

func TestNewWriter_RequiresTransactorAndConfirm(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(logger.Test(t), NetworkSepolia, &fakeBackend{}, nil, confirmWithReceipt(nil))
	require.ErrorContains(t, err, "transactor is required")

	chainID, err := NetworkSepolia.ChainID()
	require.NoError(t, err)
	txOpts, err := evm.TransactorRandom().Generate(chainID)
	require.NoError(t, err)

	_, err = NewWriter(logger.Test(t), NetworkSepolia, &fakeBackend{}, txOpts, nil)
	require.ErrorContains(t, err, "confirm func is required")
}

func TestWriter_RegisterSchema(t *testing.T) {
	t.Parallel()

	uid := common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000001")

	t.Run("derives the schema UID from the Registered log", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, confirmWithReceipt(nil))
		w.confirm = confirmWithReceipt([]*types.Log{
			{
				Address: NetworkSepolia.SchemaRegistryAddress,
				Topics:  []common.Hash{w.schemaRegistry.RegisteredTopic(), uid},
			},
		})

		result, err := w.RegisterSchema(context.Background(), "string name,uint256 age", common.Address{}, true)
		require.NoError(t, err)
		assert.Equal(t, uid.Hex(), result.UID)
		assert.NotEqual(t, common.Hash{}, result.TxHash)
		assert.Len(t, backend.sentTxs, 1)
	})

	t.Run("submission rejection surfaces as WriteError without confirming", func(t *testing.T) {
		t.Parallel()

		confirmed := false
		backend := &fakeBackend{sendErr: errors.New("insufficient funds for gas")}
		w := newTestWriter(t, backend, func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
			confirmed = true
			return nil, nil
		})

		_, err := w.RegisterSchema(context.Background(), "string name", common.Address{}, true)

		var werr *WriteError
		require.ErrorAs(t, err, &werr)
		assert.ErrorContains(t, err, "insufficient funds")
		assert.False(t, confirmed)
	})

	t.Run("confirmation failure surfaces as ConfirmError", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
			return nil, errors.New("tx reverted")
		})

		_, err := w.RegisterSchema(context.Background(), "string name", common.Address{}, true)

		var cerr *ConfirmError
		require.ErrorAs(t, err, &cerr)
		assert.NotEqual(t, common.Hash{}, cerr.TxHash)
	})

	t.Run("derivation failure reports success with the placeholder UID", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, confirmWithReceipt(nil))

		result, err := w.RegisterSchema(context.Background(), "string name", common.Address{}, true)
		require.NoError(t, err)
		assert.Equal(t, PlaceholderUID, result.UID)
		assert.NotEqual(t, common.Hash{}, result.TxHash)
	})
}

func TestWriter_Attest(t *testing.T) {
	t.Parallel()

	var (
		uid       = common.HexToHash("0xabad1dea00000000000000000000000000000000000000000000000000000002")
		schemaUID = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
		recipient = common.HexToAddress("0x742d35Cc6634C0532925a3b8D4c8C1B8c4c8C1B8")
	)

	t.Run("derives the attestation UID from the Attested log", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, confirmWithReceipt(nil))
		w.confirm = confirmWithReceipt([]*types.Log{
			{
				Address: NetworkSepolia.EASAddress,
				Topics: []common.Hash{
					w.eas.AttestedTopic(),
					common.BytesToHash(recipient.Bytes()),
					common.BytesToHash(recipient.Bytes()),
					schemaUID,
				},
				Data: uid.Bytes(),
			},
		})

		result, err := w.Attest(context.Background(), AttestRequest{
			SchemaUID: schemaUID,
			Recipient: recipient,
			Data:      []byte{0x01, 0x02},
		})
		require.NoError(t, err)
		assert.Equal(t, uid.Hex(), result.UID)
		assert.Len(t, backend.sentTxs, 1)
	})

	t.Run("foreign logs are skipped and derivation soft-fails", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, confirmWithReceipt([]*types.Log{
			{Topics: []common.Hash{common.HexToHash("0x01")}},
		}))

		result, err := w.Attest(context.Background(), AttestRequest{
			SchemaUID: schemaUID,
			Recipient: recipient,
		})
		require.NoError(t, err)
		assert.Equal(t, PlaceholderUID, result.UID)
	})

	t.Run("submission rejection surfaces as WriteError", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{sendErr: errors.New("nonce too low")}
		w := newTestWriter(t, backend, confirmWithReceipt(nil))

		_, err := w.Attest(context.Background(), AttestRequest{
			SchemaUID: schemaUID,
			Recipient: recipient,
		})

		var werr *WriteError
		require.ErrorAs(t, err, &werr)
	})
}

func TestWriter_Revoke(t *testing.T) {
	t.Parallel()

	var (
		uid       = common.HexToHash("0xabad1dea00000000000000000000000000000000000000000000000000000002")
		schemaUID = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	)

	t.Run("returns the confirmed transaction hash", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, confirmWithReceipt(nil))

		result, err := w.Revoke(context.Background(), schemaUID, uid)
		require.NoError(t, err)
		assert.NotEqual(t, common.Hash{}, result.TxHash)
		assert.Len(t, backend.sentTxs, 1)
	})

	t.Run("confirmation failure surfaces as ConfirmError", func(t *testing.T) {
		t.Parallel()

		backend := &fakeBackend{}
		w := newTestWriter(t, backend, func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
			return nil, errors.New("timed out")
		})

		_, err := w.Revoke(context.Background(), schemaUID, uid)

		var cerr *ConfirmError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestAttestRequest_Defaults(t *testing.T) {
	t.Parallel()

	req := AttestRequest{}
	assert.True(t, req.revocable())
	assert.Equal(t, new(big.Int), req.value())

	f := false
	req.Revocable = &f
	req.Value = big.NewInt(5)
	assert.False(t, req.revocable())
	assert.Equal(t, big.NewInt(5), req.value())
}
