package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrTxReverted is wrapped by confirmation failures where the transaction
// was mined but its receipt carries a failed status.
var ErrTxReverted = errors.New("transaction reverted")

// ConfirmFuncGeth returns a ConfirmFunc that polls for the transaction
// receipt with the given tick interval and surfaces revert reasons by
// replaying the call at the mined block.
func ConfirmFuncGeth(client OnchainClient, from common.Address, opts ...func(*confirmFuncGeth)) ConfirmFunc {
	cf := &confirmFuncGeth{
		client: client,
		from:   from,
		// the same value bind.WaitMined hardcodes in go-ethereum
		tickInterval: 1 * time.Second,
	}
	for _, o := range opts {
		o(cf)
	}

	return cf.confirm
}

// WithTickInterval overrides the receipt polling interval, useful for
// networks with instant blocks.
func WithTickInterval(interval time.Duration) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		o.tickInterval = interval
	}
}

type confirmFuncGeth struct {
	client       OnchainClient
	from         common.Address
	tickInterval time.Duration
}

func (g *confirmFuncGeth) confirm(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if tx == nil {
		return nil, errors.New("tx was nil, nothing to confirm")
	}

	receipt, err := WaitMinedWithInterval(ctx, g.tickInterval, g.client, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("tx %s failed to confirm: %w", tx.Hash().Hex(), err)
	}
	if receipt == nil {
		return nil, fmt.Errorf("receipt was nil for tx %s", tx.Hash().Hex())
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason, rerr := getErrorReasonFromTx(ctx, g.client, g.from, tx, receipt)
		if rerr == nil && reason != "" {
			return receipt, fmt.Errorf("tx %s: %w: %s", tx.Hash().Hex(), ErrTxReverted, reason)
		}

		return receipt, fmt.Errorf("tx %s: %w: could not decode error reason", tx.Hash().Hex(), ErrTxReverted)
	}

	return receipt, nil
}

// WaitMinedWithInterval polls for the receipt of txHash with a custom tick,
// which allows getting receipts faster than bind.WaitMined on networks with
// instant blocks.
func WaitMinedWithInterval(ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

// ContractCaller is the subset of the client needed to replay a reverted
// call for its error reason.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// getErrorReasonFromTx retrieves the error reason from a transaction by
// simulating the call at the block it was mined in. If the simulation
// reverts, it attempts to extract the reason from the returned error.
func getErrorReasonFromTx(
	ctx context.Context,
	caller ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	if _, err := caller.CallContract(ctx, call, receipt.BlockNumber); err != nil {
		reason, perr := getJSONErrorData(err)
		if perr == nil {
			return reason, nil
		}
		if reason == "" {
			return err.Error(), nil
		}
	}

	return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
}

// getJSONErrorData extracts the error data from a JSON-RPC error.
func getJSONErrorData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	// Matches the structure of the JSON error because it is a private type
	// in go-ethereum's rpc package.
	type jsonError interface {
		Error() string
		ErrorCode() int
		ErrorData() any
	}

	var jerr jsonError
	if !errors.As(err, &jerr) {
		return "", fmt.Errorf("error must be of type jsonError: %w", err)
	}

	data := fmt.Sprintf("%s", jerr.ErrorData())
	if data == "" && strings.Contains(jerr.Error(), "missing trie node") {
		return "", errors.New("missing trie node, likely due to not using an archive node")
	}

	return data, nil
}
