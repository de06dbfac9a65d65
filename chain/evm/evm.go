// Package evm provides the EVM chain plumbing shared by the registry
// clients: the onchain client abstraction, transaction confirmation, and
// transactor construction.
package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// OnchainClient is an EVM chain client.
// We use the existing geth interfaces to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// ConfirmFunc takes a submitted transaction, waits for it to be confirmed,
// and returns the receipt. The wait is bounded only by ctx; callers needing
// a deadline must supply one.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// RPC represents a single RPC endpoint configuration.
type RPC struct {
	Name               string `mapstructure:"name" yaml:"name"`
	HTTPURL            string `mapstructure:"http_url" yaml:"http_url"`
	WSURL              string `mapstructure:"ws_url" yaml:"ws_url"`
	PreferredURLScheme string `mapstructure:"preferred_url_scheme" yaml:"preferred_url_scheme"`
}

// PreferredEndpoint returns the endpoint matching the preferred URL scheme.
// By default it returns the HTTP URL.
func (r RPC) PreferredEndpoint() string {
	if r.PreferredURLScheme == "ws" && r.WSURL != "" {
		return r.WSURL
	}

	return r.HTTPURL
}
