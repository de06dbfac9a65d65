package registry

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/attestkit/attestations-framework/chain/evm"
)

// Network is the immutable per-deployment descriptor shared read-only by
// all clients: which chain to talk to, where the two registry contracts
// live, and where the index service answers bulk queries.
type Network struct {
	Name                  string
	ChainSelector         uint64
	RPCs                  []evm.RPC
	EASAddress            common.Address
	SchemaRegistryAddress common.Address
	IndexerURL            string
}

// ChainID returns the EVM chain ID for the network.
func (n Network) ChainID() (*big.Int, error) {
	id, err := chainsel.GetChainIDFromSelector(n.ChainSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID for selector %d: %w", n.ChainSelector, err)
	}

	chainID, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse chain ID %q", id)
	}

	return chainID, nil
}

// The two supported environments. Contract addresses are the canonical EAS
// deployments; indexer URLs point at the matching easscan GraphQL service.
var (
	NetworkMainnet = Network{
		Name:                  "mainnet",
		ChainSelector:         chainsel.ETHEREUM_MAINNET.Selector,
		EASAddress:            common.HexToAddress("0xA1207F3BBa224E2c9c3c6D5aF63D0eb1582Ce587"),
		SchemaRegistryAddress: common.HexToAddress("0xA7b39296258348C78294F95B872b282326A97BDF"),
		IndexerURL:            "https://easscan.org/graphql",
	}

	NetworkSepolia = Network{
		Name:                  "sepolia",
		ChainSelector:         chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector,
		EASAddress:            common.HexToAddress("0xC2679fBD37d54388Ce493F1DB75320D236e1815e"),
		SchemaRegistryAddress: common.HexToAddress("0x0a7E2Ff54e76B8E6659aedc9103FB21c038050D0"),
		IndexerURL:            "https://sepolia.easscan.org/graphql",
	}
)

// NetworkByName resolves one of the two supported environment names.
func NetworkByName(name string) (Network, error) {
	switch name {
	case NetworkMainnet.Name:
		return NetworkMainnet, nil
	case NetworkSepolia.Name:
		return NetworkSepolia, nil
	default:
		return Network{}, fmt.Errorf("unknown network %q, expected %q or %q",
			name, NetworkMainnet.Name, NetworkSepolia.Name)
	}
}
