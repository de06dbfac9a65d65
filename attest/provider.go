package attest

import (
	"context"
	"errors"
	"fmt"

	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/indexer"
	"github.com/attestkit/attestations-framework/pkg/logger"
	"github.com/attestkit/attestations-framework/registry"
)

// ProviderConfig holds the configuration to initialize a Provider.
type ProviderConfig struct {
	// Required: the target network descriptor.
	Network registry.Network
	// Required: at least one RPC to connect to the EVM node.
	RPCs []evm.RPC
	// Required: a generator for the signing transactor. Use
	// evm.TransactorFromRaw to sign with a raw private key.
	SignerGen evm.SignerGenerator
	// Optional: overrides the network's index endpoint.
	IndexerURL string
	// Optional: Logger used by all constructed clients. Defaults to a
	// production logger.
	Logger logger.Logger
}

func (c ProviderConfig) validate() error {
	if c.Network.Name == "" {
		return errors.New("network is required")
	}
	if len(c.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}
	if c.SignerGen == nil {
		return errors.New("signer generator is required")
	}

	return nil
}

// Provider wires the chain client, signing transactor, confirmation
// function and index client into a ready Service.
type Provider struct {
	config ProviderConfig

	service *Service
}

// NewProvider creates a new Provider with the given configuration.
func NewProvider(config ProviderConfig) *Provider {
	return &Provider{config: config}
}

// Initialize dials the chain, constructs the three clients and returns the
// composed Service. Subsequent calls return the already-initialized
// service.
func (p *Provider) Initialize(ctx context.Context) (*Service, error) {
	if p.service != nil {
		return p.service, nil
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}

	if err := p.config.validate(); err != nil {
		return nil, fmt.Errorf("failed to validate provider config: %w", err)
	}

	lggr := p.config.Logger
	network := p.config.Network

	chainID, err := network.ChainID()
	if err != nil {
		return nil, err
	}

	txOpts, err := p.config.SignerGen.Generate(chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transactor: %w", err)
	}

	client, err := evm.NewMultiClient(lggr, network.Name, p.config.RPCs)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	confirm := evm.ConfirmFuncGeth(client, txOpts.From)

	writer, err := registry.NewWriter(lggr, network, client, txOpts, confirm)
	if err != nil {
		return nil, fmt.Errorf("failed to create write client: %w", err)
	}

	reader, err := registry.NewReader(lggr, network, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create point-read client: %w", err)
	}

	indexerURL := p.config.IndexerURL
	if indexerURL == "" {
		indexerURL = network.IndexerURL
	}

	querier, err := indexer.New(indexerURL, lggr)
	if err != nil {
		return nil, fmt.Errorf("failed to create index client: %w", err)
	}

	service, err := NewService(lggr, writer, reader, querier)
	if err != nil {
		return nil, err
	}
	p.service = service

	return p.service, nil
}
