package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/pkg/logger"
)

// Reader is the authoritative point-read client. It serves the two
// operations that need strong consistency: verification and the
// pre-revocation schema lookup. Bulk queries belong to the indexer client.
type Reader struct {
	lggr           logger.Logger
	network        Network
	eas            *easContract
	schemaRegistry *schemaRegistryContract
}

// NewReader constructs a Reader bound to the network's EAS and
// SchemaRegistry contracts.
func NewReader(lggr logger.Logger, network Network, client evm.OnchainClient) (*Reader, error) {
	eas, err := newEASContract(network.EASAddress, client)
	if err != nil {
		return nil, err
	}

	schemaRegistry, err := newSchemaRegistryContract(network.SchemaRegistryAddress, client)
	if err != nil {
		return nil, err
	}

	return &Reader{
		lggr:           lggr.Named("registry.Reader"),
		network:        network,
		eas:            eas,
		schemaRegistry: schemaRegistry,
	}, nil
}

// GetAttestation reads a single attestation by UID directly from the
// ledger. The ledger reports "no such record" as a zero-filled struct;
// that sentinel is translated to (nil, nil) here and never surfaced as a
// record.
func (r *Reader) GetAttestation(ctx context.Context, uid common.Hash) (*Attestation, error) {
	rec, err := r.eas.GetAttestation(&bind.CallOpts{Context: ctx}, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to read attestation %s: %w", uid.Hex(), err)
	}

	if rec.Uid == ([32]byte{}) {
		r.lggr.Debugw("attestation not found", "uid", uid.Hex())
		return nil, nil
	}

	return &Attestation{
		UID:            rec.Uid,
		SchemaUID:      rec.Schema,
		Recipient:      rec.Recipient,
		Attester:       rec.Attester,
		Revocable:      rec.Revocable,
		RefUID:         rec.RefUID,
		Data:           rec.Data,
		Time:           NormalizeTimestamp(new(big.Int).SetUint64(rec.Time)),
		ExpirationTime: NormalizeTimestamp(new(big.Int).SetUint64(rec.ExpirationTime)),
		RevocationTime: NormalizeTimestamp(new(big.Int).SetUint64(rec.RevocationTime)),
	}, nil
}

// GetSchema reads a registered schema by UID. Follows the same absence
// contract as GetAttestation: the zero-filled sentinel becomes (nil, nil).
func (r *Reader) GetSchema(ctx context.Context, uid common.Hash) (*Schema, error) {
	rec, err := r.schemaRegistry.GetSchema(&bind.CallOpts{Context: ctx}, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", uid.Hex(), err)
	}

	if rec.Uid == ([32]byte{}) {
		r.lggr.Debugw("schema not found", "uid", uid.Hex())
		return nil, nil
	}

	return &Schema{
		UID:        rec.Uid,
		Definition: rec.Schema,
		Resolver:   rec.Resolver,
		Revocable:  rec.Revocable,
	}, nil
}
