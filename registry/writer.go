package registry

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/attestkit/attestations-framework/chain/evm"
	"github.com/attestkit/attestations-framework/pkg/logger"
)

// AttestRequest describes a new attestation to submit.
type AttestRequest struct {
	SchemaUID common.Hash
	Recipient common.Address
	// Data is the schema-encoded payload, already encoded by the caller's
	// encoding collaborator. Opaque to this client.
	Data []byte
	// ExpirationTime in Unix seconds; 0 means the attestation never expires.
	ExpirationTime uint64
	// Revocable defaults to true when nil.
	Revocable *bool
	// RefUID optionally back-links another attestation; zero means none.
	RefUID common.Hash
	// Value is the wei sent along with the attestation; nil means 0.
	Value *big.Int
}

func (r AttestRequest) revocable() bool {
	if r.Revocable == nil {
		return true
	}

	return *r.Revocable
}

func (r AttestRequest) value() *big.Int {
	if r.Value == nil {
		return new(big.Int)
	}

	return r.Value
}

// SchemaResult is the outcome of a confirmed schema registration. UID is
// the hex encoded schema identifier, or PlaceholderUID when the identifier
// could not be derived from the receipt.
type SchemaResult struct {
	UID    string
	TxHash common.Hash
}

// AttestResult is the outcome of a confirmed attestation. UID follows the
// same derivation contract as SchemaResult.UID.
type AttestResult struct {
	UID    string
	TxHash common.Hash
}

// RevokeResult is the outcome of a confirmed revocation.
type RevokeResult struct {
	TxHash common.Hash
}

// Writer is the authoritative write client. Every operation is two-phase:
// submit (fails fast with WriteError) then confirm (suspends until the
// transaction is mined, fails with ConfirmError). Writes are never retried
// here; blind resubmission of a state-changing transaction risks duplicate
// side effects.
//
// The transactor holds one signing credential with a strictly increasing
// nonce. Concurrent writes through one Writer race on that nonce; callers
// issuing writes concurrently must serialize them externally.
type Writer struct {
	lggr    logger.Logger
	network Network
	txOpts  *bind.TransactOpts
	confirm evm.ConfirmFunc

	eas            *easContract
	schemaRegistry *schemaRegistryContract
}

// NewWriter constructs a Writer bound to the network's EAS and
// SchemaRegistry contracts.
func NewWriter(
	lggr logger.Logger,
	network Network,
	client evm.OnchainClient,
	txOpts *bind.TransactOpts,
	confirm evm.ConfirmFunc,
) (*Writer, error) {
	if txOpts == nil {
		return nil, errors.New("transactor is required")
	}
	if confirm == nil {
		return nil, errors.New("confirm func is required")
	}

	eas, err := newEASContract(network.EASAddress, client)
	if err != nil {
		return nil, err
	}
	schemaRegistry, err := newSchemaRegistryContract(network.SchemaRegistryAddress, client)
	if err != nil {
		return nil, err
	}

	return &Writer{
		lggr:           lggr.Named("registry.Writer"),
		network:        network,
		txOpts:         txOpts,
		confirm:        confirm,
		eas:            eas,
		schemaRegistry: schemaRegistry,
	}, nil
}

// RegisterSchema submits a schema registration and waits for confirmation.
// On success the new schema UID is derived from the Registered event log;
// if derivation fails the write still reports success with PlaceholderUID.
func (w *Writer) RegisterSchema(ctx context.Context, definition string, resolver common.Address, revocable bool) (SchemaResult, error) {
	opts := w.transactOpts(ctx)

	tx, err := w.schemaRegistry.Register(opts, definition, resolver, revocable)
	if err != nil {
		return SchemaResult{}, &WriteError{Op: "schema registration", Err: err}
	}

	w.lggr.Infow("schema registration submitted",
		"network", w.network.Name,
		"txHash", tx.Hash().Hex(),
	)

	receipt, err := w.confirm(ctx, tx)
	if err != nil {
		return SchemaResult{}, &ConfirmError{TxHash: tx.Hash(), Err: err}
	}

	uid := w.deriveSchemaUID(receipt)
	w.lggr.Infow("schema registered", "uid", uid, "txHash", tx.Hash().Hex())

	return SchemaResult{UID: uid, TxHash: tx.Hash()}, nil
}

// Attest submits an attestation and waits for confirmation. The UID of the
// new attestation is derived from the Attested event log, with the same
// soft-failure contract as RegisterSchema.
func (w *Writer) Attest(ctx context.Context, req AttestRequest) (AttestResult, error) {
	opts := w.transactOpts(ctx)

	tx, err := w.eas.Attest(opts, attestationRequest{
		Schema: req.SchemaUID,
		Data: attestationRequestData{
			Recipient:      req.Recipient,
			ExpirationTime: req.ExpirationTime,
			Revocable:      req.revocable(),
			RefUID:         req.RefUID,
			Data:           req.Data,
			Value:          req.value(),
		},
	})
	if err != nil {
		return AttestResult{}, &WriteError{Op: "attestation", Err: err}
	}

	w.lggr.Infow("attestation submitted",
		"network", w.network.Name,
		"schemaUID", req.SchemaUID.Hex(),
		"recipient", req.Recipient.Hex(),
		"txHash", tx.Hash().Hex(),
	)

	receipt, err := w.confirm(ctx, tx)
	if err != nil {
		return AttestResult{}, &ConfirmError{TxHash: tx.Hash(), Err: err}
	}

	uid := w.deriveAttestationUID(receipt)
	w.lggr.Infow("attestation confirmed", "uid", uid, "txHash", tx.Hash().Hex())

	return AttestResult{UID: uid, TxHash: tx.Hash()}, nil
}

// Revoke submits a revocation for the attestation uid under schemaUID and
// waits for confirmation. Revocation authority is schema-scoped, so the
// ledger requires both identifiers.
func (w *Writer) Revoke(ctx context.Context, schemaUID, uid common.Hash) (RevokeResult, error) {
	opts := w.transactOpts(ctx)

	tx, err := w.eas.Revoke(opts, revocationRequest{
		Schema: schemaUID,
		Data: revocationRequestData{
			Uid:   uid,
			Value: new(big.Int),
		},
	})
	if err != nil {
		return RevokeResult{}, &WriteError{Op: "revocation", Err: err}
	}

	w.lggr.Infow("revocation submitted",
		"network", w.network.Name,
		"uid", uid.Hex(),
		"txHash", tx.Hash().Hex(),
	)

	if _, err := w.confirm(ctx, tx); err != nil {
		return RevokeResult{}, &ConfirmError{TxHash: tx.Hash(), Err: err}
	}

	return RevokeResult{TxHash: tx.Hash()}, nil
}

// transactOpts copies the shared transactor with the per-call context so a
// caller-supplied deadline applies to submission.
func (w *Writer) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *w.txOpts
	opts.Context = ctx

	return &opts
}

// deriveSchemaUID extracts the schema UID from the Registered event, whose
// first indexed topic is the UID.
func (w *Writer) deriveSchemaUID(receipt *types.Receipt) string {
	topic := w.schemaRegistry.RegisteredTopic()
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) < 2 || log.Topics[0] != topic {
			continue
		}

		return log.Topics[1].Hex()
	}

	w.lggr.Warnw("could not derive schema UID from receipt logs",
		"txHash", receipt.TxHash.Hex(),
	)

	return PlaceholderUID
}

// deriveAttestationUID extracts the attestation UID from the Attested
// event data.
func (w *Writer) deriveAttestationUID(receipt *types.Receipt) string {
	topic := w.eas.AttestedTopic()
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != topic {
			continue
		}

		event, err := w.eas.ParseAttested(*log)
		if err != nil {
			continue
		}

		return common.Hash(event.Uid).Hex()
	}

	w.lggr.Warnw("could not derive attestation UID from receipt logs",
		"txHash", receipt.TxHash.Hex(),
	)

	return PlaceholderUID
}
