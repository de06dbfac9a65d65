// Package attest composes the registry write client, the authoritative
// point-read client and the index query client behind one service.
//
// Each operation declares which data source it needs: writes go through the
// Writer, verification and the pre-revocation lookup need the strong
// consistency of the PointReader, and bulk listing uses the
// eventually-consistent BulkQuerier. The service adds no retry logic and
// holds no state; it forwards the first failure from any step.
package attest

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/attestkit/attestations-framework/indexer"
	"github.com/attestkit/attestations-framework/pkg/logger"
	"github.com/attestkit/attestations-framework/registry"
)

// Writer is the authoritative write path.
type Writer interface {
	RegisterSchema(ctx context.Context, definition string, resolver common.Address, revocable bool) (registry.SchemaResult, error)
	Attest(ctx context.Context, req registry.AttestRequest) (registry.AttestResult, error)
	Revoke(ctx context.Context, schemaUID, uid common.Hash) (registry.RevokeResult, error)
}

// PointReader is the strongly consistent single-key read path.
type PointReader interface {
	GetAttestation(ctx context.Context, uid common.Hash) (*registry.Attestation, error)
}

// BulkQuerier is the eventually consistent filtered read path.
type BulkQuerier interface {
	Query(ctx context.Context, filter indexer.Filter) ([]registry.Attestation, error)
}

var (
	_ Writer      = (*registry.Writer)(nil)
	_ PointReader = (*registry.Reader)(nil)
	_ BulkQuerier = (*indexer.Client)(nil)
)

// VerifiedAttestation is an attestation record augmented with its derived
// validity state at verification time.
type VerifiedAttestation struct {
	Attestation registry.Attestation
	Validity    registry.Validity
}

// Service is the attestation orchestrator.
type Service struct {
	lggr    logger.Logger
	writer  Writer
	reader  PointReader
	querier BulkQuerier
}

// NewService constructs a Service from its three data-source capabilities.
func NewService(lggr logger.Logger, writer Writer, reader PointReader, querier BulkQuerier) (*Service, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if reader == nil {
		return nil, fmt.Errorf("point reader is required")
	}
	if querier == nil {
		return nil, fmt.Errorf("bulk querier is required")
	}

	return &Service{
		lggr:    lggr.Named("attest.Service"),
		writer:  writer,
		reader:  reader,
		querier: querier,
	}, nil
}

// CreateSchema registers a new schema definition on the ledger.
func (s *Service) CreateSchema(ctx context.Context, req CreateSchemaRequest) (registry.SchemaResult, error) {
	if err := req.validate(); err != nil {
		return registry.SchemaResult{}, err
	}

	resolver := common.Address{}
	if req.Resolver != "" {
		resolver = common.HexToAddress(req.Resolver)
	}

	return s.writer.RegisterSchema(ctx, req.Definition, resolver, req.Revocable)
}

// IssueAttestation submits a new attestation. The payload arrives as
// already-encoded hex; schema encoding is the caller's collaborator, not
// this service.
func (s *Service) IssueAttestation(ctx context.Context, req IssueAttestationRequest) (registry.AttestResult, error) {
	if err := req.validate(); err != nil {
		return registry.AttestResult{}, err
	}

	refUID := common.Hash{}
	if req.RefUID != "" {
		refUID = common.HexToHash(req.RefUID)
	}

	return s.writer.Attest(ctx, registry.AttestRequest{
		SchemaUID:      common.HexToHash(req.SchemaUID),
		Recipient:      common.HexToAddress(req.Recipient),
		Data:           common.FromHex(req.Payload),
		ExpirationTime: req.ExpirationTime,
		Revocable:      req.Revocable,
		RefUID:         refUID,
	})
}

// VerifyAttestation reads the attestation from the authoritative source and
// computes its validity state. An identifier the ledger does not know
// yields (nil, nil), not an error.
func (s *Service) VerifyAttestation(ctx context.Context, req VerifyAttestationRequest) (*VerifiedAttestation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	att, err := s.reader.GetAttestation(ctx, common.HexToHash(req.UID))
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, nil
	}

	// Wall-clock seconds, fetched fresh per call; a cached "now" would make
	// expiry checks stale in long-lived instances.
	now := time.Now().Unix()

	return &VerifiedAttestation{
		Attestation: *att,
		Validity:    registry.ComputeValidity(att, now),
	}, nil
}

// ListAttestations queries the index with the supplied filters, newest
// first. If the index is unavailable the call fails; there is no fallback
// to scanning ledger history, because silently mixing consistency models is
// worse than a clear failure.
func (s *Service) ListAttestations(ctx context.Context, req ListAttestationsRequest) ([]registry.Attestation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	return s.querier.Query(ctx, req.filter())
}

// RevokeAttestation revokes the attestation with the given identifier. The
// schema bound to the target is discovered with an authoritative point read
// first; if the record is absent the call fails with
// registry.ErrNotFound and no write is issued. The two round trips are
// independent, not atomic.
func (s *Service) RevokeAttestation(ctx context.Context, req RevokeAttestationRequest) (registry.RevokeResult, error) {
	if err := req.validate(); err != nil {
		return registry.RevokeResult{}, err
	}

	uid := common.HexToHash(req.UID)

	att, err := s.reader.GetAttestation(ctx, uid)
	if err != nil {
		return registry.RevokeResult{}, err
	}
	if att == nil {
		return registry.RevokeResult{}, fmt.Errorf("cannot revoke %s: %w", req.UID, registry.ErrNotFound)
	}

	return s.writer.Revoke(ctx, att.SchemaUID, uid)
}
