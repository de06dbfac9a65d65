// Package registry implements the attestation registry clients: the
// authoritative write path (schema registration, attestation, revocation)
// and the authoritative point-read path against the EAS and SchemaRegistry
// contracts.
//
// The ledger owns every record. These clients hold no local state beyond
// the immutable network configuration and the signing transactor, so
// revocation and expiry are always re-read from the chain, never cached.
package registry

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PlaceholderUID is returned by write operations when the transaction
// confirmed but the new record identifier could not be derived from the
// receipt logs. The write itself succeeded; only the derivation failed.
const PlaceholderUID = "unknown"

// Schema is a registered field-list definition that attestations reference.
// Immutable once registered.
type Schema struct {
	UID        common.Hash
	Definition string
	Resolver   common.Address
	Revocable  bool
}

// Attestation is a single attestation record as stored on the ledger.
//
// A zero UID never escapes the registry clients: read paths translate the
// all-zero sentinel into an absence signal before returning. RefUID keeps
// the zero sentinel since "no reference" is a valid field state; use HasRef
// to test it.
type Attestation struct {
	UID       common.Hash
	SchemaUID common.Hash
	Recipient common.Address
	Attester  common.Address
	Revocable bool
	RefUID    common.Hash
	Data      []byte

	// Unix seconds, normalized from the ledger's uint64 fields.
	// ExpirationTime == 0 means the attestation never expires.
	// RevocationTime == 0 means it has not been revoked.
	Time           int64
	ExpirationTime int64
	RevocationTime int64
}

// HasRef reports whether the attestation back-links another attestation.
func (a *Attestation) HasRef() bool {
	return a.RefUID != (common.Hash{})
}

// Validity is the derived state of an attestation at a point in time. It is
// always recomputed from the raw timestamps, never stored.
type Validity struct {
	Valid   bool `json:"valid"`
	Revoked bool `json:"revoked"`
	Expired bool `json:"expired"`
}

// ComputeValidity derives the validity state of a at the given Unix time.
func ComputeValidity(a *Attestation, now int64) Validity {
	revoked := a.RevocationTime > 0
	expired := a.ExpirationTime > 0 && a.ExpirationTime < now

	return Validity{
		Valid:   !revoked && !expired,
		Revoked: revoked,
		Expired: expired,
	}
}

// NormalizeTimestamp converts an unbounded ledger integer into the int64
// domain. Values that fit are returned loss-free; values above MaxInt64
// saturate rather than wrap. A nil or negative input normalizes to 0.
func NormalizeTimestamp(v *big.Int) int64 {
	if v == nil || v.Sign() <= 0 {
		return 0
	}
	if !v.IsInt64() {
		return math.MaxInt64
	}

	return v.Int64()
}
