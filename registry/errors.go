package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound indicates a point read (or revoke's prerequisite lookup)
// resolved to the zero-sentinel record. Distinguished from transport
// failures so callers can treat absence as a domain outcome.
var ErrNotFound = errors.New("attestation not found")

// WriteError indicates a transaction submission was rejected before it
// reached the mempool: malformed input, insufficient funds, unreachable
// endpoint. The transaction did not execute and is never retried here.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s submission failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConfirmError indicates the submission succeeded but the confirmation wait
// failed or the transaction reverted. Distinct from WriteError because a
// submitted-but-reverted transaction may still have cost the caller fees.
type ConfirmError struct {
	TxHash common.Hash
	Err    error
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("tx %s confirmation failed: %v", e.TxHash.Hex(), e.Err)
}

func (e *ConfirmError) Unwrap() error { return e.Err }
