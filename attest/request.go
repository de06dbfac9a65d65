package attest

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/attestkit/attestations-framework/indexer"
	"github.com/attestkit/attestations-framework/internal/pointer"
)

// The five operations form a closed set. A boundary (CLI, tool call)
// decodes its string command plus raw arguments into exactly one request
// variant here, so no string dispatch reaches the service.

// Operation names accepted by DecodeRequest.
const (
	OpCreateSchema      = "create-schema"
	OpIssueAttestation  = "attest"
	OpVerifyAttestation = "verify"
	OpListAttestations  = "list"
	OpRevokeAttestation = "revoke"
)

// Request is the closed union of operation requests.
type Request interface {
	validate() error
	isRequest()
}

var (
	_ Request = CreateSchemaRequest{}
	_ Request = IssueAttestationRequest{}
	_ Request = VerifyAttestationRequest{}
	_ Request = ListAttestationsRequest{}
	_ Request = RevokeAttestationRequest{}
)

// DecodeRequest decodes a named operation and its JSON arguments into the
// matching request variant. Unknown operations are rejected; validation of
// the decoded fields happens when the request is executed.
func DecodeRequest(op string, args json.RawMessage) (Request, error) {
	switch op {
	case OpCreateSchema:
		var req CreateSchemaRequest
		if err := unmarshalArgs(args, &req); err != nil {
			return nil, err
		}
		return req, nil
	case OpIssueAttestation:
		var req IssueAttestationRequest
		if err := unmarshalArgs(args, &req); err != nil {
			return nil, err
		}
		return req, nil
	case OpVerifyAttestation:
		var req VerifyAttestationRequest
		if err := unmarshalArgs(args, &req); err != nil {
			return nil, err
		}
		return req, nil
	case OpListAttestations:
		var req ListAttestationsRequest
		if err := unmarshalArgs(args, &req); err != nil {
			return nil, err
		}
		return req, nil
	case OpRevokeAttestation:
		var req RevokeAttestationRequest
		if err := unmarshalArgs(args, &req); err != nil {
			return nil, err
		}
		return req, nil
	default:
		return nil, &ValidationError{Field: "operation", Reason: fmt.Sprintf("unknown operation %q", op)}
	}
}

func unmarshalArgs(args json.RawMessage, into any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, into); err != nil {
		return &ValidationError{Field: "arguments", Reason: err.Error()}
	}

	return nil
}

// CreateSchemaRequest registers a schema definition, an ordered field list
// encoded as a comma-joined "type name" string.
type CreateSchemaRequest struct {
	Definition string `json:"definition"`
	// Resolver is an optional resolver contract address; empty means the
	// zero-address sentinel (no resolver).
	Resolver  string `json:"resolver,omitempty"`
	Revocable bool   `json:"revocable"`
}

func (r CreateSchemaRequest) isRequest() {}

func (r CreateSchemaRequest) validate() error {
	if r.Definition == "" {
		return &ValidationError{Field: "definition", Reason: "must not be empty"}
	}
	if r.Resolver != "" && !isAddress(r.Resolver) {
		return &ValidationError{Field: "resolver", Reason: "must be a 0x-prefixed 20-byte hex address"}
	}

	return nil
}

// IssueAttestationRequest issues an attestation against a registered
// schema.
type IssueAttestationRequest struct {
	SchemaUID string `json:"schemaUID"`
	Recipient string `json:"recipient"`
	// Payload is the schema-encoded attestation data as a 0x-prefixed hex
	// string, produced by the caller's encoding collaborator.
	Payload string `json:"payload"`
	// ExpirationTime in Unix seconds; 0 means never expires.
	ExpirationTime uint64 `json:"expirationTime,omitempty"`
	// Revocable defaults to true when omitted.
	Revocable *bool `json:"revocable,omitempty"`
	// RefUID optionally back-links another attestation.
	RefUID string `json:"refUID,omitempty"`
}

func (r IssueAttestationRequest) isRequest() {}

func (r IssueAttestationRequest) validate() error {
	if !isUID(r.SchemaUID) {
		return &ValidationError{Field: "schemaUID", Reason: "must be a 0x-prefixed 32-byte hex identifier"}
	}
	if !isAddress(r.Recipient) {
		return &ValidationError{Field: "recipient", Reason: "must be a 0x-prefixed 20-byte hex address"}
	}
	if !isHexPayload(r.Payload) {
		return &ValidationError{Field: "payload", Reason: "must be a 0x-prefixed hex string"}
	}
	if r.RefUID != "" && !isUID(r.RefUID) {
		return &ValidationError{Field: "refUID", Reason: "must be a 0x-prefixed 32-byte hex identifier"}
	}

	return nil
}

// VerifyAttestationRequest verifies a single attestation by identifier.
type VerifyAttestationRequest struct {
	UID string `json:"uid"`
}

func (r VerifyAttestationRequest) isRequest() {}

func (r VerifyAttestationRequest) validate() error {
	if !isUID(r.UID) {
		return &ValidationError{Field: "uid", Reason: "must be a 0x-prefixed 32-byte hex identifier"}
	}

	return nil
}

// ListAttestationsRequest lists attestations matching the supplied
// filters. Empty fields impose no constraint.
type ListAttestationsRequest struct {
	Recipient string `json:"recipient,omitempty"`
	Attester  string `json:"attester,omitempty"`
	SchemaUID string `json:"schemaUID,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func (r ListAttestationsRequest) isRequest() {}

func (r ListAttestationsRequest) validate() error {
	if r.Recipient != "" && !isAddress(r.Recipient) {
		return &ValidationError{Field: "recipient", Reason: "must be a 0x-prefixed 20-byte hex address"}
	}
	if r.Attester != "" && !isAddress(r.Attester) {
		return &ValidationError{Field: "attester", Reason: "must be a 0x-prefixed 20-byte hex address"}
	}
	if r.SchemaUID != "" && !isUID(r.SchemaUID) {
		return &ValidationError{Field: "schemaUID", Reason: "must be a 0x-prefixed 32-byte hex identifier"}
	}
	if r.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "must not be negative"}
	}

	return nil
}

// filter converts the request into the index filter, adding clauses only
// for the fields that were supplied.
func (r ListAttestationsRequest) filter() indexer.Filter {
	f := indexer.Filter{Limit: r.Limit}
	if r.Recipient != "" {
		f.Recipient = pointer.To(r.Recipient)
	}
	if r.Attester != "" {
		f.Attester = pointer.To(r.Attester)
	}
	if r.SchemaUID != "" {
		f.SchemaUID = pointer.To(r.SchemaUID)
	}

	return f
}

// RevokeAttestationRequest revokes a single attestation by identifier.
type RevokeAttestationRequest struct {
	UID string `json:"uid"`
}

func (r RevokeAttestationRequest) isRequest() {}

func (r RevokeAttestationRequest) validate() error {
	if !isUID(r.UID) {
		return &ValidationError{Field: "uid", Reason: "must be a 0x-prefixed 32-byte hex identifier"}
	}

	return nil
}

var (
	uidRe     = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	payloadRe = regexp.MustCompile(`^0x(?:[0-9a-fA-F]{2})*$`)
)

func isUID(s string) bool     { return uidRe.MatchString(s) }
func isAddress(s string) bool { return addressRe.MatchString(s) }

func isHexPayload(s string) bool { return payloadRe.MatchString(s) }
