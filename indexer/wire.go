package indexer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/attestkit/attestations-framework/registry"
)

// graphQLRequest is the request document posted to the index service.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphQLResponse is the transport-level response envelope.
type graphQLResponse struct {
	Data   *queryData `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// queryData holds the expected payload container. The pointer slice
// distinguishes a missing container from an empty result set.
type queryData struct {
	Attestations *[]wireAttestation `json:"attestations"`
}

// wireAttestation is an attestation record as the index serves it. The
// three timestamps arrive as decimal strings.
type wireAttestation struct {
	ID             string `json:"id"`
	Attester       string `json:"attester"`
	Recipient      string `json:"recipient"`
	Revocable      bool   `json:"revocable"`
	RefUID         string `json:"refUID"`
	Data           string `json:"data"`
	Time           string `json:"time"`
	ExpirationTime string `json:"expirationTime"`
	RevocationTime string `json:"revocationTime"`
	Schema         struct {
		ID string `json:"id"`
	} `json:"schema"`
}

// toAttestation converts a wire record to the domain record, parsing and
// normalizing the timestamp fields. A timestamp that fails to parse aborts
// the conversion with a DataIntegrityError rather than defaulting to zero.
func (w wireAttestation) toAttestation() (registry.Attestation, error) {
	at, err := parseTimestamp("time", w.Time)
	if err != nil {
		return registry.Attestation{}, err
	}
	exp, err := parseTimestamp("expirationTime", w.ExpirationTime)
	if err != nil {
		return registry.Attestation{}, err
	}
	rev, err := parseTimestamp("revocationTime", w.RevocationTime)
	if err != nil {
		return registry.Attestation{}, err
	}

	return registry.Attestation{
		UID:            common.HexToHash(w.ID),
		SchemaUID:      common.HexToHash(w.Schema.ID),
		Recipient:      common.HexToAddress(w.Recipient),
		Attester:       common.HexToAddress(w.Attester),
		Revocable:      w.Revocable,
		RefUID:         common.HexToHash(w.RefUID),
		Data:           common.FromHex(w.Data),
		Time:           at,
		ExpirationTime: exp,
		RevocationTime: rev,
	}, nil
}

// parseTimestamp parses a decimal wire timestamp and clamps it into the
// int64 domain with the same normalization applied at the ledger boundary.
// Anything that is not a non-negative decimal, empty strings included,
// aborts with a DataIntegrityError; substituting zero would turn corrupt
// index data into "never expires / not revoked".
func parseTimestamp(field, value string) (int64, error) {
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return 0, &DataIntegrityError{Field: field, Value: value}
	}
	if n.Sign() < 0 {
		return 0, &DataIntegrityError{Field: field, Value: value}
	}

	return registry.NormalizeTimestamp(n), nil
}
