package attest

import (
	"context"
	"fmt"
)

// Handle executes a decoded request variant and returns its
// operation-specific result. Boundaries that decode commands with
// DecodeRequest use this as the single entry point into the service.
func (s *Service) Handle(ctx context.Context, req Request) (any, error) {
	switch r := req.(type) {
	case CreateSchemaRequest:
		return s.CreateSchema(ctx, r)
	case IssueAttestationRequest:
		return s.IssueAttestation(ctx, r)
	case VerifyAttestationRequest:
		v, err := s.VerifyAttestation(ctx, r)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}

		return v, nil
	case ListAttestationsRequest:
		return s.ListAttestations(ctx, r)
	case RevokeAttestationRequest:
		return s.RevokeAttestation(ctx, r)
	default:
		return nil, fmt.Errorf("unsupported request type %T", req)
	}
}
