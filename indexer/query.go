package indexer

// The wire contract with the easscan index: a single query document with
// named variables, filter clauses included only for the filters actually
// supplied, results ordered by creation time descending.

const attestationsQuery = `query Attestations($where: AttestationWhereInput, $take: Int, $orderBy: [AttestationOrderByWithRelationInput!]) {
  attestations(where: $where, take: $take, orderBy: $orderBy) {
    id
    attester
    recipient
    revocable
    refUID
    data
    time
    expirationTime
    revocationTime
    schema {
      id
    }
  }
}`

// DefaultLimit is the number of records returned when the filter does not
// set one.
const DefaultLimit = 10

// Filter selects attestations from the index. Present fields become
// conjunctive equality clauses; absent fields impose no constraint.
type Filter struct {
	Recipient *string
	Attester  *string
	SchemaUID *string
	// Limit caps the number of returned records; 0 means DefaultLimit.
	Limit int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}

	return f.Limit
}

// whereClause builds the dynamic where document. Clauses exist only for
// the filters that were supplied.
func (f Filter) whereClause() map[string]any {
	where := map[string]any{}
	if f.Recipient != nil {
		where["recipient"] = map[string]any{"equals": *f.Recipient}
	}
	if f.Attester != nil {
		where["attester"] = map[string]any{"equals": *f.Attester}
	}
	if f.SchemaUID != nil {
		where["schemaId"] = map[string]any{"equals": *f.SchemaUID}
	}

	return where
}

// variables assembles the full variable document for attestationsQuery.
func (f Filter) variables() map[string]any {
	return map[string]any{
		"where":   f.whereClause(),
		"take":    f.limit(),
		"orderBy": []map[string]any{{"time": "desc"}},
	}
}

// uidFilter selects a single attestation by identifier.
func uidFilter(uid string) map[string]any {
	return map[string]any{
		"where": map[string]any{
			"id": map[string]any{"equals": uid},
		},
		"take":    1,
		"orderBy": []map[string]any{{"time": "desc"}},
	}
}
