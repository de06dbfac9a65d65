// Package indexer implements the bulk-query client against the
// eventually-consistent index service mirroring ledger attestation data.
//
// The index trades strong consistency for query expressiveness: filtering
// by attester, recipient and schema, pagination, ordering. It never serves
// verification or revocation prerequisites; those go through the
// authoritative registry.Reader. When the index is unreachable the query
// fails rather than silently degrading to a ledger scan.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/attestkit/attestations-framework/pkg/logger"
	"github.com/attestkit/attestations-framework/registry"
)

// RequestTimeout bounds every index request. An elapsed deadline cancels
// the in-flight request and classifies the failure as a timeout.
const RequestTimeout = 30 * time.Second

// Client is the index query client.
type Client struct {
	url        string
	lggr       logger.Logger
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestTimeout overrides the per-request deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates an index client for the given GraphQL endpoint URL.
func New(url string, lggr logger.Logger, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("index endpoint URL is required")
	}

	c := &Client{
		url:     url,
		lggr:    lggr.Named("indexer.Client"),
		timeout: RequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// Query returns attestations matching the filter, newest first. Absent
// filter fields impose no constraint; present ones are ANDed.
//
// The zero-identifier sentinel never escapes here either: a wire record
// with an all-zero id is dropped from the result set, matching the
// absence contract of the ledger read path.
func (c *Client) Query(ctx context.Context, filter Filter) ([]registry.Attestation, error) {
	records, err := c.run(ctx, filter.variables())
	if err != nil {
		return nil, err
	}

	out := make([]registry.Attestation, 0, len(records))
	for _, rec := range records {
		att, err := rec.toAttestation()
		if err != nil {
			return nil, err
		}
		if att.UID == (common.Hash{}) {
			c.lggr.Debugw("dropping zero-identifier index record")
			continue
		}
		out = append(out, att)
	}

	return out, nil
}

// QueryOne returns the attestation with the given UID, or (nil, nil) when
// the index has no such record. A missing record is an expected outcome
// here, not an error; everything else follows the Query failure rules.
func (c *Client) QueryOne(ctx context.Context, uid common.Hash) (*registry.Attestation, error) {
	records, err := c.run(ctx, uidFilter(uid.Hex()))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	att, err := records[0].toAttestation()
	if err != nil {
		return nil, err
	}
	if att.UID == (common.Hash{}) {
		c.lggr.Debugw("index served a zero-identifier record", "uid", uid.Hex())
		return nil, nil
	}

	return &att, nil
}

// run executes one GraphQL request and returns the raw wire records. The
// distinct fail-fast conditions are: deadline elapsed (timeout), transport
// status failure, service-level error entries, and a missing payload
// container. None are treated as "no results".
func (c *Client) run(ctx context.Context, variables map[string]any) ([]wireAttestation, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{
		Query:     attestationsQuery,
		Variables: variables,
	})
	if err != nil {
		return nil, &QueryError{Err: fmt.Errorf("failed to encode query: %w", err)}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &QueryError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.lggr.Debugw("querying index", "url", c.url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &QueryError{Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
		}

		return nil, &QueryError{Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the body content is not
		// part of the error contract.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, &QueryError{Status: resp.StatusCode}
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &QueryError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			msgs = append(msgs, e.Message)
		}

		return nil, &QueryError{Messages: msgs}
	}

	if decoded.Data == nil || decoded.Data.Attestations == nil {
		return nil, &QueryError{Err: errors.New("response missing attestations payload")}
	}

	return *decoded.Data.Attestations, nil
}

// isTimeout reports whether err was caused by an elapsed deadline, either
// via the request context or the HTTP client's own timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}

	return false
}
