package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestkit/attestations-framework/internal/pointer"
	"github.com/attestkit/attestations-framework/pkg/logger"
)

const wireRecordTemplate = `{
	"id": "0xabad1dea00000000000000000000000000000000000000000000000000000002",
	"attester": "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
	"recipient": "0x742d35Cc6634C0532925a3b8D4c8C1B8c4c8C1B8",
	"revocable": true,
	"refUID": "0x0000000000000000000000000000000000000000000000000000000000000000",
	"data": "0xcafe",
	"time": "1700000000",
	"expirationTime": "0",
	"revocationTime": %q,
	"schema": {"id": "0x1111111111111111111111111111111111111111111111111111111111111111"}
}`

// zeroUIDWireRecord is an index record carrying the all-zero identifier
// sentinel, which no read path may surface as a real record.
const zeroUIDWireRecord = `{
	"id": "0x0000000000000000000000000000000000000000000000000000000000000000",
	"attester": "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
	"recipient": "0x742d35Cc6634C0532925a3b8D4c8C1B8c4c8C1B8",
	"revocable": true,
	"refUID": "0x0000000000000000000000000000000000000000000000000000000000000000",
	"data": "0x",
	"time": "1700000000",
	"expirationTime": "0",
	"revocationTime": "0",
	"schema": {"id": "0x1111111111111111111111111111111111111111111111111111111111111111"}
}`

// newIndexServer starts a test index endpoint that captures the request
// body it receives and replies with a fixed body and status.
func newIndexServer(t *testing.T, status int, respBody string) (*httptest.Server, *graphQLRequest) {
	t.Helper()

	captured := &graphQLRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	return srv, captured
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New("", logger.Test(t))
	require.ErrorContains(t, err, "URL is required")

	c, err := New("http://localhost/graphql", logger.Test(t))
	require.NoError(t, err)
	assert.Equal(t, RequestTimeout, c.timeout)
}

func TestClient_Query(t *testing.T) {
	t.Parallel()

	t.Run("parses records and builds only the supplied filter clauses", func(t *testing.T) {
		t.Parallel()

		respBody := fmt.Sprintf(`{"data": {"attestations": [%s]}}`,
			fmt.Sprintf(wireRecordTemplate, "0"))
		srv, captured := newIndexServer(t, http.StatusOK, respBody)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.Query(context.Background(), Filter{
			Attester: pointer.To("0x8ba1f109551bD432803012645Ac136ddd64DBA72"),
			Limit:    25,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)

		att := got[0]
		assert.Equal(t, common.HexToHash("0xabad1dea00000000000000000000000000000000000000000000000000000002"), att.UID)
		assert.Equal(t, common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"), att.SchemaUID)
		assert.Equal(t, common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72"), att.Attester)
		assert.Equal(t, []byte{0xca, 0xfe}, att.Data)
		assert.Equal(t, int64(1700000000), att.Time)
		assert.Equal(t, int64(0), att.RevocationTime)

		// The where document must carry exactly the supplied filter.
		where, ok := captured.Variables["where"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, map[string]any{
			"attester": map[string]any{"equals": "0x8ba1f109551bD432803012645Ac136ddd64DBA72"},
		}, where)
		assert.Equal(t, float64(25), captured.Variables["take"])
	})

	t.Run("empty filter produces an empty where clause and the default limit", func(t *testing.T) {
		t.Parallel()

		srv, captured := newIndexServer(t, http.StatusOK, `{"data": {"attestations": []}}`)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.Query(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.Equal(t, map[string]any{}, captured.Variables["where"])
		assert.Equal(t, float64(DefaultLimit), captured.Variables["take"])
	})

	t.Run("oversized wire timestamp saturates instead of overflowing", func(t *testing.T) {
		t.Parallel()

		respBody := fmt.Sprintf(`{"data": {"attestations": [%s]}}`,
			fmt.Sprintf(wireRecordTemplate, "340282366920938463463374607431768211455"))
		srv, _ := newIndexServer(t, http.StatusOK, respBody)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.Query(context.Background(), Filter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(math.MaxInt64), got[0].RevocationTime)
	})

	t.Run("unparseable wire timestamp fails with DataIntegrityError", func(t *testing.T) {
		t.Parallel()

		// An empty string is as corrupt as garbage text: substituting zero
		// would report "not revoked" for a record the index failed to serve.
		for _, bad := range []string{"not-a-number", "", "-5"} {
			respBody := fmt.Sprintf(`{"data": {"attestations": [%s]}}`,
				fmt.Sprintf(wireRecordTemplate, bad))
			srv, _ := newIndexServer(t, http.StatusOK, respBody)

			c, err := New(srv.URL, logger.Test(t))
			require.NoError(t, err)

			_, err = c.Query(context.Background(), Filter{})

			var derr *DataIntegrityError
			require.ErrorAs(t, err, &derr, "value %q", bad)
			assert.Equal(t, "revocationTime", derr.Field)
			assert.Equal(t, bad, derr.Value)
		}
	})

	t.Run("zero-identifier records are dropped from the result set", func(t *testing.T) {
		t.Parallel()

		respBody := fmt.Sprintf(`{"data": {"attestations": [%s, %s]}}`,
			zeroUIDWireRecord, fmt.Sprintf(wireRecordTemplate, "0"))
		srv, _ := newIndexServer(t, http.StatusOK, respBody)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.Query(context.Background(), Filter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEqual(t, common.Hash{}, got[0].UID)
	})

	t.Run("service-level errors fail the query", func(t *testing.T) {
		t.Parallel()

		srv, _ := newIndexServer(t, http.StatusOK, `{"errors": [{"message": "rate limited"}]}`)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.Query(context.Background(), Filter{})

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, []string{"rate limited"}, qerr.Messages)
	})

	t.Run("non-200 status fails the query", func(t *testing.T) {
		t.Parallel()

		srv, _ := newIndexServer(t, http.StatusBadGateway, "upstream unavailable")

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.Query(context.Background(), Filter{})

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, http.StatusBadGateway, qerr.Status)
	})

	t.Run("missing payload container is an error, not an empty result", func(t *testing.T) {
		t.Parallel()

		srv, _ := newIndexServer(t, http.StatusOK, `{"data": {}}`)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.Query(context.Background(), Filter{})

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.ErrorContains(t, err, "missing attestations payload")
	})

	t.Run("elapsed deadline is classified as a timeout", func(t *testing.T) {
		t.Parallel()

		blocked := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-blocked
		}))
		t.Cleanup(func() {
			close(blocked)
			srv.Close()
		})

		c, err := New(srv.URL, logger.Test(t), WithRequestTimeout(50*time.Millisecond))
		require.NoError(t, err)

		_, err = c.Query(context.Background(), Filter{})
		require.ErrorIs(t, err, ErrTimeout)

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.True(t, qerr.Timeout())
	})
}

func TestClient_QueryOne(t *testing.T) {
	t.Parallel()

	uid := common.HexToHash("0xabad1dea00000000000000000000000000000000000000000000000000000002")

	t.Run("returns the matching record", func(t *testing.T) {
		t.Parallel()

		respBody := fmt.Sprintf(`{"data": {"attestations": [%s]}}`,
			fmt.Sprintf(wireRecordTemplate, "0"))
		srv, captured := newIndexServer(t, http.StatusOK, respBody)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.QueryOne(context.Background(), uid)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uid, got.UID)

		where, ok := captured.Variables["where"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"id": map[string]any{"equals": uid.Hex()}}, where)
		assert.Equal(t, float64(1), captured.Variables["take"])
	})

	t.Run("zero-identifier record is absence, not a real record", func(t *testing.T) {
		t.Parallel()

		respBody := fmt.Sprintf(`{"data": {"attestations": [%s]}}`, zeroUIDWireRecord)
		srv, _ := newIndexServer(t, http.StatusOK, respBody)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.QueryOne(context.Background(), uid)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("absence is (nil, nil)", func(t *testing.T) {
		t.Parallel()

		srv, _ := newIndexServer(t, http.StatusOK, `{"data": {"attestations": []}}`)

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		got, err := c.QueryOne(context.Background(), uid)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("query failure is never reported as absence", func(t *testing.T) {
		t.Parallel()

		srv, _ := newIndexServer(t, http.StatusInternalServerError, "boom")

		c, err := New(srv.URL, logger.Test(t))
		require.NoError(t, err)

		_, err = c.QueryOne(context.Background(), uid)

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
	})
}

func TestIsTimeout(t *testing.T) {
	t.Parallel()

	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.True(t, isTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, isTimeout(errors.New("connection refused")))
	assert.False(t, isTimeout(nil))
}
