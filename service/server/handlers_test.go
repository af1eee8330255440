package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brojonat/whalewatch/client"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcHash = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

type fakeWhaleAlert struct {
	status  *client.Status
	txns    []client.Transaction
	err     error
	gotHash string
	gotBC   client.Blockchain
}

func (f *fakeWhaleAlert) GetStatus(ctx context.Context) (*client.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func (f *fakeWhaleAlert) GetTransaction(ctx context.Context, hash string, blockchain client.Blockchain) ([]client.Transaction, error) {
	f.gotHash = hash
	f.gotBC = blockchain
	if f.err != nil {
		return nil, f.err
	}
	return f.txns, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp["error"]
}

func TestHandleGetStatus(t *testing.T) {
	api := &fakeWhaleAlert{status: &client.Status{
		Result:          "success",
		BlockchainCount: 1,
		Blockchains: []client.BlockchainStatus{
			{Name: "bitcoin", Symbols: []string{"btc"}, Status: "connected"},
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	handleGetStatus(api, testLogger()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got client.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 1, got.BlockchainCount)
	require.Len(t, got.Blockchains, 1)
	assert.Equal(t, "connected", got.Blockchains[0].Status)
}

func TestHandleGetStatus_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"rate limited", &client.Error{Kind: client.KindTooManyRequests}, http.StatusTooManyRequests},
		{"unavailable", &client.Error{Kind: client.KindServiceUnavailable}, http.StatusServiceUnavailable},
		{"bad key", &client.Error{Kind: client.KindUnauthorized}, http.StatusBadGateway},
		{"missing key", &client.Error{Kind: client.KindMissingAPIKey}, http.StatusBadGateway},
		{"other", client.OtherError("Result: error | Message: nope."), http.StatusBadGateway},
		{"not a client error", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			w := httptest.NewRecorder()
			handleGetStatus(&fakeWhaleAlert{err: tt.err}, testLogger()).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.err.Error(), decodeError(t, w.Body))
		})
	}
}

func TestHandleGetTransaction(t *testing.T) {
	api := &fakeWhaleAlert{txns: []client.Transaction{{
		Blockchain: client.Bitcoin,
		Symbol:     "btc",
		Hash:       btcHash,
		Amount:     decimal.RequireFromString("1200.5"),
		AmountUSD:  decimal.RequireFromString("80000000"),
	}}}

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/transactions/{blockchain}/{hash}", handleGetTransaction(api, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/Bitcoin/"+btcHash, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, client.Bitcoin, api.gotBC)
	assert.Equal(t, btcHash, api.gotHash)

	var resp struct {
		Transactions []client.Transaction `json:"transactions"`
		Count        int                  `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.Transactions[0].Amount.Equal(decimal.RequireFromString("1200.5")))
}

func TestHandleGetTransaction_Validation(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCode int
		errContains  string
	}{
		{
			name:         "bitcoin hash too short",
			path:         "/api/v1/transactions/bitcoin/abc",
			expectedCode: http.StatusBadRequest,
			errContains:  "invalid transaction hash",
		},
		{
			name:         "ethereum hash not hex",
			path:         "/api/v1/transactions/ethereum/0x" + strings.Repeat("z", 64),
			expectedCode: http.StatusBadRequest,
			errContains:  "invalid transaction hash",
		},
		{
			name:         "extremely long hash",
			path:         "/api/v1/transactions/eos/" + strings.Repeat("a", 1000),
			expectedCode: http.StatusBadRequest,
			errContains:  "hash too long",
		},
		{
			name:         "unknown chain passes through",
			path:         "/api/v1/transactions/eos/whatever",
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeWhaleAlert{}
			mux := http.NewServeMux()
			mux.Handle("GET /api/v1/transactions/{blockchain}/{hash}", handleGetTransaction(api, testLogger()))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.errContains != "" {
				assert.Contains(t, decodeError(t, w.Body), tt.errContains)
				assert.Empty(t, api.gotHash, "no upstream call for invalid input")
			}
		})
	}
}

func TestHandleGetTransaction_NotFound(t *testing.T) {
	api := &fakeWhaleAlert{err: &client.Error{Kind: client.KindNotFound}}
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/transactions/{blockchain}/{hash}", handleGetTransaction(api, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/bitcoin/"+btcHash, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "whale alert: not found", decodeError(t, w.Body))
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(client.ErrBadRequest))
	assert.Equal(t, http.StatusNotFound, statusForError(client.ErrNotFound))
	assert.Equal(t, http.StatusBadGateway, statusForError(client.ErrServerError))
	assert.Equal(t, http.StatusBadGateway, statusForError(client.ErrMissingResponse))
}
