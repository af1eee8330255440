package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const btcHash = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

type fakeAPI struct {
	server *httptest.Server
	hits   int32
	query  atomic.Value // url.Values of the last request
	path   atomic.Value
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		f.query.Store(r.URL.Query())
		f.path.Store(r.URL.Path)
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) lastQuery() url.Values {
	q, _ := f.query.Load().(url.Values)
	return q
}

// runCLI runs the full app against the fake API and returns stdout.
func runCLI(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	base := []string{"whalewatch", "--api-key", "test-key"}
	if api != nil {
		base = append(base, "--base-url", api.server.URL+"/v1")
	}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func writeTestJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func testTransaction(symbol string, usd float64) map[string]interface{} {
	return map[string]interface{}{
		"blockchain":       "bitcoin",
		"symbol":           symbol,
		"id":               "1",
		"transaction_type": "transfer",
		"hash":             btcHash,
		"from":             map[string]interface{}{"address": "1From", "owner": "binance", "owner_type": "exchange"},
		"to":               map[string]interface{}{"address": "1To", "owner_type": "unknown"},
		"timestamp":        1700000000,
		"amount":           150,
		"amount_usd":       usd,
	}
}

func TestStatusCommand(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{
			"result":           "success",
			"blockchain_count": 2,
			"blockchains": []map[string]interface{}{
				{"name": "bitcoin", "symbols": []string{"btc"}, "status": "connected"},
				{"name": "ethereum", "symbols": []string{"eth", "usdt"}, "status": "disconnected"},
			},
		})
	})

	out, err := runCLI(t, api, "status")
	require.NoError(t, err)
	assert.Equal(t, "/v1/status", api.path.Load())
	assert.Equal(t, "test-key", api.lastQuery().Get("api_key"))
	assert.Contains(t, out, "Tracking 2 blockchains")
	assert.Contains(t, out, "eth, usdt")
	assert.Contains(t, out, "disconnected")
}

func TestStatusCommand_JSON(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{"result": "success", "blockchain_count": 0, "blockchains": []interface{}{}})
	})

	out, err := runCLI(t, api, "--json", "status")
	require.NoError(t, err)

	var status client.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "success", status.Result)
}

func TestStatusCommand_APIError(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := runCLI(t, api, "status")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestStatusCommand_MissingAPIKey(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run([]string{"whalewatch", "--api-key", "", "--base-url", api.server.URL, "status"})

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrMissingAPIKey)
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.hits))
}

func TestTxGetCommand(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, []interface{}{testTransaction("btc", 12345678.9)})
	})

	out, err := runCLI(t, api, "tx", "get", "Bitcoin", btcHash)
	require.NoError(t, err)
	assert.Equal(t, "/v1/transaction/bitcoin/"+btcHash, api.path.Load())
	assert.Contains(t, out, "BTC 150")
	assert.Contains(t, out, "$12,345,679")
	assert.Contains(t, out, "binance (1From)")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
}

func TestTxGetCommand_InvalidHash(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := runCLI(t, api, "tx", "get", "bitcoin", "not-a-hash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transaction hash")
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.hits))

	_, err = runCLI(t, api, "tx", "get", "bitcoin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blockchain and hash are required")
}

func TestTxListCommand_Params(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{
			"result":       "success",
			"cursor":       "next-page",
			"count":        1,
			"transactions": []interface{}{testTransaction("btc", 600000)},
		})
	})

	out, err := runCLI(t, api, "tx", "list",
		"--start", "1700000000",
		"--end", "2023-11-14T23:00:00Z",
		"--cursor", "abc",
		"--min-value", "500000",
		"--limit", "10",
		"--currency", "BTC",
	)
	require.NoError(t, err)

	q := api.lastQuery()
	assert.Equal(t, "/v1/transactions", api.path.Load())
	assert.Equal(t, "1700000000", q.Get("start"))
	assert.Equal(t, "1700002800", q.Get("end"))
	assert.Equal(t, "abc", q.Get("cursor"))
	assert.Equal(t, "500000", q.Get("min_value"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "btc", q.Get("currency"))

	assert.Contains(t, out, "1 of 1 transactions shown")
	assert.Contains(t, out, "Next cursor: next-page")
}

func TestTxListCommand_Defaults(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{"result": "success", "transactions": []interface{}{}})
	})

	before := time.Now().Add(-time.Hour).Unix()
	_, err := runCLI(t, api, "tx", "list")
	require.NoError(t, err)

	q := api.lastQuery()
	assert.Equal(t, "100", q.Get("limit"))
	assert.False(t, q.Has("min_value"))
	assert.False(t, q.Has("cursor"))
	assert.False(t, q.Has("end"))

	var start int64
	require.NoError(t, json.Unmarshal([]byte(q.Get("start")), &start))
	assert.InDelta(t, before, start, 5)
}

func TestTxListCommand_All(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{
			"result":       "success",
			"cursor":       "next-page",
			"transactions": []interface{}{testTransaction("btc", 600000)},
		})
	})

	out, err := runCLI(t, api, "tx", "list", "--all", "--cursor", "abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", api.lastQuery().Get("cursor"))
	assert.Contains(t, out, "1 of 1 transactions shown")
	assert.NotContains(t, out, "Next cursor")
}

func TestTxListCommand_JQFilter(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, map[string]interface{}{
			"result": "success",
			"transactions": []interface{}{
				testTransaction("usdt", 20000000),
				testTransaction("btc", 900000),
				testTransaction("usdt", 700000),
			},
		})
	})

	out, err := runCLI(t, api, "--json", "tx", "list",
		"--jq", `.symbol == "usdt"`,
		"--jq", `.amount_usd | tonumber > 1000000`,
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var txn client.Transaction
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &txn))
	assert.Equal(t, "usdt", txn.Symbol)
}

func TestTxListCommand_BadInput(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"bad start", []string{"--start", "yesterday"}, "invalid --start"},
		{"bad end", []string{"--end", "soon"}, "invalid --end"},
		{"bad limit", []string{"--limit", "0"}, "--limit must be at least 1"},
		{"bad jq", []string{"--jq", ".symbol =="}, "failed to parse jq filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, api, append([]string{"tx", "list"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.hits))
}

func TestParseTimeArg(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-01-01T00:00:00Z", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{in: "1700000000", want: time.Unix(1700000000, 0)},
		{in: "90m", want: now.Add(-90 * time.Minute)},
		{in: "", wantErr: true},
		{in: "last week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeArg(tt.in, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}
