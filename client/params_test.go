package client

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionsParams_OnlyFrom(t *testing.T) {
	v := TransactionsParams{From: time.Unix(1700000000, 0)}.Values()

	assert.Equal(t, "1700000000", v.Get("start"))
	assert.Equal(t, "100", v.Get("limit"))
	assert.Len(t, v, 2)
}

func TestTransactionsParams_RoundTrip(t *testing.T) {
	to := time.Unix(1700003600, 0)
	cursor := "abc-def"
	minValue := 1000000
	limit := 25
	currency := "usdt"

	tests := []struct {
		name   string
		params TransactionsParams
		want   map[string]string
	}{
		{
			name:   "from only",
			params: TransactionsParams{From: time.Unix(1700000000, 0)},
			want:   map[string]string{"start": "1700000000", "limit": "100"},
		},
		{
			name:   "cursor and currency",
			params: TransactionsParams{From: time.Unix(1700000000, 0), Cursor: &cursor, Currency: &currency},
			want: map[string]string{
				"start":    "1700000000",
				"limit":    "100",
				"cursor":   "abc-def",
				"currency": "usdt",
			},
		},
		{
			name: "everything",
			params: TransactionsParams{
				From:     time.Unix(1700000000, 0),
				To:       &to,
				Cursor:   &cursor,
				MinValue: &minValue,
				Limit:    &limit,
				Currency: &currency,
			},
			want: map[string]string{
				"start":     "1700000000",
				"end":       "1700003600",
				"cursor":    "abc-def",
				"min_value": "1000000",
				"limit":     "25",
				"currency":  "usdt",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.ParseQuery(tt.params.Values().Encode())
			require.NoError(t, err)

			got := make(map[string]string, len(parsed))
			for k, vs := range parsed {
				require.Len(t, vs, 1, "parameter %s repeated", k)
				got[k] = vs[0]
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestURL(t *testing.T) {
	cl := NewClient("", "secret", nil, nil)

	raw, err := cl.requestURL(TransactionEndpoint{Blockchain: Ethereum, Hash: "0xabc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.whale-alert.io/v1/transaction/ethereum/0xabc?api_key=secret", raw)

	raw, err = cl.requestURL(TransactionsEndpoint{}, url.Values{"cursor": {"a b"}})
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/v1/transactions", u.Path)
	assert.Equal(t, "secret", u.Query().Get("api_key"))
	assert.Equal(t, "a b", u.Query().Get("cursor"))
}

func TestEndpointPaths(t *testing.T) {
	assert.Equal(t, "/status", StatusEndpoint{}.Path())
	assert.Equal(t, "/transactions", TransactionsEndpoint{}.Path())
	assert.Equal(t, "/transaction/bitcoin/abc", TransactionEndpoint{Blockchain: Bitcoin, Hash: "abc"}.Path())
	assert.Equal(t, "/transaction/ripple/a%2Fb", TransactionEndpoint{Blockchain: Ripple, Hash: "a/b"}.Path())
}
