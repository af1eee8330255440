package client

import (
	"net/url"
	"strconv"
	"time"
)

// DefaultLimit is the page size sent when TransactionsParams.Limit is nil.
const DefaultLimit = 100

// TransactionsParams filters GET /transactions. From is required; nil fields
// are left out of the query string entirely.
type TransactionsParams struct {
	From     time.Time
	To       *time.Time
	Cursor   *string
	MinValue *int // minimum USD value
	Limit    *int
	Currency *string
}

// Values encodes the parameters as query items. The api_key item is added by
// the client, not here.
func (p TransactionsParams) Values() url.Values {
	v := url.Values{}
	v.Set("start", strconv.FormatInt(p.From.Unix(), 10))
	if p.To != nil {
		v.Set("end", strconv.FormatInt(p.To.Unix(), 10))
	}
	if p.Cursor != nil {
		v.Set("cursor", *p.Cursor)
	}
	if p.MinValue != nil {
		v.Set("min_value", strconv.Itoa(*p.MinValue))
	}
	limit := DefaultLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	v.Set("limit", strconv.Itoa(limit))
	if p.Currency != nil {
		v.Set("currency", *p.Currency)
	}
	return v
}
