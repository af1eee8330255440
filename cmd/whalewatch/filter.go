package main

import (
	"encoding/json"
	"fmt"

	"github.com/brojonat/whalewatch/client"
	"github.com/itchyny/gojq"
)

// eventFilter is a set of compiled jq expressions that must all be truthy.
type eventFilter []*gojq.Code

// compileFilters parses and compiles each jq expression.
func compileFilters(exprs []string) (eventFilter, error) {
	codes := make([]*gojq.Code, 0, len(exprs))
	for _, expr := range exprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// matchesFilters reports whether every filter yields a truthy first result
// for v. A filter that errors or yields nothing does not match.
func matchesFilters(codes []*gojq.Code, v interface{}) bool {
	for _, code := range codes {
		iter := code.Run(v)
		result, ok := iter.Next()
		if !ok {
			return false
		}
		if _, isErr := result.(error); isErr {
			return false
		}
		if !isTruthy(result) {
			return false
		}
	}
	return true
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// toJQValue converts v into the generic form gojq operates on.
func toJQValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// match runs the filters against v's JSON form. An empty filter matches
// everything.
func (f eventFilter) match(v interface{}) (bool, error) {
	if len(f) == 0 {
		return true, nil
	}
	jv, err := toJQValue(v)
	if err != nil {
		return false, fmt.Errorf("failed to prepare value for jq: %w", err)
	}
	return matchesFilters(f, jv), nil
}

func filterTransactions(txns []client.Transaction, f eventFilter) ([]client.Transaction, error) {
	if len(f) == 0 {
		return txns, nil
	}

	matched := make([]client.Transaction, 0, len(txns))
	for i := range txns {
		ok, err := f.match(txns[i])
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txns[i].Hash, err)
		}
		if ok {
			matched = append(matched, txns[i])
		}
	}
	return matched, nil
}
