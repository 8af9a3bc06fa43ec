package provider

import (
	"encoding/json"
)

// Envelope is a result wrapped as {result: value}.
type Envelope struct {
	Result any `json:"result"`
}

// Unwrap returns the value carried by an enveloped result, or raw itself when
// it is a bare value. A map counts as an envelope when the "result" key is
// present, whatever its value.
func Unwrap(raw any) any {
	switch r := raw.(type) {
	case Envelope:
		return r.Result
	case *Envelope:
		if r == nil {
			return nil
		}
		return r.Result
	case map[string]any:
		if v, ok := r["result"]; ok {
			return v
		}
	}
	return raw
}

// FirstAccount returns the first entry of an account list.
func FirstAccount(v any) (string, bool) {
	switch accounts := v.(type) {
	case []string:
		if len(accounts) > 0 && accounts[0] != "" {
			return accounts[0], true
		}
	case []any:
		if len(accounts) > 0 {
			if account, ok := accounts[0].(string); ok && account != "" {
				return account, true
			}
		}
	}
	return "", false
}

// Accounts normalizes an account list to []string, dropping non-string
// entries.
func Accounts(v any) []string {
	switch accounts := v.(type) {
	case []string:
		return accounts
	case []any:
		out := make([]string, 0, len(accounts))
		for _, a := range accounts {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// HasValue reports whether v counts as a value for fallback purposes: nil,
// empty strings, false and numeric zero do not.
func HasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint32:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		return t != "" && t != "0"
	}
	return true
}
