package provider

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestUnwrap(t *testing.T) {
	accounts := []any{"0xabc"}

	tests := []struct {
		name string
		raw  any
		want any
	}{
		{name: "bare list", raw: accounts, want: accounts},
		{name: "map envelope", raw: map[string]any{"result": accounts}, want: accounts},
		{name: "struct envelope", raw: Envelope{Result: accounts}, want: accounts},
		{name: "pointer envelope", raw: &Envelope{Result: "0x38"}, want: "0x38"},
		{name: "bare string", raw: "0x38", want: "0x38"},
		{name: "envelope with nil result", raw: map[string]any{"result": nil}, want: nil},
		{name: "envelope with empty result", raw: map[string]any{"result": ""}, want: ""},
		{name: "map without result key", raw: map[string]any{"id": 1}, want: map[string]any{"id": 1}},
		{name: "nil", raw: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unwrap(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unwrap(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFirstAccount(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{name: "string slice", input: []string{"0xabc", "0xdef"}, want: "0xabc", wantOK: true},
		{name: "any slice", input: []any{"0xabc"}, want: "0xabc", wantOK: true},
		{name: "empty slice", input: []any{}},
		{name: "empty first entry", input: []string{""}},
		{name: "non-string entry", input: []any{42}},
		{name: "not a list", input: "0xabc"},
		{name: "nil", input: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstAccount(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FirstAccount(%v) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAccounts(t *testing.T) {
	got := Accounts([]any{"0xabc", 7, "0xdef"})
	want := []string{"0xabc", "0xdef"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Accounts() = %v, want %v", got, want)
	}

	if got := Accounts("0xabc"); got != nil {
		t.Errorf("Accounts(string) = %v, want nil", got)
	}
}

func TestHasValue(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{nil, false},
		{"", false},
		{"0x38", true},
		{0, false},
		{56, true},
		{float64(0), false},
		{float64(56), true},
		{uint64(0), false},
		{false, false},
		{json.Number("0"), false},
		{json.Number("56"), true},
		{[]any{}, true},
	}

	for _, tt := range tests {
		if got := HasValue(tt.input); got != tt.want {
			t.Errorf("HasValue(%#v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsUserRejected(t *testing.T) {
	if !IsUserRejected(NewRPCError(CodeUserRejected, "User denied")) {
		t.Error("4001 should be a user rejection")
	}
	if IsUserRejected(NewRPCError(-32603, "internal error")) {
		t.Error("-32603 should not be a user rejection")
	}
	if IsUserRejected(nil) {
		t.Error("nil should not be a user rejection")
	}
}
