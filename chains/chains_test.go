package chains

import (
	"encoding/json"
	"testing"
)

func TestLookup(t *testing.T) {
	d, ok := Lookup(56)
	if !ok {
		t.Fatal("expected BSC mainnet to be known")
	}
	if d.Name != "BSC Mainnet" || d.ShortName != "BSC" || d.ChainIDHex != "0x38" || d.NetworkID != 56 {
		t.Errorf("unexpected detail: %+v", d)
	}

	if _, ok := Lookup(1); ok {
		t.Error("chain 1 should not be in the table")
	}
}

func TestName(t *testing.T) {
	if name, ok := Name(56); !ok || name != "BSC Mainnet" {
		t.Errorf("Name(56) = %q, %v", name, ok)
	}
	if name, ok := Name(97); ok || name != "" {
		t.Errorf("Name(97) = %q, %v; want unknown", name, ok)
	}
}

func TestParseChainID(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    uint64
		wantErr bool
	}{
		{name: "hex string", input: "0x38", want: 56},
		{name: "upper hex prefix", input: "0X38", want: 56},
		{name: "decimal string", input: "56", want: 56},
		{name: "json float", input: float64(56), want: 56},
		{name: "json number", input: json.Number("97"), want: 97},
		{name: "int", input: 1, want: 1},
		{name: "uint64", input: uint64(137), want: 137},
		{name: "hex with leading zero", input: "0x01", want: 1},
		{name: "padded hex", input: "0x0038", want: 56},
		{name: "hex zero", input: "0x0", want: 0},
		{name: "empty hex", input: "0x", wantErr: true},
		{name: "float at uint64 overflow", input: float64(1 << 64), wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "garbage", input: "bsc", wantErr: true},
		{name: "bad hex", input: "0xzz", wantErr: true},
		{name: "fraction", input: 56.5, wantErr: true},
		{name: "negative", input: -1, wantErr: true},
		{name: "bool", input: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChainID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChainID(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseChainID(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
