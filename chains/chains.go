// Package chains holds the networks the exchange front end knows by name.
package chains

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type Detail struct {
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	ChainIDHex string `json:"chain_id_hex"`
	NetworkID  uint64 `json:"network_id"`
}

var details = map[uint64]Detail{
	56: {
		Name:       "BSC Mainnet",
		ShortName:  "BSC",
		ChainIDHex: "0x38",
		NetworkID:  56,
	},
}

func Lookup(chainID uint64) (Detail, bool) {
	d, ok := details[chainID]
	return d, ok
}

func Name(chainID uint64) (string, bool) {
	d, ok := details[chainID]
	if !ok {
		return "", false
	}
	return d.Name, true
}

// ParseChainID decodes a chain id as reported by a wallet: a 0x-prefixed hex
// string (leading zeros allowed), a decimal string, or a JSON number.
func ParseChainID(v any) (uint64, error) {
	switch id := v.(type) {
	case nil:
		return 0, fmt.Errorf("chain id is missing")
	case string:
		s := strings.TrimSpace(id)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			digits := strings.TrimLeft(s[2:], "0")
			if digits == "" && s[2:] != "" {
				digits = "0"
			}
			n, err := hexutil.DecodeUint64("0x" + digits)
			if err != nil {
				return 0, fmt.Errorf("invalid hex chain id '%s': %w", id, err)
			}
			return n, nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid chain id '%s': %w", id, err)
		}
		return n, nil
	case json.Number:
		return ParseChainID(string(id))
	case float64:
		if id < 0 || id != math.Trunc(id) || id >= math.MaxUint64 {
			return 0, fmt.Errorf("invalid chain id %v", id)
		}
		return uint64(id), nil
	case int:
		if id < 0 {
			return 0, fmt.Errorf("invalid chain id %d", id)
		}
		return uint64(id), nil
	case int64:
		if id < 0 {
			return 0, fmt.Errorf("invalid chain id %d", id)
		}
		return uint64(id), nil
	case uint64:
		return id, nil
	case hexutil.Uint64:
		return uint64(id), nil
	default:
		return 0, fmt.Errorf("unsupported chain id type %T", v)
	}
}
