package types

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeTokenAddress is the conventional placeholder address for a chain's
// native coin, which has no contract representation.
var NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Token describes an asset on a specific chain. Amounts referring to a token
// are always expressed in its smallest indivisible unit.
type Token struct {
	ChainID  ChainID        `json:"chain_id"`
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
	Decimals uint8          `json:"decimals"`
}

// IsNative reports whether the token stands for the chain's native coin.
func (t Token) IsNative() bool {
	return t.Address == NativeTokenAddress || t.Address == (common.Address{})
}

// Equal reports whether two tokens refer to the same asset on the same chain.
func (t Token) Equal(other Token) bool {
	return t.ChainID == other.ChainID &&
		strings.EqualFold(t.Address.Hex(), other.Address.Hex())
}
