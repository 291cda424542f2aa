package allowance

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// ERC-20 allowance and approve function ABI
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var (
	parsedERC20 = mustParseABI(erc20ABI)

	// ApproveSelector is the first four bytes of keccak256("approve(address,uint256)").
	ApproveSelector = Selector("approve(address,uint256)")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Selector returns the 4-byte function selector for a canonical signature.
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// MaxUint256 returns 2^256 - 1. The result is a fresh copy.
func MaxUint256() *big.Int {
	return new(big.Int).Set(maxUint256)
}

// ApproveCallData encodes approve(spender, amount): selector, then spender and
// amount each left-padded to 32 bytes.
func ApproveCallData(spender common.Address, amount *big.Int) string {
	data := make([]byte, 0, 4+32+32)
	data = append(data, ApproveSelector...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return hexutil.Encode(data)
}
