package validation

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"swapdesk/internal/models"
)

var evmTxHashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// IsAddress reports whether addr is well formed for the VM family.
func IsAddress(addr, vm string) bool {
	if addr == "" || len(addr) > MaxTokenLength {
		return false
	}
	switch vm {
	case models.VMEVM:
		return common.IsHexAddress(addr) && strings.HasPrefix(addr, "0x")
	case models.VMSVM:
		_, err := solana.PublicKeyFromBase58(addr)
		return err == nil
	}
	return false
}

// IsTxHash reports whether hash is a well formed transaction identifier.
func IsTxHash(hash, vm string) bool {
	switch vm {
	case models.VMEVM:
		return evmTxHashRegex.MatchString(hash)
	case models.VMSVM:
		_, err := solana.SignatureFromBase58(hash)
		return err == nil
	}
	return false
}

// ParseBaseUnits parses a non-negative base-10 integer that fits in 256 bits.
func ParseBaseUnits(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.BitLen() > MaxAmountBits {
		return nil, false
	}
	return n, true
}

// Address validates an address field for the VM family.
func (v *Validator) Address(field, addr, vm string) {
	if strings.TrimSpace(addr) == "" {
		v.AddError(field, "must not be empty")
		return
	}
	v.Check(IsAddress(addr, vm), field, "must be a valid "+vm+" address")
}

// Amount validates a positive base-unit integer string.
func (v *Validator) Amount(field, value string) {
	n, ok := ParseBaseUnits(value)
	v.Check(ok && n.Sign() > 0, field, "must be a positive integer in base units")
}

// Bps validates a basis-point value.
func (v *Validator) Bps(field string, bps int) {
	v.Range(field, bps, 0, MaxBps)
}
