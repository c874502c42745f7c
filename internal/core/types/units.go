package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var (
	// ErrInvalidAmount is returned when a decimal amount cannot be converted to wei.
	ErrInvalidAmount = errors.New("invalid amount")

	etherUnit = new(big.Int).SetUint64(params.Ether)
	gweiUnit  = new(big.Int).SetUint64(params.GWei)
)

// Ether returns n ether expressed in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), etherUnit)
}

// Gwei returns n gwei expressed in wei.
func Gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), gweiUnit)
}

// Tokens parses a decimal ether amount ("10", "0.5") into wei.
// More than 18 fractional digits is an error, as is a negative amount.
func Tokens(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, amount)
	}
	r.Mul(r, new(big.Rat).SetInt(etherUnit))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %q has more than 18 decimals", ErrInvalidAmount, amount)
	}
	return new(big.Int).Set(r.Num()), nil
}

// MustTokens is Tokens for literals known to be valid.
func MustTokens(amount string) *big.Int {
	v, err := Tokens(amount)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatEther renders a wei amount as a decimal ether string without
// trailing zeros ("10", "0.5").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(wei, etherUnit).FloatString(18)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
