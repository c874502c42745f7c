package testing

import (
	"math/big"

	"github.com/LeJamon/goEscrow/internal/core/types"
)

// Ether converts whole ether to wei.
// For example, Ether(10) returns 10,000,000,000,000,000,000 wei.
func Ether(n int64) *big.Int {
	return types.Ether(n)
}

// Gwei converts gwei to wei.
func Gwei(n int64) *big.Int {
	return types.Gwei(n)
}

// Wei returns n wei.
// This is a convenience function for clarity when specifying amounts in wei.
func Wei(n int64) *big.Int {
	return big.NewInt(n)
}

// Sum adds amounts without modifying them.
func Sum(amounts ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a)
	}
	return total
}

// Diff returns a - b.
func Diff(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}

// TokenID returns a token id.
func TokenID(n int64) *big.Int {
	return big.NewInt(n)
}
