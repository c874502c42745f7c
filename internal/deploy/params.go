package deploy

import (
	"fmt"
	"math/big"

	"github.com/spf13/cast"

	"github.com/LeJamon/goEscrow/internal/core/types"
)

const (
	// DefaultUnlockTime is Jan 1st 2030, 00:00 UTC.
	DefaultUnlockTime = uint64(1893456000)
)

// DefaultLockedAmount is one gwei.
var DefaultLockedAmount = types.Gwei(1)

// Params are the module parameters. They are recorded in the deployment but
// no contract consumes them.
type Params struct {
	UnlockTime   uint64
	LockedAmount *big.Int
}

// DefaultParams returns the module defaults.
func DefaultParams() Params {
	return Params{
		UnlockTime:   DefaultUnlockTime,
		LockedAmount: new(big.Int).Set(DefaultLockedAmount),
	}
}

// ParseParams overlays raw parameter values, as read from flags or a config
// file, on the defaults. Unknown keys are rejected.
func ParseParams(raw map[string]interface{}) (Params, error) {
	p := DefaultParams()
	for key, value := range raw {
		switch key {
		case "unlockTime", "unlock_time":
			t, err := cast.ToUint64E(value)
			if err != nil {
				return p, fmt.Errorf("parameter %s: %w", key, err)
			}
			p.UnlockTime = t
		case "lockedAmount", "locked_amount":
			s, err := cast.ToStringE(value)
			if err != nil {
				return p, fmt.Errorf("parameter %s: %w", key, err)
			}
			amount, ok := new(big.Int).SetString(s, 10)
			if !ok || amount.Sign() < 0 {
				return p, fmt.Errorf("parameter %s: invalid wei amount %q", key, s)
			}
			p.LockedAmount = amount
		default:
			return p, fmt.Errorf("%w: %s", ErrUnknownParameter, key)
		}
	}
	return p, nil
}
