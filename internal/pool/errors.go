package pool

import (
	"errors"

	"github.com/velith/poolengine/internal/assets"
)

// Precondition errors: detected from pool state before any arithmetic.
var (
	ErrBootstrapRequired   = errors.New("pool bootstrap is required")
	ErrAlreadyBootstrapped = errors.New("pool is already bootstrapped")
	ErrNoLiquidity         = errors.New("pool has no liquidity")
	ErrAlreadyHasLiquidity = errors.New("pool already has liquidity")
)

// Input errors: detected at the call boundary.
var (
	ErrUnknownAsset      = errors.New("asset does not belong to the pool")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrInvalidSlippage   = errors.New("slippage must be in [0, 1)")
)

// Arithmetic errors: detected while evaluating a formula.
var (
	ErrZeroReserves          = errors.New("pool reserve is zero")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for requested output")
	ErrAmountOverflow        = errors.New("computed amount exceeds uint64 range")
	ErrInvalidFeeShare       = errors.New("total fee share must be below the fee denominator")
)

// ErrStaleSnapshot is reported when the snapshot source hands back a round
// older than the currently published snapshot.
var ErrStaleSnapshot = errors.New("snapshot round is older than the published snapshot")

// IsPrecondition reports whether err belongs to the precondition family.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrBootstrapRequired) ||
		errors.Is(err, ErrAlreadyBootstrapped) ||
		errors.Is(err, ErrNoLiquidity) ||
		errors.Is(err, ErrAlreadyHasLiquidity)
}

// IsInputError reports whether err was raised validating caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownAsset) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInvalidSlippage) ||
		errors.Is(err, assets.ErrAssetMismatch)
}

// IsArithmeticError reports whether err was raised inside a formula.
func IsArithmeticError(err error) bool {
	return errors.Is(err, ErrZeroReserves) ||
		errors.Is(err, ErrInsufficientLiquidity) ||
		errors.Is(err, ErrAmountOverflow) ||
		errors.Is(err, ErrInvalidFeeShare)
}
