package assets

import (
	"errors"
	"fmt"
)

// ErrAssetMismatch is returned when arithmetic is attempted between amounts
// of two different assets.
var ErrAssetMismatch = errors.New("asset mismatch")

// MismatchError carries the two assets involved in a rejected operation.
type MismatchError struct {
	Left  Asset
	Right Asset
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("asset mismatch: %s (id=%d) vs %s (id=%d)",
		e.Left.UnitName, e.Left.ID, e.Right.UnitName, e.Right.ID)
}

func (e *MismatchError) Unwrap() error { return ErrAssetMismatch }

// Asset identifies a ledger asset. Two assets are equal iff their ids are
// equal; the display metadata plays no part in comparisons.
type Asset struct {
	ID       uint64
	Name     string
	UnitName string
	Decimals uint32
}

func (a Asset) Equal(other Asset) bool { return a.ID == other.ID }

func (a Asset) String() string {
	if a.UnitName != "" {
		return fmt.Sprintf("%s(%d)", a.UnitName, a.ID)
	}
	return fmt.Sprintf("asset(%d)", a.ID)
}

// AssetAmount is an integer amount tagged with its asset. All arithmetic
// requires both operands to carry the same asset.
type AssetAmount struct {
	Asset  Asset
	Amount uint64
}

func NewAssetAmount(asset Asset, amount uint64) AssetAmount {
	return AssetAmount{Asset: asset, Amount: amount}
}

func (aa AssetAmount) String() string {
	return fmt.Sprintf("%d %s", aa.Amount, aa.Asset)
}

// Add returns aa + other, failing on mismatched assets or uint64 overflow.
func (aa AssetAmount) Add(other AssetAmount) (AssetAmount, error) {
	if !aa.Asset.Equal(other.Asset) {
		return AssetAmount{}, &MismatchError{Left: aa.Asset, Right: other.Asset}
	}
	sum := aa.Amount + other.Amount
	if sum < aa.Amount {
		return AssetAmount{}, fmt.Errorf("amount overflow adding %d and %d", aa.Amount, other.Amount)
	}
	return AssetAmount{Asset: aa.Asset, Amount: sum}, nil
}

// Sub returns aa - other, failing on mismatched assets or underflow.
func (aa AssetAmount) Sub(other AssetAmount) (AssetAmount, error) {
	if !aa.Asset.Equal(other.Asset) {
		return AssetAmount{}, &MismatchError{Left: aa.Asset, Right: other.Asset}
	}
	if other.Amount > aa.Amount {
		return AssetAmount{}, fmt.Errorf("amount underflow subtracting %d from %d", other.Amount, aa.Amount)
	}
	return AssetAmount{Asset: aa.Asset, Amount: aa.Amount - other.Amount}, nil
}

// Cmp compares two amounts of the same asset: -1 if aa < other, 0 if equal,
// +1 if aa > other.
func (aa AssetAmount) Cmp(other AssetAmount) (int, error) {
	if !aa.Asset.Equal(other.Asset) {
		return 0, &MismatchError{Left: aa.Asset, Right: other.Asset}
	}
	switch {
	case aa.Amount < other.Amount:
		return -1, nil
	case aa.Amount > other.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}
