package pool

import (
	"fmt"

	"github.com/velith/poolengine/internal/assets"
)

// State is the lifecycle position a snapshot implies. Transitions happen only
// on the ledger; the engine observes them through refreshed snapshots.
type State int

const (
	// Unbootstrapped: the pool's on-chain state does not exist yet.
	Unbootstrapped State = iota
	// BootstrappedEmpty: the pool exists but no liquidity has been added.
	BootstrappedEmpty
	// Active: the pool exists and has issued pool tokens.
	Active
)

func (s State) String() string {
	switch s {
	case Unbootstrapped:
		return "unbootstrapped"
	case BootstrappedEmpty:
		return "bootstrapped-empty"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PoolState is the decoded structure a snapshot source returns for one pool
// at one ledger round. Field meanings mirror the on-chain application state.
type PoolState struct {
	Asset1ID         uint64 `json:"asset_1_id"`
	Asset2ID         uint64 `json:"asset_2_id"`
	PoolTokenAssetID uint64 `json:"pool_token_asset_id"`
	Asset1Reserves   uint64 `json:"asset_1_reserves"`
	Asset2Reserves   uint64 `json:"asset_2_reserves"`
	IssuedPoolTokens uint64 `json:"issued_pool_tokens"`
	TotalFeeShare    uint64 `json:"total_fee_share"`
	ProtocolFeeRatio uint64 `json:"protocol_fee_ratio"`
	Round            uint64 `json:"round"`
}

// Snapshot is an immutable view of the pool at one round. A refresh replaces
// the whole value; nothing ever patches an existing snapshot. Asset1 and
// Asset2 are canonically ordered with Asset1.ID > Asset2.ID.
type Snapshot struct {
	Asset1           assets.Asset
	Asset2           assets.Asset
	PoolTokenAsset   assets.Asset
	Asset1Reserves   uint64
	Asset2Reserves   uint64
	IssuedPoolTokens uint64
	TotalFeeShare    uint64
	ProtocolFeeRatio uint64
	Exists           bool
	Round            uint64
}

// State derives the lifecycle state this snapshot represents.
func (s *Snapshot) State() State {
	switch {
	case !s.Exists:
		return Unbootstrapped
	case s.IssuedPoolTokens == 0:
		return BootstrappedEmpty
	default:
		return Active
	}
}

// ContainsAsset reports whether a is one of the pool's two sides.
func (s *Snapshot) ContainsAsset(a assets.Asset) bool {
	return a.Equal(s.Asset1) || a.Equal(s.Asset2)
}

// OppositeAsset returns the other side of the pair.
func (s *Snapshot) OppositeAsset(a assets.Asset) (assets.Asset, error) {
	switch {
	case a.Equal(s.Asset1):
		return s.Asset2, nil
	case a.Equal(s.Asset2):
		return s.Asset1, nil
	default:
		return assets.Asset{}, fmt.Errorf("%s: %w", a, ErrUnknownAsset)
	}
}

// Asset1Price is the spot price of asset 1 denominated in asset 2.
// Display-grade only; settlement amounts never pass through it.
func (s *Snapshot) Asset1Price() (float64, error) {
	if s.IssuedPoolTokens == 0 {
		return 0, ErrNoLiquidity
	}
	return float64(s.Asset2Reserves) / float64(s.Asset1Reserves), nil
}

// Asset2Price is the spot price of asset 2 denominated in asset 1.
func (s *Snapshot) Asset2Price() (float64, error) {
	if s.IssuedPoolTokens == 0 {
		return 0, ErrNoLiquidity
	}
	return float64(s.Asset1Reserves) / float64(s.Asset2Reserves), nil
}

// Convert values an amount of one pool asset in the other at spot price.
// Display-grade only.
func (s *Snapshot) Convert(amount assets.AssetAmount) (assets.AssetAmount, error) {
	if s.IssuedPoolTokens == 0 {
		return assets.AssetAmount{}, ErrNoLiquidity
	}
	switch {
	case amount.Asset.Equal(s.Asset1):
		price, _ := s.Asset1Price()
		return assets.NewAssetAmount(s.Asset2, uint64(float64(amount.Amount)*price)), nil
	case amount.Asset.Equal(s.Asset2):
		price, _ := s.Asset2Price()
		return assets.NewAssetAmount(s.Asset1, uint64(float64(amount.Amount)*price)), nil
	default:
		return assets.AssetAmount{}, fmt.Errorf("%s: %w", amount.Asset, ErrUnknownAsset)
	}
}
