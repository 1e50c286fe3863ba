package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/velith/poolengine/internal/assets"
)

// Pool orchestrates one pool pair: it refreshes snapshots from the source,
// enforces state preconditions, and builds quotes. The published snapshot is
// swapped atomically, so concurrent readers either see the old value or the
// new one, never a mix.
type Pool struct {
	asset1   assets.Asset
	asset2   assets.Asset
	key      PoolKey
	source   SnapshotSource
	registry assets.Registry
	logger   *zap.Logger

	snap    atomic.Pointer[Snapshot]
	refresh singleflight.Group
}

// New builds a controller for the pair (assetA, assetB) under the given
// application id. The pair is put into canonical order (higher id first)
// once, here; everything downstream relies on it.
func New(source SnapshotSource, registry assets.Registry, logger *zap.Logger, assetA, assetB assets.Asset, appID uint64) (*Pool, error) {
	if source == nil {
		return nil, errors.New("snapshot source is required")
	}
	if assetA.Equal(assetB) {
		return nil, fmt.Errorf("pool assets must differ, got %s twice", assetA)
	}
	if registry == nil {
		registry = &assets.FallbackRegistry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	asset1, asset2 := assetA, assetB
	if asset2.ID > asset1.ID {
		asset1, asset2 = asset2, asset1
	}

	return &Pool{
		asset1:   asset1,
		asset2:   asset2,
		key:      PoolKey{Asset1ID: asset1.ID, Asset2ID: asset2.ID, AppID: appID},
		source:   source,
		registry: registry,
		logger:   logger.Named("pool"),
	}, nil
}

// Assets returns the pool pair in canonical order.
func (p *Pool) Assets() (assets.Asset, assets.Asset) { return p.asset1, p.asset2 }

// Key identifies the pool to its snapshot source.
func (p *Pool) Key() PoolKey { return p.key }

// Current returns the latest published snapshot, or nil before the first
// refresh. The returned value is immutable.
func (p *Pool) Current() *Snapshot { return p.snap.Load() }

// State reports the lifecycle state implied by the latest snapshot.
func (p *Pool) State() State {
	if s := p.snap.Load(); s != nil {
		return s.State()
	}
	return Unbootstrapped
}

// Refresh fetches the pool state and publishes a fresh snapshot. Concurrent
// calls are collapsed into a single upstream fetch. A result older than the
// published round is rejected.
func (p *Pool) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := p.refresh.Do("refresh", func() (interface{}, error) {
		return p.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (p *Pool) doRefresh(ctx context.Context) (*Snapshot, error) {
	state, err := p.source.FetchPoolState(ctx, p.key)
	if err != nil {
		if errors.Is(err, ErrPoolNotFound) {
			snap := &Snapshot{Asset1: p.asset1, Asset2: p.asset2}
			if cur := p.snap.Load(); cur != nil && cur.Exists {
				// A pool never becomes unbootstrapped again; keep what we have.
				p.logger.Warn("Source reports missing state for an existing pool",
					zap.String("pool", p.key.String()))
				return cur, nil
			}
			p.snap.Store(snap)
			return snap, nil
		}
		return nil, fmt.Errorf("refresh %s: %w", p.key, err)
	}

	poolToken, err := p.registry.FetchAsset(ctx, state.PoolTokenAssetID)
	if err != nil {
		return nil, fmt.Errorf("resolve pool token asset %d: %w", state.PoolTokenAssetID, err)
	}

	snap := &Snapshot{
		Asset1:           p.asset1,
		Asset2:           p.asset2,
		PoolTokenAsset:   poolToken,
		Asset1Reserves:   state.Asset1Reserves,
		Asset2Reserves:   state.Asset2Reserves,
		IssuedPoolTokens: state.IssuedPoolTokens,
		TotalFeeShare:    state.TotalFeeShare,
		ProtocolFeeRatio: state.ProtocolFeeRatio,
		Exists:           true,
		Round:            state.Round,
	}

	if cur := p.snap.Load(); cur != nil && snap.Round < cur.Round {
		p.logger.Warn("Rejecting stale snapshot",
			zap.Uint64("published_round", cur.Round),
			zap.Uint64("fetched_round", snap.Round))
		return nil, fmt.Errorf("round %d behind %d: %w", snap.Round, cur.Round, ErrStaleSnapshot)
	}

	p.snap.Store(snap)
	p.logger.Debug("Published pool snapshot",
		zap.String("pool", p.key.String()),
		zap.Uint64("round", snap.Round),
		zap.Uint64("asset_1_reserves", snap.Asset1Reserves),
		zap.Uint64("asset_2_reserves", snap.Asset2Reserves),
		zap.Uint64("issued_pool_tokens", snap.IssuedPoolTokens))
	return snap, nil
}

// Info is a display summary of the latest snapshot.
type Info struct {
	Asset1           assets.Asset
	Asset2           assets.Asset
	PoolTokenAsset   assets.Asset
	Asset1Reserves   uint64
	Asset2Reserves   uint64
	IssuedPoolTokens uint64
	TotalFeeShare    uint64
	ProtocolFeeRatio uint64
	State            State
	Round            uint64
}

// Info summarizes the pool after a refresh. Fails with ErrBootstrapRequired
// while the pool does not exist.
func (p *Pool) Info(ctx context.Context) (Info, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return Info{}, err
	}
	if !snap.Exists {
		return Info{}, ErrBootstrapRequired
	}
	return Info{
		Asset1:           snap.Asset1,
		Asset2:           snap.Asset2,
		PoolTokenAsset:   snap.PoolTokenAsset,
		Asset1Reserves:   snap.Asset1Reserves,
		Asset2Reserves:   snap.Asset2Reserves,
		IssuedPoolTokens: snap.IssuedPoolTokens,
		TotalFeeShare:    snap.TotalFeeShare,
		ProtocolFeeRatio: snap.ProtocolFeeRatio,
		State:            snap.State(),
		Round:            snap.Round,
	}, nil
}

// Convert values an amount in the paired asset at the latest spot price.
// Display-grade; requires a prior refresh.
func (p *Pool) Convert(amount assets.AssetAmount) (assets.AssetAmount, error) {
	snap := p.snap.Load()
	if snap == nil || !snap.Exists {
		return assets.AssetAmount{}, ErrBootstrapRequired
	}
	return snap.Convert(amount)
}

// FetchInitialAddLiquidityQuote quotes the first deposit. No slippage bound
// exists because the deposit itself defines the price.
func (p *Pool) FetchInitialAddLiquidityQuote(ctx context.Context, amountA, amountB assets.AssetAmount) (*InitialAddLiquidityQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.InitialAddLiquidityQuote(amountA, amountB)
}

// FetchFlexibleAddLiquidityQuote quotes a two-asset deposit in any ratio.
func (p *Pool) FetchFlexibleAddLiquidityQuote(ctx context.Context, amountA, amountB assets.AssetAmount, slippage float64) (*FlexibleAddLiquidityQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.FlexibleAddLiquidityQuote(amountA, amountB, slippage)
}

// FetchSingleAssetAddLiquidityQuote quotes a one-asset deposit.
func (p *Pool) FetchSingleAssetAddLiquidityQuote(ctx context.Context, amountIn assets.AssetAmount, slippage float64) (*SingleAssetAddLiquidityQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.SingleAssetAddLiquidityQuote(amountIn, slippage)
}

// FetchRemoveLiquidityQuote quotes a proportional redemption.
func (p *Pool) FetchRemoveLiquidityQuote(ctx context.Context, poolTokensIn assets.AssetAmount, slippage float64) (*RemoveLiquidityQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.RemoveLiquidityQuote(poolTokensIn, slippage)
}

// FetchSingleAssetRemoveLiquidityQuote quotes a redemption paid out in one
// asset.
func (p *Pool) FetchSingleAssetRemoveLiquidityQuote(ctx context.Context, poolTokensIn assets.AssetAmount, outputAsset assets.Asset, slippage float64) (*SingleAssetRemoveLiquidityQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.SingleAssetRemoveLiquidityQuote(poolTokensIn, outputAsset, slippage)
}

// FetchFixedInputSwapQuote quotes a swap with an exact input amount.
func (p *Pool) FetchFixedInputSwapQuote(ctx context.Context, amountIn assets.AssetAmount, slippage float64) (*SwapQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.FixedInputSwapQuote(amountIn, slippage)
}

// FetchFixedOutputSwapQuote quotes a swap with an exact output amount.
func (p *Pool) FetchFixedOutputSwapQuote(ctx context.Context, amountOut assets.AssetAmount, slippage float64) (*SwapQuote, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return snap.FixedOutputSwapQuote(amountOut, slippage)
}

// Position is the redemption value of a held pool-token balance.
type Position struct {
	Amount1    assets.AssetAmount
	Amount2    assets.AssetAmount
	PoolTokens assets.AssetAmount
	Share      float64
}

// FetchPoolPosition values poolTokenBalance against the latest snapshot.
func (p *Pool) FetchPoolPosition(ctx context.Context, poolTokenBalance uint64) (*Position, error) {
	snap, err := p.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := snap.checkActive(); err != nil {
		return nil, err
	}
	if poolTokenBalance == 0 {
		return &Position{
			Amount1:    assets.NewAssetAmount(snap.Asset1, 0),
			Amount2:    assets.NewAssetAmount(snap.Asset2, 0),
			PoolTokens: assets.NewAssetAmount(snap.PoolTokenAsset, 0),
		}, nil
	}
	quote, err := snap.RemoveLiquidityQuote(assets.NewAssetAmount(snap.PoolTokenAsset, poolTokenBalance), 0)
	if err != nil {
		return nil, err
	}
	return &Position{
		Amount1:    quote.Amount1Out,
		Amount2:    quote.Amount2Out,
		PoolTokens: quote.PoolTokensIn,
		Share:      float64(poolTokenBalance) / float64(snap.IssuedPoolTokens),
	}, nil
}
