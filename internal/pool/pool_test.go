package pool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velith/poolengine/internal/assets"
)

type stubSource struct {
	mu    sync.Mutex
	state *PoolState
	err   error
	calls int
}

func (s *stubSource) FetchPoolState(context.Context, PoolKey) (*PoolState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	state := *s.state
	return &state, nil
}

func (s *stubSource) set(state *PoolState, err error) {
	s.mu.Lock()
	s.state, s.err = state, err
	s.mu.Unlock()
}

func activeState(round uint64) *PoolState {
	return &PoolState{
		Asset1ID:         testAsset1.ID,
		Asset2ID:         testAsset2.ID,
		PoolTokenAssetID: testPoolToken.ID,
		Asset1Reserves:   1_000_000,
		Asset2Reserves:   2_000_000,
		IssuedPoolTokens: 1_414_213,
		TotalFeeShare:    3,
		ProtocolFeeRatio: 6,
		Round:            round,
	}
}

func newTestPool(t *testing.T, src SnapshotSource) *Pool {
	t.Helper()
	registry := assets.NewStaticRegistry(testAsset1, testAsset2, testPoolToken)
	// Pass the pair in non-canonical order on purpose.
	p, err := New(src, registry, zap.NewNop(), testAsset2, testAsset1, 7)
	require.NoError(t, err)
	return p
}

func TestNewPool(t *testing.T) {
	t.Run("orders the pair canonically", func(t *testing.T) {
		p := newTestPool(t, &stubSource{state: activeState(1)})
		a1, a2 := p.Assets()
		assert.Equal(t, testAsset1, a1)
		assert.Equal(t, testAsset2, a2)
		assert.Equal(t, PoolKey{Asset1ID: testAsset1.ID, Asset2ID: testAsset2.ID, AppID: 7}, p.Key())
	})

	t.Run("rejects identical assets", func(t *testing.T) {
		_, err := New(&stubSource{}, nil, nil, testAsset1, testAsset1, 7)
		assert.Error(t, err)
	})

	t.Run("rejects a nil source", func(t *testing.T) {
		_, err := New(nil, nil, nil, testAsset1, testAsset2, 7)
		assert.Error(t, err)
	})
}

func TestPoolRefresh(t *testing.T) {
	t.Run("publishes a snapshot", func(t *testing.T) {
		p := newTestPool(t, &stubSource{state: activeState(100)})
		snap, err := p.Refresh(context.Background())
		require.NoError(t, err)

		assert.True(t, snap.Exists)
		assert.Equal(t, uint64(100), snap.Round)
		assert.Equal(t, testPoolToken, snap.PoolTokenAsset)
		assert.Equal(t, Active, p.State())
		assert.Same(t, snap, p.Current())
	})

	t.Run("missing state maps to an unbootstrapped snapshot", func(t *testing.T) {
		p := newTestPool(t, &stubSource{err: ErrPoolNotFound})
		snap, err := p.Refresh(context.Background())
		require.NoError(t, err)

		assert.False(t, snap.Exists)
		assert.Equal(t, Unbootstrapped, p.State())

		_, err = p.Info(context.Background())
		assert.ErrorIs(t, err, ErrBootstrapRequired)
	})

	t.Run("missing state never shadows an existing pool", func(t *testing.T) {
		src := &stubSource{state: activeState(100)}
		p := newTestPool(t, src)
		_, err := p.Refresh(context.Background())
		require.NoError(t, err)

		src.set(nil, ErrPoolNotFound)
		snap, err := p.Refresh(context.Background())
		require.NoError(t, err)
		assert.True(t, snap.Exists)
		assert.Equal(t, uint64(100), snap.Round)
	})

	t.Run("rejects a round older than the published one", func(t *testing.T) {
		src := &stubSource{state: activeState(100)}
		p := newTestPool(t, src)
		_, err := p.Refresh(context.Background())
		require.NoError(t, err)

		src.set(activeState(50), nil)
		_, err = p.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrStaleSnapshot)
		assert.Equal(t, uint64(100), p.Current().Round, "published snapshot stays")

		src.set(activeState(150), nil)
		snap, err := p.Refresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(150), snap.Round)
	})

	t.Run("equal round is accepted", func(t *testing.T) {
		src := &stubSource{state: activeState(100)}
		p := newTestPool(t, src)
		_, err := p.Refresh(context.Background())
		require.NoError(t, err)
		_, err = p.Refresh(context.Background())
		assert.NoError(t, err)
	})

	t.Run("source failures propagate", func(t *testing.T) {
		p := newTestPool(t, &stubSource{err: errors.New("connection reset")})
		_, err := p.Refresh(context.Background())
		assert.Error(t, err)
		assert.Nil(t, p.Current())
	})
}

func TestPoolQuotes(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, &stubSource{state: activeState(100)})

	t.Run("fixed input swap", func(t *testing.T) {
		quote, err := p.FetchFixedInputSwapQuote(ctx, assets.NewAssetAmount(testAsset1, 10_000), 0.05)
		require.NoError(t, err)
		assert.Equal(t, uint64(19_743), quote.AmountOut.Amount)
		assert.Equal(t, uint64(100), quote.Round)
	})

	t.Run("fixed output swap", func(t *testing.T) {
		quote, err := p.FetchFixedOutputSwapQuote(ctx, assets.NewAssetAmount(testAsset2, 19_743), 0.05)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000), quote.AmountIn.Amount)
	})

	t.Run("flexible add", func(t *testing.T) {
		quote, err := p.FetchFlexibleAddLiquidityQuote(ctx,
			assets.NewAssetAmount(testAsset1, 1_000_000),
			assets.NewAssetAmount(testAsset2, 2_000_000), 0.05)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_414_213), quote.PoolTokensOut.Amount)
	})

	t.Run("remove", func(t *testing.T) {
		quote, err := p.FetchRemoveLiquidityQuote(ctx,
			assets.NewAssetAmount(testPoolToken, 1_414_213), 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), quote.Amount1Out.Amount)
		assert.Equal(t, uint64(2_000_000), quote.Amount2Out.Amount)
	})

	t.Run("initial add rejected while active", func(t *testing.T) {
		_, err := p.FetchInitialAddLiquidityQuote(ctx,
			assets.NewAssetAmount(testAsset1, 1_000_000),
			assets.NewAssetAmount(testAsset2, 2_000_000))
		assert.ErrorIs(t, err, ErrAlreadyHasLiquidity)
	})
}

func TestPoolConvert(t *testing.T) {
	t.Run("requires a refresh first", func(t *testing.T) {
		p := newTestPool(t, &stubSource{state: activeState(100)})
		_, err := p.Convert(assets.NewAssetAmount(testAsset1, 1000))
		assert.ErrorIs(t, err, ErrBootstrapRequired)
	})

	t.Run("values at spot price", func(t *testing.T) {
		p := newTestPool(t, &stubSource{state: activeState(100)})
		_, err := p.Refresh(context.Background())
		require.NoError(t, err)

		converted, err := p.Convert(assets.NewAssetAmount(testAsset1, 1000))
		require.NoError(t, err)
		assert.Equal(t, testAsset2, converted.Asset)
		assert.Equal(t, uint64(2000), converted.Amount)
	})
}

func TestFetchPoolPosition(t *testing.T) {
	ctx := context.Background()
	p := newTestPool(t, &stubSource{state: activeState(100)})

	t.Run("full balance owns the whole pool", func(t *testing.T) {
		position, err := p.FetchPoolPosition(ctx, 1_414_213)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), position.Amount1.Amount)
		assert.Equal(t, uint64(2_000_000), position.Amount2.Amount)
		assert.InDelta(t, 1.0, position.Share, 1e-12)
	})

	t.Run("zero balance is an empty position", func(t *testing.T) {
		position, err := p.FetchPoolPosition(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), position.Amount1.Amount)
		assert.Equal(t, uint64(0), position.Amount2.Amount)
		assert.Equal(t, 0.0, position.Share)
	})

	t.Run("rejected on an unbootstrapped pool", func(t *testing.T) {
		empty := newTestPool(t, &stubSource{err: ErrPoolNotFound})
		_, err := empty.FetchPoolPosition(ctx, 1000)
		assert.ErrorIs(t, err, ErrBootstrapRequired)
	})
}
