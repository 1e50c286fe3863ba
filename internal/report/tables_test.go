package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velith/poolengine/internal/assets"
	"github.com/velith/poolengine/internal/pool"
)

var (
	coinA     = assets.Asset{ID: 200, Name: "Coin A", UnitName: "CNA", Decimals: 6}
	coinB     = assets.Asset{ID: 100, Name: "Coin B", UnitName: "CNB", Decimals: 6}
	poolToken = assets.Asset{ID: 300, Name: "Pool Token", UnitName: "PLP", Decimals: 6}
)

func testSnapshot() *pool.Snapshot {
	return &pool.Snapshot{
		Asset1:           coinA,
		Asset2:           coinB,
		PoolTokenAsset:   poolToken,
		Asset1Reserves:   1_000_000,
		Asset2Reserves:   2_000_000,
		IssuedPoolTokens: 1_414_213,
		TotalFeeShare:    3,
		ProtocolFeeRatio: 6,
		Exists:           true,
		Round:            1000,
	}
}

func TestPoolInfoTable(t *testing.T) {
	out := PoolInfo(pool.Info{
		Asset1:           coinA,
		Asset2:           coinB,
		PoolTokenAsset:   poolToken,
		Asset1Reserves:   1_000_000,
		Asset2Reserves:   2_000_000,
		IssuedPoolTokens: 1_414_213,
		TotalFeeShare:    3,
		ProtocolFeeRatio: 6,
		State:            pool.Active,
		Round:            1000,
	})

	assert.Contains(t, out, "CNA")
	assert.Contains(t, out, "CNB")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "0.30%")
	assert.Contains(t, out, "1414213")
}

func TestSwapQuoteTable(t *testing.T) {
	quote, err := testSnapshot().FixedInputSwapQuote(assets.NewAssetAmount(coinA, 10_000), 0.05)
	require.NoError(t, err)

	out := SwapQuote(quote)
	assert.Contains(t, out, "fixed-input")
	assert.Contains(t, out, "0.010000 CNA")
	assert.Contains(t, out, "0.019743 CNB")
	assert.Contains(t, out, "Min receive")
}

func TestAddLiquidityQuoteTable(t *testing.T) {
	quote, err := testSnapshot().SingleAssetAddLiquidityQuote(assets.NewAssetAmount(coinA, 100_000), 0.05)
	require.NoError(t, err)

	out, err := AddLiquidityQuote(quote)
	require.NoError(t, err)
	assert.Contains(t, out, "Single-asset add-liquidity quote")
	assert.Contains(t, out, "Internal swap in")

	swap, err := testSnapshot().FixedInputSwapQuote(assets.NewAssetAmount(coinA, 10_000), 0)
	require.NoError(t, err)
	_, err = AddLiquidityQuote(swap)
	assert.Error(t, err, "a swap quote is not an add-liquidity quote")
}

func TestRemoveLiquidityQuoteTable(t *testing.T) {
	quote, err := testSnapshot().RemoveLiquidityQuote(assets.NewAssetAmount(poolToken, 141_421), 0.05)
	require.NoError(t, err)

	out, err := RemoveLiquidityQuote(quote)
	require.NoError(t, err)
	assert.Contains(t, out, "Remove-liquidity quote")
	assert.Contains(t, out, "Min amount 1 out")
}

func TestPositionTable(t *testing.T) {
	out := Position(&pool.Position{
		Amount1:    assets.NewAssetAmount(coinA, 500_000),
		Amount2:    assets.NewAssetAmount(coinB, 1_000_000),
		PoolTokens: assets.NewAssetAmount(poolToken, 707_106),
		Share:      0.5,
	})
	assert.Contains(t, out, "Pool position")
	assert.Contains(t, out, "50.0000%")
}
