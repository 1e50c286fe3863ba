package assets

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	coinA = Asset{ID: 1, Name: "Coin A", UnitName: "CNA", Decimals: 6}
	coinB = Asset{ID: 2, Name: "Coin B", UnitName: "CNB", Decimals: 6}
)

func TestAssetEqual(t *testing.T) {
	renamed := coinA
	renamed.Name = "Renamed"
	assert.True(t, coinA.Equal(renamed), "identity is the id, not the metadata")
	assert.False(t, coinA.Equal(coinB))
}

func TestAssetAmountArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := NewAssetAmount(coinA, 100).Add(NewAssetAmount(coinA, 50))
		require.NoError(t, err)
		assert.Equal(t, uint64(150), sum.Amount)
	})

	t.Run("add rejects mismatched assets", func(t *testing.T) {
		_, err := NewAssetAmount(coinA, 100).Add(NewAssetAmount(coinB, 50))
		assert.ErrorIs(t, err, ErrAssetMismatch)

		var mismatch *MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, coinA, mismatch.Left)
		assert.Equal(t, coinB, mismatch.Right)
	})

	t.Run("add rejects overflow", func(t *testing.T) {
		_, err := NewAssetAmount(coinA, math.MaxUint64).Add(NewAssetAmount(coinA, 1))
		assert.Error(t, err)
	})

	t.Run("sub", func(t *testing.T) {
		diff, err := NewAssetAmount(coinA, 100).Sub(NewAssetAmount(coinA, 30))
		require.NoError(t, err)
		assert.Equal(t, uint64(70), diff.Amount)
	})

	t.Run("sub rejects underflow", func(t *testing.T) {
		_, err := NewAssetAmount(coinA, 30).Sub(NewAssetAmount(coinA, 100))
		assert.Error(t, err)
	})

	t.Run("cmp", func(t *testing.T) {
		less, err := NewAssetAmount(coinA, 1).Cmp(NewAssetAmount(coinA, 2))
		require.NoError(t, err)
		assert.Equal(t, -1, less)

		_, err = NewAssetAmount(coinA, 1).Cmp(NewAssetAmount(coinB, 2))
		assert.ErrorIs(t, err, ErrAssetMismatch)
	})
}

func TestStaticRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewStaticRegistry(coinA)

	t.Run("resolves a seeded asset", func(t *testing.T) {
		a, err := registry.FetchAsset(ctx, coinA.ID)
		require.NoError(t, err)
		assert.Equal(t, coinA, a)
	})

	t.Run("misses an unknown id", func(t *testing.T) {
		_, err := registry.FetchAsset(ctx, 42)
		assert.Error(t, err)
	})

	t.Run("register adds at runtime", func(t *testing.T) {
		registry.Register(coinB)
		a, err := registry.FetchAsset(ctx, coinB.ID)
		require.NoError(t, err)
		assert.Equal(t, coinB, a)
	})
}

func TestFallbackRegistry(t *testing.T) {
	ctx := context.Background()
	registry := &FallbackRegistry{Primary: NewStaticRegistry(coinA)}

	t.Run("prefers the primary", func(t *testing.T) {
		a, err := registry.FetchAsset(ctx, coinA.ID)
		require.NoError(t, err)
		assert.Equal(t, coinA, a)
	})

	t.Run("synthesizes a placeholder for unknown ids", func(t *testing.T) {
		a, err := registry.FetchAsset(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), a.ID)
		assert.Equal(t, "ASA-42", a.UnitName)
	})

	t.Run("works without a primary", func(t *testing.T) {
		bare := &FallbackRegistry{}
		a, err := bare.FetchAsset(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), a.ID)
	})
}
