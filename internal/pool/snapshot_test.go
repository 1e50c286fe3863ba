package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velith/poolengine/internal/assets"
)

func TestSnapshotState(t *testing.T) {
	assert.Equal(t, Unbootstrapped, (&Snapshot{}).State())
	assert.Equal(t, BootstrappedEmpty, emptySnapshot().State())
	assert.Equal(t, Active, activeSnapshot().State())

	assert.Equal(t, "unbootstrapped", Unbootstrapped.String())
	assert.Equal(t, "bootstrapped-empty", BootstrappedEmpty.String())
	assert.Equal(t, "active", Active.String())
}

func TestSnapshotAssetLookups(t *testing.T) {
	snap := activeSnapshot()

	assert.True(t, snap.ContainsAsset(testAsset1))
	assert.True(t, snap.ContainsAsset(testAsset2))
	assert.False(t, snap.ContainsAsset(otherAsset))

	opposite, err := snap.OppositeAsset(testAsset1)
	require.NoError(t, err)
	assert.Equal(t, testAsset2, opposite)

	_, err = snap.OppositeAsset(otherAsset)
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestSnapshotPrices(t *testing.T) {
	snap := activeSnapshot()

	price1, err := snap.Asset1Price()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, price1, 1e-12)

	price2, err := snap.Asset2Price()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, price2, 1e-12)

	_, err = emptySnapshot().Asset1Price()
	assert.ErrorIs(t, err, ErrNoLiquidity)
}

func TestSnapshotConvert(t *testing.T) {
	snap := activeSnapshot()

	converted, err := snap.Convert(assets.NewAssetAmount(testAsset2, 1000))
	require.NoError(t, err)
	assert.Equal(t, testAsset1, converted.Asset)
	assert.Equal(t, uint64(500), converted.Amount)

	_, err = snap.Convert(assets.NewAssetAmount(otherAsset, 1000))
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = emptySnapshot().Convert(assets.NewAssetAmount(testAsset1, 1000))
	assert.ErrorIs(t, err, ErrNoLiquidity)
}
