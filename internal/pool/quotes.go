package pool

import (
	"fmt"
	"math"
	"math/big"

	"github.com/velith/poolengine/internal/assets"
)

// Quote is the sealed set of results the engine hands to a transaction
// preparer. A quote is computed against exactly one snapshot (stamped by
// Round) and must be discarded once that snapshot is superseded.
type Quote interface {
	quoteVariant() string
}

// SwapType distinguishes which side of a swap quote is fixed.
type SwapType string

const (
	SwapFixedInput  SwapType = "fixed-input"
	SwapFixedOutput SwapType = "fixed-output"
)

// InternalSwapQuote describes the leg of a non-proportional add or a
// single-asset remove that the contract internally reroutes through the swap
// formula.
type InternalSwapQuote struct {
	AmountIn    assets.AssetAmount
	AmountOut   assets.AssetAmount
	SwapFees    assets.AssetAmount
	PriceImpact float64
}

// InitialAddLiquidityQuote covers the first deposit into an empty pool.
// There is no reference price yet, so no slippage bound exists.
type InitialAddLiquidityQuote struct {
	Amount1In     assets.AssetAmount
	Amount2In     assets.AssetAmount
	PoolTokensOut assets.AssetAmount
	Round         uint64
}

func (*InitialAddLiquidityQuote) quoteVariant() string { return "initial-add-liquidity" }

// FlexibleAddLiquidityQuote covers a deposit of both assets in any ratio.
type FlexibleAddLiquidityQuote struct {
	Amount1In     assets.AssetAmount
	Amount2In     assets.AssetAmount
	PoolTokensOut assets.AssetAmount
	InternalSwap  *InternalSwapQuote
	Slippage      float64
	Round         uint64

	slip *big.Rat
}

func (*FlexibleAddLiquidityQuote) quoteVariant() string { return "flexible-add-liquidity" }

// MinPoolTokensOutWithSlippage is the slippage-protected lower bound on the
// minted amount.
func (q *FlexibleAddLiquidityQuote) MinPoolTokensOutWithSlippage() assets.AssetAmount {
	return assets.NewAssetAmount(q.PoolTokensOut.Asset, receiveBound(q.PoolTokensOut.Amount, q.slip))
}

// SingleAssetAddLiquidityQuote covers a deposit of one pool asset; the whole
// deposit is internally rebalanced through the swap formula.
type SingleAssetAddLiquidityQuote struct {
	AmountIn      assets.AssetAmount
	PoolTokensOut assets.AssetAmount
	InternalSwap  *InternalSwapQuote
	Slippage      float64
	Round         uint64

	slip *big.Rat
}

func (*SingleAssetAddLiquidityQuote) quoteVariant() string { return "single-asset-add-liquidity" }

func (q *SingleAssetAddLiquidityQuote) MinPoolTokensOutWithSlippage() assets.AssetAmount {
	return assets.NewAssetAmount(q.PoolTokensOut.Asset, receiveBound(q.PoolTokensOut.Amount, q.slip))
}

// RemoveLiquidityQuote covers a proportional redemption of pool tokens.
type RemoveLiquidityQuote struct {
	PoolTokensIn assets.AssetAmount
	Amount1Out   assets.AssetAmount
	Amount2Out   assets.AssetAmount
	Slippage     float64
	Round        uint64

	slip *big.Rat
}

func (*RemoveLiquidityQuote) quoteVariant() string { return "remove-liquidity" }

// MinAmountsOutWithSlippage returns the protected lower bounds for both
// redemption outputs.
func (q *RemoveLiquidityQuote) MinAmountsOutWithSlippage() (assets.AssetAmount, assets.AssetAmount) {
	return assets.NewAssetAmount(q.Amount1Out.Asset, receiveBound(q.Amount1Out.Amount, q.slip)),
		assets.NewAssetAmount(q.Amount2Out.Asset, receiveBound(q.Amount2Out.Amount, q.slip))
}

// SingleAssetRemoveLiquidityQuote redeems pool tokens into one asset; the
// unwanted side's payout is internally swapped into the requested asset.
type SingleAssetRemoveLiquidityQuote struct {
	PoolTokensIn assets.AssetAmount
	AmountOut    assets.AssetAmount
	InternalSwap *InternalSwapQuote
	Slippage     float64
	Round        uint64

	slip *big.Rat
}

func (*SingleAssetRemoveLiquidityQuote) quoteVariant() string { return "single-asset-remove-liquidity" }

func (q *SingleAssetRemoveLiquidityQuote) MinAmountOutWithSlippage() assets.AssetAmount {
	return assets.NewAssetAmount(q.AmountOut.Asset, receiveBound(q.AmountOut.Amount, q.slip))
}

// SwapQuote covers both swap modes. For fixed-input the input side is exact
// and the output carries the protected bound; for fixed-output the reverse.
type SwapQuote struct {
	Type         SwapType
	AmountIn     assets.AssetAmount
	AmountOut    assets.AssetAmount
	SwapFees     assets.AssetAmount
	ProtocolFees assets.AssetAmount
	ProviderFees assets.AssetAmount
	PriceImpact  float64
	Slippage     float64
	Round        uint64

	slip *big.Rat
}

func (*SwapQuote) quoteVariant() string { return "swap" }

// AmountInWithSlippage is the most the participant will pay. Exact for
// fixed-input; ceil-grossed for fixed-output.
func (q *SwapQuote) AmountInWithSlippage() assets.AssetAmount {
	if q.Type == SwapFixedInput {
		return q.AmountIn
	}
	return assets.NewAssetAmount(q.AmountIn.Asset, payBound(q.AmountIn.Amount, q.slip))
}

// AmountOutWithSlippage is the least the participant will accept. Exact for
// fixed-output; floor-cut for fixed-input.
func (q *SwapQuote) AmountOutWithSlippage() assets.AssetAmount {
	if q.Type == SwapFixedOutput {
		return q.AmountOut
	}
	return assets.NewAssetAmount(q.AmountOut.Asset, receiveBound(q.AmountOut.Amount, q.slip))
}

// slippageResolution pins the tolerance to parts-per-million before any
// bound arithmetic, keeping float imprecision out of settlement amounts.
const slippageResolution = 1_000_000

func slippageRat(s float64) (*big.Rat, error) {
	if math.IsNaN(s) || s < 0 || s >= 1 {
		return nil, fmt.Errorf("slippage %v: %w", s, ErrInvalidSlippage)
	}
	return big.NewRat(int64(math.Round(s*slippageResolution)), slippageResolution), nil
}

// receiveBound is floor(raw * (1 - s)): the lower limit on an amount owed to
// the participant.
func receiveBound(raw uint64, slip *big.Rat) uint64 {
	if slip == nil || slip.Sign() == 0 {
		return raw
	}
	factor := new(big.Rat).Sub(big.NewRat(1, 1), slip)
	bound := mulDivFloor(bigU(raw), factor.Num(), factor.Denom())
	// 0 <= factor <= 1, so the bound fits.
	return bound.Uint64()
}

// payBound is ceil(raw * (1 + s)): the upper limit on an amount the
// participant pays. Saturates at the uint64 ceiling.
func payBound(raw uint64, slip *big.Rat) uint64 {
	if slip == nil || slip.Sign() == 0 {
		return raw
	}
	factor := new(big.Rat).Add(big.NewRat(1, 1), slip)
	bound := mulDivCeil(bigU(raw), factor.Num(), factor.Denom())
	if !bound.IsUint64() {
		return math.MaxUint64
	}
	return bound.Uint64()
}

func (s *Snapshot) checkExists() error {
	if !s.Exists {
		return ErrBootstrapRequired
	}
	return nil
}

func (s *Snapshot) checkActive() error {
	if err := s.checkExists(); err != nil {
		return err
	}
	if s.IssuedPoolTokens == 0 {
		return ErrNoLiquidity
	}
	return nil
}

// orderAmounts maps an unordered pair of deposit amounts onto the snapshot's
// canonical asset order.
func (s *Snapshot) orderAmounts(a, b assets.AssetAmount) (amount1, amount2 assets.AssetAmount, err error) {
	switch {
	case a.Asset.Equal(s.Asset1) && b.Asset.Equal(s.Asset2):
		return a, b, nil
	case a.Asset.Equal(s.Asset2) && b.Asset.Equal(s.Asset1):
		return b, a, nil
	default:
		return assets.AssetAmount{}, assets.AssetAmount{},
			fmt.Errorf("deposit pair %s/%s does not match pool pair %s/%s: %w",
				a.Asset, b.Asset, s.Asset1, s.Asset2, ErrUnknownAsset)
	}
}

func (s *Snapshot) checkPoolToken(amount assets.AssetAmount) error {
	if !amount.Asset.Equal(s.PoolTokenAsset) {
		return fmt.Errorf("%s is not the pool token %s: %w",
			amount.Asset, s.PoolTokenAsset, ErrUnknownAsset)
	}
	return nil
}

func (s *Snapshot) internalSwapQuote(m MintOutcome) *InternalSwapQuote {
	inAsset, outAsset := s.Asset2, s.Asset1
	if m.SwapFromAsset1 {
		inAsset, outAsset = s.Asset1, s.Asset2
	}
	return &InternalSwapQuote{
		AmountIn:    assets.NewAssetAmount(inAsset, m.SwapInAmount),
		AmountOut:   assets.NewAssetAmount(outAsset, m.SwapOutAmount),
		SwapFees:    assets.NewAssetAmount(inAsset, m.SwapTotalFeeAmount),
		PriceImpact: m.SwapPriceImpact,
	}
}

// InitialAddLiquidityQuote quotes the first deposit into a bootstrapped but
// empty pool.
func (s *Snapshot) InitialAddLiquidityQuote(amountA, amountB assets.AssetAmount) (*InitialAddLiquidityQuote, error) {
	if err := s.checkExists(); err != nil {
		return nil, err
	}
	if s.IssuedPoolTokens != 0 {
		return nil, ErrAlreadyHasLiquidity
	}
	amount1, amount2, err := s.orderAmounts(amountA, amountB)
	if err != nil {
		return nil, err
	}
	minted, err := InitialMint(amount1.Amount, amount2.Amount)
	if err != nil {
		return nil, err
	}
	return &InitialAddLiquidityQuote{
		Amount1In:     amount1,
		Amount2In:     amount2,
		PoolTokensOut: assets.NewAssetAmount(s.PoolTokenAsset, minted),
		Round:         s.Round,
	}, nil
}

// FlexibleAddLiquidityQuote quotes a deposit of both assets in any ratio
// against live reserves.
func (s *Snapshot) FlexibleAddLiquidityQuote(amountA, amountB assets.AssetAmount, slippage float64) (*FlexibleAddLiquidityQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	amount1, amount2, err := s.orderAmounts(amountA, amountB)
	if err != nil {
		return nil, err
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}
	outcome, err := SubsequentMint(s.Asset1Reserves, s.Asset2Reserves, s.IssuedPoolTokens,
		s.TotalFeeShare, amount1.Amount, amount2.Amount)
	if err != nil {
		return nil, err
	}
	return &FlexibleAddLiquidityQuote{
		Amount1In:     amount1,
		Amount2In:     amount2,
		PoolTokensOut: assets.NewAssetAmount(s.PoolTokenAsset, outcome.PoolTokensOut),
		InternalSwap:  s.internalSwapQuote(outcome),
		Slippage:      slippage,
		Round:         s.Round,
		slip:          slip,
	}, nil
}

// SingleAssetAddLiquidityQuote quotes a deposit of exactly one pool asset.
func (s *Snapshot) SingleAssetAddLiquidityQuote(amountIn assets.AssetAmount, slippage float64) (*SingleAssetAddLiquidityQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}
	var amount1, amount2 uint64
	switch {
	case amountIn.Asset.Equal(s.Asset1):
		amount1 = amountIn.Amount
	case amountIn.Asset.Equal(s.Asset2):
		amount2 = amountIn.Amount
	default:
		return nil, fmt.Errorf("%s: %w", amountIn.Asset, ErrUnknownAsset)
	}
	outcome, err := SubsequentMint(s.Asset1Reserves, s.Asset2Reserves, s.IssuedPoolTokens,
		s.TotalFeeShare, amount1, amount2)
	if err != nil {
		return nil, err
	}
	return &SingleAssetAddLiquidityQuote{
		AmountIn:      amountIn,
		PoolTokensOut: assets.NewAssetAmount(s.PoolTokenAsset, outcome.PoolTokensOut),
		InternalSwap:  s.internalSwapQuote(outcome),
		Slippage:      slippage,
		Round:         s.Round,
		slip:          slip,
	}, nil
}

// RemoveLiquidityQuote quotes a proportional redemption of pool tokens.
func (s *Snapshot) RemoveLiquidityQuote(poolTokensIn assets.AssetAmount, slippage float64) (*RemoveLiquidityQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	if err := s.checkPoolToken(poolTokensIn); err != nil {
		return nil, err
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}
	out1, out2, err := RemoveOutputs(s.Asset1Reserves, s.Asset2Reserves, s.IssuedPoolTokens, poolTokensIn.Amount)
	if err != nil {
		return nil, err
	}
	return &RemoveLiquidityQuote{
		PoolTokensIn: poolTokensIn,
		Amount1Out:   assets.NewAssetAmount(s.Asset1, out1),
		Amount2Out:   assets.NewAssetAmount(s.Asset2, out2),
		Slippage:     slippage,
		Round:        s.Round,
		slip:         slip,
	}, nil
}

// SingleAssetRemoveLiquidityQuote quotes a redemption paid out entirely in
// outputAsset: the proportional payout of the other asset is swapped through
// the reserves that remain after the proportional step.
func (s *Snapshot) SingleAssetRemoveLiquidityQuote(poolTokensIn assets.AssetAmount, outputAsset assets.Asset, slippage float64) (*SingleAssetRemoveLiquidityQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	if err := s.checkPoolToken(poolTokensIn); err != nil {
		return nil, err
	}
	if !s.ContainsAsset(outputAsset) {
		return nil, fmt.Errorf("%s: %w", outputAsset, ErrUnknownAsset)
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}
	out1, out2, err := RemoveOutputs(s.Asset1Reserves, s.Asset2Reserves, s.IssuedPoolTokens, poolTokensIn.Amount)
	if err != nil {
		return nil, err
	}

	var proportional, swapped uint64
	var swap SwapOutcome
	var swapInAsset assets.Asset
	if outputAsset.Equal(s.Asset1) {
		swap, err = FixedInputSwap(s.Asset2Reserves-out2, s.Asset1Reserves-out1, out2, s.TotalFeeShare)
		proportional, swapped = out1, out2
		swapInAsset = s.Asset2
	} else {
		swap, err = FixedInputSwap(s.Asset1Reserves-out1, s.Asset2Reserves-out2, out1, s.TotalFeeShare)
		proportional, swapped = out2, out1
		swapInAsset = s.Asset1
	}
	if err != nil {
		return nil, err
	}

	return &SingleAssetRemoveLiquidityQuote{
		PoolTokensIn: poolTokensIn,
		AmountOut:    assets.NewAssetAmount(outputAsset, proportional+swap.AmountOut),
		InternalSwap: &InternalSwapQuote{
			AmountIn:    assets.NewAssetAmount(swapInAsset, swapped),
			AmountOut:   assets.NewAssetAmount(outputAsset, swap.AmountOut),
			SwapFees:    assets.NewAssetAmount(swapInAsset, swap.TotalFeeAmount),
			PriceImpact: swap.PriceImpact,
		},
		Slippage: slippage,
		Round:    s.Round,
		slip:     slip,
	}, nil
}

// FixedInputSwapQuote quotes a swap where the input amount is exact.
func (s *Snapshot) FixedInputSwapQuote(amountIn assets.AssetAmount, slippage float64) (*SwapQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}

	var assetOut assets.Asset
	var inputSupply, outputSupply uint64
	switch {
	case amountIn.Asset.Equal(s.Asset1):
		assetOut = s.Asset2
		inputSupply, outputSupply = s.Asset1Reserves, s.Asset2Reserves
	case amountIn.Asset.Equal(s.Asset2):
		assetOut = s.Asset1
		inputSupply, outputSupply = s.Asset2Reserves, s.Asset1Reserves
	default:
		return nil, fmt.Errorf("%s: %w", amountIn.Asset, ErrUnknownAsset)
	}

	outcome, err := FixedInputSwap(inputSupply, outputSupply, amountIn.Amount, s.TotalFeeShare)
	if err != nil {
		return nil, err
	}
	return s.swapQuote(SwapFixedInput, amountIn.Asset, assetOut, outcome, slippage, slip), nil
}

// FixedOutputSwapQuote quotes a swap where the output amount is exact.
func (s *Snapshot) FixedOutputSwapQuote(amountOut assets.AssetAmount, slippage float64) (*SwapQuote, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	slip, err := slippageRat(slippage)
	if err != nil {
		return nil, err
	}

	var assetIn assets.Asset
	var inputSupply, outputSupply uint64
	switch {
	case amountOut.Asset.Equal(s.Asset1):
		assetIn = s.Asset2
		inputSupply, outputSupply = s.Asset2Reserves, s.Asset1Reserves
	case amountOut.Asset.Equal(s.Asset2):
		assetIn = s.Asset1
		inputSupply, outputSupply = s.Asset1Reserves, s.Asset2Reserves
	default:
		return nil, fmt.Errorf("%s: %w", amountOut.Asset, ErrUnknownAsset)
	}

	outcome, err := FixedOutputSwap(inputSupply, outputSupply, amountOut.Amount, s.TotalFeeShare)
	if err != nil {
		return nil, err
	}
	return s.swapQuote(SwapFixedOutput, assetIn, amountOut.Asset, outcome, slippage, slip), nil
}

func (s *Snapshot) swapQuote(swapType SwapType, assetIn, assetOut assets.Asset, outcome SwapOutcome, slippage float64, slip *big.Rat) *SwapQuote {
	protocolCut, providerCut := SplitFee(outcome.TotalFeeAmount, s.ProtocolFeeRatio)
	return &SwapQuote{
		Type:         swapType,
		AmountIn:     assets.NewAssetAmount(assetIn, outcome.AmountIn),
		AmountOut:    assets.NewAssetAmount(assetOut, outcome.AmountOut),
		SwapFees:     assets.NewAssetAmount(assetIn, outcome.TotalFeeAmount),
		ProtocolFees: assets.NewAssetAmount(assetIn, protocolCut),
		ProviderFees: assets.NewAssetAmount(assetIn, providerCut),
		PriceImpact:  outcome.PriceImpact,
		Slippage:     slippage,
		Round:        s.Round,
		slip:         slip,
	}
}
