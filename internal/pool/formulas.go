package pool

import (
	"fmt"
	"math/big"
)

// FeeDenominator fixes the fee resolution: fee shares are parts-per-thousand,
// so a total fee share of 3 charges 0.3% of the fee-bearing amount.
const FeeDenominator uint64 = 1000

// SwapOutcome is the raw (pre-slippage) result of a swap formula. AmountIn is
// always the gross, fee-bearing input.
type SwapOutcome struct {
	AmountIn       uint64
	AmountOut      uint64
	TotalFeeAmount uint64
	PriceImpact    float64
}

// MintOutcome is the raw result of a non-initial liquidity add. When the
// deposit is not proportional to the reserves, the excess leg is routed
// through an internal fixed-input swap whose parameters are reported here.
type MintOutcome struct {
	PoolTokensOut      uint64
	SwapFromAsset1     bool
	SwapInAmount       uint64
	SwapOutAmount      uint64
	SwapTotalFeeAmount uint64
	SwapPriceImpact    float64
}

// FixedInputSwap computes the output granted for a fixed input. The fee is
// taken from the input first, then the constant-product invariant is applied
// with the output floored (owed to the participant).
func FixedInputSwap(inputSupply, outputSupply, inputAmount, totalFeeShare uint64) (SwapOutcome, error) {
	if totalFeeShare >= FeeDenominator {
		return SwapOutcome{}, ErrInvalidFeeShare
	}
	if inputAmount == 0 {
		return SwapOutcome{}, fmt.Errorf("swap input: %w", ErrNonPositiveAmount)
	}
	if inputSupply == 0 || outputSupply == 0 {
		return SwapOutcome{}, fmt.Errorf("swap supplies: %w", ErrZeroReserves)
	}

	feeAmount := mulDivFloor(bigU(inputAmount), bigU(totalFeeShare), bigU(FeeDenominator))
	netIn := new(big.Int).Sub(bigU(inputAmount), feeAmount)

	denom := new(big.Int).Add(bigU(inputSupply), netIn)
	out := mulDivFloor(bigU(outputSupply), netIn, denom)

	outAmount, err := toUint64(out)
	if err != nil {
		return SwapOutcome{}, err
	}
	fee, err := toUint64(feeAmount)
	if err != nil {
		return SwapOutcome{}, err
	}

	return SwapOutcome{
		AmountIn:       inputAmount,
		AmountOut:      outAmount,
		TotalFeeAmount: fee,
		PriceImpact:    priceImpact(inputSupply, outputSupply, inputAmount, outAmount),
	}, nil
}

// FixedOutputSwap computes the gross input required to withdraw a fixed
// output. The invariant-preserving input is ceiled (owed to the pool), then
// grossed up so the net contribution after the fixed-input fee rule still
// covers it.
func FixedOutputSwap(inputSupply, outputSupply, outputAmount, totalFeeShare uint64) (SwapOutcome, error) {
	if totalFeeShare >= FeeDenominator {
		return SwapOutcome{}, ErrInvalidFeeShare
	}
	if outputAmount == 0 {
		return SwapOutcome{}, fmt.Errorf("swap output: %w", ErrNonPositiveAmount)
	}
	if inputSupply == 0 || outputSupply == 0 {
		return SwapOutcome{}, fmt.Errorf("swap supplies: %w", ErrZeroReserves)
	}
	if outputAmount >= outputSupply {
		return SwapOutcome{}, fmt.Errorf("output %d of supply %d: %w",
			outputAmount, outputSupply, ErrInsufficientLiquidity)
	}

	remaining := new(big.Int).Sub(bigU(outputSupply), bigU(outputAmount))
	requiredNet := mulDivCeil(bigU(inputSupply), bigU(outputAmount), remaining)

	gross := mulDivCeil(requiredNet, bigU(FeeDenominator), bigU(FeeDenominator-totalFeeShare))
	feeAmount := new(big.Int).Sub(gross, requiredNet)

	inAmount, err := toUint64(gross)
	if err != nil {
		return SwapOutcome{}, err
	}
	fee, err := toUint64(feeAmount)
	if err != nil {
		return SwapOutcome{}, err
	}

	return SwapOutcome{
		AmountIn:       inAmount,
		AmountOut:      outputAmount,
		TotalFeeAmount: fee,
		PriceImpact:    priceImpact(inputSupply, outputSupply, inAmount, outputAmount),
	}, nil
}

// InitialMint returns the pool tokens minted for the very first deposit: the
// integer square root of the product of the two amounts (geometric mean
// invariant). Valid only while issued pool tokens are zero.
func InitialMint(asset1Amount, asset2Amount uint64) (uint64, error) {
	if asset1Amount == 0 || asset2Amount == 0 {
		return 0, fmt.Errorf("initial deposit amounts: %w", ErrNonPositiveAmount)
	}
	product := new(big.Int).Mul(bigU(asset1Amount), bigU(asset2Amount))
	return toUint64(new(big.Int).Sqrt(product))
}

// SubsequentMint computes the pool tokens minted for a deposit against live
// reserves. Growth of the invariant sets the mint; any imbalance between the
// deposited ratio and the reserve ratio is priced as an internal fixed-input
// swap of the over-supplied asset, whose fee is charged against the mint.
func SubsequentMint(asset1Reserves, asset2Reserves, issuedPoolTokens, totalFeeShare, asset1Amount, asset2Amount uint64) (MintOutcome, error) {
	if totalFeeShare >= FeeDenominator {
		return MintOutcome{}, ErrInvalidFeeShare
	}
	if issuedPoolTokens == 0 {
		return MintOutcome{}, ErrNoLiquidity
	}
	if asset1Reserves == 0 || asset2Reserves == 0 {
		return MintOutcome{}, fmt.Errorf("add liquidity reserves: %w", ErrZeroReserves)
	}
	if asset1Amount == 0 && asset2Amount == 0 {
		return MintOutcome{}, fmt.Errorf("deposit amounts: %w", ErrNonPositiveAmount)
	}

	oldK := new(big.Int).Mul(bigU(asset1Reserves), bigU(asset2Reserves))
	newReserves1 := new(big.Int).Add(bigU(asset1Reserves), bigU(asset1Amount))
	newReserves2 := new(big.Int).Add(bigU(asset2Reserves), bigU(asset2Amount))
	newK := new(big.Int).Mul(newReserves1, newReserves2)

	issued := bigU(issuedPoolTokens)
	issuedSq := new(big.Int).Mul(issued, issued)
	newIssued := new(big.Int).Sqrt(new(big.Int).Quo(new(big.Int).Mul(newK, issuedSq), oldK))
	minted := new(big.Int).Sub(newIssued, issued)

	// Proportional share of the post-deposit reserves the mint entitles the
	// participant to; the leftovers define the internally swapped leg.
	consumed1 := mulDivFloor(minted, newReserves1, newIssued)
	consumed2 := mulDivFloor(minted, newReserves2, newIssued)
	excess1 := new(big.Int).Sub(bigU(asset1Amount), consumed1)
	excess2 := new(big.Int).Sub(bigU(asset2Amount), consumed2)

	out := MintOutcome{}
	var excess, swapOut, swapSideReserves *big.Int
	if excess1.Cmp(excess2) > 0 {
		out.SwapFromAsset1 = true
		excess = excess1
		swapOut = negPart(excess2)
		swapSideReserves = newReserves1
	} else {
		excess = excess2
		swapOut = negPart(excess1)
		swapSideReserves = newReserves2
	}

	if excess.Sign() > 0 {
		// The excess is a net contribution; gross it up by the swap fee and
		// charge the fee's pool-token value against the mint.
		feeAmount := mulDivFloor(excess, bigU(totalFeeShare), bigU(FeeDenominator-totalFeeShare))
		feeAsPoolTokens := mulDivFloor(feeAmount, issued, new(big.Int).Lsh(swapSideReserves, 1))
		swapIn := new(big.Int).Add(excess, feeAmount)
		minted.Sub(minted, feeAsPoolTokens)

		var err error
		if out.SwapInAmount, err = toUint64(swapIn); err != nil {
			return MintOutcome{}, err
		}
		if out.SwapOutAmount, err = toUint64(swapOut); err != nil {
			return MintOutcome{}, err
		}
		if out.SwapTotalFeeAmount, err = toUint64(feeAmount); err != nil {
			return MintOutcome{}, err
		}
	}

	if minted.Sign() <= 0 {
		return MintOutcome{}, fmt.Errorf("deposit too small to mint pool tokens: %w", ErrNonPositiveAmount)
	}
	var err error
	if out.PoolTokensOut, err = toUint64(minted); err != nil {
		return MintOutcome{}, err
	}

	if out.SwapFromAsset1 {
		out.SwapPriceImpact = priceImpact(asset1Reserves, asset2Reserves, out.SwapInAmount, out.SwapOutAmount)
	} else {
		out.SwapPriceImpact = priceImpact(asset2Reserves, asset1Reserves, out.SwapInAmount, out.SwapOutAmount)
	}
	return out, nil
}

// RemoveOutputs computes the proportional redemption for burning pool
// tokens. Floor division is exact when the full supply is burned, returning
// the complete reserves.
func RemoveOutputs(asset1Reserves, asset2Reserves, issuedPoolTokens, burnAmount uint64) (out1, out2 uint64, err error) {
	if issuedPoolTokens == 0 {
		return 0, 0, ErrNoLiquidity
	}
	if burnAmount == 0 {
		return 0, 0, fmt.Errorf("burn amount: %w", ErrNonPositiveAmount)
	}
	if burnAmount > issuedPoolTokens {
		return 0, 0, fmt.Errorf("burn %d of %d issued: %w",
			burnAmount, issuedPoolTokens, ErrInsufficientLiquidity)
	}

	o1 := mulDivFloor(bigU(asset1Reserves), bigU(burnAmount), bigU(issuedPoolTokens))
	o2 := mulDivFloor(bigU(asset2Reserves), bigU(burnAmount), bigU(issuedPoolTokens))
	if out1, err = toUint64(o1); err != nil {
		return 0, 0, err
	}
	if out2, err = toUint64(o2); err != nil {
		return 0, 0, err
	}
	return out1, out2, nil
}

// SplitFee divides a total fee between the protocol and the liquidity
// providers. The protocol cut floors so the remainder always favors the
// providers; a zero ratio leaves the whole fee with them.
func SplitFee(totalFeeAmount, protocolFeeRatio uint64) (protocolCut, providerCut uint64) {
	if protocolFeeRatio == 0 {
		return 0, totalFeeAmount
	}
	protocolCut = totalFeeAmount / protocolFeeRatio
	return protocolCut, totalFeeAmount - protocolCut
}

// priceImpact is the fractional deviation of the executed average price from
// the pre-trade spot price. Exact rational arithmetic, surfaced as float64
// for display only.
func priceImpact(inputSupply, outputSupply, amountIn, amountOut uint64) float64 {
	if amountIn == 0 || amountOut == 0 {
		return 0
	}
	executedOverSpot := new(big.Rat).SetFrac(
		new(big.Int).Mul(bigU(amountOut), bigU(inputSupply)),
		new(big.Int).Mul(bigU(amountIn), bigU(outputSupply)),
	)
	impact := new(big.Rat).Sub(big.NewRat(1, 1), executedOverSpot)
	if impact.Sign() < 0 {
		impact.Neg(impact)
	}
	f, _ := impact.Float64()
	return f
}

func bigU(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func mulDivFloor(a, b, div *big.Int) *big.Int {
	return new(big.Int).Quo(new(big.Int).Mul(a, b), div)
}

func mulDivCeil(a, b, div *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(new(big.Int).Mul(a, b), div, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// negPart returns max(0, -v) as a fresh value.
func negPart(v *big.Int) *big.Int {
	if v.Sign() >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Neg(v)
}

func toUint64(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("value %s: %w", v.String(), ErrAmountOverflow)
	}
	return v.Uint64(), nil
}
