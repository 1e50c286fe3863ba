package pool

import (
	"fmt"

	"github.com/velith/poolengine/internal/assets"
)

// TransferIntent is the settlement shape a quote resolves to: which amounts
// leave the participant, which come back, and whether each leg is exact or a
// slippage bound. Transaction preparers consume this instead of switching on
// quote types themselves.
type TransferIntent struct {
	// Pay lists amounts the participant sends. PayIsBound marks the single
	// fixed-output case where Pay carries an upper bound instead of an
	// exact amount.
	Pay        []assets.AssetAmount
	PayIsBound bool

	// Receive lists amounts owed back. ReceiveIsBound marks legs that are
	// protected lower bounds rather than exact amounts.
	Receive        []assets.AssetAmount
	ReceiveIsBound bool

	Round uint64
}

// BuildTransferIntent maps each quote variant to its transfer legs. Every
// variant is covered; an unknown Quote implementation is an error.
func BuildTransferIntent(q Quote) (*TransferIntent, error) {
	switch quote := q.(type) {
	case *InitialAddLiquidityQuote:
		return &TransferIntent{
			Pay:     []assets.AssetAmount{quote.Amount1In, quote.Amount2In},
			Receive: []assets.AssetAmount{quote.PoolTokensOut},
			Round:   quote.Round,
		}, nil

	case *FlexibleAddLiquidityQuote:
		return &TransferIntent{
			Pay:            []assets.AssetAmount{quote.Amount1In, quote.Amount2In},
			Receive:        []assets.AssetAmount{quote.MinPoolTokensOutWithSlippage()},
			ReceiveIsBound: true,
			Round:          quote.Round,
		}, nil

	case *SingleAssetAddLiquidityQuote:
		return &TransferIntent{
			Pay:            []assets.AssetAmount{quote.AmountIn},
			Receive:        []assets.AssetAmount{quote.MinPoolTokensOutWithSlippage()},
			ReceiveIsBound: true,
			Round:          quote.Round,
		}, nil

	case *RemoveLiquidityQuote:
		min1, min2 := quote.MinAmountsOutWithSlippage()
		return &TransferIntent{
			Pay:            []assets.AssetAmount{quote.PoolTokensIn},
			Receive:        []assets.AssetAmount{min1, min2},
			ReceiveIsBound: true,
			Round:          quote.Round,
		}, nil

	case *SingleAssetRemoveLiquidityQuote:
		return &TransferIntent{
			Pay:            []assets.AssetAmount{quote.PoolTokensIn},
			Receive:        []assets.AssetAmount{quote.MinAmountOutWithSlippage()},
			ReceiveIsBound: true,
			Round:          quote.Round,
		}, nil

	case *SwapQuote:
		intent := &TransferIntent{
			Pay:     []assets.AssetAmount{quote.AmountInWithSlippage()},
			Receive: []assets.AssetAmount{quote.AmountOutWithSlippage()},
			Round:   quote.Round,
		}
		switch quote.Type {
		case SwapFixedInput:
			intent.ReceiveIsBound = true
		case SwapFixedOutput:
			intent.PayIsBound = true
		default:
			return nil, fmt.Errorf("unknown swap type %q", quote.Type)
		}
		return intent, nil

	default:
		return nil, fmt.Errorf("unknown quote variant %T", q)
	}
}
