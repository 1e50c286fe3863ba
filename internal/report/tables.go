// Package report renders pool and quote summaries as terminal tables.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/velith/poolengine/internal/assets"
	"github.com/velith/poolengine/internal/pool"
)

func fmtAmount(a assets.AssetAmount) string {
	if a.Asset.Decimals == 0 {
		return fmt.Sprintf("%d %s", a.Amount, a.Asset.UnitName)
	}
	div := uint64(1)
	for i := uint32(0); i < a.Asset.Decimals; i++ {
		div *= 10
	}
	return fmt.Sprintf("%d.%0*d %s", a.Amount/div, a.Asset.Decimals, a.Amount%div, a.Asset.UnitName)
}

func fmtPercent(v float64) string {
	return fmt.Sprintf("%.4f%%", v*100)
}

func fmtFeeShare(partsPerThousand uint64) string {
	return fmt.Sprintf("%.2f%%", float64(partsPerThousand)/10)
}

// PoolInfo renders the pool summary table.
func PoolInfo(info pool.Info) string {
	builder := &strings.Builder{}
	t := table.NewWriter()
	t.SetOutputMirror(builder)
	t.SetTitle("%s / %s", info.Asset1.UnitName, info.Asset2.UnitName)
	t.SetCaption("Constant-product pool")
	t.Style().Size.WidthMax = 100
	t.AppendHeader(table.Row{"", "Asset 1", "Asset 2"})
	t.AppendRow(table.Row{"Name", info.Asset1.Name, info.Asset2.Name})
	t.AppendRow(table.Row{"ID", info.Asset1.ID, info.Asset2.ID})
	t.AppendRow(table.Row{"Decimals", info.Asset1.Decimals, info.Asset2.Decimals})
	t.AppendRow(table.Row{"Reserves", info.Asset1Reserves, info.Asset2Reserves})
	t.AppendSeparator()
	t.AppendRow(table.Row{"State", info.State.String(), info.State.String()},
		table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	t.AppendRow(table.Row{"Issued pool tokens", info.IssuedPoolTokens, info.IssuedPoolTokens},
		table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	feeRow := fmtFeeShare(info.TotalFeeShare)
	t.AppendRow(table.Row{"Total fee", feeRow, feeRow},
		table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	t.AppendRow(table.Row{"Round", info.Round, info.Round},
		table.RowConfig{AutoMerge: true, AutoMergeAlign: text.AlignLeft})
	t.Render()
	return builder.String()
}

// SwapQuote renders one swap quote with its slippage-protected bounds.
func SwapQuote(q *pool.SwapQuote) string {
	builder := &strings.Builder{}
	t := table.NewWriter()
	t.SetOutputMirror(builder)
	t.SetTitle("Swap quote (%s)", q.Type)
	t.Style().Size.WidthMax = 100
	t.AppendRow(table.Row{"Amount in", fmtAmount(q.AmountIn)})
	t.AppendRow(table.Row{"Amount out", fmtAmount(q.AmountOut)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Max pay", fmtAmount(q.AmountInWithSlippage())})
	t.AppendRow(table.Row{"Min receive", fmtAmount(q.AmountOutWithSlippage())})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Total fee", fmtAmount(q.SwapFees)})
	t.AppendRow(table.Row{"Protocol fee", fmtAmount(q.ProtocolFees)})
	t.AppendRow(table.Row{"Provider fee", fmtAmount(q.ProviderFees)})
	t.AppendRow(table.Row{"Price impact", fmtPercent(q.PriceImpact)})
	t.AppendRow(table.Row{"Slippage", fmtPercent(q.Slippage)})
	t.AppendRow(table.Row{"Round", q.Round})
	t.Render()
	return builder.String()
}

// AddLiquidityQuote renders any of the three deposit quote variants.
func AddLiquidityQuote(q pool.Quote) (string, error) {
	builder := &strings.Builder{}
	t := table.NewWriter()
	t.SetOutputMirror(builder)
	t.Style().Size.WidthMax = 100

	switch quote := q.(type) {
	case *pool.InitialAddLiquidityQuote:
		t.SetTitle("Initial add-liquidity quote")
		t.AppendRow(table.Row{"Amount 1 in", fmtAmount(quote.Amount1In)})
		t.AppendRow(table.Row{"Amount 2 in", fmtAmount(quote.Amount2In)})
		t.AppendRow(table.Row{"Pool tokens out", fmtAmount(quote.PoolTokensOut)})
		t.AppendRow(table.Row{"Round", quote.Round})
	case *pool.FlexibleAddLiquidityQuote:
		t.SetTitle("Flexible add-liquidity quote")
		t.AppendRow(table.Row{"Amount 1 in", fmtAmount(quote.Amount1In)})
		t.AppendRow(table.Row{"Amount 2 in", fmtAmount(quote.Amount2In)})
		t.AppendRow(table.Row{"Pool tokens out", fmtAmount(quote.PoolTokensOut)})
		t.AppendRow(table.Row{"Min pool tokens out", fmtAmount(quote.MinPoolTokensOutWithSlippage())})
		appendInternalSwap(t, quote.InternalSwap)
		t.AppendRow(table.Row{"Slippage", fmtPercent(quote.Slippage)})
		t.AppendRow(table.Row{"Round", quote.Round})
	case *pool.SingleAssetAddLiquidityQuote:
		t.SetTitle("Single-asset add-liquidity quote")
		t.AppendRow(table.Row{"Amount in", fmtAmount(quote.AmountIn)})
		t.AppendRow(table.Row{"Pool tokens out", fmtAmount(quote.PoolTokensOut)})
		t.AppendRow(table.Row{"Min pool tokens out", fmtAmount(quote.MinPoolTokensOutWithSlippage())})
		appendInternalSwap(t, quote.InternalSwap)
		t.AppendRow(table.Row{"Slippage", fmtPercent(quote.Slippage)})
		t.AppendRow(table.Row{"Round", quote.Round})
	default:
		return "", fmt.Errorf("not an add-liquidity quote: %T", q)
	}

	t.Render()
	return builder.String(), nil
}

// RemoveLiquidityQuote renders both redemption quote variants.
func RemoveLiquidityQuote(q pool.Quote) (string, error) {
	builder := &strings.Builder{}
	t := table.NewWriter()
	t.SetOutputMirror(builder)
	t.Style().Size.WidthMax = 100

	switch quote := q.(type) {
	case *pool.RemoveLiquidityQuote:
		min1, min2 := quote.MinAmountsOutWithSlippage()
		t.SetTitle("Remove-liquidity quote")
		t.AppendRow(table.Row{"Pool tokens in", fmtAmount(quote.PoolTokensIn)})
		t.AppendRow(table.Row{"Amount 1 out", fmtAmount(quote.Amount1Out)})
		t.AppendRow(table.Row{"Amount 2 out", fmtAmount(quote.Amount2Out)})
		t.AppendRow(table.Row{"Min amount 1 out", fmtAmount(min1)})
		t.AppendRow(table.Row{"Min amount 2 out", fmtAmount(min2)})
		t.AppendRow(table.Row{"Slippage", fmtPercent(quote.Slippage)})
		t.AppendRow(table.Row{"Round", quote.Round})
	case *pool.SingleAssetRemoveLiquidityQuote:
		t.SetTitle("Single-asset remove-liquidity quote")
		t.AppendRow(table.Row{"Pool tokens in", fmtAmount(quote.PoolTokensIn)})
		t.AppendRow(table.Row{"Amount out", fmtAmount(quote.AmountOut)})
		t.AppendRow(table.Row{"Min amount out", fmtAmount(quote.MinAmountOutWithSlippage())})
		appendInternalSwap(t, quote.InternalSwap)
		t.AppendRow(table.Row{"Slippage", fmtPercent(quote.Slippage)})
		t.AppendRow(table.Row{"Round", quote.Round})
	default:
		return "", fmt.Errorf("not a remove-liquidity quote: %T", q)
	}

	t.Render()
	return builder.String(), nil
}

// Position renders the redemption value of a pool-token balance.
func Position(p *pool.Position) string {
	builder := &strings.Builder{}
	t := table.NewWriter()
	t.SetOutputMirror(builder)
	t.SetTitle("Pool position")
	t.Style().Size.WidthMax = 100
	t.AppendRow(table.Row{"Pool tokens", fmtAmount(p.PoolTokens)})
	t.AppendRow(table.Row{"Asset 1 value", fmtAmount(p.Amount1)})
	t.AppendRow(table.Row{"Asset 2 value", fmtAmount(p.Amount2)})
	t.AppendRow(table.Row{"Pool share", fmtPercent(p.Share)})
	t.Render()
	return builder.String()
}

func appendInternalSwap(t table.Writer, swap *pool.InternalSwapQuote) {
	if swap == nil {
		return
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Internal swap in", fmtAmount(swap.AmountIn)})
	t.AppendRow(table.Row{"Internal swap out", fmtAmount(swap.AmountOut)})
	t.AppendRow(table.Row{"Internal swap fees", fmtAmount(swap.SwapFees)})
	t.AppendRow(table.Row{"Internal swap impact", fmtPercent(swap.PriceImpact)})
}
