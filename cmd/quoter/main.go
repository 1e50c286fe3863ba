package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/velith/poolengine/internal/assets"
	"github.com/velith/poolengine/internal/config"
	"github.com/velith/poolengine/internal/logger"
	"github.com/velith/poolengine/internal/pool"
	"github.com/velith/poolengine/internal/report"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Constant-product pool quoting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "config.yaml", "config file path")
	root.PersistentFlags().Float64("slippage", -1, "slippage tolerance in [0, 1); -1 uses the configured default")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show pool reserves, fees and state",
		RunE:  runInfo,
	}
	root.AddCommand(infoCmd)

	swapCmd := &cobra.Command{
		Use:   "swap <asset-id> <amount>",
		Short: "Quote a swap",
		Args:  cobra.ExactArgs(2),
		RunE:  runSwap,
	}
	swapCmd.Flags().Bool("fixed-output", false, "treat <amount> as the exact output instead of the exact input")
	root.AddCommand(swapCmd)

	addCmd := &cobra.Command{
		Use:   "add <asset-id> <amount> [<asset-id> <amount>]",
		Short: "Quote an add-liquidity deposit",
		Args:  cobra.RangeArgs(2, 4),
		RunE:  runAdd,
	}
	root.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:   "remove <pool-tokens>",
		Short: "Quote a remove-liquidity redemption",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
	removeCmd.Flags().Uint64("output-asset", 0, "pay out entirely in this asset id")
	root.AddCommand(removeCmd)

	positionCmd := &cobra.Command{
		Use:   "position <pool-tokens>",
		Short: "Value a pool-token balance",
		Args:  cobra.ExactArgs(1),
		RunE:  runPosition,
	}
	root.AddCommand(positionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *assets.StaticRegistry
	pool     *pool.Pool
	slippage float64
}

// setup wires config, logging, the snapshot source and the pool controller
// for one command invocation.
func setup(cmd *cobra.Command) (*app, context.Context, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	registry := assets.NewStaticRegistry()
	for _, a := range cfg.Assets {
		registry.Register(assets.Asset{
			ID:       a.ID,
			Name:     a.Name,
			UnitName: a.UnitName,
			Decimals: a.Decimals,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	assetA, err := registry.FetchAsset(ctx, cfg.Assets[0].ID)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	assetB, err := registry.FetchAsset(ctx, cfg.Assets[1].ID)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}

	var source pool.SnapshotSource = pool.NewFileSource(cfg.SnapshotFile)
	if cfg.RefreshRetries > 0 {
		source = pool.NewRetrySource(source, log.Logger,
			uint(cfg.RefreshRetries), time.Duration(cfg.RefreshDelayMs)*time.Millisecond)
	}

	// The pool token id is usually absent from the configured asset list;
	// fall back to a synthesized placeholder rather than failing the refresh.
	p, err := pool.New(source, &assets.FallbackRegistry{Primary: registry}, log.Logger, assetA, assetB, cfg.AppID)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}

	slippage, _ := cmd.Flags().GetFloat64("slippage")
	if slippage < 0 {
		slippage = cfg.DefaultSlippage
	}

	cleanup := func() {
		stop()
		_ = log.Sync()
	}
	return &app{cfg: cfg, log: log, registry: registry, pool: p, slippage: slippage}, ctx, cleanup, nil
}

func (a *app) amount(ctx context.Context, assetID, amount string) (assets.AssetAmount, error) {
	id, err := strconv.ParseUint(assetID, 10, 64)
	if err != nil {
		return assets.AssetAmount{}, fmt.Errorf("asset id %q: %w", assetID, err)
	}
	value, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return assets.AssetAmount{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	asset, err := a.registry.FetchAsset(ctx, id)
	if err != nil {
		return assets.AssetAmount{}, err
	}
	return assets.NewAssetAmount(asset, value), nil
}

func (a *app) poolTokenAmount(ctx context.Context, amount string) (assets.AssetAmount, error) {
	value, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return assets.AssetAmount{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	snap, err := a.pool.Refresh(ctx)
	if err != nil {
		return assets.AssetAmount{}, err
	}
	if !snap.Exists {
		return assets.AssetAmount{}, pool.ErrBootstrapRequired
	}
	return assets.NewAssetAmount(snap.PoolTokenAsset, value), nil
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := a.pool.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.PoolInfo(info))
	return nil
}

func runSwap(cmd *cobra.Command, args []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	amount, err := a.amount(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fixedOutput, _ := cmd.Flags().GetBool("fixed-output")

	defer a.log.TrackPerformance("swap_quote")()

	var quote *pool.SwapQuote
	if fixedOutput {
		quote, err = a.pool.FetchFixedOutputSwapQuote(ctx, amount, a.slippage)
	} else {
		quote, err = a.pool.FetchFixedInputSwapQuote(ctx, amount, a.slippage)
	}
	if err != nil {
		a.log.LogError("Swap quote failed", err, zap.String("amount", amount.String()))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.SwapQuote(quote))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if len(args) != 2 && len(args) != 4 {
		return errors.New("expected one or two <asset-id> <amount> pairs")
	}

	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	first, err := a.amount(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	defer a.log.TrackPerformance("add_liquidity_quote")()

	var quote pool.Quote
	if len(args) == 2 {
		quote, err = a.pool.FetchSingleAssetAddLiquidityQuote(ctx, first, a.slippage)
	} else {
		var second assets.AssetAmount
		second, err = a.amount(ctx, args[2], args[3])
		if err != nil {
			return err
		}
		if a.pool.State() == pool.BootstrappedEmpty {
			quote, err = a.pool.FetchInitialAddLiquidityQuote(ctx, first, second)
		} else {
			quote, err = a.pool.FetchFlexibleAddLiquidityQuote(ctx, first, second, a.slippage)
		}
	}
	if err != nil {
		a.log.LogError("Add-liquidity quote failed", err)
		return err
	}

	out, err := report.AddLiquidityQuote(quote)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	poolTokens, err := a.poolTokenAmount(ctx, args[0])
	if err != nil {
		return err
	}

	defer a.log.TrackPerformance("remove_liquidity_quote")()

	var quote pool.Quote
	outputAssetID, _ := cmd.Flags().GetUint64("output-asset")
	if outputAssetID != 0 {
		outputAsset, fetchErr := a.registry.FetchAsset(ctx, outputAssetID)
		if fetchErr != nil {
			return fetchErr
		}
		quote, err = a.pool.FetchSingleAssetRemoveLiquidityQuote(ctx, poolTokens, outputAsset, a.slippage)
	} else {
		quote, err = a.pool.FetchRemoveLiquidityQuote(ctx, poolTokens, a.slippage)
	}
	if err != nil {
		a.log.LogError("Remove-liquidity quote failed", err)
		return err
	}

	out, err := report.RemoveLiquidityQuote(quote)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runPosition(cmd *cobra.Command, args []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	balance, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("balance %q: %w", args[0], err)
	}

	position, err := a.pool.FetchPoolPosition(ctx, balance)
	if err != nil {
		a.log.LogError("Position lookup failed", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Position(position))
	return nil
}
