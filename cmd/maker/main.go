// Kalshi Market Maker — an automated market-making daemon for binary
// prediction markets.
//
// Architecture:
//
//	main.go              — CLI entry point: make / clear subcommands
//	engine/engine.go     — scheduler: one tick per market per cycle, retires finished markets
//	engine/controller.go — per-market quoting state machine (seed, damp, snipe, reconcile)
//	strategy/ladder.go   — pure integer ladder planner around the tracked fair value
//	strategy/reconcile.go— minimal cancel/place delta between desired and resting books
//	market/book.go       — dense price→quantity order-book views
//	exchange/client.go   — typed REST client with batched, paced order mutations
//	exchange/session.go  — bearer-token auth with 5 h refresh
//	risk/snipe.go        — snipe detection cool-down guard
//	store/store.go       — JSON file persistence of fair values (survives restarts)
//
// How it makes money:
//
//	The maker rests a symmetric ladder of yes and no orders around its fair
//	value and earns the spread when both sides fill. Fills move the fair
//	value against the acquired inventory, so one-sided flow prices itself
//	out instead of accumulating risk. Markets that jump away from the fair
//	value are abandoned until a cool-down elapses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"kalshi-mm/internal/config"
	"kalshi-mm/internal/engine"
	"kalshi-mm/internal/exchange"
	"kalshi-mm/internal/risk"
	"kalshi-mm/internal/store"
	"kalshi-mm/pkg/types"
)

var flags struct {
	credentials string
	strategies  string
	dataDir     string
	dryRun      bool
	logging     config.Logging
}

func main() {
	root := &cobra.Command{
		Use:          "maker <operation> [profile]",
		Short:        "Automated market maker for binary prediction markets",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.credentials, "credentials", "./credentials.yaml", "path to the credentials file")
	root.PersistentFlags().StringVar(&flags.strategies, "strategies", "./strategies.yaml", "path to the strategy profiles file")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "./data", "directory for persisted market state")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "log order mutations instead of sending them")
	root.PersistentFlags().StringVar(&flags.logging.Level, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logging.Format, "log-format", "text", "log format: text or json")
	root.PersistentFlags().StringVar(&flags.logging.File, "log-file", "", "rotate logs to this file instead of stdout")

	root.AddCommand(
		&cobra.Command{
			Use:   "make [profile]",
			Short: "Maintain resting order ladders per the strategy profile",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(profileArg(args), func(ctx context.Context, e *engine.Engine) error {
					return e.Make(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "clear [profile]",
			Short: "Cancel every resting order in the profile's markets",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(profileArg(args), func(ctx context.Context, e *engine.Engine) error {
					return e.Clear(ctx)
				})
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func profileArg(args []string) string {
	if len(args) == 0 {
		return "default"
	}
	return args[0]
}

func run(profile string, op func(context.Context, *engine.Engine) error) error {
	logger := config.NewLogger(flags.logging)

	strategies, err := config.LoadStrategies(flags.strategies)
	if err != nil {
		return err
	}
	strat, ok := strategies[profile]
	if !ok {
		fmt.Println("No strategy found with this name.")
		return nil
	}

	fmt.Println("Running Strategy:", profile)
	printStrategy(strat)

	creds, err := config.LoadCredentials(flags.credentials, strat.Env)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	st, err := store.Open(flags.dataDir)
	if err != nil {
		return err
	}

	client := exchange.NewClient(strat.Env, creds, flags.dryRun, logger)
	guard := risk.NewGuard(logger)
	eng := engine.New(client, guard, st, strat, logger)

	if flags.dryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}
	logger.Info("maker starting",
		"profile", profile,
		"env", strat.Env,
		"markets", len(strat.Markets),
		"dry_run", flags.dryRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := op(ctx, eng); err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() != nil {
		logger.Info("received shutdown signal")
	}
	return nil
}

// printStrategy renders the profile's markets as a table so the operator can
// eyeball the parameters before any order goes out.
func printStrategy(strat types.StrategyProfile) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Ticker", "Liquidity", "Max Exposure", "Spread", "Depth", "Stickyness", "Max Spread", "Clear Time")

	for _, m := range strat.Markets {
		maxSpread := "-"
		if m.MaxSpread != nil {
			maxSpread = fmt.Sprintf("%d", *m.MaxSpread)
		}
		clearTime := "-"
		if m.ClearTime != nil {
			clearTime = m.ClearTime.Format(time.RFC3339)
		}
		table.Append(
			m.MarketTicker,
			fmt.Sprintf("%d¢", m.InstantLiquidityCents),
			fmt.Sprintf("%d¢", m.MaxExposureCents),
			fmt.Sprintf("%d", m.Spread),
			fmt.Sprintf("%d", m.Depth),
			fmt.Sprintf("%d", m.PriceStickyness),
			maxSpread,
			clearTime,
		)
	}
	table.Render()
	fmt.Println()
}
