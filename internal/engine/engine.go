// Package engine drives the quoting loop.
//
// The scheduler owns the active-market set and runs markets sequentially:
// one positions snapshot per cycle, one controller tick per market, with a
// short pause between markets and a longer one between cycles. Markets that
// pass their clear time or close on the exchange are retired; the process
// exits once the active set is empty.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"kalshi-mm/internal/risk"
	"kalshi-mm/internal/store"
	"kalshi-mm/pkg/types"
)

// Pacing between markets and between cycles. Tightening these risks rate
// limiting by the exchange.
const (
	defaultMarketPause = 1 * time.Second
	defaultCyclePause  = 15 * time.Second
)

// Engine schedules quoting across every market of one strategy profile.
type Engine struct {
	client   exchangeAPI
	guard    *risk.Guard
	store    *store.Store // optional
	strategy types.StrategyProfile
	logger   *slog.Logger

	active map[string]activeMarket
	states map[string]*marketState

	ctl *controller

	marketPause time.Duration
	cyclePause  time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates an engine for one strategy profile. st may be nil to disable
// state persistence.
func New(client exchangeAPI, guard *risk.Guard, st *store.Store, strategy types.StrategyProfile, logger *slog.Logger) *Engine {
	e := &Engine{
		client:      client,
		guard:       guard,
		store:       st,
		strategy:    strategy,
		logger:      logger.With("component", "engine"),
		active:      make(map[string]activeMarket),
		states:      make(map[string]*marketState),
		marketPause: defaultMarketPause,
		cyclePause:  defaultCyclePause,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	e.ctl = &controller{
		client: client,
		guard:  guard,
		store:  st,
		logger: e.logger,
		now:    func() time.Time { return e.now() },
		sleep:  func(ctx context.Context, d time.Duration) error { return e.sleep(ctx, d) },
	}
	return e
}

// Make clears any stale resting orders, then maintains the ladders until the
// active set empties or ctx is cancelled.
func (e *Engine) Make(ctx context.Context) error {
	if err := e.resolveMarkets(ctx); err != nil {
		return err
	}
	if err := e.Clear(ctx); err != nil {
		return err
	}

	for len(e.active) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Info(fmt.Sprintf("Managing active markets: %v", e.activeTickers()))

		positions, err := e.client.ListPositions(ctx)
		if err != nil {
			// The exchange may come back; keep ticking.
			e.logger.Error("failed to fetch positions", "error", err)
			if err := e.sleep(ctx, e.cyclePause); err != nil {
				return err
			}
			continue
		}

		for _, id := range e.activeIDs() {
			m := e.active[id]
			if !e.ctl.tick(ctx, m, e.states[id], positions) {
				e.retire(id)
			}
			if err := e.sleep(ctx, e.marketPause); err != nil {
				return err
			}
		}
		if err := e.sleep(ctx, e.cyclePause); err != nil {
			return err
		}
	}

	e.logger.Info("no active markets remain, exiting")
	return nil
}

// Clear cancels every resting order in every active market. No quoting.
func (e *Engine) Clear(ctx context.Context) error {
	if len(e.active) == 0 {
		if err := e.resolveMarkets(ctx); err != nil {
			return err
		}
	}

	for _, id := range e.activeIDs() {
		orders, err := e.client.ListRestingOrders(ctx, id)
		if err != nil {
			return fmt.Errorf("list orders in %s: %w", id, err)
		}
		if len(orders) == 0 {
			continue
		}
		e.logger.Info(fmt.Sprintf("Clearing %d orders from %s", len(orders), id))
		if err := e.ctl.cancelWithRetry(ctx, orderIDs(orders)); err != nil {
			return fmt.Errorf("clear orders in %s: %w", id, err)
		}
		if err := e.sleep(ctx, e.marketPause); err != nil {
			return err
		}
	}
	return nil
}

// resolveMarkets maps the profile's tickers to exchange market ids and
// initialises per-market state, restoring any persisted fair values. Tickers
// the exchange does not list are skipped with a warning.
func (e *Engine) resolveMarkets(ctx context.Context) error {
	if len(e.active) > 0 {
		return nil
	}

	rows, err := e.client.ListPublicMarkets(ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}
	byTicker := make(map[string]types.MarketRow, len(rows))
	for _, row := range rows {
		byTicker[row.TickerName] = row
	}

	for _, profile := range e.strategy.Markets {
		row, ok := byTicker[profile.MarketTicker]
		if !ok {
			e.logger.Warn("market not listed on exchange, skipping", "ticker", profile.MarketTicker)
			continue
		}
		e.active[row.ID] = activeMarket{ID: row.ID, Ticker: profile.MarketTicker, Profile: profile}
		e.states[row.ID] = e.loadState(row.ID)
	}
	return nil
}

func (e *Engine) loadState(marketID string) *marketState {
	if e.store == nil {
		return &marketState{}
	}
	saved, err := e.store.LoadState(marketID)
	if err != nil {
		e.logger.Error("failed to load market state", "market", marketID, "error", err)
		return &marketState{}
	}
	if saved == nil {
		return &marketState{}
	}
	e.logger.Info("restored market state",
		"market", marketID,
		"fair_value", saved.FairValue,
		"last_position", saved.LastPosition,
	)
	return &marketState{
		fairValue:    saved.FairValue,
		hasFairValue: saved.HasFairValue,
		lastPosition: saved.LastPosition,
	}
}

// retire removes a market from the active set. A retired market is never
// quoted again for the life of the process.
func (e *Engine) retire(marketID string) {
	delete(e.active, marketID)
	delete(e.states, marketID)
	e.guard.Remove(marketID)
	if e.store != nil {
		if err := e.store.Remove(marketID); err != nil {
			e.logger.Error("failed to remove market state", "market", marketID, "error", err)
		}
	}
}

// activeIDs returns the active market ids sorted for deterministic cycles.
func (e *Engine) activeIDs() []string {
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) activeTickers() []string {
	tickers := make([]string, 0, len(e.active))
	for _, id := range e.activeIDs() {
		tickers = append(tickers, e.active[id].Ticker)
	}
	return tickers
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
