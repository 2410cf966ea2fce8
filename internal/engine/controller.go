package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kalshi-mm/internal/market"
	"kalshi-mm/internal/risk"
	"kalshi-mm/internal/store"
	"kalshi-mm/internal/strategy"
	"kalshi-mm/pkg/types"
)

// exchangeAPI is the slice of the exchange client the engine needs. Tests
// substitute a scripted fake.
type exchangeAPI interface {
	ListPublicMarkets(ctx context.Context) ([]types.MarketRow, error)
	GetMarket(ctx context.Context, ticker string) (*types.MarketDetails, error)
	ListPositions(ctx context.Context) (map[string]types.PositionRow, error)
	ListRestingOrders(ctx context.Context, marketID string) ([]types.OrderRow, error)
	CancelOrders(ctx context.Context, orderIDs []string) error
	PlaceOrders(ctx context.Context, orders []types.Order) ([]types.PlacedOrderRow, error)
}

// activeMarket is one entry of the active-market set.
type activeMarket struct {
	ID      string
	Ticker  string
	Profile types.MarketProfile
}

// marketState is the controller's per-market quoting state. A market with
// hasFairValue=false is quoted only after re-seeding from the public mid.
type marketState struct {
	fairValue    int
	hasFairValue bool
	lastPosition int
}

// controller runs one pass of the quoting loop for one market.
type controller struct {
	client exchangeAPI
	guard  *risk.Guard
	store  *store.Store // optional
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

const cancelRetryPause = time.Second

// tick runs the quoting state machine once for m. It returns false when the
// market must leave the active set (clear time passed or exchange reports it
// closed). Transient errors skip the tick and keep the market active.
func (c *controller) tick(ctx context.Context, m activeMarket, state *marketState, positions map[string]types.PositionRow) bool {
	details, err := c.client.GetMarket(ctx, m.Ticker)
	if err != nil {
		c.logger.Error("failed to fetch market", "market", m.Ticker, "error", err)
		return true
	}

	orders, err := c.client.ListRestingOrders(ctx, m.ID)
	if err != nil {
		c.logger.Error("failed to fetch resting orders", "market", m.Ticker, "error", err)
		return true
	}

	// Retirement check.
	if m.Profile.ClearTime != nil && c.now().After(*m.Profile.ClearTime) {
		c.logger.Info(fmt.Sprintf("Clearing: %s (passed clear time)", m.Ticker))
		if err := c.cancelWithRetry(ctx, orderIDs(orders)); err != nil {
			c.logger.Error("failed to clear retired market", "market", m.Ticker, "error", err)
		}
		return false
	}
	if details.Status != "active" {
		c.logger.Info(fmt.Sprintf("Stopping: %s (closed)", m.Ticker))
		return false
	}

	// Snipe cool-down.
	if timeout := snipeTimeout(m.Profile); c.guard.CoolingDown(m.ID, timeout) {
		return true
	}

	// Never quote into a market that has never traded.
	if details.Volume == 0 {
		return true
	}

	spreadSize := details.YesAsk - details.YesBid
	mid := details.YesBid + spreadSize/2

	if m.Profile.MaxSpread != nil && spreadSize > *m.Profile.MaxSpread {
		return true
	}

	// Snipe detection: the mid has run more than half a spread away from the
	// tracked fair value. Abandon the market until the cool-down elapses; the
	// tick after that re-seeds from the mid.
	if state.hasFairValue && abs(state.fairValue-mid) > spreadSize/2 {
		c.guard.Trip(m.ID, state.fairValue, mid)
		state.hasFairValue = false
		state.lastPosition = 0
		c.persist(m.ID, state)
		return true
	}

	position, hasPosition := positions[m.ID]
	positionCount := 0
	if hasPosition {
		positionCount = position.Position
	}

	if !state.hasFairValue {
		state.fairValue = mid
		state.hasFairValue = true
		state.lastPosition = positionCount
	}

	// Inventory damping: every price_stickyness contracts acquired moves the
	// fair value one cent against the inventory. Partial steps stay owed in
	// lastPosition, so (positionCount - lastPosition) never exceeds a full
	// step in magnitude.
	changed := positionCount - state.lastPosition
	steps := changed / m.Profile.PriceStickyness
	state.fairValue -= steps
	state.lastPosition += steps * m.Profile.PriceStickyness

	if state.fairValue < types.MinPrice || state.fairValue > types.MaxPrice {
		// A fair value outside the price domain indicates a bug, not market
		// conditions. Quoting from it would corrupt the book.
		panic(fmt.Sprintf("fair value %d outside [%d,%d] in %s",
			state.fairValue, types.MinPrice, types.MaxPrice, m.Ticker))
	}

	var positionRow *types.PositionRow
	if hasPosition {
		positionRow = &position
	}
	desiredYes, desiredNo := strategy.PlanLadder(m.Profile, positionRow, orders, state.fairValue)
	currentYes, currentNo := market.FromRestingOrders(orders)
	delta := strategy.Reconcile(m.ID, desiredYes, desiredNo, &currentYes, &currentNo, orders, m.Profile.ExpirationTS())

	c.persist(m.ID, state)

	if delta.Empty() {
		return true
	}

	// Cancels must land before places so the freed exposure is usable.
	if err := c.cancelWithRetry(ctx, delta.CancelIDs); err != nil {
		c.logger.Error("failed to cancel orders", "market", m.Ticker, "error", err)
		return true
	}
	if _, err := c.client.PlaceOrders(ctx, delta.Places); err != nil {
		c.logger.Error(fmt.Sprintf("Failed to place orders in %s: %s", m.Ticker, err))
	}
	return true
}

// cancelWithRetry cancels the given orders, retrying once after a pause.
// A cancel that fails twice aborts the tick's mutations so stale orders are
// never doubled up by fresh places.
func (c *controller) cancelWithRetry(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	err := c.client.CancelOrders(ctx, orderIDs)
	if err == nil {
		return nil
	}
	c.logger.Warn("cancel failed, retrying", "error", err)
	if err := c.sleep(ctx, cancelRetryPause); err != nil {
		return err
	}
	return c.client.CancelOrders(ctx, orderIDs)
}

// persist saves the market's quoting state so a restart resumes with the
// same fair value. Best effort.
func (c *controller) persist(marketID string, state *marketState) {
	if c.store == nil {
		return
	}
	err := c.store.SaveState(marketID, store.MarketState{
		FairValue:    state.fairValue,
		HasFairValue: state.hasFairValue,
		LastPosition: state.lastPosition,
	})
	if err != nil {
		c.logger.Error("failed to persist market state", "market", marketID, "error", err)
	}
}

func snipeTimeout(p types.MarketProfile) time.Duration {
	if p.SnipeTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*p.SnipeTimeoutSeconds) * time.Second
}

func orderIDs(orders []types.OrderRow) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	return ids
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
