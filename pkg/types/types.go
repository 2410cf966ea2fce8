// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the maker — environments,
// credentials, strategy profiles, order placement requests, and the typed
// rows decoded from the exchange's JSON responses. It has no dependencies
// on internal packages, so it can be imported by any layer.
package types

import (
	"fmt"
	"time"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Environment selects which exchange host the maker talks to.
type Environment string

const (
	EnvDemo Environment = "demo"
	EnvProd Environment = "prod"
)

// Host returns the HTTP base URL for the environment.
func (e Environment) Host() string {
	switch e {
	case EnvProd:
		return "https://trading-api.kalshi.com"
	default:
		return "https://demo-api.kalshi.co"
	}
}

// Valid reports whether the environment is one of the known values.
func (e Environment) Valid() bool {
	return e == EnvDemo || e == EnvProd
}

// Side is the contract side of an order. Prices are integer cents with
// price(yes) + price(no) = 100 by market convention.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// MinPrice and MaxPrice bound every valid contract price in cents.
const (
	MinPrice = 1
	MaxPrice = 99
)

// ————————————————————————————————————————————————————————————————————————
// Configuration
// ————————————————————————————————————————————————————————————————————————

// Credentials holds exchange login credentials for one environment.
// Immutable after load.
type Credentials struct {
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
	AdvancedAPI bool   `mapstructure:"advanced_api"`
}

// MarketProfile is the per-market quoting parameter set. Optional limits are
// pointers; nil means "no limit".
type MarketProfile struct {
	// MarketTicker is the human-readable market symbol, e.g. "HIGHNY-22DEC23-B53.5".
	MarketTicker string `mapstructure:"market_ticker"`

	// InstantLiquidityCents is the total notional the maker rests per side,
	// split evenly across Depth levels.
	InstantLiquidityCents int `mapstructure:"instant_liquidity_cents"`

	// MaxExposureCents caps combined resting + filled notional per side.
	MaxExposureCents int `mapstructure:"max_exposure_cents"`

	// PriceStickyness damps inventory into price: one cent of fair-value
	// movement requires this many contracts of inventory change.
	PriceStickyness int `mapstructure:"price_stickyness"`

	// Spread is the width in cents between the top yes and top no quotes.
	// Must be odd so the ladder sits symmetrically around fair value.
	Spread int `mapstructure:"spread"`

	// Depth is the number of price levels quoted per side.
	Depth int `mapstructure:"depth"`

	// MaxSpread skips the market while the public spread exceeds it.
	MaxSpread *int `mapstructure:"max_spread"`

	// MaxYesPrice / MinYesPrice clamp the yes-side price range inclusively;
	// the no side is clamped through the equivalent yes price.
	MaxYesPrice *int `mapstructure:"max_yes_price"`
	MinYesPrice *int `mapstructure:"min_yes_price"`

	// SnipeTimeoutSeconds is the cool-down after a detected snipe.
	SnipeTimeoutSeconds *int `mapstructure:"snipe_timeout_seconds"`

	// ClearTime is the wall-clock deadline at which the market is cancelled
	// and retired.
	ClearTime *time.Time `mapstructure:"clear_time"`
}

// Validate checks parameter ranges.
func (p MarketProfile) Validate() error {
	if p.MarketTicker == "" {
		return fmt.Errorf("market_ticker is required")
	}
	if p.InstantLiquidityCents <= 0 {
		return fmt.Errorf("%s: instant_liquidity_cents must be > 0", p.MarketTicker)
	}
	if p.MaxExposureCents <= 0 {
		return fmt.Errorf("%s: max_exposure_cents must be > 0", p.MarketTicker)
	}
	if p.PriceStickyness < 1 {
		return fmt.Errorf("%s: price_stickyness must be >= 1", p.MarketTicker)
	}
	if p.Spread < 1 || p.Spread%2 == 0 {
		return fmt.Errorf("%s: spread must be an odd integer >= 1", p.MarketTicker)
	}
	if p.Depth < 1 {
		return fmt.Errorf("%s: depth must be >= 1", p.MarketTicker)
	}
	if p.MaxYesPrice != nil && (*p.MaxYesPrice < MinPrice || *p.MaxYesPrice > MaxPrice) {
		return fmt.Errorf("%s: max_yes_price must be in [1,99]", p.MarketTicker)
	}
	if p.MinYesPrice != nil && (*p.MinYesPrice < MinPrice || *p.MinYesPrice > MaxPrice) {
		return fmt.Errorf("%s: min_yes_price must be in [1,99]", p.MarketTicker)
	}
	if p.MaxYesPrice != nil && p.MinYesPrice != nil && *p.MinYesPrice > *p.MaxYesPrice {
		return fmt.Errorf("%s: min_yes_price > max_yes_price", p.MarketTicker)
	}
	return nil
}

// ExpirationTS returns ClearTime as Unix seconds, or 0 when unset.
func (p MarketProfile) ExpirationTS() int64 {
	if p.ClearTime == nil {
		return 0
	}
	return p.ClearTime.Unix()
}

// StrategyProfile names an environment and the ordered markets to quote.
type StrategyProfile struct {
	Env     Environment     `mapstructure:"env"`
	Markets []MarketProfile `mapstructure:"markets"`
}

// Validate checks the environment and every market profile.
func (s StrategyProfile) Validate() error {
	if !s.Env.Valid() {
		return fmt.Errorf("env must be one of: demo, prod (got %q)", s.Env)
	}
	if len(s.Markets) == 0 {
		return fmt.Errorf("strategy has no markets")
	}
	for _, m := range s.Markets {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ————————————————————————————————————————————————————————————————————————
// Orders
// ————————————————————————————————————————————————————————————————————————

// Order is a limit-order placement request.
type Order struct {
	MarketID           string `json:"market_id"`
	Side               Side   `json:"side"`
	Price              int    `json:"price"`
	Count              int    `json:"count"`
	ExpirationUnixTS   int64  `json:"expiration_unix_ts"`
	SellPositionCapped bool   `json:"sell_position_capped"`
}

// ————————————————————————————————————————————————————————————————————————
// Exchange API rows
// ————————————————————————————————————————————————————————————————————————

// MarketRow is one entry of the public markets listing.
type MarketRow struct {
	ID         string `json:"id"`
	TickerName string `json:"ticker_name"`
	Status     string `json:"status"`
}

// MarketDetails is the per-market snapshot used by the quoting loop.
// All prices are integer cents.
type MarketDetails struct {
	Status    string `json:"status"`
	Volume    int    `json:"volume"`
	YesBid    int    `json:"yes_bid"`
	YesAsk    int    `json:"yes_ask"`
	LastPrice int    `json:"last_price"`
}

// PositionRow is the exchange's view of the maker's holdings in one market.
// Position is signed contracts (positive = long yes); PositionCost is the
// absolute cents invested, always non-negative.
type PositionRow struct {
	MarketID     string `json:"market_id"`
	Position     int    `json:"position"`
	PositionCost int    `json:"position_cost"`
}

// OrderRow is one of the maker's resting orders.
type OrderRow struct {
	OrderID        string `json:"order_id"`
	Price          int    `json:"price"`
	IsYes          bool   `json:"is_yes"`
	RemainingCount int    `json:"remaining_count"`
}

// Side returns the contract side of the resting order.
func (o OrderRow) Side() Side {
	if o.IsYes {
		return SideYes
	}
	return SideNo
}

// PlacedOrderRow is the exchange's confirmation of a placed order.
type PlacedOrderRow struct {
	OrderID string `json:"order_id"`
	Price   int    `json:"price"`
	Status  string `json:"status"`
}

// ————————————————————————————————————————————————————————————————————————
// Response envelopes
// ————————————————————————————————————————————————————————————————————————

// LoginResponse is the body of POST /v1/log_in.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// MarketsResponse wraps GET /v1/markets.
type MarketsResponse struct {
	Markets []MarketRow `json:"markets"`
}

// MarketResponse wraps GET /v1/markets_by_ticker/<ticker>.
type MarketResponse struct {
	Market MarketDetails `json:"market"`
}

// PositionsResponse wraps GET /v1/users/<id>/positions.
type PositionsResponse struct {
	MarketPositions []PositionRow `json:"market_positions"`
}

// OrdersResponse wraps GET /v1/users/<id>/orders.
type OrdersResponse struct {
	Orders []OrderRow `json:"orders"`
}

// OrderBookResponse wraps GET /v1/markets_by_ticker/<ticker>/order_book.
// Each level is a [price, quantity] pair; the exchange returns both sides
// sorted descending by price.
type OrderBookResponse struct {
	OrderBook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"order_book"`
}

// PlacedOrdersResponse wraps POST /v1/users/<id>/batch_orders.
type PlacedOrdersResponse struct {
	Orders []PlacedOrderRow `json:"orders"`
}

// PlacedOrderResponse wraps POST /v1/users/<id>/orders (single-order API).
type PlacedOrderResponse struct {
	Order PlacedOrderRow `json:"order"`
}
