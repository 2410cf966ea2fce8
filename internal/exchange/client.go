// Package exchange implements the authenticated REST client for the
// prediction-market exchange's v1 HTTP surface:
//
//   - ListPublicMarkets:   GET    /v1/markets
//   - GetMarket:           GET    /v1/markets_by_ticker/<ticker>
//   - GetPublicOrderBook:  GET    /v1/markets_by_ticker/<ticker>/order_book
//   - ListPositions:       GET    /v1/users/<id>/positions
//   - ListRestingOrders:   GET    /v1/users/<id>/orders?market_id=&status=resting
//   - PlaceOrders:         POST   /v1/users/<id>/orders | /batch_orders
//   - CancelOrders:        DELETE /v1/users/<id>/orders/<oid> | /batch_orders
//
// Every call refreshes authentication through the Session first and carries
// the "<user_id> <token>" Authorization header. Batched mutations are capped
// at 19 entries per request and paced at one request per 300 ms to respect
// exchange rate limits; accounts without the advanced API fall back to
// per-order requests under the same pacing.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"kalshi-mm/internal/market"
	"kalshi-mm/pkg/types"
)

const (
	// batchLimit is the maximum entries per batch create/cancel request.
	batchLimit = 19

	// batchInterval paces successive mutating requests.
	batchInterval = 300 * time.Millisecond

	requestTimeout = 10 * time.Second
)

// HTTPError is the transport error raised for non-2xx responses.
type HTTPError struct {
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Reason)
}

func httpError(resp *resty.Response) error {
	return &HTTPError{Status: resp.StatusCode(), Reason: http.StatusText(resp.StatusCode())}
}

// Client is the typed exchange API client. It wraps a resty HTTP client with
// session auth and mutation pacing.
type Client struct {
	http    *resty.Client
	session *Session
	limiter *rate.Limiter // paces mutating batches
	dryRun  bool
	logger  *slog.Logger
}

// NewClient creates a client for the environment's exchange host.
func NewClient(env types.Environment, creds types.Credentials, dryRun bool, logger *slog.Logger) *Client {
	return NewClientWithHost(env.Host(), creds, dryRun, logger)
}

// NewClientWithHost creates a client against an explicit base URL.
func NewClientWithHost(host string, creds types.Credentials, dryRun bool, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(host).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    httpClient,
		session: NewSession(httpClient, creds, logger),
		limiter: rate.NewLimiter(rate.Every(batchInterval), 1),
		dryRun:  dryRun,
		logger:  logger.With("component", "exchange"),
	}
}

// AdvancedAPI reports whether the account may use the batch endpoints.
func (c *Client) AdvancedAPI() bool {
	return c.session.creds.AdvancedAPI
}

// ListPublicMarkets returns the public markets listing.
func (c *Client) ListPublicMarkets(ctx context.Context) ([]types.MarketRow, error) {
	var result types.MarketsResponse
	if err := c.get(ctx, "/v1/markets", nil, &result, "list markets"); err != nil {
		return nil, err
	}
	return result.Markets, nil
}

// GetMarket fetches the quoting snapshot for one market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*types.MarketDetails, error) {
	var result types.MarketResponse
	if err := c.get(ctx, "/v1/markets_by_ticker/"+ticker, nil, &result, "get market"); err != nil {
		return nil, err
	}
	return &result.Market, nil
}

// ListPositions returns the maker's positions keyed by market id.
func (c *Client) ListPositions(ctx context.Context) (map[string]types.PositionRow, error) {
	if err := c.session.RequireAuth(ctx); err != nil {
		return nil, err
	}
	var result types.PositionsResponse
	if err := c.get(ctx, c.session.UserPath()+"/positions", nil, &result, "list positions"); err != nil {
		return nil, err
	}
	positions := make(map[string]types.PositionRow, len(result.MarketPositions))
	for _, row := range result.MarketPositions {
		positions[row.MarketID] = row
	}
	return positions, nil
}

// ListRestingOrders returns the maker's resting orders in one market.
func (c *Client) ListRestingOrders(ctx context.Context, marketID string) ([]types.OrderRow, error) {
	if err := c.session.RequireAuth(ctx); err != nil {
		return nil, err
	}
	params := map[string]string{"market_id": marketID, "status": "resting"}
	var result types.OrdersResponse
	if err := c.get(ctx, c.session.UserPath()+"/orders", params, &result, "list orders"); err != nil {
		return nil, err
	}
	return result.Orders, nil
}

// GetPublicOrderBook returns dense yes/no views of the public book.
func (c *Client) GetPublicOrderBook(ctx context.Context, ticker string) (yes, no market.BookView, err error) {
	var result types.OrderBookResponse
	if err := c.get(ctx, "/v1/markets_by_ticker/"+ticker+"/order_book", nil, &result, "get order book"); err != nil {
		return yes, no, err
	}
	yes, no = market.FromPublicBook(&result)
	return yes, no, nil
}

// GetOwnOrderBook returns dense yes/no views built from the maker's own
// resting orders in the market.
func (c *Client) GetOwnOrderBook(ctx context.Context, marketID string) (yes, no market.BookView, err error) {
	orders, err := c.ListRestingOrders(ctx, marketID)
	if err != nil {
		return yes, no, err
	}
	yes, no = market.FromRestingOrders(orders)
	return yes, no, nil
}

// CancelOrders cancels the given orders. With the advanced API, ids are
// chunked into batch DELETE requests of at most 19; otherwise each order is
// deleted individually. Requests are paced at one per 300 ms.
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	if c.dryRun {
		c.logger.Info("DRY-RUN: would cancel orders", "count", len(orderIDs))
		return nil
	}
	if err := c.session.RequireAuth(ctx); err != nil {
		return err
	}

	if c.AdvancedAPI() {
		for start := 0; start < len(orderIDs); start += batchLimit {
			end := min(start+batchLimit, len(orderIDs))
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			body := map[string][]string{"ids": orderIDs[start:end]}
			if err := c.delete(ctx, c.session.UserPath()+"/batch_orders", body, "cancel orders"); err != nil {
				return err
			}
		}
		c.logger.Info("orders cancelled", "count", len(orderIDs))
		return nil
	}

	for _, id := range orderIDs {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.delete(ctx, c.session.UserPath()+"/orders/"+id, nil, "cancel order"); err != nil {
			return err
		}
	}
	c.logger.Info("orders cancelled", "count", len(orderIDs))
	return nil
}

// PlaceOrders places the given orders, batching and pacing like CancelOrders.
func (c *Client) PlaceOrders(ctx context.Context, orders []types.Order) ([]types.PlacedOrderRow, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	if c.dryRun {
		c.logger.Info("DRY-RUN: would place orders", "count", len(orders))
		placed := make([]types.PlacedOrderRow, len(orders))
		for i, o := range orders {
			placed[i] = types.PlacedOrderRow{OrderID: fmt.Sprintf("dry-run-%d", i), Price: o.Price, Status: "resting"}
		}
		return placed, nil
	}
	if err := c.session.RequireAuth(ctx); err != nil {
		return nil, err
	}

	var placed []types.PlacedOrderRow
	if c.AdvancedAPI() {
		for start := 0; start < len(orders); start += batchLimit {
			end := min(start+batchLimit, len(orders))
			if err := c.limiter.Wait(ctx); err != nil {
				return placed, err
			}
			body := map[string][]types.Order{"orders": orders[start:end]}
			var result types.PlacedOrdersResponse
			if err := c.post(ctx, c.session.UserPath()+"/batch_orders", body, &result, "place orders"); err != nil {
				return placed, err
			}
			placed = append(placed, result.Orders...)
		}
		return placed, nil
	}

	for _, order := range orders {
		if err := c.limiter.Wait(ctx); err != nil {
			return placed, err
		}
		var result types.PlacedOrderResponse
		if err := c.post(ctx, c.session.UserPath()+"/orders", order, &result, "place order"); err != nil {
			return placed, err
		}
		placed = append(placed, result.Order)
	}
	return placed, nil
}

// get issues an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any, op string) error {
	if err := c.session.RequireAuth(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.session.AuthHeader()).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", op, httpError(resp))
	}
	return nil
}

// post issues an authenticated POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any, op string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.session.AuthHeader()).
		SetBody(body).
		SetResult(out).
		Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", op, httpError(resp))
	}
	return nil
}

// delete issues an authenticated DELETE with an optional JSON body.
func (c *Client) delete(ctx context.Context, path string, body any, op string) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.session.AuthHeader())
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Delete(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", op, httpError(resp))
	}
	return nil
}
